// Command riscv5asm is the two-pass assembler CLI. Its "assemble"
// subcommand reads a single assembly source file and prints the
// resulting address | machine word | source listing (or a JSON array
// with --json), exiting 1 on any encoding or parse error.
package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/riscv5edu/riscv5/pkg/asm"
	"github.com/spf13/cobra"
)

// jsonWord is one entry of the --json output array.
type jsonWord struct {
	Address uint32 `json:"address"`
	Word    uint32 `json:"word"`
}

func main() {
	log.SetFlags(0)

	var filename string
	var asJSON bool

	assembleCmd := &cobra.Command{
		Use:   "assemble",
		Short: "Assemble RV32I source into a bit-exact instruction listing",
		RunE: func(cmd *cobra.Command, args []string) error {
			if filename == "" {
				return fmt.Errorf("usage: riscv5asm assemble -f <assembly-file> [--json]")
			}
			fp, err := os.Open(filename)
			if err != nil {
				return err
			}
			defer fp.Close()

			if asJSON {
				var words []jsonWord
				for ioe := range asm.StartAssembler(fp) {
					if ioe.Err != nil {
						return fmt.Errorf("line %d: %w", ioe.Line, ioe.Err)
					}
					words = append(words, jsonWord{Address: ioe.Address, Word: ioe.Instruction})
				}
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(words)
			}

			for ioe := range asm.StartAssembler(fp) {
				line, err := ioe.Listing()
				if err != nil {
					return fmt.Errorf("line %d: %w", ioe.Line, err)
				}
				fmt.Print(line)
			}
			return nil
		},
	}
	assembleCmd.Flags().StringVarP(&filename, "file", "f", "", "assembly source file")
	assembleCmd.Flags().BoolVar(&asJSON, "json", false, "emit a JSON array of {address, word} instead of the text listing")

	rootCmd := &cobra.Command{Use: "riscv5asm", Short: "RV32I two-pass assembler"}
	rootCmd.AddCommand(assembleCmd)

	if err := rootCmd.Execute(); err != nil {
		log.Println(err)
		os.Exit(1)
	}
}
