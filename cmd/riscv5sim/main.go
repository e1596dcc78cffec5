// Command riscv5sim drives the five-stage pipeline simulator. The
// "run" subcommand assembles and executes a program to completion;
// "inspect" runs it and then prints one register or memory value.
package main

import (
	"bufio"
	"fmt"
	"log"
	"os"

	"github.com/riscv5edu/riscv5/pkg/facade"
	"github.com/spf13/cobra"
)

func main() {
	log.SetFlags(0)

	var filename string
	var debug bool
	var verbose bool
	var maxCycles int

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Assemble and run a program on the pipeline simulator",
		RunE: func(cmd *cobra.Command, args []string) error {
			if filename == "" {
				return fmt.Errorf("usage: riscv5sim run -f <assembly-file> [-d] [-v] [--max-cycles N]")
			}
			fp, err := os.Open(filename)
			if err != nil {
				return err
			}
			defer fp.Close()

			var f facade.Facade
			if err := f.Initialize(fp); err != nil {
				return err
			}

			last, haveLast, err := f.ProgramEnd()
			if err != nil {
				return err
			}
			ceiling := maxCycles
			if ceiling <= 0 {
				ceiling = facade.DefaultMaxCycles
			}
			for n := 0; n < ceiling; n++ {
				pc, err := f.GetPC()
				if err != nil {
					return err
				}
				if haveLast && pc > last+4 {
					break
				}
				if verbose {
					snap, err := f.GetPipelineState()
					if err != nil {
						return err
					}
					log.Printf("sim: pc=0x%08x if_id.ir=0x%08x id_ex.ir=0x%08x ex_mem.ir=0x%08x mem_wb.ir=0x%08x",
						pc, snap.IFID.IR, snap.IDEX.IR, snap.EXMEM.IR, snap.MEMWB.IR)
				}
				if debug {
					log.Printf("sim: paused...")
					bufio.NewReader(os.Stdin).ReadString('\n')
				}
				if err := f.Step(); err != nil {
					return err
				}
			}

			diags, err := f.Diagnostics()
			if err != nil {
				return err
			}
			for _, d := range diags {
				log.Printf("sim: [cycle %d] %s", d.Cycle, d.Message)
			}
			return nil
		},
	}
	runCmd.Flags().StringVarP(&filename, "file", "f", "", "assembly source file")
	runCmd.Flags().BoolVarP(&debug, "debug", "d", false, "pause after every cycle")
	runCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "trace every cycle's latch state")
	runCmd.Flags().IntVar(&maxCycles, "max-cycles", facade.DefaultMaxCycles, "cycle ceiling (0 = use default)")

	var regIdx int
	var memAddr uint32

	inspectCmd := &cobra.Command{
		Use:   "inspect",
		Short: "Run a program to completion and print one register or memory word",
		RunE: func(cmd *cobra.Command, args []string) error {
			if filename == "" {
				return fmt.Errorf("usage: riscv5sim inspect -f <assembly-file> [--reg N] [--mem A]")
			}
			fp, err := os.Open(filename)
			if err != nil {
				return err
			}
			defer fp.Close()

			var f facade.Facade
			if err := f.Initialize(fp); err != nil {
				return err
			}
			if err := f.Run(maxCycles); err != nil {
				return err
			}

			if cmd.Flags().Changed("reg") {
				v, err := f.GetReg(regIdx)
				if err != nil {
					return err
				}
				fmt.Printf("x%d = %d\n", regIdx, v)
			}
			if cmd.Flags().Changed("mem") {
				v, err := f.GetMemWord(memAddr)
				if err != nil {
					return err
				}
				fmt.Printf("mem[0x%x] = 0x%08x\n", memAddr, v)
			}
			return nil
		},
	}
	inspectCmd.Flags().StringVarP(&filename, "file", "f", "", "assembly source file")
	inspectCmd.Flags().IntVar(&regIdx, "reg", 0, "register index to print")
	inspectCmd.Flags().Uint32Var(&memAddr, "mem", 0, "data memory word address to print")
	inspectCmd.Flags().IntVar(&maxCycles, "max-cycles", facade.DefaultMaxCycles, "cycle ceiling (0 = use default)")

	rootCmd := &cobra.Command{Use: "riscv5sim", Short: "RV32I five-stage pipeline simulator"}
	rootCmd.AddCommand(runCmd, inspectCmd)

	if err := rootCmd.Execute(); err != nil {
		log.Println(err)
		os.Exit(1)
	}
}
