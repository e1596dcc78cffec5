// Package ast holds the data model produced by the lexer/parser and
// consumed by the encoder: parsed instructions, the symbol table, the
// data segment, and the resulting instruction image. None of these
// types carry behavior beyond what the encoder needs: a single
// ParsedInstruction plus isa.Entry is enough to drive encoding, so the
// encoder can stay five small pure functions keyed by format instead of
// one method per mnemonic.
package ast

const (
	// TextBase is the starting address of the instruction segment.
	TextBase = uint32(0x80)
	// DataBase is the starting address of the data segment.
	DataBase = uint32(0x00)
)

// ParsedInstruction is one assembly-source line that has been
// tokenized but not yet encoded.
type ParsedInstruction struct {
	Mnemonic string
	Operands []string
	Address  uint32
	Line     int
	Source   string
}

// SymbolTable maps a label to the address it resolves to: an
// instruction address in the text segment, or a data address in the
// data segment.
type SymbolTable map[string]uint32

// DataSegment maps a data address to the signed 32-bit word stored
// there by a `.word` directive.
type DataSegment map[uint32]int32

// Image maps an instruction address to its encoded 32-bit word.
type Image map[uint32]uint32

// Program is everything the parser produces and everything the
// encoder and the pipeline need to get started.
type Program struct {
	Instructions []ParsedInstruction
	Symbols      SymbolTable
	Data         DataSegment
}
