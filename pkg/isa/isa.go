// Package isa contains the static instruction-set table the encoder
// and the pipeline's EX stage both consult: a read-only map from
// mnemonic to bit layout, and the opcode/funct3/funct7 constants that
// identify each RV32I format at decode time.
package isa

import "sort"

// Format identifies one of the five RV32I instruction encodings this
// toolchain supports.
type Format int

const (
	FormatR Format = iota
	FormatI
	FormatIShift
	FormatS
	FormatB
	FormatJ
)

func (f Format) String() string {
	switch f {
	case FormatR:
		return "R"
	case FormatI:
		return "I"
	case FormatIShift:
		return "I-shift"
	case FormatS:
		return "S"
	case FormatB:
		return "B"
	case FormatJ:
		return "J"
	default:
		return "?"
	}
}

// Opcode values, standard RISC-V base opcodes (bits 6..0).
const (
	OpcodeRType  = uint32(0x33)
	OpcodeIType  = uint32(0x13)
	OpcodeLoad   = uint32(0x03)
	OpcodeStore  = uint32(0x23)
	OpcodeBranch = uint32(0x63)
)

// Entry describes one mnemonic's bit layout. Funct7 is meaningful only
// for FormatR and FormatIShift entries.
type Entry struct {
	Mnemonic string
	Format   Format
	Opcode   uint32
	Funct3   uint32
	Funct7   uint32
}

// Table is the read-only mnemonic -> Entry mapping. It covers the
// minimum RV32I subset this toolchain assembles and simulates.
var Table = map[string]Entry{
	"add":  {Mnemonic: "add", Format: FormatR, Opcode: OpcodeRType, Funct3: 0x0, Funct7: 0x00},
	"sub":  {Mnemonic: "sub", Format: FormatR, Opcode: OpcodeRType, Funct3: 0x0, Funct7: 0x20},
	"sll":  {Mnemonic: "sll", Format: FormatR, Opcode: OpcodeRType, Funct3: 0x1, Funct7: 0x00},
	"slt":  {Mnemonic: "slt", Format: FormatR, Opcode: OpcodeRType, Funct3: 0x2, Funct7: 0x00},
	"and":  {Mnemonic: "and", Format: FormatR, Opcode: OpcodeRType, Funct3: 0x7, Funct7: 0x00},
	"addi": {Mnemonic: "addi", Format: FormatI, Opcode: OpcodeIType, Funct3: 0x0},
	"slli": {Mnemonic: "slli", Format: FormatIShift, Opcode: OpcodeIType, Funct3: 0x1, Funct7: 0x00},
	"lw":   {Mnemonic: "lw", Format: FormatI, Opcode: OpcodeLoad, Funct3: 0x2},
	"jalr": {Mnemonic: "jalr", Format: FormatI, Opcode: 0x67, Funct3: 0x0},
	"sw":   {Mnemonic: "sw", Format: FormatS, Opcode: OpcodeStore, Funct3: 0x2},
	"beq":  {Mnemonic: "beq", Format: FormatB, Opcode: OpcodeBranch, Funct3: 0x0},
	"blt":  {Mnemonic: "blt", Format: FormatB, Opcode: OpcodeBranch, Funct3: 0x4},
	"jal":  {Mnemonic: "jal", Format: FormatJ, Opcode: 0x6F},
}

// Lookup returns the Entry for mnemonic, or false if the mnemonic is
// unknown to this instruction set.
func Lookup(mnemonic string) (Entry, bool) {
	e, ok := Table[mnemonic]
	return e, ok
}

// Mnemonics returns the sorted list of every supported mnemonic, handy
// for building usage text and for test tables that iterate the whole
// instruction set.
func Mnemonics() []string {
	out := make([]string, 0, len(Table))
	for m := range Table {
		out = append(out, m)
	}
	sort.Strings(out)
	return out
}
