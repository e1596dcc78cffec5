// Package asm contains the RISC-V two-pass assembler: a lexer, a
// parser, and the encoder that turns a ParsedInstruction plus a
// SymbolTable into a bit-exact 32-bit machine word.
//
// A background goroutine drains the lexer, builds the symbol table and
// parsed-instruction list, then encodes each instruction now that
// every label is known, sending one InstructionOrError per instruction
// on the returned channel.
package asm

import (
	"fmt"
	"io"

	"github.com/riscv5edu/riscv5/pkg/ast"
	"github.com/riscv5edu/riscv5/pkg/isa"
)

// InstructionOrError carries either a successfully encoded word or the
// error that occurred assembling it.
type InstructionOrError struct {
	Address     uint32
	Instruction uint32
	Source      string
	Line        int
	Err         error
}

// Listing renders one line of an assembly listing:
// address | machine word hex | source text.
func (ioe InstructionOrError) Listing() (string, error) {
	if ioe.Err != nil {
		return "", ioe.Err
	}
	return fmt.Sprintf("0x%08x  0x%08x  %s\n", ioe.Address, ioe.Instruction, ioe.Source), nil
}

// StartAssembler starts the assembler in a background goroutine and
// returns a channel of InstructionOrError, one per instruction in
// source order.
func StartAssembler(r io.Reader) <-chan InstructionOrError {
	out := make(chan InstructionOrError)
	go assembleAsync(r, out)
	return out
}

func assembleAsync(r io.Reader, out chan<- InstructionOrError) {
	defer close(out)

	prog, err := parseLines(StartLexing(r))
	if err != nil {
		out <- InstructionOrError{Err: err}
		return
	}

	for _, instr := range prog.Instructions {
		word, encErr := EncodeInstruction(instr, prog.Symbols)
		out <- InstructionOrError{
			Address:     instr.Address,
			Instruction: word,
			Source:      instr.Source,
			Line:        instr.Line,
			Err:         encErr,
		}
	}
}

// Assemble runs the full pipeline synchronously and returns the
// resulting instruction image plus the parsed data segment, or the
// first error encountered. This is the entry point the embedding
// facade (and through it riscv5sim) uses; riscv5asm streams from
// StartAssembler instead.
func Assemble(r io.Reader) (ast.Image, ast.DataSegment, error) {
	prog, err := parseLines(StartLexing(r))
	if err != nil {
		return nil, nil, err
	}
	image := make(ast.Image, len(prog.Instructions))
	for _, instr := range prog.Instructions {
		word, encErr := EncodeInstruction(instr, prog.Symbols)
		if encErr != nil {
			return nil, nil, fmt.Errorf("line %d (%q): %w", instr.Line, instr.Source, encErr)
		}
		image[instr.Address] = word
	}
	return image, prog.Data, nil
}

// EncodeInstruction dispatches a single ParsedInstruction to the
// format-specific encoder named by its isa.Entry, resolving registers,
// immediates, and labels along the way.
func EncodeInstruction(instr ast.ParsedInstruction, symbols ast.SymbolTable) (uint32, error) {
	entry, ok := isa.Lookup(instr.Mnemonic)
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownMnemonic, instr.Mnemonic)
	}

	switch entry.Format {
	case isa.FormatR:
		if len(instr.Operands) != 3 {
			return 0, fmt.Errorf("%w: %q wants rd, rs1, rs2", ErrMalformedMemoryOperand, instr.Mnemonic)
		}
		rd, err := ParseRegister(instr.Operands[0])
		if err != nil {
			return 0, err
		}
		rs1, err := ParseRegister(instr.Operands[1])
		if err != nil {
			return 0, err
		}
		rs2, err := ParseRegister(instr.Operands[2])
		if err != nil {
			return 0, err
		}
		return EncodeR(entry, rd, rs1, rs2), nil

	case isa.FormatI:
		if len(instr.Operands) != 3 {
			return 0, fmt.Errorf("%w: %q wants rd, rs1, imm", ErrMalformedMemoryOperand, instr.Mnemonic)
		}
		rd, err := ParseRegister(instr.Operands[0])
		if err != nil {
			return 0, err
		}
		rs1, err := ParseRegister(instr.Operands[1])
		if err != nil {
			return 0, err
		}
		imm, err := ResolveImmediateOrLabel(instr.Operands[2], symbols)
		if err != nil {
			return 0, err
		}
		return EncodeI(entry, rd, rs1, int32(imm))

	case isa.FormatIShift:
		if len(instr.Operands) != 3 {
			return 0, fmt.Errorf("%w: %q wants rd, rs1, shamt", ErrMalformedMemoryOperand, instr.Mnemonic)
		}
		rd, err := ParseRegister(instr.Operands[0])
		if err != nil {
			return 0, err
		}
		rs1, err := ParseRegister(instr.Operands[1])
		if err != nil {
			return 0, err
		}
		shamt, err := ParseImmediateLiteral(instr.Operands[2])
		if err != nil {
			return 0, err
		}
		return EncodeIShift(entry, rd, rs1, int32(shamt))

	case isa.FormatS:
		if len(instr.Operands) != 3 {
			return 0, fmt.Errorf("%w: %q wants rs2, rs1, imm", ErrMalformedMemoryOperand, instr.Mnemonic)
		}
		// Canonicalized order is [data-reg(rs2), base-reg(rs1), imm].
		rs2, err := ParseRegister(instr.Operands[0])
		if err != nil {
			return 0, err
		}
		rs1, err := ParseRegister(instr.Operands[1])
		if err != nil {
			return 0, err
		}
		imm, err := ResolveImmediateOrLabel(instr.Operands[2], symbols)
		if err != nil {
			return 0, err
		}
		return EncodeS(entry, rs1, rs2, int32(imm))

	case isa.FormatB:
		if len(instr.Operands) != 3 {
			return 0, fmt.Errorf("%w: %q wants rs1, rs2, label", ErrMalformedMemoryOperand, instr.Mnemonic)
		}
		rs1, err := ParseRegister(instr.Operands[0])
		if err != nil {
			return 0, err
		}
		rs2, err := ParseRegister(instr.Operands[1])
		if err != nil {
			return 0, err
		}
		target, ok := symbols[instr.Operands[2]]
		if !ok {
			return 0, fmt.Errorf("%w: %q", ErrUnresolvedLabel, instr.Operands[2])
		}
		offset := int32(int64(target) - int64(instr.Address))
		return EncodeB(entry, rs1, rs2, offset)

	case isa.FormatJ:
		if len(instr.Operands) != 2 {
			return 0, fmt.Errorf("%w: %q wants rd, label", ErrMalformedMemoryOperand, instr.Mnemonic)
		}
		rd, err := ParseRegister(instr.Operands[0])
		if err != nil {
			return 0, err
		}
		target, ok := symbols[instr.Operands[1]]
		if !ok {
			return 0, fmt.Errorf("%w: %q", ErrUnresolvedLabel, instr.Operands[1])
		}
		offset := int32(int64(target) - int64(instr.Address))
		return EncodeJ(entry, rd, offset)

	default:
		return 0, fmt.Errorf("%w: %q has unhandled format", ErrUnknownMnemonic, instr.Mnemonic)
	}
}
