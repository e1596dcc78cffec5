package asm

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/riscv5edu/riscv5/pkg/ast"
	"github.com/riscv5edu/riscv5/pkg/isa"
)

// parseLines drains the lexer's channel and performs a single linear
// scan: it tracks a .text/.data cursor, records label -> address
// bindings, collects .word values into the data segment, and
// tokenizes every text-segment line into an ast.ParsedInstruction with
// memory-form operands already canonicalized. Address assignment has
// no forward dependency, unlike the labels referenced by B/J
// immediates, which the encoder resolves in a later pass once the
// whole symbol table exists.
func parseLines(lines <-chan Line) (*ast.Program, error) {
	prog := &ast.Program{
		Symbols: make(ast.SymbolTable),
		Data:    make(ast.DataSegment),
	}
	textAddr := ast.TextBase
	dataAddr := ast.DataBase
	inData := false

	for ln := range lines {
		text := ln.Text

		switch {
		case text == ".data":
			inData = true
			continue
		case text == ".text":
			inData = false
			continue
		case strings.HasPrefix(text, ".global"):
			continue
		}

		if idx := strings.IndexByte(text, ':'); idx >= 0 {
			label := strings.TrimSpace(text[:idx])
			if label == "" {
				return nil, fmt.Errorf("%w: empty label on line %d", ErrMalformedMemoryOperand, ln.Number)
			}
			if _, dup := prog.Symbols[label]; dup {
				return nil, fmt.Errorf("%w: %q on line %d", ErrDuplicateLabel, label, ln.Number)
			}
			if inData {
				prog.Symbols[label] = dataAddr
			} else {
				prog.Symbols[label] = textAddr
			}
			text = strings.TrimSpace(text[idx+1:])
			if text == "" {
				continue
			}
		}

		if inData {
			value, err := parseDataDirective(text, ln.Number)
			if err != nil {
				return nil, err
			}
			prog.Data[dataAddr] = value
			dataAddr += 4
			continue
		}

		instr, err := parseInstructionLine(text, textAddr, ln.Number)
		if err != nil {
			return nil, err
		}
		prog.Instructions = append(prog.Instructions, instr)
		textAddr += 4
	}

	if len(prog.Instructions) == 0 {
		return nil, ErrEmptyProgram
	}
	return prog, nil
}

// parseDataDirective parses a ".word <literal>" line in the data
// segment.
func parseDataDirective(text string, lineno int) (int32, error) {
	fields := strings.Fields(text)
	if len(fields) != 2 || fields[0] != ".word" {
		return 0, fmt.Errorf("%w: expected \".word <value>\" on line %d, got %q", ErrMalformedMemoryOperand, lineno, text)
	}
	v, err := strconv.ParseInt(fields[1], 0, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q on line %d", ErrBadImmediate, fields[1], lineno)
	}
	return int32(v), nil
}

// parseInstructionLine tokenizes one text-segment line into a
// ParsedInstruction, canonicalizing lw/sw memory-form operands
// ("rd, imm(rs1)") into the three-element form [rd, rs1, imm] the
// encoder expects.
func parseInstructionLine(text string, addr uint32, lineno int) (ast.ParsedInstruction, error) {
	fields := strings.SplitN(text, " ", 2)
	mnemonic := strings.ToLower(fields[0])
	var rest string
	if len(fields) == 2 {
		rest = fields[1]
	}

	entry, ok := isa.Lookup(mnemonic)
	if !ok {
		return ast.ParsedInstruction{}, fmt.Errorf("%w: %q on line %d", ErrUnknownMnemonic, mnemonic, lineno)
	}

	var operands []string
	for _, tok := range strings.Split(rest, ",") {
		tok = strings.TrimSpace(tok)
		if tok != "" {
			operands = append(operands, tok)
		}
	}

	if entry.Mnemonic == "lw" || entry.Mnemonic == "sw" || entry.Mnemonic == "jalr" {
		canon, err := canonicalizeMemoryOperands(operands, lineno)
		if err != nil {
			return ast.ParsedInstruction{}, err
		}
		operands = canon
	}

	return ast.ParsedInstruction{
		Mnemonic: entry.Mnemonic,
		Operands: operands,
		Address:  addr,
		Line:     lineno,
		Source:   text,
	}, nil
}

// canonicalizeMemoryOperands rewrites "rX, imm(rY)" into [rX, rY, imm].
// jalr's source form "rd, rs1, imm" (no parens) is accepted unchanged.
func canonicalizeMemoryOperands(operands []string, lineno int) ([]string, error) {
	if len(operands) == 3 {
		// Already in [reg, reg, imm] form (e.g. "jalr x1, x5, 0").
		return operands, nil
	}
	if len(operands) != 2 {
		return nil, fmt.Errorf("%w: expected 2 operands on line %d, got %d", ErrMalformedMemoryOperand, lineno, len(operands))
	}
	reg, mem := operands[0], operands[1]
	open := strings.IndexByte(mem, '(')
	shut := strings.IndexByte(mem, ')')
	if open < 0 || shut < 0 || shut < open {
		return nil, fmt.Errorf("%w: %q on line %d is not of the form imm(rX)", ErrMalformedMemoryOperand, mem, lineno)
	}
	imm := strings.TrimSpace(mem[:open])
	base := strings.TrimSpace(mem[open+1 : shut])
	if imm == "" {
		imm = "0"
	}
	return []string{reg, base, imm}, nil
}
