package asm

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/riscv5edu/riscv5/pkg/isa"
)

// EncodeR encodes an R-format instruction: funct7|rs2|rs1|funct3|rd|opcode.
func EncodeR(e isa.Entry, rd, rs1, rs2 uint32) uint32 {
	var out uint32
	out |= (e.Funct7 & 0x7F) << 25
	out |= (rs2 & 0x1F) << 20
	out |= (rs1 & 0x1F) << 15
	out |= (e.Funct3 & 0x7) << 12
	out |= (rd & 0x1F) << 7
	out |= e.Opcode & 0x7F
	return out
}

// EncodeI encodes a standard I-format instruction with a 12-bit signed
// immediate in bits 31..20.
func EncodeI(e isa.Entry, rd, rs1 uint32, imm int32) (uint32, error) {
	if imm < -2048 || imm > 2047 {
		return 0, fmt.Errorf("%w: I-format immediate %d out of 12-bit signed range", ErrImmediateOutOfRange, imm)
	}
	var out uint32
	out |= (uint32(imm) & 0xFFF) << 20
	out |= (rs1 & 0x1F) << 15
	out |= (e.Funct3 & 0x7) << 12
	out |= (rd & 0x1F) << 7
	out |= e.Opcode & 0x7F
	return out, nil
}

// EncodeIShift encodes a shift-immediate I-format instruction (slli):
// funct7|shamt[4:0]|rs1|funct3|rd|opcode.
func EncodeIShift(e isa.Entry, rd, rs1 uint32, shamt int32) (uint32, error) {
	if shamt < 0 || shamt > 31 {
		return 0, fmt.Errorf("%w: shift amount %d out of 5-bit range", ErrImmediateOutOfRange, shamt)
	}
	var out uint32
	out |= (e.Funct7 & 0x7F) << 25
	out |= (uint32(shamt) & 0x1F) << 20
	out |= (rs1 & 0x1F) << 15
	out |= (e.Funct3 & 0x7) << 12
	out |= (rd & 0x1F) << 7
	out |= e.Opcode & 0x7F
	return out, nil
}

// EncodeS encodes an S-format instruction: imm[11:5]|rs2|rs1|funct3|imm[4:0]|opcode.
func EncodeS(e isa.Entry, rs1, rs2 uint32, imm int32) (uint32, error) {
	if imm < -2048 || imm > 2047 {
		return 0, fmt.Errorf("%w: S-format immediate %d out of 12-bit signed range", ErrImmediateOutOfRange, imm)
	}
	u := uint32(imm)
	imm115 := (u >> 5) & 0x7F
	imm40 := u & 0x1F
	var out uint32
	out |= imm115 << 25
	out |= (rs2 & 0x1F) << 20
	out |= (rs1 & 0x1F) << 15
	out |= (e.Funct3 & 0x7) << 12
	out |= imm40 << 7
	out |= e.Opcode & 0x7F
	return out, nil
}

// EncodeB encodes a B-format instruction. imm is the signed byte
// offset target-current; the low bit is implicitly zero.
func EncodeB(e isa.Entry, rs1, rs2 uint32, imm int32) (uint32, error) {
	if imm < -4096 || imm > 4094 || imm%2 != 0 {
		return 0, fmt.Errorf("%w: B-format offset %d out of 13-bit even range", ErrImmediateOutOfRange, imm)
	}
	u := uint32(imm)
	imm12 := (u >> 12) & 0x1
	imm105 := (u >> 5) & 0x3F
	imm41 := (u >> 1) & 0xF
	imm11 := (u >> 11) & 0x1
	var out uint32
	out |= imm12 << 31
	out |= imm105 << 25
	out |= (rs2 & 0x1F) << 20
	out |= (rs1 & 0x1F) << 15
	out |= (e.Funct3 & 0x7) << 12
	out |= imm41 << 8
	out |= imm11 << 7
	out |= e.Opcode & 0x7F
	return out, nil
}

// EncodeJ encodes a J-format instruction. imm is the signed byte
// offset target-current; the low bit is implicitly zero.
func EncodeJ(e isa.Entry, rd uint32, imm int32) (uint32, error) {
	if imm < -(1<<20) || imm > (1<<20)-2 || imm%2 != 0 {
		return 0, fmt.Errorf("%w: J-format offset %d out of 21-bit even range", ErrImmediateOutOfRange, imm)
	}
	u := uint32(imm)
	imm20 := (u >> 20) & 0x1
	imm101 := (u >> 1) & 0x3FF
	imm11 := (u >> 11) & 0x1
	imm1912 := (u >> 12) & 0xFF
	var out uint32
	out |= imm20 << 31
	out |= imm101 << 21
	out |= imm11 << 20
	out |= imm1912 << 12
	out |= (rd & 0x1F) << 7
	out |= e.Opcode & 0x7F
	return out, nil
}

// ParseRegister parses an "x<decimal>" operand token, 0 <= decimal <= 31.
func ParseRegister(tok string) (uint32, error) {
	if len(tok) < 2 || tok[0] != 'x' {
		return 0, fmt.Errorf("%w: %q is not of the form xN", ErrBadRegister, tok)
	}
	n, err := strconv.ParseUint(tok[1:], 10, 32)
	if err != nil || n > 31 {
		return 0, fmt.Errorf("%w: %q is not a register in [x0, x31]", ErrBadRegister, tok)
	}
	return uint32(n), nil
}

// ParseImmediateLiteral parses a decimal or 0x-prefixed hex literal.
// strconv.ParseInt's base-0 mode handles the leading "0x" automatically.
func ParseImmediateLiteral(tok string) (int64, error) {
	v, err := strconv.ParseInt(tok, 0, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrBadImmediate, tok)
	}
	return v, nil
}

// ResolveImmediateOrLabel resolves tok either as a literal immediate
// or, failing that, as a label in symbols.
func ResolveImmediateOrLabel(tok string, symbols map[string]uint32) (int64, error) {
	if v, err := ParseImmediateLiteral(tok); err == nil {
		return v, nil
	}
	if addr, ok := symbols[strings.TrimSpace(tok)]; ok {
		return int64(addr), nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnresolvedLabel, tok)
}
