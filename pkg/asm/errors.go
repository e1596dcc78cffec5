package asm

import "errors"

// Sentinel errors for every recoverable failure the assembler can hit.
// Most are wrapped with fmt.Errorf("%w: ...") at the call site so a
// caller can both match on the sentinel and see the offending token;
// ErrEmptyProgram is returned as is.
var (
	ErrUnknownMnemonic        = errors.New("asm: unknown mnemonic")
	ErrBadRegister            = errors.New("asm: bad register operand")
	ErrBadImmediate           = errors.New("asm: bad immediate literal")
	ErrImmediateOutOfRange    = errors.New("asm: immediate out of range")
	ErrUnresolvedLabel        = errors.New("asm: unresolved label")
	ErrDuplicateLabel         = errors.New("asm: duplicate label")
	ErrMalformedMemoryOperand = errors.New("asm: malformed memory operand")
	ErrEmptyProgram           = errors.New("asm: empty program")
	ErrTooManyInstructions    = errors.New("asm: too many instructions")
)
