// Package facade wires the assembler and the pipeline engine together
// behind the handful of operations a host UI or CLI needs:
// initialize/step/run/reset, register and memory peek/poke, a
// pipeline snapshot, and an assembly listing.
package facade

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/riscv5edu/riscv5/pkg/asm"
	"github.com/riscv5edu/riscv5/pkg/pipeline"
)

// DefaultMaxCycles is the hard ceiling Run applies when called with
// maxCycles <= 0, guarding against a program that never reaches its
// last instruction.
const DefaultMaxCycles = 10000

// ErrNotInitialized is returned by every operation attempted before a
// successful Initialize call.
var ErrNotInitialized = errors.New("ERROR: simulator not initialized")

// Facade is the single entry point an embedding host uses to drive the
// assembler and pipeline engine together.
type Facade struct {
	engine  *pipeline.Engine
	listing []asm.InstructionOrError
}

// Initialize runs the parser+encoder over source, builds a fresh
// pipeline engine, and loads the data segment. A failure here leaves
// the facade uninitialized and every other method returns
// ErrNotInitialized.
func (f *Facade) Initialize(source io.Reader) error {
	src, err := io.ReadAll(source)
	if err != nil {
		return err
	}

	image, data, err := asm.Assemble(bytes.NewReader(src))
	if err != nil {
		return err
	}

	engine, err := pipeline.NewEngine(image, data)
	if err != nil {
		return err
	}

	var listing []asm.InstructionOrError
	for ioe := range asm.StartAssembler(bytes.NewReader(src)) {
		listing = append(listing, ioe)
	}

	f.engine = engine
	f.listing = listing
	return nil
}

// Step advances the pipeline by one cycle.
func (f *Facade) Step() error {
	if f.engine == nil {
		return ErrNotInitialized
	}
	return f.engine.Step()
}

// Run steps until pc exceeds the last instruction address plus 4, or
// maxCycles cycles have elapsed. maxCycles <= 0 selects
// DefaultMaxCycles.
func (f *Facade) Run(maxCycles int) error {
	if f.engine == nil {
		return ErrNotInitialized
	}
	if maxCycles <= 0 {
		maxCycles = DefaultMaxCycles
	}
	last, have := f.engine.LastInstructionAddress()
	for n := 0; n < maxCycles; n++ {
		if have && f.engine.State.PC > last+4 {
			return nil
		}
		if err := f.engine.Step(); err != nil {
			return err
		}
	}
	return nil
}

// Reset zeroes architectural state and all latches, then reloads the
// data segment.
func (f *Facade) Reset() error {
	if f.engine == nil {
		return ErrNotInitialized
	}
	return f.engine.Reset()
}

// ProgramEnd returns the instruction image's highest address, the
// boundary Run and any hand-rolled stepping loop use to detect that
// the program has finished retiring.
func (f *Facade) ProgramEnd() (uint32, bool, error) {
	if f.engine == nil {
		return 0, false, ErrNotInitialized
	}
	last, have := f.engine.LastInstructionAddress()
	return last, have, nil
}

// GetPC returns the current program counter.
func (f *Facade) GetPC() (uint32, error) {
	if f.engine == nil {
		return 0, ErrNotInitialized
	}
	return f.engine.State.PC, nil
}

// GetReg returns register i's value.
func (f *Facade) GetReg(i int) (int32, error) {
	if f.engine == nil {
		return 0, ErrNotInitialized
	}
	return f.engine.State.ReadReg(i), nil
}

// SetReg writes v into register i. Writes to x0, or to any index
// outside [1,31], are rejected as an invariant violation rather than
// silently discarded, since this is a host-driven poke rather than a
// pipeline write-back.
func (f *Facade) SetReg(i int, v int32) error {
	if f.engine == nil {
		return ErrNotInitialized
	}
	if i <= 0 || i >= 32 {
		return fmt.Errorf("ERROR: register x%d is not writable", i)
	}
	f.engine.State.WriteReg(i, v)
	return nil
}

// GetMemByte returns the byte at data address a.
func (f *Facade) GetMemByte(a uint32) (byte, error) {
	if f.engine == nil {
		return 0, ErrNotInitialized
	}
	return f.engine.State.ReadByte(a)
}

// SetMemByte writes v into data address a.
func (f *Facade) SetMemByte(a uint32, v byte) error {
	if f.engine == nil {
		return ErrNotInitialized
	}
	return f.engine.State.WriteByte(a, v)
}

// GetMemWord returns the little-endian 32-bit word at data address a.
func (f *Facade) GetMemWord(a uint32) (uint32, error) {
	if f.engine == nil {
		return 0, ErrNotInitialized
	}
	word, ok := f.engine.State.ReadWord(int32(a))
	if !ok {
		return 0, fmt.Errorf("ERROR: word address 0x%x out of range", a)
	}
	return word, nil
}

// SetMemWord writes v as a little-endian 32-bit word at data address
// a.
func (f *Facade) SetMemWord(a uint32, v uint32) error {
	if f.engine == nil {
		return ErrNotInitialized
	}
	if !f.engine.State.WriteWord(int32(a), v) {
		return fmt.Errorf("ERROR: word address 0x%x out of range", a)
	}
	return nil
}

// GetPipelineState returns a snapshot of all four latches for
// external display.
func (f *Facade) GetPipelineState() (pipeline.Snapshot, error) {
	if f.engine == nil {
		return pipeline.Snapshot{}, ErrNotInitialized
	}
	return f.engine.Latches.Snapshot(), nil
}

// Diagnostics returns every non-fatal runtime anomaly recorded since
// the last Initialize or Reset.
func (f *Facade) Diagnostics() ([]pipeline.Diagnostic, error) {
	if f.engine == nil {
		return nil, ErrNotInitialized
	}
	return f.engine.Diagnostics, nil
}

// GetAssemblyListing renders the address | machine word hex | source
// text columns for the whole program.
func (f *Facade) GetAssemblyListing() (string, error) {
	if f.engine == nil {
		return "", ErrNotInitialized
	}
	var b strings.Builder
	for _, ioe := range f.listing {
		line, err := ioe.Listing()
		if err != nil {
			return "", err
		}
		b.WriteString(line)
	}
	return b.String(), nil
}
