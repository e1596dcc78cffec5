package pipeline

import (
	"fmt"

	"github.com/riscv5edu/riscv5/pkg/arch"
	"github.com/riscv5edu/riscv5/pkg/ast"
	"github.com/riscv5edu/riscv5/pkg/isa"
)

// Diagnostic is a non-fatal runtime anomaly recorded during Step, such
// as an unmapped fetch or an out-of-bounds load/store, so a host can
// decide how to surface it instead of the engine writing to stdout
// directly.
type Diagnostic struct {
	Cycle   uint64
	Message string
}

// Engine owns the architectural state, the four pipeline latches, and
// the instruction image it fetches from.
type Engine struct {
	State   *arch.State
	Latches Latches

	image  ast.Image
	data   ast.DataSegment
	maxPC  uint32
	haveIR bool

	Diagnostics []Diagnostic
}

// NewEngine builds a pipeline engine around an already-assembled
// instruction image and data segment. The data segment is loaded into
// data memory immediately.
func NewEngine(image ast.Image, data ast.DataSegment) (*Engine, error) {
	e := &Engine{
		State: arch.NewState(),
		image: image,
		data:  data,
	}
	for addr := range image {
		if addr > e.maxPC {
			e.maxPC = addr
			e.haveIR = true
		}
	}
	if err := e.State.LoadDataSegment(data); err != nil {
		return nil, err
	}
	return e, nil
}

// LastInstructionAddress returns the highest instruction address in
// the image, used by Run's termination condition.
func (e *Engine) LastInstructionAddress() (uint32, bool) {
	return e.maxPC, e.haveIR
}

// Reset zeroes registers, data memory, all latches, and the cycle
// counter, then reloads the data segment.
func (e *Engine) Reset() error {
	e.State = arch.NewState()
	e.Latches.Reset()
	e.Diagnostics = nil
	return e.State.LoadDataSegment(e.data)
}

func (e *Engine) diagnose(format string, args ...interface{}) {
	e.Diagnostics = append(e.Diagnostics, Diagnostic{
		Cycle:   e.State.Cycle,
		Message: fmt.Sprintf(format, args...),
	})
}

// Step advances all five stages by exactly one cycle, in the mandated
// WB, MEM, EX, ID, IF order, then commits every latch's Next into its
// Current. Reverse order means no stage within this call observes a
// write another stage made earlier in the same call; every stage
// reads only what the previous cycle committed.
func (e *Engine) Step() error {
	e.State.Cycle++

	e.stageWB()
	e.stageMEM()
	branchTaken, branchTarget := e.stageEX()
	if branchTaken {
		e.State.PC = branchTarget
		e.Latches.IFIDNext = IFID{}
		e.Latches.IDEXNext = IDEX{}
		e.State.StallPending = true
	}
	e.stageID()
	e.stageIF()

	e.Latches.Commit()
	return nil
}

// stageWB implements the WB stage: write LMD (for loads) or ALUOutput
// (otherwise) to regs[rd], re-asserting x0 afterward.
func (e *Engine) stageWB() {
	mw := e.Latches.MEMWB
	if mw.RegWrite && mw.Rd != 0 {
		var data int32
		if mw.IR&0x7F == isa.OpcodeLoad {
			data = mw.LMD
		} else {
			data = mw.ALUOutput
		}
		e.State.WriteReg(int(mw.Rd), data)
	}
}

// stageMEM implements the MEM stage: pass-through copy into MEM/WB.next
// plus the load/store access itself, bounds-checked against the
// 0..124 word-access window data memory allows.
func (e *Engine) stageMEM() {
	em := e.Latches.EXMEM

	e.Latches.MEMWBNext = MEMWB{
		IR:        em.IR,
		ALUOutput: em.ALUOutput,
		Rd:        em.Rd,
		RegWrite:  em.RegWrite,
	}

	if em.IR == 0 {
		return
	}

	if em.MemRead {
		if word, ok := e.State.ReadWord(em.ALUOutput); ok {
			e.Latches.MEMWBNext.LMD = int32(word)
		} else {
			e.diagnose("load at 0x%x out of data memory bounds", em.ALUOutput)
		}
	}
	if em.MemWrite {
		if !e.State.WriteWord(em.ALUOutput, uint32(em.B)) {
			e.diagnose("store at 0x%x out of data memory bounds", em.ALUOutput)
		}
	}
}

// stageEX implements the EX stage and the control-hazard check that
// rides along with it. It returns whether a branch was taken this
// cycle and, if so, the new PC, so Step can apply the flush before
// running ID (which must see the already-flushed ID/EX.current next
// cycle, not this one — the flush here only zeroes the *next*
// snapshots that ID is about to write into via the unconditional
// IR/NPC copy).
func (e *Engine) stageEX() (bool, uint32) {
	ix := e.Latches.IDEX

	next := EXMEM{
		IR:       ix.IR,
		Rd:       ix.Rd,
		RegWrite: ix.RegWrite,
		MemRead:  ix.MemRead,
		MemWrite: ix.MemWrite,
		Branch:   ix.Branch,
		B:        ix.B,
	}

	if ix.IR != 0 {
		op1 := ix.A
		op2 := ix.B
		if ix.Opcode == isa.OpcodeIType || ix.Opcode == isa.OpcodeLoad || ix.Opcode == isa.OpcodeStore {
			op2 = ix.IMM
		}

		switch {
		case ix.Opcode == isa.OpcodeRType && ix.Funct3 == 0x0 && ix.Funct7 == 0x00:
			next.ALUOutput = op1 + op2
		case ix.Opcode == isa.OpcodeRType && ix.Funct3 == 0x0 && ix.Funct7 == 0x20:
			next.ALUOutput = op1 - op2
		case ix.Opcode == isa.OpcodeRType && ix.Funct3 == 0x1:
			next.ALUOutput = op1 << (uint32(op2) & 0x1F)
		case ix.Opcode == isa.OpcodeRType && ix.Funct3 == 0x2:
			if op1 < op2 {
				next.ALUOutput = 1
			}
		case ix.Opcode == isa.OpcodeRType && ix.Funct3 == 0x7:
			next.ALUOutput = op1 & op2
		case ix.Opcode == isa.OpcodeIType && ix.Funct3 == 0x0:
			next.ALUOutput = op1 + op2
		case ix.Opcode == isa.OpcodeIType && ix.Funct3 == 0x1:
			next.ALUOutput = op1 << (uint32(op2) & 0x1F)
		case ix.Opcode == isa.OpcodeLoad, ix.Opcode == isa.OpcodeStore:
			next.ALUOutput = op1 + op2
		case ix.Opcode == isa.OpcodeBranch && ix.Funct3 == 0x0:
			next.Cond = op1 == op2
		case ix.Opcode == isa.OpcodeBranch && ix.Funct3 == 0x4:
			next.Cond = op1 < op2
		}
	}

	e.Latches.EXMEMNext = next

	branchTaken := next.Branch && next.Cond
	if !branchTaken {
		return false, 0
	}
	// Preserves the source's immediate convention, where the decoded
	// IMM for a branch is half the true byte offset (see
	// decodeBranchImmediate); doubling it back here recovers the
	// intended target.
	target := uint32(int64(ix.NPC) + int64(ix.IMM)<<1 - 4)
	return true, target
}

// stageID implements the ID stage: unconditional IR/NPC copy into
// ID/EX.next, then either decode, bubble, or re-present on stall,
// and finally the no-forwarding RAW hazard check across EX, MEM, and
// WB.
func (e *Engine) stageID() {
	ifid := e.Latches.IFID

	next := IDEX{IR: ifid.IR, NPC: ifid.NPC}

	switch {
	case ifid.IR != 0 && !e.State.StallPending:
		opcode := ifid.IR & 0x7F
		rd := (ifid.IR >> 7) & 0x1F
		funct3 := (ifid.IR >> 12) & 0x7
		rs1 := (ifid.IR >> 15) & 0x1F
		rs2 := (ifid.IR >> 20) & 0x1F
		funct7 := (ifid.IR >> 25) & 0x7F

		next.Opcode = opcode
		next.Funct3 = funct3
		next.Funct7 = funct7
		next.Rd = rd
		next.Rs1 = rs1
		next.Rs2 = rs2
		next.RegWrite = opcode == isa.OpcodeRType || opcode == isa.OpcodeIType || opcode == isa.OpcodeLoad
		next.MemRead = opcode == isa.OpcodeLoad
		next.MemWrite = opcode == isa.OpcodeStore
		next.Branch = opcode == isa.OpcodeBranch

		switch opcode {
		case isa.OpcodeIType, isa.OpcodeLoad:
			next.IMM = decodeIImmediate(ifid.IR)
		case isa.OpcodeStore:
			next.IMM = decodeSImmediate(ifid.IR)
		case isa.OpcodeBranch:
			next.IMM = decodeBranchImmediate(ifid.IR)
		}

		needRs1 := opcode == isa.OpcodeRType || opcode == isa.OpcodeIType || opcode == isa.OpcodeLoad ||
			opcode == isa.OpcodeStore || opcode == isa.OpcodeBranch
		needRs2 := opcode == isa.OpcodeRType || opcode == isa.OpcodeStore || opcode == isa.OpcodeBranch

		if e.hazard(needRs1, rs1, needRs2, rs2) {
			e.Latches.IDEXNext = IDEX{}
			e.Latches.IFIDNext = ifid
			e.State.StallPending = true
			return
		}

		next.A = e.State.ReadReg(int(rs1))
		next.B = e.State.ReadReg(int(rs2))

	case ifid.IR == 0:
		next = IDEX{}
	}

	e.Latches.IDEXNext = next
}

// hazard reports whether any in-flight instruction in EX, MEM, or WB
// will write a register this decode needs. With no forwarding path, a
// write isn't visible to ID until the cycle after it reaches WB, so
// ID must stall until none of the three stages ahead of it still
// holds a pending write to either source register.
func (e *Engine) hazard(needRs1 bool, rs1 uint32, needRs2 bool, rs2 uint32) bool {
	producers := []struct {
		write bool
		rd    uint32
	}{
		{e.Latches.IDEX.RegWrite, e.Latches.IDEX.Rd},
		{e.Latches.EXMEM.RegWrite, e.Latches.EXMEM.Rd},
		{e.Latches.MEMWB.RegWrite, e.Latches.MEMWB.Rd},
	}
	for _, p := range producers {
		if !p.write || p.rd == 0 {
			continue
		}
		if (needRs1 && p.rd == rs1) || (needRs2 && p.rd == rs2) {
			return true
		}
	}
	return false
}

// stageIF implements the IF stage: on a pending stall it skips
// fetching and clears the flag; otherwise it fetches the word at pc
// (or emits a bubble on a fetch miss) and advances pc by 4.
func (e *Engine) stageIF() {
	if e.State.StallPending {
		e.State.StallPending = false
		return
	}

	word, ok := e.image[e.State.PC]
	if !ok {
		e.Latches.IFIDNext = IFID{}
		return
	}
	e.Latches.IFIDNext = IFID{PC: e.State.PC, NPC: e.State.PC + 4, IR: word}
	e.State.PC += 4
}

// decodeIImmediate sign-extends bits 31..20, the standard I-form
// immediate.
func decodeIImmediate(inst uint32) int32 {
	v := int32(inst) >> 20
	return v
}

// decodeSImmediate assembles imm[11:5]||imm[4:0] and sign-extends.
func decodeSImmediate(inst uint32) int32 {
	v := ((inst >> 25) << 5) | ((inst >> 7) & 0x1F)
	return signExtend(v, 12)
}

// decodeBranchImmediate deliberately decodes the B-immediate at half
// its true byte offset: it assembles the textbook imm[12|10:5|4:1|11]
// value, sign-extends it, and shifts it right by one (exact, since the
// offset is always even). stageEX's branch-target formula doubles IMM
// back out (NPC + (IMM<<1) - 4), so the recovered target is correct
// for forward and backward offsets alike; returning the full byte
// offset here would make every taken branch land twice as far as
// intended.
func decodeBranchImmediate(inst uint32) int32 {
	v := (inst>>31)<<12 | ((inst>>25)&0x3F)<<5 | ((inst>>8)&0xF)<<1 | ((inst>>7)&0x1)<<11
	return signExtend(v, 13) >> 1
}

func signExtend(v uint32, bit int) int32 {
	shift := 32 - bit
	return (int32(v) << shift) >> shift
}
