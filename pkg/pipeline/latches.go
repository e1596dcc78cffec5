// Package pipeline implements a five-stage in-order pipeline engine:
// double-buffered latches plus a reverse-order Step operator that
// advances WB, MEM, EX, ID, and IF once per cycle so no stage ever
// observes a write made earlier in the same cycle.
package pipeline

// IFID is the IF/ID latch: PC, NPC (=PC+4), and the fetched
// instruction word.
type IFID struct {
	PC  uint32
	NPC uint32
	IR  uint32
}

// IDEX is the ID/EX latch.
type IDEX struct {
	IR     uint32
	NPC    uint32
	A      int32 // rs1 value at decode time
	B      int32 // rs2 value at decode time
	IMM    int32 // sign-extended immediate
	Opcode uint32
	Funct3 uint32
	Funct7 uint32
	Rd     uint32
	Rs1    uint32
	Rs2    uint32

	RegWrite bool
	MemRead  bool
	MemWrite bool
	Branch   bool
}

// EXMEM is the EX/MEM latch.
type EXMEM struct {
	IR        uint32
	ALUOutput int32
	B         int32 // store datum
	Cond      bool
	Rd        uint32

	RegWrite bool
	MemRead  bool
	MemWrite bool
	Branch   bool
}

// MEMWB is the MEM/WB latch.
type MEMWB struct {
	IR        uint32
	ALUOutput int32
	LMD       int32 // load memory data
	Rd        uint32
	RegWrite  bool
}

// Latches bundles the four double-buffered pipeline registers. Current
// is what a stage reads this cycle; Next is what a stage writes this
// cycle. Commit atomically swaps Next into Current at the cycle
// boundary.
type Latches struct {
	IFID     IFID
	IFIDNext IFID

	IDEX     IDEX
	IDEXNext IDEX

	EXMEM     EXMEM
	EXMEMNext EXMEM

	MEMWB     MEMWB
	MEMWBNext MEMWB
}

// Commit copies every Next snapshot into its Current at the end of a
// cycle.
func (l *Latches) Commit() {
	l.IFID = l.IFIDNext
	l.IDEX = l.IDEXNext
	l.EXMEM = l.EXMEMNext
	l.MEMWB = l.MEMWBNext
}

// Reset zeroes every latch (both Current and Next).
func (l *Latches) Reset() {
	*l = Latches{}
}

// Snapshot is the read-only view of all four latches an embedding
// host can display for introspection or debugging.
type Snapshot struct {
	IFID  IFID
	IDEX  IDEX
	EXMEM EXMEM
	MEMWB MEMWB
}

// Snapshot returns the current (not Next) contents of all four
// latches.
func (l *Latches) Snapshot() Snapshot {
	return Snapshot{IFID: l.IFID, IDEX: l.IDEX, EXMEM: l.EXMEM, MEMWB: l.MEMWB}
}
