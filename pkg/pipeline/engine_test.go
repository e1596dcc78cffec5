package pipeline_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riscv5edu/riscv5/pkg/asm"
	"github.com/riscv5edu/riscv5/pkg/pipeline"
)

func runToCompletion(t *testing.T, src string, maxCycles int) *pipeline.Engine {
	t.Helper()
	image, data, err := asm.Assemble(strings.NewReader(src))
	require.NoError(t, err)
	engine, err := pipeline.NewEngine(image, data)
	require.NoError(t, err)

	last, have := engine.LastInstructionAddress()
	for n := 0; n < maxCycles; n++ {
		if have && engine.State.PC > last+4 {
			break
		}
		require.NoError(t, engine.Step())
	}
	return engine
}

func TestScenario_SingleImmediate(t *testing.T) {
	engine := runToCompletion(t, "addi x1, x0, 7\n", 50)
	assert.EqualValues(t, 7, engine.State.ReadReg(1))
}

func TestScenario_RAWHazardNoForwarding(t *testing.T) {
	src := "addi x1,x0,5\naddi x2,x0,3\nadd x3,x1,x2\n"
	engine := runToCompletion(t, src, 50)
	assert.EqualValues(t, 5, engine.State.ReadReg(1))
	assert.EqualValues(t, 3, engine.State.ReadReg(2))
	assert.EqualValues(t, 8, engine.State.ReadReg(3), "add must see both operands despite no forwarding")
}

func TestScenario_BranchFlush(t *testing.T) {
	src := "addi x1,x0,1\nbeq x1,x1,SKIP\naddi x2,x0,99\nSKIP:\naddi x3,x0,7\n"
	engine := runToCompletion(t, src, 50)
	assert.EqualValues(t, 0, engine.State.ReadReg(2), "flushed instruction must never write back")
	assert.EqualValues(t, 7, engine.State.ReadReg(3))
}

func TestScenario_StoreLoadRoundTrip(t *testing.T) {
	src := "addi x6,x0,0x678\nsw x6,0(x0)\nlw x5,0(x0)\n"
	engine := runToCompletion(t, src, 50)
	assert.EqualValues(t, 0x678, engine.State.ReadReg(5))
}

func TestX0AlwaysZero(t *testing.T) {
	src := "addi x0,x0,99\naddi x1,x0,1\n"
	engine := runToCompletion(t, src, 50)
	assert.EqualValues(t, 0, engine.State.ReadReg(0))
}

func TestNotTakenBranchAdvancesNormally(t *testing.T) {
	src := "addi x1,x0,1\naddi x2,x0,2\nblt x2,x1,NOWHERE\naddi x3,x0,9\nNOWHERE:\naddi x4,x0,4\n"
	engine := runToCompletion(t, src, 50)
	assert.EqualValues(t, 9, engine.State.ReadReg(3), "not-taken branch must not skip the following instruction")
	assert.EqualValues(t, 4, engine.State.ReadReg(4))
}

func TestReset_RestoresInitialState(t *testing.T) {
	image, data, err := asm.Assemble(strings.NewReader("addi x1,x0,7\n"))
	require.NoError(t, err)
	engine, err := pipeline.NewEngine(image, data)
	require.NoError(t, err)

	require.NoError(t, engine.Step())
	require.NoError(t, engine.Step())
	require.NoError(t, engine.Step())

	require.NoError(t, engine.Reset())
	assert.EqualValues(t, 0, engine.State.Cycle)
	assert.Equal(t, engine.State.PC, uint32(0x80))
	for i := 0; i < 32; i++ {
		assert.EqualValues(t, 0, engine.State.ReadReg(i))
	}
	assert.Empty(t, engine.Latches.Snapshot().IFID.IR)
}
