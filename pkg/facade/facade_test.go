package facade_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riscv5edu/riscv5/pkg/facade"
)

func TestFacade_BeforeInitialize(t *testing.T) {
	var f facade.Facade
	_, err := f.GetPC()
	assert.ErrorIs(t, err, facade.ErrNotInitialized)
	assert.ErrorIs(t, f.Step(), facade.ErrNotInitialized)
}

func TestFacade_InitializeRunInspect(t *testing.T) {
	var f facade.Facade
	err := f.Initialize(strings.NewReader("addi x1, x0, 7\n"))
	require.NoError(t, err)

	require.NoError(t, f.Run(0))

	v, err := f.GetReg(1)
	require.NoError(t, err)
	assert.EqualValues(t, 7, v)
}

func TestFacade_SetRegRejectsX0AndOutOfRange(t *testing.T) {
	var f facade.Facade
	require.NoError(t, f.Initialize(strings.NewReader("addi x1, x0, 1\n")))

	assert.Error(t, f.SetReg(0, 5))
	assert.Error(t, f.SetReg(32, 5))
	assert.NoError(t, f.SetReg(2, 5))

	v, err := f.GetReg(2)
	require.NoError(t, err)
	assert.EqualValues(t, 5, v)
}

func TestFacade_MemoryPeekPoke(t *testing.T) {
	var f facade.Facade
	require.NoError(t, f.Initialize(strings.NewReader("addi x1, x0, 1\n")))

	require.NoError(t, f.SetMemWord(0, 0x12345678))
	v, err := f.GetMemWord(0)
	require.NoError(t, err)
	assert.EqualValues(t, 0x12345678, v)

	b, err := f.GetMemByte(0)
	require.NoError(t, err)
	assert.EqualValues(t, 0x78, b)

	_, err = f.GetMemWord(126)
	assert.Error(t, err, "word access must stay within [0,124]")
}

func TestFacade_AssemblyListing(t *testing.T) {
	var f facade.Facade
	require.NoError(t, f.Initialize(strings.NewReader("addi x1, x0, 7\n")))

	listing, err := f.GetAssemblyListing()
	require.NoError(t, err)
	assert.Contains(t, listing, "0x00000080")
}

func TestFacade_InitializeRejectsBadSource(t *testing.T) {
	var f facade.Facade
	err := f.Initialize(strings.NewReader("bogus x1, x2, x3\n"))
	assert.Error(t, err)
}

func TestFacade_Reset(t *testing.T) {
	var f facade.Facade
	require.NoError(t, f.Initialize(strings.NewReader("addi x1, x0, 7\n")))
	require.NoError(t, f.Run(0))
	require.NoError(t, f.Reset())

	v, err := f.GetReg(1)
	require.NoError(t, err)
	assert.EqualValues(t, 0, v)

	pc, err := f.GetPC()
	require.NoError(t, err)
	assert.EqualValues(t, 0x80, pc)
}
