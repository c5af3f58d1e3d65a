package vm_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rv32emu/vm"
)

func runMulDiv(t *testing.T, kindFunct3, funct7 uint32, rs1val, rs2val uint32) uint32 {
	t.Helper()
	v := newTestVM(t, []uint32{
		encodeI(0b0010011, 1, 0b000, 0, int32(rs1val)),
		encodeI(0b0010011, 2, 0b000, 0, int32(rs2val)),
		encodeR(0b0110011, 3, kindFunct3, 1, 2, funct7),
	})
	require.NoError(t, v.Step())
	require.NoError(t, v.Step())
	require.NoError(t, v.Step())
	return v.Regs.Get(3)
}

func TestDivByZeroYieldsAllOnes(t *testing.T) {
	got := runMulDiv(t, 0b100, 0b0000001, 10, 0)
	assert.Equal(t, uint32(0xFFFFFFFF), got)
}

func TestDivUByZeroYieldsAllOnes(t *testing.T) {
	got := runMulDiv(t, 0b101, 0b0000001, 10, 0)
	assert.Equal(t, uint32(0xFFFFFFFF), got)
}

func TestRemByZeroYieldsDividend(t *testing.T) {
	got := runMulDiv(t, 0b110, 0b0000001, 10, 0)
	assert.Equal(t, uint32(10), got)
}

func TestDivOverflowYieldsDividend(t *testing.T) {
	// addi can't load 0x80000000 directly; use two instructions to build it.
	v := newTestVM(t, []uint32{
		encodeI(0b0010011, 1, 0b000, 0, 1),
		encodeI(0b0010011, 1, 0b001, 1, 31), // slli x1, x1, 31 -> 0x80000000
		encodeI(0b0010011, 2, 0b000, 0, -1),
		encodeR(0b0110011, 3, 0b100, 1, 2, 0b0000001), // div x3, x1, x2
	})
	require.NoError(t, v.Step())
	require.NoError(t, v.Step())
	require.NoError(t, v.Step())
	require.NoError(t, v.Step())
	assert.Equal(t, uint32(0x80000000), v.Regs.Get(3))
}

func TestMulhuHighBits(t *testing.T) {
	v := newTestVM(t, []uint32{
		encodeI(0b0010011, 1, 0b000, 0, -1), // x1 = 0xFFFFFFFF
		encodeI(0b0010011, 2, 0b000, 0, -1), // x2 = 0xFFFFFFFF
		encodeR(0b0110011, 3, 0b011, 1, 2, 0b0000001), // mulhu x3, x1, x2
	})
	require.NoError(t, v.Step())
	require.NoError(t, v.Step())
	require.NoError(t, v.Step())
	assert.Equal(t, uint32(0xFFFFFFFE), v.Regs.Get(3))
}
