package vm_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rv32emu/vm"
)

func encodeI(opcode, rd, funct3, rs1 uint32, imm int32) uint32 {
	return (uint32(imm)<<20)&0xFFF00000 | (rs1 << 15) | (funct3 << 12) | (rd << 7) | opcode
}

func encodeR(opcode, rd, funct3, rs1, rs2, funct7 uint32) uint32 {
	return (funct7 << 25) | (rs2 << 20) | (rs1 << 15) | (funct3 << 12) | (rd << 7) | opcode
}

func encodeJ(opcode, rd uint32, imm int32) uint32 {
	u := uint32(imm)
	bit20 := (u >> 20) & 1
	bits19_12 := (u >> 12) & 0xff
	bit11 := (u >> 11) & 1
	bits10_1 := (u >> 1) & 0x3ff
	return (bit20 << 31) | (bits19_12 << 12) | (bit11 << 20) | (bits10_1 << 21) | (rd << 7) | opcode
}

func encodeB(opcode, funct3, rs1, rs2 uint32, imm int32) uint32 {
	u := uint32(imm)
	bit12 := (u >> 12) & 1
	bit11 := (u >> 11) & 1
	bits10_5 := (u >> 5) & 0x3f
	bits4_1 := (u >> 1) & 0xf
	return (bit12 << 31) | (bits10_5 << 25) | (rs2 << 20) | (rs1 << 15) | (funct3 << 12) | (bits4_1 << 8) | (bit11 << 7) | opcode
}

func TestDecodeADDI(t *testing.T) {
	word := encodeI(0b0010011, 5, 0b000, 6, -1)
	op, err := vm.Decode(word)
	require.NoError(t, err)
	assert.Equal(t, vm.KindADDI, op.Kind)
	assert.Equal(t, 5, op.Rd)
	assert.Equal(t, 6, op.Rs1)
	assert.Equal(t, int32(-1), op.Imm)
}

func TestDecodeADD(t *testing.T) {
	word := encodeR(0b0110011, 1, 0b000, 2, 3, 0b0000000)
	op, err := vm.Decode(word)
	require.NoError(t, err)
	assert.Equal(t, vm.KindADD, op.Kind)
}

func TestDecodeMulExtension(t *testing.T) {
	word := encodeR(0b0110011, 1, 0b000, 2, 3, 0b0000001)
	op, err := vm.Decode(word)
	require.NoError(t, err)
	assert.Equal(t, vm.KindMUL, op.Kind)
}

func TestDecodeIllegalOpcode(t *testing.T) {
	_, err := vm.Decode(0xFFFFFFFF)
	require.Error(t, err)
	var decodeErr *vm.DecodeError
	assert.ErrorAs(t, err, &decodeErr)
}

func TestDecodeEcallEbreak(t *testing.T) {
	ecall, err := vm.Decode(0b000000000000_00000_000_00000_1110011)
	require.NoError(t, err)
	assert.Equal(t, vm.KindECALL, ecall.Kind)

	ebreak, err := vm.Decode(0b000000000001_00000_000_00000_1110011)
	require.NoError(t, err)
	assert.Equal(t, vm.KindEBREAK, ebreak.Kind)
}

// JAL's immediate is a 21-bit signed value with an implicit zero low bit;
// it must round-trip through encode/decode unchanged.
func TestDecodeJALSignExtension(t *testing.T) {
	word := encodeJ(0b1101111, 0, -2)
	op, err := vm.Decode(word)
	require.NoError(t, err)
	assert.Equal(t, vm.KindJAL, op.Kind)
	assert.Equal(t, int32(-2), op.Imm)
}

func TestDecodeBranchImmediateRoundTrips(t *testing.T) {
	word := encodeB(0b1100011, 0b000, 0, 0, -4)
	op, err := vm.Decode(word)
	require.NoError(t, err)
	assert.Equal(t, vm.KindBEQ, op.Kind)
	assert.Equal(t, int32(-4), op.Imm)
}
