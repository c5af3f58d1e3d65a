package vm_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rv32emu/vm"
)

func newTestVM(t *testing.T, program []uint32) *vm.VM {
	t.Helper()
	v := vm.New()
	v.Memory.AddSegment(".text", 0, uint32(len(program)*4), vm.PermRead|vm.PermExecute)
	for i, word := range program {
		require.NoError(t, v.Memory.LoadBytes(uint32(i*4), []byte{
			byte(word), byte(word >> 8), byte(word >> 16), byte(word >> 24),
		}))
	}
	return v
}

func TestStepADDIAdvancesPC(t *testing.T) {
	v := newTestVM(t, []uint32{encodeI(0b0010011, 5, 0b000, 0, 10)}) // addi x5, x0, 10
	require.NoError(t, v.Step())
	assert.Equal(t, uint32(10), v.Regs.Get(5))
	assert.Equal(t, uint32(4), v.Regs.PC)
}

func TestStepPCAlwaysFourByteAlignedAfterStep(t *testing.T) {
	v := newTestVM(t, []uint32{
		encodeI(0b0010011, 1, 0b000, 0, 1),
		encodeI(0b0010011, 2, 0b000, 0, 2),
	})
	require.NoError(t, v.Step())
	assert.Zero(t, v.Regs.PC%4)
	require.NoError(t, v.Step())
	assert.Zero(t, v.Regs.PC%4)
}

func TestStepWriteToX0IsDiscarded(t *testing.T) {
	v := newTestVM(t, []uint32{encodeI(0b0010011, 0, 0b000, 0, 99)}) // addi x0, x0, 99
	require.NoError(t, v.Step())
	assert.Zero(t, v.Regs.Get(0))
}

func TestStepIllegalInstructionFaults(t *testing.T) {
	v := newTestVM(t, []uint32{0xFFFFFFFF})
	err := v.Step()
	require.Error(t, err)
	var fault *vm.Fault
	require.ErrorAs(t, err, &fault)
	assert.Equal(t, uint32(0), fault.PC)
	assert.Equal(t, vm.StateFault, v.State)
}

func TestStepInstructionAddressMisalignedFaults(t *testing.T) {
	v := newTestVM(t, []uint32{encodeI(0b0010011, 0, 0b000, 0, 0)})
	v.Regs.PC = 1
	err := v.Step()
	require.Error(t, err)
	var execErr *vm.ExecutionError
	require.ErrorAs(t, err, &execErr)
	assert.Equal(t, vm.InstructionAddressMisaligned, execErr.Kind)
}

func TestStepInstructionLimitFaults(t *testing.T) {
	v := newTestVM(t, []uint32{encodeI(0b0010011, 0, 0b000, 0, 0)})
	v.MaxInstructions = 1
	v.InstructionCount = 1
	err := v.Step()
	require.Error(t, err)
	var execErr *vm.ExecutionError
	require.ErrorAs(t, err, &execErr)
	assert.Equal(t, vm.InstructionLimit, execErr.Kind)
}

func TestStepRV32MGatedByEnableFlag(t *testing.T) {
	v := newTestVM(t, []uint32{encodeR(0b0110011, 1, 0b000, 0, 0, 0b0000001)}) // mul
	v.EnableRV32M = false
	err := v.Step()
	require.Error(t, err)
	var decodeErr *vm.DecodeError
	assert.ErrorAs(t, err, &decodeErr)
}

func TestEcallPrintIntWritesDecimal(t *testing.T) {
	var buf bytes.Buffer
	v := newTestVM(t, []uint32{
		encodeI(0b0010011, vm.RegA0, 0b000, 0, 42),            // addi a0, x0, 42
		encodeI(0b0010011, vm.RegA7, 0b000, 0, vm.SyscallPrintInt), // addi a7, x0, 1
		0b000000000000_00000_000_00000_1110011,                // ecall
	})
	v.SetOutput(&buf)
	require.NoError(t, v.Step())
	require.NoError(t, v.Step())
	require.NoError(t, v.Step())
	assert.Equal(t, "42", buf.String())
}

func TestEcallExitSetsExitedState(t *testing.T) {
	v := newTestVM(t, []uint32{
		encodeI(0b0010011, vm.RegA0, 0b000, 0, 7),
		encodeI(0b0010011, vm.RegA7, 0b000, 0, vm.SyscallExitLinux),
		0b000000000000_00000_000_00000_1110011,
	})
	require.NoError(t, v.Step())
	require.NoError(t, v.Step())
	require.NoError(t, v.Step())
	assert.Equal(t, vm.StateExited, v.State)
	assert.Equal(t, int32(7), v.ExitCode)
}
