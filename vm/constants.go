package vm

// Register aliases used by the environment-call ABI.
const (
	RegZero = 0  // x0, hard-wired to zero
	RegRA   = 1  // x1, return address
	RegSP   = 2  // x2, stack pointer
	RegA0   = 10 // x10, arg0 / return value
	RegA1   = 11 // x11, arg1
	RegA2   = 12 // x12, arg2
	RegA7   = 17 // x17, syscall selector
)

// NumRegisters is the size of the general-purpose register file (x0-x31).
const NumRegisters = 32

// DefaultMaxInstructions is the default cap on executed instructions before
// a fatal InstructionLimit error is raised. Zero disables the cap.
const DefaultMaxInstructions = 1_000_000

// DefaultStackSize is the size, in bytes, synthesized for the .stack segment.
const DefaultStackSize = 1 << 20 // 1 MiB

// DefaultHeapCap bounds how far sbrk may grow the .heap segment.
const DefaultHeapCap = 64 << 20 // 64 MiB

// stackAlignment is the alignment (in bytes) required of the initial stack
// pointer.
const stackAlignment = 16
