package loader

import "rv32emu/vm"

// Options configures how a parsed image is turned into a runnable VM.
type Options struct {
	// MaxInstructions caps executed instructions. Zero means use
	// vm.DefaultMaxInstructions; pass a negative value to disable the cap.
	MaxInstructions int64

	// StackSize is the size of the synthesized .stack segment. Zero means
	// vm.DefaultStackSize.
	StackSize uint32

	// HeapCap bounds sbrk growth on the synthesized .heap segment. Zero
	// means vm.DefaultHeapCap.
	HeapCap uint32

	// EnableRV32M gates the multiply/divide extension. Unlike the other
	// fields, the zero value (false) is taken literally rather than as
	// "use the default" — callers that want RV32M enabled must set it.
	EnableRV32M bool
}

// defaultStackTop is a fixed high address for the synthesized stack,
// chosen so it sits well above where statically-linked RV32 images are
// conventionally placed (0x10000 upward).
const defaultStackTop = 0x80000000

// Load parses image as a statically-linked ELF32 LE RISC-V executable and
// returns a *vm.VM ready to Step from its entry point.
func Load(image []byte, opts Options) (*vm.VM, error) {
	elf, err := ParseELF32(image)
	if err != nil {
		return nil, err
	}

	v := vm.New()
	v.EnableRV32M = opts.EnableRV32M
	if opts.HeapCap > 0 {
		v.HeapCap = opts.HeapCap
	}
	switch {
	case opts.MaxInstructions > 0:
		v.MaxInstructions = uint64(opts.MaxInstructions)
	case opts.MaxInstructions < 0:
		v.MaxInstructions = 0
	}

	var maxEnd uint32
	entryExecutable := false

	for i, ph := range elf.Programs {
		if ph.MemSz == 0 {
			continue
		}
		perms := segmentPermissions(ph.Flags)
		seg := v.Memory.AddSegment(segmentName(i), ph.VAddr, ph.MemSz, perms)
		if ph.FileSz > 0 {
			if err := v.Memory.LoadBytes(seg.Base, image[ph.Offset:ph.Offset+ph.FileSz]); err != nil {
				return nil, &LoadError{Reason: "failed to copy PT_LOAD segment into guest memory"}
			}
		}

		end := ph.VAddr + ph.MemSz
		if end > maxEnd {
			maxEnd = end
		}
		if perms&vm.PermExecute != 0 && elf.Entry >= ph.VAddr && elf.Entry < end {
			entryExecutable = true
		}
	}

	if !entryExecutable {
		return nil, &LoadError{Reason: "entry point does not fall within an executable loaded segment"}
	}

	stackSize := opts.StackSize
	if stackSize == 0 {
		stackSize = vm.DefaultStackSize
	}
	stackBase := defaultStackTop - stackSize
	v.Memory.AddSegment(".stack", stackBase, stackSize, vm.PermRead|vm.PermWrite)

	heapBase := alignUp(maxEnd, 4)
	v.Memory.AddSegment(".heap", heapBase, 0, vm.PermRead|vm.PermWrite)

	v.Regs.PC = elf.Entry
	v.Regs.Set(vm.RegSP, alignDown(stackBase+stackSize, 16))

	return v, nil
}

func segmentPermissions(flags uint32) vm.Permission {
	var perms vm.Permission
	if flags&pfRead != 0 {
		perms |= vm.PermRead
	}
	if flags&pfWrite != 0 {
		perms |= vm.PermWrite
	}
	if flags&pfExec != 0 {
		perms |= vm.PermExecute
	}
	return perms
}

func segmentName(index int) string {
	names := []string{".load0", ".load1", ".load2", ".load3", ".load4", ".load5", ".load6", ".load7"}
	if index < len(names) {
		return names[index]
	}
	return ".loadN"
}

func alignUp(v uint32, align uint32) uint32 {
	return (v + align - 1) &^ (align - 1)
}

func alignDown(v uint32, align uint32) uint32 {
	return v &^ (align - 1)
}
