package vm

import (
	"context"
	"log/slog"
)

// levelTrace mirrors logging.LevelTrace without importing the logging
// package (vm must not depend on its own CLI-facing collaborators).
const levelTrace = slog.Level(-8)

// Step fetches the instruction at PC, decodes it, applies it, and advances
// PC. One successful Step advances PC by 4 unless the operation
// itself writes PC (JAL, JALR, a taken branch). Any illegal instruction,
// misalignment, or out-of-bounds access yields a fatal *Fault carrying the
// faulting PC.
func (v *VM) Step() error {
	if v.State == StateFault {
		return v.LastErr
	}
	if v.State == StateExited {
		return nil
	}

	if v.MaxInstructions > 0 && v.InstructionCount >= v.MaxInstructions {
		return v.fault(&ExecutionError{Kind: InstructionLimit, PC: v.Regs.PC})
	}

	pc := v.Regs.PC
	if pc&0x3 != 0 {
		return v.fault(&ExecutionError{Kind: InstructionAddressMisaligned, PC: pc})
	}

	word, err := v.Memory.Fetch(pc)
	if err != nil {
		return v.fault(err)
	}

	op, err := Decode(word)
	if err != nil {
		return v.fault(err)
	}

	v.Log.Log(context.Background(), levelTrace, "step", "pc", pc, "word", word, "mnemonic", op.Kind.String())

	if err := v.apply(op); err != nil {
		return v.fault(err)
	}

	v.InstructionCount++
	return nil
}

// advance moves PC past the current instruction. Jumps and taken branches
// set PC explicitly instead; a branch that is not taken calls advance.
func (v *VM) advance() {
	v.Regs.PC += 4
}

func (v *VM) apply(op Operation) error {
	switch op.Kind {
	case KindLUI:
		v.Regs.Set(op.Rd, uint32(op.Imm))
		v.advance()
		return nil

	case KindAUIPC:
		v.Regs.Set(op.Rd, v.Regs.PC+uint32(op.Imm))
		v.advance()
		return nil

	case KindJAL:
		return v.execJAL(op)
	case KindJALR:
		return v.execJALR(op)
	case KindBEQ, KindBNE, KindBLT, KindBGE, KindBLTU, KindBGEU:
		return v.execBranch(op)

	case KindLB, KindLH, KindLW, KindLBU, KindLHU:
		return v.execLoad(op)
	case KindSB, KindSH, KindSW:
		return v.execStore(op)

	case KindADDI, KindSLTI, KindSLTIU, KindXORI, KindORI, KindANDI, KindSLLI, KindSRLI, KindSRAI:
		return v.execOpImm(op)

	case KindADD, KindSUB, KindSLL, KindSLT, KindSLTU, KindXOR, KindSRL, KindSRA, KindOR, KindAND:
		return v.execOpReg(op)

	case KindMUL, KindMULH, KindMULHSU, KindMULHU, KindDIV, KindDIVU, KindREM, KindREMU:
		if !v.EnableRV32M {
			return &DecodeError{Word: op.Word}
		}
		return v.execMulDiv(op)

	case KindFENCE:
		v.advance()
		return nil

	case KindECALL:
		return v.execEcall(op)
	case KindEBREAK:
		return &ExecutionError{Kind: Breakpoint, PC: v.Regs.PC}

	default:
		return &DecodeError{Word: op.Word}
	}
}
