package vm

// execLoad implements LB/LH/LW/LBU/LHU: addr <- rs1+imm. LB/LH
// sign-extend, LBU/LHU zero-extend, LW loads a full word. Memory enforces
// alignment and R permission; failures propagate as a fatal *Fault.
func (v *VM) execLoad(op Operation) error {
	addr := v.Regs.Get(op.Rs1) + uint32(op.Imm)

	var value uint32
	switch op.Kind {
	case KindLB:
		b, err := v.Memory.ReadU8(addr)
		if err != nil {
			return err
		}
		value = uint32(int32(int8(b)))
	case KindLH:
		h, err := v.Memory.ReadU16(addr)
		if err != nil {
			return err
		}
		value = uint32(int32(int16(h)))
	case KindLW:
		w, err := v.Memory.ReadU32(addr)
		if err != nil {
			return err
		}
		value = w
	case KindLBU:
		b, err := v.Memory.ReadU8(addr)
		if err != nil {
			return err
		}
		value = uint32(b)
	case KindLHU:
		h, err := v.Memory.ReadU16(addr)
		if err != nil {
			return err
		}
		value = uint32(h)
	}

	v.Regs.Set(op.Rd, value)
	v.advance()
	return nil
}

// execStore implements SB/SH/SW: addr <- rs1+imm, writing the low
// byte/half/word of rs2.
func (v *VM) execStore(op Operation) error {
	addr := v.Regs.Get(op.Rs1) + uint32(op.Imm)
	value := v.Regs.Get(op.Rs2)

	var err error
	switch op.Kind {
	case KindSB:
		err = v.Memory.WriteU8(addr, byte(value))
	case KindSH:
		err = v.Memory.WriteU16(addr, uint16(value))
	case KindSW:
		err = v.Memory.WriteU32(addr, value)
	}
	if err != nil {
		return err
	}

	v.advance()
	return nil
}
