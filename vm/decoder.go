package vm

// RV32I/RV32M base opcodes (word[6:0]), named after the teacher's
// base-opcode dispatch idiom (cf. _examples/other_examples
// 759cba5a_LMMilewski-riscv-emu decode.go's baseOpcode switch).
const (
	opLUI    = 0b0110111
	opAUIPC  = 0b0010111
	opJAL    = 0b1101111
	opJALR   = 0b1100111
	opBranch = 0b1100011
	opLoad   = 0b0000011
	opStore  = 0b0100011
	opImm    = 0b0010011
	opReg    = 0b0110011
	opFence  = 0b0001111
	opSystem = 0b1110011
)

// Decode maps a 32-bit instruction word to an Operation. It is a
// pure function: no memory access, no VM state.
func Decode(word uint32) (Operation, error) {
	opcode := word & 0x7f
	rd := int((word >> 7) & 0x1f)
	funct3 := (word >> 12) & 0x7
	rs1 := int((word >> 15) & 0x1f)
	rs2 := int((word >> 20) & 0x1f)
	funct7 := (word >> 25) & 0x7f

	op := Operation{Rd: rd, Rs1: rs1, Rs2: rs2, Word: word}

	switch opcode {
	case opLUI:
		op.Kind = KindLUI
		op.Imm = int32(word & 0xFFFFF000)
		return op, nil

	case opAUIPC:
		op.Kind = KindAUIPC
		op.Imm = int32(word & 0xFFFFF000)
		return op, nil

	case opJAL:
		op.Kind = KindJAL
		op.Imm = decodeJImm(word)
		return op, nil

	case opJALR:
		if funct3 != 0 {
			return Operation{}, &DecodeError{Word: word}
		}
		op.Kind = KindJALR
		op.Imm = decodeIImm(word)
		return op, nil

	case opBranch:
		kind, ok := branchKind(funct3)
		if !ok {
			return Operation{}, &DecodeError{Word: word}
		}
		op.Kind = kind
		op.Imm = decodeBImm(word)
		return op, nil

	case opLoad:
		kind, ok := loadKind(funct3)
		if !ok {
			return Operation{}, &DecodeError{Word: word}
		}
		op.Kind = kind
		op.Imm = decodeIImm(word)
		return op, nil

	case opStore:
		kind, ok := storeKind(funct3)
		if !ok {
			return Operation{}, &DecodeError{Word: word}
		}
		op.Kind = kind
		op.Imm = decodeSImm(word)
		return op, nil

	case opImm:
		return decodeOpImm(op, funct3, funct7, word)

	case opReg:
		return decodeOpReg(op, funct3, funct7, word)

	case opFence:
		op.Kind = KindFENCE
		return op, nil

	case opSystem:
		if funct3 != 0 || rd != 0 || rs1 != 0 {
			return Operation{}, &DecodeError{Word: word}
		}
		imm := decodeIImm(word)
		switch imm {
		case 0:
			op.Kind = KindECALL
		case 1:
			op.Kind = KindEBREAK
		default:
			return Operation{}, &DecodeError{Word: word}
		}
		return op, nil

	default:
		return Operation{}, &DecodeError{Word: word}
	}
}

func branchKind(funct3 uint32) (Kind, bool) {
	switch funct3 {
	case 0b000:
		return KindBEQ, true
	case 0b001:
		return KindBNE, true
	case 0b100:
		return KindBLT, true
	case 0b101:
		return KindBGE, true
	case 0b110:
		return KindBLTU, true
	case 0b111:
		return KindBGEU, true
	default:
		return KindIllegal, false
	}
}

func loadKind(funct3 uint32) (Kind, bool) {
	switch funct3 {
	case 0b000:
		return KindLB, true
	case 0b001:
		return KindLH, true
	case 0b010:
		return KindLW, true
	case 0b100:
		return KindLBU, true
	case 0b101:
		return KindLHU, true
	default:
		return KindIllegal, false
	}
}

func storeKind(funct3 uint32) (Kind, bool) {
	switch funct3 {
	case 0b000:
		return KindSB, true
	case 0b001:
		return KindSH, true
	case 0b010:
		return KindSW, true
	default:
		return KindIllegal, false
	}
}

func decodeOpImm(op Operation, funct3, funct7 uint32, word uint32) (Operation, error) {
	op.Imm = decodeIImm(word)
	switch funct3 {
	case 0b000:
		op.Kind = KindADDI
	case 0b010:
		op.Kind = KindSLTI
	case 0b011:
		op.Kind = KindSLTIU
	case 0b100:
		op.Kind = KindXORI
	case 0b110:
		op.Kind = KindORI
	case 0b111:
		op.Kind = KindANDI
	case 0b001:
		if funct7 != 0 {
			return Operation{}, &DecodeError{Word: word}
		}
		op.Kind = KindSLLI
		op.Imm = int32(word>>20) & 0x1f
	case 0b101:
		switch funct7 {
		case 0b0000000:
			op.Kind = KindSRLI
		case 0b0100000:
			op.Kind = KindSRAI
		default:
			return Operation{}, &DecodeError{Word: word}
		}
		op.Imm = int32(word>>20) & 0x1f
	default:
		return Operation{}, &DecodeError{Word: word}
	}
	return op, nil
}

func decodeOpReg(op Operation, funct3, funct7 uint32, word uint32) (Operation, error) {
	switch funct7 {
	case 0b0000000:
		switch funct3 {
		case 0b000:
			op.Kind = KindADD
		case 0b001:
			op.Kind = KindSLL
		case 0b010:
			op.Kind = KindSLT
		case 0b011:
			op.Kind = KindSLTU
		case 0b100:
			op.Kind = KindXOR
		case 0b101:
			op.Kind = KindSRL
		case 0b110:
			op.Kind = KindOR
		case 0b111:
			op.Kind = KindAND
		default:
			return Operation{}, &DecodeError{Word: word}
		}
	case 0b0100000:
		switch funct3 {
		case 0b000:
			op.Kind = KindSUB
		case 0b101:
			op.Kind = KindSRA
		default:
			return Operation{}, &DecodeError{Word: word}
		}
	case 0b0000001: // RV32M
		switch funct3 {
		case 0b000:
			op.Kind = KindMUL
		case 0b001:
			op.Kind = KindMULH
		case 0b010:
			op.Kind = KindMULHSU
		case 0b011:
			op.Kind = KindMULHU
		case 0b100:
			op.Kind = KindDIV
		case 0b101:
			op.Kind = KindDIVU
		case 0b110:
			op.Kind = KindREM
		case 0b111:
			op.Kind = KindREMU
		default:
			return Operation{}, &DecodeError{Word: word}
		}
	default:
		return Operation{}, &DecodeError{Word: word}
	}
	return op, nil
}

// signExtend sign-extends the low `bits` bits of value to a full 32-bit
// two's complement int32.
func signExtend(value uint32, bits uint) int32 {
	shift := 32 - bits
	return int32(value<<shift) >> shift
}

func decodeIImm(word uint32) int32 {
	return signExtend(word>>20, 12)
}

func decodeSImm(word uint32) int32 {
	v := ((word >> 25) << 5) | ((word >> 7) & 0x1f)
	return signExtend(v, 12)
}

func decodeBImm(word uint32) int32 {
	bit12 := (word >> 31) & 1
	bit11 := (word >> 7) & 1
	bits10_5 := (word >> 25) & 0x3f
	bits4_1 := (word >> 8) & 0xf
	v := (bit12 << 12) | (bit11 << 11) | (bits10_5 << 5) | (bits4_1 << 1)
	return signExtend(v, 13)
}

func decodeJImm(word uint32) int32 {
	bit20 := (word >> 31) & 1
	bits19_12 := (word >> 12) & 0xff
	bit11 := (word >> 20) & 1
	bits10_1 := (word >> 21) & 0x3ff
	v := (bit20 << 20) | (bits19_12 << 12) | (bit11 << 11) | (bits10_1 << 1)
	return signExtend(v, 21)
}
