package vm

// Kind tags the decoded RV32I/RV32M operation family.
type Kind int

const (
	KindIllegal Kind = iota
	KindLUI
	KindAUIPC
	KindJAL
	KindJALR
	KindBEQ
	KindBNE
	KindBLT
	KindBGE
	KindBLTU
	KindBGEU
	KindLB
	KindLH
	KindLW
	KindLBU
	KindLHU
	KindSB
	KindSH
	KindSW
	KindADDI
	KindSLTI
	KindSLTIU
	KindXORI
	KindORI
	KindANDI
	KindSLLI
	KindSRLI
	KindSRAI
	KindADD
	KindSUB
	KindSLL
	KindSLT
	KindSLTU
	KindXOR
	KindSRL
	KindSRA
	KindOR
	KindAND
	KindMUL
	KindMULH
	KindMULHSU
	KindMULHU
	KindDIV
	KindDIVU
	KindREM
	KindREMU
	KindFENCE
	KindECALL
	KindEBREAK
)

var kindNames = map[Kind]string{
	KindIllegal: "illegal",
	KindLUI:     "lui", KindAUIPC: "auipc", KindJAL: "jal", KindJALR: "jalr",
	KindBEQ: "beq", KindBNE: "bne", KindBLT: "blt", KindBGE: "bge", KindBLTU: "bltu", KindBGEU: "bgeu",
	KindLB: "lb", KindLH: "lh", KindLW: "lw", KindLBU: "lbu", KindLHU: "lhu",
	KindSB: "sb", KindSH: "sh", KindSW: "sw",
	KindADDI: "addi", KindSLTI: "slti", KindSLTIU: "sltiu", KindXORI: "xori", KindORI: "ori", KindANDI: "andi",
	KindSLLI: "slli", KindSRLI: "srli", KindSRAI: "srai",
	KindADD: "add", KindSUB: "sub", KindSLL: "sll", KindSLT: "slt", KindSLTU: "sltu",
	KindXOR: "xor", KindSRL: "srl", KindSRA: "sra", KindOR: "or", KindAND: "and",
	KindMUL: "mul", KindMULH: "mulh", KindMULHSU: "mulhsu", KindMULHU: "mulhu",
	KindDIV: "div", KindDIVU: "divu", KindREM: "rem", KindREMU: "remu",
	KindFENCE: "fence", KindECALL: "ecall", KindEBREAK: "ebreak",
}

// String returns the RV32I/RV32M mnemonic, used by the disasm collaborator.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Operation is the decoder's output: a tagged operation together with its
// decoded fields. It is produced per fetch by
// the Decoder, consumed once by the Executor, and never retained.
type Operation struct {
	Kind Kind
	Rd   int
	Rs1  int
	Rs2  int
	Imm  int32  // sign-extended, pre-shifted per encoding
	Word uint32 // the raw instruction word, kept for tracing/disassembly
}
