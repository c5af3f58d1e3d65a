// Package disasm renders decoded RV32I/RV32M operations back to assembler
// text, the mirror image of what an assembler's encoder does. It backs the
// CLI's -d/-D dump flags and the debugger's disassembly pane.
package disasm

import (
	"fmt"
	"strings"

	"rv32emu/vm"
)

// abiNames indexes x0-x31 by their RISC-V calling-convention names.
var abiNames = [32]string{
	"zero", "ra", "sp", "gp", "tp", "t0", "t1", "t2",
	"s0", "s1", "a0", "a1", "a2", "a3", "a4", "a5",
	"a6", "a7", "s2", "s3", "s4", "s5", "s6", "s7",
	"s8", "s9", "s10", "s11", "t3", "t4", "t5", "t6",
}

// RegName returns the ABI name for register index 0-31 (e.g. "sp" for x2).
func RegName(index int) string {
	if index < 0 || index >= len(abiNames) {
		return fmt.Sprintf("x%d", index)
	}
	return abiNames[index]
}

// SymbolLookup resolves an address to a label name, returning "" if none
// exists at that address.
type SymbolLookup func(addr uint32) string

// Line is one disassembled instruction: its address, raw word, and rendered
// text (mnemonic and operands, plus a resolved branch/jump target comment
// when a SymbolLookup is supplied).
type Line struct {
	Addr uint32
	Word uint32
	Text string
}

// Instruction disassembles the single instruction word at addr. Decode
// errors render as a ".word" directive rather than propagating, so a dump
// of a mixed code/data region never aborts partway through.
func Instruction(addr, word uint32, symbols SymbolLookup) Line {
	op, err := vm.Decode(word)
	if err != nil {
		return Line{Addr: addr, Word: word, Text: fmt.Sprintf(".word 0x%08x", word)}
	}
	return Line{Addr: addr, Word: word, Text: format(addr, op, symbols)}
}

func format(addr uint32, op vm.Operation, symbols SymbolLookup) string {
	mnem := op.Kind.String()

	switch op.Kind {
	case vm.KindLUI, vm.KindAUIPC:
		return fmt.Sprintf("%-7s %s, 0x%x", mnem, RegName(op.Rd), uint32(op.Imm)>>12)

	case vm.KindJAL:
		target := addr + uint32(op.Imm)
		return fmt.Sprintf("%-7s %s, %s", mnem, RegName(op.Rd), targetText(target, symbols))

	case vm.KindJALR:
		return fmt.Sprintf("%-7s %s, %d(%s)", mnem, RegName(op.Rd), op.Imm, RegName(op.Rs1))

	case vm.KindBEQ, vm.KindBNE, vm.KindBLT, vm.KindBGE, vm.KindBLTU, vm.KindBGEU:
		target := addr + uint32(op.Imm)
		return fmt.Sprintf("%-7s %s, %s, %s", mnem, RegName(op.Rs1), RegName(op.Rs2), targetText(target, symbols))

	case vm.KindLB, vm.KindLH, vm.KindLW, vm.KindLBU, vm.KindLHU:
		return fmt.Sprintf("%-7s %s, %d(%s)", mnem, RegName(op.Rd), op.Imm, RegName(op.Rs1))

	case vm.KindSB, vm.KindSH, vm.KindSW:
		return fmt.Sprintf("%-7s %s, %d(%s)", mnem, RegName(op.Rs2), op.Imm, RegName(op.Rs1))

	case vm.KindADDI, vm.KindSLTI, vm.KindSLTIU, vm.KindXORI, vm.KindORI, vm.KindANDI,
		vm.KindSLLI, vm.KindSRLI, vm.KindSRAI:
		return fmt.Sprintf("%-7s %s, %s, %d", mnem, RegName(op.Rd), RegName(op.Rs1), op.Imm)

	case vm.KindADD, vm.KindSUB, vm.KindSLL, vm.KindSLT, vm.KindSLTU, vm.KindXOR,
		vm.KindSRL, vm.KindSRA, vm.KindOR, vm.KindAND,
		vm.KindMUL, vm.KindMULH, vm.KindMULHSU, vm.KindMULHU,
		vm.KindDIV, vm.KindDIVU, vm.KindREM, vm.KindREMU:
		return fmt.Sprintf("%-7s %s, %s, %s", mnem, RegName(op.Rd), RegName(op.Rs1), RegName(op.Rs2))

	case vm.KindFENCE, vm.KindECALL, vm.KindEBREAK:
		return mnem

	default:
		return fmt.Sprintf(".word 0x%08x", op.Word)
	}
}

func targetText(target uint32, symbols SymbolLookup) string {
	if symbols != nil {
		if name := symbols(target); name != "" {
			return fmt.Sprintf("0x%08x <%s>", target, name)
		}
	}
	return fmt.Sprintf("0x%08x", target)
}

// Range disassembles count instructions starting at addr, stopping early on
// the first Fetch error (end of a mapped segment).
func Range(mem *vm.Memory, addr uint32, count int, symbols SymbolLookup) []Line {
	lines := make([]Line, 0, count)
	for i := 0; i < count; i++ {
		word, err := mem.Fetch(addr)
		if err != nil {
			break
		}
		lines = append(lines, Instruction(addr, word, symbols))
		addr += 4
	}
	return lines
}

// FormatLine renders a Line the way the CLI's -d/-D flags print it:
// "<addr>:\t<word>\t<mnemonic operands>".
func FormatLine(l Line) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%08x:\t%08x\t%s", l.Addr, l.Word, l.Text)
	return b.String()
}
