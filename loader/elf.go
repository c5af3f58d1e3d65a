package loader

import (
	"encoding/binary"
	"fmt"
)

// ELF32 constants needed to validate a statically-linked RV32I image.
// Field layout follows the generic ELF32 header; values are read with
// encoding/binary the same way a hand-rolled ELF writer lays out a binary
// image field by field (that file writes one; this reads one).
const (
	elfMagic0 = 0x7f
	elfMagic  = "ELF"

	elfClass32 = 1
	elfDataLE  = 1

	etExec = 2

	emRISCV = 0xF3

	ptLoad = 1

	pfExec  = 1 << 0
	pfWrite = 1 << 1
	pfRead  = 1 << 2

	shtSymtab = 2
	shtStrtab = 3

	ehdrSize = 52
	phdrSize = 32
	shdrSize = 40
	symSize  = 16
)

// ProgramHeader is a parsed PT_LOAD entry.
type ProgramHeader struct {
	Type   uint32
	Offset uint32
	VAddr  uint32
	FileSz uint32
	MemSz  uint32
	Flags  uint32
}

// Symbol is a parsed SHT_SYMTAB entry, retained only for disassembly
// labels.
type Symbol struct {
	Name  string
	Value uint32
}

// Elf32 is the subset of a parsed ELF32 LE RISC-V image this loader needs:
// the entry point, the PT_LOAD program headers, and (optionally) symbols.
type Elf32 struct {
	Entry    uint32
	Programs []ProgramHeader
	Symbols  []Symbol
}

// ParseELF32 validates and parses a statically-linked ELF32 LE RISC-V
// image, checking fields in the order a loader must: magic, class,
// endianness, type, and machine. Any failure is a fatal *LoadError.
func ParseELF32(image []byte) (*Elf32, error) {
	if len(image) < ehdrSize {
		return nil, &LoadError{Reason: "image shorter than an ELF header"}
	}
	if image[0] != elfMagic0 || string(image[1:4]) != elfMagic {
		return nil, &LoadError{Reason: "bad ELF magic"}
	}
	if image[4] != elfClass32 {
		return nil, &LoadError{Reason: "not ELFCLASS32"}
	}
	if image[5] != elfDataLE {
		return nil, &LoadError{Reason: "not little-endian"}
	}

	le := binary.LittleEndian
	etype := le.Uint16(image[16:18])
	machine := le.Uint16(image[18:20])
	if etype != etExec {
		return nil, &LoadError{Reason: fmt.Sprintf("not ET_EXEC (e_type=%d)", etype)}
	}
	if machine != emRISCV {
		return nil, &LoadError{Reason: fmt.Sprintf("not EM_RISCV (e_machine=0x%x)", machine)}
	}

	entry := le.Uint32(image[24:28])
	phoff := le.Uint32(image[28:32])
	shoff := le.Uint32(image[32:36])
	phentsize := le.Uint16(image[42:44])
	phnum := le.Uint16(image[44:46])
	shentsize := le.Uint16(image[46:48])
	shnum := le.Uint16(image[48:50])
	shstrndx := le.Uint16(image[50:52])

	elf := &Elf32{Entry: entry}

	for i := uint16(0); i < phnum; i++ {
		off := int(phoff) + int(i)*int(phentsize)
		if off+phdrSize > len(image) {
			return nil, &LoadError{Reason: "program header out of bounds"}
		}
		ph := ProgramHeader{
			Type:   le.Uint32(image[off : off+4]),
			Offset: le.Uint32(image[off+4 : off+8]),
			VAddr:  le.Uint32(image[off+8 : off+12]),
			FileSz: le.Uint32(image[off+16 : off+20]),
			MemSz:  le.Uint32(image[off+20 : off+24]),
			Flags:  le.Uint32(image[off+24 : off+28]),
		}
		if ph.Type != ptLoad {
			continue
		}
		if int(ph.Offset)+int(ph.FileSz) > len(image) {
			return nil, &LoadError{Reason: "PT_LOAD segment data out of bounds"}
		}
		elf.Programs = append(elf.Programs, ph)
	}

	if len(elf.Programs) == 0 {
		return nil, &LoadError{Reason: "no PT_LOAD program headers"}
	}

	elf.Symbols = parseSymbols(image, le, shoff, shentsize, shnum, shstrndx)

	return elf, nil
}

// parseSymbols reads SHT_SYMTAB/SHT_STRTAB if present. Failure to find or
// parse them is not fatal.
func parseSymbols(image []byte, le binary.ByteOrder, shoff uint32, shentsize, shnum, shstrndx uint16) []Symbol {
	if shoff == 0 || shnum == 0 {
		return nil
	}

	type shdr struct {
		name, typ, offset, size, link uint32
	}
	sections := make([]shdr, 0, shnum)
	for i := uint16(0); i < shnum; i++ {
		off := int(shoff) + int(i)*int(shentsize)
		if off+shdrSize > len(image) {
			return nil
		}
		sections = append(sections, shdr{
			name:   le.Uint32(image[off : off+4]),
			typ:    le.Uint32(image[off+4 : off+8]),
			offset: le.Uint32(image[off+16 : off+20]),
			size:   le.Uint32(image[off+20 : off+24]),
			link:   le.Uint32(image[off+28 : off+32]),
		})
	}

	var symtab *shdr
	for i := range sections {
		if sections[i].typ == shtSymtab {
			symtab = &sections[i]
			break
		}
	}
	if symtab == nil || int(symtab.link) >= len(sections) {
		return nil
	}
	strtab := sections[symtab.link]
	if strtab.typ != shtStrtab {
		return nil
	}
	if int(strtab.offset+strtab.size) > len(image) {
		return nil
	}
	strs := image[strtab.offset : strtab.offset+strtab.size]

	var symbols []Symbol
	count := int(symtab.size) / symSize
	for i := 0; i < count; i++ {
		off := int(symtab.offset) + i*symSize
		if off+symSize > len(image) {
			break
		}
		nameOff := le.Uint32(image[off : off+4])
		value := le.Uint32(image[off+4 : off+8])
		name := cString(strs, nameOff)
		if name == "" {
			continue
		}
		symbols = append(symbols, Symbol{Name: name, Value: value})
	}
	return symbols
}

func cString(strs []byte, offset uint32) string {
	if int(offset) >= len(strs) {
		return ""
	}
	end := offset
	for end < uint32(len(strs)) && strs[end] != 0 {
		end++
	}
	return string(strs[offset:end])
}
