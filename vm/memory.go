package vm

import "sort"

// Permission is a bitset drawn from {R, W, X}.
type Permission byte

const (
	PermRead Permission = 1 << iota
	PermWrite
	PermExecute
)

// Segment is a contiguous, permissioned region of guest memory.
type Segment struct {
	Name  string
	Base  uint32
	Data  []byte
	Perms Permission
}

func (s *Segment) end() uint32 { return s.Base + uint32(len(s.Data)) }

// Memory is a sparse map from base address to segment, scanned linearly on
// every access.
type Memory struct {
	Segments []*Segment
}

// NewMemory returns an empty memory with no segments mapped.
func NewMemory() *Memory {
	return &Memory{}
}

// AddSegment maps a new segment. Segments are kept sorted by base address
// so diagnostic dumps (and the disasm/debugger collaborators) can walk
// memory in address order.
func (m *Memory) AddSegment(name string, base uint32, size uint32, perms Permission) *Segment {
	seg := &Segment{Name: name, Base: base, Data: make([]byte, size), Perms: perms}
	m.Segments = append(m.Segments, seg)
	sort.Slice(m.Segments, func(i, j int) bool { return m.Segments[i].Base < m.Segments[j].Base })
	return seg
}

func (m *Memory) findSegment(addr uint32) *Segment {
	for _, seg := range m.Segments {
		if addr >= seg.Base && addr < seg.end() {
			return seg
		}
	}
	return nil
}

// SegmentAt returns the segment covering addr, or nil if unmapped.
// Exported for the loader, disasm, and debugger collaborators.
func (m *Memory) SegmentAt(addr uint32) *Segment { return m.findSegment(addr) }

func checkAlign(addr uint32, width int) bool {
	switch width {
	case 1:
		return true
	case 2:
		return addr&1 == 0
	case 4:
		return addr&3 == 0
	default:
		return false
	}
}

// boundsOK reports whether [addr, addr+width) fits inside seg without
// crossing its end.
func boundsOK(seg *Segment, addr uint32, width int) bool {
	offset := addr - seg.Base
	return uint64(offset)+uint64(width) <= uint64(len(seg.Data))
}

func (m *Memory) access(addr uint32, width int, op MemOp, need Permission) (*Segment, uint32, error) {
	if !checkAlign(addr, width) {
		return nil, 0, &MemoryError{Kind: Misaligned, Addr: addr, Width: width, Op: op}
	}
	seg := m.findSegment(addr)
	if seg == nil || !boundsOK(seg, addr, width) {
		return nil, 0, &MemoryError{Kind: OutOfBounds, Addr: addr, Width: width, Op: op}
	}
	if seg.Perms&need == 0 {
		return nil, 0, &MemoryError{Kind: PermissionDenied, Addr: addr, Width: width, Op: op}
	}
	return seg, addr - seg.Base, nil
}

// Fetch reads the 4-byte instruction word at addr, requiring X permission
// and 4-byte alignment.
func (m *Memory) Fetch(addr uint32) (uint32, error) {
	seg, off, err := m.access(addr, 4, MemOpFetch, PermExecute)
	if err != nil {
		return 0, err
	}
	return leWord(seg.Data[off : off+4]), nil
}

// ReadU8 reads one byte, requiring R permission.
func (m *Memory) ReadU8(addr uint32) (uint8, error) {
	seg, off, err := m.access(addr, 1, MemOpRead, PermRead)
	if err != nil {
		return 0, err
	}
	return seg.Data[off], nil
}

// ReadU16 reads a 2-byte little-endian halfword, requiring R permission and
// 2-byte alignment.
func (m *Memory) ReadU16(addr uint32) (uint16, error) {
	seg, off, err := m.access(addr, 2, MemOpRead, PermRead)
	if err != nil {
		return 0, err
	}
	return uint16(seg.Data[off]) | uint16(seg.Data[off+1])<<8, nil
}

// ReadU32 reads a 4-byte little-endian word, requiring R permission and
// 4-byte alignment.
func (m *Memory) ReadU32(addr uint32) (uint32, error) {
	seg, off, err := m.access(addr, 4, MemOpRead, PermRead)
	if err != nil {
		return 0, err
	}
	return leWord(seg.Data[off : off+4]), nil
}

// WriteU8 writes one byte, requiring W permission.
func (m *Memory) WriteU8(addr uint32, v uint8) error {
	seg, off, err := m.access(addr, 1, MemOpWrite, PermWrite)
	if err != nil {
		return err
	}
	seg.Data[off] = v
	return nil
}

// WriteU16 writes a 2-byte little-endian halfword, requiring W permission
// and 2-byte alignment.
func (m *Memory) WriteU16(addr uint32, v uint16) error {
	seg, off, err := m.access(addr, 2, MemOpWrite, PermWrite)
	if err != nil {
		return err
	}
	seg.Data[off] = byte(v)
	seg.Data[off+1] = byte(v >> 8)
	return nil
}

// WriteU32 writes a 4-byte little-endian word, requiring W permission and
// 4-byte alignment.
func (m *Memory) WriteU32(addr uint32, v uint32) error {
	seg, off, err := m.access(addr, 4, MemOpWrite, PermWrite)
	if err != nil {
		return err
	}
	putLEWord(seg.Data[off:off+4], v)
	return nil
}

// LoadBytes copies data into a mapped segment, bypassing permission checks.
// Used only by the Loader while populating PT_LOAD segments.
func (m *Memory) LoadBytes(addr uint32, data []byte) error {
	seg := m.findSegment(addr)
	if seg == nil || !boundsOK(seg, addr, len(data)) {
		return &MemoryError{Kind: OutOfBounds, Addr: addr, Width: len(data), Op: MemOpWrite}
	}
	copy(seg.Data[addr-seg.Base:], data)
	return nil
}

func leWord(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}

func putLEWord(b []byte, v uint32) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
	b[3] = byte(v >> 24)
}

// Sbrk grows or shrinks the .heap segment by delta bytes and returns the
// new break address. Growth beyond cap, or contraction below
// the heap's original base, fails with OutOfMemory.
func (m *Memory) Sbrk(delta int32, cap uint32) (uint32, error) {
	heap := m.segmentNamed(".heap")
	if heap == nil {
		return 0, &MemoryError{Kind: OutOfMemory, Op: MemOpWrite}
	}
	newSize := int64(len(heap.Data)) + int64(delta)
	if newSize < 0 || (cap > 0 && uint32(newSize) > cap) {
		return 0, &MemoryError{Kind: OutOfMemory, Addr: heap.Base, Op: MemOpWrite}
	}
	if newSize > int64(len(heap.Data)) {
		heap.Data = append(heap.Data, make([]byte, newSize-int64(len(heap.Data)))...)
	} else {
		heap.Data = heap.Data[:newSize]
	}
	return heap.Base + uint32(len(heap.Data)), nil
}

func (m *Memory) segmentNamed(name string) *Segment {
	for _, seg := range m.Segments {
		if seg.Name == name {
			return seg
		}
	}
	return nil
}
