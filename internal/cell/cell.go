// Package cell implements the data model shared by every process and
// thread in the runtime: the wrapping 8-bit cell, and the fixed-size
// data segment that holds DMEM of them.
package cell

// DMEM is the size of a data segment in cells. Indices wrap modulo DMEM.
const DMEM = 65536

// DMask is DMEM-1; DMEM is a power of two so index wrapping is a mask.
const DMask = DMEM - 1

// Segment is a fixed-size array of cells. It is the unit of ownership for
// the system segment, a process's own segment, and a parent-alias
// reference — all three are *Segment values, differing only in who holds
// the pointer and whether that holder also allocated it.
type Segment struct {
	cells [DMEM]byte
}

// Wrap reduces an arbitrary signed offset to a valid segment index.
func Wrap(i int64) uint32 {
	v := i % DMEM
	if v < 0 {
		v += DMEM
	}
	return uint32(v)
}

// Get reads the cell at index i (masked modulo DMEM).
func (s *Segment) Get(i uint32) byte {
	return s.cells[i&DMask]
}

// Set writes the cell at index i (masked modulo DMEM).
func (s *Segment) Set(i uint32, v byte) {
	s.cells[i&DMask] = v
}

// Add adds n to the cell at i with 8-bit wraparound.
func (s *Segment) Add(i uint32, n byte) {
	idx := i & DMask
	s.cells[idx] = s.cells[idx] + n
}

// Sub subtracts n from the cell at i with 8-bit wraparound.
func (s *Segment) Sub(i uint32, n byte) {
	idx := i & DMask
	s.cells[idx] = s.cells[idx] - n
}

// CopyFrom overwrites every cell with src's contents, used when a spawned
// process's own segment is seeded from its parent thread's current memory.
func (s *Segment) CopyFrom(src *Segment) {
	s.cells = src.cells
}

// Window returns a copy of count cells starting at start, for diagnostics.
func (s *Segment) Window(start uint32, count int) []byte {
	out := make([]byte, count)
	for i := 0; i < count; i++ {
		out[i] = s.Get(start + uint32(i))
	}
	return out
}
