// Package addr implements the pure virtual-address arithmetic the pager is
// built on: the conversion between a page-aligned virtual address and a
// zero-based page index, given a fixed base address, maximum address, and
// page size.
package addr

import "fmt"

// Space describes the fixed virtual-address range the pager manages. BASE,
// MAX and PAGE_SIZE are provided once by the host and never change for the
// lifetime of a Pager.
type Space struct {
	Base     uint64
	Max      uint64
	PageSize uint64
}

// NumPages returns (MAX - BASE + 1) / PAGE_SIZE, the number of pages in the
// space.
func (s Space) NumPages() uint64 {
	return (s.Max - s.Base + 1) / s.PageSize
}

// Contains reports whether v falls within [BASE, MAX].
func (s Space) Contains(v uint64) bool {
	return v >= s.Base && v <= s.Max
}

// Index converts a virtual address to its zero-based page index. The caller
// must have already checked Contains; Index panics on an out-of-range
// address since every call site is expected to validate first.
func (s Space) Index(v uint64) uint64 {
	if !s.Contains(v) {
		panic(fmt.Sprintf("addr: %#x out of range [%#x, %#x]", v, s.Base, s.Max))
	}
	return (v - s.Base) / s.PageSize
}

// TryIndex is the non-panicking form of Index, for callers (like fault)
// that must tolerate an out-of-range address rather than treat it as a
// programming error.
func (s Space) TryIndex(v uint64) (index uint64, ok bool) {
	if !s.Contains(v) {
		return 0, false
	}
	return s.Index(v), true
}

// VAddr converts a zero-based page index back to its virtual address.
func (s Space) VAddr(index uint64) uint64 {
	return s.Base + index*s.PageSize
}

// Normalize page-aligns an inbound address by round-tripping it through
// Index/VAddr, the way fault() must align whatever address the MMU hands it
// before consulting any table.
func (s Space) Normalize(v uint64) uint64 {
	return s.VAddr(s.Index(v))
}

// Offset returns the byte offset of v within its containing page.
func (s Space) Offset(v uint64) uint64 {
	return v - s.VAddr(s.Index(v))
}
