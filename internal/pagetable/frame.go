// Package pagetable implements the two fixed-size slot tables the pager
// keeps: the frame table (modeling main memory) and the block table
// (modeling the backing store). Neither type is safe for concurrent use on
// its own — the Pager's single global lock (§5 of the spec) is what makes
// access to these tables safe, so no method here takes a lock of its own.
package pagetable

import (
	"errors"

	"github.com/tinyrange/vpager/mmu"
)

// ErrFull is returned by Insert when every slot is occupied.
var ErrFull = errors.New("pagetable: no free slot")

// FrameEntry describes one frame slot's content. A zero-value FrameEntry
// with Occupied == false is a free slot.
type FrameEntry struct {
	Occupied  bool
	Pid       int
	VAddr     uint64
	Perm      mmu.Perm
	Reference bool
	Dirty     bool
}

// FrameTable is the fixed-size array of F frame descriptors.
type FrameTable struct {
	entries []FrameEntry
}

// NewFrameTable allocates a frame table with the given number of slots, all
// initially free.
func NewFrameTable(nframes int) *FrameTable {
	return &FrameTable{entries: make([]FrameEntry, nframes)}
}

// Len returns F, the total number of frame slots.
func (t *FrameTable) Len() int { return len(t.entries) }

// FreeCount returns the number of unoccupied slots.
func (t *FrameTable) FreeCount() int {
	n := 0
	for _, e := range t.entries {
		if !e.Occupied {
			n++
		}
	}
	return n
}

// Lookup performs the O(F) scan for a slot backing (pid, vaddr).
func (t *FrameTable) Lookup(pid int, vaddr uint64) (slot int, ok bool) {
	for i, e := range t.entries {
		if e.Occupied && e.Pid == pid && e.VAddr == vaddr {
			return i, true
		}
	}
	return 0, false
}

// Get returns a copy of the descriptor at slot.
func (t *FrameTable) Get(slot int) FrameEntry {
	return t.entries[slot]
}

// Insert places (pid, vaddr) into the lowest-index free slot with the given
// initial permission, reference bit 0 and dirty bit 0. It fails with ErrFull
// if no slot is free.
func (t *FrameTable) Insert(pid int, vaddr uint64, perm mmu.Perm) (slot int, err error) {
	for i, e := range t.entries {
		if !e.Occupied {
			t.entries[i] = FrameEntry{Occupied: true, Pid: pid, VAddr: vaddr, Perm: perm}
			return i, nil
		}
	}
	return 0, ErrFull
}

// Clear marks slot free and zeroes its descriptor.
func (t *FrameTable) Clear(slot int) {
	t.entries[slot] = FrameEntry{}
}

// EvictAll clears every slot owned by pid and returns the cleared indices.
func (t *FrameTable) EvictAll(pid int) []int {
	var cleared []int
	for i, e := range t.entries {
		if e.Occupied && e.Pid == pid {
			t.entries[i] = FrameEntry{}
			cleared = append(cleared, i)
		}
	}
	return cleared
}

// SetReference sets or clears slot's reference bit.
func (t *FrameTable) SetReference(slot int, ref bool) {
	t.entries[slot].Reference = ref
}

// SetPerm changes slot's permission.
func (t *FrameTable) SetPerm(slot int, perm mmu.Perm) {
	t.entries[slot].Perm = perm
}

// SetDirty sets or clears slot's dirty bit.
func (t *FrameTable) SetDirty(slot int, dirty bool) {
	t.entries[slot].Dirty = dirty
}
