package pagetable

import "errors"

// BlockEntry describes the content a block slot currently holds for a
// Swapped page. A zero-value BlockEntry with Occupied == false means the
// slot holds no swapped content (it may still be reserved — see BlockTable).
type BlockEntry struct {
	Occupied bool
	Pid      int
	VAddr    uint64
	Dirty    bool
}

// BlockTable models the backing store's bounded pool of B slots.
//
// It plays two roles, kept deliberately distinct because the spec's
// invariants require it (I3 vs I4): a lifetime reservation count, consumed
// one-per-extended-page for as long as that page exists regardless of its
// current residency, and a content table actually holding the bytes of
// pages that are currently Swapped. The two are sized alike (capacity B)
// but indexed independently: a content slot is handed out by Insert's
// lowest-free-slot scan at the moment a page is actually evicted, not
// derived from the frame index it was evicted from. Tying content-slot
// identity to frame index instead (as the source's "1:1 frame/block
// mapping" comment suggests) lets an unrelated later occupant of that same
// frame index silently overwrite a still-swapped page's bytes the next
// time it is itself evicted; since the number of simultaneously-Swapped
// pages can never exceed the number of live reservations (≤ B), a proper
// independent allocation always has room and avoids that hazard.
type BlockTable struct {
	capacity int
	reserved int
	contents []BlockEntry
}

// ErrBlockFull is returned by Insert when every content slot is in use.
// Given the capacity argument above this should be unreachable in
// practice, but Insert still reports it rather than silently clobbering
// another page's slot.
var ErrBlockFull = errors.New("pagetable: block table has no free content slot")

// NewBlockTable allocates a block table with the given capacity.
func NewBlockTable(nblocks int) *BlockTable {
	return &BlockTable{capacity: nblocks, contents: make([]BlockEntry, nblocks)}
}

// Capacity returns B.
func (t *BlockTable) Capacity() int { return t.capacity }

// FreeReservations returns how many more pages may be extended before the
// backing store is exhausted.
func (t *BlockTable) FreeReservations() int { return t.capacity - t.reserved }

// Reserve consumes one lifetime reservation slot, used by extend. It
// reports false if the pool is already fully reserved.
func (t *BlockTable) Reserve() bool {
	if t.reserved >= t.capacity {
		return false
	}
	t.reserved++
	return true
}

// Release returns one lifetime reservation slot, used once per page a
// destroyed process held.
func (t *BlockTable) Release() {
	if t.reserved > 0 {
		t.reserved--
	}
}

// ReservedCount returns the number of reservations currently held.
func (t *BlockTable) ReservedCount() int { return t.reserved }

// Lookup performs the O(B) scan for a slot holding swapped content for
// (pid, vaddr). A Reserved (never-touched) or Resident page is never found
// here — only a page actually Swapped out has a content entry.
func (t *BlockTable) Lookup(pid int, vaddr uint64) (slot int, ok bool) {
	for i, e := range t.contents {
		if e.Occupied && e.Pid == pid && e.VAddr == vaddr {
			return i, true
		}
	}
	return 0, false
}

// Get returns a copy of the content descriptor at slot.
func (t *BlockTable) Get(slot int) BlockEntry {
	return t.contents[slot]
}

// Insert places (pid, vaddr)'s swapped content into the lowest-index free
// content slot, set during victim disposal (§4.4).
func (t *BlockTable) Insert(pid int, vaddr uint64, dirty bool) (slot int, err error) {
	for i, e := range t.contents {
		if !e.Occupied {
			t.contents[i] = BlockEntry{Occupied: true, Pid: pid, VAddr: vaddr, Dirty: dirty}
			return i, nil
		}
	}
	return 0, ErrBlockFull
}

// Clear removes slot's content entry, used when a swapped page is paged
// back into a frame.
func (t *BlockTable) Clear(slot int) {
	t.contents[slot] = BlockEntry{}
}

// ClearOwnedBy clears every content entry owned by pid and returns the
// cleared indices, used by destroy.
func (t *BlockTable) ClearOwnedBy(pid int) []int {
	var cleared []int
	for i, e := range t.contents {
		if e.Occupied && e.Pid == pid {
			t.contents[i] = BlockEntry{}
			cleared = append(cleared, i)
		}
	}
	return cleared
}
