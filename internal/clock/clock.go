// Package clock implements the second-chance (clock) page replacement
// algorithm over a frame table (§4.4 of the spec). The clock hand persists
// across calls in the Clock value; callers are expected to hold the
// Pager's single lock for the duration of Evict, so Clock itself takes no
// lock of its own.
package clock

import (
	"errors"

	"github.com/tinyrange/vpager/internal/pagetable"
	"github.com/tinyrange/vpager/mmu"
)

// ErrNoFrames is returned by Evict when the frame table has zero slots.
var ErrNoFrames = errors.New("clock: frame table has no slots")

// Clock is a cursor over a frame table implementing second-chance
// eviction.
type Clock struct {
	hand int
}

// New returns a Clock with its hand at slot 0.
func New() *Clock {
	return &Clock{}
}

// Hand returns the clock hand's current position, exposed for tests and
// diagnostics.
func (c *Clock) Hand() int { return c.hand }

// Evict runs the second-chance sweep over ft and returns the index of a
// victim frame. Any frame whose reference bit is set has that bit cleared
// and its MMU permission demoted to None (so the next access re-faults and
// can re-arm the bit) before the hand advances past it. The first frame
// found with reference bit 0 is the victim; its contents are NOT cleared
// here — disposing of the victim is the caller's responsibility (§4.4).
func (c *Clock) Evict(ft *pagetable.FrameTable, host mmu.MMU) (victim int, err error) {
	n := ft.Len()
	if n == 0 {
		return 0, ErrNoFrames
	}

	for {
		if c.hand >= n {
			c.hand = 0
		}
		slot := c.hand
		entry := ft.Get(slot)

		if entry.Reference {
			ft.SetReference(slot, false)
			if err := host.ChProt(entry.Pid, entry.VAddr, mmu.None); err != nil {
				return 0, err
			}
			ft.SetPerm(slot, mmu.None)
			c.hand++
			continue
		}

		c.hand = slot + 1
		return slot, nil
	}
}
