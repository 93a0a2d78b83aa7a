package pager_test

import (
	"testing"

	"github.com/tinyrange/vpager"
	"github.com/tinyrange/vpager/internal/addr"
	"github.com/tinyrange/vpager/mmu"
)

// TestEndToEndScenario walks a single process through reserved, first-touch
// resident, permission escalation, clean eviction back to reserved, and a
// dirty eviction to a block (the swapped page is not faulted back in) — using the
// PAGE_SIZE=4096, BASE=0x0000600000, nframes=2, nblocks=4 configuration
// from the spec's worked example.
func TestEndToEndScenario(t *testing.T) {
	const pageSize = 4096
	space := addr.Space{Base: 0x0000600000, Max: 0x0000600000 + pageSize*8 - 1, PageSize: pageSize}
	host := newMemMMU(2, 4, pageSize)

	p, err := pager.New(host, space, 2, 4)
	if err != nil {
		t.Fatalf("pager.New() error = %v", err)
	}

	const pid = 7
	p.Create(pid)

	// Step 1: extend three pages. All three are reserved but unmapped.
	va0, ok := p.Extend(pid)
	if !ok {
		t.Fatalf("extend page 0 failed")
	}
	va1, ok := p.Extend(pid)
	if !ok {
		t.Fatalf("extend page 1 failed")
	}
	va2, ok := p.Extend(pid)
	if !ok {
		t.Fatalf("extend page 2 failed")
	}

	// Step 2: fault page 0 (first touch) — zero-filled, mapped Read.
	if err := p.Fault(pid, va0); err != nil {
		t.Fatalf("fault va0: %v", err)
	}
	if perm, _ := host.permOf(pid, va0); perm != mmu.Read {
		t.Fatalf("va0 perm after first fault = %s, want Read", perm)
	}

	// Step 3: fault page 0 again — write access, escalates to ReadWrite.
	if err := p.Fault(pid, va0); err != nil {
		t.Fatalf("second fault va0: %v", err)
	}
	if perm, _ := host.permOf(pid, va0); perm != mmu.ReadWrite {
		t.Fatalf("va0 perm after second fault = %s, want ReadWrite", perm)
	}

	// Step 4: fault page 1 (first touch) — both frames now occupied.
	if err := p.Fault(pid, va1); err != nil {
		t.Fatalf("fault va1: %v", err)
	}

	// Step 5: fault page 2 — no free frame; second-chance picks a victim
	// (page 0's reference bit was set by its escalating fault and gets one
	// free pass, so page 1, whose bit is still clear from its first touch,
	// is evicted; it is clean, so it reverts to reserved).
	if err := p.Fault(pid, va2); err != nil {
		t.Fatalf("fault va2: %v", err)
	}
	residentCount := 0
	for _, va := range []uint64{va0, va1, va2} {
		if _, ok := host.frameOf(pid, va); ok {
			residentCount++
		}
	}
	if residentCount != 2 {
		t.Fatalf("resident page count = %d, want 2 (one page evicted to make room)", residentCount)
	}

	// Step 6: whichever page got evicted must become resident again on its
	// next fault (page 1 comes back through first touch, which in turn
	// evicts the dirty page 0 to a block); then syslog page 0, which is
	// still within the reserved prefix.
	for _, va := range []uint64{va0, va1, va2} {
		if _, ok := host.frameOf(pid, va); !ok {
			if err := p.Fault(pid, va); err != nil {
				t.Fatalf("swap-in fault on %#x: %v", va, err)
			}
			if _, ok := host.frameOf(pid, va); !ok {
				t.Fatalf("page %#x not resident after swap-in fault", va)
			}
		}
	}

	if rc := p.Syslog(pid, va0, 4); rc != 0 {
		t.Fatalf("Syslog() = %d, want 0", rc)
	}

	p.Destroy(pid)
	if err := p.Fault(pid, va0); err != nil {
		t.Fatalf("Fault() after Destroy() error = %v, want nil (silent no-op on unknown process)", err)
	}
}

// TestDenseAddressPrefixInvariant exercises I6: extend always allocates the
// next index in the dense prefix, with no gaps, regardless of fault order.
func TestDenseAddressPrefixInvariant(t *testing.T) {
	space := addr.Space{Base: 0x0000600000, Max: 0x0000600000 + 4096*8 - 1, PageSize: 4096}
	host := newMemMMU(4, 4, 4096)
	p, err := pager.New(host, space, 4, 4)
	if err != nil {
		t.Fatalf("pager.New() error = %v", err)
	}
	p.Create(1)

	var vas []uint64
	for i := 0; i < 4; i++ {
		va, ok := p.Extend(1)
		if !ok {
			t.Fatalf("extend %d failed", i)
		}
		vas = append(vas, va)
	}
	for i, va := range vas {
		want := space.Base + uint64(i)*4096
		if va != want {
			t.Fatalf("page %d vaddr = %#x, want %#x", i, va, want)
		}
	}
}
