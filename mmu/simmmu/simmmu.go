// Package simmmu is a reference implementation of the mmu.MMU façade
// (§6.2). It simulates physical memory with an anonymous mmap region and
// the backing store with a diskimage.Image, so the pager can be exercised
// end to end without a real kernel, hypervisor, or disk underneath it —
// the same "simulate the privileged layer in user space" shape the
// teacher uses for its own MMU in internal/hv/riscv/rv64/mmu.go, but here
// the simulation owns physical memory outright rather than translating
// into a guest's.
package simmmu

import (
	"fmt"

	"github.com/tinyrange/vpager/internal/addr"
	"github.com/tinyrange/vpager/internal/diskimage"
	"github.com/tinyrange/vpager/mmu"
	"golang.org/x/sys/unix"
)

type mapping struct {
	frameSlot int
	perm      mmu.Perm
}

type key struct {
	pid   int
	vaddr uint64
}

// MMU is a reference mmu.MMU backed by mmap'd physical memory and a
// diskimage.Image block store. It is not safe for concurrent use by
// multiple goroutines without the Pager's own lock serializing access, the
// same assumption the pager core makes of every façade implementation.
type MMU struct {
	space addr.Space

	pmem []byte
	disk *diskimage.Image
	maps map[key]*mapping
}

// New allocates a physical-memory window of nframes pages and a block
// store of nblocks slots, both page-sized per space.PageSize.
func New(space addr.Space, nframes, nblocks int) *MMU {
	pmem, err := unix.Mmap(-1, 0, nframes*int(space.PageSize), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANON)
	if err != nil {
		panic(fmt.Sprintf("simmmu: mmap pmem: %v", err))
	}
	disk, err := diskimage.Open(nblocks, int(space.PageSize))
	if err != nil {
		panic(fmt.Sprintf("simmmu: open disk image: %v", err))
	}
	return &MMU{
		space: space,
		pmem:  pmem,
		disk:  disk,
		maps:  make(map[key]*mapping),
	}
}

// Close releases the mmap'd physical-memory window and the disk image. An
// MMU must not be used after Close.
func (m *MMU) Close() error {
	if err := unix.Munmap(m.pmem); err != nil {
		return fmt.Errorf("simmmu: munmap pmem: %w", err)
	}
	return m.disk.Close()
}

func (m *MMU) frameBytes(slot int) []byte {
	start := slot * int(m.space.PageSize)
	return m.pmem[start : start+int(m.space.PageSize)]
}

// ZeroFill zeroes the physical frame at frameSlot.
func (m *MMU) ZeroFill(frameSlot int) error {
	clear(m.frameBytes(frameSlot))
	return nil
}

// Resident maps (pid, vaddr) onto frameSlot at perm.
func (m *MMU) Resident(pid int, vaddr uint64, frameSlot int, perm mmu.Perm) error {
	m.maps[key{pid, vaddr}] = &mapping{frameSlot: frameSlot, perm: perm}
	return nil
}

// NonResident removes any mapping for (pid, vaddr).
func (m *MMU) NonResident(pid int, vaddr uint64) error {
	delete(m.maps, key{pid, vaddr})
	return nil
}

// ChProt changes the permission of (pid, vaddr)'s existing mapping. Calling
// it on an address with no current mapping is a programming error in any
// correct caller, so it panics rather than silently creating one.
func (m *MMU) ChProt(pid int, vaddr uint64, perm mmu.Perm) error {
	mp, ok := m.maps[key{pid, vaddr}]
	if !ok {
		panic(fmt.Sprintf("simmmu: chprot(%d, %#x): no mapping", pid, vaddr))
	}
	mp.perm = perm
	return nil
}

// DiskRead copies blockSlot's content into frameSlot.
func (m *MMU) DiskRead(blockSlot, frameSlot int) error {
	m.disk.ReadSlot(blockSlot, m.frameBytes(frameSlot))
	return nil
}

// DiskWrite copies frameSlot's content into blockSlot.
func (m *MMU) DiskWrite(frameSlot, blockSlot int) error {
	m.disk.WriteSlot(blockSlot, m.frameBytes(frameSlot))
	return nil
}

// PMem returns the physical-memory window backing every frame.
func (m *MMU) PMem() []byte { return m.pmem }
