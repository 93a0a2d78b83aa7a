package pager_test

import (
	"fmt"

	"github.com/tinyrange/vpager/mmu"
)

// memMMU is a minimal in-process mmu.MMU used by the pager_test package. It
// keeps a real byte-addressable pmem window (so Syslog tests can assert on
// actual bytes) and a fixed-size block store, and records every call it
// receives so tests can assert on the pager's interaction with the façade.
type memMMU struct {
	pageSize int

	pmem   []byte
	blocks [][]byte

	mapped map[key]int // (pid, vaddr) -> frame slot
	perm   map[key]mmu.Perm

	calls []string
}

type key struct {
	pid   int
	vaddr uint64
}

func newMemMMU(nframes, nblocks, pageSize int) *memMMU {
	blocks := make([][]byte, nblocks)
	for i := range blocks {
		blocks[i] = make([]byte, pageSize)
	}
	return &memMMU{
		pageSize: pageSize,
		pmem:     make([]byte, nframes*pageSize),
		blocks:   blocks,
		mapped:   make(map[key]int),
		perm:     make(map[key]mmu.Perm),
	}
}

func (m *memMMU) ZeroFill(frameSlot int) error {
	m.calls = append(m.calls, fmt.Sprintf("zero_fill(%d)", frameSlot))
	start := frameSlot * m.pageSize
	clear(m.pmem[start : start+m.pageSize])
	return nil
}

func (m *memMMU) Resident(pid int, vaddr uint64, frameSlot int, perm mmu.Perm) error {
	m.calls = append(m.calls, fmt.Sprintf("resident(%d, %#x, %d, %s)", pid, vaddr, frameSlot, perm))
	k := key{pid, vaddr}
	m.mapped[k] = frameSlot
	m.perm[k] = perm
	return nil
}

func (m *memMMU) NonResident(pid int, vaddr uint64) error {
	m.calls = append(m.calls, fmt.Sprintf("nonresident(%d, %#x)", pid, vaddr))
	k := key{pid, vaddr}
	delete(m.mapped, k)
	delete(m.perm, k)
	return nil
}

func (m *memMMU) ChProt(pid int, vaddr uint64, perm mmu.Perm) error {
	m.calls = append(m.calls, fmt.Sprintf("chprot(%d, %#x, %s)", pid, vaddr, perm))
	m.perm[key{pid, vaddr}] = perm
	return nil
}

func (m *memMMU) DiskRead(blockSlot, frameSlot int) error {
	m.calls = append(m.calls, fmt.Sprintf("disk_read(%d, %d)", blockSlot, frameSlot))
	start := frameSlot * m.pageSize
	copy(m.pmem[start:start+m.pageSize], m.blocks[blockSlot])
	return nil
}

func (m *memMMU) DiskWrite(frameSlot, blockSlot int) error {
	m.calls = append(m.calls, fmt.Sprintf("disk_write(%d, %d)", frameSlot, blockSlot))
	start := frameSlot * m.pageSize
	copy(m.blocks[blockSlot], m.pmem[start:start+m.pageSize])
	return nil
}

func (m *memMMU) PMem() []byte { return m.pmem }

// frameOf reports the frame slot (pid, vaddr) is currently mapped to, for
// assertions.
func (m *memMMU) frameOf(pid int, vaddr uint64) (int, bool) {
	slot, ok := m.mapped[key{pid, vaddr}]
	return slot, ok
}

// permOf reports the last permission (pid, vaddr) was given.
func (m *memMMU) permOf(pid int, vaddr uint64) (mmu.Perm, bool) {
	p, ok := m.perm[key{pid, vaddr}]
	return p, ok
}
