// Package mmu defines the narrow façade the pager core uses to drive the
// host Memory Management Unit. The façade is the pager's only window onto
// physical memory: every byte the pager moves between a frame and a block
// goes through one of these six calls, and the pager never touches PMem
// except to serve syslog.
package mmu

import "fmt"

// Perm is a page permission as seen by the MMU: None (no access, used to
// force a re-fault), Read, or ReadWrite.
type Perm int

const (
	None Perm = iota
	Read
	ReadWrite
)

func (p Perm) String() string {
	switch p {
	case None:
		return "none"
	case Read:
		return "r"
	case ReadWrite:
		return "rw"
	default:
		return fmt.Sprintf("Perm(%d)", int(p))
	}
}

// MMU is the façade the pager core calls to keep the host's page tables in
// sync with the pager's own frame/block bookkeeping. Implementations are
// synchronous: a call returns only once the host state reflects it.
type MMU interface {
	// ZeroFill zeroes the physical frame at the given slot index.
	ZeroFill(frameSlot int) error

	// Resident maps vaddr of pid to frameSlot with the given permission.
	Resident(pid int, vaddr uint64, frameSlot int, perm Perm) error

	// NonResident invalidates any mapping for (pid, vaddr).
	NonResident(pid int, vaddr uint64) error

	// ChProt changes the permission of an existing mapping for (pid, vaddr).
	ChProt(pid int, vaddr uint64, perm Perm) error

	// DiskRead copies the contents of blockSlot into frameSlot.
	DiskRead(blockSlot, frameSlot int) error

	// DiskWrite copies the contents of frameSlot into blockSlot.
	DiskWrite(frameSlot, blockSlot int) error

	// PMem returns the read-only physical-memory window syslog reads from.
	// The byte at PMem()[i*pageSize+offset] holds frame i's content at that
	// offset.
	PMem() []byte
}
