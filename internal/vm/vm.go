// Package vm implements the per-process virtual map (§4.3 of the spec) and
// the process registry it lives in. A ProcessVM's page list is append-only
// and always forms the dense prefix [0, n) that extend's reservation model
// requires (I6): there is no sparse addressing and no hole-punching.
package vm

import (
	"errors"

	"github.com/tinyrange/vpager/mmu"
)

// Residency is the tagged variant spec.md §9 calls for in place of the
// source's bit-packed residency+permission integer. Exactly one of these
// holds for any extended page at any time (I1-I3).
type Residency int

const (
	// Reserved means extend has promised the page a block slot but no
	// fault has ever touched it.
	Reserved Residency = iota
	// Resident means the page is currently mapped to a frame.
	Resident
	// Swapped means the page's content currently lives in a block.
	Swapped
)

func (r Residency) String() string {
	switch r {
	case Reserved:
		return "reserved"
	case Resident:
		return "resident"
	case Swapped:
		return "swapped"
	default:
		return "invalid"
	}
}

// PageState is a process's bookkeeping for one extended page.
type PageState struct {
	Residency Residency
	// SavedPerm records the permission the page's frame held when it was
	// evicted to a block. It is meaningful only when Residency != Resident;
	// swap-in maps the page at Read regardless of it.
	SavedPerm mmu.Perm
}

// ProcessVM is one process's virtual map: its reserved page indices and,
// per page, residency plus saved permission.
type ProcessVM struct {
	Pid   int
	Pages []PageState
}

// NewProcessVM returns an empty virtual map for pid.
func NewProcessVM(pid int) *ProcessVM {
	return &ProcessVM{Pid: pid}
}

// HighestReserved returns the index of the most recently extended page, or
// -1 if the process has never extended.
func (p *ProcessVM) HighestReserved() int {
	return len(p.Pages) - 1
}

// Extend appends a new Reserved page and returns its index.
func (p *ProcessVM) Extend() int {
	p.Pages = append(p.Pages, PageState{Residency: Reserved, SavedPerm: mmu.None})
	return len(p.Pages) - 1
}

// IsReserved reports whether extend has ever promised the page at index
// (i.e. whether index falls within the reserved prefix [0, n)). It does not
// say anything about the page's current residency.
func (p *ProcessVM) IsReserved(index int) bool {
	return index >= 0 && index < len(p.Pages)
}

// Get returns the page state at index.
func (p *ProcessVM) Get(index int) PageState {
	return p.Pages[index]
}

// Set replaces the page state at index.
func (p *ProcessVM) Set(index int, state PageState) {
	p.Pages[index] = state
}

// ErrAlreadyExists is returned by Registry.Create for a duplicate pid. The
// spec calls this undefined behavior at the API boundary; the pager core
// treats it as the fatal "programming error" class from §7.
var ErrAlreadyExists = errors.New("vm: process already exists")

// Registry maps a process id to its virtual map.
type Registry struct {
	procs map[int]*ProcessVM
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{procs: make(map[int]*ProcessVM)}
}

// Create inserts an empty ProcessVM for pid.
func (r *Registry) Create(pid int) error {
	if _, exists := r.procs[pid]; exists {
		return ErrAlreadyExists
	}
	r.procs[pid] = NewProcessVM(pid)
	return nil
}

// Lookup returns pid's virtual map, if any.
func (r *Registry) Lookup(pid int) (*ProcessVM, bool) {
	p, ok := r.procs[pid]
	return p, ok
}

// Remove deletes pid's virtual map. Removing an unknown pid is a silent
// no-op, matching destroy's documented behavior.
func (r *Registry) Remove(pid int) {
	delete(r.procs, pid)
}
