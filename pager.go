package pager

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/tinyrange/vpager/internal/addr"
	"github.com/tinyrange/vpager/internal/clock"
	"github.com/tinyrange/vpager/internal/pagetable"
	"github.com/tinyrange/vpager/internal/vm"
	"github.com/tinyrange/vpager/mmu"
)

// Pager is the pager core: the single aggregate that owns the frame table,
// block table, process registry and clock hand described in §2 of the
// spec, all guarded by one global lock (§5). There is no package-level
// mutable state — every entry point is a method on a *Pager returned by
// New, even though the spec's own design notes call a single process-wide
// instance an acceptable reading of "the API is a singleton."
type Pager struct {
	mu sync.Mutex

	space  addr.Space
	frames *pagetable.FrameTable
	blocks *pagetable.BlockTable
	procs  *vm.Registry
	clock  *clock.Clock
	host   mmu.MMU

	log *slog.Logger
	out io.Writer
}

// Option configures optional Pager behavior.
type Option func(*Pager)

// WithLogger overrides the *slog.Logger used for diagnostics. The default
// is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(p *Pager) { p.log = l }
}

// WithOutput overrides the writer Syslog prints its hex dump to. The
// default is os.Stdout.
func WithOutput(w io.Writer) Option {
	return func(p *Pager) { p.out = w }
}

// New is the pager's init entry point. It allocates a frame table of
// nframes slots and a block table of nblocks slots, both initially empty,
// and an empty process registry. host is the MMU façade every subsequent
// call drives. Allocation failure here (a misconfigured nframes/nblocks or
// a nil host) is reported as ErrInvalidArgument rather than left to panic,
// since — unlike the invariant violations in §7 — it is a usage error the
// caller can recover from before any process exists.
func New(host mmu.MMU, space addr.Space, nframes, nblocks int, opts ...Option) (*Pager, error) {
	if nframes <= 0 || nblocks <= 0 {
		return nil, fmt.Errorf("pager.New: %w: nframes=%d nblocks=%d", ErrInvalidArgument, nframes, nblocks)
	}
	if host == nil {
		return nil, fmt.Errorf("pager.New: %w: host is nil", ErrInvalidArgument)
	}

	p := &Pager{
		space:  space,
		frames: pagetable.NewFrameTable(nframes),
		blocks: pagetable.NewBlockTable(nblocks),
		procs:  vm.NewRegistry(),
		clock:  clock.New(),
		host:   host,
		log:    slog.Default(),
		out:    os.Stdout,
	}
	for _, opt := range opts {
		opt(p)
	}

	p.log.Debug("pager initialized",
		"nframes", nframes, "nblocks", nblocks,
		"base", hex(space.Base), "max", hex(space.Max), "page_size", space.PageSize)
	return p, nil
}

// Create registers an empty virtual map for pid. A duplicate pid is a
// fatal programming error per §7 — the pager panics rather than returning
// an error, since the precondition is the caller's to uphold.
func (p *Pager) Create(pid int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.procs.Create(pid); err != nil {
		p.log.Error("create: duplicate pid", "pid", pid)
		panic(fmt.Sprintf("pager: create(%d): %v", pid, err))
	}
	p.log.Debug("create", "pid", pid)
}

// Extend grows pid's virtual map by one page and returns its virtual
// address. It returns ok == false when the backing-store pool has no free
// reservation slot left (the spec's Null return) — the page is not
// promised and the caller's address space does not grow.
func (p *Pager) Extend(pid int) (vaddr uint64, ok bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	proc, exists := p.procs.Lookup(pid)
	if !exists {
		panic(fmt.Sprintf("pager: extend(%d): unknown process", pid))
	}

	if !p.blocks.Reserve() {
		p.log.Debug("extend: block pool exhausted", "pid", pid)
		return 0, false
	}

	index := proc.Extend()
	va := p.space.VAddr(uint64(index))
	p.log.Debug("extend", "pid", pid, "index", index, "vaddr", hex(va))
	return va, true
}

// Fault is the re-entrant entry point the MMU drives on every host page
// fault. addr need not be page-aligned; it is normalized first. See §4.5
// for the full dispatch table.
func (p *Pager) Fault(pid int, address uint64) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	index, inRange := p.space.TryIndex(address)
	if !inRange {
		p.log.Debug("fault: address out of range, ignoring", "pid", pid, "addr", hex(address))
		return nil
	}
	va := p.space.VAddr(index)

	proc, exists := p.procs.Lookup(pid)
	if !exists {
		p.log.Debug("fault: unknown process, ignoring", "pid", pid, "addr", hex(va))
		return nil
	}

	_, inFrame := p.frames.Lookup(pid, va)
	_, inBlock := p.blocks.Lookup(pid, va)
	reserved := proc.IsReserved(int(index))

	switch {
	case !inFrame && !inBlock:
		if !reserved {
			p.log.Debug("fault: unreserved address, ignoring", "pid", pid, "addr", hex(va))
			return nil
		}
		return p.faultFirstTouch(pid, va, proc, int(index))

	case inFrame && !inBlock:
		return p.faultResident(pid, va)

	case !inFrame && inBlock:
		return p.faultSwapped(pid, va, proc, int(index))

	default: // inFrame && inBlock
		p.log.Error("invariant violation: page present in both frame and block tables", "pid", pid, "addr", hex(va))
		panic(fmt.Sprintf("pager: fault(%d, %s): page present in both frame and block tables", pid, hex(va)))
	}
}

// faultFirstTouch handles Case A: a reserved page touched for the first
// time.
func (p *Pager) faultFirstTouch(pid int, va uint64, proc *vm.ProcessVM, index int) error {
	slot, err := p.allocFrame(pid, va)
	if err != nil {
		return err
	}

	if err := p.host.ZeroFill(slot); err != nil {
		return fmt.Errorf("pager: zero_fill(%d): %w", slot, err)
	}
	if err := p.host.Resident(pid, va, slot, mmu.Read); err != nil {
		return fmt.Errorf("pager: resident(%d, %s): %w", pid, hex(va), err)
	}

	proc.Set(index, vm.PageState{Residency: vm.Resident})
	p.log.Debug("fault: first touch", "pid", pid, "addr", hex(va), "frame", slot)
	return nil
}

// faultResident handles Case B: the page is already mapped to a frame and
// the MMU trapped on a permission-None or Read access.
func (p *Pager) faultResident(pid int, va uint64) error {
	slot, _ := p.frames.Lookup(pid, va)
	entry := p.frames.Get(slot)

	switch entry.Perm {
	case mmu.None:
		if err := p.host.ChProt(pid, va, mmu.Read); err != nil {
			return fmt.Errorf("pager: chprot(%d, %s): %w", pid, hex(va), err)
		}
		p.frames.SetPerm(slot, mmu.Read)

	case mmu.Read:
		if err := p.host.ChProt(pid, va, mmu.ReadWrite); err != nil {
			return fmt.Errorf("pager: chprot(%d, %s): %w", pid, hex(va), err)
		}
		p.frames.SetPerm(slot, mmu.ReadWrite)
		p.frames.SetDirty(slot, true)

	case mmu.ReadWrite:
		// Idempotence (§8): a repeated fault at RW leaves permission and
		// dirty state unchanged; only the reference bit is (re)set below.
	}

	p.frames.SetReference(slot, true)
	p.log.Debug("fault: resident", "pid", pid, "addr", hex(va), "perm", p.frames.Get(slot).Perm)
	return nil
}

// faultSwapped handles Case C: the page's content lives in a block and
// must be paged back into a frame.
func (p *Pager) faultSwapped(pid int, va uint64, proc *vm.ProcessVM, index int) error {
	blockSlot, _ := p.blocks.Lookup(pid, va)

	frameSlot, err := p.allocFrame(pid, va)
	if err != nil {
		return err
	}

	if err := p.host.DiskRead(blockSlot, frameSlot); err != nil {
		return fmt.Errorf("pager: disk_read(%d, %d): %w", blockSlot, frameSlot, err)
	}
	if err := p.host.Resident(pid, va, frameSlot, mmu.Read); err != nil {
		return fmt.Errorf("pager: resident(%d, %s): %w", pid, hex(va), err)
	}
	// The block's dirty bit moves back into the frame with its content, so
	// a later eviction spills it again instead of taking the clean path.
	p.frames.SetDirty(frameSlot, p.blocks.Get(blockSlot).Dirty)
	p.blocks.Clear(blockSlot)
	p.frames.SetReference(frameSlot, true)

	proc.Set(index, vm.PageState{Residency: vm.Resident})
	p.log.Debug("fault: swap-in", "pid", pid, "addr", hex(va), "frame", frameSlot, "block", blockSlot)
	return nil
}

// allocFrame inserts (pid, va) into the frame table at Read permission,
// running second-chance eviction first if the table is full.
func (p *Pager) allocFrame(pid int, va uint64) (slot int, err error) {
	slot, err = p.frames.Insert(pid, va, mmu.Read)
	if err == nil {
		return slot, nil
	}
	if !errors.Is(err, pagetable.ErrFull) {
		return 0, fmt.Errorf("pager: insert frame: %w", err)
	}

	victim, err := p.clock.Evict(p.frames, p.host)
	if err != nil {
		return 0, fmt.Errorf("pager: evict: %w", err)
	}
	if err := p.disposeVictim(victim); err != nil {
		return 0, err
	}

	slot, err = p.frames.Insert(pid, va, mmu.Read)
	if err != nil {
		// The slot disposeVictim just freed is ours alone under the single global
		// lock; failing here means the tables have diverged.
		panic(fmt.Sprintf("pager: insert frame for (%d, %s) failed immediately after eviction: %v", pid, hex(va), err))
	}
	return slot, nil
}

// disposeVictim implements §4.4's victim disposal. disk_write is issued
// only when the victim's dirty bit is set, exactly as §8 scenario 3
// describes ("victim was not dirty, so no disk_write"). A clean victim's
// frame content is definitionally just whatever zero_fill last produced —
// nothing has written to it since — so there is nothing to preserve: it
// reverts to Reserved rather than Swapped, and its next fault retakes the
// first-touch path, which reproduces those same zero bytes. Only a dirty
// victim actually allocates a block slot and spills to it (see Open
// Question decision 4 for why that slot is independent of frame index).
func (p *Pager) disposeVictim(slot int) error {
	entry := p.frames.Get(slot)

	var newState vm.PageState
	if entry.Dirty {
		blockSlot, err := p.blocks.Insert(entry.Pid, entry.VAddr, entry.Dirty)
		if err != nil {
			return fmt.Errorf("pager: spill victim (%d, %s): %w", entry.Pid, hex(entry.VAddr), err)
		}
		if err := p.host.DiskWrite(slot, blockSlot); err != nil {
			return fmt.Errorf("pager: disk_write(%d, %d): %w", slot, blockSlot, err)
		}
		newState = vm.PageState{Residency: vm.Swapped, SavedPerm: entry.Perm}
		p.log.Debug("evicted (dirty)", "pid", entry.Pid, "addr", hex(entry.VAddr), "frame", slot, "block", blockSlot)
	} else {
		newState = vm.PageState{Residency: vm.Reserved}
		p.log.Debug("evicted (clean)", "pid", entry.Pid, "addr", hex(entry.VAddr), "frame", slot)
	}

	if victimProc, ok := p.procs.Lookup(entry.Pid); ok {
		victimIndex := int(p.space.Index(entry.VAddr))
		victimProc.Set(victimIndex, newState)
	}

	if err := p.host.NonResident(entry.Pid, entry.VAddr); err != nil {
		return fmt.Errorf("pager: nonresident(%d, %s): %w", entry.Pid, hex(entry.VAddr), err)
	}
	p.frames.Clear(slot)

	return nil
}

// Syslog prints len bytes read directly from the MMU's physical-memory
// window, as lowercase hex to the Pager's configured output. The read
// starts at index(addr)*PageSize plus addr's offset within its page: the
// window position follows addr's page index, not the frame slot the page
// currently occupies. It returns 0 on success and -1 when addr is out of range or
// beyond pid's reserved prefix (ErrInvalidAddress) or pid is unknown
// (ErrUnknownProcess), matching the spec's literal API rather than an
// idiomatic error return.
func (p *Pager) Syslog(pid int, address uint64, length int) int {
	p.mu.Lock()
	defer p.mu.Unlock()

	offset, err := p.resolveSyslogOffset(pid, address)
	if err != nil {
		p.log.Debug("syslog: rejected", "pid", pid, "addr", hex(address), "error", err)
		return -1
	}

	pmem := p.host.PMem()

	buf := make([]byte, 0, length*2+1)
	for i := 0; i < length; i++ {
		buf = fmt.Appendf(buf, "%02x", pmem[int(offset)+i])
	}
	buf = append(buf, '\n')

	if _, err := p.out.Write(buf); err != nil {
		p.log.Warn("syslog: write failed", "pid", pid, "error", err)
	}
	return 0
}

// resolveSyslogOffset validates (pid, address) and returns the byte offset
// into the MMU's physical-memory window that Syslog should start reading
// from. It is the internal home for the sentinel errors Syslog's literal
// -1 return value collapses: ErrInvalidAddress for an address outside the
// managed space or beyond pid's reserved prefix, ErrUnknownProcess for an
// unregistered pid.
func (p *Pager) resolveSyslogOffset(pid int, address uint64) (uint64, error) {
	if !p.space.Contains(address) {
		return 0, ErrInvalidAddress
	}

	proc, exists := p.procs.Lookup(pid)
	if !exists {
		return 0, ErrUnknownProcess
	}

	index := p.space.Index(address)
	if int(index) > proc.HighestReserved() {
		return 0, ErrInvalidAddress
	}

	return index*p.space.PageSize + p.space.Offset(address), nil
}

// Destroy releases every frame and block slot pid owns and removes its
// virtual map. An unknown pid is a silent no-op. Destroy issues no MMU
// calls — tearing down the process's mappings is the external harness's
// responsibility.
func (p *Pager) Destroy(pid int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	proc, exists := p.procs.Lookup(pid)
	if !exists {
		return
	}

	p.frames.EvictAll(pid)
	p.blocks.ClearOwnedBy(pid)
	for range proc.Pages {
		p.blocks.Release()
	}
	p.procs.Remove(pid)

	p.log.Debug("destroy", "pid", pid)
}

func hex(v uint64) string {
	return fmt.Sprintf("%#x", v)
}
