// Package pager implements a user-space demand-paging virtual-memory
// manager. It allocates virtual pages to client processes, lazily binds
// them to a bounded pool of physical frames on first access, evicts frames
// to a bounded backing-store pool under memory pressure using the
// second-chance algorithm, and tracks read/write permissions so that an
// external MMU (see package mmu) generates exactly the page faults needed
// to drive the state machine.
//
// A Pager is driven through six entry points: New (init), Create, Extend,
// Fault, Syslog and Destroy. Fault is the only re-entrant path — it is
// called whenever the host MMU traps an access the pager has not yet
// resolved.
package pager
