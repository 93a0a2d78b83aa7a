package pager

import "errors"

// Error taxonomy (§7). Only the "resource exhaustion" and "invalid
// argument" categories surface as ordinary values (Extend's Null return and
// Syslog's -1); an unreserved fault is a silent no-op and has no error
// value at all. "Programming errors"
// (a page in two tables at once, a duplicate create, a clock hand out of
// range) are not errors at all — they panic, since the spec says the
// pager cannot recover from them.
var (
	// ErrInvalidArgument is returned by New when nframes or nblocks is not
	// a positive integer.
	ErrInvalidArgument = errors.New("pager: nframes and nblocks must be positive")

	// ErrInvalidAddress is returned internally when an address falls
	// outside [BASE, MAX]; Syslog surfaces this as -1 rather than an error
	// value, matching the spec's literal API.
	ErrInvalidAddress = errors.New("pager: address out of range")

	// ErrUnknownProcess is returned internally when a pid has no
	// ProcessVM; Syslog surfaces this as -1 and Destroy treats it as a
	// silent no-op, matching the spec.
	ErrUnknownProcess = errors.New("pager: unknown process")
)
