// stats.go - process-wide run statistics
//
// (c) 2024- Jorn I. Viken <jornv@1337.no>
//
// Licensing Terms: GPLv2
//
// If you need a commercial license for this work, please contact
// the author.
//
// This software does not come with any express or implied
// warranty; it is provided "as is". No claim  is made to its
// suitability for any purpose.

// Package stats holds the run-wide counters updated by every worker
// during a walk. All fields are atomic.Uint64 so any worker may bump
// them without additional locking; callers should only read the
// values after the walk has terminated.
package stats

import "sync/atomic"

// Counters accumulates the statistics of one chowntree run. The
// zero value is ready to use.
type Counters struct {
	// EntriesSeen counts every fs entry examined (files, dirs,
	// symlinks, specials), regardless of whether it was mutated.
	EntriesSeen atomic.Uint64

	// EntriesChowned counts successful ownership changes.
	EntriesChowned atomic.Uint64

	// LstatCalls counts every lstat(2) performed while walking.
	LstatCalls atomic.Uint64

	// LstatUnexpected counts lstat(2) calls forced by an
	// "unknown" readdir type hint (as opposed to the ones
	// skipped via the POSIX nlink optimisation).
	LstatUnexpected atomic.Uint64

	// DirsQueued counts directories pushed onto the work queue
	// (as opposed to processed inline).
	DirsQueued atomic.Uint64

	// DirsInlined counts directories processed inline on a
	// worker's own stack.
	DirsInlined atomic.Uint64

	// NoAccess, NotFound and Other classify mutation failures.
	NoAccess atomic.Uint64
	NotFound atomic.Uint64
	Other    atomic.Uint64

	// OpenDirFailed and StatFailed classify directory-level
	// and per-entry stat failures.
	OpenDirFailed atomic.Uint64
	StatFailed    atomic.Uint64

	// InoBypass counts elements stepped over during the
	// inode-ordered queue's binary-search insertion; informational,
	// reported under -S.
	InoBypass atomic.Uint64
}

// MutationAttempts returns the total number of mutation attempts,
// which per invariant 9 must equal EntriesChowned + NoAccess +
// NotFound + Other.
func (c *Counters) MutationAttempts() uint64 {
	return c.EntriesChowned.Load() + c.NoAccess.Load() + c.NotFound.Load() + c.Other.Load()
}
