// mutate.go - the single per-entry ownership mutation
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

// Package mutate applies the one system call at the heart of
// chowntree: a symlink-safe ownership change, with errno
// classification and diagnostics on the shared error stream.
package mutate

import (
	"syscall"

	"github.com/opencoff/go-logger"

	"github.com/jornv/chowntree/internal/fio"
	"github.com/jornv/chowntree/internal/stats"
)

// Unset is the sentinel passed for uid or gid meaning "leave this
// field unchanged". It mirrors chown(2)'s own convention, so it can
// be passed straight through to syscall.Lchown.
const Unset = -1

// Mutator applies ownership changes and classifies failures. It is
// safe for concurrent use by multiple workers: diagnostics go
// through Log, the same logger.Logger instance the walker logs
// directory-level failures to, so the two never interleave and
// never land in the dry-run/-o report sink.
type Mutator struct {
	Counters *stats.Counters
	Log      logger.Logger
}

// New returns a Mutator that records outcomes in c and logs
// diagnostics to log.
func New(c *stats.Counters, log logger.Logger) *Mutator {
	return &Mutator{Counters: c, Log: log}
}

// Apply performs a symlink-safe chown of path to (uid, gid). Either
// may be Unset to leave that field alone. Apply never returns an
// error; the walker is expected to continue regardless of outcome.
// Callers are responsible for counting EntriesSeen; Apply only
// counts attempts and their outcomes.
func (m *Mutator) Apply(path string, uid, gid int) {
	err := syscall.Lchown(path, uid, gid)
	if err == nil {
		m.Counters.EntriesChowned.Add(1)
		return
	}

	class := m.classify(err)
	m.diagnose(path, err)

	switch class {
	case classNoAccess:
		m.Counters.NoAccess.Add(1)
	case classNotFound:
		m.Counters.NotFound.Add(1)
	default:
		m.Counters.Other.Add(1)
	}
}

type errClass int

const (
	classOther errClass = iota
	classNoAccess
	classNotFound
)

func (m *Mutator) classify(err error) errClass {
	switch {
	case fio.ErrAny(err, syscall.EACCES, syscall.EPERM):
		return classNoAccess
	case fio.ErrAny(err, syscall.ENOENT):
		return classNotFound
	default:
		return classOther
	}
}

// diagnose logs one failed chown. Routed through the shared logger
// rather than printed directly, so it's serialised against every
// other diagnostic the run produces.
func (m *Mutator) diagnose(path string, err error) {
	if m.Log == nil {
		return
	}
	m.Log.Warn("%s: %s", path, err)
}
