// walker.go - the directory traversal engine
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

// Package walker implements the parallel, symlink-safe directory
// tree traversal at the heart of chowntree: a fixed-size
// worker pool draining a pluggable work queue, deciding per
// directory whether to recurse on the current worker's own stack
// or hand the subdirectory to a peer.
package walker

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/opencoff/go-logger"

	"github.com/jornv/chowntree/internal/fio"
	"github.com/jornv/chowntree/internal/mutate"
	"github.com/jornv/chowntree/internal/queue"
	"github.com/jornv/chowntree/internal/stats"
)

// ErrExtremeUnsupported is returned when -X is requested on a
// platform without a bulk getdents(2) implementation.
var ErrExtremeUnsupported = errors.New("extreme readdir unsupported on this platform")

// ExtremeReaddirSupported reports whether this platform has a bulk
// getdents(2) implementation, so the CLI can reject -X at startup
// rather than after the first directory read fails.
func ExtremeReaddirSupported() bool {
	return extremeReaddirSupported
}

// Config holds every tunable of a walk. The zero value is not
// meaningful; build one with sane defaults and override from the
// command line.
type Config struct {
	NumWorkers      int
	InlineThreshold int
	MaxDepth        int
	CrossDevice     bool // true: prune descent across filesystem boundaries
	FilesOnly       bool
	DirsOnly        bool
	DryRun          bool
	Discipline      queue.Discipline
	ExtremeReaddir  bool
	DirentChunk     int
	Excludes        ExcludeSet

	// TargetUID and TargetGID are the requested owner; -1 (see
	// mutate.Unset) leaves that field untouched everywhere in
	// the tree.
	TargetUID int
	TargetGID int

	Out io.Writer
	Log logger.Logger
}

// admitDir reports whether a directory itself is a candidate for
// printing/mutation under the configured type filter. -f and -d
// together cancel out to "admit everything", same as neither set.
func (c *Config) admitDir() bool {
	if c.FilesOnly == c.DirsOnly {
		return true
	}
	return c.DirsOnly
}

// admitNonDir is admitDir's counterpart for files, symlinks and
// other non-directory entries.
func (c *Config) admitNonDir() bool {
	if c.FilesOnly == c.DirsOnly {
		return true
	}
	return c.FilesOnly
}

// Walker drives one tree-chown run. Build with New, seed with Run.
type Walker struct {
	Config   *Config
	Mutator  *mutate.Mutator
	Counters *stats.Counters

	q queue.Queue[*Task]

	// posixViolation latches once a directory is seen whose
	// nlink is below the POSIX minimum of 2, meaning the
	// filesystem doesn't maintain the "nlink == 2 + subdirs"
	// invariant this walker otherwise relies on to estimate
	// subdirectory counts without a full readdir.
	posixViolation atomic.Bool

	printMu sync.Mutex
}

// New builds a Walker ready to Run. cfg, m and c must be non-nil.
func New(cfg *Config, m *mutate.Mutator, c *stats.Counters) *Walker {
	return &Walker{
		Config:   cfg,
		Mutator:  m,
		Counters: c,
		q:        queue.New[*Task](cfg.Discipline),
	}
}

// Run walks every tree rooted at roots to completion. Each root
// must already be lstat'd into a seeded Task (see NewTask). Run
// prints roots in dry-run mode itself: unlike a subdirectory, a
// root has no parent frame to print it at descend time.
func (w *Walker) Run(roots []*Task) {
	pool := newPool(w, w.Config.NumWorkers)

	for _, r := range roots {
		w.Counters.EntriesSeen.Add(1)
		if w.Config.DryRun && w.Config.admitDir() {
			w.printPath(r.path)
		}
		pool.push(r)
	}

	pool.Run()

	w.Counters.InoBypass.Store(w.q.Bypassed())
}

// process is the pool worker entrypoint for one dequeued task.
func (w *Walker) process(t *Task, pool *Pool) {
	w.walkOne(t, pool)
}

// walkOne opens a directory, processes every entry, then (if the
// type filter admits directories) mutates the directory itself.
// A pruned subdirectory never becomes a Task, so it's naturally
// never mutated; no special case is needed at the pruning point.
func (w *Walker) walkOne(t *Task, pool *Pool) {
	entries, err := w.readDir(t.path)
	if err != nil {
		w.Counters.OpenDirFailed.Add(1)
		w.diagnose(&Error{Op: "opendir", Name: t.path, Err: err})
		return
	}

	if t.nlink < 2 && !w.posixViolation.Load() {
		w.posixViolation.Store(true)
	}

	for _, de := range entries {
		t.filecnt++
		w.handleEntry(t, pool, de)
	}

	if w.Config.admitDir() && !w.Config.DryRun {
		uid, gid := w.resolve(t.uid, t.gid)
		if uid != mutate.Unset || gid != mutate.Unset {
			w.Mutator.Apply(t.path, uid, gid)
		}
	}
}

// handleEntry classifies one directory entry, performing the
// minimum lstat(2) work needed: a known non-directory type on a
// POSIX-compliant filesystem never needs a stat at all.
func (w *Walker) handleEntry(parent *Task, pool *Pool, de dirEntry) {
	childPath := filepath.Join(parent.path, de.name)

	posixOK := !w.posixViolation.Load()
	needStat := !de.typeKnown || de.isDir || !posixOK

	var fi *fio.Info
	if needStat {
		w.Counters.LstatCalls.Add(1)
		if !de.typeKnown {
			w.Counters.LstatUnexpected.Add(1)
		}
		info, err := fio.Lstat(childPath)
		if err != nil {
			w.Counters.StatFailed.Add(1)
			w.diagnose(&Error{Op: "lstat", Name: childPath, Err: err})
			return
		}
		fi = info
	}

	isDir := de.isDir
	if fi != nil {
		isDir = fi.IsDir()
	}

	w.Counters.EntriesSeen.Add(1)

	if isDir {
		w.handleSubdir(parent, pool, childPath, de.name, fi)
		return
	}

	if !w.Config.admitNonDir() {
		return
	}
	if w.Config.DryRun {
		w.printPath(childPath)
		return
	}

	if fi == nil {
		// Type was known from readdir, so no owner was ever
		// fetched for this entry: there's nothing to compare
		// against, so it's mutated unconditionally.
		w.mutateUnconditional(childPath)
		return
	}

	uid, gid := w.resolve(fi.Uid, fi.Gid)
	if uid == mutate.Unset && gid == mutate.Unset {
		return
	}
	w.Mutator.Apply(childPath, uid, gid)
}

// mutateUnconditional applies the configured target uid/gid
// regardless of current ownership, since none was captured.
func (w *Walker) mutateUnconditional(path string) {
	uid, gid := mutate.Unset, mutate.Unset
	if w.Config.TargetUID >= 0 {
		uid = w.Config.TargetUID
	}
	if w.Config.TargetGID >= 0 {
		gid = w.Config.TargetGID
	}
	if uid == mutate.Unset && gid == mutate.Unset {
		return
	}
	w.Mutator.Apply(path, uid, gid)
}

// resolve compares the configured target uid/gid against an
// entry's current owner and returns the pair to pass to Apply,
// with mutate.Unset in either slot where the target isn't set or
// already matches.
func (w *Walker) resolve(curUID, curGID uint32) (uid, gid int) {
	uid, gid = mutate.Unset, mutate.Unset
	if w.Config.TargetUID >= 0 && uint32(w.Config.TargetUID) != curUID {
		uid = w.Config.TargetUID
	}
	if w.Config.TargetGID >= 0 && uint32(w.Config.TargetGID) != curGID {
		gid = w.Config.TargetGID
	}
	return uid, gid
}

// handleSubdir decides whether to print (dry-run), prune, and
// finally whether to recurse inline or hand the subdirectory to a
// peer worker. The dry-run print happens before the prune checks,
// deliberately: once the type filter admits a directory it's named
// once, even if it's about to be excluded from descent.
func (w *Walker) handleSubdir(parent *Task, pool *Pool, path, name string, fi *fio.Info) {
	if w.Config.DryRun && w.Config.admitDir() {
		w.printPath(path)
	}

	if w.Config.Excludes.Match(name) {
		return
	}
	if w.Config.CrossDevice && fi.Dev != parent.rootDev {
		return
	}
	if w.Config.MaxDepth > 0 && parent.depth+1 > w.Config.MaxDepth {
		return
	}

	child := &Task{
		path:    path,
		depth:   parent.depth + 1,
		dev:     fi.Dev,
		nlink:   fi.Nlink,
		uid:     fi.Uid,
		gid:     fi.Gid,
		ino:     fi.Ino,
		rootDev: parent.rootDev,
	}

	if w.shouldInline(pool, parent) {
		parent.inlined++
		w.Counters.DirsInlined.Add(1)
		w.walkOne(child, pool)
		return
	}

	w.Counters.DirsQueued.Add(1)
	pool.push(child)
}

// shouldInline implements the recursion policy: a lone worker
// always inlines; otherwise a configured threshold lets a directory
// with few subdirectories skip the queue. The subdirectory estimate
// comes from parent's own nlink (nlink == 2 + subdirs on a
// POSIX-compliant filesystem), not the child being descended into:
// it's the parent's fan-out, not any one child's, that decides
// whether the parent's remaining children are worth inlining.
// Once the filesystem has proven it doesn't maintain that
// invariant, this falls back to a simple per-directory counter.
func (w *Walker) shouldInline(pool *Pool, parent *Task) bool {
	if pool.singleWorker() {
		return true
	}
	if w.Config.InlineThreshold <= 0 {
		return false
	}
	if !w.posixViolation.Load() {
		return parent.nlink < uint32(w.Config.InlineThreshold+2)
	}
	return parent.inlined < w.Config.InlineThreshold
}

// readDir dispatches to the bulk getdents(2) path when -X is
// enabled and supported, else the portable os.ReadDir path.
func (w *Walker) readDir(path string) ([]dirEntry, error) {
	if w.Config.ExtremeReaddir {
		if !extremeReaddirSupported {
			return nil, ErrExtremeUnsupported
		}
		return readDirExtreme(path, w.Config.DirentChunk)
	}
	return readDirPortable(path)
}

func (w *Walker) printPath(path string) {
	if w.Config.Out == nil {
		return
	}
	w.printMu.Lock()
	defer w.printMu.Unlock()
	fmt.Fprintln(w.Config.Out, path)
}

func (w *Walker) diagnose(err *Error) {
	if w.Config.Log != nil {
		w.Config.Log.Warn("%s", err)
		return
	}
	if w.Config.Out == nil {
		return
	}
	w.printMu.Lock()
	defer w.printMu.Unlock()
	fmt.Fprintf(w.Config.Out, "chowntree: %s\n", err)
}
