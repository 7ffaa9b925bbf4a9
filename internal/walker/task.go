// task.go - the unit of deferred directory work
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

package walker

import "github.com/jornv/chowntree/internal/fio"

// Task is a directory discovered during the walk, either seeded
// from a starting argument or enqueued by a parent directory's
// walker frame. Its path is owned exclusively by whoever holds it:
// the queue between push and pop, a worker between pop and
// completion, or the walker frame for an inline subdirectory.
type Task struct {
	path  string
	depth int

	dev   uint64
	nlink uint32
	uid   uint32
	gid   uint32
	ino   uint64

	// rootDev is the device of the starting directory this task
	// descends from; used to detect filesystem-boundary crossings
	// when cross-device pruning is enabled.
	rootDev uint64

	// inlined counts how many of this directory's own
	// subdirectories have been processed inline rather than
	// enqueued; bounded by the configured inline threshold, except
	// with a single worker, where every subdirectory is inlined.
	inlined int

	// filecnt counts entries seen while walking this directory;
	// informational only, no decision depends on it.
	filecnt int
}

// NewTask builds a Task for a starting directory argument. fi must
// already reflect an Lstat of path. Its own device becomes the
// root device used for cross-device pruning of its subtree.
func NewTask(path string, fi *fio.Info) *Task {
	return &Task{
		path:    path,
		depth:   0,
		dev:     fi.Dev,
		nlink:   fi.Nlink,
		uid:     fi.Uid,
		gid:     fi.Gid,
		ino:     fi.Ino,
		rootDev: fi.Dev,
	}
}

// Inode satisfies queue.Task, used by the inode-sorted discipline.
func (t *Task) Inode() uint64 { return t.ino }
