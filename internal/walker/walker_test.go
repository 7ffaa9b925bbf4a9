// walker_test.go - parallel traversal scenarios
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

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jornv/chowntree/internal/fio"
	"github.com/jornv/chowntree/internal/mutate"
	"github.com/jornv/chowntree/internal/queue"
	"github.com/jornv/chowntree/internal/stats"
)

func requireRoot(t *testing.T) {
	t.Helper()
	if os.Geteuid() != 0 {
		t.Skip("chowning to an arbitrary uid/gid requires root")
	}
}

func baseConfig(out *bytes.Buffer) *Config {
	return &Config{
		NumWorkers:      4,
		InlineThreshold: 2,
		Discipline:      queue.Lifo,
		TargetUID:       mutate.Unset,
		TargetGID:       mutate.Unset,
		Out:             out,
	}
}

func newWalkerFor(cfg *Config) (*Walker, *stats.Counters) {
	var c stats.Counters
	m := mutate.New(&c, cfg.Log)
	return New(cfg, m, &c), &c
}

func seedRoot(t *testing.T, path string) *Task {
	t.Helper()
	fi, err := fio.Lstat(path)
	if err != nil {
		t.Fatalf("lstat %s: %s", path, err)
	}
	return NewTask(path, fi)
}

func mkTree(t *testing.T, root string, dirs []string, files []string) {
	t.Helper()
	if err := os.MkdirAll(root, 0755); err != nil {
		t.Fatalf("mkdir %s: %s", root, err)
	}
	for _, d := range dirs {
		if err := os.MkdirAll(filepath.Join(root, d), 0755); err != nil {
			t.Fatalf("mkdir %s: %s", d, err)
		}
	}
	for _, f := range files {
		fn := filepath.Join(root, f)
		if err := os.MkdirAll(filepath.Dir(fn), 0755); err != nil {
			t.Fatalf("mkdir %s: %s", filepath.Dir(fn), err)
		}
		if err := os.WriteFile(fn, []byte("x"), 0644); err != nil {
			t.Fatalf("write %s: %s", fn, err)
		}
	}
}

// S1: an empty directory yields exactly one mutation attempt, on
// the directory itself.
func TestScenarioEmptyDir(t *testing.T) {
	requireRoot(t)
	root := t.TempDir()

	var out bytes.Buffer
	cfg := baseConfig(&out)
	cfg.TargetUID, cfg.TargetGID = 1000, 1000
	w, c := newWalkerFor(cfg)

	w.Run([]*Task{seedRoot(t, root)})

	if got := c.EntriesChowned.Load(); got != 1 {
		t.Fatalf("entries chowned: exp 1, saw %d", got)
	}
	if got := c.MutationAttempts(); got != 1 {
		t.Fatalf("mutation attempts: exp 1, saw %d", got)
	}
}

// S2: a small balanced tree chowns every entry (root + 2 dirs + 4
// leaves = 7), regardless of worker count or interleaving.
func TestScenarioBalancedTree(t *testing.T) {
	requireRoot(t)
	root := t.TempDir()
	mkTree(t, root,
		[]string{"a", "b"},
		[]string{"a/x", "a/y", "b/x", "b/y"},
	)

	var out bytes.Buffer
	cfg := baseConfig(&out)
	cfg.NumWorkers = 4
	cfg.TargetUID, cfg.TargetGID = 1000, 1000
	w, c := newWalkerFor(cfg)

	w.Run([]*Task{seedRoot(t, root)})

	if got := c.EntriesChowned.Load(); got != 7 {
		t.Fatalf("entries chowned: exp 7, saw %d", got)
	}
}

// S3: an excluded subdirectory and its contents are never
// descended into or chowned; siblings are unaffected.
func TestScenarioExclude(t *testing.T) {
	requireRoot(t)
	root := t.TempDir()

	var files []string
	for i := 0; i < 100; i++ {
		files = append(files, filepath.Join(".snapshot", "f"+string(rune('a'+i%26))+string(rune('0'+i/26))))
	}
	files = append(files, "keep")
	mkTree(t, root, []string{".snapshot"}, files)

	var out bytes.Buffer
	cfg := baseConfig(&out)
	cfg.TargetUID, cfg.TargetGID = 1000, 1000
	cfg.Excludes = ExcludeSet{NewLiteralExclude(".snapshot")}
	w, c := newWalkerFor(cfg)

	w.Run([]*Task{seedRoot(t, root)})

	// root + "keep" only; .snapshot and its 100 files are pruned.
	if got := c.EntriesChowned.Load(); got != 2 {
		t.Fatalf("entries chowned: exp 2, saw %d", got)
	}
}

// S4: dry-run prints every reachable path exactly once and makes
// no mutation attempts.
func TestScenarioDryRun(t *testing.T) {
	root := t.TempDir()
	mkTree(t, root,
		[]string{"d1"},
		[]string{"f1", "f2", "f3", "d1/f4", "d1/f5"},
	)

	var out bytes.Buffer
	cfg := baseConfig(&out)
	cfg.DryRun = true
	cfg.TargetUID, cfg.TargetGID = 0, 0
	w, c := newWalkerFor(cfg)

	w.Run([]*Task{seedRoot(t, root)})

	if got := c.EntriesChowned.Load(); got != 0 {
		t.Fatalf("entries chowned: exp 0 under dry-run, saw %d", got)
	}

	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	if len(lines) != 7 {
		t.Fatalf("printed paths: exp 7, saw %d (%q)", len(lines), lines)
	}
}

// S5: with maxdepth 1, only the root and its immediate children
// are chowned; deeper descendants are untouched.
func TestScenarioMaxDepth(t *testing.T) {
	requireRoot(t)
	root := t.TempDir()
	mkTree(t, root, []string{"a", "a/b", "a/b/c"}, nil)

	var out bytes.Buffer
	cfg := baseConfig(&out)
	cfg.MaxDepth = 1
	cfg.TargetUID, cfg.TargetGID = 1000, 1000
	w, c := newWalkerFor(cfg)

	w.Run([]*Task{seedRoot(t, root)})

	if got := c.EntriesChowned.Load(); got != 2 {
		t.Fatalf("entries chowned: exp 2 (root + a), saw %d", got)
	}
}

// S6: with -d (directories only), only the directories in the
// tree are chowned.
func TestScenarioDirsOnly(t *testing.T) {
	requireRoot(t)
	root := t.TempDir()
	mkTree(t, root,
		[]string{"a", "b"},
		[]string{"f1", "f2", "f3", "f4", "f5", "f6", "f7", "f8", "f9", "f10"},
	)

	var out bytes.Buffer
	cfg := baseConfig(&out)
	cfg.DirsOnly = true
	cfg.TargetUID, cfg.TargetGID = 1000, 1000
	w, c := newWalkerFor(cfg)

	w.Run([]*Task{seedRoot(t, root)})

	// root + a + b = 3 directories; no files chowned.
	if got := c.EntriesChowned.Load(); got != 3 {
		t.Fatalf("entries chowned: exp 3, saw %d", got)
	}
}

// Statistics identity (invariant 9): successful + classified
// failures must equal total mutation attempts after a walk of a
// small tree of two files.
func TestStatisticsIdentity(t *testing.T) {
	requireRoot(t)
	root := t.TempDir()
	mkTree(t, root, nil, []string{"f1", "f2"})

	var out bytes.Buffer
	cfg := baseConfig(&out)
	cfg.TargetUID, cfg.TargetGID = 1000, 1000
	w, c := newWalkerFor(cfg)

	w.Run([]*Task{seedRoot(t, root)})

	sum := c.EntriesChowned.Load() + c.NoAccess.Load() + c.NotFound.Load() + c.Other.Load()
	if got := c.MutationAttempts(); got != sum {
		t.Fatalf("mutation attempts identity: exp %d, saw %d", sum, got)
	}
}

// Termination (invariant 8): a modest tree walked with several
// disciplines and worker counts always drains to completion.
func TestTerminationAcrossDisciplines(t *testing.T) {
	for _, d := range []queue.Discipline{queue.Lifo, queue.Fifo, queue.Ino} {
		for _, workers := range []int{1, 2, 8} {
			root := t.TempDir()
			mkTree(t, root,
				[]string{"a", "a/b", "c"},
				[]string{"a/f1", "a/b/f2", "c/f3", "f4"},
			)

			var out bytes.Buffer
			cfg := baseConfig(&out)
			cfg.NumWorkers = workers
			cfg.Discipline = d
			cfg.DryRun = true
			w, _ := newWalkerFor(cfg)

			done := make(chan struct{})
			go func() {
				w.Run([]*Task{seedRoot(t, root)})
				close(done)
			}()
			select {
			case <-done:
			case <-time.After(5 * time.Second):
				t.Fatalf("walk did not terminate: discipline=%v workers=%d", d, workers)
			}
		}
	}
}
