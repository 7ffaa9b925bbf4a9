package mutate

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/opencoff/go-logger"

	"github.com/jornv/chowntree/internal/stats"
)

// newTestLogger builds a logger.Logger backed by a file under tmp so
// diagnostic output can be read back and asserted on.
func newTestLogger(t *testing.T, tmp string) (logger.Logger, string) {
	t.Helper()
	fn := filepath.Join(tmp, "diag.log")
	log, err := logger.NewLogger(fn, logger.LOG_DEBUG, "mutate_test", logger.Ldate|logger.Ltime)
	if err != nil {
		t.Fatalf("new logger: %s", err)
	}
	return log, fn
}

func TestApplyUnsetIsNoop(t *testing.T) {
	tmp := t.TempDir()
	fn := filepath.Join(tmp, "f")
	if err := os.WriteFile(fn, []byte("x"), 0600); err != nil {
		t.Fatalf("write: %s", err)
	}

	var c stats.Counters
	log, _ := newTestLogger(t, tmp)
	defer log.Close()
	m := New(&c, log)

	m.Apply(fn, Unset, Unset)

	if c.NoAccess.Load() != 0 || c.NotFound.Load() != 0 || c.Other.Load() != 0 {
		t.Fatalf("unexpected failure classified")
	}
	if c.EntriesChowned.Load() != 1 {
		t.Fatalf("entries chowned: exp 1, saw %d", c.EntriesChowned.Load())
	}
}

func TestApplyMissingPath(t *testing.T) {
	tmp := t.TempDir()
	fn := filepath.Join(tmp, "does-not-exist")

	var c stats.Counters
	log, logfn := newTestLogger(t, tmp)
	m := New(&c, log)

	m.Apply(fn, Unset, Unset)

	if c.NotFound.Load() != 1 {
		t.Fatalf("not-found: exp 1, saw %d", c.NotFound.Load())
	}

	log.Close()
	got, err := os.ReadFile(logfn)
	if err != nil {
		t.Fatalf("read log: %s", err)
	}
	if len(got) == 0 {
		t.Fatalf("expected a diagnostic line to be logged")
	}
}

func TestMutationAttemptsIdentity(t *testing.T) {
	tmp := t.TempDir()

	var c stats.Counters
	log, _ := newTestLogger(t, tmp)
	defer log.Close()
	m := New(&c, log)

	ok := filepath.Join(tmp, "ok")
	os.WriteFile(ok, []byte("x"), 0600)
	m.Apply(ok, Unset, Unset)
	m.Apply(filepath.Join(tmp, "missing"), Unset, Unset)

	want := c.EntriesChowned.Load() + c.NoAccess.Load() + c.NotFound.Load() + c.Other.Load()
	if got := c.MutationAttempts(); got != want {
		t.Fatalf("mutation attempts identity: exp %d, saw %d", want, got)
	}
}
