// main.go - chowntree command line entry point
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

// Command chowntree recursively changes the ownership of a
// directory tree, in parallel, without following symlinks.
package main

import (
	"fmt"
	"io"
	"os"
	"path"
	"runtime"
	"strconv"
	"time"

	"github.com/opencoff/go-logger"
	flag "github.com/opencoff/pflag"

	"github.com/jornv/chowntree/internal/fio"
	"github.com/jornv/chowntree/internal/mutate"
	"github.com/jornv/chowntree/internal/queue"
	"github.com/jornv/chowntree/internal/report"
	"github.com/jornv/chowntree/internal/stats"
	"github.com/jornv/chowntree/internal/walker"
)

// Version is overridden at link time via -ldflags.
var Version = "dev"

var Z = path.Base(os.Args[0])

func main() {
	var (
		workers     int
		inline      int
		excludeRe   stringList
		excludeLit  stringList
		snapshot    bool
		xdev        bool
		maxdepth    int
		filesOnly   bool
		dirsOnly    bool
		dryRun      bool
		fifoQ       bool
		inoQ        bool
		extreme     bool
		showStats   bool
		showTimer   bool
		showVersion bool
		help        bool
		verboseN    int
		outFile     string
	)

	fs := flag.NewFlagSet(Z, flag.ExitOnError)

	fs.IntVarP(&workers, "threads", "t", defaultWorkers(), "Use `N` worker threads")
	fs.IntVarP(&inline, "inline", "I", 2, "Inline at most `N` subdirectories per directory before enqueuing")
	fs.VarP(&excludeRe, "exclude-regex", "e", "Exclude directories whose basename matches `REGEX`")
	fs.VarP(&excludeLit, "exclude-name", "E", "Exclude directories whose basename equals `NAME`")
	fs.BoolVarP(&snapshot, "exclude-snapshot", "Z", false, "Shorthand for -E .snapshot")
	fs.BoolVarP(&xdev, "xdev", "x", false, "Do not cross filesystem boundaries")
	fs.IntVarP(&maxdepth, "maxdepth", "m", 0, "Descend at most `D` levels [0: unlimited]")
	fs.BoolVarP(&filesOnly, "files", "f", false, "Mutate only non-directory entries")
	fs.BoolVarP(&dirsOnly, "dirs", "d", false, "Mutate only directories")
	fs.BoolVarP(&dryRun, "dry-run", "n", false, "Print paths instead of changing ownership")
	fs.BoolVarP(&fifoQ, "fifo", "q", false, "Use FIFO queue discipline [default: LIFO]")
	fs.BoolVarP(&inoQ, "inode-sort", "Q", false, "Use inode-sorted queue discipline [default: LIFO]")
	fs.BoolVarP(&extreme, "extreme-readdir", "X", false, "Use bulk getdents(2) directory reads")
	fs.BoolVarP(&showStats, "stats", "S", false, "Print statistics at exit")
	fs.BoolVarP(&showTimer, "timer", "T", false, "Print elapsed wall time at exit")
	fs.BoolVarP(&showVersion, "version", "V", false, "Print version and exit")
	fs.BoolVarP(&help, "help", "h", false, "Show this help and exit")
	fs.BoolVarP(&help, "help-compat", "?", false, "Show this help and exit")
	fs.IntVarP(&verboseN, "verbose", "v", 0, "Log progress every `N` entries [0: off]")
	fs.StringVarP(&outFile, "output", "o", "", "Write dry-run/stats output to `FILE` instead of stdout")

	fs.SetOutput(os.Stdout)

	if err := fs.Parse(os.Args[1:]); err != nil {
		Die("%s", err)
	}

	if showVersion {
		fmt.Printf("%s %s\n", Z, Version)
		os.Exit(0)
	}
	if help {
		usage(fs)
	}

	args := fs.Args()
	if len(args) < 2 {
		Die("Usage: %s [options] [user][:[group]] dir1 [dir2...]", Z)
	}

	uid, gid, err := parseOwnerSpec(args[0])
	if err != nil {
		Die("%s", err)
	}
	dirs := args[1:]

	if len(excludeRe) > 0 && (len(excludeLit) > 0 || snapshot) {
		Die("-e is mutually exclusive with -E/-Z")
	}
	if workers < 1 || workers > 512 {
		Die("-t must be between 1 and 512")
	}
	if extreme && !walker.ExtremeReaddirSupported() {
		Die("%s", walker.ErrExtremeUnsupported)
	}

	var excludes walker.ExcludeSet
	if snapshot {
		excludeLit = append(excludeLit, ".snapshot")
	}
	for _, name := range excludeLit {
		excludes = append(excludes, walker.NewLiteralExclude(name))
	}
	for _, expr := range excludeRe {
		pat, err := walker.NewRegexExclude(expr)
		if err != nil {
			Die("-e %s: %s", expr, err)
		}
		excludes = append(excludes, pat)
	}

	discipline := queue.Lifo
	switch {
	case fifoQ && inoQ:
		Die("-q and -Q are mutually exclusive")
	case fifoQ:
		discipline = queue.Fifo
	case inoQ:
		discipline = queue.Ino
	}

	dirents := walker.DefaultDirentChunk
	if v := os.Getenv("DIRENTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			dirents = n
		}
	}

	log, err := setupLogger()
	if err != nil {
		Die("%s", err)
	}
	defer log.Close()

	var out *report.Writer
	// Resolve every starting directory before opening the report
	// sink, so a bad argument dies without leaving behind a
	// temporary report file (os.Exit skips deferred cleanup).
	roots := make([]*walker.Task, 0, len(dirs))
	for _, d := range dirs {
		fi, err := fio.Lstat(d)
		if err != nil {
			Die("%s: %s", d, err)
		}
		if !fi.IsDir() {
			Die("%s: not a directory", d)
		}
		roots = append(roots, walker.NewTask(d, fi))
	}

	if outFile != "" {
		out, err = report.New(outFile)
		if err != nil {
			Die("%s", err)
		}
	} else {
		out = report.Stdout()
	}
	defer out.Abort()

	var counters stats.Counters
	mu := mutate.New(&counters, log)

	cfg := &walker.Config{
		NumWorkers:      workers,
		InlineThreshold: inline,
		MaxDepth:        maxdepth,
		CrossDevice:     xdev,
		FilesOnly:       filesOnly,
		DirsOnly:        dirsOnly,
		DryRun:          dryRun,
		Discipline:      discipline,
		ExtremeReaddir:  extreme,
		DirentChunk:     dirents,
		Excludes:        excludes,
		TargetUID:       uid,
		TargetGID:       gid,
		Out:             out,
		Log:             log,
	}

	if verboseN > 0 {
		stop := startTicker(log, &counters, verboseN)
		defer stop()
	}

	start := time.Now()
	w := walker.New(cfg, mu, &counters)
	w.Run(roots)
	elapsed := time.Since(start)

	if showStats {
		printStats(out, &counters)
	}
	if showTimer {
		fmt.Fprintf(out, "elapsed: %s\n", elapsed)
	}

	if err := out.Close(); err != nil {
		Die("%s", err)
	}
}

func defaultWorkers() int {
	n := runtime.NumCPU()
	if n > 8 {
		return 8
	}
	if n < 1 {
		return 1
	}
	return n
}

func setupLogger() (logger.Logger, error) {
	logfile := os.Getenv("CHOWNTREE_LOG")
	if logfile == "" {
		logfile = "STDERR"
	}

	level := logger.LOG_WARNING
	if os.Getenv("DEBUG") != "" {
		level = logger.LOG_DEBUG
	}

	return logger.NewLogger(logfile, level, Z, logger.Ldate|logger.Ltime|logger.Lmicroseconds)
}

// startTicker logs a progress line every n entries seen, polling the
// shared counter rather than hooking every worker individually.
// Returns a function that stops the ticker.
func startTicker(log logger.Logger, c *stats.Counters, n int) func() {
	done := make(chan struct{})
	go func() {
		var lastAccum uint64
		t := time.NewTicker(200 * time.Millisecond)
		defer t.Stop()
		for {
			select {
			case <-done:
				return
			case <-t.C:
				seen := c.EntriesSeen.Load()
				if seen-lastAccum >= uint64(n) {
					log.Info("%d entries seen, %d chowned", seen, c.EntriesChowned.Load())
					lastAccum = seen
				}
			}
		}
	}()
	return func() { close(done) }
}

func printStats(w io.Writer, c *stats.Counters) {
	fmt.Fprintf(w, "entries seen:      %d\n", c.EntriesSeen.Load())
	fmt.Fprintf(w, "entries chowned:   %d\n", c.EntriesChowned.Load())
	fmt.Fprintf(w, "lstat calls:       %d\n", c.LstatCalls.Load())
	fmt.Fprintf(w, "lstat unexpected:  %d\n", c.LstatUnexpected.Load())
	fmt.Fprintf(w, "dirs queued:       %d\n", c.DirsQueued.Load())
	fmt.Fprintf(w, "dirs inlined:      %d\n", c.DirsInlined.Load())
	fmt.Fprintf(w, "no access:         %d\n", c.NoAccess.Load())
	fmt.Fprintf(w, "not found:         %d\n", c.NotFound.Load())
	fmt.Fprintf(w, "other failures:    %d\n", c.Other.Load())
	fmt.Fprintf(w, "open dir failed:   %d\n", c.OpenDirFailed.Load())
	fmt.Fprintf(w, "stat failed:       %d\n", c.StatFailed.Load())
	fmt.Fprintf(w, "ino queue bypass:  %d\n", c.InoBypass.Load())
}

func usage(fs *flag.FlagSet) {
	fmt.Printf(usageStr, Z, Z)
	fs.PrintDefaults()
	os.Exit(1)
}

var usageStr = `%s - parallel recursive ownership changer.

Usage: %s [options] [user][:[group]] dir1 [dir2...]

A leading ':' means "group only"; an absent group leaves the group
unchanged. User and group accept either a name or a numeric id.

Options:
`
