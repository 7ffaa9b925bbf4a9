// report.go - dry-run / statistics report sink
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

// Package report provides the sink dry-run path listings and the
// final statistics summary are written to: either the process's
// standard output, or (with -o FILE) a file written atomically via
// fio.SafeFile so a reader never observes a half-written report.
package report

import (
	"io"
	"os"

	"github.com/jornv/chowntree/internal/fio"
)

// Writer is an io.Writer that finalizes on Close: for a plain
// stdout sink, Close is a no-op; for a file sink, Close renames the
// temporary file into place, and Abort (via a non-nil error from
// the caller) leaves the destination untouched.
type Writer struct {
	io.Writer

	sf *fio.SafeFile
}

// Stdout wraps os.Stdout as a Writer with no finalization step.
func Stdout() *Writer {
	return &Writer{Writer: os.Stdout}
}

// New opens path for atomic, all-or-nothing output. An existing
// file at path is overwritten.
func New(path string) (*Writer, error) {
	sf, err := fio.NewSafeFile(path, fio.OPT_OVERWRITE, os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}
	return &Writer{Writer: sf, sf: sf}, nil
}

// Close finalizes the report. For a file sink this renames the
// temporary file into place; for stdout it does nothing.
func (w *Writer) Close() error {
	if w.sf == nil {
		return nil
	}
	return w.sf.Close()
}

// Abort discards a file sink without renaming it into place; no-op
// for stdout. Used when the run fails before the report is
// complete.
func (w *Writer) Abort() {
	if w.sf != nil {
		w.sf.Abort()
	}
}
