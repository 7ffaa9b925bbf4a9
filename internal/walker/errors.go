// errors.go - directory-level errors
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

import "fmt"

// Error represents a directory-level failure: the directory cannot
// be opened, or a stat on one of its entries failed. These abandon
// the affected subtree but never the run.
type Error struct {
	Op   string
	Name string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("walker: %s '%s': %s", e.Op, e.Name, e.Err.Error())
}

func (e *Error) Unwrap() error {
	return e.Err
}

var _ error = &Error{}
