// errors.go - descriptive errors for fio
//
// (c) 2024 Sudhi Herle <sudhi@herle.net>
//
// Licensing Terms: GPLv2
//
// If you need a commercial license for this work, please contact
// the author.
//
// This software does not come with any express or implied
// warranty; it is provided "as is". No claim  is made to its
// suitability for any purpose.

package fio

import (
	"errors"
)

// errAny returns true if the target error 'err' matches
// any in the list 'errs'; and returns false otherwise.
// Used by callers that need to classify a raw errno into
// one of a small number of buckets (eg. permission vs.
// missing-entry vs. everything-else).
func errAny(err error, errs ...error) bool {
	for _, e := range errs {
		if errors.Is(err, e) {
			return true
		}
	}
	return false
}

// ErrAny is the exported form of errAny for use outside this package.
func ErrAny(err error, errs ...error) bool {
	return errAny(err, errs...)
}
