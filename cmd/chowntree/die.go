// die.go - fatal startup diagnostics
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

package main

import (
	"fmt"
	"os"
)

// Die prints a formatted diagnostic prefixed with the program name
// to stderr and exits with status 1. Used for usage errors, fatal
// startup failures (unresolvable user/group, bad flags) and a failure
// to commit the -o report at exit; a per-entry chown failure is
// never fatal.
func Die(s string, v ...interface{}) {
	z := fmt.Sprintf("%s: %s", os.Args[0], s)
	m := fmt.Sprintf(z, v...)
	if n := len(m); n == 0 || m[n-1] != '\n' {
		m += "\n"
	}
	fmt.Fprint(os.Stderr, m)
	os.Exit(1)
}
