// flags.go - repeatable string-list flag value
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

import "strings"

// stringList accumulates one value per occurrence of a repeatable
// flag, e.g. -e foo -e bar -e baz. Satisfies pflag.Value.
type stringList []string

func (l *stringList) String() string {
	if l == nil {
		return ""
	}
	return strings.Join(*l, ",")
}

func (l *stringList) Set(v string) error {
	*l = append(*l, v)
	return nil
}

func (l *stringList) Type() string {
	return "string"
}
