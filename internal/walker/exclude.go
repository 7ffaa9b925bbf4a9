// exclude.go - directory exclusion patterns
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

import "regexp"

// ExcludePattern matches a directory basename either literally or
// via an extended regular expression. An ExcludeSet is not modified
// once built.
type ExcludePattern struct {
	literal string
	re      *regexp.Regexp
}

// NewLiteralExclude builds a pattern that matches a basename exactly.
func NewLiteralExclude(name string) ExcludePattern {
	return ExcludePattern{literal: name}
}

// NewRegexExclude compiles an extended regular expression into a
// pattern. Go's regexp package implements RE2 syntax, which is a
// close but not perfect match for POSIX extended regular
// expressions (no backreferences, slightly different character
// class corner cases); see DESIGN.md.
func NewRegexExclude(expr string) (ExcludePattern, error) {
	re, err := regexp.Compile(expr)
	if err != nil {
		return ExcludePattern{}, err
	}
	return ExcludePattern{re: re}, nil
}

// Match returns true if basename matches this pattern.
func (p ExcludePattern) Match(basename string) bool {
	if p.re != nil {
		return p.re.MatchString(basename)
	}
	return p.literal == basename
}

// ExcludeSet is an immutable, ordered collection of ExcludePattern.
type ExcludeSet []ExcludePattern

// Match returns true if basename matches any pattern in the set.
func (s ExcludeSet) Match(basename string) bool {
	for _, p := range s {
		if p.Match(basename) {
			return true
		}
	}
	return false
}
