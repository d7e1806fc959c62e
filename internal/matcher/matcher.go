// Package matcher compiles answer patterns and decides whether a submitted
// answer is correct.
package matcher

import (
	"fmt"
	"regexp"
	"strings"
)

// Flags is the set of matching options attached to an answer pattern.
type Flags uint8

const (
	// IgnoreCase folds case while matching ("i").
	IgnoreCase Flags = 1 << iota
	// Multiline makes ^ and $ match at line boundaries ("m").
	Multiline
	// DotAll lets . match a newline ("s").
	DotAll
)

var flagLetters = []struct {
	flag   Flags
	letter rune
}{
	{IgnoreCase, 'i'},
	{Multiline, 'm'},
	{DotAll, 's'},
}

// ParseFlags converts a flag string such as "im" into Flags.
// Letters it does not recognize are returned in ignored, in input order,
// and otherwise have no effect.
func ParseFlags(s string) (flags Flags, ignored []rune) {
	for _, r := range s {
		known := false
		for _, fl := range flagLetters {
			if r == fl.letter {
				flags |= fl.flag
				known = true
				break
			}
		}
		if !known {
			ignored = append(ignored, r)
		}
	}
	return flags, ignored
}

// Has reports whether every flag in f2 is set in f.
func (f Flags) Has(f2 Flags) bool {
	return f&f2 == f2
}

// String returns the canonical letter form, e.g. "ims".
func (f Flags) String() string {
	var b strings.Builder
	for _, fl := range flagLetters {
		if f.Has(fl.flag) {
			b.WriteRune(fl.letter)
		}
	}
	return b.String()
}

// Spec is one acceptable-answer pattern compiled with its flags.
// The zero value matches nothing.
type Spec struct {
	Pattern string
	Flags   Flags
	re      *regexp.Regexp
}

// Compile builds a Spec. The flags are applied as an inline group so the
// pattern text itself is left untouched.
func Compile(pattern string, flags Flags) (Spec, error) {
	expr := pattern
	if prefix := flags.String(); prefix != "" {
		expr = "(?" + prefix + ")" + pattern
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return Spec{}, fmt.Errorf("compile pattern %q: %w", pattern, err)
	}
	return Spec{Pattern: pattern, Flags: flags, re: re}, nil
}

// MustCompile is like Compile but panics on error. Intended for tests and
// package-level fixtures.
func MustCompile(pattern string, flags Flags) Spec {
	s, err := Compile(pattern, flags)
	if err != nil {
		panic(err)
	}
	return s
}

// Match reports whether text contains a match of the pattern.
func (s Spec) Match(text string) bool {
	if s.re == nil {
		return false
	}
	return s.re.MatchString(text)
}

// FirstMatch returns the index of the first spec, in declaration order,
// that matches text, or -1 if none do.
func FirstMatch(specs []Spec, text string) int {
	for i, s := range specs {
		if s.Match(text) {
			return i
		}
	}
	return -1
}

// Any reports whether at least one spec matches text.
func Any(specs []Spec, text string) bool {
	return FirstMatch(specs, text) >= 0
}
