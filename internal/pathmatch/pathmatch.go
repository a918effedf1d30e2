// Package pathmatch matches slash-separated namespace paths against
// shell-style glob patterns.
//
// Patterns are compiled with '/' as the separator:
//   - '*' and '?' never cross a '/'
//   - '**' crosses any number of levels
//   - '[abc]', '[!abc]', '[a-z]' and '{a,b}' are supported
//
// A pattern must match the whole path; prefixes never count as a match.
package pathmatch

import (
	"errors"
	"fmt"

	"github.com/gobwas/glob"
)

// Separator is the namespace path separator.
const Separator = '/'

// Matcher tests a path against one compiled pattern.
type Matcher interface {
	Match(path string) bool
	Pattern() string
}

// PatternError reports a pattern that failed to compile.
type PatternError struct {
	Pattern string
	Err     error
}

func (e *PatternError) Error() string {
	return fmt.Sprintf("invalid pattern %q: %v", e.Pattern, e.Err)
}

func (e *PatternError) Unwrap() error {
	return e.Err
}

// Glob is a Matcher backed by a compiled glob.
type Glob struct {
	pattern string
	g       glob.Glob
}

// Compile compiles pattern. The returned error is always a *PatternError.
func Compile(pattern string) (*Glob, error) {
	if pattern == "" {
		return nil, &PatternError{Pattern: pattern, Err: errors.New("empty pattern")}
	}
	g, err := glob.Compile(pattern, Separator)
	if err != nil {
		return nil, &PatternError{Pattern: pattern, Err: err}
	}
	return &Glob{pattern: pattern, g: g}, nil
}

// Match reports whether path matches the whole pattern.
func (m *Glob) Match(path string) bool {
	return m.g.Match(path)
}

// Pattern returns the source pattern.
func (m *Glob) Pattern() string {
	return m.pattern
}

// invalid never matches.
type invalid struct {
	pattern string
	err     error
}

func (m invalid) Match(string) bool { return false }

func (m invalid) Pattern() string { return m.pattern }

// Lenient compiles pattern, substituting a matcher that never matches when
// the pattern is malformed.
func Lenient(pattern string) Matcher {
	m, err := Compile(pattern)
	if err != nil {
		return invalid{pattern: pattern, err: err}
	}
	return m
}

// LenientAll compiles every pattern with Lenient.
func LenientAll(patterns []string) []Matcher {
	if len(patterns) == 0 {
		return nil
	}
	out := make([]Matcher, 0, len(patterns))
	for _, p := range patterns {
		out = append(out, Lenient(p))
	}
	return out
}

// Match is the one-shot form of Compile followed by Match. A malformed
// pattern never matches.
func Match(pattern, path string) bool {
	return Lenient(pattern).Match(path)
}

// Validate compiles every pattern and returns all failures joined.
func Validate(patterns []string) error {
	var errs []error
	for _, p := range patterns {
		if _, err := Compile(p); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Valid reports whether m was compiled from a well-formed pattern.
func Valid(m Matcher) bool {
	_, bad := m.(invalid)
	return !bad
}
