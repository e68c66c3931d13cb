package app

import (
	"regexp"
	"strings"

	"github.com/chiro2001/financial-frontend/internal/market"
)

// Search filters the stock list by a pattern matched against code, symbol
// and name. A pattern that does not compile as a regular expression is
// matched as a plain substring instead.
type Search struct {
	pattern string
	re      *regexp.Regexp
	err     error
}

// NewSearch compiles pattern.
func NewSearch(pattern string) *Search {
	s := &Search{pattern: pattern}
	if pattern != "" {
		s.re, s.err = regexp.Compile(pattern)
	}
	return s
}

func (s *Search) Pattern() string { return s.pattern }

// Valid reports whether the pattern compiled.
func (s *Search) Valid() bool { return s.err == nil }

// Err is the compile error of an invalid pattern.
func (s *Search) Err() error { return s.err }

// Match reports whether e matches the pattern. Everything matches an empty
// pattern.
func (s *Search) Match(e market.Entity) bool {
	if s.pattern == "" {
		return true
	}
	for _, field := range []string{e.Code, e.Symbol, e.Name} {
		if s.re != nil && s.re.MatchString(field) {
			return true
		}
		if s.re == nil && strings.Contains(field, s.pattern) {
			return true
		}
	}
	return false
}

// Filter returns the entities matching the pattern, in order.
func (s *Search) Filter(entities []market.Entity) []market.Entity {
	if s.pattern == "" {
		return entities
	}
	var out []market.Entity
	for _, e := range entities {
		if s.Match(e) {
			out = append(out, e)
		}
	}
	return out
}
