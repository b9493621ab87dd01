package pattern

import (
	"strings"

	"github.com/complyscope/complyscope/pkg/finding"
	"github.com/complyscope/complyscope/pkg/regexcache"
)

// Wildcard is the match-everything pattern.
const Wildcard = "*"

// Matcher evaluates patterns, compiling regular expressions through a
// shared cache. A Matcher is safe for concurrent use.
type Matcher struct {
	cache *regexcache.Cache
}

// New returns a Matcher backed by cache. A nil cache selects the
// process-wide default.
func New(cache *regexcache.Cache) *Matcher {
	if cache == nil {
		cache = regexcache.Default()
	}
	return &Matcher{cache: cache}
}

// IsRegex reports whether pattern uses the /regex/ delimiter convention.
func IsRegex(pattern string) bool {
	return len(pattern) >= 2 && pattern[0] == '/' && pattern[len(pattern)-1] == '/'
}

// Match reports whether candidate matches pattern.
func (m *Matcher) Match(pattern, candidate string) bool {
	if pattern == Wildcard {
		return true
	}
	if IsRegex(pattern) {
		re, err := m.cache.Get(pattern[1 : len(pattern)-1])
		if err != nil {
			return false
		}
		return re.MatchString(candidate)
	}
	if !strings.Contains(pattern, Wildcard) {
		return pattern == candidate
	}
	return globMatch(pattern, candidate)
}

// MatchAny reports whether any pattern matches any of the candidates.
// An empty pattern list matches nothing.
func (m *Matcher) MatchAny(patterns []string, candidates ...string) bool {
	for _, p := range patterns {
		for _, c := range candidates {
			if m.Match(p, c) {
				return true
			}
		}
	}
	return false
}

// MatchTag reports whether a single tag pattern is satisfied by tag.
func (m *Matcher) MatchTag(pattern string, tag finding.Tag) bool {
	if pattern == Wildcard {
		return true
	}
	if IsRegex(pattern) {
		return m.Match(pattern, tag.Key+":"+tag.Value)
	}
	if !strings.Contains(pattern, ":") {
		return m.Match(pattern, tag.Key)
	}
	// Tag keys may themselves contain ':' (aws:cloudformation:stack-name),
	// so every split point is a candidate key/value boundary.
	for i := 0; i < len(pattern); i++ {
		if pattern[i] != ':' {
			continue
		}
		if m.Match(pattern[:i], tag.Key) && m.Match(pattern[i+1:], tag.Value) {
			return true
		}
	}
	return false
}

// MatchTags reports whether every pattern is satisfied by at least one
// tag. With no patterns it returns true.
func (m *Matcher) MatchTags(patterns []string, tags []finding.Tag) bool {
	for _, p := range patterns {
		satisfied := false
		for _, t := range tags {
			if m.MatchTag(p, t) {
				satisfied = true
				break
			}
		}
		if !satisfied {
			return false
		}
	}
	return true
}

// Validate returns a *CompileError when pattern is a regular expression
// that does not compile. Globs and literals are always valid.
func (m *Matcher) Validate(pattern string) error {
	if !IsRegex(pattern) {
		return nil
	}
	expr := pattern[1 : len(pattern)-1]
	if _, err := m.cache.Get(expr); err != nil {
		return &CompileError{Pattern: pattern, Err: err}
	}
	return nil
}

// globMatch matches s against a '*'-only glob, anchored at both ends.
// Single-star backtracking keeps it linear in practice.
func globMatch(pattern, s string) bool {
	p, i := 0, 0
	star, mark := -1, 0
	for i < len(s) {
		switch {
		case p < len(pattern) && pattern[p] == '*':
			star = p
			mark = i
			p++
		case p < len(pattern) && pattern[p] == s[i]:
			p++
			i++
		case star >= 0:
			p = star + 1
			mark++
			i = mark
		default:
			return false
		}
	}
	for p < len(pattern) && pattern[p] == '*' {
		p++
	}
	return p == len(pattern)
}
