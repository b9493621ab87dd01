// Package regexcache provides a thread-safe cache for compiled regular
// expressions used by mutelist patterns.
//
// Each evaluation can own a Cache, or share one across concurrent scans:
// the cache is read-mostly and lock-free on hits. Compile failures are
// remembered too, so a malformed pattern is compiled once and then fails
// fast on every later lookup.
//
// Usage:
//
//	c := regexcache.New()
//	re, err := c.Get(`^arn:aws:iam::\d+:user/`)
//	if err != nil {
//	    // pattern is malformed; treat as non-matching
//	}
package regexcache

import (
	"regexp"
	"sync"
)

// entry is either a compiled regexp or the error compiling it produced.
type entry struct {
	re  *regexp.Regexp
	err error
}

// Cache holds compiled regular expressions keyed by pattern string.
// The zero value is ready to use.
type Cache struct {
	m sync.Map // string -> entry
}

// New returns an empty cache.
func New() *Cache {
	return &Cache{}
}

// Get returns a compiled regexp for the given pattern.
// If the pattern was seen before, the cached result (regexp or error)
// is returned without recompiling.
func (c *Cache) Get(pattern string) (*regexp.Regexp, error) {
	if cached, ok := c.m.Load(pattern); ok {
		e := cached.(entry)
		return e.re, e.err
	}

	re, err := regexp.Compile(pattern)
	actual, _ := c.m.LoadOrStore(pattern, entry{re: re, err: err})
	e := actual.(entry)
	return e.re, e.err
}

// Size returns the number of cached patterns, failures included.
func (c *Cache) Size() int {
	count := 0
	c.m.Range(func(_, _ any) bool {
		count++
		return true
	})
	return count
}

var defaultCache Cache

// Default returns the process-wide cache shared by evaluators that are
// not given their own.
func Default() *Cache {
	return &defaultCache
}

// Get looks up pattern in the default cache.
func Get(pattern string) (*regexp.Regexp, error) {
	return defaultCache.Get(pattern)
}
