package mutelist

import (
	"sort"

	"github.com/complyscope/complyscope/pkg/pattern"
)

// Rule is the mute condition attached to one check pattern.
type Rule struct {
	Regions     []string    `json:"Regions,omitempty" yaml:"Regions,omitempty"`
	Resources   []string    `json:"Resources,omitempty" yaml:"Resources,omitempty"`
	Tags        []string    `json:"Tags,omitempty" yaml:"Tags,omitempty"`
	Exceptions  *Exceptions `json:"Exceptions,omitempty" yaml:"Exceptions,omitempty"`
	Description string      `json:"Description,omitempty" yaml:"Description,omitempty"`
}

// Exceptions lists the dimensions that cancel a rule's mute.
type Exceptions struct {
	Accounts  []string `json:"Accounts,omitempty" yaml:"Accounts,omitempty"`
	Regions   []string `json:"Regions,omitempty" yaml:"Regions,omitempty"`
	Resources []string `json:"Resources,omitempty" yaml:"Resources,omitempty"`
	Tags      []string `json:"Tags,omitempty" yaml:"Tags,omitempty"`
}

// isEmpty reports whether no exception dimension is populated.
func (x *Exceptions) isEmpty() bool {
	return x == nil || len(x.Accounts)+len(x.Regions)+len(x.Resources)+len(x.Tags) == 0
}

type checkEntry struct {
	pattern string
	rule    Rule
}

type accountEntry struct {
	pattern string
	checks  []checkEntry
}

// Document is a validated, immutable mutelist.
type Document struct {
	source   string
	accounts []accountEntry
	warnings []Warning
}

// Empty returns a document that mutes nothing.
func Empty() *Document {
	return &Document{}
}

// Source names where the document was loaded from, if known.
func (d *Document) Source() string {
	if d == nil {
		return ""
	}
	return d.source
}

// IsEmpty reports whether the document contains no rules.
func (d *Document) IsEmpty() bool {
	return d.Len() == 0
}

// Len returns the number of (account, check) rules.
func (d *Document) Len() int {
	if d == nil {
		return 0
	}
	n := 0
	for _, a := range d.accounts {
		n += len(a.checks)
	}
	return n
}

// Warnings returns the load-time warnings recorded for the document.
func (d *Document) Warnings() []Warning {
	if d == nil {
		return nil
	}
	out := make([]Warning, len(d.warnings))
	copy(out, d.warnings)
	return out
}

// RuleRef is a read-only view of one rule with its position.
type RuleRef struct {
	Account string `json:"account"`
	Check   string `json:"check"`
	Rule    Rule   `json:"rule"`
}

// Rules lists every rule in evaluation order. The returned values are
// copies; modifying them does not affect the document.
func (d *Document) Rules() []RuleRef {
	if d == nil {
		return nil
	}
	var out []RuleRef
	for _, a := range d.accounts {
		for _, c := range a.checks {
			out = append(out, RuleRef{Account: a.pattern, Check: c.pattern, Rule: cloneRule(c.rule)})
		}
	}
	return out
}

func cloneRule(r Rule) Rule {
	out := Rule{
		Regions:     append([]string(nil), r.Regions...),
		Resources:   append([]string(nil), r.Resources...),
		Tags:        append([]string(nil), r.Tags...),
		Description: r.Description,
	}
	if r.Exceptions != nil {
		out.Exceptions = &Exceptions{
			Accounts:  append([]string(nil), r.Exceptions.Accounts...),
			Regions:   append([]string(nil), r.Exceptions.Regions...),
			Resources: append([]string(nil), r.Exceptions.Resources...),
			Tags:      append([]string(nil), r.Exceptions.Tags...),
		}
	}
	return out
}

// Key precedence: exact ids first, then "*", then globs, then regexes.
func keyRank(key string) int {
	switch {
	case pattern.IsRegex(key):
		return 3
	case key == pattern.Wildcard:
		return 1
	case containsStar(key):
		return 2
	default:
		return 0
	}
}

func containsStar(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] == '*' {
			return true
		}
	}
	return false
}

// sortKeys orders keys by precedence and then lexically, so evaluation
// order never depends on map iteration.
func sortKeys(keys []string) {
	sort.SliceStable(keys, func(i, j int) bool {
		ri, rj := keyRank(keys[i]), keyRank(keys[j])
		if ri != rj {
			return ri < rj
		}
		return keys[i] < keys[j]
	})
}
