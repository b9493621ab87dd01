package mutelist

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/complyscope/complyscope/pkg/jsonutil"
	"github.com/complyscope/complyscope/pkg/pattern"
	"github.com/complyscope/complyscope/pkg/regexcache"
)

// Format selects the document syntax.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// envelopeKey is the optional wrapper used by the processor store.
const envelopeKey = "Mutelist"

// LoadOption customises parsing.
type LoadOption func(*loadConfig)

type loadConfig struct {
	source string
	cache  *regexcache.Cache
}

// WithSource records where the document came from, for error messages.
func WithSource(source string) LoadOption {
	return func(c *loadConfig) { c.source = source }
}

// WithCache validates regular expressions through cache, warming it for
// the evaluator that will use the document.
func WithCache(cache *regexcache.Cache) LoadOption {
	return func(c *loadConfig) { c.cache = cache }
}

// Parse decodes and validates a document.
func Parse(data []byte, format Format, opts ...LoadOption) (*Document, error) {
	cfg := newLoadConfig(opts)
	if strings.TrimSpace(string(data)) == "" {
		return nil, &ValidationError{Source: cfg.source, Problems: []Problem{{Path: "$", Message: "document is empty"}}}
	}
	if format == FormatJSON {
		if err := jsonutil.Check(data); err != nil {
			return nil, &ValidationError{Source: cfg.source, Problems: []Problem{{Path: "$", Message: "invalid JSON: " + err.Error()}}}
		}
	}

	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, &ValidationError{Source: cfg.source, Problems: []Problem{{Path: "$", Message: "invalid YAML: " + err.Error()}}}
	}
	return build(&root, cfg)
}

// ParseYAML is Parse with FormatYAML.
func ParseYAML(data []byte, opts ...LoadOption) (*Document, error) {
	return Parse(data, FormatYAML, opts...)
}

// ParseJSON is Parse with FormatJSON.
func ParseJSON(data []byte, opts ...LoadOption) (*Document, error) {
	return Parse(data, FormatJSON, opts...)
}

// FromMap validates an already-decoded document, as stored by a
// configuration or processor store. A nil map is an empty mutelist.
func FromMap(m map[string]any, opts ...LoadOption) (*Document, error) {
	if m == nil {
		return Empty(), nil
	}
	cfg := newLoadConfig(opts)
	var root yaml.Node
	if err := root.Encode(m); err != nil {
		return nil, &ValidationError{Source: cfg.source, Problems: []Problem{{Path: "$", Message: err.Error()}}}
	}
	return build(&root, cfg)
}

func newLoadConfig(opts []LoadOption) *loadConfig {
	cfg := &loadConfig{}
	for _, o := range opts {
		o(cfg)
	}
	if cfg.cache == nil {
		cfg.cache = regexcache.Default()
	}
	return cfg
}

func build(root *yaml.Node, cfg *loadConfig) (*Document, error) {
	p := &parser{matcher: pattern.New(cfg.cache)}
	accounts := p.document(root)
	if len(p.problems) > 0 {
		return nil, &ValidationError{Source: cfg.source, Problems: p.problems}
	}
	return &Document{source: cfg.source, accounts: accounts, warnings: p.warnings}, nil
}

type parser struct {
	matcher  *pattern.Matcher
	problems []Problem
	warnings []Warning
}

func (p *parser) fail(path string, n *yaml.Node, format string, args ...any) {
	line := 0
	if n != nil {
		line = n.Line
	}
	p.problems = append(p.problems, Problem{Path: path, Line: line, Message: fmt.Sprintf(format, args...)})
}

func (p *parser) checkPattern(path, pat string) {
	if err := p.matcher.Validate(pat); err != nil {
		p.warnings = append(p.warnings, Warning{Path: path, Err: err})
	}
}

func resolve(n *yaml.Node) *yaml.Node {
	for n != nil && n.Kind == yaml.AliasNode {
		n = n.Alias
	}
	return n
}

func isNull(n *yaml.Node) bool {
	return n == nil || (n.Kind == yaml.ScalarNode && n.Tag == "!!null")
}

func kindName(n *yaml.Node) string {
	switch {
	case isNull(n):
		return "null"
	case n.Kind == yaml.MappingNode:
		return "mapping"
	case n.Kind == yaml.SequenceNode:
		return "list"
	case n.Kind == yaml.ScalarNode:
		return "scalar"
	default:
		return "unknown node"
	}
}

type pair struct {
	key   string
	keyN  *yaml.Node
	value *yaml.Node
}

// mapping returns the key/value pairs of a mapping node, reporting
// non-scalar and duplicate keys. A null node yields no pairs.
func (p *parser) mapping(path string, n *yaml.Node) ([]pair, bool) {
	return p.keyed(path, n, childPath)
}

// keyed is mapping with keyPath naming the path of each key, so that
// pattern keys render as Accounts["*"] rather than Accounts.*.
func (p *parser) keyed(path string, n *yaml.Node, keyPath func(parent, key string) string) ([]pair, bool) {
	n = resolve(n)
	if isNull(n) {
		return nil, true
	}
	if n.Kind != yaml.MappingNode {
		p.fail(path, n, "expected a mapping, got %s", kindName(n))
		return nil, false
	}
	seen := make(map[string]bool, len(n.Content)/2)
	pairs := make([]pair, 0, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		k, v := resolve(n.Content[i]), n.Content[i+1]
		if k.Kind != yaml.ScalarNode {
			p.fail(path, k, "mapping keys must be scalars, got %s", kindName(k))
			continue
		}
		if seen[k.Value] {
			p.fail(keyPath(path, k.Value), k, "duplicate key")
			continue
		}
		seen[k.Value] = true
		pairs = append(pairs, pair{key: k.Value, keyN: k, value: resolve(v)})
	}
	return pairs, true
}

// strings decodes a list of scalar patterns. A null node is an empty list.
func (p *parser) strings(path string, n *yaml.Node) []string {
	n = resolve(n)
	if isNull(n) {
		return nil
	}
	if n.Kind != yaml.SequenceNode {
		p.fail(path, n, "expected a list of strings, got %s", kindName(n))
		return nil
	}
	out := make([]string, 0, len(n.Content))
	for i, item := range n.Content {
		item = resolve(item)
		itemPath := fmt.Sprintf("%s[%d]", path, i)
		if isNull(item) || item.Kind != yaml.ScalarNode {
			p.fail(itemPath, item, "expected a string, got %s", kindName(item))
			continue
		}
		p.checkPattern(itemPath, item.Value)
		out = append(out, item.Value)
	}
	return out
}

func (p *parser) document(root *yaml.Node) []accountEntry {
	n := resolve(root)
	if n != nil && n.Kind == yaml.DocumentNode {
		if len(n.Content) == 0 {
			p.fail("$", n, "document is empty")
			return nil
		}
		n = resolve(n.Content[0])
	}
	if isNull(n) {
		p.fail("$", n, "document is empty")
		return nil
	}
	if n.Kind != yaml.MappingNode {
		p.fail("$", n, "expected a mapping, got %s", kindName(n))
		return nil
	}

	pairs, _ := p.mapping("$", n)
	path := ""
	if len(pairs) > 0 && pairs[0].key == envelopeKey {
		if len(pairs) > 1 {
			for _, extra := range pairs[1:] {
				p.fail(extra.key, extra.keyN, "unknown top-level key next to %s", envelopeKey)
			}
		}
		path = envelopeKey
		pairs, _ = p.mapping(path, pairs[0].value)
	}

	var accounts []accountEntry
	for _, kv := range pairs {
		switch kv.key {
		case "Accounts":
			accounts = p.accounts(childPath(path, "Accounts"), kv.value)
		default:
			p.fail(childPath(path, kv.key), kv.keyN, "unknown key (expected Accounts)")
		}
	}
	return accounts
}

func (p *parser) accounts(path string, n *yaml.Node) []accountEntry {
	pairs, _ := p.keyed(path, n, indexPath)
	byKey := make(map[string]accountEntry, len(pairs))
	keys := make([]string, 0, len(pairs))
	for _, kv := range pairs {
		accPath := indexPath(path, kv.key)
		p.checkPattern(accPath, kv.key)
		entry := accountEntry{pattern: kv.key}
		fields, ok := p.mapping(accPath, kv.value)
		if !ok {
			continue
		}
		for _, f := range fields {
			switch f.key {
			case "Checks":
				entry.checks = p.checks(childPath(accPath, "Checks"), f.value)
			default:
				p.fail(childPath(accPath, f.key), f.keyN, "unknown key (expected Checks)")
			}
		}
		byKey[kv.key] = entry
		keys = append(keys, kv.key)
	}
	sortKeys(keys)
	out := make([]accountEntry, 0, len(keys))
	for _, k := range keys {
		out = append(out, byKey[k])
	}
	return out
}

func (p *parser) checks(path string, n *yaml.Node) []checkEntry {
	pairs, _ := p.keyed(path, n, indexPath)
	byKey := make(map[string]Rule, len(pairs))
	keys := make([]string, 0, len(pairs))
	for _, kv := range pairs {
		checkPath := indexPath(path, kv.key)
		p.checkPattern(checkPath, kv.key)
		rule, ok := p.rule(checkPath, kv.value)
		if !ok {
			continue
		}
		byKey[kv.key] = rule
		keys = append(keys, kv.key)
	}
	sortKeys(keys)
	out := make([]checkEntry, 0, len(keys))
	for _, k := range keys {
		out = append(out, checkEntry{pattern: k, rule: byKey[k]})
	}
	return out
}

func (p *parser) rule(path string, n *yaml.Node) (Rule, bool) {
	var r Rule
	fields, ok := p.mapping(path, n)
	if !ok {
		return r, false
	}
	for _, f := range fields {
		fp := childPath(path, f.key)
		switch f.key {
		case "Regions":
			r.Regions = p.strings(fp, f.value)
		case "Resources":
			r.Resources = p.strings(fp, f.value)
		case "Tags":
			r.Tags = p.strings(fp, f.value)
		case "Exceptions":
			r.Exceptions = p.exceptions(fp, f.value)
		case "Description":
			if isNull(f.value) {
				continue
			}
			if f.value.Kind != yaml.ScalarNode {
				p.fail(fp, f.value, "expected a string, got %s", kindName(f.value))
				continue
			}
			r.Description = f.value.Value
		default:
			p.fail(fp, f.keyN, "unknown key (expected Regions, Resources, Tags, Exceptions or Description)")
		}
	}
	return r, true
}

func (p *parser) exceptions(path string, n *yaml.Node) *Exceptions {
	fields, ok := p.mapping(path, n)
	if !ok {
		return nil
	}
	x := &Exceptions{}
	for _, f := range fields {
		fp := childPath(path, f.key)
		switch f.key {
		case "Accounts":
			x.Accounts = p.strings(fp, f.value)
		case "Regions":
			x.Regions = p.strings(fp, f.value)
		case "Resources":
			x.Resources = p.strings(fp, f.value)
		case "Tags":
			x.Tags = p.strings(fp, f.value)
		default:
			p.fail(fp, f.keyN, "unknown key (expected Accounts, Regions, Resources or Tags)")
		}
	}
	if x.isEmpty() {
		return nil
	}
	return x
}

func childPath(parent, key string) string {
	if parent == "" || parent == "$" {
		return key
	}
	return parent + "." + key
}

func indexPath(parent, key string) string {
	return fmt.Sprintf("%s[%q]", parent, key)
}
