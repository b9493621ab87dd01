package compliance

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/complyscope/complyscope/pkg/jsonutil"
)

// Format selects the document syntax.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFor picks the syntax from a file name. Returns "" for unsupported
// extensions.
func FormatFor(name string) Format {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json":
		return FormatJSON
	case ".yaml", ".yml":
		return FormatYAML
	}
	return ""
}

// IDFor derives the compliance id from a document path: the base name
// without its extension.
func IDFor(name string) string {
	base := filepath.Base(name)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

type rawFramework struct {
	Framework    string           `json:"Framework" yaml:"Framework"`
	Name         string           `json:"Name,omitempty" yaml:"Name"`
	Version      string           `json:"Version" yaml:"Version"`
	Provider     string           `json:"Provider" yaml:"Provider"`
	Description  string           `json:"Description" yaml:"Description"`
	Requirements []rawRequirement `json:"Requirements" yaml:"Requirements"`
}

type rawRequirement struct {
	ID            string         `json:"Id" yaml:"Id"`
	Name          string         `json:"Name,omitempty" yaml:"Name"`
	Description   string         `json:"Description" yaml:"Description"`
	Checks        []string       `json:"Checks" yaml:"Checks"`
	Attributes    []rawAttribute `json:"Attributes" yaml:"Attributes"`
	Tactics       []string       `json:"Tactics,omitempty" yaml:"Tactics"`
	SubTechniques []string       `json:"SubTechniques,omitempty" yaml:"SubTechniques"`
	Platforms     []string       `json:"Platforms,omitempty" yaml:"Platforms"`
	TechniqueURL  string         `json:"TechniqueURL,omitempty" yaml:"TechniqueURL"`
}

func (r *rawRequirement) hasTechnique() bool {
	return len(r.Tactics)+len(r.SubTechniques)+len(r.Platforms) > 0 || r.TechniqueURL != ""
}

// Parse decodes and validates one framework document. id becomes the
// framework's compliance id.
func Parse(data []byte, format Format, id string) (*Framework, error) {
	invalid := func(msg string) error {
		return &ValidationError{Source: id, Problems: []Problem{{Path: "$", Message: msg}}}
	}
	if id == "" {
		return nil, invalid("missing compliance id")
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, invalid("document is empty")
	}

	var raw rawFramework
	switch format {
	case FormatJSON:
		if err := jsonutil.UnmarshalStrict(data, &raw); err != nil {
			return nil, invalid(err.Error())
		}
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&raw); err != nil {
			if errors.Is(err, io.EOF) {
				return nil, invalid("document is empty")
			}
			return nil, invalid(err.Error())
		}
	default:
		return nil, invalid(fmt.Sprintf("unsupported format %q", format))
	}
	return build(id, &raw)
}

func build(id string, raw *rawFramework) (*Framework, error) {
	var problems []Problem
	fail := func(path, format string, args ...any) {
		problems = append(problems, Problem{Path: path, Message: fmt.Sprintf(format, args...)})
	}

	if strings.TrimSpace(raw.Framework) == "" {
		fail("Framework", "required")
	}
	if strings.TrimSpace(raw.Provider) == "" {
		fail("Provider", "required")
	}
	if len(raw.Requirements) == 0 {
		fail("Requirements", "at least one requirement is required")
	}

	fw := &Framework{
		ID:          id,
		Name:        raw.Framework,
		Version:     raw.Version,
		Provider:    raw.Provider,
		Description: raw.Description,
		Schema:      SchemaFor(raw.Framework),
		byID:        make(map[string]*Requirement, len(raw.Requirements)),
	}

	for i := range raw.Requirements {
		rr := &raw.Requirements[i]
		path := fmt.Sprintf("Requirements[%d]", i)
		if strings.TrimSpace(rr.ID) == "" {
			fail(path+".Id", "required")
			continue
		}
		if _, dup := fw.byID[rr.ID]; dup {
			fail(path+".Id", "duplicate requirement id %q", rr.ID)
			continue
		}

		req := &Requirement{
			ID:          rr.ID,
			Name:        rr.Name,
			Description: rr.Description,
			Checks:      []string{},
		}
		seen := make(map[string]bool, len(rr.Checks))
		for j, c := range rr.Checks {
			if strings.TrimSpace(c) == "" {
				fail(fmt.Sprintf("%s.Checks[%d]", path, j), "empty check id")
				continue
			}
			if !seen[c] {
				seen[c] = true
				req.Checks = append(req.Checks, c)
			}
		}

		for j := range rr.Attributes {
			attr, err := decodeAttribute(fw.Schema, &rr.Attributes[j])
			if err != nil {
				fail(fmt.Sprintf("%s.Attributes[%d]", path, j), "%v", err)
				continue
			}
			req.Attributes = append(req.Attributes, attr)
		}

		if rr.hasTechnique() {
			if fw.Schema != SchemaMITRE {
				fail(path, "technique fields are only valid in MITRE-ATTACK frameworks")
			} else {
				req.Technique = &Technique{
					Tactics:       rr.Tactics,
					SubTechniques: rr.SubTechniques,
					Platforms:     rr.Platforms,
					URL:           rr.TechniqueURL,
				}
			}
		}

		fw.byID[req.ID] = req
		fw.Requirements = append(fw.Requirements, req)
	}

	if len(problems) > 0 {
		return nil, &ValidationError{Source: id, Problems: problems}
	}
	return fw, nil
}

// rawAttribute holds one attribute record undecoded until the framework's
// schema is known. YAML records stay nodes so scalars such as `Section: 1`
// decode into string fields.
type rawAttribute struct {
	data []byte
	node *yaml.Node
}

func (r *rawAttribute) UnmarshalJSON(data []byte) error {
	r.data = append([]byte(nil), data...)
	return nil
}

func (r *rawAttribute) UnmarshalYAML(node *yaml.Node) error {
	r.node = node
	return nil
}

// decodeInto decodes the record into v, rejecting unknown fields.
func (r *rawAttribute) decodeInto(v any) error {
	if r.node == nil {
		return jsonutil.UnmarshalStrict(r.data, v)
	}
	if r.node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: attribute must be a mapping", r.node.Line)
	}
	data, err := yaml.Marshal(r.node)
	if err != nil {
		return err
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// decodeAttribute converts a raw attribute record into the schema's
// attribute type.
func decodeAttribute(schema Schema, raw *rawAttribute) (Attribute, error) {
	switch schema {
	case SchemaCIS:
		var a CISAttribute
		err := raw.decodeInto(&a)
		return a, err
	case SchemaISO27001:
		var a ISO27001Attribute
		err := raw.decodeInto(&a)
		return a, err
	case SchemaMITRE:
		var a MITREAttribute
		err := raw.decodeInto(&a)
		return a, err
	default:
		var a GenericAttribute
		err := raw.decodeInto(&a)
		return a, err
	}
}
