package compliance

import (
	"fmt"
	"sort"

	"github.com/complyscope/complyscope/pkg/finding"
)

// Ref locates a requirement inside the catalog.
type Ref struct {
	Framework   string `json:"framework"`
	Requirement string `json:"requirement"`
}

// Catalog is an immutable set of frameworks with a reverse index from
// check id to the requirements that reference it.
type Catalog struct {
	frameworks map[string]*Framework
	ids        []string
	index      map[string][]Ref
}

// NewCatalog indexes frameworks. Framework ids must be unique.
func NewCatalog(frameworks ...*Framework) (*Catalog, error) {
	c := &Catalog{
		frameworks: make(map[string]*Framework, len(frameworks)),
		index:      make(map[string][]Ref),
	}
	for _, fw := range frameworks {
		if fw == nil {
			continue
		}
		if _, dup := c.frameworks[fw.ID]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateFramework, fw.ID)
		}
		c.frameworks[fw.ID] = fw
		c.ids = append(c.ids, fw.ID)
	}
	sort.Strings(c.ids)

	for _, id := range c.ids {
		fw := c.frameworks[id]
		for _, req := range fw.Requirements {
			for _, check := range req.Checks {
				c.index[check] = append(c.index[check], Ref{Framework: id, Requirement: req.ID})
			}
		}
	}
	return c, nil
}

// Len returns the number of frameworks.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.ids)
}

// IDs returns the compliance ids in sorted order.
func (c *Catalog) IDs() []string {
	if c == nil {
		return nil
	}
	return append([]string(nil), c.ids...)
}

// Frameworks returns every framework sorted by id.
func (c *Catalog) Frameworks() []*Framework {
	if c == nil {
		return nil
	}
	out := make([]*Framework, len(c.ids))
	for i, id := range c.ids {
		out[i] = c.frameworks[id]
	}
	return out
}

// Framework looks up a framework by compliance id.
func (c *Catalog) Framework(id string) (*Framework, bool) {
	if c == nil {
		return nil, false
	}
	fw, ok := c.frameworks[id]
	return fw, ok
}

// RefsForCheck returns every (framework, requirement) pair that
// references checkID, ordered by framework id and document order.
func (c *Catalog) RefsForCheck(checkID string) []Ref {
	if c == nil {
		return nil
	}
	return append([]Ref(nil), c.index[checkID]...)
}

// RequirementsForCheck returns the requirement ids of one framework that
// reference checkID, in document order.
func (c *Catalog) RequirementsForCheck(frameworkID, checkID string) []string {
	if c == nil {
		return nil
	}
	var out []string
	for _, ref := range c.index[checkID] {
		if ref.Framework == frameworkID {
			out = append(out, ref.Requirement)
		}
	}
	return out
}

// Annotate fills f.Compliance with every framework requirement that
// references the finding's check. Frameworks already present in
// f.Compliance are left untouched.
func (c *Catalog) Annotate(f *finding.Finding) {
	refs := c.RefsForCheck(f.CheckID)
	if len(refs) == 0 {
		return
	}
	if f.Compliance == nil {
		f.Compliance = make(map[string][]string)
	}
	preset := make(map[string]bool, len(f.Compliance))
	for fw := range f.Compliance {
		preset[fw] = true
	}
	for _, ref := range refs {
		if preset[ref.Framework] {
			continue
		}
		f.Compliance[ref.Framework] = append(f.Compliance[ref.Framework], ref.Requirement)
	}
}

// RequirementAttributes is one row of the attributes query.
type RequirementAttributes struct {
	Framework   string      `json:"framework"`
	Version     string      `json:"version"`
	ID          string      `json:"id"`
	Name        string      `json:"name,omitempty"`
	Description string      `json:"description"`
	Checks      []string    `json:"checks"`
	Attributes  []Attribute `json:"attributes"`
	Technique   *Technique  `json:"technique,omitempty"`
}

// Attributes lists the attributes and check ids of every requirement of
// one framework, in document order.
func (c *Catalog) Attributes(complianceID string) ([]RequirementAttributes, error) {
	fw, ok := c.Framework(complianceID)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFramework, complianceID)
	}
	out := make([]RequirementAttributes, 0, len(fw.Requirements))
	for _, r := range fw.Requirements {
		out = append(out, RequirementAttributes{
			Framework:   fw.Name,
			Version:     fw.Version,
			ID:          r.ID,
			Name:        r.Name,
			Description: r.Description,
			Checks:      append([]string{}, r.Checks...),
			Attributes:  append([]Attribute(nil), r.Attributes...),
			Technique:   r.Technique,
		})
	}
	return out, nil
}
