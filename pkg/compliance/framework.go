package compliance

// Requirement is a single control of a framework.
type Requirement struct {
	ID          string      `json:"id"`
	Name        string      `json:"name,omitempty"`
	Description string      `json:"description"`
	Checks      []string    `json:"checks"`
	Attributes  []Attribute `json:"attributes"`
	Technique   *Technique  `json:"technique,omitempty"`
}

// IsManual reports whether the requirement has no automated checks.
func (r *Requirement) IsManual() bool {
	return len(r.Checks) == 0
}

// HasCheck reports whether checkID is mapped to the requirement.
func (r *Requirement) HasCheck(checkID string) bool {
	for _, c := range r.Checks {
		if c == checkID {
			return true
		}
	}
	return false
}

// Framework is a loaded compliance framework. Frameworks are shared
// read-only between evaluations and must not be modified after loading.
type Framework struct {
	// ID is the compliance id, derived from the document file name.
	ID           string         `json:"id"`
	Name         string         `json:"framework"`
	Version      string         `json:"version"`
	Provider     string         `json:"provider"`
	Description  string         `json:"description"`
	Schema       Schema         `json:"schema"`
	Requirements []*Requirement `json:"requirements"`

	byID map[string]*Requirement
}

// Requirement returns the requirement with the given id.
func (f *Framework) Requirement(id string) (*Requirement, bool) {
	r, ok := f.byID[id]
	return r, ok
}

// ManualCount returns the number of manual requirements.
func (f *Framework) ManualCount() int {
	n := 0
	for _, r := range f.Requirements {
		if r.IsManual() {
			n++
		}
	}
	return n
}

// Checks returns the distinct check ids referenced by the framework in
// first-seen order.
func (f *Framework) Checks() []string {
	seen := make(map[string]bool)
	var out []string
	for _, r := range f.Requirements {
		for _, c := range r.Checks {
			if !seen[c] {
				seen[c] = true
				out = append(out, c)
			}
		}
	}
	return out
}
