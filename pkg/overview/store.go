// Package overview stores aggregated compliance results per scan and
// answers the overview queries: framework overviews filtered by scan,
// requirement overviews of one framework, and scan metadata.
//
// Results are replaced wholesale per scan, so recomputing a scan never
// leaves stale requirement rows behind.
package overview

import (
	"slices"
	"sort"
	"sync"

	"github.com/complyscope/complyscope/pkg/aggregate"
	"github.com/complyscope/complyscope/pkg/compliance"
)

// Filter selects framework overviews. ScanID is required.
type Filter struct {
	ScanID       string `json:"scan_id"`
	ComplianceID string `json:"compliance_id,omitempty"`
	Framework    string `json:"framework,omitempty"`
	Version      string `json:"version,omitempty"`
	Region       string `json:"region,omitempty"`
}

func (f Filter) matches(ov *aggregate.ComplianceOverview) bool {
	if f.ComplianceID != "" && ov.ComplianceID != f.ComplianceID {
		return false
	}
	if f.Framework != "" && ov.Framework != f.Framework {
		return false
	}
	if f.Version != "" && ov.Version != f.Version {
		return false
	}
	if f.Region != "" && !contains(ov.Regions, f.Region) {
		return false
	}
	return true
}

// Metadata summarises a scan for filter pickers.
type Metadata struct {
	ScanID  string   `json:"scan_id"`
	Regions []string `json:"regions"`
}

// Store keeps the latest result of every scan. It is safe for concurrent use.
type Store struct {
	mu    sync.RWMutex
	scans map[string]*aggregate.Result
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{scans: make(map[string]*aggregate.Result)}
}

// Replace stores res as the complete result of res.ScanID, discarding any
// previous result for that scan.
func (s *Store) Replace(res *aggregate.Result) error {
	if err := requireFilters("scan_id", res.ScanID); err != nil {
		return err
	}
	cp := &aggregate.Result{
		ScanID:       res.ScanID,
		Overviews:    make([]aggregate.ComplianceOverview, len(res.Overviews)),
		Requirements: make([]aggregate.RequirementOverview, len(res.Requirements)),
		Rows:         cloneRows(res.Rows),
	}
	for i, ov := range res.Overviews {
		ov.Regions = slices.Clone(ov.Regions)
		cp.Overviews[i] = ov
	}
	for i, r := range res.Requirements {
		cp.Requirements[i] = cloneRequirement(r)
	}

	s.mu.Lock()
	s.scans[res.ScanID] = cp
	s.mu.Unlock()
	return nil
}

// Delete forgets a scan.
func (s *Store) Delete(scanID string) {
	s.mu.Lock()
	delete(s.scans, scanID)
	s.mu.Unlock()
}

// Scans returns the stored scan ids in sorted order.
func (s *Store) Scans() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.scans))
	for id := range s.scans {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Overviews returns the framework overviews matching f, ordered by
// compliance id. An unknown scan yields no rows.
func (s *Store) Overviews(f Filter) ([]aggregate.ComplianceOverview, error) {
	if err := requireFilters("scan_id", f.ScanID); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	res, ok := s.scans[f.ScanID]
	if !ok {
		return []aggregate.ComplianceOverview{}, nil
	}
	out := []aggregate.ComplianceOverview{}
	for i := range res.Overviews {
		if f.matches(&res.Overviews[i]) {
			ov := res.Overviews[i]
			ov.Regions = slices.Clone(ov.Regions)
			out = append(out, ov)
		}
	}
	return out, nil
}

// Requirements returns the requirement overviews of one framework in one
// scan, in document order. Both filters are required.
func (s *Store) Requirements(scanID, complianceID string) ([]aggregate.RequirementOverview, error) {
	if err := requireFilters("scan_id", scanID, "compliance_id", complianceID); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	res, ok := s.scans[scanID]
	if !ok {
		return []aggregate.RequirementOverview{}, nil
	}
	out := []aggregate.RequirementOverview{}
	for _, r := range res.Requirements {
		if r.ComplianceID == complianceID {
			out = append(out, cloneRequirement(r))
		}
	}
	return out, nil
}

// Rows returns the export rows of one framework in one scan. Both
// filters are required.
func (s *Store) Rows(scanID, complianceID string) ([]aggregate.Row, error) {
	if err := requireFilters("scan_id", scanID, "compliance_id", complianceID); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	res, ok := s.scans[scanID]
	if !ok {
		return nil, nil
	}
	return cloneRows(res.RowsOf(complianceID)), nil
}

// Metadata returns the sorted union of regions seen in a scan.
func (s *Store) Metadata(scanID string) (Metadata, error) {
	if err := requireFilters("scan_id", scanID); err != nil {
		return Metadata{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	md := Metadata{ScanID: scanID, Regions: []string{}}
	res, ok := s.scans[scanID]
	if !ok {
		return md, nil
	}
	seen := make(map[string]bool)
	for _, ov := range res.Overviews {
		for _, r := range ov.Regions {
			if !seen[r] {
				seen[r] = true
				md.Regions = append(md.Regions, r)
			}
		}
	}
	sort.Strings(md.Regions)
	return md, nil
}

// Attributes answers the attributes query for one framework of catalog.
// The compliance id is required.
func Attributes(catalog *compliance.Catalog, complianceID string) ([]compliance.RequirementAttributes, error) {
	if err := requireFilters("compliance_id", complianceID); err != nil {
		return nil, err
	}
	return catalog.Attributes(complianceID)
}

func cloneRequirement(r aggregate.RequirementOverview) aggregate.RequirementOverview {
	r.Regions = slices.Clone(r.Regions)
	r.Checks = slices.Clone(r.Checks)
	return r
}

func cloneRows(rows []aggregate.Row) []aggregate.Row {
	out := make([]aggregate.Row, len(rows))
	for i, row := range rows {
		out[i] = aggregate.CloneRow(row)
	}
	return out
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
