package aggregate

import (
	"cmp"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/complyscope/complyscope/pkg/compliance"
	"github.com/complyscope/complyscope/pkg/finding"
)

// Manual export row values.
const (
	ManualResourceID     = "manual_check"
	ManualResourceName   = "Manual check"
	ManualStatusExtended = "Manual check"
	ManualCheckID        = "manual"
)

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithAssessmentDate stamps every export row. Rows carry no date by
// default so repeated runs produce identical output.
func WithAssessmentDate(t time.Time) Option {
	return func(a *Aggregator) { a.assessed = t }
}

type reqState struct {
	req     *compliance.Requirement
	passed  int
	failed  int
	muted   int
	total   int
	regions map[string]struct{}
	rows    []Row
}

type fwState struct {
	fw      *compliance.Framework
	reqs    []*reqState
	byID    map[string]*reqState
	regions map[string]struct{}
}

// Aggregator accumulates the findings of one scan. Status is only derived
// by Result, after every finding has been added. An Aggregator is not
// safe for concurrent use.
type Aggregator struct {
	catalog    *compliance.Catalog
	scanID     string
	assessed   time.Time
	frameworks []*fwState
	byID       map[string]*fwState
	count      int
}

// New returns an Aggregator for one scan over catalog.
func New(catalog *compliance.Catalog, scanID string, opts ...Option) *Aggregator {
	a := &Aggregator{
		catalog: catalog,
		scanID:  scanID,
		byID:    make(map[string]*fwState),
	}
	for _, o := range opts {
		o(a)
	}
	for _, fw := range catalog.Frameworks() {
		st := &fwState{
			fw:      fw,
			byID:    make(map[string]*reqState, len(fw.Requirements)),
			regions: make(map[string]struct{}),
		}
		for _, req := range fw.Requirements {
			rs := &reqState{req: req, regions: make(map[string]struct{})}
			st.reqs = append(st.reqs, rs)
			st.byID[req.ID] = rs
		}
		a.frameworks = append(a.frameworks, st)
		a.byID[fw.ID] = st
	}
	return a
}

// Len returns the number of findings added.
func (a *Aggregator) Len() int {
	return a.count
}

// Add folds one finding into the batch. Duplicate findings count as
// independent contributions.
func (a *Aggregator) Add(f finding.Finding) {
	a.count++
	for _, st := range a.frameworks {
		for _, rs := range a.requirementsFor(st, &f) {
			rs.total++
			switch {
			case f.Muted:
				rs.muted++
			case f.Status == finding.StatusFail:
				rs.failed++
			}
			if f.Status == finding.StatusPass {
				rs.passed++
			}
			if f.Region != "" {
				rs.regions[f.Region] = struct{}{}
				st.regions[f.Region] = struct{}{}
			}
			rs.rows = append(rs.rows, rowsFor(a.findingBase(st.fw, rs.req, &f), rs.req)...)
		}
	}
}

// requirementsFor resolves the requirements a finding maps to. A mapping
// precomputed on the finding wins over the catalog index; ids unknown to
// the framework are ignored.
func (a *Aggregator) requirementsFor(st *fwState, f *finding.Finding) []*reqState {
	ids, ok := f.Compliance[st.fw.ID]
	if !ok {
		ids = a.catalog.RequirementsForCheck(st.fw.ID, f.CheckID)
	}
	if len(ids) == 0 {
		return nil
	}
	out := make([]*reqState, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		rs, ok := st.byID[id]
		if !ok || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, rs)
	}
	return out
}

func (a *Aggregator) findingBase(fw *compliance.Framework, req *compliance.Requirement, f *finding.Finding) RowBase {
	provider := f.Provider
	if provider == "" {
		provider = strings.ToLower(fw.Provider)
	}
	return RowBase{
		ComplianceID:           fw.ID,
		Provider:               provider,
		Description:            fw.Description,
		AccountID:              f.AccountUID,
		Region:                 f.Region,
		AssessmentDate:         a.assessed,
		RequirementID:          req.ID,
		RequirementDescription: req.Description,
		RequirementName:        req.Name,
		Status:                 f.Status,
		StatusExtended:         f.StatusExtended,
		ResourceID:             f.ResourceUID,
		ResourceName:           f.ResourceName,
		CheckID:                f.CheckID,
		Muted:                  f.Muted,
		Framework:              fw.Name,
		Version:                fw.Version,
	}
}

func (a *Aggregator) manualBase(fw *compliance.Framework, req *compliance.Requirement) RowBase {
	return RowBase{
		ComplianceID:           fw.ID,
		Provider:               strings.ToLower(fw.Provider),
		Description:            fw.Description,
		AssessmentDate:         a.assessed,
		RequirementID:          req.ID,
		RequirementDescription: req.Description,
		RequirementName:        req.Name,
		Status:                 finding.StatusManual,
		StatusExtended:         ManualStatusExtended,
		ResourceID:             ManualResourceID,
		ResourceName:           ManualResourceName,
		CheckID:                ManualCheckID,
		Framework:              fw.Name,
		Version:                fw.Version,
	}
}

// Status derives a requirement status from its finding tallies.
func (rs *reqState) status() finding.Status {
	switch {
	case rs.req.IsManual():
		return finding.StatusManual
	case rs.failed > 0:
		return finding.StatusFail
	case rs.passed > 0:
		return finding.StatusPass
	default:
		return finding.StatusManual
	}
}

// Result derives statuses and builds the output. It does not modify the
// Aggregator, so calling it twice yields identical results.
func (a *Aggregator) Result() *Result {
	res := &Result{
		ScanID:       a.scanID,
		Overviews:    make([]ComplianceOverview, 0, len(a.frameworks)),
		Requirements: []RequirementOverview{},
		Rows:         []Row{},
	}
	for _, st := range a.frameworks {
		fw := st.fw
		ov := ComplianceOverview{
			ScanID:            a.scanID,
			ComplianceID:      fw.ID,
			Framework:         fw.Name,
			Version:           fw.Version,
			Provider:          fw.Provider,
			Description:       fw.Description,
			TotalRequirements: len(fw.Requirements),
			Regions:           sortedKeys(st.regions),
		}
		var manualRows []Row
		for _, rs := range st.reqs {
			status := rs.status()
			switch status {
			case finding.StatusPass:
				ov.RequirementsPassed++
			case finding.StatusFail:
				ov.RequirementsFailed++
			default:
				ov.RequirementsManual++
			}
			res.Requirements = append(res.Requirements, RequirementOverview{
				ScanID:         a.scanID,
				ComplianceID:   fw.ID,
				Framework:      fw.Name,
				Version:        fw.Version,
				RequirementID:  rs.req.ID,
				Name:           rs.req.Name,
				Description:    rs.req.Description,
				Status:         status,
				Manual:         rs.req.IsManual(),
				PassedFindings: rs.passed,
				FailedFindings: rs.failed,
				MutedFindings:  rs.muted,
				TotalFindings:  rs.total,
				Regions:        sortedKeys(rs.regions),
				Checks:         append([]string{}, rs.req.Checks...),
			})
			rows := slices.Clone(rs.rows)
			slices.SortStableFunc(rows, compareRows)
			res.Rows = append(res.Rows, rows...)

			if rs.req.IsManual() {
				manualRows = append(manualRows, rowsFor(a.manualBase(fw, rs.req), rs.req)...)
			}
		}
		res.Rows = append(res.Rows, manualRows...)
		res.Overviews = append(res.Overviews, ov)
	}
	return res
}

// Aggregate reduces findings for scanID against catalog.
func Aggregate(catalog *compliance.Catalog, findings []finding.Finding, scanID string, opts ...Option) *Result {
	a := New(catalog, scanID, opts...)
	for _, f := range findings {
		a.Add(f)
	}
	return a.Result()
}

// rowsFor builds one row per requirement attribute. A requirement without
// attributes still gets a single GenericRow.
func rowsFor(base RowBase, req *compliance.Requirement) []Row {
	if len(req.Attributes) == 0 {
		return []Row{&GenericRow{RowBase: base}}
	}
	rows := make([]Row, 0, len(req.Attributes))
	for _, attr := range req.Attributes {
		if row := newRow(base, req, attr); row != nil {
			rows = append(rows, row)
		}
	}
	return rows
}

// compareRows orders the finding rows of one requirement independently
// of the order findings arrived in. Rows of the same finding keep their
// attribute order.
func compareRows(a, b Row) int {
	x, y := a.Base(), b.Base()
	return cmp.Or(
		cmp.Compare(x.CheckID, y.CheckID),
		cmp.Compare(x.ResourceID, y.ResourceID),
		cmp.Compare(x.Region, y.Region),
		cmp.Compare(x.AccountID, y.AccountID),
		cmp.Compare(x.Status, y.Status),
		compareBool(x.Muted, y.Muted),
		cmp.Compare(x.ResourceName, y.ResourceName),
		cmp.Compare(x.StatusExtended, y.StatusExtended),
		cmp.Compare(x.Provider, y.Provider),
	)
}

func compareBool(a, b bool) int {
	switch {
	case a == b:
		return 0
	case !a:
		return -1
	default:
		return 1
	}
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
