package aggregate

import (
	"slices"
	"time"

	"github.com/complyscope/complyscope/pkg/compliance"
	"github.com/complyscope/complyscope/pkg/finding"
)

// ComplianceOverview is the per-framework rollup of one scan.
type ComplianceOverview struct {
	ScanID             string   `json:"scan_id"`
	ComplianceID       string   `json:"compliance_id"`
	Framework          string   `json:"framework"`
	Version            string   `json:"version"`
	Provider           string   `json:"provider"`
	Description        string   `json:"description,omitempty"`
	RequirementsPassed int      `json:"requirements_passed"`
	RequirementsFailed int      `json:"requirements_failed"`
	RequirementsManual int      `json:"requirements_manual"`
	TotalRequirements  int      `json:"total_requirements"`
	Regions            []string `json:"regions"`
}

// RequirementOverview is the status of one requirement in one scan.
type RequirementOverview struct {
	ScanID         string         `json:"scan_id"`
	ComplianceID   string         `json:"compliance_id"`
	Framework      string         `json:"framework"`
	Version        string         `json:"version"`
	RequirementID  string         `json:"requirement_id"`
	Name           string         `json:"name,omitempty"`
	Description    string         `json:"description"`
	Status         finding.Status `json:"status"`
	Manual         bool           `json:"manual"`
	PassedFindings int            `json:"passed_findings"`
	FailedFindings int            `json:"failed_findings"`
	MutedFindings  int            `json:"muted_findings"`
	TotalFindings  int            `json:"total_findings"`
	Regions        []string       `json:"regions,omitempty"`
	Checks         []string       `json:"checks"`
}

// RowBase holds the columns shared by every export row.
type RowBase struct {
	ComplianceID           string         `json:"ComplianceId"`
	Provider               string         `json:"Provider"`
	Description            string         `json:"Description"`
	AccountID              string         `json:"AccountId"`
	Region                 string         `json:"Region"`
	AssessmentDate         time.Time      `json:"AssessmentDate,omitzero"`
	RequirementID          string         `json:"Requirements_Id"`
	RequirementDescription string         `json:"Requirements_Description"`
	RequirementName        string         `json:"Requirements_Name,omitempty"`
	Status                 finding.Status `json:"Status"`
	StatusExtended         string         `json:"StatusExtended"`
	ResourceID             string         `json:"ResourceId"`
	ResourceName           string         `json:"ResourceName"`
	CheckID                string         `json:"CheckId"`
	Muted                  bool           `json:"Muted"`
	Framework              string         `json:"Framework"`
	Version                string         `json:"Version"`
}

// Row is one compliance export record. The set of implementations is
// closed: CISRow, ISO27001Row, MITRERow and GenericRow, one per
// compliance.Schema.
type Row interface {
	Base() *RowBase
	Schema() compliance.Schema
	isRow()
}

// CISRow is an export row of a CIS benchmark.
type CISRow struct {
	RowBase
	Attributes compliance.CISAttribute `json:"Requirements_Attributes"`
}

func (r *CISRow) Base() *RowBase            { return &r.RowBase }
func (r *CISRow) Schema() compliance.Schema { return compliance.SchemaCIS }
func (r *CISRow) isRow()                    {}

// ISO27001Row is an export row of an ISO 27001 framework.
type ISO27001Row struct {
	RowBase
	Attributes compliance.ISO27001Attribute `json:"Requirements_Attributes"`
}

func (r *ISO27001Row) Base() *RowBase            { return &r.RowBase }
func (r *ISO27001Row) Schema() compliance.Schema { return compliance.SchemaISO27001 }
func (r *ISO27001Row) isRow()                    {}

// MITRERow is an export row of a MITRE ATT&CK mapping. Technique columns
// come from the requirement.
type MITRERow struct {
	RowBase
	Tactics       []string                  `json:"Requirements_Tactics,omitempty"`
	SubTechniques []string                  `json:"Requirements_SubTechniques,omitempty"`
	Platforms     []string                  `json:"Requirements_Platforms,omitempty"`
	TechniqueURL  string                    `json:"Requirements_TechniqueURL,omitempty"`
	Attributes    compliance.MITREAttribute `json:"Requirements_Attributes"`
}

func (r *MITRERow) Base() *RowBase            { return &r.RowBase }
func (r *MITRERow) Schema() compliance.Schema { return compliance.SchemaMITRE }
func (r *MITRERow) isRow()                    {}

// GenericRow is an export row of any other framework.
type GenericRow struct {
	RowBase
	Attributes compliance.GenericAttribute `json:"Requirements_Attributes"`
}

func (r *GenericRow) Base() *RowBase            { return &r.RowBase }
func (r *GenericRow) Schema() compliance.Schema { return compliance.SchemaGeneric }
func (r *GenericRow) isRow()                    {}

// newRow builds the row variant matching attr.
func newRow(base RowBase, req *compliance.Requirement, attr compliance.Attribute) Row {
	switch a := attr.(type) {
	case compliance.CISAttribute:
		return &CISRow{RowBase: base, Attributes: a}
	case compliance.ISO27001Attribute:
		return &ISO27001Row{RowBase: base, Attributes: a}
	case compliance.MITREAttribute:
		row := &MITRERow{RowBase: base, Attributes: a}
		if t := req.Technique; t != nil {
			row.Tactics = t.Tactics
			row.SubTechniques = t.SubTechniques
			row.Platforms = t.Platforms
			row.TechniqueURL = t.URL
		}
		return row
	case compliance.GenericAttribute:
		return &GenericRow{RowBase: base, Attributes: a}
	}
	return nil
}

// CloneRow returns a copy of r that shares no memory with it.
func CloneRow(r Row) Row {
	switch v := r.(type) {
	case *CISRow:
		cp := *v
		return &cp
	case *ISO27001Row:
		cp := *v
		return &cp
	case *MITRERow:
		cp := *v
		cp.Tactics = slices.Clone(v.Tactics)
		cp.SubTechniques = slices.Clone(v.SubTechniques)
		cp.Platforms = slices.Clone(v.Platforms)
		return &cp
	case *GenericRow:
		cp := *v
		return &cp
	}
	return r
}

// Result is the outcome of aggregating one scan.
type Result struct {
	ScanID       string                `json:"scan_id"`
	Overviews    []ComplianceOverview  `json:"overviews"`
	Requirements []RequirementOverview `json:"requirements"`
	Rows         []Row                 `json:"rows"`
}

// Overview returns the overview of one framework.
func (r *Result) Overview(complianceID string) (ComplianceOverview, bool) {
	for _, o := range r.Overviews {
		if o.ComplianceID == complianceID {
			return o, true
		}
	}
	return ComplianceOverview{}, false
}

// RequirementsOf returns the requirement overviews of one framework in
// document order.
func (r *Result) RequirementsOf(complianceID string) []RequirementOverview {
	var out []RequirementOverview
	for _, req := range r.Requirements {
		if req.ComplianceID == complianceID {
			out = append(out, req)
		}
	}
	return out
}

// RowsOf returns the export rows of one framework.
func (r *Result) RowsOf(complianceID string) []Row {
	var out []Row
	for _, row := range r.Rows {
		if row.Base().ComplianceID == complianceID {
			out = append(out, row)
		}
	}
	return out
}
