package compliance

import (
	"strings"
)

// Schema identifies the attribute layout of a framework. Each schema has
// its own attribute type and its own export row shape.
type Schema string

const (
	SchemaCIS      Schema = "cis"
	SchemaISO27001 Schema = "iso27001"
	SchemaMITRE    Schema = "mitre_attack"
	SchemaGeneric  Schema = "generic"
)

// SchemaFor selects the schema from a document's Framework field.
func SchemaFor(framework string) Schema {
	name := strings.ToUpper(strings.TrimSpace(framework))
	switch {
	case name == "CIS":
		return SchemaCIS
	case strings.HasPrefix(name, "ISO27001"):
		return SchemaISO27001
	case name == "MITRE-ATTACK":
		return SchemaMITRE
	default:
		return SchemaGeneric
	}
}

// Field is one named attribute value, in document order.
type Field struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Attribute is one attribute record of a requirement. The set of
// implementations is closed: CISAttribute, ISO27001Attribute,
// MITREAttribute and GenericAttribute.
type Attribute interface {
	Schema() Schema
	// Fields lists the populated values for display.
	Fields() []Field
	isAttribute()
}

// CISAttribute is a CIS Benchmark recommendation.
type CISAttribute struct {
	Section               string `json:"Section" yaml:"Section"`
	SubSection            string `json:"SubSection,omitempty" yaml:"SubSection,omitempty"`
	Profile               string `json:"Profile" yaml:"Profile"`
	AssessmentStatus      string `json:"AssessmentStatus" yaml:"AssessmentStatus"`
	Description           string `json:"Description" yaml:"Description"`
	RationaleStatement    string `json:"RationaleStatement,omitempty" yaml:"RationaleStatement,omitempty"`
	ImpactStatement       string `json:"ImpactStatement,omitempty" yaml:"ImpactStatement,omitempty"`
	RemediationProcedure  string `json:"RemediationProcedure,omitempty" yaml:"RemediationProcedure,omitempty"`
	AuditProcedure        string `json:"AuditProcedure,omitempty" yaml:"AuditProcedure,omitempty"`
	AdditionalInformation string `json:"AdditionalInformation,omitempty" yaml:"AdditionalInformation,omitempty"`
	DefaultValue          string `json:"DefaultValue,omitempty" yaml:"DefaultValue,omitempty"`
	References            string `json:"References,omitempty" yaml:"References,omitempty"`
}

func (CISAttribute) Schema() Schema { return SchemaCIS }
func (CISAttribute) isAttribute()   {}

func (a CISAttribute) Fields() []Field {
	return fields(
		"Section", a.Section,
		"SubSection", a.SubSection,
		"Profile", a.Profile,
		"AssessmentStatus", a.AssessmentStatus,
		"Description", a.Description,
		"RationaleStatement", a.RationaleStatement,
		"ImpactStatement", a.ImpactStatement,
		"RemediationProcedure", a.RemediationProcedure,
		"AuditProcedure", a.AuditProcedure,
		"AdditionalInformation", a.AdditionalInformation,
		"DefaultValue", a.DefaultValue,
		"References", a.References,
	)
}

// ISO27001Attribute is an ISO/IEC 27001 control objective. The field
// spelling follows the published framework files.
type ISO27001Attribute struct {
	Category     string `json:"Category" yaml:"Category"`
	ObjetiveID   string `json:"Objetive_ID" yaml:"Objetive_ID"`
	ObjetiveName string `json:"Objetive_Name" yaml:"Objetive_Name"`
	CheckSummary string `json:"Check_Summary" yaml:"Check_Summary"`
}

func (ISO27001Attribute) Schema() Schema { return SchemaISO27001 }
func (ISO27001Attribute) isAttribute()   {}

func (a ISO27001Attribute) Fields() []Field {
	return fields(
		"Category", a.Category,
		"Objetive_ID", a.ObjetiveID,
		"Objetive_Name", a.ObjetiveName,
		"Check_Summary", a.CheckSummary,
	)
}

// MITREAttribute maps an ATT&CK technique to a provider service. Only the
// service field of the framework's provider is normally set.
type MITREAttribute struct {
	AWSService   string `json:"AWSService,omitempty" yaml:"AWSService,omitempty"`
	AzureService string `json:"AzureService,omitempty" yaml:"AzureService,omitempty"`
	GCPService   string `json:"GCPService,omitempty" yaml:"GCPService,omitempty"`
	Category     string `json:"Category" yaml:"Category"`
	Value        string `json:"Value" yaml:"Value"`
	Comment      string `json:"Comment" yaml:"Comment"`
}

func (MITREAttribute) Schema() Schema { return SchemaMITRE }
func (MITREAttribute) isAttribute()   {}

// Service returns whichever provider service is set.
func (a MITREAttribute) Service() string {
	switch {
	case a.AWSService != "":
		return a.AWSService
	case a.AzureService != "":
		return a.AzureService
	default:
		return a.GCPService
	}
}

func (a MITREAttribute) Fields() []Field {
	return fields(
		"Service", a.Service(),
		"Category", a.Category,
		"Value", a.Value,
		"Comment", a.Comment,
	)
}

// GenericAttribute covers every framework without a dedicated schema.
type GenericAttribute struct {
	ItemID     string `json:"ItemId,omitempty" yaml:"ItemId,omitempty"`
	Section    string `json:"Section,omitempty" yaml:"Section,omitempty"`
	SubSection string `json:"SubSection,omitempty" yaml:"SubSection,omitempty"`
	SubGroup   string `json:"SubGroup,omitempty" yaml:"SubGroup,omitempty"`
	Service    string `json:"Service,omitempty" yaml:"Service,omitempty"`
	Type       string `json:"Type,omitempty" yaml:"Type,omitempty"`
	Comment    string `json:"Comment,omitempty" yaml:"Comment,omitempty"`
}

func (GenericAttribute) Schema() Schema { return SchemaGeneric }
func (GenericAttribute) isAttribute()   {}

func (a GenericAttribute) Fields() []Field {
	return fields(
		"ItemId", a.ItemID,
		"Section", a.Section,
		"SubSection", a.SubSection,
		"SubGroup", a.SubGroup,
		"Service", a.Service,
		"Type", a.Type,
		"Comment", a.Comment,
	)
}

// Technique carries the requirement-level ATT&CK details of a MITRE
// requirement.
type Technique struct {
	Tactics       []string `json:"Tactics,omitempty"`
	SubTechniques []string `json:"SubTechniques,omitempty"`
	Platforms     []string `json:"Platforms,omitempty"`
	URL           string   `json:"TechniqueURL,omitempty"`
}

func fields(kv ...string) []Field {
	out := make([]Field, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		if kv[i+1] == "" {
			continue
		}
		out = append(out, Field{Name: kv[i], Value: kv[i+1]})
	}
	return out
}
