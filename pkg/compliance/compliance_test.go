package compliance

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/complyscope/complyscope/pkg/finding"
)

func loadTestCatalog(t *testing.T) *Catalog {
	t.Helper()
	cat, err := LoadDir("testdata", DirOptions{})
	require.NoError(t, err)
	return cat
}

func TestSchemaFor(t *testing.T) {
	tests := map[string]Schema{
		"CIS":             SchemaCIS,
		"cis":             SchemaCIS,
		"ISO27001":        SchemaISO27001,
		"ISO27001-2022":   SchemaISO27001,
		"MITRE-ATTACK":    SchemaMITRE,
		"ENS":             SchemaGeneric,
		"Custom-Baseline": SchemaGeneric,
		"":                SchemaGeneric,
	}
	for in, want := range tests {
		assert.Equal(t, want, SchemaFor(in), in)
	}
}

func TestLoadFile_CIS(t *testing.T) {
	fw, err := LoadFile(filepath.Join("testdata", "cis_2.0_aws.json"))
	require.NoError(t, err)

	assert.Equal(t, "cis_2.0_aws", fw.ID)
	assert.Equal(t, "CIS", fw.Name)
	assert.Equal(t, "2.0", fw.Version)
	assert.Equal(t, SchemaCIS, fw.Schema)
	require.Len(t, fw.Requirements, 4)
	assert.Equal(t, 1, fw.ManualCount())

	manual, ok := fw.Requirement("1.1")
	require.True(t, ok)
	assert.True(t, manual.IsManual())
	assert.NotNil(t, manual.Checks)

	req, ok := fw.Requirement("2.1.1")
	require.True(t, ok)
	require.Len(t, req.Attributes, 1)
	attr, ok := req.Attributes[0].(CISAttribute)
	require.True(t, ok)
	assert.Equal(t, "2.1. Simple Storage Service (S3)", attr.SubSection)
	assert.Equal(t, "Level 2", attr.Profile)
	assert.True(t, req.HasCheck("s3_bucket_secure_transport_policy"))
}

func TestLoadFile_ISO27001YAML(t *testing.T) {
	fw, err := LoadFile(filepath.Join("testdata", "iso27001_2013_kubernetes.yaml"))
	require.NoError(t, err)

	assert.Equal(t, SchemaISO27001, fw.Schema)
	assert.Equal(t, "2013", fw.Version)
	req, ok := fw.Requirement("A.12.4.1")
	require.True(t, ok)
	assert.True(t, req.IsManual())
	require.Len(t, req.Attributes, 2)
	attr := req.Attributes[1].(ISO27001Attribute)
	assert.Equal(t, "A.12.4", attr.ObjetiveID)
	assert.Equal(t, "Retain audit logs.", attr.CheckSummary)
}

func TestLoadFile_MITRE(t *testing.T) {
	fw, err := LoadFile(filepath.Join("testdata", "mitre_attack_aws.json"))
	require.NoError(t, err)

	req, ok := fw.Requirement("T1078")
	require.True(t, ok)
	require.NotNil(t, req.Technique)
	assert.Equal(t, []string{"T1078.004"}, req.Technique.SubTechniques)
	assert.Equal(t, "https://attack.mitre.org/techniques/T1078/", req.Technique.URL)

	attr := req.Attributes[1].(MITREAttribute)
	assert.Equal(t, "Amazon GuardDuty", attr.Service())
	assert.Equal(t, []Field{
		{Name: "Service", Value: "Amazon GuardDuty"},
		{Name: "Category", Value: "Detect"},
		{Name: "Value", Value: "Partial"},
		{Name: "Comment", Value: "GuardDuty flags anomalous credential use."},
	}, attr.Fields())
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		format  Format
		input   string
		wantMsg string
	}{
		{name: "empty", format: FormatJSON, input: " ", wantMsg: "document is empty"},
		{name: "empty yaml", format: FormatYAML, input: "", wantMsg: "document is empty"},
		{name: "syntax", format: FormatJSON, input: `{"Framework":`, wantMsg: "$"},
		{name: "unknown top-level field", format: FormatJSON, input: `{"Framework":"CIS","Provider":"AWS","Bogus":1,"Requirements":[]}`, wantMsg: "Bogus"},
		{name: "unknown yaml field", format: FormatYAML, input: "Framework: CIS\nProvider: AWS\nBogus: 1\n", wantMsg: "Bogus"},
		{name: "missing framework", format: FormatYAML, input: "Provider: AWS\nRequirements: [{Id: a}]\n", wantMsg: "Framework: required"},
		{name: "missing provider", format: FormatYAML, input: "Framework: CIS\nRequirements: [{Id: a}]\n", wantMsg: "Provider: required"},
		{name: "no requirements", format: FormatYAML, input: "Framework: CIS\nProvider: AWS\n", wantMsg: "at least one requirement"},
		{name: "missing requirement id", format: FormatYAML, input: "Framework: CIS\nProvider: AWS\nRequirements: [{Description: x}]\n", wantMsg: "Requirements[0].Id: required"},
		{name: "duplicate requirement id", format: FormatYAML, input: "Framework: CIS\nProvider: AWS\nRequirements: [{Id: a}, {Id: a}]\n", wantMsg: `duplicate requirement id "a"`},
		{name: "empty check id", format: FormatYAML, input: "Framework: CIS\nProvider: AWS\nRequirements: [{Id: a, Checks: ['']}]\n", wantMsg: "Requirements[0].Checks[0]: empty check id"},
		{name: "wrong attribute schema", format: FormatYAML, input: "Framework: CIS\nProvider: AWS\nRequirements: [{Id: a, Attributes: [{Objetive_ID: x}]}]\n", wantMsg: "Requirements[0].Attributes[0]"},
		{name: "technique outside mitre", format: FormatYAML, input: "Framework: CIS\nProvider: AWS\nRequirements: [{Id: a, Tactics: [x]}]\n", wantMsg: "only valid in MITRE-ATTACK"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fw, err := Parse([]byte(tt.input), tt.format, "fw")
			assert.Nil(t, fw)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidFramework)

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, "fw", verr.Source)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestLoadFile_YAMLScalarAttributes(t *testing.T) {
	fw, err := LoadFile(filepath.Join("testdata", "numeric", "cis_1.5_aws.yaml"))
	require.NoError(t, err)

	req, ok := fw.Requirement("1.4")
	require.True(t, ok)
	require.Len(t, req.Attributes, 1)
	attr, ok := req.Attributes[0].(CISAttribute)
	require.True(t, ok)
	assert.Equal(t, "1", attr.Section)
	assert.Equal(t, "1.4", attr.SubSection)
	assert.Equal(t, "false", attr.DefaultValue)

	dir := t.TempDir()
	data, err := os.ReadFile(filepath.Join("testdata", "numeric", "cis_1.5_aws.yaml"))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "cis_1.5_aws.yaml"), data, 0o600))
	cat, err := LoadDir(dir, DirOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"cis_1.5_aws"}, cat.IDs())
}

func TestParse_AttributeShape(t *testing.T) {
	_, err := Parse([]byte("Framework: CIS\nProvider: AWS\nRequirements: [{Id: a, Attributes: [plain]}]\n"), FormatYAML, "fw")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "attribute must be a mapping")

	_, err = Parse([]byte(`{"Framework":"CIS","Provider":"AWS","Requirements":[{"Id":"a","Attributes":[{"Section":"1","Bogus":"x"}]}]}`), FormatJSON, "fw")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Requirements[0].Attributes[0]")
}

func TestParse_DeduplicatesChecks(t *testing.T) {
	fw, err := Parse([]byte("Framework: X\nProvider: AWS\nRequirements: [{Id: a, Checks: [c1, c2, c1]}]\n"), FormatYAML, "x")
	require.NoError(t, err)
	assert.Equal(t, []string{"c1", "c2"}, fw.Requirements[0].Checks)
	assert.Equal(t, []string{"c1", "c2"}, fw.Checks())
}

func TestLoad_UnsupportedExtension(t *testing.T) {
	_, err := Load(strings.NewReader("{}"), "framework.toml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported file type")
}

func TestIDFor(t *testing.T) {
	assert.Equal(t, "cis_2.0_aws", IDFor("/etc/frameworks/cis_2.0_aws.json"))
	assert.Equal(t, "ens_rd2022_aws", IDFor("ens_rd2022_aws.yaml"))
}

func TestLoadDir(t *testing.T) {
	cat := loadTestCatalog(t)
	assert.Equal(t, []string{"cis_2.0_aws", "custom_baseline_aws", "iso27001_2013_kubernetes", "mitre_attack_aws"}, cat.IDs())
	assert.Equal(t, 4, cat.Len())

	fws := cat.Frameworks()
	require.Len(t, fws, 4)
	assert.Equal(t, "cis_2.0_aws", fws[0].ID)
}

func TestLoadDir_Filters(t *testing.T) {
	cat, err := LoadDir("testdata", DirOptions{Provider: "aws"})
	require.NoError(t, err)
	assert.NotContains(t, cat.IDs(), "iso27001_2013_kubernetes")
	assert.Equal(t, 3, cat.Len())

	cat, err = LoadDir("testdata", DirOptions{Frameworks: []string{"mitre_attack_aws"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"mitre_attack_aws"}, cat.IDs())

	_, err = LoadDir("testdata", DirOptions{Frameworks: []string{"nist_800_53_aws"}})
	assert.ErrorIs(t, err, ErrUnknownFramework)
}

func TestLoadDir_AllOrNothing(t *testing.T) {
	dir := t.TempDir()
	good, err := os.ReadFile(filepath.Join("testdata", "custom_baseline_aws.yaml"))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "good.yaml"), good, 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.json"), []byte(`{"Framework":"CIS"}`), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("ignored"), 0o600))

	cat, err := LoadDir(dir, DirOptions{})
	assert.Nil(t, cat)
	assert.ErrorIs(t, err, ErrInvalidFramework)
	assert.Contains(t, err.Error(), "bad")

	_, err = LoadDir(filepath.Join(dir, "absent"), DirOptions{})
	assert.Error(t, err)
}

func TestNewCatalog_Duplicate(t *testing.T) {
	fw, err := LoadFile(filepath.Join("testdata", "custom_baseline_aws.yaml"))
	require.NoError(t, err)
	_, err = NewCatalog(fw, fw)
	assert.ErrorIs(t, err, ErrDuplicateFramework)
}

func TestRequirementsForCheck(t *testing.T) {
	cat := loadTestCatalog(t)

	assert.Equal(t, []string{"1.6"}, cat.RequirementsForCheck("cis_2.0_aws", "iam_root_hardware_mfa_enabled"))
	assert.Equal(t, []string{"T1078"}, cat.RequirementsForCheck("mitre_attack_aws", "iam_root_hardware_mfa_enabled"))
	assert.Empty(t, cat.RequirementsForCheck("cis_2.0_aws", "unknown_check"))
	assert.Empty(t, cat.RequirementsForCheck("unknown_fw", "iam_root_hardware_mfa_enabled"))

	assert.Equal(t, []Ref{
		{Framework: "cis_2.0_aws", Requirement: "2.1.1"},
		{Framework: "custom_baseline_aws", Requirement: "storage-1"},
	}, cat.RefsForCheck("s3_bucket_secure_transport_policy"))

	var nilCat *Catalog
	assert.Nil(t, nilCat.RequirementsForCheck("a", "b"))
}

func TestAnnotate(t *testing.T) {
	cat := loadTestCatalog(t)

	f := &finding.Finding{CheckID: "iam_user_hardware_mfa_enabled"}
	cat.Annotate(f)
	assert.Equal(t, map[string][]string{
		"cis_2.0_aws":      {"1.14"},
		"mitre_attack_aws": {"T1078"},
	}, f.Compliance)

	preset := &finding.Finding{
		CheckID:    "iam_user_hardware_mfa_enabled",
		Compliance: map[string][]string{"cis_2.0_aws": {"1.6"}},
	}
	cat.Annotate(preset)
	assert.Equal(t, []string{"1.6"}, preset.Compliance["cis_2.0_aws"], "precomputed mappings win")
	assert.Equal(t, []string{"T1078"}, preset.Compliance["mitre_attack_aws"])

	none := &finding.Finding{CheckID: "unmapped"}
	cat.Annotate(none)
	assert.Nil(t, none.Compliance)
}

func TestAttributes(t *testing.T) {
	cat := loadTestCatalog(t)

	rows, err := cat.Attributes("mitre_attack_aws")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "MITRE-ATTACK", rows[0].Framework)
	assert.Equal(t, []string{"iam_root_hardware_mfa_enabled", "iam_user_hardware_mfa_enabled"}, rows[0].Checks)
	require.NotNil(t, rows[0].Technique)
	assert.Contains(t, rows[0].Technique.Tactics, "Persistence")

	rows, err = cat.Attributes("cis_2.0_aws")
	require.NoError(t, err)
	assert.Len(t, rows, 4)
	assert.Equal(t, []string{}, rows[0].Checks)

	_, err = cat.Attributes("nope")
	assert.ErrorIs(t, err, ErrUnknownFramework)
}

func TestCatalog_ConcurrentReads(t *testing.T) {
	cat := loadTestCatalog(t)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				f := &finding.Finding{CheckID: "iam_root_hardware_mfa_enabled"}
				cat.Annotate(f)
				assert.Len(t, f.Compliance, 2)
				assert.NotEmpty(t, cat.RequirementsForCheck("cis_2.0_aws", f.CheckID))
			}
		}()
	}
	wg.Wait()
}
