package ui

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/complyscope/complyscope/pkg/aggregate"
	"github.com/complyscope/complyscope/pkg/finding"
	"github.com/complyscope/complyscope/pkg/testutil"
)

func TestMain(m *testing.M) {
	SetNoColor(true)
	os.Exit(m.Run())
}

func sampleSummary() Summary {
	return Summary{
		ScanID:    "scan-1",
		Processed: 12,
		Muted:     2,
		Failed:    3,
		Skipped:   1,
		Warnings:  []string{"mutelist.yaml: Accounts: bad"},
		Overviews: []aggregate.ComplianceOverview{
			{ComplianceID: "cis_2.0_aws", Version: "2.0", RequirementsPassed: 3, RequirementsFailed: 1, RequirementsManual: 2, TotalRequirements: 6},
			{ComplianceID: "custom_baseline_aws", Version: "1", RequirementsManual: 1, TotalRequirements: 1},
		},
	}
}

func TestScore(t *testing.T) {
	assert.InDelta(t, 75.0, Score(aggregate.ComplianceOverview{RequirementsPassed: 3, RequirementsFailed: 1}), 0.001)
	assert.Equal(t, -1.0, Score(aggregate.ComplianceOverview{RequirementsManual: 4}))
}

func TestPrintSummary(t *testing.T) {
	var buf bytes.Buffer
	PrintSummary(&buf, sampleSummary())
	out := buf.String()

	assert.Contains(t, out, "Compliance summary")
	assert.Contains(t, out, "scan-1")
	assert.Contains(t, out, "cis_2.0_aws")
	assert.Contains(t, out, "75.0%")
	assert.Contains(t, out, "n/a")
	assert.Contains(t, out, "Warnings (1)")
	assert.Contains(t, out, "Skipped")
	assert.NotContains(t, out, "Filtered")
}

func TestPrintSummaryGroupsDigits(t *testing.T) {
	s := sampleSummary()
	s.Processed = 12345

	var buf bytes.Buffer
	PrintSummary(&buf, s)
	assert.Contains(t, buf.String(), "12,345")
}

func TestSilent(t *testing.T) {
	SetSilent(true)
	defer SetSilent(false)

	var buf bytes.Buffer
	PrintSummary(&buf, sampleSummary())
	PrintBanner(&buf)
	PrintOption(&buf, "Scan", "x")
	PrintRequirements(&buf, []aggregate.RequirementOverview{{RequirementID: "1.1", Status: finding.StatusFail}})
	assert.Empty(t, buf.String())
}

func TestPrintBanner(t *testing.T) {
	var buf bytes.Buffer
	PrintBanner(&buf)
	assert.Contains(t, buf.String(), "complyscope v"+Version)
	assert.Contains(t, VersionString(), Version)
}

func TestPrintRequirements(t *testing.T) {
	var buf bytes.Buffer
	PrintRequirements(&buf, []aggregate.RequirementOverview{
		{RequirementID: "1.1", Description: strings.Repeat("d", 200), Status: finding.StatusManual},
		{RequirementID: "1.14", Name: "Hardware MFA", Status: finding.StatusFail},
	})
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "MANUAL")
	assert.Contains(t, lines[0], "...")
	assert.Contains(t, lines[1], "Hardware MFA")
}

func TestTemplate(t *testing.T) {
	tmpl, err := ParseTemplate("summary", `{{ .ScanID | upper }} {{ len .Overviews }}{{ range .Overviews }} {{ .ComplianceID }}={{ score . }}{{ end }}`)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, RenderSummary(&buf, tmpl, sampleSummary()))
	assert.Equal(t, "SCAN-1 2 cis_2.0_aws=75.0% custom_baseline_aws=n/a", buf.String())
}

func TestTemplateErrors(t *testing.T) {
	_, err := ParseTemplate("bad", "{{ .ScanID ")
	assert.Error(t, err)

	_, err = LoadTemplate("does-not-exist.tmpl")
	assert.Error(t, err)

	tmpl, err := ParseTemplate("missing", "{{ .Nope }}")
	require.NoError(t, err)
	assert.Error(t, RenderSummary(&bytes.Buffer{}, tmpl, sampleSummary()))
}

func TestLoadTemplate(t *testing.T) {
	path := testutil.WriteFile(t, t.TempDir(), "s.tmpl", `{{ .Failed }} failed{{ if .Muted }}, {{ .Muted }} muted{{ end }}`)
	tmpl, err := LoadTemplate(path)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, RenderSummary(&buf, tmpl, sampleSummary()))
	assert.Equal(t, "3 failed, 2 muted", buf.String())
}

func TestIsTerminal(t *testing.T) {
	assert.False(t, IsTerminal(&bytes.Buffer{}))
	ConfigureColor(&bytes.Buffer{}, false)
	assert.True(t, IsNoColor())
}

func TestStatusBadge(t *testing.T) {
	for _, s := range []finding.Status{finding.StatusPass, finding.StatusFail, finding.StatusManual, finding.StatusMuted} {
		assert.Contains(t, StatusBadge(s), string(s))
	}
}
