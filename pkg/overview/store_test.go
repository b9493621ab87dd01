package overview

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/complyscope/complyscope/pkg/aggregate"
	"github.com/complyscope/complyscope/pkg/compliance"
	"github.com/complyscope/complyscope/pkg/finding"
	"github.com/complyscope/complyscope/pkg/testutil"
)

func testCatalog(t *testing.T) *compliance.Catalog {
	t.Helper()
	cat, err := compliance.LoadDir(filepath.Join("..", "compliance", "testdata"), compliance.DirOptions{})
	require.NoError(t, err)
	return cat
}

func scanResult(t *testing.T, scanID string, findings ...finding.Finding) *aggregate.Result {
	t.Helper()
	return aggregate.Aggregate(testCatalog(t), findings, scanID)
}

func TestMissingFilters(t *testing.T) {
	s := NewStore()

	_, err := s.Overviews(Filter{})
	require.ErrorIs(t, err, ErrMissingFilter)
	var mfe *MissingFilterError
	require.ErrorAs(t, err, &mfe)
	assert.Equal(t, []string{"scan_id"}, mfe.Filters)

	_, err = s.Requirements("", "")
	require.ErrorAs(t, err, &mfe)
	assert.Equal(t, []string{"scan_id", "compliance_id"}, mfe.Filters)
	assert.Contains(t, err.Error(), "scan_id, compliance_id")

	_, err = s.Requirements("scan", " ")
	require.ErrorAs(t, err, &mfe)
	assert.Equal(t, []string{"compliance_id"}, mfe.Filters)

	_, err = s.Metadata("")
	assert.ErrorIs(t, err, ErrMissingFilter)

	_, err = s.Rows("scan", "")
	assert.ErrorIs(t, err, ErrMissingFilter)

	_, err = Attributes(testCatalog(t), "")
	assert.ErrorIs(t, err, ErrMissingFilter)

	err = s.Replace(&aggregate.Result{})
	assert.ErrorIs(t, err, ErrMissingFilter)
}

func TestUnknownScanIsEmpty(t *testing.T) {
	s := NewStore()

	ovs, err := s.Overviews(Filter{ScanID: "nope"})
	require.NoError(t, err)
	assert.Empty(t, ovs)

	reqs, err := s.Requirements("nope", "cis_2.0_aws")
	require.NoError(t, err)
	assert.Empty(t, reqs)

	md, err := s.Metadata("nope")
	require.NoError(t, err)
	assert.Equal(t, "nope", md.ScanID)
	assert.Empty(t, md.Regions)
}

func TestOverviewFilters(t *testing.T) {
	s := NewStore()

	east := testutil.Finding("s3_bucket_secure_transport_policy", finding.StatusFail)
	west := testutil.Finding("iam_root_hardware_mfa_enabled", finding.StatusPass)
	west.Region = "eu-west-1"
	require.NoError(t, s.Replace(scanResult(t, "scan-1", east, west)))

	all, err := s.Overviews(Filter{ScanID: "scan-1"})
	require.NoError(t, err)
	require.Len(t, all, 4)
	ids := make([]string, len(all))
	for i, ov := range all {
		ids[i] = ov.ComplianceID
	}
	assert.IsNonDecreasing(t, ids)

	cis, err := s.Overviews(Filter{ScanID: "scan-1", ComplianceID: "cis_2.0_aws"})
	require.NoError(t, err)
	require.Len(t, cis, 1)
	assert.Equal(t, "CIS", cis[0].Framework)

	byName, err := s.Overviews(Filter{ScanID: "scan-1", Framework: "CIS", Version: "2.0"})
	require.NoError(t, err)
	assert.Len(t, byName, 1)

	wrongVersion, err := s.Overviews(Filter{ScanID: "scan-1", Framework: "CIS", Version: "9.9"})
	require.NoError(t, err)
	assert.Empty(t, wrongVersion)

	inWest, err := s.Overviews(Filter{ScanID: "scan-1", Region: "eu-west-1"})
	require.NoError(t, err)
	require.NotEmpty(t, inWest)
	for _, ov := range inWest {
		assert.Contains(t, ov.Regions, "eu-west-1")
	}

	md, err := s.Metadata("scan-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"eu-west-1", "us-east-1"}, md.Regions)
}

func TestRequirementsAndRows(t *testing.T) {
	s := NewStore()
	f := testutil.Finding("s3_bucket_secure_transport_policy", finding.StatusFail)
	require.NoError(t, s.Replace(scanResult(t, "scan-1", f)))

	reqs, err := s.Requirements("scan-1", "cis_2.0_aws")
	require.NoError(t, err)
	require.Len(t, reqs, 4)
	for _, r := range reqs {
		assert.Equal(t, "cis_2.0_aws", r.ComplianceID)
	}

	rows, err := s.Rows("scan-1", "cis_2.0_aws")
	require.NoError(t, err)
	assert.NotEmpty(t, rows)

	none, err := s.Rows("other", "cis_2.0_aws")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestReplaceIsWholesale(t *testing.T) {
	s := NewStore()
	f := testutil.Finding("s3_bucket_secure_transport_policy", finding.StatusFail)
	require.NoError(t, s.Replace(scanResult(t, "scan-1", f)))

	first, err := s.Overviews(Filter{ScanID: "scan-1", ComplianceID: "custom_baseline_aws"})
	require.NoError(t, err)
	require.Len(t, first, 1)
	assert.Equal(t, 1, first[0].RequirementsFailed)

	f.Status = finding.StatusPass
	require.NoError(t, s.Replace(scanResult(t, "scan-1", f)))

	second, err := s.Overviews(Filter{ScanID: "scan-1", ComplianceID: "custom_baseline_aws"})
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.Equal(t, 0, second[0].RequirementsFailed)
	assert.Equal(t, 1, second[0].RequirementsPassed)

	reqs, err := s.Requirements("scan-1", "custom_baseline_aws")
	require.NoError(t, err)
	assert.Len(t, reqs, 1)

	assert.Equal(t, []string{"scan-1"}, s.Scans())
	s.Delete("scan-1")
	assert.Empty(t, s.Scans())
}

func TestReturnedSlicesAreCopies(t *testing.T) {
	s := NewStore()
	f := testutil.Finding("s3_bucket_secure_transport_policy", finding.StatusFail)
	require.NoError(t, s.Replace(scanResult(t, "scan-1", f)))

	ovs, err := s.Overviews(Filter{ScanID: "scan-1", ComplianceID: "custom_baseline_aws"})
	require.NoError(t, err)
	require.NotEmpty(t, ovs[0].Regions)
	ovs[0].Regions[0] = "mutated"

	again, err := s.Overviews(Filter{ScanID: "scan-1", ComplianceID: "custom_baseline_aws"})
	require.NoError(t, err)
	assert.Equal(t, "us-east-1", again[0].Regions[0])
}

func TestReplaceIsolatesCallerResult(t *testing.T) {
	s := NewStore()
	f := testutil.Finding("s3_bucket_secure_transport_policy", finding.StatusFail)
	res := scanResult(t, "scan-1", f)
	require.NoError(t, s.Replace(res))

	for i := range res.Requirements {
		if res.Requirements[i].ComplianceID == "custom_baseline_aws" {
			res.Requirements[i].Checks[0] = "mutated"
			res.Requirements[i].Regions[0] = "mutated"
		}
	}
	for _, row := range res.RowsOf("custom_baseline_aws") {
		row.Base().Status = finding.StatusPass
	}

	reqs, err := s.Requirements("scan-1", "custom_baseline_aws")
	require.NoError(t, err)
	require.Len(t, reqs, 1)
	assert.Equal(t, []string{"s3_bucket_secure_transport_policy"}, reqs[0].Checks)
	assert.Equal(t, []string{"us-east-1"}, reqs[0].Regions)

	rows, err := s.Rows("scan-1", "custom_baseline_aws")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, finding.StatusFail, rows[0].Base().Status)

	rows[0].Base().Status = finding.StatusManual
	reqs[0].Checks[0] = "mutated"
	rows, err = s.Rows("scan-1", "custom_baseline_aws")
	require.NoError(t, err)
	assert.Equal(t, finding.StatusFail, rows[0].Base().Status)
	reqs, err = s.Requirements("scan-1", "custom_baseline_aws")
	require.NoError(t, err)
	assert.Equal(t, "s3_bucket_secure_transport_policy", reqs[0].Checks[0])
}

func TestAttributes(t *testing.T) {
	cat := testCatalog(t)

	attrs, err := Attributes(cat, "cis_2.0_aws")
	require.NoError(t, err)
	assert.Len(t, attrs, 4)

	_, err = Attributes(cat, "missing")
	assert.ErrorIs(t, err, compliance.ErrUnknownFramework)
}
