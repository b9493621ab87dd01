package finding

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleFinding() Finding {
	return Finding{
		ScanID:      "scan-1",
		CheckID:     "iam_user_hardware_mfa_enabled",
		Status:      StatusFail,
		AccountUID:  "111111111111",
		Region:      "us-east-1",
		ResourceUID: "user/admin",
		ResourceTags: []Tag{
			{Key: "env", Value: "prod"},
		},
	}
}

func TestFindingValidate(t *testing.T) {
	f := sampleFinding()
	require.NoError(t, f.Validate())

	noCheck := sampleFinding()
	noCheck.CheckID = ""
	assert.ErrorIs(t, noCheck.Validate(), ErrInvalidFinding)

	badStatus := sampleFinding()
	badStatus.Status = StatusMuted
	assert.ErrorIs(t, badStatus.Validate(), ErrInvalidStatus)

	badDelta := sampleFinding()
	badDelta.Delta = "gone"
	assert.ErrorIs(t, badDelta.Validate(), ErrInvalidFinding)
}

func TestDisplayStatus(t *testing.T) {
	tests := []struct {
		name   string
		status Status
		muted  bool
		want   Status
	}{
		{"muted fail", StatusFail, true, StatusMuted},
		{"unmuted fail", StatusFail, false, StatusFail},
		{"muted pass stays pass", StatusPass, true, StatusPass},
		{"muted manual stays manual", StatusManual, true, StatusManual},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := sampleFinding()
			f.Status = tt.status
			f.Muted = tt.muted
			assert.Equal(t, tt.want, f.DisplayStatus())
			assert.Equal(t, tt.status, f.Status, "status must never be overwritten")
		})
	}
}

func TestIdentityKey(t *testing.T) {
	a := sampleFinding()
	b := sampleFinding()
	b.Muted = true
	b.StatusExtended = "different text"
	assert.Equal(t, a.Identity().Key(), b.Identity().Key(), "non-identity fields must not change the key")

	c := sampleFinding()
	c.Region = "eu-west-1"
	assert.NotEqual(t, a.Identity().Key(), c.Identity().Key())

	// Field boundaries are part of the key.
	x := Identity{AccountUID: "ab", Region: "c"}
	y := Identity{AccountUID: "a", Region: "bc"}
	assert.NotEqual(t, x.Key(), y.Key())
}

func TestSubjectKey(t *testing.T) {
	a := sampleFinding()
	a.ResourceTags = []Tag{{Key: "env", Value: "prod"}, {Key: "team", Value: "infra"}}
	b := sampleFinding()
	b.ResourceTags = []Tag{{Key: "team", Value: "infra"}, {Key: "env", Value: "prod"}}
	assert.Equal(t, a.SubjectKey(), b.SubjectKey(), "tag order is ignored")

	c := sampleFinding()
	assert.NotEqual(t, a.SubjectKey(), c.SubjectKey())

	d := sampleFinding()
	d.ResourceTags = a.ResourceTags
	d.ResourceName = "renamed"
	assert.NotEqual(t, a.SubjectKey(), d.SubjectKey())
	assert.Equal(t, a.Identity().Key(), d.Identity().Key())
}

func TestRequirementsFor(t *testing.T) {
	f := sampleFinding()
	assert.Nil(t, f.RequirementsFor("cis_1.4_aws"))

	f.Compliance = map[string][]string{"cis_1.4_aws": {"1.10"}}
	assert.Equal(t, []string{"1.10"}, f.RequirementsFor("cis_1.4_aws"))
}

func TestFindingJSONShape(t *testing.T) {
	f := sampleFinding()
	data, err := json.Marshal(f)
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(data, &m))
	for _, field := range []string{"check_id", "status", "account_uid", "region", "resource_uid", "muted"} {
		assert.Contains(t, m, field)
	}
	assert.Equal(t, "FAIL", m["status"])
}
