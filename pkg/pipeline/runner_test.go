package pipeline

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/complyscope/complyscope/pkg/finding"
	"github.com/complyscope/complyscope/pkg/overview"
	"github.com/complyscope/complyscope/pkg/testutil"
)

func TestRunner_SharedPolicy(t *testing.T) {
	tracker := testutil.TrackGoroutines()
	policy := testPolicy(t, mfaMutelist)
	store := overview.NewStore()
	r := NewRunner(4, Options{Store: store})

	var jobs []Job
	for i := 0; i < 12; i++ {
		account := "111111111111"
		if i%2 == 1 {
			account = "222222222222"
		}
		jobs = append(jobs, Job{
			Scan:   ScanContext{ScanID: fmt.Sprintf("scan-%02d", i)},
			Policy: policy,
			Source: SliceSource([]finding.Finding{mfaFinding(account), mfaFinding(account)}),
		})
	}

	reps, errs := r.Run(context.Background(), jobs)
	r.Close()
	require.Len(t, reps, len(jobs))
	for i, rep := range reps {
		require.NoError(t, errs[i])
		assert.Equal(t, jobs[i].Scan.ScanID, rep.ScanID)
		if i%2 == 0 {
			assert.Equal(t, 2, rep.Muted)
		} else {
			assert.Equal(t, 0, rep.Muted)
			assert.Equal(t, 2, rep.Failed)
		}
	}
	assert.Len(t, store.Scans(), len(jobs))
	tracker.CheckLeaks(t, 2)
}

func TestRunner_ErrorsInJobOrder(t *testing.T) {
	r := NewRunner(2, Options{})
	defer r.Close()

	policy := testPolicy(t, mfaMutelist)
	reps, errs := r.Run(context.Background(), []Job{
		{Scan: ScanContext{ScanID: "ok"}, Policy: policy, Source: SliceSource(nil)},
		{Scan: ScanContext{ScanID: "bad"}, Policy: policy, Source: func(func(finding.Finding) error) error { return testutil.ErrFault }},
	})
	require.NoError(t, errs[0])
	assert.NotNil(t, reps[0])
	assert.ErrorIs(t, errs[1], testutil.ErrFault)
	assert.Contains(t, errs[1].Error(), "scan bad")
	assert.Nil(t, reps[1])
}

func TestRunner_ClampsConcurrency(t *testing.T) {
	r := NewRunner(0, Options{})
	defer r.Close()
	assert.Greater(t, r.pool.Cap(), 0)

	big := NewRunner(1<<20, Options{})
	defer big.Close()
	assert.LessOrEqual(t, big.pool.Cap(), 64)
}
