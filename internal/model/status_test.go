package model

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJobStatusRankOrder(t *testing.T) {
	t.Parallel()

	all := AllJobStatuses()
	for i, s := range all {
		assert.Equal(t, i, s.Rank(), "rank of %s", s)
	}
	assert.Equal(t, -1, JobStatus("bogus").Rank())
}

func TestJobStatusTerminal(t *testing.T) {
	t.Parallel()

	tests := []struct {
		status JobStatus
		want   bool
	}{
		{StatusInterested, false},
		{StatusApplied, false},
		{StatusInterviewing, false},
		{StatusOffer, false},
		{StatusRejected, true},
		{StatusWithdrew, true},
	}
	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.status.Terminal())
		})
	}
}

func TestParseJobStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		raw  string
		want JobStatus
	}{
		{"applied", StatusApplied},
		{"  Offer ", StatusOffer},
		{"INTERVIEWING", StatusInterviewing},
		{"interview", StatusInterviewing},
		{"Withdrawn", StatusWithdrew},
		{"declined", StatusRejected},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			t.Parallel()
			got, err := ParseJobStatus(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseJobStatus("ghosted")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown job status")
}

func TestNormalizeProviderStatus(t *testing.T) {
	t.Parallel()

	assert.Equal(t, ProviderCancelled, NormalizeProviderStatus("canceled"))
	assert.Equal(t, ProviderCancelled, NormalizeProviderStatus("CANCELLED"))
	assert.Equal(t, ProviderTentative, NormalizeProviderStatus("tentative"))
	assert.Equal(t, ProviderConfirmed, NormalizeProviderStatus(""))
	assert.Equal(t, ProviderConfirmed, NormalizeProviderStatus("accepted"))
}

func TestDateRangeValidate(t *testing.T) {
	t.Parallel()

	jan := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	feb := jan.AddDate(0, 1, 0)

	require.NoError(t, DateRange{From: jan, To: feb}.Validate())
	assert.Error(t, DateRange{From: feb, To: jan}.Validate())
	assert.Error(t, DateRange{From: jan, To: jan}.Validate())
	assert.Error(t, DateRange{To: feb}.Validate())
}

func TestSyncResultAddError(t *testing.T) {
	t.Parallel()

	var r SyncResult
	r.AddError(ItemPersistenceFailure, "evt-1", "co-1", errors.New("disk full"))

	require.Len(t, r.Errors, 1)
	assert.Equal(t, "evt-1", r.Errors[0].ExternalID)
	assert.Equal(t, "co-1", r.Errors[0].CompanyID)
	assert.Equal(t, ItemPersistenceFailure, r.Errors[0].Kind)
	assert.Equal(t, "disk full", r.Errors[0].Message)
}
