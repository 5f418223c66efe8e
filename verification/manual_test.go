package verification

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yash-flix/VeriDoc-Ai/models"
)

func TestManualVerdicts(t *testing.T) {
	at := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	ok := ApprovedResult(at)
	require.NotNil(t, ok.AuthenticityScore)
	assert.Equal(t, 100.0, *ok.AuthenticityScore)
	assert.Equal(t, models.StatusAuthentic, ok.Status)
	assert.Empty(t, ok.Anomalies)
	assert.Equal(t, []string{"Manual Approval"}, []string(ok.VerifiedAgainst))
	assert.Equal(t, at, *ok.VerifiedAt)

	rej := RejectedResult(at)
	require.NotNil(t, rej.AuthenticityScore)
	assert.Equal(t, 0.0, *rej.AuthenticityScore)
	assert.Equal(t, models.StatusFake, rej.Status)
	assert.Equal(t, []string{AnomalyManualReject}, []string(rej.Anomalies))
	assert.Equal(t, []string{"Manual Review"}, []string(rej.VerifiedAgainst))
}
