package classifier

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseResponse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		status     int
		body       string
		wantLabels []string
		wantErr    error
		wantStatus int
	}{
		{name: "flat list", status: 200, body: `[{"label":"a","score":0.2},{"label":"b","score":0.7}]`, wantLabels: []string{"b", "a"}},
		{name: "nested list", status: 200, body: `[[{"label":"a","score":0.9}]]`, wantLabels: []string{"a"}},
		{name: "empty list", status: 200, body: `[]`, wantLabels: []string{}},
		{name: "drops invalid entries", status: 200, body: `[{"label":"","score":0.5},{"label":"x","score":1.5},{"label":"ok","score":0.5}]`, wantLabels: []string{"ok"}},
		{name: "garbage array", status: 200, body: `[1,2,3]`, wantErr: ErrMalformedResponse},
		{name: "object without error", status: 200, body: `{"foo":"bar"}`, wantErr: ErrMalformedResponse},
		{name: "empty body", status: 200, body: ``, wantErr: ErrMalformedResponse},
		{name: "loading on 503", status: 503, body: `{"error":"Model x is currently loading","estimated_time":12.5}`, wantErr: ErrModelLoading, wantStatus: 503},
		{name: "error list", status: 400, body: `{"error":["bad","worse"]}`, wantStatus: 400},
		{name: "plain text 502", status: 502, body: `Bad Gateway`, wantStatus: 502},
		{name: "rate limited", status: 429, body: ``, wantErr: ErrRateLimited, wantStatus: 429},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			preds, err := parseResponse(tc.status, []byte(tc.body))
			if tc.wantLabels != nil {
				require.NoError(t, err)
				labels := make([]string, 0, len(preds))
				for _, p := range preds {
					labels = append(labels, p.Label)
				}
				assert.Equal(t, tc.wantLabels, labels)
				return
			}
			require.Error(t, err)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
			}
			if tc.wantStatus != 0 {
				var apiErr *APIError
				require.True(t, errors.As(err, &apiErr))
				assert.Equal(t, tc.wantStatus, apiErr.StatusCode)
			}
		})
	}
}

func TestAPIErrorClassification(t *testing.T) {
	t.Parallel()

	loading := &APIError{StatusCode: http.StatusServiceUnavailable, Message: "Model is currently loading", EstimatedTime: 20}
	assert.True(t, loading.Loading())
	assert.False(t, loading.RateLimited())
	assert.ErrorIs(t, loading, ErrModelLoading)

	limited := &APIError{StatusCode: http.StatusOK, Message: "Rate limit reached"}
	assert.True(t, limited.RateLimited())
	assert.ErrorIs(t, limited, ErrRateLimited)

	assert.True(t, (&APIError{StatusCode: 500}).Retryable())
	assert.True(t, (&APIError{StatusCode: 200, Message: "odd"}).Retryable())
	assert.False(t, (&APIError{StatusCode: 404}).Retryable())
	assert.False(t, retryable(ErrMalformedResponse))
	assert.True(t, retryable(errors.New("connection refused")))
}
