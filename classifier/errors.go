package classifier

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	ErrEmptyInput        = errors.New("classifier: empty input")
	ErrBadRequest        = errors.New("classifier: cannot build request")
	ErrMalformedResponse = errors.New("classifier: malformed response")
	ErrModelLoading      = errors.New("classifier: model is loading")
	ErrRateLimited       = errors.New("classifier: rate limited")
)

// APIError is an error reported by the provider, either through a non-2xx
// status or an {"error": ...} body.
type APIError struct {
	StatusCode    int
	Message       string
	EstimatedTime float64 // seconds, only set while a model loads
}

func (e *APIError) Error() string {
	return fmt.Sprintf("classifier api error (status %d): %s", e.StatusCode, e.Message)
}

// Loading reports the provider's "model is currently loading" signal.
func (e *APIError) Loading() bool {
	return strings.Contains(strings.ToLower(e.Message), "loading")
}

// RateLimited reports a rate-limit signal.
func (e *APIError) RateLimited() bool {
	if e.StatusCode == http.StatusTooManyRequests {
		return true
	}
	msg := strings.ToLower(e.Message)
	return strings.Contains(msg, "rate limit") || strings.Contains(msg, "too many requests")
}

// Retryable is true for server errors and for error bodies on non-4xx
// responses. 4xx responses are application errors.
func (e *APIError) Retryable() bool {
	return e.StatusCode >= 500 || e.StatusCode < 400
}

// Is lets errors.Is match the loading and rate-limit sentinels.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrModelLoading:
		return e.Loading()
	case ErrRateLimited:
		return e.RateLimited()
	}
	return false
}

func retryable(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Retryable()
	}
	if errors.Is(err, ErrMalformedResponse) || errors.Is(err, ErrBadRequest) || errors.Is(err, ErrEmptyInput) {
		return false
	}
	// transport failures and per-call timeouts
	return true
}
