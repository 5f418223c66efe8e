package models

import (
	"time"

	"gorm.io/datatypes"
)

// Status is the coarse verdict bucket derived from the authenticity score.
type Status string

const (
	StatusPending    Status = "pending"
	StatusAuthentic  Status = "authentic"
	StatusSuspicious Status = "suspicious"
	StatusFake       Status = "fake"
)

// ParseStatus validates a status filter string.
func ParseStatus(s string) (Status, bool) {
	switch st := Status(s); st {
	case StatusPending, StatusAuthentic, StatusSuspicious, StatusFake:
		return st, true
	default:
		return "", false
	}
}

// VerificationResult is overwritten wholesale on every verification pass.
type VerificationResult struct {
	AuthenticityScore *float64                    `json:"authenticityScore"`
	Anomalies         datatypes.JSONSlice[string] `json:"anomalies"`
	VerifiedAgainst   datatypes.JSONSlice[string] `json:"verifiedAgainst"`
	Status            Status                      `gorm:"size:16;index;default:pending" json:"status"`
	VerifiedAt        *time.Time                  `json:"verifiedAt,omitempty"`
}

// PendingResult is the result a record carries before any analysis runs.
func PendingResult() VerificationResult {
	return VerificationResult{
		Anomalies:       datatypes.JSONSlice[string]{},
		VerifiedAgainst: datatypes.JSONSlice[string]{},
		Status:          StatusPending,
	}
}

// NewResult builds a result. A nil score is stored as SQL NULL.
func NewResult(score *float64, status Status, anomalies, verifiedAgainst []string) VerificationResult {
	r := VerificationResult{
		AuthenticityScore: score,
		Anomalies:         datatypes.JSONSlice[string](anomalies),
		VerifiedAgainst:   datatypes.JSONSlice[string](verifiedAgainst),
		Status:            status,
	}
	r.normalize()
	return r
}

// Score returns a pointer suitable for AuthenticityScore.
func Score(v float64) *float64 {
	return &v
}

// Normalized returns r with nil lists replaced by empty ones.
func (r VerificationResult) Normalized() VerificationResult {
	r.normalize()
	return r
}

// normalize keeps list fields serializing as [] instead of null.
func (r *VerificationResult) normalize() {
	if r.Anomalies == nil {
		r.Anomalies = datatypes.JSONSlice[string]{}
	}
	if r.VerifiedAgainst == nil {
		r.VerifiedAgainst = datatypes.JSONSlice[string]{}
	}
}
