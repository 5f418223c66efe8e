package verification

import (
	"time"

	"github.com/yash-flix/VeriDoc-Ai/models"
)

const AnomalyManualReject = "Rejected during manual review"

// ApprovedResult is the fixed verdict of a manual approval.
func ApprovedResult(at time.Time) models.VerificationResult {
	res := models.NewResult(models.Score(100), models.StatusAuthentic, nil, []string{"Manual Approval"})
	res.VerifiedAt = &at
	return res
}

// RejectedResult is the fixed verdict of a manual rejection.
func RejectedResult(at time.Time) models.VerificationResult {
	res := models.NewResult(models.Score(0), models.StatusFake, []string{AnomalyManualReject}, []string{"Manual Review"})
	res.VerifiedAt = &at
	return res
}
