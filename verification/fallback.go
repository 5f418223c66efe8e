package verification

import (
	"fmt"
	"strings"

	"github.com/yash-flix/VeriDoc-Ai/models"
)

const (
	fallbackBaseline = 65

	AnomalyAIUnavailable = "AI verification temporarily unavailable - analysis based on metadata and patterns only"
	AnomalySmallFile     = "Very low file size - may indicate low quality or heavily compressed image"
	AnomalyScreenshotURL = "URL suggests screenshot - may not be original document"

	EvidenceMetadata = "EXIF Metadata Inspection"

	kib = 1024
	mib = 1024 * kib
)

type keywordAdjustment struct {
	keyword string
	delta   float64
}

// Checked in order; only the first match applies.
var (
	fallbackNameSuspicious = []keywordAdjustment{
		{"fake", -18},
		{"edited", -15},
		{"screenshot", -12},
		{"modified", -12},
		{"copy", -10},
		{"temp", -10},
		{"untitled", -10},
	}
	fallbackNamePositive = []keywordAdjustment{
		{"original", 5},
		{"certificate", 4},
		{"official", 4},
		{"scan", 3},
	}
)

// FallbackEvidence lists the heuristics every fallback result is based on.
var FallbackEvidence = []string{"Enhanced Metadata Analysis", "Pattern Recognition", "File Properties Check"}

// FallbackInput is what the heuristic analyzer can see when no classifier
// result is available. Data is nil when the download failed.
type FallbackInput struct {
	FileName string
	FileURL  string
	Data     []byte
	Metadata *Metadata
}

// Fallback scores an upload from filename, URL, size and metadata alone.
func Fallback(in FallbackInput) models.VerificationResult {
	score := float64(fallbackBaseline)
	var anomalies []string
	evidence := append([]string(nil), FallbackEvidence...)

	name := strings.ToLower(in.FileName)
	if adj, ok := firstAdjustment(name, fallbackNameSuspicious); ok {
		score += adj.delta
		anomalies = append(anomalies, fmt.Sprintf("Filename contains suspicious keyword: %q", adj.keyword))
	}
	if adj, ok := firstAdjustment(name, fallbackNamePositive); ok {
		score += adj.delta
	}

	if in.Data != nil {
		switch size := len(in.Data); {
		case size < 20*kib:
			score -= 18
			anomalies = append(anomalies, AnomalySmallFile)
		case size < 50*kib:
			score -= 10
			anomalies = append(anomalies, AnomalySmallFile)
		case size > 10*mib:
			score += 8
		case size > 5*mib:
			score += 5
		}
	}

	if strings.Contains(strings.ToLower(in.FileURL), "screenshot") && !mentions(anomalies, "screenshot") {
		score -= 10
		anomalies = append(anomalies, AnomalyScreenshotURL)
	}

	if in.Metadata != nil {
		evidence = append(evidence, EvidenceMetadata)
		if tool := in.Metadata.EditingSoftware(); tool != "" {
			score -= 10
			anomalies = append(anomalies, fmt.Sprintf("Metadata shows editing software: %q", tool))
		}
	}

	anomalies = append(anomalies, AnomalyAIUnavailable)

	score = finalizeScore(score)
	return models.NewResult(models.Score(score), FallbackStatus(score), anomalies, evidence)
}

func firstAdjustment(s string, adjustments []keywordAdjustment) (keywordAdjustment, bool) {
	for _, adj := range adjustments {
		if strings.Contains(s, adj.keyword) {
			return adj, true
		}
	}
	return keywordAdjustment{}, false
}
