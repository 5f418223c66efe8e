package verification

import (
	"fmt"
	"math"
	"strings"

	"github.com/yash-flix/VeriDoc-Ai/classifier"
	"github.com/yash-flix/VeriDoc-Ai/models"
)

// ScoringVersion identifies the threshold tables below. Bump it whenever a
// formula, keyword set or threshold changes.
const ScoringVersion = "2024.4"

const (
	EvidenceDocumentForensics = "Document Forensics Analysis"
	EvidenceImageManipulation = "Image Manipulation Detection"

	AnomalyLowConfidence = "Low confidence in classification - manual review recommended"
)

var (
	documentAuthenticTerms = []string{
		"book", "envelope", "paper", "letter", "menu", "document", "certificate",
		"passport", "license", "card", "receipt", "ticket", "diploma", "newspaper",
		"binder", "notepad", "file", "folder", "carton", "packet", "stamp",
	}
	documentSuspiciousTerms = []string{
		"screen", "monitor", "television", "laptop", "computer", "display",
		"web site", "website", "screenshot", "fake", "forged", "edited",
		"manipulated", "synthetic", "generated",
	}
	documentDigitalTerms = []string{
		"scan", "scanner", "photocopier", "printer", "digital", "fax", "copy",
		"pixel", "graphic",
	}

	imageFakeTerms = []string{
		"fake", "deepfake", "forged", "forgery", "manipulated", "synthetic",
		"generated", "artificial", "edited", "photoshopped", "altered", "tampered",
	}
	imageRealTerms = []string{
		"real", "authentic", "genuine", "original", "natural", "photo", "photograph",
	}
	imageScreenTerms = []string{
		"screen", "screenshot", "monitor", "display", "television", "web site",
		"website", "laptop",
	}
)

var (
	documentNameSuspicious = []string{"edited", "copy", "modified", "fake"}
	documentNamePositive   = []string{"certificate", "official", "original", "scan"}
)

// ScoreDocument scores the top-ranked prediction of a document classification.
// preds must be non-empty and ranked by descending score.
func ScoreDocument(model string, preds []classifier.Prediction, fileName string) models.VerificationResult {
	top := preds[0]
	conf := top.Score * 100
	label := strings.ToLower(top.Label)

	authentic := hasTerm(label, documentAuthenticTerms)
	suspicious := hasTerm(label, documentSuspiciousTerms)
	digital := hasTerm(label, documentDigitalTerms)

	var score float64
	var anomalies []string
	switch {
	case authentic && conf > 45:
		score = math.Min(92, 65+conf*0.45)
		if conf > 70 {
			score += 5
		}
	case suspicious:
		score = math.Max(20, 95-conf*1.3)
		anomalies = append(anomalies, fmt.Sprintf("Suspicious content detected: %s (%.1f%% confidence)", top.Label, conf))
		if conf > 50 {
			anomalies = append(anomalies, "Strong screen or manipulation indicator - document may be a screen capture or digitally altered copy")
		}
	case digital && conf > 40:
		score = math.Min(75, 55+conf*0.35)
		anomalies = append(anomalies, "Document appears to be a digital scan or copy - verify against the original source")
	case conf < 25 && !authentic && !digital:
		score = 45
		anomalies = append(anomalies, AnomalyLowConfidence)
	default:
		score = math.Min(80, 58+conf*0.35)
	}

	name := strings.ToLower(fileName)
	// a screenshot label was already penalized above
	if strings.Contains(name, "screenshot") && !strings.Contains(label, "screenshot") {
		score -= 15
		anomalies = append(anomalies, "Filename suggests a screenshot - may not be an original document")
	}
	if kw, ok := firstSubstring(name, documentNameSuspicious); ok {
		score -= 10
		anomalies = append(anomalies, fmt.Sprintf("Filename contains suspicious keyword: %q", kw))
	}
	if _, ok := firstSubstring(name, documentNamePositive); ok {
		score += 3
	}

	score = finalizeScore(score)
	return models.NewResult(models.Score(score), DocumentStatus(score), anomalies,
		[]string{model, EvidenceDocumentForensics})
}

// ScoreImage scores the top-ranked prediction of an image classification.
// preds must be non-empty and ranked by descending score.
func ScoreImage(model string, preds []classifier.Prediction) models.VerificationResult {
	top := preds[0]
	conf := top.Score * 100
	label := strings.ToLower(top.Label)

	fake := hasTerm(label, imageFakeTerms)
	genuine := hasTerm(label, imageRealTerms)
	screen := hasTerm(label, imageScreenTerms)

	var score float64
	var anomalies []string
	switch {
	case fake && conf > 50:
		score = math.Max(15, 100-conf*1.5)
		anomalies = append(anomalies, fmt.Sprintf("Manipulation indicator detected: %s (%.1f%% confidence)", top.Label, conf))
	case genuine && conf > 60:
		score = math.Min(95, 70+conf*0.35)
	case screen:
		score = math.Max(30, 90-conf*1.2)
		anomalies = append(anomalies, fmt.Sprintf("Screen capture detected: %s (%.1f%% confidence) - image may not be an original photo", top.Label, conf))
	default:
		score = math.Min(88, 55+conf*0.45)
	}
	if conf < 20 {
		score = math.Min(score, 50)
		anomalies = append(anomalies, AnomalyLowConfidence)
	}

	score = finalizeScore(score)
	return models.NewResult(models.Score(score), ImageStatus(score), anomalies,
		[]string{model, EvidenceImageManipulation})
}

// DocumentStatus maps a final document score to a status.
func DocumentStatus(score float64) models.Status {
	return statusFor(score, 75, 45)
}

// ImageStatus maps a final image score to a status.
func ImageStatus(score float64) models.Status {
	return statusFor(score, 70, 40)
}

// FallbackStatus maps a final fallback score to a status.
func FallbackStatus(score float64) models.Status {
	return statusFor(score, 70, 45)
}

func statusFor(score, authentic, suspicious float64) models.Status {
	switch {
	case score >= authentic:
		return models.StatusAuthentic
	case score >= suspicious:
		return models.StatusSuspicious
	default:
		return models.StatusFake
	}
}

// finalizeScore clamps to [0,100] and rounds to one decimal.
func finalizeScore(score float64) float64 {
	if math.IsNaN(score) {
		return 0
	}
	score = math.Max(0, math.Min(100, score))
	return math.Round(score*10) / 10
}

func hasTerm(label string, terms []string) bool {
	_, ok := firstSubstring(label, terms)
	return ok
}

func firstSubstring(s string, keywords []string) (string, bool) {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return kw, true
		}
	}
	return "", false
}

func mentions(anomalies []string, word string) bool {
	for _, a := range anomalies {
		if strings.Contains(strings.ToLower(a), word) {
			return true
		}
	}
	return false
}
