package verification

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yash-flix/VeriDoc-Ai/classifier"
	"github.com/yash-flix/VeriDoc-Ai/models"
)

func top(label string, score float64) []classifier.Prediction {
	return []classifier.Prediction{{Label: label, Score: score}}
}

func TestScoreImage_FakeLabel(t *testing.T) {
	t.Parallel()

	res := ScoreImage("google/vit-base-patch16-224", top("fake_id_card", 0.80))
	require.NotNil(t, res.AuthenticityScore)
	assert.InDelta(t, 15, *res.AuthenticityScore, 1e-9)
	assert.Equal(t, models.StatusFake, res.Status)
	require.NotEmpty(t, res.Anomalies)
	assert.Contains(t, res.Anomalies[0], "fake_id_card")
	assert.Equal(t, []string{"google/vit-base-patch16-224", EvidenceImageManipulation}, []string(res.VerifiedAgainst))
}

func TestScoreDocument_BookLabel(t *testing.T) {
	t.Parallel()

	res := ScoreDocument("google/vit-base-patch16-224", top("book", 0.60), "")
	require.NotNil(t, res.AuthenticityScore)
	assert.InDelta(t, 92, *res.AuthenticityScore, 1e-9)
	assert.Equal(t, models.StatusAuthentic, res.Status)
	assert.Empty(t, res.Anomalies)
	assert.Equal(t, []string{"google/vit-base-patch16-224", EvidenceDocumentForensics}, []string(res.VerifiedAgainst))
}

func TestScoreDocument_Branches(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		label         string
		conf          float64
		fileName      string
		wantScore     float64
		wantStatus    models.Status
		wantAnomalies int
	}{
		{name: "authentic with bonus", label: "envelope", conf: 0.80, wantScore: 97, wantStatus: models.StatusAuthentic},
		{name: "authentic low conf is neutral", label: "envelope", conf: 0.40, wantScore: 72, wantStatus: models.StatusSuspicious},
		{name: "suspicious weak", label: "monitor", conf: 0.30, wantScore: 56, wantStatus: models.StatusSuspicious, wantAnomalies: 1},
		{name: "suspicious strong", label: "web site, website, internet site, site", conf: 0.60, wantScore: 20, wantStatus: models.StatusFake, wantAnomalies: 2},
		{name: "digital", label: "photocopier", conf: 0.50, wantScore: 72.5, wantStatus: models.StatusSuspicious, wantAnomalies: 1},
		{name: "low confidence unmatched", label: "jigsaw puzzle", conf: 0.10, wantScore: 45, wantStatus: models.StatusSuspicious, wantAnomalies: 1},
		{name: "neutral", label: "jigsaw puzzle", conf: 0.50, wantScore: 75.5, wantStatus: models.StatusAuthentic},
		{name: "notebook contains book", label: "notebook, notebook computer", conf: 0.60, wantScore: 92, wantStatus: models.StatusAuthentic},
		{name: "plural screen label", label: "Screenshots", conf: 0.60, wantScore: 20, wantStatus: models.StatusFake, wantAnomalies: 2},
		{name: "screen label with screenshot filename", label: "monitor", conf: 0.60, fileName: "screenshot.png", wantScore: 5, wantStatus: models.StatusFake, wantAnomalies: 3},
		{name: "screenshot filename", label: "jigsaw puzzle", conf: 0.50, fileName: "Screenshot_2024.png", wantScore: 60.5, wantStatus: models.StatusSuspicious, wantAnomalies: 1},
		{name: "screenshot already flagged", label: "screenshot", conf: 0.30, fileName: "screenshot.png", wantScore: 56, wantStatus: models.StatusSuspicious, wantAnomalies: 1},
		{name: "edited filename", label: "book", conf: 0.60, fileName: "passport_edited.jpg", wantScore: 82, wantStatus: models.StatusAuthentic, wantAnomalies: 1},
		{name: "positive filename", label: "jigsaw puzzle", conf: 0.50, fileName: "official_letter.png", wantScore: 78.5, wantStatus: models.StatusAuthentic},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			res := ScoreDocument("m", top(tc.label, tc.conf), tc.fileName)
			require.NotNil(t, res.AuthenticityScore)
			assert.InDelta(t, tc.wantScore, *res.AuthenticityScore, 1e-9)
			assert.Equal(t, tc.wantStatus, res.Status)
			assert.Len(t, res.Anomalies, tc.wantAnomalies, "anomalies: %v", res.Anomalies)
		})
	}
}

func TestScoreImage_Branches(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		label         string
		conf          float64
		wantScore     float64
		wantStatus    models.Status
		wantAnomalies int
	}{
		{name: "fake weak falls to neutral", label: "deepfake", conf: 0.40, wantScore: 73, wantStatus: models.StatusAuthentic},
		{name: "real strong", label: "real photo", conf: 0.90, wantScore: 95, wantStatus: models.StatusAuthentic},
		{name: "screen", label: "screen, CRT screen", conf: 0.50, wantScore: 30, wantStatus: models.StatusFake, wantAnomalies: 1},
		{name: "screen weak", label: "television", conf: 0.25, wantScore: 60, wantStatus: models.StatusSuspicious, wantAnomalies: 1},
		{name: "neutral", label: "golden retriever", conf: 0.50, wantScore: 77.5, wantStatus: models.StatusAuthentic},
		{name: "low confidence capped", label: "golden retriever", conf: 0.10, wantScore: 50, wantStatus: models.StatusSuspicious, wantAnomalies: 1},
		{name: "low confidence on screen", label: "monitor", conf: 0.15, wantScore: 50, wantStatus: models.StatusSuspicious, wantAnomalies: 2},
		{name: "plural fake label", label: "Deepfakes", conf: 0.90, wantScore: 15, wantStatus: models.StatusFake, wantAnomalies: 1},
		{name: "compound fake label", label: "FakeFace", conf: 0.90, wantScore: 15, wantStatus: models.StatusFake, wantAnomalies: 1},
		{name: "plural screen label", label: "screenshots", conf: 0.90, wantScore: 30, wantStatus: models.StatusFake, wantAnomalies: 1},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			res := ScoreImage("m", top(tc.label, tc.conf))
			require.NotNil(t, res.AuthenticityScore)
			assert.InDelta(t, tc.wantScore, *res.AuthenticityScore, 1e-9)
			assert.Equal(t, tc.wantStatus, res.Status)
			assert.Len(t, res.Anomalies, tc.wantAnomalies, "anomalies: %v", res.Anomalies)
		})
	}
}

func TestScoresStayInRange(t *testing.T) {
	t.Parallel()

	labels := []string{"book", "monitor", "photocopier", "fake", "real photo", "screenshot", "golden retriever", ""}
	names := []string{"", "fake_copy_screenshot_edited.png", "original_certificate_scan.pdf"}
	for _, label := range labels {
		for pct := 0; pct <= 100; pct++ {
			conf := float64(pct) / 100
			for _, name := range names {
				doc := ScoreDocument("m", top(label, conf), name)
				assert.GreaterOrEqual(t, *doc.AuthenticityScore, 0.0)
				assert.LessOrEqual(t, *doc.AuthenticityScore, 100.0)
				assert.Equal(t, DocumentStatus(*doc.AuthenticityScore), doc.Status)
			}
			img := ScoreImage("m", top(label, conf))
			assert.GreaterOrEqual(t, *img.AuthenticityScore, 0.0)
			assert.LessOrEqual(t, *img.AuthenticityScore, 100.0)
			assert.Equal(t, ImageStatus(*img.AuthenticityScore), img.Status)
		}
	}
}

func TestStatusThresholds(t *testing.T) {
	t.Parallel()

	assert.Equal(t, models.StatusAuthentic, DocumentStatus(75))
	assert.Equal(t, models.StatusSuspicious, DocumentStatus(74.9))
	assert.Equal(t, models.StatusSuspicious, DocumentStatus(45))
	assert.Equal(t, models.StatusFake, DocumentStatus(44.9))

	assert.Equal(t, models.StatusAuthentic, ImageStatus(70))
	assert.Equal(t, models.StatusSuspicious, ImageStatus(40))
	assert.Equal(t, models.StatusFake, ImageStatus(39.9))

	assert.Equal(t, models.StatusAuthentic, FallbackStatus(70))
	assert.Equal(t, models.StatusSuspicious, FallbackStatus(45))
	assert.Equal(t, models.StatusFake, FallbackStatus(44.9))
}

func TestHasTermMatchesSubstrings(t *testing.T) {
	t.Parallel()

	assert.True(t, hasTerm("book jacket, dust cover", documentAuthenticTerms))
	assert.True(t, hasTerm("notebook", documentAuthenticTerms))
	assert.True(t, hasTerm(strings.ToLower("FakeFace"), imageFakeTerms))
	assert.True(t, hasTerm("screenshots", imageScreenTerms))
	assert.False(t, hasTerm("golden retriever", imageFakeTerms))
}
