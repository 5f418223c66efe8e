package verification

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yash-flix/VeriDoc-Ai/models"
)

func TestFallback_ScreenshotFilenameWithoutBytes(t *testing.T) {
	t.Parallel()

	res := Fallback(FallbackInput{
		FileName: "IMG_screenshot_2024.png",
		FileURL:  "http://localhost:3000/static/uploads/abc_IMG_screenshot_2024.png",
	})
	require.NotNil(t, res.AuthenticityScore)
	assert.InDelta(t, 53, *res.AuthenticityScore, 1e-9)
	assert.Equal(t, models.StatusSuspicious, res.Status)
	assert.Equal(t, []string{
		`Filename contains suspicious keyword: "screenshot"`,
		AnomalyAIUnavailable,
	}, []string(res.Anomalies), "url check does not double count")
	assert.Equal(t, FallbackEvidence, []string(res.VerifiedAgainst))
}

func TestFallback_Adjustments(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		in         FallbackInput
		wantScore  float64
		wantStatus models.Status
		wantExtra  []string // anomalies before the disclosure
	}{
		{
			name:       "plain name no bytes",
			in:         FallbackInput{FileName: "passport.jpg"},
			wantScore:  65,
			wantStatus: models.StatusSuspicious,
		},
		{
			name:       "fake beats later keywords",
			in:         FallbackInput{FileName: "fake_copy.png"},
			wantScore:  47,
			wantStatus: models.StatusSuspicious,
			wantExtra:  []string{`Filename contains suspicious keyword: "fake"`},
		},
		{
			name:       "tiny file",
			in:         FallbackInput{FileName: "id.png", Data: make([]byte, 10*kib)},
			wantScore:  47,
			wantStatus: models.StatusSuspicious,
			wantExtra:  []string{AnomalySmallFile},
		},
		{
			name:       "small file",
			in:         FallbackInput{FileName: "id.png", Data: make([]byte, 30*kib)},
			wantScore:  55,
			wantStatus: models.StatusSuspicious,
			wantExtra:  []string{AnomalySmallFile},
		},
		{
			name:       "large original scan",
			in:         FallbackInput{FileName: "original_scan.tiff", Data: make([]byte, 11*mib)},
			wantScore:  78,
			wantStatus: models.StatusAuthentic,
		},
		{
			name:       "medium large",
			in:         FallbackInput{FileName: "x.jpg", Data: make([]byte, 6*mib)},
			wantScore:  70,
			wantStatus: models.StatusAuthentic,
		},
		{
			name:       "screenshot url",
			in:         FallbackInput{FileName: "x.jpg", FileURL: "https://cdn.example.com/screenshots/x.jpg"},
			wantScore:  55,
			wantStatus: models.StatusSuspicious,
			wantExtra:  []string{AnomalyScreenshotURL},
		},
		{
			name:       "stacked penalties go fake",
			in:         FallbackInput{FileName: "edited.png", FileURL: "https://x/screenshot/edited.png", Data: make([]byte, 1*kib)},
			wantScore:  22,
			wantStatus: models.StatusFake,
			wantExtra:  []string{`Filename contains suspicious keyword: "edited"`, AnomalySmallFile, AnomalyScreenshotURL},
		},
		{
			name: "editing software in metadata",
			in: FallbackInput{
				FileName: "id.jpg",
				Data:     make([]byte, 100*kib),
				Metadata: &Metadata{Software: "Adobe Photoshop 25.0 (Windows)"},
			},
			wantScore:  55,
			wantStatus: models.StatusSuspicious,
			wantExtra:  []string{`Metadata shows editing software: "Adobe Photoshop 25.0 (Windows)"`},
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			res := Fallback(tc.in)
			require.NotNil(t, res.AuthenticityScore)
			assert.InDelta(t, tc.wantScore, *res.AuthenticityScore, 1e-9)
			assert.Equal(t, tc.wantStatus, res.Status)
			assert.Equal(t, FallbackStatus(*res.AuthenticityScore), res.Status)
			want := append(append([]string{}, tc.wantExtra...), AnomalyAIUnavailable)
			assert.Equal(t, want, []string(res.Anomalies))
		})
	}
}

func TestFallback_MetadataEvidence(t *testing.T) {
	t.Parallel()

	res := Fallback(FallbackInput{FileName: "a.jpg", Metadata: &Metadata{Make: "Canon"}})
	assert.Equal(t, append(append([]string{}, FallbackEvidence...), EvidenceMetadata), []string(res.VerifiedAgainst))
	assert.InDelta(t, 65, *res.AuthenticityScore, 1e-9)

	// callers must not be able to mutate the shared evidence list through a result
	res.VerifiedAgainst[0] = "changed"
	assert.Equal(t, "Enhanced Metadata Analysis", FallbackEvidence[0])
}

func TestMetadataEditingSoftware(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "", (*Metadata)(nil).EditingSoftware())
	assert.Equal(t, "", (&Metadata{Software: "Google Pixel camera", Make: "Google"}).EditingSoftware())
	assert.Equal(t, "GIMP 2.10.34", (&Metadata{Software: "GIMP 2.10.34"}).EditingSoftware())
	assert.Equal(t, "Canva", (&Metadata{CreatorTool: "Canva"}).EditingSoftware())
}

func TestInspectMetadata_NoMetadata(t *testing.T) {
	t.Parallel()

	assert.Nil(t, InspectMetadata(nil))
	assert.Nil(t, InspectMetadata([]byte("plain text, not an image")))
	assert.Nil(t, InspectMetadata(pngBytes(t, gradient(32, 32, false))))
}
