package verification

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// gradient draws a horizontal grey ramp, dark to light or reversed.
func gradient(w, h int, reverse bool) image.Image {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		v := uint8(x * 255 / (w - 1))
		if reverse {
			v = 255 - v
		}
		for y := 0; y < h; y++ {
			img.SetGray(x, y, color.Gray{Y: v})
		}
	}
	return img
}

func pngBytes(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestPerceptualHash(t *testing.T) {
	t.Parallel()

	a, err := PerceptualHash(pngBytes(t, gradient(64, 64, false)))
	require.NoError(t, err)
	assert.Len(t, a, 16)

	// same picture at another size hashes the same
	b, err := PerceptualHash(pngBytes(t, gradient(128, 96, false)))
	require.NoError(t, err)
	d, err := HashDistance(a, b)
	require.NoError(t, err)
	assert.Less(t, d, DuplicateThreshold)

	c, err := PerceptualHash(pngBytes(t, gradient(64, 64, true)))
	require.NoError(t, err)
	d, err = HashDistance(a, c)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, d, DuplicateThreshold)
}

func TestPerceptualHash_NotAnImage(t *testing.T) {
	t.Parallel()

	_, err := PerceptualHash([]byte("%PDF-1.7 not really"))
	assert.Error(t, err)
}

func TestHashDistance_BadInput(t *testing.T) {
	t.Parallel()

	_, err := HashDistance("zz", "0000000000000000")
	assert.Error(t, err)
	d, err := HashDistance("00000000000000ff", "0000000000000000")
	require.NoError(t, err)
	assert.Equal(t, 8, d)
}
