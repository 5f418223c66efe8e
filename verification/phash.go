package verification

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"strconv"

	"github.com/corona10/goimagehash"
	_ "golang.org/x/image/webp"
)

// DuplicateThreshold is the Hamming distance between two dHash values below
// which images count as perceptually identical.
const DuplicateThreshold = 10

// SimilarUpload is an existing upload whose perceptual hash is close to a new one.
type SimilarUpload struct {
	ID       string
	Distance int
}

// DuplicateFinder looks up stored uploads by perceptual hash.
type DuplicateFinder interface {
	FindSimilar(ctx context.Context, hash, excludeID string, maxDistance int) ([]SimilarUpload, error)
}

// PerceptualHash decodes data as an image and returns its difference hash as
// 16 hex digits.
func PerceptualHash(data []byte) (string, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("decode image: %w", err)
	}
	h, err := goimagehash.DifferenceHash(img)
	if err != nil {
		return "", fmt.Errorf("difference hash: %w", err)
	}
	return fmt.Sprintf("%016x", h.GetHash()), nil
}

// HashDistance returns the Hamming distance between two hashes produced by
// PerceptualHash.
func HashDistance(a, b string) (int, error) {
	ha, err := parseHash(a)
	if err != nil {
		return 0, err
	}
	hb, err := parseHash(b)
	if err != nil {
		return 0, err
	}
	return ha.Distance(hb)
}

func parseHash(s string) (*goimagehash.ImageHash, error) {
	v, err := strconv.ParseUint(s, 16, 64)
	if err != nil {
		return nil, fmt.Errorf("parse perceptual hash %q: %w", s, err)
	}
	return goimagehash.NewImageHash(v, goimagehash.DHash), nil
}
