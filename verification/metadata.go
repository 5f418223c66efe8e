package verification

import (
	"bytes"
	"strings"

	"github.com/bep/imagemeta"
	"github.com/gabriel-vasile/mimetype"
)

// Metadata holds the EXIF/XMP fields that hint at how an image was produced.
type Metadata struct {
	Software    string // EXIF Software
	Make        string // EXIF Make
	Model       string // EXIF Model
	CreatorTool string // XMP xmp:CreatorTool
}

// editingSoftware are lower-case substrings of known photo editors.
var editingSoftware = []string{
	"photoshop",
	"gimp",
	"lightroom",
	"snapseed",
	"picsart",
	"canva",
	"facetune",
	"pixlr",
	"affinity",
}

// EditingSoftware returns the Software or CreatorTool value when it names a
// known editor, or "".
func (m *Metadata) EditingSoftware() string {
	if m == nil {
		return ""
	}
	for _, field := range []string{m.Software, m.CreatorTool} {
		lower := strings.ToLower(field)
		for _, kw := range editingSoftware {
			if strings.Contains(lower, kw) {
				return field
			}
		}
	}
	return ""
}

var metadataTags = map[imagemeta.Source]map[string]bool{
	imagemeta.EXIF: {
		"Software": true,
		"Make":     true,
		"Model":    true,
	},
	imagemeta.XMP: {
		"CreatorTool": true,
	},
}

// InspectMetadata parses EXIF and XMP from raw image bytes. It returns nil
// when the format is unsupported, parsing fails or no wanted tag is present.
func InspectMetadata(data []byte) *Metadata {
	if len(data) == 0 {
		return nil
	}
	format, ok := metadataFormat(data)
	if !ok {
		return nil
	}

	meta := &Metadata{}
	found := false
	err := imagemeta.Decode(imagemeta.Options{
		R:           bytes.NewReader(data),
		ImageFormat: format,
		Sources:     imagemeta.EXIF | imagemeta.XMP,
		ShouldHandleTag: func(ti imagemeta.TagInfo) bool {
			return metadataTags[ti.Source][ti.Tag]
		},
		HandleTag: func(ti imagemeta.TagInfo) error {
			s := strings.TrimSpace(tagString(ti.Value))
			if s == "" {
				return nil
			}
			switch ti.Tag {
			case "Software":
				meta.Software = s
			case "Make":
				meta.Make = s
			case "Model":
				meta.Model = s
			case "CreatorTool":
				meta.CreatorTool = s
			default:
				return nil
			}
			found = true
			return nil
		},
	})
	if err != nil || !found {
		return nil
	}
	return meta
}

func metadataFormat(data []byte) (imagemeta.ImageFormat, bool) {
	switch mimetype.Detect(data).String() {
	case "image/jpeg":
		return imagemeta.JPEG, true
	case "image/png":
		return imagemeta.PNG, true
	case "image/webp":
		return imagemeta.WebP, true
	case "image/tiff":
		return imagemeta.TIFF, true
	}
	return 0, false
}

// tagString reads a tag value. XMP values may arrive as []string.
func tagString(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case []string:
		if len(val) > 0 {
			return val[0]
		}
	}
	return ""
}
