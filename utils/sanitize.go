package utils

import (
	"html"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
)

const maxFileNameBytes = 255

var sanitizer = bluemonday.StrictPolicy()

// SanitizeFileName strips markup and path components from a client-supplied
// filename so it is safe to store and show on a dashboard.
func SanitizeFileName(name string) string {
	// StrictPolicy escapes entities; keep the plain text form.
	clean := html.UnescapeString(sanitizer.Sanitize(name))
	clean = strings.ReplaceAll(clean, "\\", "/")
	clean = filepath.Base(strings.TrimSpace(clean))
	if clean == "." || clean == "/" {
		return ""
	}
	clean = strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, clean)
	clean = strings.ToValidUTF8(clean, "")
	if len(clean) > maxFileNameBytes {
		cut := maxFileNameBytes
		for cut > 0 && !utf8.RuneStart(clean[cut]) {
			cut--
		}
		clean = clean[:cut]
	}
	return strings.TrimSpace(clean)
}
