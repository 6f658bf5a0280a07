package ingest

import (
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
)

// BlobPath builds files/{scope}/{timestamp}_{suffix}_{sanitized name}.
func BlobPath(scope string, at time.Time, suffix, filename string) string {
	if scope = SanitizeFilename(scope); scope == "" {
		scope = "anonymous"
	}
	name := SanitizeFilename(filename)
	if name == "" {
		name = "file"
	}
	return "files/" + scope + "/" + at.UTC().Format("20060102_150405") + "_" + suffix + "_" + name
}

// SanitizeFilename keeps letters, digits, '.', '_' and '-'.
func SanitizeFilename(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), r == '.', r == '_', r == '-':
			return r
		}
		return -1
	}, name)
}

// RandomSuffix is the first 8 hex characters of a random UUID.
func RandomSuffix() string {
	return uuid.NewString()[:8]
}
