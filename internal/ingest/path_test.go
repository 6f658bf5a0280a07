package ingest

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBlobPath(t *testing.T) {
	at := time.Date(2024, 11, 20, 10, 4, 5, 0, time.FixedZone("CET", 3600))
	assert.Equal(t,
		"files/anonymous/20241120_090405_ab12cd34_myreport_v2.pdf",
		BlobPath("anonymous", at, "ab12cd34", "my report_v2.pdf"))
	assert.Equal(t, "files/anonymous/20241120_090405_ab12cd34_file", BlobPath("", at, "ab12cd34", "////"))
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "Qreport.final-1.pdf", SanitizeFilename("Q report.final-1.pdf"))
	assert.Equal(t, "....etcpasswd", SanitizeFilename("../../etc/passwd"))
	assert.Equal(t, "résumé.docx", SanitizeFilename("résumé.docx"))
}

func TestRandomSuffix(t *testing.T) {
	assert.Regexp(t, regexp.MustCompile(`^[0-9a-f]{8}$`), RandomSuffix())
	assert.NotEqual(t, RandomSuffix(), RandomSuffix())
}
