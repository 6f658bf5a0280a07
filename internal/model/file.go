// Package model contains the document record and the normalization rules that
// every writer of a record applies.
package model

import (
	"strings"
	"time"
	"unicode/utf8"
)

// FileType is the normalized, lower-cased type tag of an upload.
type FileType string

const (
	TypePDF  FileType = "pdf"
	TypeDOCX FileType = "docx"
	TypeDOC  FileType = "doc"
	TypeTXT  FileType = "txt"
	TypeMD   FileType = "md"
	TypeCSV  FileType = "csv"
	TypeXLSX FileType = "xlsx"
	TypeXLS  FileType = "xls"
	TypePPTX FileType = "pptx"
	TypePPT  FileType = "ppt"
)

const (
	// MaxFileSize is the largest accepted upload (100 MiB), the File Search limit.
	MaxFileSize = 100 << 20

	MaxSummaryLength = 300
	MaxKeywords      = 6
	MaxKeywordLength = 50
)

var allowedTypes = map[FileType]struct{}{
	TypePDF: {}, TypeDOCX: {}, TypeDOC: {}, TypeTXT: {}, TypeMD: {},
	TypeCSV: {}, TypeXLSX: {}, TypeXLS: {}, TypePPTX: {}, TypePPT: {},
}

// Allowed reports whether t is in the fixed allowed set.
func (t FileType) Allowed() bool {
	_, ok := allowedTypes[t]
	return ok
}

// AllowedTypes returns the allowed set in a stable order.
func AllowedTypes() []FileType {
	return []FileType{TypePDF, TypeDOCX, TypeDOC, TypeTXT, TypeMD, TypeCSV, TypeXLSX, TypeXLS, TypePPTX, TypePPT}
}

// Document is the durable metadata record for one ingested upload.
type Document struct {
	ID        string
	Name      string
	Type      FileType
	SizeBytes int64

	StoragePath string
	PublicURL   *string

	// StoreName is the File Search store the document was imported into.
	// Once set it never changes.
	StoreName     string
	DocumentName  *string
	OperationName *string

	Summary  *string
	Keywords []string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Indexed reports whether the record is linked to an index store.
func (d *Document) Indexed() bool {
	return strings.TrimSpace(d.StoreName) != ""
}

// NormalizeSummary trims s, bounds it to MaxSummaryLength runes and maps
// empty to nil.
func NormalizeSummary(s string) *string {
	s = truncateRunes(strings.TrimSpace(s), MaxSummaryLength)
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// NormalizeKeywords trims every keyword, drops empty entries, bounds each to
// MaxKeywordLength runes and keeps at most MaxKeywords. It never returns nil.
func NormalizeKeywords(in []string) []string {
	out := make([]string, 0, len(in))
	for _, k := range in {
		k = strings.TrimSpace(truncateRunes(strings.TrimSpace(k), MaxKeywordLength))
		if k == "" {
			continue
		}
		out = append(out, k)
		if len(out) == MaxKeywords {
			break
		}
	}
	return out
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}

// StringPtr returns nil for empty s.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
