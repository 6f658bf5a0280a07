// Package validate checks uploads against the size and type policy before any
// external side effect is attempted.
package validate

import (
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"strings"

	"github.com/dharsanguruparan/RagDrop/internal/apperr"
	"github.com/dharsanguruparan/RagDrop/internal/model"
)

var mimeToType = map[string]model.FileType{
	"application/pdf":    model.TypePDF,
	"application/msword": model.TypeDOC,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document":   model.TypeDOCX,
	"application/vnd.ms-excel":                                                  model.TypeXLS,
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":         model.TypeXLSX,
	"application/vnd.ms-powerpoint":                                             model.TypePPT,
	"application/vnd.openxmlformats-officedocument.presentationml.presentation": model.TypePPTX,
	"text/markdown": model.TypeMD,
	"text/plain":    model.TypeTXT,
	"text/csv":      model.TypeCSV,
}

// Candidate is an upload as declared by the client.
type Candidate struct {
	Filename    string
	Size        int64
	ContentType string
}

// Result is a verified upload.
type Result struct {
	Type model.FileType
	Size int64
}

// Validator enforces the upload policy.
type Validator struct {
	maxSize int64
}

// New returns a Validator with the given size limit; maxSize <= 0 means model.MaxFileSize.
func New(maxSize int64) *Validator {
	if maxSize <= 0 {
		maxSize = model.MaxFileSize
	}
	return &Validator{maxSize: maxSize}
}

// Check validates c.
func (v *Validator) Check(c Candidate) (Result, error) {
	name := strings.TrimSpace(c.Filename)
	if name == "" {
		return Result{}, apperr.New(apperr.InvalidInput, "file must have a filename")
	}
	if c.Size > v.maxSize {
		return Result{}, apperr.Newf(apperr.PayloadTooLarge,
			"file size (%d bytes) exceeds maximum (%d bytes)", c.Size, v.maxSize)
	}
	if c.Size <= 0 {
		return Result{}, apperr.New(apperr.InvalidInput, "file is empty")
	}
	ft := ResolveType(name, c.ContentType)
	if !ft.Allowed() {
		return Result{}, apperr.Newf(apperr.InvalidInput, "file type '%s' not allowed", ft)
	}
	return Result{Type: ft, Size: c.Size}, nil
}

// CheckStream measures body by seeking (no bytes are consumed), validates, and
// leaves body positioned at its start.
func (v *Validator) CheckStream(filename, contentType string, body io.Seeker) (Result, error) {
	size, err := Measure(body)
	if err != nil {
		return Result{}, apperr.Wrap(apperr.InvalidInput, "unreadable upload", err)
	}
	return v.Check(Candidate{Filename: filename, Size: size, ContentType: contentType})
}

// Measure returns the length of s and rewinds it to the start.
func Measure(s io.Seeker) (int64, error) {
	size, err := s.Seek(0, io.SeekEnd)
	if err != nil {
		return 0, fmt.Errorf("seek end: %w", err)
	}
	if _, err := s.Seek(0, io.SeekStart); err != nil {
		return 0, fmt.Errorf("rewind: %w", err)
	}
	return size, nil
}

// ResolveType prefers the filename's extension when it is allowed, then the
// declared content type (or the type implied by the extension when none was
// declared), then the raw extension.
func ResolveType(filename, contentType string) model.FileType {
	ext := rawExtension(filename)
	if ext.Allowed() {
		return ext
	}
	mediaType := contentType
	if strings.TrimSpace(mediaType) == "" {
		mediaType = mime.TypeByExtension(filepath.Ext(filename))
	}
	if parsed, _, err := mime.ParseMediaType(mediaType); err == nil {
		if ft, ok := mimeToType[strings.ToLower(parsed)]; ok {
			return ft
		}
	}
	return ext
}

// MediaType returns the canonical MIME type of an allowed file type.
func MediaType(t model.FileType) string {
	for mt, ft := range mimeToType {
		if ft == t {
			return mt
		}
	}
	return "application/octet-stream"
}

// rawExtension is the lower-cased text after the last dot, or the whole name
// when there is no dot.
func rawExtension(filename string) model.FileType {
	name := filepath.Base(filename)
	if i := strings.LastIndex(name, "."); i >= 0 {
		name = name[i+1:]
	}
	return model.FileType(strings.ToLower(strings.TrimSpace(name)))
}
