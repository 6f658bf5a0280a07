// Package excerpt produces the leading text of an upload for summarization.
package excerpt

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	pdf "github.com/ledongthuc/pdf"

	"github.com/dharsanguruparan/RagDrop/internal/model"
)

// Limit is the excerpt length in characters.
const Limit = 5000

// PrefixBytes is enough raw bytes to decode Limit characters.
const PrefixBytes = Limit * utf8.UTFMax

// Prefix is an io.Writer that keeps the first n bytes written to it.
type Prefix struct {
	n   int
	buf []byte
}

// NewPrefix returns a Prefix keeping n bytes.
func NewPrefix(n int) *Prefix {
	return &Prefix{n: n, buf: make([]byte, 0, n)}
}

func (p *Prefix) Write(b []byte) (int, error) {
	if room := p.n - len(p.buf); room > 0 {
		if len(b) < room {
			room = len(b)
		}
		p.buf = append(p.buf, b[:room]...)
	}
	return len(b), nil
}

// Bytes returns the captured prefix.
func (p *Prefix) Bytes() []byte { return p.buf }

// Extract returns up to Limit characters of text. PDFs are parsed through ra;
// other types, and PDFs that fail to parse, use the raw prefix.
func Extract(t model.FileType, ra io.ReaderAt, size int64, prefix []byte) string {
	if t == model.TypePDF && ra != nil && size > 0 {
		if text, err := PDFText(ra, size, Limit); err == nil && strings.TrimSpace(text) != "" {
			return text
		}
	}
	return Text(prefix, Limit)
}

// Text decodes raw as UTF-8, dropping invalid sequences and NUL bytes, and
// keeps at most limit characters.
func Text(raw []byte, limit int) string {
	s := strings.ToValidUTF8(string(raw), "")
	s = strings.ReplaceAll(s, "\x00", "")
	return truncate(s, limit)
}

// PDFText reads plain text page by page until limit characters are collected.
func PDFText(ra io.ReaderAt, size int64, limit int) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("parse pdf: %v", r)
		}
	}()
	doc, err := pdf.NewReader(ra, size)
	if err != nil {
		return "", fmt.Errorf("new pdf reader: %w", err)
	}
	var b strings.Builder
	total := doc.NumPage()
	for page := 1; page <= total; page++ {
		p := doc.Page(page)
		if p.V.IsNull() {
			continue
		}
		content, err := p.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("page %d: %w", page, err)
		}
		b.WriteString(content)
		b.WriteString("\n")
		if utf8.RuneCountInString(b.String()) >= limit {
			break
		}
	}
	return truncate(b.String(), limit), nil
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
