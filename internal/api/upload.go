package api

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"

	"github.com/dharsanguruparan/RagDrop/internal/apperr"
)

// multipartOverhead is the allowance for boundaries and part headers.
const multipartOverhead = 1 << 20

type tempUpload struct {
	f           *os.File
	path        string
	size        int64
	contentType string
	filename    string
}

// receiveUpload streams the "file" part to a temp file so the pipeline gets a
// rewindable body.
func (s *Server) receiveUpload(c *gin.Context) (*tempUpload, error) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.opts.MaxUploadSize+multipartOverhead)
	mr, err := c.Request.MultipartReader()
	if err != nil {
		return nil, apperr.Wrap(apperr.InvalidInput, "expecting multipart form", err)
	}
	part, err := nextFilePart(mr)
	if err != nil {
		if isTooLarge(err) {
			return nil, s.tooLarge()
		}
		return nil, apperr.Wrap(apperr.InvalidInput, "no file provided", err)
	}
	defer part.Close()
	return s.persistTemp(part)
}

func (s *Server) persistTemp(part *multipart.Part) (*tempUpload, error) {
	tmpFile, err := os.CreateTemp("", "ragdrop-*")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	fail := func(err error) (*tempUpload, error) {
		tmpFile.Close()
		os.Remove(tmpFile.Name())
		return nil, err
	}

	written, err := io.Copy(tmpFile, io.LimitReader(part, s.opts.MaxUploadSize+1))
	if err != nil {
		if isTooLarge(err) {
			return fail(s.tooLarge())
		}
		return fail(apperr.Wrap(apperr.InvalidInput, "read file", err))
	}
	if written > s.opts.MaxUploadSize {
		return fail(s.tooLarge())
	}
	if _, err := tmpFile.Seek(0, io.SeekStart); err != nil {
		return fail(fmt.Errorf("rewind temp file: %w", err))
	}
	return &tempUpload{
		f:           tmpFile,
		path:        tmpFile.Name(),
		size:        written,
		contentType: part.Header.Get("Content-Type"),
		filename:    part.FileName(),
	}, nil
}

func (s *Server) tooLarge() error {
	return apperr.Newf(apperr.PayloadTooLarge, "file exceeds maximum size (%d bytes)", s.opts.MaxUploadSize)
}

func isTooLarge(err error) bool {
	var mbe *http.MaxBytesError
	return errors.As(err, &mbe)
}

func nextFilePart(mr *multipart.Reader) (*multipart.Part, error) {
	for {
		part, err := mr.NextPart()
		if err != nil {
			return nil, err
		}
		if part.FormName() == "file" {
			return part, nil
		}
		part.Close()
	}
}
