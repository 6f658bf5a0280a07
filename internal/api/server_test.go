package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dharsanguruparan/RagDrop/internal/apperr"
	"github.com/dharsanguruparan/RagDrop/internal/catalog"
	"github.com/dharsanguruparan/RagDrop/internal/chat"
	"github.com/dharsanguruparan/RagDrop/internal/cleanup"
	"github.com/dharsanguruparan/RagDrop/internal/ingest"
	"github.com/dharsanguruparan/RagDrop/internal/model"
	"github.com/dharsanguruparan/RagDrop/internal/ports"
	"github.com/dharsanguruparan/RagDrop/internal/storage"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubIndex struct {
	chatReply string
	chatErr   error
	importErr error
	deleted   []string
}

func (s *stubIndex) ResolveStore(ctx context.Context) (string, error) {
	return "fileSearchStores/test", nil
}

func (s *stubIndex) ImportFile(ctx context.Context, r io.Reader, size int64, displayName, mimeType string) (ports.ImportResult, error) {
	if _, err := io.Copy(io.Discard, r); err != nil {
		return ports.ImportResult{}, err
	}
	if s.importErr != nil {
		return ports.ImportResult{}, s.importErr
	}
	doc := "fileSearchStores/test/documents/" + displayName
	return ports.ImportResult{StoreName: "fileSearchStores/test", OperationName: "operations/1", DocumentName: &doc}, nil
}

func (s *stubIndex) Summarize(ctx context.Context, excerpt, displayName string) ports.Summary {
	return ports.Summary{Text: "A short report.", Keywords: []string{"report", "q3"}}
}

func (s *stubIndex) Chat(ctx context.Context, storeName, message string) (string, error) {
	return s.chatReply, s.chatErr
}

func (s *stubIndex) DeleteDocument(ctx context.Context, name string) error {
	s.deleted = append(s.deleted, name)
	return nil
}

type harness struct {
	srv   *Server
	meta  *storage.MemoryStore
	blobs *storage.MemoryBlobs
	index *stubIndex
}

func newHarness(t *testing.T, opts Options) *harness {
	t.Helper()
	meta := storage.NewMemoryStore()
	blobs := storage.NewMemoryBlobs("test-bucket")
	index := &stubIndex{chatReply: "It covers Q3."}
	comp := cleanup.New(blobs, index, nil)
	pipe := ingest.New(blobs, index, meta, comp, nil)
	cat := catalog.New(meta, blobs, comp, time.Minute, nil)
	return &harness{
		srv:   New(opts, pipe, cat, chat.New(meta, index, nil), nil),
		meta:  meta,
		blobs: blobs,
		index: index,
	}
}

func (h *harness) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.srv.Handler().ServeHTTP(rec, req)
	return rec
}

func multipartBody(t *testing.T, field, filename, contentType string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, field, filename))
	if contentType != "" {
		h.Set("Content-Type", contentType)
	}
	part, err := w.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func (h *harness) upload(t *testing.T, filename, contentType string, content []byte) *httptest.ResponseRecorder {
	t.Helper()
	body, ct := multipartBody(t, "file", filename, contentType, content)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/files", body)
	req.Header.Set("Content-Type", ct)
	return h.do(req)
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) apiError {
	t.Helper()
	var env errorEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env.Error
}

func TestRootAndHealth(t *testing.T) {
	h := newHarness(t, Options{Version: "2.0.0"})

	rec := h.do(httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"version":"2.0.0"`)

	rec = h.do(httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, rec.Body.String())
}

func TestUploadCreatesRecord(t *testing.T) {
	h := newHarness(t, Options{})

	rec := h.upload(t, "notes.md", "text/markdown", []byte("# Q3\nRevenue grew."))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var got fileResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.NotEmpty(t, got.ID)
	assert.Equal(t, "notes.md", got.Name)
	assert.Equal(t, "md", got.Type)
	assert.Equal(t, int64(18), got.SizeBytes)
	require.NotNil(t, got.Summary)
	assert.Equal(t, "A short report.", *got.Summary)
	assert.Equal(t, []string{"report", "q3"}, got.Keywords)

	assert.Equal(t, 1, h.meta.Len())
	assert.Equal(t, 1, h.blobs.Len())
}

func TestUploadRejections(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		content  []byte
		max      int64
		status   int
		code     string
	}{
		{name: "unsupported type", filename: "tool.exe", content: []byte("MZ"), status: http.StatusBadRequest, code: "invalid_input"},
		{name: "empty file", filename: "empty.txt", content: nil, status: http.StatusBadRequest, code: "invalid_input"},
		{name: "too large", filename: "big.txt", content: bytes.Repeat([]byte("a"), 2048), max: 1024, status: http.StatusRequestEntityTooLarge, code: "payload_too_large"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, Options{MaxUploadSize: tt.max})
			rec := h.upload(t, tt.filename, "", tt.content)
			require.Equal(t, tt.status, rec.Code, rec.Body.String())
			assert.Equal(t, tt.code, decodeError(t, rec).Code)
			assert.Zero(t, h.meta.Len())
			assert.Zero(t, h.blobs.Len())
		})
	}
}

func TestUploadWithoutFilePart(t *testing.T) {
	h := newHarness(t, Options{})
	body, ct := multipartBody(t, "attachment", "a.txt", "", []byte("hi"))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/files", body)
	req.Header.Set("Content-Type", ct)

	rec := h.do(req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "no file provided", decodeError(t, rec).Message)
}

func TestUploadIndexFailureRemovesBlob(t *testing.T) {
	h := newHarness(t, Options{})
	h.index.importErr = apperr.Wrap(apperr.IndexFailed, "import job failed", errors.New("bad doc"))

	rec := h.upload(t, "doc.txt", "text/plain", []byte("hello"))
	require.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "index_failed", decodeError(t, rec).Code)
	assert.Zero(t, h.blobs.Len())
	assert.Zero(t, h.meta.Len())
}

func TestListPagination(t *testing.T) {
	h := newHarness(t, Options{})
	for i := 0; i < 3; i++ {
		rec := h.upload(t, fmt.Sprintf("f%d.txt", i), "text/plain", []byte("content"))
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec := h.do(httptest.NewRequest(http.MethodGet, "/api/v1/files?page=1&page_size=2", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var got fileListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Len(t, got.Files, 2)
	assert.Equal(t, paginationResponse{Page: 1, PageSize: 2, TotalPages: 2, TotalFiles: 3}, got.Pagination)

	rec = h.do(httptest.NewRequest(http.MethodGet, "/api/v1/files?page=9", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Empty(t, got.Files)
	assert.Equal(t, model.DefaultPageSize, got.Pagination.PageSize)
}

func TestListPageBeyondIntRange(t *testing.T) {
	h := newHarness(t, Options{})
	for i := 0; i < 3; i++ {
		rec := h.upload(t, fmt.Sprintf("f%d.txt", i), "text/plain", []byte("content"))
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec := h.do(httptest.NewRequest(http.MethodGet, "/api/v1/files?page=768614336404564652", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var got fileListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Empty(t, got.Files)
	assert.Equal(t, int64(3), got.Pagination.TotalFiles)
	assert.Equal(t, 1, got.Pagination.TotalPages)
	assert.Equal(t, 768614336404564652, got.Pagination.Page)
}

func TestListBadQuery(t *testing.T) {
	h := newHarness(t, Options{})
	for _, q := range []string{"page=abc", "page=0", "page_size=101", "page_size=0"} {
		rec := h.do(httptest.NewRequest(http.MethodGet, "/api/v1/files?"+q, nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code, q)
	}
}

func TestGetDeleteAndDownload(t *testing.T) {
	h := newHarness(t, Options{})
	rec := h.upload(t, "a.txt", "text/plain", []byte("alpha"))
	require.Equal(t, http.StatusCreated, rec.Code)
	var created fileResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	rec = h.do(httptest.NewRequest(http.MethodGet, "/api/v1/files/"+created.ID, nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = h.do(httptest.NewRequest(http.MethodGet, "/api/v1/files/"+created.ID+"/download", nil))
	require.Equal(t, http.StatusTemporaryRedirect, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get("Location"), "memory://test-bucket/"))

	rec = h.do(httptest.NewRequest(http.MethodDelete, "/api/v1/files/"+created.ID, nil))
	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Zero(t, h.blobs.Len())
	assert.Equal(t, []string{"fileSearchStores/test/documents/a.txt"}, h.index.deleted)

	rec = h.do(httptest.NewRequest(http.MethodGet, "/api/v1/files/"+created.ID, nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", decodeError(t, rec).Code)
}

func TestChat(t *testing.T) {
	h := newHarness(t, Options{})
	rec := h.upload(t, "a.txt", "text/plain", []byte("alpha"))
	require.Equal(t, http.StatusCreated, rec.Code)
	var created fileResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	post := func(id, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/chat/"+id, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		return h.do(req)
	}

	rec = post(created.ID, `{"message":"What is this about?"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"response":"It covers Q3."}`, rec.Body.String())

	rec = post(created.ID, `{"message":"   "}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = post(created.ID, `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = post("missing", `{"message":"hi"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	h.index.chatErr = apperr.New(apperr.EmptyResponse, "AI generated no response")
	rec = post(created.ID, `{"message":"hi"}`)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestUploadImportTimeoutIsIndexFailure(t *testing.T) {
	h := newHarness(t, Options{})
	h.index.importErr = apperr.Wrap(apperr.IndexFailed, "import timed out", context.DeadlineExceeded)

	rec := h.upload(t, "doc.txt", "text/plain", []byte("hello"))
	require.Equal(t, http.StatusBadGateway, rec.Code)
	e := decodeError(t, rec)
	assert.Equal(t, "index_failed", e.Code)
	assert.Equal(t, "import timed out", e.Message)
	assert.Zero(t, h.blobs.Len())
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{apperr.New(apperr.NotIndexed, "x"), http.StatusConflict, "not_indexed"},
		{apperr.New(apperr.StoreUnavailable, "x"), http.StatusServiceUnavailable, "store_unavailable"},
		{errors.New("boom"), http.StatusInternalServerError, "unknown"},
		{fmt.Errorf("wrapped: %w", context.DeadlineExceeded), http.StatusGatewayTimeout, "timeout"},
		{fmt.Errorf("wrapped: %w", context.Canceled), statusClientClosed, "canceled"},
		{apperr.Wrap(apperr.IndexFailed, "import timed out", context.DeadlineExceeded), http.StatusBadGateway, "index_failed"},
		{apperr.Wrap(apperr.IndexFailed, "x", context.Canceled), http.StatusBadGateway, "index_failed"},
		{apperr.Wrap(apperr.Unknown, "x", context.DeadlineExceeded), http.StatusGatewayTimeout, "timeout"},
	}
	for _, tt := range tests {
		status, code := statusFor(tt.err)
		assert.Equal(t, tt.status, status, tt.err.Error())
		assert.Equal(t, tt.code, code, tt.err.Error())
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	h := newHarness(t, Options{})
	h.srv.router.GET("/panic", func(c *gin.Context) { panic("kaboom") })

	rec := h.do(httptest.NewRequest(http.MethodGet, "/panic", nil))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "internal error", decodeError(t, rec).Message)
}
