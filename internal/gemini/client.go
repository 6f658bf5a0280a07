// Package gemini adapts the google.golang.org/genai File Search surface to the
// narrow store, upload, operation, generation and delete calls the index
// gateway and the cleanup worker need.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"google.golang.org/genai"

	"github.com/dharsanguruparan/RagDrop/internal/logger"
)

const defaultMIMEType = "application/octet-stream"

// Options configures a Client.
type Options struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
	// MaxRetries is the number of extra attempts for retryable failures.
	MaxRetries int
	// InitialBackoff is the first retry delay; zero means 500ms.
	InitialBackoff time.Duration
	Logger         *logger.Logger
}

// Client wraps a genai.Client bound to the Gemini Developer API.
type Client struct {
	genai *genai.Client
	log   *logger.Logger
}

// New constructs a Client. It fails when the API key is empty.
func New(ctx context.Context, opts Options) (*Client, error) {
	log := opts.Logger
	if log == nil {
		log = logger.NewNop()
	}
	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     opts.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: opts.HTTPClient,
		HTTPOptions: genai.HTTPOptions{
			BaseURL:      opts.BaseURL,
			RetryOptions: retryOptions(opts.MaxRetries, opts.InitialBackoff),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("genai client: %w", err)
	}
	return &Client{genai: gc, log: log.With("client", "gemini")}, nil
}

func retryOptions(maxRetries int, initial time.Duration) *genai.HTTPRetryOptions {
	if maxRetries < 0 {
		maxRetries = 0
	}
	if initial <= 0 {
		initial = 500 * time.Millisecond
	}
	delay := initial.Seconds()
	jitter := delay / 2
	maxDelay := 10.0
	attempts := int32(maxRetries + 1)
	return &genai.HTTPRetryOptions{
		Attempts:     &attempts,
		InitialDelay: &delay,
		MaxDelay:     &maxDelay,
		Jitter:       &jitter,
	}
}

// StatusCode returns the HTTP status carried by a genai API error, or 0.
func StatusCode(err error) int {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	return 0
}

// Store is a File Search store.
type Store struct {
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
}

// OperationError is the status of a failed operation.
type OperationError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type documentRef struct {
	DocumentName string `json:"documentName"`
}

// Operation is a long-running import job.
type Operation struct {
	Name     string          `json:"name"`
	Done     bool            `json:"done"`
	Error    *OperationError `json:"error,omitempty"`
	Response *documentRef    `json:"response,omitempty"`
	Metadata *documentRef    `json:"metadata,omitempty"`
}

// DocumentName returns the imported document's name from the response, falling
// back to the metadata. Empty when neither carries one.
func (o Operation) DocumentName() string {
	if o.Response != nil && o.Response.DocumentName != "" {
		return o.Response.DocumentName
	}
	if o.Metadata != nil {
		return o.Metadata.DocumentName
	}
	return ""
}

func fromGenai(op *genai.UploadToFileSearchStoreOperation) Operation {
	if op == nil {
		return Operation{}
	}
	out := Operation{Name: op.Name, Done: op.Done}
	if op.Error != nil {
		out.Error = &OperationError{Message: stringField(op.Error, "message")}
		out.Error.Code = intField(op.Error, "code")
		if out.Error.Message == "" {
			out.Error.Message = "operation failed"
		}
	}
	if op.Response != nil && op.Response.DocumentName != "" {
		out.Response = &documentRef{DocumentName: op.Response.DocumentName}
	}
	if name := stringField(op.Metadata, "documentName"); name != "" {
		out.Metadata = &documentRef{DocumentName: name}
	}
	return out
}

func stringField(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

func intField(m map[string]any, key string) int {
	switch v := m[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	case int32:
		return int(v)
	case int64:
		return int(v)
	case string:
		n, _ := strconv.Atoi(v)
		return n
	}
	return 0
}

// ListStores returns every store visible to the API key.
func (c *Client) ListStores(ctx context.Context) ([]Store, error) {
	var out []Store
	for s, err := range c.genai.FileSearchStores.All(ctx) {
		if err != nil {
			return nil, err
		}
		out = append(out, Store{Name: s.Name, DisplayName: s.DisplayName})
	}
	return out, nil
}

// CreateStore creates a store with the given display name.
func (c *Client) CreateStore(ctx context.Context, displayName string) (Store, error) {
	s, err := c.genai.FileSearchStores.Create(ctx, &genai.CreateFileSearchStoreConfig{DisplayName: displayName})
	if err != nil {
		return Store{}, err
	}
	return Store{Name: s.Name, DisplayName: s.DisplayName}, nil
}

// UploadToStore streams size bytes from r into store over the resumable upload
// protocol and returns the import operation.
func (c *Client) UploadToStore(ctx context.Context, store string, r io.Reader, size int64, displayName, mimeType string) (Operation, error) {
	if mimeType == "" {
		mimeType = defaultMIMEType
	}
	headers := http.Header{}
	headers.Set("X-Goog-Upload-Header-Content-Length", strconv.FormatInt(size, 10))
	op, err := c.genai.FileSearchStores.UploadToFileSearchStore(ctx, io.LimitReader(r, size), store, &genai.UploadToFileSearchStoreConfig{
		MIMEType:    mimeType,
		DisplayName: displayName,
		HTTPOptions: &genai.HTTPOptions{Headers: headers},
	})
	if err != nil {
		return Operation{}, err
	}
	c.log.Debug("Upload accepted", "store", store, "operation", op.Name, "size_bytes", size)
	return fromGenai(op), nil
}

// GetOperation fetches the current state of an operation.
func (c *Client) GetOperation(ctx context.Context, name string) (Operation, error) {
	op, err := c.genai.Operations.GetUploadToFileSearchStoreOperation(ctx, &genai.UploadToFileSearchStoreOperation{Name: name}, nil)
	if err != nil {
		return Operation{}, err
	}
	return fromGenai(op), nil
}

// GenerateContent asks model to answer prompt, grounded on the given stores
// when any are named. It returns the concatenated text of the first candidate.
func (c *Client) GenerateContent(ctx context.Context, model string, stores []string, prompt string) (string, error) {
	cfg := &genai.GenerateContentConfig{}
	if len(stores) > 0 {
		cfg.Tools = []*genai.Tool{{FileSearch: &genai.FileSearch{FileSearchStoreNames: stores}}}
	}
	resp, err := c.genai.Models.GenerateContent(ctx, model, []*genai.Content{
		genai.NewContentFromText(prompt, genai.RoleUser),
	}, cfg)
	if err != nil {
		return "", err
	}
	return resp.Text(), nil
}

// DeleteDocument force-deletes a document and its chunks from its store.
func (c *Client) DeleteDocument(ctx context.Context, name string) error {
	force := true
	return c.genai.FileSearchStores.Documents.Delete(ctx, name, &genai.DeleteDocumentConfig{Force: &force})
}
