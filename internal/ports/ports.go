// Package ports declares the gateway contracts the orchestrators depend on.
// Concrete adapters live in s3storage, gcsstorage, storage, repository and index.
package ports

import (
	"context"
	"io"
	"time"

	"github.com/dharsanguruparan/RagDrop/internal/model"
)

// BlobStore persists raw upload bytes.
type BlobStore interface {
	// EnsureContainer creates the bucket if missing. Idempotent.
	EnsureContainer(ctx context.Context) error
	// Put writes size bytes from r at location and returns an access URL.
	// Failures carry apperr.StorageWriteFailed. Put never retries.
	Put(ctx context.Context, location string, r io.Reader, size int64, contentType string) (string, error)
	Delete(ctx context.Context, location string) error
	// PresignGet returns a short-lived download URL.
	PresignGet(ctx context.Context, location string, ttl time.Duration) (string, error)
}

// MetadataStore persists document records.
type MetadataStore interface {
	// Create assigns doc.ID, doc.CreatedAt and doc.UpdatedAt.
	Create(ctx context.Context, doc *model.Document) error
	Get(ctx context.Context, id string) (*model.Document, error)
	// List returns records newest first plus the total record count.
	List(ctx context.Context, page, pageSize int) ([]model.Document, int64, error)
	Count(ctx context.Context) (int64, error)
	Delete(ctx context.Context, id string) error
}

// ImportResult describes a finished import job.
type ImportResult struct {
	StoreName     string
	OperationName string
	// DocumentName is nil when the job finished without exposing a document id.
	DocumentName *string
}

// Summary is the AI enrichment of a document.
type Summary struct {
	Text     string
	Keywords []string
	// Failed marks a placeholder produced when generation did not succeed.
	Failed bool
}

// Indexer owns the File Search store, import jobs, summaries and chat.
type Indexer interface {
	ResolveStore(ctx context.Context) (string, error)
	// ImportFile uploads r into the store and blocks until the import job ends.
	ImportFile(ctx context.Context, r io.Reader, size int64, displayName, mimeType string) (ImportResult, error)
	// Summarize never fails; see Summary.Failed.
	Summarize(ctx context.Context, excerpt, displayName string) Summary
	Chat(ctx context.Context, storeName, message string) (string, error)
	DeleteDocument(ctx context.Context, documentName string) error
}
