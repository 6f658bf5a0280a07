// Package gcsstorage stores uploads in a Google Cloud Storage bucket.
package gcsstorage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/dharsanguruparan/RagDrop/internal/apperr"
	"github.com/dharsanguruparan/RagDrop/internal/config"
)

const defaultPublicBase = "https://storage.googleapis.com"

// Storage is a BlobStore backed by one GCS bucket.
type Storage struct {
	client     *storage.Client
	bucket     string
	projectID  string
	publicBase string
}

// New creates a GCS client. Credentials come from GOOGLE_APPLICATION_CREDENTIALS_JSON,
// GOOGLE_APPLICATION_CREDENTIALS or the ambient default credentials.
func New(ctx context.Context, cfg *config.Config) (*Storage, error) {
	opts := append(clientOptionsFromEnv(), option.WithScopes(storage.ScopeReadWrite))
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("init gcs: %w", err)
	}
	base := cfg.GCSPublicURL
	if base == "" {
		base = defaultPublicBase
	}
	return &Storage{
		client:     client,
		bucket:     cfg.GCSBucket,
		projectID:  cfg.GCSProjectID,
		publicBase: strings.TrimRight(base, "/"),
	}, nil
}

func clientOptionsFromEnv() []option.ClientOption {
	creds := strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS_JSON"))
	if creds == "" {
		creds = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}
	if creds == "" {
		return nil
	}
	if strings.HasPrefix(creds, "{") {
		return []option.ClientOption{option.WithCredentialsJSON([]byte(creds))}
	}
	return []option.ClientOption{option.WithCredentialsFile(creds)}
}

// Close releases the underlying client.
func (s *Storage) Close() error {
	return s.client.Close()
}

// EnsureContainer creates the bucket when it does not exist.
func (s *Storage) EnsureContainer(ctx context.Context) error {
	b := s.client.Bucket(s.bucket)
	_, err := b.Attrs(ctx)
	if err == nil {
		return nil
	}
	if !errors.Is(err, storage.ErrBucketNotExist) {
		return fmt.Errorf("check bucket %s: %w", s.bucket, err)
	}
	if s.projectID == "" {
		return fmt.Errorf("bucket %s does not exist and GCS_PROJECT_ID is unset", s.bucket)
	}
	if err := b.Create(ctx, s.projectID, nil); err != nil {
		return fmt.Errorf("create bucket %s: %w", s.bucket, err)
	}
	return nil
}

// Put streams size bytes from r into the object at location.
func (s *Storage) Put(ctx context.Context, location string, r io.Reader, size int64, contentType string) (string, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	w := s.client.Bucket(s.bucket).Object(location).NewWriter(ctx)
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.ContentType = contentType
	n, err := io.Copy(w, io.LimitReader(r, size))
	if err != nil {
		cancel()
		_ = w.Close()
		return "", apperr.Wrap(apperr.StorageWriteFailed, "storage upload failed", err)
	}
	if n != size {
		cancel()
		_ = w.Close()
		return "", apperr.Newf(apperr.StorageWriteFailed, "storage upload failed: wrote %d of %d bytes", n, size)
	}
	if err := w.Close(); err != nil {
		return "", apperr.Wrap(apperr.StorageWriteFailed, "storage upload failed", err)
	}
	return s.publicBase + "/" + s.bucket + "/" + strings.TrimLeft(location, "/"), nil
}

// Delete removes the object. Missing objects are not an error.
func (s *Storage) Delete(ctx context.Context, location string) error {
	err := s.client.Bucket(s.bucket).Object(location).Delete(ctx)
	if err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return fmt.Errorf("delete gcs object %q in bucket %q: %w", location, s.bucket, err)
	}
	return nil
}

// PresignGet returns a V4 signed GET URL.
func (s *Storage) PresignGet(_ context.Context, location string, ttl time.Duration) (string, error) {
	u, err := s.client.Bucket(s.bucket).SignedURL(location, &storage.SignedURLOptions{
		Method:  "GET",
		Expires: time.Now().Add(ttl),
		Scheme:  storage.SigningSchemeV4,
	})
	if err != nil {
		return "", fmt.Errorf("sign gcs url: %w", err)
	}
	return u, nil
}
