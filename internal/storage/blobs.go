package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"sync"
	"time"

	"github.com/dharsanguruparan/RagDrop/internal/apperr"
)

// MemoryBlobs is an in-memory blob store.
type MemoryBlobs struct {
	mu      sync.RWMutex
	bucket  string
	objects map[string][]byte
}

// NewMemoryBlobs constructs a MemoryBlobs for the named bucket.
func NewMemoryBlobs(bucket string) *MemoryBlobs {
	return &MemoryBlobs{bucket: bucket, objects: make(map[string][]byte)}
}

func (b *MemoryBlobs) EnsureContainer(ctx context.Context) error { return nil }

// Put reads exactly size bytes from r.
func (b *MemoryBlobs) Put(ctx context.Context, location string, r io.Reader, size int64, contentType string) (string, error) {
	data, err := io.ReadAll(io.LimitReader(r, size))
	if err != nil {
		return "", apperr.Wrap(apperr.StorageWriteFailed, "storage upload failed", err)
	}
	if int64(len(data)) != size {
		return "", apperr.Newf(apperr.StorageWriteFailed, "storage upload failed: short body (%d of %d bytes)", len(data), size)
	}
	b.mu.Lock()
	b.objects[location] = data
	b.mu.Unlock()
	return b.url(location), nil
}

func (b *MemoryBlobs) Delete(ctx context.Context, location string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.objects, location)
	return nil
}

func (b *MemoryBlobs) PresignGet(ctx context.Context, location string, ttl time.Duration) (string, error) {
	b.mu.RLock()
	_, ok := b.objects[location]
	b.mu.RUnlock()
	if !ok {
		return "", apperr.New(apperr.NotFound, "object not found")
	}
	return fmt.Sprintf("%s?expires=%d", b.url(location), time.Now().Add(ttl).Unix()), nil
}

// Object returns the stored bytes for location.
func (b *MemoryBlobs) Object(location string) ([]byte, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	data, ok := b.objects[location]
	return data, ok
}

// Len returns the number of stored objects.
func (b *MemoryBlobs) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.objects)
}

func (b *MemoryBlobs) url(location string) string {
	return (&url.URL{Scheme: "memory", Host: b.bucket, Path: "/" + location}).String()
}
