// Package storage contains in-memory gateways used for local development and
// tests. They honor the same contracts as the PostgreSQL and object-storage
// adapters.
package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dharsanguruparan/RagDrop/internal/apperr"
	"github.com/dharsanguruparan/RagDrop/internal/model"
)

// MemoryStore is an in-memory metadata store guarded by an RWMutex.
type MemoryStore struct {
	mu    sync.RWMutex
	files map[string]*entry
	seq   int64
	now   func() time.Time
}

// entry keeps an insertion sequence so records created within the same clock
// tick still list in a stable newest-first order.
type entry struct {
	doc model.Document
	seq int64
}

// NewMemoryStore constructs a MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		files: make(map[string]*entry),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// Create assigns an id and timestamps, then stores a copy of doc.
func (m *MemoryStore) Create(ctx context.Context, doc *model.Document) error {
	if err := ctx.Err(); err != nil {
		return apperr.Wrap(apperr.StoreUnavailable, "save metadata", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	doc.ID = uuid.NewString()
	doc.CreatedAt = now
	doc.UpdatedAt = now
	m.seq++
	m.files[doc.ID] = &entry{doc: clone(*doc), seq: m.seq}
	return nil
}

// Get returns a copy of the record.
func (m *MemoryStore) Get(ctx context.Context, id string) (*model.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.files[id]
	if !ok {
		return nil, apperr.New(apperr.NotFound, "file not found")
	}
	doc := clone(e.doc)
	return &doc, nil
}

// List returns records ordered by creation time, newest first.
func (m *MemoryStore) List(ctx context.Context, page, pageSize int) ([]model.Document, int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	all := make([]*entry, 0, len(m.files))
	for _, e := range m.files {
		all = append(all, e)
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].doc.CreatedAt.Equal(all[j].doc.CreatedAt) {
			return all[i].doc.CreatedAt.After(all[j].doc.CreatedAt)
		}
		return all[i].seq > all[j].seq
	})
	total := int64(len(all))
	out := []model.Document{}
	offset, limit, ok := model.Window(page, pageSize)
	if !ok || offset < 0 || offset >= len(all) {
		return out, total, nil
	}
	end := len(all)
	if limit < end-offset {
		end = offset + limit
	}
	for _, e := range all[offset:end] {
		out = append(out, clone(e.doc))
	}
	return out, total, nil
}

// Count returns the number of records.
func (m *MemoryStore) Count(ctx context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return int64(len(m.files)), nil
}

// Delete removes the record.
func (m *MemoryStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.files[id]; !ok {
		return apperr.New(apperr.NotFound, "file not found")
	}
	delete(m.files, id)
	return nil
}

// Len returns the number of stored records.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.files)
}

func clone(d model.Document) model.Document {
	if d.Keywords != nil {
		d.Keywords = append([]string(nil), d.Keywords...)
	}
	return d
}
