// Package catalog lists, looks up and deletes document records.
package catalog

import (
	"context"
	"time"

	"github.com/dharsanguruparan/RagDrop/internal/apperr"
	"github.com/dharsanguruparan/RagDrop/internal/logger"
	"github.com/dharsanguruparan/RagDrop/internal/model"
	"github.com/dharsanguruparan/RagDrop/internal/ports"
)

// Cleaner removes the external copies of a deleted record. It never fails.
type Cleaner interface {
	DeleteBlob(ctx context.Context, location string)
	DeleteIndexDocument(ctx context.Context, documentName *string)
}

// Presigner issues short-lived download URLs.
type Presigner interface {
	PresignGet(ctx context.Context, location string, ttl time.Duration) (string, error)
}

// Catalog serves read and delete requests against the metadata store.
type Catalog struct {
	meta      ports.MetadataStore
	presigner Presigner
	cleaner   Cleaner
	log       *logger.Logger
	urlTTL    time.Duration
}

// New builds a Catalog.
func New(meta ports.MetadataStore, presigner Presigner, cleaner Cleaner, urlTTL time.Duration, log *logger.Logger) *Catalog {
	if log == nil {
		log = logger.NewNop()
	}
	if urlTTL <= 0 {
		urlTTL = 15 * time.Minute
	}
	return &Catalog{
		meta:      meta,
		presigner: presigner,
		cleaner:   cleaner,
		log:       log.With("component", "catalog"),
		urlTTL:    urlTTL,
	}
}

// List returns one page of records, newest first. Pages past the end are empty.
func (c *Catalog) List(ctx context.Context, page, pageSize int) (model.Page, error) {
	if page < 1 {
		return model.Page{}, apperr.New(apperr.InvalidInput, "page must be >= 1")
	}
	if pageSize < 1 || pageSize > model.MaxPageSize {
		return model.Page{}, apperr.Newf(apperr.InvalidInput, "page_size must be between 1 and %d", model.MaxPageSize)
	}
	var (
		docs  []model.Document
		total int64
		err   error
	)
	if _, _, ok := model.Window(page, pageSize); ok {
		docs, total, err = c.meta.List(ctx, page, pageSize)
	} else {
		// The offset overflows int, so only the total is fetched.
		total, err = c.meta.Count(ctx)
	}
	if err != nil {
		return model.Page{}, err
	}
	if docs == nil {
		docs = []model.Document{}
	}
	return model.Page{
		Files: docs,
		Pagination: model.Pagination{
			Page:       page,
			PageSize:   pageSize,
			TotalPages: model.TotalPages(total, pageSize),
			TotalFiles: total,
		},
	}, nil
}

// Get returns a record or NotFound.
func (c *Catalog) Get(ctx context.Context, id string) (*model.Document, error) {
	return c.meta.Get(ctx, id)
}

// Delete removes the record, then its blob and index document. Only the
// record removal can fail the call.
func (c *Catalog) Delete(ctx context.Context, id string) error {
	doc, err := c.meta.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := c.meta.Delete(ctx, id); err != nil {
		return err
	}
	c.log.Info("File deleted", "id", id, "location", doc.StoragePath)
	c.cleaner.DeleteBlob(ctx, doc.StoragePath)
	c.cleaner.DeleteIndexDocument(ctx, doc.DocumentName)
	return nil
}

// DownloadURL returns a presigned URL for the record's blob.
func (c *Catalog) DownloadURL(ctx context.Context, id string) (string, error) {
	doc, err := c.meta.Get(ctx, id)
	if err != nil {
		return "", err
	}
	u, err := c.presigner.PresignGet(ctx, doc.StoragePath, c.urlTTL)
	if err != nil {
		if apperr.KindOf(err) != apperr.Unknown {
			return "", err
		}
		return "", apperr.Wrap(apperr.Unknown, "create download url", err)
	}
	return u, nil
}
