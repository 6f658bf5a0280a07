// Package cleanup runs best-effort compensating deletes after a failed ingestion
// step or a metadata delete.
package cleanup

import (
	"context"
	"time"

	"github.com/dharsanguruparan/RagDrop/internal/logger"
)

// BlobDeleter removes a blob.
type BlobDeleter interface {
	Delete(ctx context.Context, location string) error
}

// DocumentDeleter removes a remote index document.
type DocumentDeleter interface {
	DeleteDocument(ctx context.Context, documentName string) error
}

// Retrier schedules a later attempt for a delete that failed inline.
type Retrier interface {
	RetryBlobDelete(ctx context.Context, location string) error
	RetryIndexDocumentDelete(ctx context.Context, documentName string) error
}

const defaultTimeout = 30 * time.Second

// Compensator deletes side effects without ever reporting failure to the caller.
type Compensator struct {
	blobs   BlobDeleter
	index   DocumentDeleter
	retrier Retrier
	log     *logger.Logger
	timeout time.Duration
}

// Option configures a Compensator.
type Option func(*Compensator)

// WithRetrier enqueues failed deletes for a later attempt.
func WithRetrier(r Retrier) Option {
	return func(c *Compensator) { c.retrier = r }
}

// WithTimeout bounds each delete attempt.
func WithTimeout(d time.Duration) Option {
	return func(c *Compensator) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// New builds a Compensator. index may be nil when remote deletes are unsupported.
func New(blobs BlobDeleter, index DocumentDeleter, log *logger.Logger, opts ...Option) *Compensator {
	if log == nil {
		log = logger.NewNop()
	}
	c := &Compensator{
		blobs:   blobs,
		index:   index,
		log:     log.With("component", "cleanup"),
		timeout: defaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// DeleteBlob removes location. It runs even when ctx is already cancelled.
func (c *Compensator) DeleteBlob(ctx context.Context, location string) {
	if location == "" {
		return
	}
	dctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
	defer cancel()
	err := c.blobs.Delete(dctx, location)
	if err == nil {
		return
	}
	c.log.Warn("Compensating blob delete failed", "location", location, "error", err)
	if c.retrier != nil {
		if qerr := c.retrier.RetryBlobDelete(dctx, location); qerr != nil {
			c.log.Warn("Enqueue blob cleanup failed", "location", location, "error", qerr)
		}
	}
}

// DeleteIndexDocument removes a remote document when one is known.
func (c *Compensator) DeleteIndexDocument(ctx context.Context, documentName *string) {
	if c.index == nil || documentName == nil || *documentName == "" {
		return
	}
	name := *documentName
	dctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
	defer cancel()
	err := c.index.DeleteDocument(dctx, name)
	if err == nil {
		return
	}
	c.log.Warn("Compensating index delete failed", "document", name, "error", err)
	if c.retrier != nil {
		if qerr := c.retrier.RetryIndexDocumentDelete(dctx, name); qerr != nil {
			c.log.Warn("Enqueue index cleanup failed", "document", name, "error", qerr)
		}
	}
}
