// Package ingest turns an accepted upload into one persisted document record:
// validate, store the blob, import into the index, summarize, save metadata.
package ingest

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/dharsanguruparan/RagDrop/internal/apperr"
	"github.com/dharsanguruparan/RagDrop/internal/excerpt"
	"github.com/dharsanguruparan/RagDrop/internal/logger"
	"github.com/dharsanguruparan/RagDrop/internal/model"
	"github.com/dharsanguruparan/RagDrop/internal/ports"
	"github.com/dharsanguruparan/RagDrop/internal/validate"
)

// Stage is a step of an ingestion. Stages run in declaration order.
type Stage string

const (
	StageValidating    Stage = "validating"
	StageBlobUploading Stage = "blob_uploading"
	StageIndexing      Stage = "indexing"
	StageSummarizing   Stage = "summarizing"
	StagePersisting    Stage = "persisting_metadata"
	StageDone          Stage = "done"
)

// Body is a rewindable upload. *os.File and *bytes.Reader satisfy it.
type Body interface {
	io.Reader
	io.ReaderAt
	io.Seeker
}

// Upload is one file submitted for ingestion.
type Upload struct {
	Filename    string
	ContentType string
	Body        Body
}

// Compensator undoes side effects of a failed ingestion. It never fails.
type Compensator interface {
	DeleteBlob(ctx context.Context, location string)
	DeleteIndexDocument(ctx context.Context, documentName *string)
}

// Pipeline runs ingestions. It is safe for concurrent use.
type Pipeline struct {
	validator *validate.Validator
	blobs     ports.BlobStore
	index     ports.Indexer
	meta      ports.MetadataStore
	comp      Compensator
	log       *logger.Logger

	scope   string
	now     func() time.Time
	suffix  func() string
	onStage func(Stage)
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithScope sets the blob path scope segment.
func WithScope(scope string) Option {
	return func(p *Pipeline) { p.scope = scope }
}

// WithMaxSize overrides the upload size limit.
func WithMaxSize(n int64) Option {
	return func(p *Pipeline) { p.validator = validate.New(n) }
}

// WithClock overrides the clock used for blob paths.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

// WithSuffix overrides the random blob path suffix.
func WithSuffix(f func() string) Option {
	return func(p *Pipeline) { p.suffix = f }
}

// WithStageHook is called on entry to every stage.
func WithStageHook(f func(Stage)) Option {
	return func(p *Pipeline) { p.onStage = f }
}

// New wires a Pipeline.
func New(blobs ports.BlobStore, index ports.Indexer, meta ports.MetadataStore, comp Compensator, log *logger.Logger, opts ...Option) *Pipeline {
	if log == nil {
		log = logger.NewNop()
	}
	p := &Pipeline{
		validator: validate.New(model.MaxFileSize),
		blobs:     blobs,
		index:     index,
		meta:      meta,
		comp:      comp,
		log:       log.With("component", "ingest"),
		scope:     "anonymous",
		now:       time.Now,
		suffix:    RandomSuffix,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Ingest runs one upload through every stage and returns the persisted record.
// The body is read twice: once into blob storage and once into the index.
func (p *Pipeline) Ingest(ctx context.Context, up Upload) (*model.Document, error) {
	start := time.Now()
	log := p.log.With("name", up.Filename)

	p.enter(log, StageValidating)
	if up.Body == nil {
		return nil, apperr.New(apperr.InvalidInput, "no file provided")
	}
	res, err := p.validator.CheckStream(up.Filename, up.ContentType, up.Body)
	if err != nil {
		return nil, err
	}
	contentType := mediaType(up.ContentType, res.Type)

	p.enter(log, StageBlobUploading)
	location := BlobPath(p.scope, p.now(), p.suffix(), up.Filename)
	prefix := excerpt.NewPrefix(excerpt.PrefixBytes)
	accessURL, err := p.blobs.Put(ctx, location, io.TeeReader(up.Body, prefix), res.Size, contentType)
	if err != nil {
		log.Warn("Blob upload failed", "location", location, "error", err)
		return nil, classify(ctx, apperr.StorageWriteFailed, "storage upload failed", err)
	}

	p.enter(log, StageIndexing)
	if _, err := up.Body.Seek(0, io.SeekStart); err != nil {
		p.comp.DeleteBlob(ctx, location)
		return nil, apperr.Wrap(apperr.Unknown, "rewind upload", err)
	}
	imported, err := p.index.ImportFile(ctx, up.Body, res.Size, up.Filename, contentType)
	if err != nil {
		log.Warn("Index import failed", "location", location, "error", err)
		p.comp.DeleteBlob(ctx, location)
		return nil, classify(ctx, apperr.IndexFailed, "index import failed", err)
	}

	p.enter(log, StageSummarizing)
	text := excerpt.Extract(res.Type, up.Body, res.Size, prefix.Bytes())
	summary := p.index.Summarize(ctx, text, up.Filename)

	p.enter(log, StagePersisting)
	doc := &model.Document{
		Name:          up.Filename,
		Type:          res.Type,
		SizeBytes:     res.Size,
		StoragePath:   location,
		PublicURL:     model.StringPtr(accessURL),
		StoreName:     imported.StoreName,
		DocumentName:  imported.DocumentName,
		OperationName: model.StringPtr(imported.OperationName),
		Keywords:      []string{},
	}
	if !summary.Failed {
		doc.Summary = model.NormalizeSummary(summary.Text)
		doc.Keywords = model.NormalizeKeywords(summary.Keywords)
	}
	if err := p.meta.Create(ctx, doc); err != nil {
		log.Warn("Metadata save failed", "location", location, "error", err)
		p.comp.DeleteBlob(ctx, location)
		p.comp.DeleteIndexDocument(ctx, imported.DocumentName)
		return nil, classify(ctx, apperr.StoreUnavailable, "save metadata failed", err)
	}

	p.enter(log, StageDone)
	log.Info("File ingested",
		"id", doc.ID,
		"type", doc.Type,
		"size_bytes", doc.SizeBytes,
		"store", doc.StoreName,
		"summarized", doc.Summary != nil,
		"elapsed", time.Since(start).String(),
	)
	return doc, nil
}

func (p *Pipeline) enter(log *logger.Logger, s Stage) {
	log.Debug("Ingest stage", "stage", s)
	if p.onStage != nil {
		p.onStage(s)
	}
}

// classify keeps typed errors and cancellation as they are and tags anything
// else with the stage's kind.
func classify(ctx context.Context, kind apperr.Kind, msg string, err error) error {
	if apperr.KindOf(err) != apperr.Unknown {
		return err
	}
	if ctx.Err() != nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return apperr.Wrap(kind, msg, err)
}

func mediaType(declared string, t model.FileType) string {
	declared = strings.TrimSpace(declared)
	if declared == "" || strings.HasPrefix(declared, "application/octet-stream") {
		return validate.MediaType(t)
	}
	return declared
}
