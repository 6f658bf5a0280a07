package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"

	"github.com/dharsanguruparan/RagDrop/internal/cleanup"
	"github.com/dharsanguruparan/RagDrop/internal/logger"
	"github.com/dharsanguruparan/RagDrop/internal/queue"
)

// Processor is plugged into the asynq worker loop.
type Processor struct {
	blobs cleanup.BlobDeleter
	index cleanup.DocumentDeleter
	log   *logger.Logger
}

// NewProcessor constructs a worker processor.
func NewProcessor(blobs cleanup.BlobDeleter, index cleanup.DocumentDeleter, log *logger.Logger) *Processor {
	if log == nil {
		log = logger.NewNop()
	}
	return &Processor{blobs: blobs, index: index, log: log.With("component", "worker")}
}

// Handler registers the cleanup job handlers.
func (p *Processor) Handler() *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(queue.CleanupBlobTask, p.handleBlob)
	mux.HandleFunc(queue.CleanupIndexDocumentTask, p.handleIndexDocument)
	return mux
}

func (p *Processor) handleBlob(ctx context.Context, task *asynq.Task) error {
	var payload queue.BlobPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil || payload.Location == "" {
		return fmt.Errorf("decode payload: %v: %w", err, asynq.SkipRetry)
	}
	if err := p.blobs.Delete(ctx, payload.Location); err != nil {
		p.log.Warn("Blob cleanup failed", "location", payload.Location, "error", err)
		return err
	}
	p.log.Info("Blob cleaned up", "location", payload.Location)
	return nil
}

func (p *Processor) handleIndexDocument(ctx context.Context, task *asynq.Task) error {
	var payload queue.IndexDocumentPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil || payload.DocumentName == "" {
		return fmt.Errorf("decode payload: %v: %w", err, asynq.SkipRetry)
	}
	if err := p.index.DeleteDocument(ctx, payload.DocumentName); err != nil {
		p.log.Warn("Index document cleanup failed", "document", payload.DocumentName, "error", err)
		return err
	}
	p.log.Info("Index document cleaned up", "document", payload.DocumentName)
	return nil
}
