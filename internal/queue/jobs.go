package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

const (
	// CleanupBlobTask retries deleting an orphaned upload blob.
	CleanupBlobTask = "cleanup:blob"
	// CleanupIndexDocumentTask retries deleting an orphaned File Search document.
	CleanupIndexDocumentTask = "cleanup:index-document"

	maxRetry = 5
)

// BlobPayload names the blob to delete.
type BlobPayload struct {
	Location string `json:"location"`
}

// IndexDocumentPayload names the remote document to delete.
type IndexDocumentPayload struct {
	DocumentName string `json:"document_name"`
}

// Enqueuer is satisfied by *asynq.Client.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// Cleanup schedules retried compensating deletes.
type Cleanup struct {
	client Enqueuer
}

// NewCleanup wraps an asynq client.
func NewCleanup(client Enqueuer) *Cleanup {
	return &Cleanup{client: client}
}

// NewBlobTask builds a blob cleanup task.
func NewBlobTask(location string) (*asynq.Task, error) {
	return newTask(CleanupBlobTask, BlobPayload{Location: location})
}

// NewIndexDocumentTask builds a remote document cleanup task.
func NewIndexDocumentTask(documentName string) (*asynq.Task, error) {
	return newTask(CleanupIndexDocumentTask, IndexDocumentPayload{DocumentName: documentName})
}

func newTask(kind string, payload any) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	return asynq.NewTask(kind, data), nil
}

// RetryBlobDelete enqueues a blob cleanup job.
func (c *Cleanup) RetryBlobDelete(ctx context.Context, location string) error {
	task, err := NewBlobTask(location)
	if err != nil {
		return err
	}
	return c.enqueue(ctx, task)
}

// RetryIndexDocumentDelete enqueues a remote document cleanup job.
func (c *Cleanup) RetryIndexDocumentDelete(ctx context.Context, documentName string) error {
	task, err := NewIndexDocumentTask(documentName)
	if err != nil {
		return err
	}
	return c.enqueue(ctx, task)
}

func (c *Cleanup) enqueue(ctx context.Context, task *asynq.Task) error {
	if _, err := c.client.EnqueueContext(ctx, task, asynq.MaxRetry(maxRetry)); err != nil {
		return fmt.Errorf("enqueue %s task: %w", task.Type(), err)
	}
	return nil
}
