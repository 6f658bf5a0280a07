// Package app wires configuration into concrete gateways shared by the
// server, the worker and the CLI.
package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/hibiken/asynq"

	"github.com/dharsanguruparan/RagDrop/internal/config"
	"github.com/dharsanguruparan/RagDrop/internal/database"
	"github.com/dharsanguruparan/RagDrop/internal/gcsstorage"
	"github.com/dharsanguruparan/RagDrop/internal/gemini"
	"github.com/dharsanguruparan/RagDrop/internal/logger"
	"github.com/dharsanguruparan/RagDrop/internal/ports"
	"github.com/dharsanguruparan/RagDrop/internal/repository"
	"github.com/dharsanguruparan/RagDrop/internal/s3storage"
	"github.com/dharsanguruparan/RagDrop/internal/storage"
)

// Backends holds opened gateways and the resources that must be released.
type Backends struct {
	Blobs ports.BlobStore
	Meta  ports.MetadataStore

	closers []func()
}

// Close releases every resource in reverse open order.
func (b *Backends) Close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
	b.closers = nil
}

// OpenBlobs connects the configured blob backend and ensures its bucket.
func (b *Backends) OpenBlobs(ctx context.Context, cfg *config.Config, log *logger.Logger) error {
	switch cfg.BlobBackend {
	case config.BlobMinIO:
		st, err := s3storage.New(cfg)
		if err != nil {
			return fmt.Errorf("init minio: %w", err)
		}
		b.Blobs = st
	case config.BlobGCS:
		st, err := gcsstorage.New(ctx, cfg)
		if err != nil {
			return fmt.Errorf("init gcs: %w", err)
		}
		b.closers = append(b.closers, func() { _ = st.Close() })
		b.Blobs = st
	case config.BlobMemory:
		log.Warn("Using in-memory blob store; uploads are lost on restart")
		b.Blobs = storage.NewMemoryBlobs(cfg.BucketName())
	default:
		return fmt.Errorf("unknown blob backend %q", cfg.BlobBackend)
	}
	if err := b.Blobs.EnsureContainer(ctx); err != nil {
		return fmt.Errorf("ensure bucket: %w", err)
	}
	log.Info("Blob store ready", "backend", cfg.BlobBackend, "bucket", cfg.BucketName())
	return nil
}

// OpenMetadata connects the configured metadata backend and ensures its schema.
func (b *Backends) OpenMetadata(ctx context.Context, cfg *config.Config, log *logger.Logger) error {
	switch cfg.MetadataBackend {
	case config.MetadataPostgres:
		pool, err := database.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("connect database: %w", err)
		}
		b.closers = append(b.closers, pool.Close)
		if err := database.EnsureSchema(ctx, pool); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
		b.Meta = repository.NewDocumentRepository(pool)
	case config.MetadataMemory:
		log.Warn("Using in-memory metadata store; records are lost on restart")
		b.Meta = storage.NewMemoryStore()
	default:
		return fmt.Errorf("unknown metadata backend %q", cfg.MetadataBackend)
	}
	log.Info("Metadata store ready", "backend", cfg.MetadataBackend)
	return nil
}

// NewGemini builds the File Search client on the genai SDK.
func NewGemini(ctx context.Context, cfg *config.Config, log *logger.Logger) (*gemini.Client, error) {
	return gemini.New(ctx, gemini.Options{
		BaseURL:    cfg.GeminiBaseURL,
		APIKey:     cfg.GeminiAPIKey,
		HTTPClient: &http.Client{Timeout: cfg.GeminiHTTPTimeout},
		MaxRetries: cfg.GeminiMaxRetries,
		Logger:     log,
	})
}

// RedisOpt is the asynq connection shared by the cleanup client and worker.
func RedisOpt(cfg *config.Config) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}
}
