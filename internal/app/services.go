package app

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"

	"github.com/dharsanguruparan/RagDrop/internal/catalog"
	"github.com/dharsanguruparan/RagDrop/internal/chat"
	"github.com/dharsanguruparan/RagDrop/internal/cleanup"
	"github.com/dharsanguruparan/RagDrop/internal/config"
	"github.com/dharsanguruparan/RagDrop/internal/index"
	"github.com/dharsanguruparan/RagDrop/internal/ingest"
	"github.com/dharsanguruparan/RagDrop/internal/llm"
	"github.com/dharsanguruparan/RagDrop/internal/logger"
	"github.com/dharsanguruparan/RagDrop/internal/model"
	"github.com/dharsanguruparan/RagDrop/internal/queue"
)

// Services are the orchestrators behind the HTTP surface.
type Services struct {
	Index    *index.Gateway
	Pipeline *ingest.Pipeline
	Catalog  *catalog.Catalog
	Chat     *chat.Service
}

// NewServices builds the index gateway and the orchestrators on top of b.
// remote is normally the client returned by NewGemini.
func NewServices(ctx context.Context, cfg *config.Config, b *Backends, remote index.Remote, log *logger.Logger) (*Services, error) {
	summarizer, err := llm.NewSummarizer(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("init summarizer: %w", err)
	}
	gw := index.New(remote, summarizer, index.Config{
		Model:            cfg.GeminiModel,
		StoreDisplayName: cfg.StoreDisplayName,
		StoreName:        cfg.FileSearchStore,
		PollInterval:     cfg.PollInterval,
		ImportTimeout:    cfg.ImportTimeout,
	}, log)

	var opts []cleanup.Option
	if cfg.CleanupQueue {
		client := asynq.NewClient(RedisOpt(cfg))
		b.closers = append(b.closers, func() { _ = client.Close() })
		opts = append(opts, cleanup.WithRetrier(queue.NewCleanup(client)))
		log.Info("Cleanup queue enabled", "redis", cfg.RedisAddr)
	}
	comp := cleanup.New(b.Blobs, gw, log, opts...)

	return &Services{
		Index: gw,
		Pipeline: ingest.New(b.Blobs, gw, b.Meta, comp, log,
			ingest.WithScope(cfg.UploadScope),
			ingest.WithMaxSize(model.MaxFileSize),
		),
		Catalog: catalog.New(b.Meta, b.Blobs, comp, cfg.SignedURLTTL, log),
		Chat:    chat.New(b.Meta, gw, log),
	}, nil
}
