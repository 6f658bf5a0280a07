// Package index owns the File Search store, imports files into it, and runs
// summary and chat generation against it.
package index

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/tmc/langchaingo/llms"
	"golang.org/x/sync/singleflight"

	"github.com/dharsanguruparan/RagDrop/internal/apperr"
	"github.com/dharsanguruparan/RagDrop/internal/gemini"
	"github.com/dharsanguruparan/RagDrop/internal/logger"
	"github.com/dharsanguruparan/RagDrop/internal/ports"
)

// Remote is the subset of the Gemini API the gateway drives.
type Remote interface {
	ListStores(ctx context.Context) ([]gemini.Store, error)
	CreateStore(ctx context.Context, displayName string) (gemini.Store, error)
	UploadToStore(ctx context.Context, store string, r io.Reader, size int64, displayName, mimeType string) (gemini.Operation, error)
	GetOperation(ctx context.Context, name string) (gemini.Operation, error)
	GenerateContent(ctx context.Context, model string, stores []string, prompt string) (string, error)
	DeleteDocument(ctx context.Context, name string) error
}

// Config tunes the gateway.
type Config struct {
	Model            string
	StoreDisplayName string
	// StoreName, when set, is used as-is and discovery is skipped.
	StoreName     string
	PollInterval  time.Duration
	ImportTimeout time.Duration
}

const (
	defaultPollInterval  = 2 * time.Second
	defaultImportTimeout = 10 * time.Minute
	resolveTimeout       = time.Minute
)

// Gateway implements ports.Indexer.
type Gateway struct {
	remote     Remote
	summarizer llms.Model
	cfg        Config
	log        *logger.Logger

	group singleflight.Group
	mu    sync.RWMutex
	store string
}

var _ ports.Indexer = (*Gateway)(nil)

// New builds a Gateway. summarizer may be nil, in which case every summary
// is a failure placeholder.
func New(remote Remote, summarizer llms.Model, cfg Config, log *logger.Logger) *Gateway {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultPollInterval
	}
	if cfg.ImportTimeout <= 0 {
		cfg.ImportTimeout = defaultImportTimeout
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Gateway{
		remote:     remote,
		summarizer: summarizer,
		cfg:        cfg,
		log:        log.With("component", "index"),
		store:      cfg.StoreName,
	}
}

// ResolveStore returns the deployment's store, discovering or creating it on
// first use. Concurrent first callers share one discovery.
func (g *Gateway) ResolveStore(ctx context.Context) (string, error) {
	if s := g.cached(); s != "" {
		return s, nil
	}
	ch := g.group.DoChan("store", func() (any, error) {
		if s := g.cached(); s != "" {
			return s, nil
		}
		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), resolveTimeout)
		defer cancel()
		name, err := g.discoverOrCreate(rctx)
		if err != nil {
			return "", err
		}
		g.mu.Lock()
		g.store = name
		g.mu.Unlock()
		return name, nil
	})
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("resolve index store: %w", ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	}
}

func (g *Gateway) cached() string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.store
}

func (g *Gateway) discoverOrCreate(ctx context.Context) (string, error) {
	stores, err := g.remote.ListStores(ctx)
	if err != nil {
		return "", apperr.Wrap(apperr.IndexFailed, "list index stores", err)
	}
	for _, s := range stores {
		if s.DisplayName == g.cfg.StoreDisplayName {
			g.log.Info("Reusing index store", "store", s.Name)
			return s.Name, nil
		}
	}
	created, err := g.remote.CreateStore(ctx, g.cfg.StoreDisplayName)
	if err != nil {
		return "", apperr.Wrap(apperr.IndexFailed, "create index store", err)
	}
	if created.Name == "" {
		return "", apperr.New(apperr.IndexFailed, "create index store: empty store name")
	}
	g.log.Info("Created index store", "store", created.Name, "display_name", g.cfg.StoreDisplayName)
	return created.Name, nil
}

// ImportFile uploads r into the store and waits for the import job to finish.
// A finished job without a document name is a soft success.
func (g *Gateway) ImportFile(ctx context.Context, r io.Reader, size int64, displayName, mimeType string) (ports.ImportResult, error) {
	store, err := g.ResolveStore(ctx)
	if err != nil {
		return ports.ImportResult{}, err
	}
	ictx, cancel := context.WithTimeout(ctx, g.cfg.ImportTimeout)
	defer cancel()

	op, err := g.remote.UploadToStore(ictx, store, r, size, displayName, mimeType)
	if err != nil {
		return ports.ImportResult{}, g.importErr(ctx, "upload to index", err)
	}
	res := ports.ImportResult{StoreName: store, OperationName: op.Name}

	op, err = g.await(ictx, op)
	if err != nil {
		return res, g.importErr(ctx, "await import", err)
	}
	if op.Error != nil {
		return res, apperr.Newf(apperr.IndexFailed, "import failed: %s", op.Error.Message)
	}
	if name := op.DocumentName(); name != "" {
		res.DocumentName = &name
	} else {
		g.log.Warn("Import finished without a document name", "store", store, "operation", op.Name)
	}
	return res, nil
}

// await polls op until it reports done. It yields between polls and returns
// when ctx ends.
func (g *Gateway) await(ctx context.Context, op gemini.Operation) (gemini.Operation, error) {
	if op.Done {
		return op, nil
	}
	if op.Name == "" {
		return op, errors.New("import returned no operation name")
	}
	ticker := time.NewTicker(g.cfg.PollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return op, ctx.Err()
		case <-ticker.C:
		}
		next, err := g.remote.GetOperation(ctx, op.Name)
		if err != nil {
			return op, err
		}
		if next.Name == "" {
			next.Name = op.Name
		}
		op = next
		if op.Done {
			return op, nil
		}
		g.log.Debug("Import pending", "operation", op.Name)
	}
}

// importErr keeps caller cancellation visible and classifies everything else,
// including the gateway's own timeout, as IndexFailed.
func (g *Gateway) importErr(parent context.Context, msg string, err error) error {
	if perr := parent.Err(); perr != nil {
		return fmt.Errorf("%s: %w", msg, perr)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return apperr.Wrap(apperr.IndexFailed, "import timed out", err)
	}
	return apperr.Wrap(apperr.IndexFailed, msg, err)
}

// Chat answers message grounded on the given store.
func (g *Gateway) Chat(ctx context.Context, storeName, message string) (string, error) {
	text, err := g.remote.GenerateContent(ctx, g.cfg.Model, []string{storeName}, message)
	if err != nil {
		if ctx.Err() != nil {
			return "", fmt.Errorf("chat: %w", ctx.Err())
		}
		return "", apperr.Wrap(apperr.GenerationFailed, "chat generation failed", err)
	}
	if isBlank(text) {
		return "", apperr.New(apperr.EmptyResponse, "AI generated no response")
	}
	return text, nil
}

// DeleteDocument removes an imported document from its store.
func (g *Gateway) DeleteDocument(ctx context.Context, documentName string) error {
	if err := g.remote.DeleteDocument(ctx, documentName); err != nil {
		return apperr.Wrap(apperr.IndexFailed, "delete index document", err)
	}
	return nil
}
