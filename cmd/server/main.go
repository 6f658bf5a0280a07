// Package main runs the RagDrop HTTP API.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dharsanguruparan/RagDrop/internal/api"
	"github.com/dharsanguruparan/RagDrop/internal/app"
	"github.com/dharsanguruparan/RagDrop/internal/config"
	"github.com/dharsanguruparan/RagDrop/internal/logger"
)

var version = "1.0.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	log, err := logger.New(cfg.LogMode, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var backends app.Backends
	defer backends.Close()
	if err := backends.OpenBlobs(ctx, cfg, log); err != nil {
		log.Fatal("Blob store init failed", "error", err)
	}
	if err := backends.OpenMetadata(ctx, cfg, log); err != nil {
		log.Fatal("Metadata store init failed", "error", err)
	}

	remote, err := app.NewGemini(ctx, cfg, log)
	if err != nil {
		log.Fatal("Gemini client init failed", "error", err)
	}
	svc, err := app.NewServices(ctx, cfg, &backends, remote, log)
	if err != nil {
		log.Fatal("Service init failed", "error", err)
	}
	if cfg.FileSearchStore == "" {
		// Resolving at startup keeps store creation off the first upload.
		if name, err := svc.Index.ResolveStore(ctx); err != nil {
			log.Warn("File Search store not resolved at startup", "error", err)
		} else {
			log.Info("File Search store ready", "store", name)
		}
	}

	srv := api.New(api.Options{
		Address:        cfg.Address,
		CORSOrigins:    cfg.CORSOrigins,
		RequestTimeout: cfg.RequestTimeout,
		Version:        version,
	}, svc.Pipeline, svc.Catalog, svc.Chat, log)

	if err := srv.Run(ctx); err != nil {
		log.Error("Server stopped", "error", err)
		backends.Close()
		os.Exit(1)
	}
}
