// Package main runs the retried-cleanup worker.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/dharsanguruparan/RagDrop/internal/app"
	"github.com/dharsanguruparan/RagDrop/internal/config"
	"github.com/dharsanguruparan/RagDrop/internal/logger"
	"github.com/dharsanguruparan/RagDrop/internal/worker"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

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

	var backends app.Backends
	defer backends.Close()
	if err := backends.OpenBlobs(ctx, cfg, log); err != nil {
		log.Fatal("Blob store init failed", "error", err)
	}

	server := asynq.NewServer(app.RedisOpt(cfg), asynq.Config{
		Concurrency: cfg.WorkerConcurrency,
	})
	remote, err := app.NewGemini(ctx, cfg, log)
	if err != nil {
		log.Fatal("Gemini client init failed", "error", err)
	}
	processor := worker.NewProcessor(backends.Blobs, remote, log)
	mux := processor.Handler()

	go func() {
		<-ctx.Done()
		server.Shutdown()
	}()

	log.Info("Cleanup worker started", "redis", cfg.RedisAddr, "concurrency", cfg.WorkerConcurrency)
	if err := server.Run(mux); err != nil {
		log.Error("Worker stopped", "error", err)
		backends.Close()
		os.Exit(1)
	}
}
