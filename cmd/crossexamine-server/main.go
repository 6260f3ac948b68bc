// Package main provides the web server for crossexamine.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/AtomAcer/CrossExamine/internal/archive"
	"github.com/AtomAcer/CrossExamine/internal/config"
	"github.com/AtomAcer/CrossExamine/internal/llm"
	"github.com/AtomAcer/CrossExamine/internal/server"
	"github.com/AtomAcer/CrossExamine/internal/speech"
	"github.com/AtomAcer/CrossExamine/internal/transcript"
)

const version = "0.1.0"

func main() {
	// Load configuration
	cfg := config.Load()

	// Setup logger (dual output: stderr text + file JSON)
	logger, cleanup := config.SetupLogger(cfg.LogFile, cfg.LogLevel)
	defer cleanup()

	logger.Info("crossexamine-server starting",
		"version", version,
		"provider", cfg.LLMProvider,
		"model", cfg.LLMModel,
		"port", cfg.ServerPort,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	store, err := transcript.NewStore(cfg.DataDir, nil, logger)
	if err != nil {
		logger.Error("failed to open transcript store", "error", err)
		os.Exit(1)
	}

	initCtx, initCancel := context.WithTimeout(ctx, 30*time.Second)
	model, err := llm.NewModel(initCtx, cfg)
	if err != nil {
		initCancel()
		logger.Error("failed to create model", "error", err)
		os.Exit(1)
	}
	summarizer, err := llm.NewSummarizer(initCtx, cfg)
	initCancel()
	if err != nil {
		logger.Error("failed to create summarizer", "error", err)
		os.Exit(1)
	}

	speechClient := speech.NewClient(cfg, logger)

	// Optional session archive
	var archiver server.Archiver
	if cfg.ArchiveEnabled() {
		archiveCtx, archiveCancel := context.WithTimeout(ctx, 30*time.Second)
		archiveClient, err := archive.Connect(archiveCtx, cfg, logger)
		if err != nil {
			archiveCancel()
			logger.Error("failed to connect to session archive", "error", err)
			os.Exit(1)
		}
		if err := archiveClient.InitSchema(archiveCtx); err != nil {
			archiveCancel()
			logger.Error("failed to initialize archive schema", "error", err)
			os.Exit(1)
		}
		archiveCancel()
		defer func() {
			_ = archiveClient.Close(context.Background())
		}()
		archiver = archiveClient
	}

	// Log collection changes while the server runs
	events, err := store.Watch(ctx)
	if err != nil {
		logger.Warn("collection watcher unavailable", "error", err)
	} else {
		go func() {
			for ev := range events {
				logger.Info("collection changed", "collection", ev.Name, "op", ev.Op)
			}
		}()
	}

	srv := server.New(cfg, store, model, summarizer, speechClient, speechClient, archiver, logger)

	logger.Info("server ready")
	if err := srv.Run(ctx); err != nil && ctx.Err() == nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}

	logger.Info("shutdown complete")
}
