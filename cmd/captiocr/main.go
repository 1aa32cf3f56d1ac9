// CaptiOCR server - captures screen captions via OCR and serves transcripts
// over HTTP and WebSocket connections
package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/captiocr/captiocr/internal/catalog"
	"github.com/captiocr/captiocr/internal/config"
	"github.com/captiocr/captiocr/internal/orchestrator"
	"github.com/captiocr/captiocr/internal/server"
)

func main() {
	configPath := flag.String("config", "captiocr.yaml", "path to the yaml config profile")
	flag.Parse()

	// Setup structured logging
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	slog.SetDefault(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("invalid configuration", "path", *configPath, "error", err)
		os.Exit(1)
	}

	// Open the session catalog
	store, err := catalog.Open(cfg.Storage.CatalogPath)
	if err != nil {
		slog.Error("failed to open session catalog", "path", cfg.Storage.CatalogPath, "error", err)
		os.Exit(1)
	}
	defer func() { _ = store.Close() }()

	// Create the session manager and HTTP/WebSocket server
	mgr := orchestrator.New(cfg, store)
	defer mgr.Close()

	srv := server.New(mgr)

	httpServer := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      srv.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("captiocr server starting",
			"http", cfg.HTTPAddr,
			"captures", cfg.Storage.CapturesDir,
			"ocr", cfg.OCR.Binary)
		if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
			slog.Error("http server error", "error", err)
		}
	}()

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	slog.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("http shutdown error", "error", err)
	}

	slog.Info("shutdown complete")
}
