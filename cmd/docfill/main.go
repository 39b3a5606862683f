package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgallion1/docfill/internal/api"
	"github.com/dgallion1/docfill/internal/config"
	"github.com/dgallion1/docfill/internal/pathstore"
	"github.com/dgallion1/docfill/internal/pipeline"
	"github.com/dgallion1/docfill/internal/session"
	"github.com/dgallion1/docfill/internal/store"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	kv, closeKV, err := openKV(cfg)
	if err != nil {
		log.Error("open store", "backend", cfg.StoreBackend, "error", err)
		os.Exit(1)
	}
	defer closeKV()
	st := store.New(kv)

	sess, err := session.New(ctx, st, cfg.DefaultRole, log)
	if err != nil {
		log.Error("start session", "error", err)
		os.Exit(1)
	}

	// Initialize pipeline.
	orch := pipeline.NewOrchestrator(cfg, st, log)
	orch.Start(ctx)

	// Initialize HTTP server.
	srv := api.NewServer(sess, orch, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		orch.Stop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)
	}()

	log.Info("starting docfill", "port", cfg.Port, "store", cfg.StoreBackend, "role", cfg.DefaultRole)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}

// openKV builds the configured key-value backend and its close function.
func openKV(cfg config.Config) (store.KV, func(), error) {
	switch cfg.StoreBackend {
	case config.BackendMemory:
		return store.NewMemoryKV(), func() {}, nil
	case config.BackendFile:
		kv, err := store.NewFileKV(cfg.StoreDir)
		if err != nil {
			return nil, nil, err
		}
		return kv, func() {}, nil
	case config.BackendPathstore:
		ps := pathstore.NewClient(cfg.PathstoreURL, cfg.PathstoreAPIKey)
		return store.NewPathstoreKV(ps, cfg.PathstorePrefix), ps.Close, nil
	}
	return nil, nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
}
