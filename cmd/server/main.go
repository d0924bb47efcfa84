// Sonosphere - Music Library 3D Visualization API
// Copyright 2026 Sonosphere Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/audiomaps/sonosphere

// Command server runs the Sonosphere HTTP API: a coordinate store and
// nearest-neighbor query service for precomputed 3D music library
// visualizations.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/audiomaps/sonosphere/internal/api"
	"github.com/audiomaps/sonosphere/internal/config"
	"github.com/audiomaps/sonosphere/internal/database"
	"github.com/audiomaps/sonosphere/internal/loader"
	"github.com/audiomaps/sonosphere/internal/logging"
	"github.com/audiomaps/sonosphere/internal/metrics"
	"github.com/audiomaps/sonosphere/internal/objstore"
)

// version is set at build time via -ldflags "-X main.version=...".
var version = "1.0.0"

const shutdownTimeout = 15 * time.Second

func main() {
	if err := run(); err != nil {
		logging.Fatal().Err(err).Msg("Server exited with error")
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("version", version).
		Str("go_version", runtime.Version()).
		Msg("Starting Sonosphere")

	metrics.AppInfo.WithLabelValues(version, runtime.Version()).Set(1)

	db, err := database.New(&cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Warn().Err(err).Msg("Failed to close database")
		}
	}()

	minioStore, err := objstore.NewMinIO(&cfg.ObjectStore)
	if err != nil {
		return fmt.Errorf("failed to create object store client: %w", err)
	}
	store := objstore.NewBreakerStore(minioStore)

	l := loader.New(db, store)

	router := api.NewRouter(db, l, store, cfg, version)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           router.Setup(),
		ReadTimeout:       cfg.Server.Timeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.Server.Timeout,
		IdleTimeout:       2 * cfg.Server.Timeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Track uptime for the metrics endpoint
	startTime := time.Now()
	go func() {
		ticker := time.NewTicker(15 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				metrics.AppUptime.Set(time.Since(startTime).Seconds())
			}
		}
	}()

	errCh := make(chan error, 1)
	go func() {
		logging.Info().Str("addr", addr).Msg("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	logging.Info().Msg("Shutdown signal received, draining connections")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	logging.Info().Msg("Server stopped")
	return nil
}
