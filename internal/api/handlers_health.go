// Sonosphere - Music Library 3D Visualization API
// Copyright 2026 Sonosphere Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/audiomaps/sonosphere

package api

import (
	"context"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/audiomaps/sonosphere/internal/models"
)

// healthCheckTimeout bounds each dependency probe so a hung dependency
// cannot stall the health endpoint.
const healthCheckTimeout = 5 * time.Second

// HealthLive handles GET /api/v1/health/live
// Liveness: the process is up and serving requests.
func (h *Handler) HealthLive(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status:   "success",
		Data:     map[string]string{"status": "alive"},
		Metadata: models.Metadata{Timestamp: time.Now()},
	})
}

// HealthReady handles GET /api/v1/health/ready
// Readiness: the database answers queries.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	if err := h.db.Ping(ctx); err != nil {
		respondError(w, http.StatusServiceUnavailable, "DATABASE_ERROR", "Database not ready", err)
		return
	}

	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status:   "success",
		Data:     map[string]string{"status": "ready"},
		Metadata: models.Metadata{Timestamp: time.Now()},
	})
}

// Health handles GET /api/v1/health
// Comprehensive check: probes the database and object store in parallel
// and reports per-service status. Returns 503 when any dependency is down.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	var mu sync.Mutex
	services := make(map[string]models.ServiceHealth)
	record := func(name string, err error) {
		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			services[name] = models.ServiceHealth{Status: "down", Error: err.Error()}
		} else {
			services[name] = models.ServiceHealth{Status: "up"}
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		record("database", h.db.Ping(gctx))
		return nil
	})
	g.Go(func() error {
		record("object_store", h.store.Health(gctx))
		return nil
	})
	_ = g.Wait() // Probes record their own failures

	status := "healthy"
	httpStatus := http.StatusOK
	for _, svc := range services {
		if svc.Status != "up" {
			status = "degraded"
			httpStatus = http.StatusServiceUnavailable
		}
	}

	respondJSON(w, httpStatus, &models.APIResponse{
		Status: "success",
		Data: models.HealthStatus{
			Status:   status,
			Version:  h.version,
			Services: services,
			Uptime:   time.Since(h.startTime).Seconds(),
		},
		Metadata: models.Metadata{Timestamp: time.Now()},
	})
}
