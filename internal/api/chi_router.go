// Sonosphere - Music Library 3D Visualization API
// Copyright 2026 Sonosphere Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/audiomaps/sonosphere

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/audiomaps/sonosphere/internal/config"
	"github.com/audiomaps/sonosphere/internal/database"
	"github.com/audiomaps/sonosphere/internal/loader"
	"github.com/audiomaps/sonosphere/internal/middleware"
	"github.com/audiomaps/sonosphere/internal/objstore"
)

// chiMiddleware adapts http.HandlerFunc middleware to Chi's func(http.Handler) http.Handler.
// This allows our existing middleware to work with Chi's r.Use().
func chiMiddleware(mw func(http.HandlerFunc) http.HandlerFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return mw(next.ServeHTTP)
	}
}

// Router wires handlers and middleware into an HTTP handler.
type Router struct {
	handler       *Handler
	chiMiddleware *ChiMiddleware
}

// NewRouter creates a router from application dependencies.
func NewRouter(db *database.DB, l *loader.Loader, store objstore.ObjectStore, cfg *config.Config, version string) *Router {
	return &Router{
		handler: NewHandler(db, l, store, cfg, version),
		chiMiddleware: NewChiMiddlewareFromConfig(
			cfg.Security.CORSOrigins,
			cfg.Security.RateLimitReqs,
			cfg.Security.RateLimitWindow,
			cfg.Security.RateLimitDisabled,
		),
	}
}

// Setup configures all HTTP routes using Chi router.
func (router *Router) Setup() http.Handler {
	r := chi.NewRouter()

	// Global middleware, applied to all routes in order
	r.Use(RequestIDWithLogging())
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.chiMiddleware.CORS()) // CORS must be global to handle OPTIONS preflight

	// Health endpoints: permissive rate limiting for monitoring tools
	r.Route("/api/v1/health", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimitHealth())
		r.Use(APISecurityHeaders())
		r.Get("/live", router.handler.HealthLive)
		r.Get("/ready", router.handler.HealthReady)
		r.Get("/", router.handler.Health)
	})

	// Admin endpoints: strict rate limiting for resource-intensive operations
	r.Route("/api/v1/admin", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimitAdmin())
		r.Use(APISecurityHeaders())
		r.Use(chiMiddleware(middleware.PrometheusMetrics))
		r.Post("/schema", router.handler.CreateSchema)
		r.Post("/load", router.handler.Load)
	})

	// Core API endpoints
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimit())
		r.Use(APISecurityHeaders())
		r.Use(chiMiddleware(middleware.PrometheusMetrics))
		r.Get("/points", router.handler.Points)
		r.Get("/stats", router.handler.Stats)
		r.Get("/search", router.handler.Search)
		r.Get("/clusters/{id}", router.handler.ClusterDetail)
		r.Get("/tracks/{id}/neighbors", router.handler.Neighbors)
	})

	// Prometheus metrics endpoint
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	return r
}
