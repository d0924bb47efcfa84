// Sonosphere - Music Library 3D Visualization API
// Copyright 2026 Sonosphere Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/audiomaps/sonosphere

package api

import (
	"errors"
	"net/http"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/audiomaps/sonosphere/internal/loader"
	"github.com/audiomaps/sonosphere/internal/objstore"
)

// CreateSchema handles POST /api/v1/admin/schema
// Idempotent: creates missing tables and indexes, leaves existing ones untouched.
func (h *Handler) CreateSchema(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	if err := h.db.EnsureSchema(r.Context()); err != nil {
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to create schema", err)
		return
	}

	respondSuccess(w, map[string]string{"schema": "ready"}, start)
}

// Load handles POST /api/v1/admin/load
// Fetches a coordinate document from object storage and upserts it.
// Bucket and object default to the configured values and can be
// overridden with query parameters.
func (h *Handler) Load(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	req := LoadRequest{
		Bucket: r.URL.Query().Get("bucket"),
		Object: r.URL.Query().Get("object"),
	}
	if req.Bucket == "" {
		req.Bucket = h.cfg.Loader.Bucket
	}
	if req.Object == "" {
		req.Object = h.cfg.Loader.Object
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
		return
	}

	summary, err := h.loader.Load(r.Context(), req.Bucket, req.Object)
	switch {
	case errors.Is(err, loader.ErrLoadInProgress):
		respondError(w, http.StatusConflict, "LOAD_IN_PROGRESS", "A load is already in progress", err)
		return
	case errors.Is(err, objstore.ErrNotFound):
		respondError(w, http.StatusNotFound, "NOT_FOUND", "Coordinate document not found", err)
		return
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		respondError(w, http.StatusServiceUnavailable, "OBJECT_STORE_ERROR", "Object store temporarily unavailable", err)
		return
	case errors.Is(err, loader.ErrMalformedDocument):
		respondError(w, http.StatusUnprocessableEntity, "MALFORMED_DOCUMENT", "Coordinate document is malformed", err)
		return
	case err != nil:
		respondError(w, http.StatusBadGateway, "LOAD_ERROR", "Failed to load coordinate document", err)
		return
	}

	respondSuccess(w, summary, start)
}
