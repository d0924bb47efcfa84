// Sonosphere - Music Library 3D Visualization API
// Copyright 2026 Sonosphere Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/audiomaps/sonosphere

package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/audiomaps/sonosphere/internal/config"
	"github.com/audiomaps/sonosphere/internal/database"
	"github.com/audiomaps/sonosphere/internal/loader"
	"github.com/audiomaps/sonosphere/internal/metrics"
	"github.com/audiomaps/sonosphere/internal/models"
	"github.com/audiomaps/sonosphere/internal/neighbors"
	"github.com/audiomaps/sonosphere/internal/objstore"
)

// Handler holds dependencies for HTTP handlers
type Handler struct {
	db        *database.DB
	loader    *loader.Loader
	store     objstore.ObjectStore
	cfg       *config.Config
	version   string
	startTime time.Time
}

// NewHandler creates a new API handler
func NewHandler(db *database.DB, l *loader.Loader, store objstore.ObjectStore, cfg *config.Config, version string) *Handler {
	return &Handler{
		db:        db,
		loader:    l,
		store:     store,
		cfg:       cfg,
		version:   version,
		startTime: time.Now(),
	}
}

// respondDBError maps data access sentinels onto HTTP error responses.
func respondDBError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, database.ErrNotFound):
		respondError(w, http.StatusNotFound, "NOT_FOUND", "Resource not found", err)
	case errors.Is(err, database.ErrInvalidArgument):
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request parameters", err)
	case errors.Is(err, database.ErrConsistency):
		respondError(w, http.StatusInternalServerError, "CONSISTENCY_ERROR", "Coordinate data is out of sync with the track catalog", err)
	default:
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to execute query", err)
	}
}

// Points handles GET /api/v1/points
// Returns a paginated listing of coordinate rows with catalog metadata.
func (h *Handler) Points(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	limit, err := getIntParam(r, "limit", h.cfg.API.DefaultPointLimit)
	if err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
		return
	}
	offset, err := getIntParam(r, "offset", 0)
	if err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
		return
	}

	req := PointsRequest{Limit: limit, Offset: offset}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
		return
	}

	page, err := h.db.ListPoints(r.Context(), req.Limit, req.Offset)
	if err != nil {
		respondDBError(w, err)
		return
	}

	respondSuccess(w, page, start)
}

// Stats handles GET /api/v1/stats
// Returns dataset aggregates excluding the noise cluster.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	stats, err := h.db.Stats(r.Context())
	if err != nil {
		respondDBError(w, err)
		return
	}

	respondSuccess(w, stats, start)
}

// Search handles GET /api/v1/search
// Case-insensitive substring search over title, artist, album, and genre.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	limit, err := getIntParam(r, "limit", h.cfg.API.DefaultSearchLimit)
	if err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
		return
	}

	req := SearchRequest{
		Query: r.URL.Query().Get("q"),
		Limit: limit,
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
		return
	}

	result, err := h.db.SearchTracks(r.Context(), req.Query, req.Limit)
	if err != nil {
		respondDBError(w, err)
		return
	}

	respondSuccess(w, result, start)
}

// ClusterDetail handles GET /api/v1/clusters/{id}
// The id may be the -1 noise sentinel; unknown clusters return 404.
func (h *Handler) ClusterDetail(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	clusterID, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Cluster id must be an integer", nil)
		return
	}

	detail, err := h.db.ClusterDetail(r.Context(), clusterID)
	if err != nil {
		respondDBError(w, err)
		return
	}

	respondSuccess(w, detail, start)
}

// Neighbors handles GET /api/v1/tracks/{id}/neighbors
// Returns the k nearest tracks in the 3D layout, ordered by ascending
// Euclidean distance with ties broken by ascending id.
func (h *Handler) Neighbors(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	trackID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Track id must be an integer", nil)
		return
	}

	limit, err := getIntParam(r, "limit", h.cfg.API.DefaultNeighborLimit)
	if err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
		return
	}

	req := NeighborsRequest{Limit: limit}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
		return
	}

	points, err := h.db.PointCoordinates(r.Context())
	if err != nil {
		respondDBError(w, err)
		return
	}

	idx := neighbors.NewLinearIndex(points)
	found, err := idx.Search(trackID, req.Limit)
	switch {
	case errors.Is(err, neighbors.ErrNotFound):
		respondError(w, http.StatusNotFound, "NOT_FOUND", "Track has no stored coordinates", err)
		return
	case errors.Is(err, neighbors.ErrInvalidK):
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Neighbor count must be positive", err)
		return
	case err != nil:
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "Neighbor query failed", err)
		return
	}

	metrics.RecordNeighborQuery(time.Since(start), idx.Len())

	ids := make([]int64, 0, len(found))
	for _, n := range found {
		ids = append(ids, n.Point.ID)
	}

	byID, err := h.db.TrackPointsByIDs(r.Context(), ids)
	if err != nil {
		respondDBError(w, err)
		return
	}

	result := models.NeighborsResult{
		TrackID:   trackID,
		Neighbors: make([]models.Neighbor, 0, len(found)),
	}
	for _, n := range found {
		tp, ok := byID[n.Point.ID]
		if !ok {
			respondError(w, http.StatusInternalServerError, "CONSISTENCY_ERROR",
				"Coordinate data is out of sync with the track catalog", database.ErrConsistency)
			return
		}
		result.Neighbors = append(result.Neighbors, models.Neighbor{
			TrackPoint: tp,
			Distance:   n.Distance,
		})
	}

	respondSuccess(w, result, start)
}
