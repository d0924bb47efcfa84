// Sonosphere - Music Library 3D Visualization API
// Copyright 2026 Sonosphere Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/audiomaps/sonosphere

// Package loader implements the bulk coordinate load: fetch a JSON
// document from object storage, validate each record against the track
// catalog, and upsert all valid rows in a single transaction.
package loader

import (
	"context"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"github.com/audiomaps/sonosphere/internal/database"
	"github.com/audiomaps/sonosphere/internal/logging"
	"github.com/audiomaps/sonosphere/internal/metrics"
	"github.com/audiomaps/sonosphere/internal/models"
	"github.com/audiomaps/sonosphere/internal/objstore"
)

var (
	// ErrLoadInProgress indicates another bulk load is already running.
	ErrLoadInProgress = errors.New("a load is already in progress")

	// ErrMalformedDocument indicates the coordinate document itself is
	// structurally invalid. Unlike per-record skips this aborts the load.
	ErrMalformedDocument = errors.New("malformed coordinate document")
)

// defaultClusterColor is assigned to points whose cluster has no entry
// in the document's clusters map, including the -1 noise sentinel.
const defaultClusterColor = "#808080"

var hexColorPattern = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// visDoc is the coordinate document layout produced by the offline
// embedding pipeline.
type visDoc struct {
	Points   []pointDoc            `json:"points"`
	Clusters map[string]clusterDoc `json:"clusters"`
}

type pointDoc struct {
	ID      int64   `json:"id"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Z       float64 `json:"z"`
	Cluster int     `json:"cluster"`
}

type clusterDoc struct {
	Color string `json:"color"`
}

// Loader performs bulk coordinate loads. At most one load runs at a
// time; concurrent requests fail fast with ErrLoadInProgress.
type Loader struct {
	db    *database.DB
	store objstore.ObjectStore
	mu    sync.Mutex
}

// New creates a loader backed by the given database and object store.
func New(db *database.DB, store objstore.ObjectStore) *Loader {
	return &Loader{db: db, store: store}
}

// Load fetches the named object, validates every record, and upserts all
// valid records in one transaction. Per-record failures are skipped and
// reported in the summary; only fetch errors, a structurally malformed
// document (ErrMalformedDocument), and transaction errors abort the load.
func (l *Loader) Load(ctx context.Context, bucket, object string) (*models.LoadSummary, error) {
	if !l.mu.TryLock() {
		return nil, ErrLoadInProgress
	}
	defer l.mu.Unlock()

	start := time.Now()

	summary, err := l.load(ctx, bucket, object)
	if err != nil {
		metrics.RecordLoad(time.Since(start), 0, 0, 0, err)
		return nil, err
	}

	metrics.RecordLoad(time.Since(start), summary.Inserted, summary.Updated, summary.Skipped, nil)

	logging.Info().
		Str("bucket", bucket).
		Str("object", object).
		Int("inserted", summary.Inserted).
		Int("updated", summary.Updated).
		Int("skipped", summary.Skipped).
		Dur("duration", time.Since(start)).
		Msg("Bulk load completed")

	return summary, nil
}

func (l *Loader) load(ctx context.Context, bucket, object string) (*models.LoadSummary, error) {
	info, err := l.store.Stat(ctx, bucket, object)
	if err != nil {
		metrics.RecordLoadError("object_store")
		return nil, fmt.Errorf("failed to stat coordinate document: %w", err)
	}
	logging.Debug().
		Str("bucket", bucket).
		Str("object", object).
		Int64("size", info.Size).
		Time("last_modified", info.LastModified).
		Msg("Fetching coordinate document")

	data, err := l.store.Fetch(ctx, bucket, object)
	if err != nil {
		metrics.RecordLoadError("object_store")
		return nil, fmt.Errorf("failed to fetch coordinate document: %w", err)
	}

	var doc visDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		metrics.RecordLoadError("decode")
		return nil, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}
	if doc.Points == nil {
		metrics.RecordLoadError("decode")
		return nil, fmt.Errorf("%w: missing points array", ErrMalformedDocument)
	}

	catalogIDs, err := l.db.CatalogIDs(ctx)
	if err != nil {
		metrics.RecordLoadError("database")
		return nil, fmt.Errorf("failed to load catalog ids: %w", err)
	}

	existingIDs, err := l.db.ExistingPointIDs(ctx)
	if err != nil {
		metrics.RecordLoadError("database")
		return nil, fmt.Errorf("failed to load existing point ids: %w", err)
	}

	summary := &models.LoadSummary{Errors: []string{}}
	records := make([]models.PointRecord, 0, len(doc.Points))
	seen := make(map[int64]struct{}, len(doc.Points))

	for i, p := range doc.Points {
		rec, err := validateRecord(p, doc.Clusters, catalogIDs, seen)
		if err != nil {
			summary.Skipped++
			summary.Errors = append(summary.Errors, fmt.Sprintf("record %d (id %d): %v", i, p.ID, err))
			continue
		}
		seen[rec.ID] = struct{}{}
		records = append(records, rec)
		if _, exists := existingIDs[rec.ID]; exists {
			summary.Updated++
		} else {
			summary.Inserted++
		}
	}

	if err := l.db.UpsertPoints(ctx, records); err != nil {
		metrics.RecordLoadError("database")
		return nil, fmt.Errorf("failed to upsert points: %w", err)
	}

	return summary, nil
}

// validateRecord checks one point against the catalog and format rules.
// Any failure skips the record; the load continues with the rest.
func validateRecord(p pointDoc, clusters map[string]clusterDoc, catalogIDs map[int64]struct{}, seen map[int64]struct{}) (models.PointRecord, error) {
	var rec models.PointRecord

	if _, ok := catalogIDs[p.ID]; !ok {
		return rec, errors.New("no matching catalog entry")
	}
	if _, dup := seen[p.ID]; dup {
		return rec, errors.New("duplicate id in document")
	}
	for _, v := range []float64{p.X, p.Y, p.Z} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return rec, errors.New("coordinate is not finite")
		}
	}

	color := defaultClusterColor
	if c, ok := clusters[strconv.Itoa(p.Cluster)]; ok {
		if !hexColorPattern.MatchString(c.Color) {
			return rec, fmt.Errorf("invalid cluster color %q", c.Color)
		}
		color = c.Color
	}

	rec = models.PointRecord{
		ID:           p.ID,
		X:            p.X,
		Y:            p.Y,
		Z:            p.Z,
		Cluster:      p.Cluster,
		ClusterColor: color,
	}
	return rec, nil
}
