// Sonosphere - Music Library 3D Visualization API
// Copyright 2026 Sonosphere Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/audiomaps/sonosphere

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/audiomaps/sonosphere/internal/metrics"
	"github.com/audiomaps/sonosphere/internal/models"
)

// topGenreCount caps the top_genres list in the stats payload.
const topGenreCount = 10

// Stats aggregates the coordinate dataset. Cluster counts exclude the
// noise sentinel (cluster < 0); the genre distribution groups blank
// genres under "Unknown".
func (db *DB) Stats(ctx context.Context) (*models.VisualizationStats, error) {
	start := time.Now()

	stats := &models.VisualizationStats{
		GenreDistribution: make(map[string]int64),
	}

	err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM track_points`).Scan(&stats.TotalTracks)
	if err != nil {
		metrics.RecordDBQuery("stats", "track_points", time.Since(start), err)
		return nil, fmt.Errorf("failed to count tracks: %w", err)
	}

	err = db.conn.QueryRowContext(ctx,
		`SELECT COUNT(DISTINCT cluster) FROM track_points WHERE cluster >= 0`).Scan(&stats.TotalClusters)
	if err != nil {
		metrics.RecordDBQuery("stats", "track_points", time.Since(start), err)
		return nil, fmt.Errorf("failed to count clusters: %w", err)
	}

	if err := db.genreDistribution(ctx, stats); err != nil {
		metrics.RecordDBQuery("stats", "tracks", time.Since(start), err)
		return nil, err
	}

	largest, err := db.largestCluster(ctx)
	if err != nil {
		metrics.RecordDBQuery("stats", "track_points", time.Since(start), err)
		return nil, err
	}
	stats.LargestCluster = largest

	metrics.RecordDBQuery("stats", "track_points", time.Since(start), nil)
	return stats, nil
}

// genreDistribution fills GenreDistribution and TopGenres from the
// catalog rows that have coordinates.
func (db *DB) genreDistribution(ctx context.Context, stats *models.VisualizationStats) error {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT COALESCE(NULLIF(t.genre, ''), 'Unknown') AS genre, COUNT(*) AS cnt
		FROM track_points p
		JOIN tracks t ON t.id = p.id
		GROUP BY 1`)
	if err != nil {
		return fmt.Errorf("failed to query genre distribution: %w", err)
	}
	defer closeQuietly(rows)

	for rows.Next() {
		var (
			genre string
			count int64
		)
		if err := rows.Scan(&genre, &count); err != nil {
			return fmt.Errorf("failed to scan genre row: %w", err)
		}
		stats.GenreDistribution[genre] = count
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("row iteration failed: %w", err)
	}

	top := make([]models.GenreCount, 0, len(stats.GenreDistribution))
	for genre, count := range stats.GenreDistribution {
		top = append(top, models.GenreCount{Genre: genre, Count: count})
	}
	sort.Slice(top, func(i, j int) bool {
		if top[i].Count != top[j].Count {
			return top[i].Count > top[j].Count
		}
		return top[i].Genre < top[j].Genre
	})
	if len(top) > topGenreCount {
		top = top[:topGenreCount]
	}
	stats.TopGenres = top
	return nil
}

// largestCluster returns the most populous non-noise cluster, or nil
// when no clustered points exist.
func (db *DB) largestCluster(ctx context.Context) (*models.ClusterSummary, error) {
	var (
		summary models.ClusterSummary
		cx, cy  float64
		cz      float64
	)

	err := db.conn.QueryRowContext(ctx, `
		SELECT cluster, cluster_color, COUNT(*) AS cnt, AVG(x), AVG(y), AVG(z)
		FROM track_points
		WHERE cluster >= 0
		GROUP BY cluster, cluster_color
		ORDER BY cnt DESC, cluster ASC
		LIMIT 1`).Scan(&summary.ID, &summary.Color, &summary.Count, &cx, &cy, &cz)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query largest cluster: %w", err)
	}

	summary.Center = []float64{cx, cy, cz}
	return &summary, nil
}
