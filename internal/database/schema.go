// Sonosphere - Music Library 3D Visualization API
// Copyright 2026 Sonosphere Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/audiomaps/sonosphere

package database

import (
	"context"
	"fmt"
	"time"

	"github.com/audiomaps/sonosphere/internal/logging"
)

// schemaContext returns a context with timeout for schema operations
func schemaContext(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, 60*time.Second)
}

// EnsureSchema creates the core tables and indexes if they do not exist.
// It is idempotent and safe to call on every startup or via the admin
// schema endpoint.
//
// track_points deliberately carries no foreign key to tracks: referential
// integrity is enforced per record by the bulk loader so a single bad
// record is skipped instead of aborting the whole load.
func (db *DB) EnsureSchema(ctx context.Context) error {
	ctx, cancel := schemaContext(ctx)
	defer cancel()

	queries := []string{
		`CREATE TABLE IF NOT EXISTS tracks (
			id BIGINT PRIMARY KEY,
			title VARCHAR NOT NULL,
			artist VARCHAR NOT NULL,
			album VARCHAR,
			genre VARCHAR,
			year INTEGER
		)`,
		`CREATE TABLE IF NOT EXISTS track_points (
			id BIGINT PRIMARY KEY,
			x REAL NOT NULL,
			y REAL NOT NULL,
			z REAL NOT NULL,
			cluster INTEGER NOT NULL DEFAULT -1,
			cluster_color VARCHAR(7) NOT NULL DEFAULT '#808080',
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_track_points_cluster ON track_points(cluster)`,
		`CREATE INDEX IF NOT EXISTS idx_tracks_genre ON tracks(genre)`,
	}

	start := time.Now()
	for _, query := range queries {
		if _, err := db.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to execute schema statement: %w", err)
		}
	}

	logging.Debug().Dur("duration", time.Since(start)).Msg("Schema ensured")
	return nil
}
