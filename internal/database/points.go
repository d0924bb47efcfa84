// Sonosphere - Music Library 3D Visualization API
// Copyright 2026 Sonosphere Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/audiomaps/sonosphere

package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/audiomaps/sonosphere/internal/metrics"
	"github.com/audiomaps/sonosphere/internal/models"
	"github.com/audiomaps/sonosphere/internal/neighbors"
)

// trackPointColumns is the shared SELECT list for queries returning
// coordinate rows joined with catalog metadata.
const trackPointColumns = `
	p.id, t.title, t.artist, t.album, t.genre, t.year,
	p.x, p.y, p.z, p.cluster, p.cluster_color, p.created_at`

// scanTrackPoint scans one joined row. Catalog columns arrive through a
// LEFT JOIN so an orphaned coordinate row surfaces as a NULL title, which
// is reported as ErrConsistency rather than dropped.
func scanTrackPoint(rows *sql.Rows) (models.TrackPoint, error) {
	var (
		tp     models.TrackPoint
		title  sql.NullString
		artist sql.NullString
		album  sql.NullString
		genre  sql.NullString
		year   sql.NullInt32
	)

	err := rows.Scan(&tp.ID, &title, &artist, &album, &genre, &year,
		&tp.X, &tp.Y, &tp.Z, &tp.Cluster, &tp.ClusterColor, &tp.CreatedAt)
	if err != nil {
		return tp, fmt.Errorf("failed to scan track point: %w", err)
	}

	if !title.Valid {
		return tp, fmt.Errorf("%w: point %d has no catalog entry", ErrConsistency, tp.ID)
	}

	tp.Title = title.String
	tp.Artist = artist.String
	tp.Album = album.String
	tp.Genre = genre.String
	if year.Valid {
		y := int(year.Int32)
		tp.Year = &y
	}
	return tp, nil
}

// collectTrackPoints drains a joined result set into a slice.
func collectTrackPoints(rows *sql.Rows) ([]models.TrackPoint, error) {
	defer closeQuietly(rows)

	points := make([]models.TrackPoint, 0, 64)
	for rows.Next() {
		tp, err := scanTrackPoint(rows)
		if err != nil {
			return nil, err
		}
		points = append(points, tp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration failed: %w", err)
	}
	return points, nil
}

// ListPoints returns a page of coordinate rows with catalog metadata,
// ordered by ascending id for stable pagination, plus the total row count.
func (db *DB) ListPoints(ctx context.Context, limit, offset int) (*models.PointsPage, error) {
	if limit <= 0 || offset < 0 {
		return nil, fmt.Errorf("%w: limit must be positive and offset non-negative", ErrInvalidArgument)
	}

	start := time.Now()

	var total int64
	err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM track_points`).Scan(&total)
	if err != nil {
		metrics.RecordDBQuery("count", "track_points", time.Since(start), err)
		return nil, fmt.Errorf("failed to count points: %w", err)
	}

	query := `
		SELECT ` + trackPointColumns + `
		FROM track_points p
		LEFT JOIN tracks t ON t.id = p.id
		ORDER BY p.id
		LIMIT ? OFFSET ?`

	rows, err := db.conn.QueryContext(ctx, query, limit, offset)
	if err != nil {
		metrics.RecordDBQuery("select", "track_points", time.Since(start), err)
		return nil, fmt.Errorf("failed to query points: %w", err)
	}

	points, err := collectTrackPoints(rows)
	metrics.RecordDBQuery("select", "track_points", time.Since(start), err)
	if err != nil {
		return nil, err
	}

	return &models.PointsPage{
		Points: points,
		Total:  total,
		Limit:  limit,
		Offset: offset,
	}, nil
}

// PointCoordinates returns the bare coordinates of every stored point,
// used to build the in-memory nearest-neighbor index.
func (db *DB) PointCoordinates(ctx context.Context) ([]neighbors.Point, error) {
	start := time.Now()

	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, x, y, z FROM track_points ORDER BY id`)
	if err != nil {
		metrics.RecordDBQuery("select", "track_points", time.Since(start), err)
		return nil, fmt.Errorf("failed to query coordinates: %w", err)
	}
	defer closeQuietly(rows)

	points := make([]neighbors.Point, 0, 1024)
	for rows.Next() {
		var p neighbors.Point
		if err := rows.Scan(&p.ID, &p.X, &p.Y, &p.Z); err != nil {
			metrics.RecordDBQuery("select", "track_points", time.Since(start), err)
			return nil, fmt.Errorf("failed to scan coordinate: %w", err)
		}
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		metrics.RecordDBQuery("select", "track_points", time.Since(start), err)
		return nil, fmt.Errorf("row iteration failed: %w", err)
	}

	metrics.RecordDBQuery("select", "track_points", time.Since(start), nil)
	return points, nil
}

// TrackPoint returns a single coordinate row with catalog metadata.
func (db *DB) TrackPoint(ctx context.Context, id int64) (*models.TrackPoint, error) {
	start := time.Now()

	query := `
		SELECT ` + trackPointColumns + `
		FROM track_points p
		LEFT JOIN tracks t ON t.id = p.id
		WHERE p.id = ?`

	rows, err := db.conn.QueryContext(ctx, query, id)
	if err != nil {
		metrics.RecordDBQuery("select", "track_points", time.Since(start), err)
		return nil, fmt.Errorf("failed to query point: %w", err)
	}

	points, err := collectTrackPoints(rows)
	metrics.RecordDBQuery("select", "track_points", time.Since(start), err)
	if err != nil {
		return nil, err
	}
	if len(points) == 0 {
		return nil, fmt.Errorf("%w: track %d", ErrNotFound, id)
	}
	return &points[0], nil
}

// TrackPointsByIDs returns joined rows for the given ids, keyed by id.
// Used to hydrate neighbor query results with catalog metadata.
func (db *DB) TrackPointsByIDs(ctx context.Context, ids []int64) (map[int64]models.TrackPoint, error) {
	result := make(map[int64]models.TrackPoint, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	start := time.Now()

	placeholders := ""
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		if i > 0 {
			placeholders += ","
		}
		placeholders += "?"
		args[i] = id
	}

	query := `
		SELECT ` + trackPointColumns + `
		FROM track_points p
		LEFT JOIN tracks t ON t.id = p.id
		WHERE p.id IN (` + placeholders + `)`

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		metrics.RecordDBQuery("select", "track_points", time.Since(start), err)
		return nil, fmt.Errorf("failed to query points by id: %w", err)
	}

	points, err := collectTrackPoints(rows)
	metrics.RecordDBQuery("select", "track_points", time.Since(start), err)
	if err != nil {
		return nil, err
	}

	for _, tp := range points {
		result[tp.ID] = tp
	}
	return result, nil
}

// CatalogIDs returns the set of track ids present in the catalog,
// prefetched by the loader for per-record referential integrity checks.
func (db *DB) CatalogIDs(ctx context.Context) (map[int64]struct{}, error) {
	return db.idSet(ctx, "tracks")
}

// ExistingPointIDs returns the set of ids already present in the
// coordinate store, used to split an upsert into inserted vs updated.
func (db *DB) ExistingPointIDs(ctx context.Context) (map[int64]struct{}, error) {
	return db.idSet(ctx, "track_points")
}

func (db *DB) idSet(ctx context.Context, table string) (map[int64]struct{}, error) {
	start := time.Now()

	rows, err := db.conn.QueryContext(ctx, fmt.Sprintf("SELECT id FROM %s", table)) //nolint:gosec // table name is a compile-time constant
	if err != nil {
		metrics.RecordDBQuery("select", table, time.Since(start), err)
		return nil, fmt.Errorf("failed to query %s ids: %w", table, err)
	}
	defer closeQuietly(rows)

	ids := make(map[int64]struct{}, 1024)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			metrics.RecordDBQuery("select", table, time.Since(start), err)
			return nil, fmt.Errorf("failed to scan id: %w", err)
		}
		ids[id] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		metrics.RecordDBQuery("select", table, time.Since(start), err)
		return nil, fmt.Errorf("row iteration failed: %w", err)
	}

	metrics.RecordDBQuery("select", table, time.Since(start), nil)
	return ids, nil
}

// UpsertPoints writes all records in a single transaction: either every
// validated record lands or none do. Re-loading the same document is
// idempotent, with previously present rows counted as updates.
func (db *DB) UpsertPoints(ctx context.Context, records []models.PointRecord) error {
	if len(records) == 0 {
		return nil
	}

	start := time.Now()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		metrics.RecordDBQuery("upsert", "track_points", time.Since(start), err)
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback() // No-op after commit
	}()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO track_points (id, x, y, z, cluster, cluster_color)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			x = EXCLUDED.x,
			y = EXCLUDED.y,
			z = EXCLUDED.z,
			cluster = EXCLUDED.cluster,
			cluster_color = EXCLUDED.cluster_color`)
	if err != nil {
		metrics.RecordDBQuery("upsert", "track_points", time.Since(start), err)
		return fmt.Errorf("failed to prepare upsert: %w", err)
	}
	defer closeQuietly(stmt)

	for _, rec := range records {
		if _, err := stmt.ExecContext(ctx, rec.ID, rec.X, rec.Y, rec.Z, rec.Cluster, rec.ClusterColor); err != nil {
			metrics.RecordDBQuery("upsert", "track_points", time.Since(start), err)
			return fmt.Errorf("failed to upsert point %d: %w", rec.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		metrics.RecordDBQuery("upsert", "track_points", time.Since(start), err)
		return fmt.Errorf("failed to commit upsert: %w", err)
	}

	metrics.RecordDBQuery("upsert", "track_points", time.Since(start), nil)
	return nil
}

// UpsertTracks writes catalog rows, replacing metadata on conflict.
// Primarily used by tests and catalog seeding.
func (db *DB) UpsertTracks(ctx context.Context, tracks []models.TrackPoint) error {
	if len(tracks) == 0 {
		return nil
	}

	start := time.Now()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		metrics.RecordDBQuery("upsert", "tracks", time.Since(start), err)
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO tracks (id, title, artist, album, genre, year)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			artist = EXCLUDED.artist,
			album = EXCLUDED.album,
			genre = EXCLUDED.genre,
			year = EXCLUDED.year`)
	if err != nil {
		metrics.RecordDBQuery("upsert", "tracks", time.Since(start), err)
		return fmt.Errorf("failed to prepare catalog upsert: %w", err)
	}
	defer closeQuietly(stmt)

	for _, t := range tracks {
		var year interface{}
		if t.Year != nil {
			year = *t.Year
		}
		if _, err := stmt.ExecContext(ctx, t.ID, t.Title, t.Artist, t.Album, t.Genre, year); err != nil {
			metrics.RecordDBQuery("upsert", "tracks", time.Since(start), err)
			return fmt.Errorf("failed to upsert track %d: %w", t.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		metrics.RecordDBQuery("upsert", "tracks", time.Since(start), err)
		return fmt.Errorf("failed to commit catalog upsert: %w", err)
	}

	metrics.RecordDBQuery("upsert", "tracks", time.Since(start), nil)
	return nil
}

// SearchTracks performs a case-insensitive substring search over title,
// artist, album, and genre, returning up to limit joined rows plus the
// total match count.
func (db *DB) SearchTracks(ctx context.Context, q string, limit int) (*models.SearchResult, error) {
	if q == "" {
		return nil, fmt.Errorf("%w: query must not be empty", ErrInvalidArgument)
	}
	if limit <= 0 {
		return nil, fmt.Errorf("%w: limit must be positive", ErrInvalidArgument)
	}

	start := time.Now()
	pattern := "%" + q + "%"

	var total int64
	err := db.conn.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM track_points p
		JOIN tracks t ON t.id = p.id
		WHERE t.title ILIKE ? OR t.artist ILIKE ? OR t.album ILIKE ? OR t.genre ILIKE ?`,
		pattern, pattern, pattern, pattern).Scan(&total)
	if err != nil {
		metrics.RecordDBQuery("search", "tracks", time.Since(start), err)
		return nil, fmt.Errorf("failed to count search matches: %w", err)
	}

	query := `
		SELECT ` + trackPointColumns + `
		FROM track_points p
		JOIN tracks t ON t.id = p.id
		WHERE t.title ILIKE ? OR t.artist ILIKE ? OR t.album ILIKE ? OR t.genre ILIKE ?
		ORDER BY t.artist, t.album, t.title
		LIMIT ?`

	rows, err := db.conn.QueryContext(ctx, query, pattern, pattern, pattern, pattern, limit)
	if err != nil {
		metrics.RecordDBQuery("search", "tracks", time.Since(start), err)
		return nil, fmt.Errorf("failed to search tracks: %w", err)
	}

	results, err := collectTrackPoints(rows)
	metrics.RecordDBQuery("search", "tracks", time.Since(start), err)
	if err != nil {
		return nil, err
	}

	return &models.SearchResult{
		Query:   q,
		Total:   total,
		Results: results,
	}, nil
}

// ClusterDetail returns the summary and members of one cluster, including
// the -1 noise sentinel. Members are ordered by artist, album, title.
// Returns ErrNotFound when the cluster has no members.
func (db *DB) ClusterDetail(ctx context.Context, clusterID int) (*models.ClusterDetail, error) {
	start := time.Now()

	query := `
		SELECT ` + trackPointColumns + `
		FROM track_points p
		LEFT JOIN tracks t ON t.id = p.id
		WHERE p.cluster = ?
		ORDER BY t.artist, t.album, t.title`

	rows, err := db.conn.QueryContext(ctx, query, clusterID)
	if err != nil {
		metrics.RecordDBQuery("select", "track_points", time.Since(start), err)
		return nil, fmt.Errorf("failed to query cluster members: %w", err)
	}

	members, err := collectTrackPoints(rows)
	metrics.RecordDBQuery("select", "track_points", time.Since(start), err)
	if err != nil {
		return nil, err
	}
	if len(members) == 0 {
		return nil, fmt.Errorf("%w: cluster %d", ErrNotFound, clusterID)
	}

	detail := &models.ClusterDetail{
		ClusterSummary: models.ClusterSummary{
			ID:     clusterID,
			Color:  members[0].ClusterColor,
			Count:  int64(len(members)),
			Center: clusterCenter(members),
		},
		Tracks: members,
	}
	return detail, nil
}

// clusterCenter computes the centroid of member coordinates.
func clusterCenter(members []models.TrackPoint) []float64 {
	var sx, sy, sz float64
	for _, m := range members {
		sx += m.X
		sy += m.Y
		sz += m.Z
	}
	n := float64(len(members))
	return []float64{sx / n, sy / n, sz / n}
}
