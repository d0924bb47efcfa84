// Sonosphere - Music Library 3D Visualization API
// Copyright 2026 Sonosphere Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/audiomaps/sonosphere

package database

import (
	"context"
	"testing"

	"github.com/audiomaps/sonosphere/internal/models"
)

func TestStatsExcludesNoiseCluster(t *testing.T) {
	db := testDB(t)
	seedDataset(t, db)

	stats, err := db.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}

	if stats.TotalTracks != 4 {
		t.Errorf("total_tracks = %d, want 4", stats.TotalTracks)
	}
	// Clusters 0 and 1; the -1 noise sentinel must not be counted
	if stats.TotalClusters != 2 {
		t.Errorf("total_clusters = %d, want 2", stats.TotalClusters)
	}
}

func TestStatsGenreDistribution(t *testing.T) {
	db := testDB(t)
	seedDataset(t, db)

	stats, err := db.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}

	if stats.GenreDistribution["Ambient"] != 2 || stats.GenreDistribution["Jazz"] != 2 {
		t.Errorf("unexpected genre distribution: %v", stats.GenreDistribution)
	}
	if len(stats.TopGenres) != 2 {
		t.Fatalf("expected 2 top genres, got %d", len(stats.TopGenres))
	}
	// Equal counts order alphabetically
	if stats.TopGenres[0].Genre != "Ambient" {
		t.Errorf("unexpected top genre ordering: %v", stats.TopGenres)
	}
}

func TestStatsBlankGenreGroupedAsUnknown(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	tracks := []models.TrackPoint{
		{ID: 1, Title: "Untagged", Artist: "Someone"},
	}
	if err := db.UpsertTracks(ctx, tracks); err != nil {
		t.Fatalf("failed to seed catalog: %v", err)
	}
	points := []models.PointRecord{
		{ID: 1, X: 0, Y: 0, Z: 0, Cluster: -1, ClusterColor: "#808080"},
	}
	if err := db.UpsertPoints(ctx, points); err != nil {
		t.Fatalf("failed to seed points: %v", err)
	}

	stats, err := db.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.GenreDistribution["Unknown"] != 1 {
		t.Errorf("blank genre not grouped as Unknown: %v", stats.GenreDistribution)
	}
}

func TestStatsLargestCluster(t *testing.T) {
	db := testDB(t)
	seedDataset(t, db)

	stats, err := db.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}

	if stats.LargestCluster == nil {
		t.Fatal("expected a largest cluster")
	}
	if stats.LargestCluster.ID != 0 || stats.LargestCluster.Count != 2 {
		t.Errorf("unexpected largest cluster: %+v", stats.LargestCluster)
	}
	if len(stats.LargestCluster.Center) != 3 {
		t.Errorf("centroid missing: %v", stats.LargestCluster.Center)
	}
}

func TestStatsEmptyDataset(t *testing.T) {
	db := testDB(t)

	stats, err := db.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats failed on empty dataset: %v", err)
	}
	if stats.TotalTracks != 0 || stats.TotalClusters != 0 {
		t.Errorf("unexpected counts: %+v", stats)
	}
	if stats.LargestCluster != nil {
		t.Errorf("expected nil largest cluster, got %+v", stats.LargestCluster)
	}
}
