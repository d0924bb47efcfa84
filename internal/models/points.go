// Sonosphere - Music Library 3D Visualization API
// Copyright 2026 Sonosphere Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/audiomaps/sonosphere

// Package models defines the shared data structures exchanged between the
// database layer, the loader, and the HTTP API.
package models

import "time"

// TrackPoint is a visualization coordinate enriched with catalog metadata.
// The coordinate columns come from the track_points table; title through
// year come from the tracks catalog join.
type TrackPoint struct {
	ID           int64     `json:"id"`
	Title        string    `json:"title"`
	Artist       string    `json:"artist"`
	Album        string    `json:"album,omitempty"`
	Genre        string    `json:"genre,omitempty"`
	Year         *int      `json:"year,omitempty"`
	X            float64   `json:"x"`
	Y            float64   `json:"y"`
	Z            float64   `json:"z"`
	Cluster      int       `json:"cluster"`
	ClusterColor string    `json:"cluster_color"`
	CreatedAt    time.Time `json:"created_at"`
}

// PointRecord is a validated coordinate row ready for upsert.
// It carries no catalog metadata; the id references the tracks catalog.
type PointRecord struct {
	ID           int64
	X            float64
	Y            float64
	Z            float64
	Cluster      int
	ClusterColor string
}

// PointsPage is a paginated slice of track points.
type PointsPage struct {
	Points []TrackPoint `json:"points"`
	Total  int64        `json:"total"`
	Limit  int          `json:"limit"`
	Offset int          `json:"offset"`
}

// LoadSummary reports the outcome of a bulk coordinate load.
// Skipped records are counted and described but never abort the load.
type LoadSummary struct {
	Inserted int      `json:"inserted"`
	Updated  int      `json:"updated"`
	Skipped  int      `json:"skipped"`
	Errors   []string `json:"errors"`
}

// SearchResult holds case-insensitive substring search matches.
type SearchResult struct {
	Query   string       `json:"query"`
	Total   int64        `json:"total"`
	Results []TrackPoint `json:"results"`
}

// ClusterSummary aggregates one cluster: member count, display color, and
// the centroid of member coordinates.
type ClusterSummary struct {
	ID     int       `json:"id"`
	Color  string    `json:"color"`
	Count  int64     `json:"count"`
	Center []float64 `json:"center"` // [x, y, z]
}

// ClusterDetail is a cluster summary plus its member tracks,
// ordered by artist, album, title.
type ClusterDetail struct {
	ClusterSummary
	Tracks []TrackPoint `json:"tracks"`
}

// Neighbor is a nearest-neighbor result: the matched point and its
// Euclidean distance from the query track.
type Neighbor struct {
	TrackPoint
	Distance float64 `json:"distance"`
}

// NeighborsResult is the response payload of the neighbors endpoint.
type NeighborsResult struct {
	TrackID   int64      `json:"track_id"`
	Neighbors []Neighbor `json:"neighbors"`
}

// VisualizationStats aggregates the coordinate dataset for dashboards.
// Cluster statistics exclude the noise sentinel (cluster < 0).
type VisualizationStats struct {
	TotalTracks       int64            `json:"total_tracks"`
	TotalClusters     int64            `json:"total_clusters"`
	GenreDistribution map[string]int64 `json:"genre_distribution"`
	TopGenres         []GenreCount     `json:"top_genres"`
	LargestCluster    *ClusterSummary  `json:"largest_cluster,omitempty"`
}

// GenreCount is a genre with its track count, used for ordered top lists.
type GenreCount struct {
	Genre string `json:"genre"`
	Count int64  `json:"count"`
}
