// Sonosphere - Music Library 3D Visualization API
// Copyright 2026 Sonosphere Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/audiomaps/sonosphere

package api

// Request parameter structs validated with go-playground/validator.
// Limits mirror the configured API bounds.

// PointsRequest bounds pagination over the coordinate listing.
type PointsRequest struct {
	Limit  int `validate:"min=1,max=50000"`
	Offset int `validate:"min=0"`
}

// SearchRequest bounds the free-text track search.
type SearchRequest struct {
	Query string `validate:"required,min=1,max=200"`
	Limit int    `validate:"min=1,max=500"`
}

// NeighborsRequest bounds the nearest-neighbor query.
type NeighborsRequest struct {
	Limit int `validate:"min=1,max=100"`
}

// LoadRequest names the coordinate document to load.
type LoadRequest struct {
	Bucket string `validate:"required,min=1,max=128"`
	Object string `validate:"required,min=1,max=512"`
}
