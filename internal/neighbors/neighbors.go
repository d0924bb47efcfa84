// Sonosphere - Music Library 3D Visualization API
// Copyright 2026 Sonosphere Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/audiomaps/sonosphere

// Package neighbors implements nearest-neighbor search over the 3D
// visualization coordinates. The Index interface allows swapping the
// default linear scan for a spatial structure without touching callers.
package neighbors

import "errors"

// Point is a bare 3D coordinate identified by its track id.
type Point struct {
	ID int64
	X  float64
	Y  float64
	Z  float64
}

// Neighbor is a search result: a point and its Euclidean distance from
// the query point.
type Neighbor struct {
	Point    Point
	Distance float64
}

var (
	// ErrNotFound indicates the query id has no stored coordinate.
	ErrNotFound = errors.New("track not found in index")

	// ErrInvalidK indicates a non-positive neighbor count.
	ErrInvalidK = errors.New("k must be positive")
)

// Index finds the k nearest neighbors of a stored point.
//
// Implementations must order results by ascending distance, breaking
// ties by ascending id, and must exclude the query point itself. A k
// larger than the remaining population returns all other points.
type Index interface {
	Search(id int64, k int) ([]Neighbor, error)

	// Len reports the number of indexed points.
	Len() int
}
