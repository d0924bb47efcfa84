// Sonosphere - Music Library 3D Visualization API
// Copyright 2026 Sonosphere Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/audiomaps/sonosphere

package neighbors

import (
	"math"
	"sort"
)

// LinearIndex is an exhaustive-scan index. It keeps squared distances on
// the hot path and takes the square root only when producing results.
// For datasets up to a few hundred thousand points a single pass is
// fast enough that a spatial structure does not pay for itself.
type LinearIndex struct {
	points []Point
	byID   map[int64]Point
}

// NewLinearIndex builds an index over a snapshot of points. The slice is
// not copied; callers must not mutate it afterwards.
func NewLinearIndex(points []Point) *LinearIndex {
	byID := make(map[int64]Point, len(points))
	for _, p := range points {
		byID[p.ID] = p
	}
	return &LinearIndex{points: points, byID: byID}
}

// Len reports the number of indexed points.
func (idx *LinearIndex) Len() int {
	return len(idx.points)
}

// Search returns the k nearest neighbors of the point with the given id,
// ordered by ascending distance with ties broken by ascending id. The
// query point is excluded from its own results.
func (idx *LinearIndex) Search(id int64, k int) ([]Neighbor, error) {
	if k <= 0 {
		return nil, ErrInvalidK
	}

	query, ok := idx.byID[id]
	if !ok {
		return nil, ErrNotFound
	}

	type candidate struct {
		point Point
		dist2 float64
	}

	candidates := make([]candidate, 0, len(idx.points)-1)
	for _, p := range idx.points {
		if p.ID == id {
			continue
		}
		dx := p.X - query.X
		dy := p.Y - query.Y
		dz := p.Z - query.Z
		candidates = append(candidates, candidate{
			point: p,
			dist2: dx*dx + dy*dy + dz*dz,
		})
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].dist2 != candidates[j].dist2 {
			return candidates[i].dist2 < candidates[j].dist2
		}
		return candidates[i].point.ID < candidates[j].point.ID
	})

	if k > len(candidates) {
		k = len(candidates)
	}

	result := make([]Neighbor, k)
	for i := 0; i < k; i++ {
		result[i] = Neighbor{
			Point:    candidates[i].point,
			Distance: math.Sqrt(candidates[i].dist2),
		}
	}
	return result, nil
}
