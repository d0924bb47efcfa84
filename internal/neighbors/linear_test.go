// Sonosphere - Music Library 3D Visualization API
// Copyright 2026 Sonosphere Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/audiomaps/sonosphere

package neighbors

import (
	"errors"
	"math"
	"testing"
)

func testPoints() []Point {
	return []Point{
		{ID: 1, X: 0, Y: 0, Z: 0},
		{ID: 2, X: 1, Y: 0, Z: 0},
		{ID: 3, X: 0, Y: 2, Z: 0},
		{ID: 4, X: 0, Y: 0, Z: 3},
		{ID: 5, X: 1, Y: 1, Z: 1},
	}
}

func TestLinearIndexSearchOrdering(t *testing.T) {
	idx := NewLinearIndex(testPoints())

	got, err := idx.Search(1, 4)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}

	wantIDs := []int64{2, 5, 3, 4}
	if len(got) != len(wantIDs) {
		t.Fatalf("expected %d neighbors, got %d", len(wantIDs), len(got))
	}
	for i, n := range got {
		if n.Point.ID != wantIDs[i] {
			t.Errorf("neighbor %d: expected id %d, got %d", i, wantIDs[i], n.Point.ID)
		}
	}

	// Distances must be ascending and real Euclidean values
	for i := 1; i < len(got); i++ {
		if got[i].Distance < got[i-1].Distance {
			t.Errorf("distances not ascending at index %d: %f < %f", i, got[i].Distance, got[i-1].Distance)
		}
	}
	if math.Abs(got[0].Distance-1.0) > 1e-9 {
		t.Errorf("expected distance 1.0 to nearest neighbor, got %f", got[0].Distance)
	}
	if math.Abs(got[1].Distance-math.Sqrt(3)) > 1e-9 {
		t.Errorf("expected distance sqrt(3), got %f", got[1].Distance)
	}
}

func TestLinearIndexTieBreakByID(t *testing.T) {
	// Points 10 and 20 are equidistant from point 1
	points := []Point{
		{ID: 1, X: 0, Y: 0, Z: 0},
		{ID: 20, X: 0, Y: 1, Z: 0},
		{ID: 10, X: 1, Y: 0, Z: 0},
	}
	idx := NewLinearIndex(points)

	got, err := idx.Search(1, 2)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if got[0].Point.ID != 10 || got[1].Point.ID != 20 {
		t.Errorf("tie not broken by ascending id: got %d, %d", got[0].Point.ID, got[1].Point.ID)
	}
}

func TestLinearIndexExcludesSelf(t *testing.T) {
	idx := NewLinearIndex(testPoints())

	got, err := idx.Search(3, 10)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	for _, n := range got {
		if n.Point.ID == 3 {
			t.Error("query point returned as its own neighbor")
		}
	}
}

func TestLinearIndexKLargerThanPopulation(t *testing.T) {
	idx := NewLinearIndex(testPoints())

	got, err := idx.Search(1, 100)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(got) != 4 {
		t.Errorf("expected all 4 other points, got %d", len(got))
	}
}

func TestLinearIndexInvalidK(t *testing.T) {
	idx := NewLinearIndex(testPoints())

	for _, k := range []int{0, -1, -100} {
		if _, err := idx.Search(1, k); !errors.Is(err, ErrInvalidK) {
			t.Errorf("k=%d: expected ErrInvalidK, got %v", k, err)
		}
	}
}

func TestLinearIndexUnknownID(t *testing.T) {
	idx := NewLinearIndex(testPoints())

	if _, err := idx.Search(999, 3); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown id, got %v", err)
	}
}

func TestLinearIndexSinglePoint(t *testing.T) {
	idx := NewLinearIndex([]Point{{ID: 7, X: 1, Y: 2, Z: 3}})

	got, err := idx.Search(7, 5)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected no neighbors in single-point index, got %d", len(got))
	}
}

func TestLinearIndexLen(t *testing.T) {
	idx := NewLinearIndex(testPoints())
	if idx.Len() != 5 {
		t.Errorf("expected Len 5, got %d", idx.Len())
	}
}
