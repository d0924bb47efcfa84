// Sonosphere - Music Library 3D Visualization API
// Copyright 2026 Sonosphere Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/audiomaps/sonosphere

package objstore

import (
	"context"
	"errors"
	"testing"

	gobreaker "github.com/sony/gobreaker/v2"
)

// fakeStore returns canned responses for breaker behavior tests.
type fakeStore struct {
	data map[string][]byte
	err  error
}

func (f *fakeStore) Fetch(_ context.Context, bucket, object string) ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	key := bucket + "/" + object
	data, ok := f.data[key]
	if !ok {
		return nil, ErrNotFound
	}
	return data, nil
}

func (f *fakeStore) Stat(_ context.Context, bucket, object string) (ObjectInfo, error) {
	if f.err != nil {
		return ObjectInfo{}, f.err
	}
	data, ok := f.data[bucket+"/"+object]
	if !ok {
		return ObjectInfo{}, ErrNotFound
	}
	return ObjectInfo{Size: int64(len(data))}, nil
}

func (f *fakeStore) Health(_ context.Context) error {
	return f.err
}

func TestBreakerStorePassesThroughSuccess(t *testing.T) {
	inner := &fakeStore{data: map[string][]byte{
		"music/points.json": []byte(`{"points":[]}`),
	}}
	store := NewBreakerStore(inner)

	data, err := store.Fetch(context.Background(), "music", "points.json")
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if string(data) != `{"points":[]}` {
		t.Errorf("unexpected data: %s", data)
	}
	if store.State() != gobreaker.StateClosed {
		t.Errorf("expected closed breaker, got %v", store.State())
	}
}

func TestBreakerStoreNotFoundDoesNotTrip(t *testing.T) {
	inner := &fakeStore{data: map[string][]byte{}}
	store := NewBreakerStore(inner)

	// Missing objects are client errors; many of them must not open the circuit
	for i := 0; i < 20; i++ {
		_, err := store.Fetch(context.Background(), "music", "missing.json")
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	}

	if store.State() != gobreaker.StateClosed {
		t.Errorf("breaker opened on not-found errors: %v", store.State())
	}
}

func TestBreakerStoreOpensOnRepeatedFailures(t *testing.T) {
	inner := &fakeStore{err: errors.New("connection refused")}
	store := NewBreakerStore(inner)

	for i := 0; i < 10; i++ {
		_, _ = store.Fetch(context.Background(), "music", "points.json")
	}

	if store.State() != gobreaker.StateOpen {
		t.Fatalf("expected open breaker after repeated failures, got %v", store.State())
	}

	_, err := store.Fetch(context.Background(), "music", "points.json")
	if !errors.Is(err, gobreaker.ErrOpenState) {
		t.Errorf("expected ErrOpenState from open breaker, got %v", err)
	}
}

func TestBreakerStoreHealthBypassesBreaker(t *testing.T) {
	inner := &fakeStore{err: errors.New("connection refused")}
	store := NewBreakerStore(inner)

	for i := 0; i < 10; i++ {
		_, _ = store.Fetch(context.Background(), "music", "points.json")
	}

	// Health must report the real endpoint state even with the circuit open
	if err := store.Health(context.Background()); err == nil {
		t.Error("expected health check failure from unreachable store")
	}

	inner.err = nil
	if err := store.Health(context.Background()); err != nil {
		t.Errorf("expected healthy store, got %v", err)
	}
}
