// Sonosphere - Music Library 3D Visualization API
// Copyright 2026 Sonosphere Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/audiomaps/sonosphere

// Package objstore provides read access to the object storage bucket
// holding precomputed coordinate documents.
package objstore

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound indicates the requested bucket or object does not exist.
var ErrNotFound = errors.New("object not found")

// ObjectInfo describes a stored object without its contents.
type ObjectInfo struct {
	Size         int64
	LastModified time.Time
	ETag         string
}

// ObjectStore fetches coordinate documents from object storage.
type ObjectStore interface {
	// Fetch returns the full contents of an object.
	Fetch(ctx context.Context, bucket, object string) ([]byte, error)

	// Stat returns object metadata without fetching the contents.
	Stat(ctx context.Context, bucket, object string) (ObjectInfo, error)

	// Health verifies connectivity to the store.
	Health(ctx context.Context) error
}
