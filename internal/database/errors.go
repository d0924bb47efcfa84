// Sonosphere - Music Library 3D Visualization API
// Copyright 2026 Sonosphere Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/audiomaps/sonosphere

package database

import (
	"errors"
	"io"

	"github.com/audiomaps/sonosphere/internal/logging"
)

// Sentinel errors returned by data access methods. Callers compare with
// errors.Is to map them to HTTP status codes.
var (
	// ErrNotFound indicates the requested row does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidArgument indicates a caller-supplied parameter is out of range.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrConsistency indicates a coordinate row without a matching catalog
	// entry. Orphaned rows are surfaced, never silently dropped.
	ErrConsistency = errors.New("catalog consistency violation")
)

// closeWithLog closes a resource and logs any error
// Use this for cleanup operations where errors should be acknowledged but not fail the operation
func closeWithLog(closer io.Closer, resourceType string) {
	if closer == nil {
		return
	}
	if err := closer.Close(); err != nil {
		logging.Warn().Str("type", resourceType).Err(err).Msg("Failed to close resource")
	}
}

// closeQuietly closes a resource and explicitly ignores any error
// Use this for cleanup operations in error paths where Close() errors are not actionable
func closeQuietly(closer io.Closer) {
	if closer != nil {
		_ = closer.Close() // Explicitly ignore error - cleanup is best-effort
	}
}
