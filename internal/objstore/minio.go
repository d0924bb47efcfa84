// Sonosphere - Music Library 3D Visualization API
// Copyright 2026 Sonosphere Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/audiomaps/sonosphere

package objstore

import (
	"context"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/audiomaps/sonosphere/internal/config"
	"github.com/audiomaps/sonosphere/internal/logging"
)

// MinIOStore reads objects from a MinIO or S3-compatible endpoint.
type MinIOStore struct {
	client *minio.Client
}

// NewMinIO creates a store from the configured endpoint and credentials.
func NewMinIO(cfg *config.ObjectStoreConfig) (*MinIOStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create object store client: %w", err)
	}

	logging.Info().
		Str("endpoint", cfg.Endpoint).
		Bool("ssl", cfg.UseSSL).
		Msg("Object store client initialized")

	return &MinIOStore{client: client}, nil
}

// Fetch returns the full contents of an object. Missing buckets and
// objects are reported as ErrNotFound so callers can distinguish them
// from infrastructure failures.
func (s *MinIOStore) Fetch(ctx context.Context, bucket, object string) ([]byte, error) {
	obj, err := s.client.GetObject(ctx, bucket, object, minio.GetObjectOptions{})
	if err != nil {
		return nil, translateMinIOError(err, bucket, object)
	}
	defer func() {
		_ = obj.Close() // Explicitly ignore error - cleanup is best-effort
	}()

	data, err := io.ReadAll(obj)
	if err != nil {
		// GetObject is lazy; missing objects surface on first read
		return nil, translateMinIOError(err, bucket, object)
	}
	return data, nil
}

// Stat returns object metadata without fetching the contents.
func (s *MinIOStore) Stat(ctx context.Context, bucket, object string) (ObjectInfo, error) {
	info, err := s.client.StatObject(ctx, bucket, object, minio.StatObjectOptions{})
	if err != nil {
		return ObjectInfo{}, translateMinIOError(err, bucket, object)
	}
	return ObjectInfo{
		Size:         info.Size,
		LastModified: info.LastModified,
		ETag:         info.ETag,
	}, nil
}

// Health verifies connectivity by listing buckets.
func (s *MinIOStore) Health(ctx context.Context) error {
	if _, err := s.client.ListBuckets(ctx); err != nil {
		return fmt.Errorf("object store unreachable: %w", err)
	}
	return nil
}

// translateMinIOError maps S3 error codes onto package sentinels.
func translateMinIOError(err error, bucket, object string) error {
	resp := minio.ToErrorResponse(err)
	switch resp.Code {
	case "NoSuchKey", "NoSuchBucket", "NotFound":
		return fmt.Errorf("%w: %s/%s", ErrNotFound, bucket, object)
	}
	return fmt.Errorf("failed to fetch %s/%s: %w", bucket, object, err)
}
