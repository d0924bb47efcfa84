// Sonosphere - Music Library 3D Visualization API
// Copyright 2026 Sonosphere Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/audiomaps/sonosphere

package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Port != 8420 {
		t.Errorf("server.port = %d, want 8420", cfg.Server.Port)
	}
	if cfg.Database.Path != "/data/sonosphere.duckdb" {
		t.Errorf("database.path = %q", cfg.Database.Path)
	}
	if cfg.Loader.Bucket != "sonosphere" || cfg.Loader.Object != "track_coordinates.json" {
		t.Errorf("unexpected loader defaults: %+v", cfg.Loader)
	}
	if cfg.API.DefaultPointLimit != 10000 || cfg.API.MaxPointLimit != 50000 {
		t.Errorf("unexpected point limits: %+v", cfg.API)
	}
	if cfg.API.DefaultNeighborLimit != 20 || cfg.API.MaxNeighborLimit != 100 {
		t.Errorf("unexpected neighbor limits: %+v", cfg.API)
	}
	if cfg.Security.RateLimitReqs != 100 || cfg.Security.RateLimitWindow != time.Minute {
		t.Errorf("unexpected rate limit defaults: %+v", cfg.Security)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "json" {
		t.Errorf("unexpected logging defaults: %+v", cfg.Logging)
	}
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	t.Setenv("HTTP_PORT", "9999")
	t.Setenv("DUCKDB_PATH", ":memory:")
	t.Setenv("MINIO_ENDPOINT", "minio.internal:9000")
	t.Setenv("LOAD_BUCKET", "custom-bucket")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Port != 9999 {
		t.Errorf("server.port = %d, want 9999", cfg.Server.Port)
	}
	if cfg.Database.Path != ":memory:" {
		t.Errorf("database.path = %q", cfg.Database.Path)
	}
	if cfg.ObjectStore.Endpoint != "minio.internal:9000" {
		t.Errorf("objectstore.endpoint = %q", cfg.ObjectStore.Endpoint)
	}
	if cfg.Loader.Bucket != "custom-bucket" {
		t.Errorf("loader.bucket = %q", cfg.Loader.Bucket)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("logging.level = %q", cfg.Logging.Level)
	}
}

func TestLoadCORSOriginsFromEnv(t *testing.T) {
	t.Setenv("CORS_ORIGINS", "https://a.example.com, https://b.example.com")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if len(cfg.Security.CORSOrigins) != 2 {
		t.Fatalf("cors_origins = %v", cfg.Security.CORSOrigins)
	}
	if cfg.Security.CORSOrigins[0] != "https://a.example.com" {
		t.Errorf("first origin = %q", cfg.Security.CORSOrigins[0])
	}
}

func TestLoadRejectsInvalidPort(t *testing.T) {
	t.Setenv("HTTP_PORT", "70000")

	if _, err := Load(); err == nil {
		t.Fatal("expected validation failure for out-of-range port")
	}
}

func TestValidateRejectsBadLimits(t *testing.T) {
	cfg := defaultConfig()
	cfg.API.DefaultPointLimit = 99999999

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation failure when default exceeds max")
	}
}

func TestEnvTransformIgnoresUnknownKeys(t *testing.T) {
	if got := envTransformFunc("PATH"); got != "" {
		t.Errorf("PATH mapped to %q, want ignored", got)
	}
	if got := envTransformFunc("MINIO_ENDPOINT"); got != "objectstore.endpoint" {
		t.Errorf("MINIO_ENDPOINT mapped to %q", got)
	}
}
