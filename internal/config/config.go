// Sonosphere - Music Library 3D Visualization API
// Copyright 2026 Sonosphere Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/audiomaps/sonosphere

// Package config provides layered configuration for Sonosphere using Koanf v2.
//
// Configuration is assembled from three sources, in increasing priority:
//
//  1. Built-in defaults (defaultConfig)
//  2. Optional YAML config file (CONFIG_PATH or the default search paths)
//  3. Environment variables (MINIO_ENDPOINT, DUCKDB_PATH, HTTP_PORT, ...)
package config

import (
	"fmt"
	"time"
)

// Config is the root configuration for the service.
type Config struct {
	Server      ServerConfig      `koanf:"server"`
	Database    DatabaseConfig    `koanf:"database"`
	ObjectStore ObjectStoreConfig `koanf:"objectstore"`
	Loader      LoaderConfig      `koanf:"loader"`
	API         APIConfig         `koanf:"api"`
	Security    SecurityConfig    `koanf:"security"`
	Logging     LoggingConfig     `koanf:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host    string        `koanf:"host"`
	Port    int           `koanf:"port"`
	Timeout time.Duration `koanf:"timeout"`
}

// DatabaseConfig holds DuckDB connection settings.
type DatabaseConfig struct {
	// Path is the database file location. ":memory:" creates an in-memory
	// database, used by tests.
	Path string `koanf:"path"`

	// MaxMemory caps DuckDB memory usage (e.g. "2GB").
	MaxMemory string `koanf:"max_memory"`

	// Threads sets the DuckDB thread count. 0 means runtime.NumCPU().
	Threads int `koanf:"threads"`

	// PreserveInsertionOrder matches the DuckDB default. Disabling reduces
	// memory usage for large loads but may change unordered result order.
	PreserveInsertionOrder bool `koanf:"preserve_insertion_order"`
}

// ObjectStoreConfig holds MinIO / S3-compatible storage settings.
type ObjectStoreConfig struct {
	Endpoint  string `koanf:"endpoint"`
	AccessKey string `koanf:"access_key"`
	SecretKey string `koanf:"secret_key"`
	UseSSL    bool   `koanf:"use_ssl"`
	Region    string `koanf:"region"`
}

// LoaderConfig holds bulk load defaults.
type LoaderConfig struct {
	// Bucket is the default bucket for the load endpoint.
	Bucket string `koanf:"bucket"`

	// Object is the default object name for the load endpoint.
	Object string `koanf:"object"`
}

// APIConfig holds query parameter bounds for the HTTP surface.
type APIConfig struct {
	DefaultPointLimit    int `koanf:"default_point_limit"`
	MaxPointLimit        int `koanf:"max_point_limit"`
	DefaultSearchLimit   int `koanf:"default_search_limit"`
	MaxSearchLimit       int `koanf:"max_search_limit"`
	DefaultNeighborLimit int `koanf:"default_neighbor_limit"`
	MaxNeighborLimit     int `koanf:"max_neighbor_limit"`
}

// SecurityConfig holds rate limiting and CORS settings.
type SecurityConfig struct {
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
	CORSOrigins       []string      `koanf:"cors_origins"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// Validate checks the configuration for inconsistent or out-of-range values.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be 1-65535, got %d", c.Server.Port)
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("server.timeout must be positive, got %s", c.Server.Timeout)
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path must not be empty")
	}
	if c.API.DefaultPointLimit < 1 || c.API.DefaultPointLimit > c.API.MaxPointLimit {
		return fmt.Errorf("api.default_point_limit must be 1-%d, got %d",
			c.API.MaxPointLimit, c.API.DefaultPointLimit)
	}
	if c.API.DefaultSearchLimit < 1 || c.API.DefaultSearchLimit > c.API.MaxSearchLimit {
		return fmt.Errorf("api.default_search_limit must be 1-%d, got %d",
			c.API.MaxSearchLimit, c.API.DefaultSearchLimit)
	}
	if c.API.DefaultNeighborLimit < 1 || c.API.DefaultNeighborLimit > c.API.MaxNeighborLimit {
		return fmt.Errorf("api.default_neighbor_limit must be 1-%d, got %d",
			c.API.MaxNeighborLimit, c.API.DefaultNeighborLimit)
	}
	if c.Security.RateLimitReqs < 1 {
		return fmt.Errorf("security.rate_limit_reqs must be positive, got %d", c.Security.RateLimitReqs)
	}
	if c.Security.RateLimitWindow <= 0 {
		return fmt.Errorf("security.rate_limit_window must be positive, got %s", c.Security.RateLimitWindow)
	}
	return nil
}
