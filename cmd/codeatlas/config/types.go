// Copyright (C) 2025 CodeAtlas AI (oss@codeatlas.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package config

// CodeAtlasConfig is the on-disk configuration, stored at
// ~/.codeatlas/codeatlas.yaml and created with defaults on first run.
type CodeAtlasConfig struct {
	// Server configures the HTTP API.
	Server ServerConfig `yaml:"server"`

	// Scanner bounds workspace scanning.
	Scanner ScannerConfig `yaml:"scanner"`

	// Cache bounds the in-memory graph cache.
	Cache CacheConfig `yaml:"cache"`

	// Store configures graph persistence.
	Store StoreConfig `yaml:"store"`

	// Logging configures structured log output.
	Logging LoggingConfig `yaml:"logging"`

	// Watch configures filesystem watch mode.
	Watch WatchConfig `yaml:"watch"`
}

type ServerConfig struct {
	Host string `yaml:"host" validate:"required"`
	Port int    `yaml:"port" validate:"gte=1,lte=65535"`

	// ShutdownTimeoutSeconds bounds graceful shutdown.
	ShutdownTimeoutSeconds int `yaml:"shutdown_timeout_seconds" validate:"gte=1"`
}

type ScannerConfig struct {
	// MaxFiles caps how many source files a single build will read.
	MaxFiles int `yaml:"max_files" validate:"gte=1"`

	// MaxFileSizeBytes caps individual file size; larger files are skipped.
	MaxFileSizeBytes int64 `yaml:"max_file_size_bytes" validate:"gte=1"`

	// Concurrency bounds parallel file reads.
	Concurrency int `yaml:"concurrency" validate:"gte=1,lte=128"`
}

type CacheConfig struct {
	// MaxGraphs is the LRU capacity for cached project graphs.
	MaxGraphs int `yaml:"max_graphs" validate:"gte=1"`

	// TTLMinutes evicts graphs untouched for this long.
	TTLMinutes int `yaml:"ttl_minutes" validate:"gte=1"`
}

type StoreConfig struct {
	// Path is the Badger database directory. Supports ~ expansion.
	Path string `yaml:"path" validate:"required"`

	// InMemory disables persistence; graphs live only for the process.
	InMemory bool `yaml:"in_memory"`
}

type LoggingConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level" validate:"oneof=debug info warn error"`

	// LogDir enables file logging when set. Supports ~ expansion.
	LogDir string `yaml:"log_dir"`

	// JSON switches stderr output to JSON.
	JSON bool `yaml:"json"`
}

type WatchConfig struct {
	// DebounceMillis batches rapid filesystem events.
	DebounceMillis int `yaml:"debounce_millis" validate:"gte=10"`

	// Ignore lists glob patterns excluded from watching.
	Ignore []string `yaml:"ignore"`
}

// DefaultConfig returns the configuration written on first run.
func DefaultConfig() CodeAtlasConfig {
	return CodeAtlasConfig{
		Server: ServerConfig{
			Host:                   "127.0.0.1",
			Port:                   8640,
			ShutdownTimeoutSeconds: 15,
		},
		Scanner: ScannerConfig{
			MaxFiles:         50000,
			MaxFileSizeBytes: 2 << 20,
			Concurrency:      8,
		},
		Cache: CacheConfig{
			MaxGraphs:  8,
			TTLMinutes: 60,
		},
		Store: StoreConfig{
			Path:     "~/.codeatlas/db",
			InMemory: false,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Watch: WatchConfig{
			DebounceMillis: 100,
			Ignore: []string{
				".git", "node_modules", "vendor", "__pycache__",
				"*.swp", "*.tmp", "*~",
			},
		},
	}
}
