// Copyright (C) 2025 CodeAtlas AI (oss@codeatlas.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/codeatlas-ai/codeatlas/cmd/codeatlas/config"
	"github.com/codeatlas-ai/codeatlas/services/atlas"
	"github.com/codeatlas-ai/codeatlas/services/atlas/graph"
	"github.com/codeatlas-ai/codeatlas/services/atlas/store"
)

const (
	exitSuccess = 0
	exitError   = 1
)

// serviceConfigFromGlobal maps the on-disk config onto service limits.
func serviceConfigFromGlobal() atlas.ServiceConfig {
	cfg := config.Global
	return atlas.ServiceConfig{
		MaxProjectFiles: cfg.Scanner.MaxFiles,
		MaxFileSize:     cfg.Scanner.MaxFileSizeBytes,
		MaxCachedGraphs: cfg.Cache.MaxGraphs,
		GraphTTL:        time.Duration(cfg.Cache.TTLMinutes) * time.Minute,
		ScanConcurrency: cfg.Scanner.Concurrency,
	}
}

// newService builds a service wired to the configured snapshot store.
// The returned cleanup closes the store and must always be called.
func newService() (*atlas.Service, func(), error) {
	opts := []atlas.ServiceOption{
		atlas.WithServiceLogger(slog.Default()),
	}
	cleanup := func() {}

	storeCfg := store.DefaultConfig(config.ExpandPath(config.Global.Store.Path))
	if config.Global.Store.InMemory {
		storeCfg = store.InMemoryConfig()
	}
	storeCfg.Logger = slog.Default()

	db, err := store.Open(storeCfg)
	if err != nil {
		// One-shot commands can still run without persistence.
		slog.Warn("snapshot store unavailable, continuing without persistence",
			slog.String("path", storeCfg.Path),
			slog.String("error", err.Error()))
	} else {
		opts = append(opts, atlas.WithStore(store.NewGraphStore(db)))
		cleanup = func() { _ = db.Close() }
	}

	return atlas.NewService(serviceConfigFromGlobal(), opts...), cleanup, nil
}

// ensureGraph makes the graph for root resident: restore the persisted
// snapshot when one exists, otherwise scan and build.
func ensureGraph(ctx context.Context, svc *atlas.Service, root string) (*graph.BuildResult, error) {
	if err := svc.Restore(ctx, root); err == nil {
		return nil, nil
	}
	return svc.Build(ctx, root)
}

// rootArg returns the workspace path argument, defaulting to ".".
func rootArg(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return "."
}

// outputJSON writes any result as indented JSON on stdout.
func outputJSON(result interface{}) {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(result); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to encode JSON: %v\n", err)
		os.Exit(exitError)
	}
}

// outputError reports a command failure on stderr or as JSON.
func outputError(msg string, err error) {
	if jsonOutput {
		outputJSON(map[string]interface{}{
			"success": false,
			"error":   err.Error(),
		})
		return
	}
	fmt.Fprintf(os.Stderr, "Error: %s: %v\n", msg, err)
}
