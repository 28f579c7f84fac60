// Copyright (C) 2025 CodeAtlas AI (oss@codeatlas.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/codeatlas-ai/codeatlas/cmd/codeatlas/config"
	"github.com/codeatlas-ai/codeatlas/services/atlas/graph"
	"github.com/codeatlas-ai/codeatlas/services/atlas/watch"
)

// runWatch builds a workspace graph and keeps it fresh until interrupted.
func runWatch(cmd *cobra.Command, args []string) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	root, err := filepath.Abs(rootArg(args))
	if err != nil {
		outputError("Invalid workspace path", err)
		os.Exit(exitError)
	}

	svc, cleanup, err := newService()
	if err != nil {
		outputError("Failed to initialize", err)
		os.Exit(exitError)
	}
	defer cleanup()

	result, err := svc.Build(ctx, root)
	if err != nil {
		outputError("Initial build failed", err)
		os.Exit(exitError)
	}
	fmt.Printf("Built graph for %s (%d nodes, %d edges). Watching for changes...\n",
		root, result.Stats.NodeCount, result.Stats.EdgeCount)

	tracker := graph.NewDirtyTracker()
	refresher := watch.NewRefresher(root, tracker, func(ctx context.Context, changed []graph.ChangedFile) error {
		_, err := svc.Update(ctx, root, changed)
		return err
	}, slog.Default())

	opts := watch.DefaultOptions()
	if config.Global.Watch.DebounceMillis > 0 {
		opts.DebounceWindow = time.Duration(config.Global.Watch.DebounceMillis) * time.Millisecond
	}
	if len(config.Global.Watch.Ignore) > 0 {
		opts.IgnorePatterns = config.Global.Watch.Ignore
	}

	watcher, err := watch.New(root, refresher.HandleChanges, &opts)
	if err != nil {
		outputError("Failed to create watcher", err)
		os.Exit(exitError)
	}
	if err := watcher.Start(ctx); err != nil {
		outputError("Failed to start watcher", err)
		os.Exit(exitError)
	}
	defer watcher.Stop()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	fmt.Println("\nStopping watch mode")
}
