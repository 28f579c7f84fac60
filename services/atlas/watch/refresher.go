// Copyright (C) 2025 CodeAtlas AI (oss@codeatlas.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package watch

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/codeatlas-ai/codeatlas/services/atlas/graph"
)

// ApplyFunc applies a batch of changed files to a graph. It is how the
// refresher hands work to the service layer without depending on it.
type ApplyFunc func(ctx context.Context, changed []graph.ChangedFile) error

// Refresher bridges watcher events to incremental graph updates.
//
// Description:
//
//	Watcher batches land in the DirtyTracker; each batch is then
//	drained, file contents are read (deletions become nil content),
//	and the result is handed to the apply function. Failed applies
//	leave the entries dirty so the next batch retries them.
//
// Thread Safety:
//
//	Safe for concurrent use; HandleChanges serializes applies through
//	the tracker.
type Refresher struct {
	root    string
	tracker *graph.DirtyTracker
	apply   ApplyFunc
	logger  *slog.Logger
}

// NewRefresher creates a refresher rooted at the watched directory.
func NewRefresher(root string, tracker *graph.DirtyTracker, apply ApplyFunc, logger *slog.Logger) *Refresher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Refresher{
		root:    root,
		tracker: tracker,
		apply:   apply,
		logger:  logger,
	}
}

// HandleChanges is the watcher's ChangeHandler: it marks the batch
// dirty and immediately flushes it.
func (r *Refresher) HandleChanges(changes []FileChange) {
	for _, change := range changes {
		rel, err := filepath.Rel(r.root, change.Path)
		if err != nil {
			rel = change.Path
		}
		switch change.Op {
		case FileOpRemove, FileOpRename:
			r.tracker.MarkRemoved(rel, "watcher")
		default:
			r.tracker.MarkDirtyWithSource(rel, "watcher")
		}
	}
	r.Flush(context.Background())
}

// Flush drains the dirty set and applies it as one incremental update.
//
// Outputs:
//
//	error - Non-nil if reading or applying failed; dirty entries are
//	        kept for retry in that case.
func (r *Refresher) Flush(ctx context.Context) error {
	entries := r.tracker.GetDirtyEntries()
	if len(entries) == 0 {
		return nil
	}

	changed := make([]graph.ChangedFile, 0, len(entries))
	cleared := make([]string, 0, len(entries))
	for _, entry := range entries {
		cleared = append(cleared, entry.Path)
		if entry.Removed {
			changed = append(changed, graph.ChangedFile{Path: entry.Path})
			continue
		}
		content, err := os.ReadFile(filepath.Join(r.root, entry.Path))
		if err != nil {
			// Vanished between the event and the read: treat as removed.
			changed = append(changed, graph.ChangedFile{Path: entry.Path})
			continue
		}
		changed = append(changed, graph.ChangedFile{Path: entry.Path, Content: content})
	}

	if err := r.apply(ctx, changed); err != nil {
		r.logger.Error("incremental refresh failed",
			slog.Int("files", len(changed)),
			slog.String("error", err.Error()))
		return err
	}

	r.tracker.Clear(cleared)
	r.logger.Info("workspace refreshed",
		slog.Int("files", len(changed)))
	return nil
}
