// Copyright (C) 2025 CodeAtlas AI (oss@codeatlas.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package graph

import (
	"context"
	"log/slog"
	"strings"
)

// ChangedFile describes one changed path for an incremental update.
//
// Content is nil when the file was deleted; its nodes are removed and
// nothing is re-extracted.
type ChangedFile struct {
	Path    string
	Content []byte
}

// UpdateStats summarizes an incremental update.
type UpdateStats struct {
	FilesChanged   int `json:"files_changed"`
	NodesRemoved   int `json:"nodes_removed"`
	EdgesPruned    int `json:"edges_pruned"`
	FilesExtracted int `json:"files_extracted"`
	FilesFailed    int `json:"files_failed"`
}

// UpdateResult is the outcome of an Update call.
type UpdateResult struct {
	Stats      UpdateStats `json:"stats"`
	FileErrors []FileError `json:"file_errors,omitempty"`
}

// Updater applies incremental changes to an existing graph.
//
// Description:
//
//	For each changed path the updater removes every node whose
//	FilePath matches the path (or lives under it, for directory
//	paths), prunes edges left dangling by the removal, then
//	re-extracts the surviving files and prunes again. Synthetic
//	external module nodes survive while any importer remains; once
//	their last import edge is pruned they are removed too. An empty
//	change set is a no-op. Because node IDs are deterministic,
//	reverting a file and updating reproduces the original graph, and
//	files that were not touched keep their subgraphs byte-identical.
//
// Thread Safety:
//
//	NOT safe for concurrent use on the same graph. The service layer
//	serializes updates per project.
type Updater struct {
	builder *Builder
	logger  *slog.Logger
}

// NewUpdater creates an updater that re-extracts files through builder.
func NewUpdater(builder *Builder, logger *slog.Logger) *Updater {
	if logger == nil {
		logger = slog.Default()
	}
	return &Updater{builder: builder, logger: logger}
}

// Update applies the changed files to g in place.
//
// Inputs:
//
//	ctx - Context for cancellation.
//	g - The graph to mutate. Must not be nil.
//	changed - Changed files. Empty slice returns immediately with
//	          zeroed stats and no mutation.
//
// Outputs:
//
//	*UpdateResult - Removal and re-extraction counts.
//	error - Non-nil on nil graph or cancellation. Per-file extraction
//	        errors are collected, not propagated.
func (u *Updater) Update(ctx context.Context, g *Graph, changed []ChangedFile) (*UpdateResult, error) {
	if g == nil {
		return nil, ErrNilGraph
	}

	result := &UpdateResult{}
	if len(changed) == 0 {
		return result, nil
	}

	ctx, span := startUpdateSpan(ctx, len(changed))
	defer span.End()

	result.Stats.FilesChanged = len(changed)

	paths := make([]string, 0, len(changed))
	for _, c := range changed {
		paths = append(paths, c.Path)
	}

	result.Stats.NodesRemoved = g.RemoveNodes(func(n *Node) bool {
		return !pathMatchesAny(n.FilePath, paths)
	})
	result.Stats.EdgesPruned = g.PruneDanglingEdges()

	var reextract []SourceFile
	for _, c := range changed {
		if c.Content == nil {
			continue
		}
		reextract = append(reextract, SourceFile{Path: c.Path, Content: c.Content})
	}

	if len(reextract) > 0 {
		buildResult, err := u.builder.BuildInto(ctx, g, reextract)
		if err != nil {
			setBuildSpanError(span, err)
			return nil, err
		}
		result.Stats.FilesExtracted = buildResult.Stats.FilesExtracted
		result.Stats.FilesFailed = buildResult.Stats.FilesFailed
		result.FileErrors = buildResult.FileErrors
	}

	// Re-extraction can reference nodes that no longer exist, e.g. an
	// import edge to a module removed in the same batch.
	result.Stats.EdgesPruned += g.PruneDanglingEdges()

	// Synthetic external module nodes have no FilePath, so removal by
	// changed path never touches them. Once the last import edge into a
	// synthetic node is pruned it carries no information; drop it so
	// orphans do not accumulate across updates.
	referenced := make(map[string]struct{}, 2*len(g.Edges))
	for _, e := range g.Edges {
		referenced[e.Source] = struct{}{}
		referenced[e.Target] = struct{}{}
	}
	result.Stats.NodesRemoved += g.RemoveNodes(func(n *Node) bool {
		if n.FilePath != "" {
			return true
		}
		_, ok := referenced[n.ID]
		return ok
	})

	recordUpdateMetrics(ctx, result.Stats.NodesRemoved)

	u.logger.Info("incremental update applied",
		slog.Int("changed", result.Stats.FilesChanged),
		slog.Int("nodes_removed", result.Stats.NodesRemoved),
		slog.Int("edges_pruned", result.Stats.EdgesPruned),
		slog.Int("reextracted", result.Stats.FilesExtracted),
	)

	return result, nil
}

// pathMatchesAny reports whether filePath equals one of the changed
// paths or lives under one of them (path-segment boundary).
//
// Empty FilePath never matches: synthetic external module nodes are
// shared across files, so a change to one importer must not delete
// them.
func pathMatchesAny(filePath string, changed []string) bool {
	if filePath == "" {
		return false
	}
	for _, p := range changed {
		if filePath == p {
			return true
		}
		prefix := strings.TrimSuffix(p, "/") + "/"
		if strings.HasPrefix(filePath, prefix) {
			return true
		}
	}
	return false
}
