// Copyright (C) 2025 CodeAtlas AI (oss@codeatlas.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package graph

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"
)

// FileError records a per-file extraction failure.
//
// Extraction failures never abort a build; they are collected here and
// logged so callers can surface partial results.
type FileError struct {
	FilePath string `json:"file_path"`
	Error    string `json:"error"`
}

// BuildStats summarizes a completed build.
type BuildStats struct {
	FilesTotal     int           `json:"files_total"`
	FilesExtracted int           `json:"files_extracted"`
	FilesSkipped   int           `json:"files_skipped"`
	FilesFailed    int           `json:"files_failed"`
	NodeCount      int           `json:"node_count"`
	EdgeCount      int           `json:"edge_count"`
	Duration       time.Duration `json:"duration_ns"`
}

// BuildResult is the outcome of a Build call.
type BuildResult struct {
	Graph      *Graph      `json:"-"`
	Stats      BuildStats  `json:"stats"`
	FileErrors []FileError `json:"file_errors,omitempty"`
}

// BuilderOption configures a Builder.
type BuilderOption func(*builderOptions)

type builderOptions struct {
	maxFiles   int
	logger     *slog.Logger
	progressFn func(done, total int)
}

// WithMaxFiles caps how many files a single build will accept.
// Zero means no cap.
func WithMaxFiles(n int) BuilderOption {
	return func(o *builderOptions) { o.maxFiles = n }
}

// WithLogger sets the logger for per-file diagnostics.
func WithLogger(logger *slog.Logger) BuilderOption {
	return func(o *builderOptions) { o.logger = logger }
}

// WithProgressFn sets a callback invoked after each file is processed.
func WithProgressFn(fn func(done, total int)) BuilderOption {
	return func(o *builderOptions) { o.progressFn = fn }
}

// Builder assembles a code graph from source files.
//
// Description:
//
//	For every input file the builder adds one module node, then
//	dispatches the file content to the extractor registered for its
//	extension. Files with unregistered extensions are skipped
//	silently. Extraction failures are logged and collected in the
//	result; they never fail the build.
//
//	The resulting node and edge sets are independent of input file
//	order: node IDs are deterministic and duplicates are dropped
//	first-seen-wins.
//
// Thread Safety:
//
//	Safe for concurrent use; each Build call works on its own graph.
type Builder struct {
	lookup  ExtractorLookup
	options builderOptions
}

// NewBuilder creates a builder that resolves extractors via lookup.
func NewBuilder(lookup ExtractorLookup, opts ...BuilderOption) *Builder {
	options := builderOptions{
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(&options)
	}
	return &Builder{lookup: lookup, options: options}
}

// Build constructs a graph from the given source files.
//
// Inputs:
//
//	ctx - Context for cancellation. Checked between files.
//	files - Source files to extract. May be empty.
//
// Outputs:
//
//	*BuildResult - The graph plus stats and per-file errors.
//	error - Non-nil only for build-level failures (cancellation,
//	        missing lookup, file cap exceeded). Per-file extraction
//	        errors are reported in BuildResult.FileErrors instead.
func (b *Builder) Build(ctx context.Context, files []SourceFile) (*BuildResult, error) {
	if b.lookup == nil {
		return nil, ErrNoExtractors
	}
	if b.options.maxFiles > 0 && len(files) > b.options.maxFiles {
		return nil, fmt.Errorf("%w: %d files, cap is %d", ErrMaxFilesExceeded, len(files), b.options.maxFiles)
	}

	ctx, span := startBuildSpan(ctx, len(files))
	defer span.End()

	start := time.Now()
	result := &BuildResult{Graph: NewGraph()}
	result.Stats.FilesTotal = len(files)

	for i, file := range files {
		if err := ctx.Err(); err != nil {
			setBuildSpanError(span, err)
			return nil, fmt.Errorf("%w: %v", ErrBuildCancelled, err)
		}

		b.buildFile(ctx, file, result)

		if b.options.progressFn != nil {
			b.options.progressFn(i+1, len(files))
		}
	}

	result.Stats.NodeCount = result.Graph.NodeCount()
	result.Stats.EdgeCount = result.Graph.EdgeCount()
	result.Stats.Duration = time.Since(start)

	setBuildSpanResult(span, result)
	recordBuildMetrics(ctx, result)

	b.options.logger.Info("graph build completed",
		slog.Int("files", result.Stats.FilesTotal),
		slog.Int("extracted", result.Stats.FilesExtracted),
		slog.Int("skipped", result.Stats.FilesSkipped),
		slog.Int("failed", result.Stats.FilesFailed),
		slog.Int("nodes", result.Stats.NodeCount),
		slog.Int("edges", result.Stats.EdgeCount),
		slog.Duration("duration", result.Stats.Duration),
	)

	return result, nil
}

// BuildInto extracts the given files into an existing graph.
// Used by the updater to merge re-extracted files.
func (b *Builder) BuildInto(ctx context.Context, g *Graph, files []SourceFile) (*BuildResult, error) {
	if g == nil {
		return nil, ErrNilGraph
	}
	if b.lookup == nil {
		return nil, ErrNoExtractors
	}

	result := &BuildResult{Graph: g}
	result.Stats.FilesTotal = len(files)
	start := time.Now()

	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBuildCancelled, err)
		}
		b.buildFile(ctx, file, result)
	}

	result.Stats.NodeCount = g.NodeCount()
	result.Stats.EdgeCount = g.EdgeCount()
	result.Stats.Duration = time.Since(start)
	return result, nil
}

// buildFile adds one file's module node and extracted fragment to the
// result graph. Never returns an error; failures go to FileErrors.
func (b *Builder) buildFile(ctx context.Context, file SourceFile, result *BuildResult) {
	ext := filepath.Ext(file.Path)
	extractor, ok := b.lookup.ByExtension(ext)
	if !ok {
		result.Stats.FilesSkipped++
		return
	}

	fragment, err := extractor.Extract(ctx, file.Content, file.Path)
	if err != nil {
		result.Stats.FilesFailed++
		result.FileErrors = append(result.FileErrors, FileError{
			FilePath: file.Path,
			Error:    err.Error(),
		})
		b.options.logger.Warn("extraction failed, skipping file",
			slog.String("file", file.Path),
			slog.String("language", extractor.Language()),
			slog.String("error", err.Error()),
		)
		return
	}

	result.Graph.AddNode(&Node{
		ID:       ModuleNodeID(file.Path),
		Name:     filepath.Base(file.Path),
		Type:     NodeModule,
		FilePath: file.Path,
	})
	for _, n := range fragment.Nodes {
		result.Graph.AddNode(n)
	}
	for _, e := range fragment.Edges {
		result.Graph.AddEdge(e)
	}
	result.Stats.FilesExtracted++
}
