// Copyright (C) 2025 CodeAtlas AI (oss@codeatlas.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package scanner enumerates and reads the source files of a workspace
// for graph construction.
package scanner

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	gitignore "github.com/sabhiram/go-gitignore"
	"golang.org/x/sync/errgroup"

	"github.com/codeatlas-ai/codeatlas/services/atlas/graph"
)

var (
	// ErrRootNotDirectory indicates the scan root is not a directory.
	ErrRootNotDirectory = errors.New("scan root is not a directory")

	// ErrTooManyFiles indicates the workspace exceeded the file cap.
	ErrTooManyFiles = errors.New("workspace exceeds maximum file count")
)

// skipDirs are directory names never descended into, independent of
// .gitignore contents.
var skipDirs = map[string]struct{}{
	".git": {}, ".hg": {}, ".svn": {}, "node_modules": {},
	"vendor": {}, "__pycache__": {}, ".venv": {}, "venv": {},
	"dist": {}, "build": {}, "target": {}, ".idea": {}, ".vscode": {},
}

// Options configures a workspace scan.
type Options struct {
	// Extensions is the allow-list of file extensions (with leading
	// dots), typically taken from the extract registry. Empty means
	// accept every file.
	Extensions []string

	// MaxFiles caps how many files the scan may return. Zero disables
	// the cap.
	MaxFiles int

	// MaxFileSize skips files larger than this many bytes. Zero
	// disables the check.
	MaxFileSize int64

	// Concurrency bounds parallel file reads. Zero means 8.
	Concurrency int

	// Logger receives per-file diagnostics.
	Logger *slog.Logger
}

// DefaultOptions returns scan defaults sized for typical repositories.
func DefaultOptions() Options {
	return Options{
		MaxFiles:    50000,
		MaxFileSize: 2 << 20,
		Concurrency: 8,
	}
}

// Scanner walks a workspace and reads its source files.
//
// Description:
//
//	Walks the root directory honoring .gitignore (when present at the
//	root), skipping well-known junk directories and hidden files, and
//	keeping only files on the extension allow-list. Surviving files
//	are read with a bounded worker pool.
//
// Thread Safety:
//
//	Safe for concurrent use; Scan carries all per-call state.
type Scanner struct {
	opts Options
}

// New creates a scanner.
func New(opts Options) *Scanner {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 8
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Scanner{opts: opts}
}

// Scan enumerates and reads the workspace rooted at root.
//
// Outputs:
//
//	[]graph.SourceFile - Files in deterministic (sorted path) order,
//	                     with paths relative to root.
//	error - Non-nil if the root is invalid, the file cap is exceeded,
//	        or reading is cancelled. Per-file read errors are logged
//	        and the file skipped.
func (s *Scanner) Scan(ctx context.Context, root string) ([]graph.SourceFile, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("stat scan root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrRootNotDirectory, root)
	}

	var ignore *gitignore.GitIgnore
	if gi, err := gitignore.CompileIgnoreFile(filepath.Join(root, ".gitignore")); err == nil {
		ignore = gi
	}

	allowed := make(map[string]struct{}, len(s.opts.Extensions))
	for _, ext := range s.opts.Extensions {
		allowed[strings.ToLower(ext)] = struct{}{}
	}

	var paths []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			s.opts.Logger.Warn("scan error, skipping entry",
				slog.String("path", path),
				slog.String("error", walkErr.Error()))
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		rel, relErr := filepath.Rel(root, path)
		if relErr != nil || rel == "." {
			return nil
		}

		name := d.Name()
		if d.IsDir() {
			if _, skip := skipDirs[name]; skip {
				return filepath.SkipDir
			}
			if strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}
			if ignore != nil && ignore.MatchesPath(rel+"/") {
				return filepath.SkipDir
			}
			return nil
		}

		if strings.HasPrefix(name, ".") {
			return nil
		}
		if ignore != nil && ignore.MatchesPath(rel) {
			return nil
		}
		if len(allowed) > 0 {
			if _, ok := allowed[strings.ToLower(filepath.Ext(name))]; !ok {
				return nil
			}
		}
		if s.opts.MaxFileSize > 0 {
			if fi, err := d.Info(); err == nil && fi.Size() > s.opts.MaxFileSize {
				s.opts.Logger.Debug("skipping oversized file",
					slog.String("path", rel),
					slog.Int64("size", fi.Size()))
				return nil
			}
		}

		paths = append(paths, rel)
		if s.opts.MaxFiles > 0 && len(paths) > s.opts.MaxFiles {
			return fmt.Errorf("%w: more than %d files", ErrTooManyFiles, s.opts.MaxFiles)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(paths)
	return s.readAll(ctx, root, paths)
}

// readAll reads files concurrently, preserving the input order.
func (s *Scanner) readAll(ctx context.Context, root string, paths []string) ([]graph.SourceFile, error) {
	files := make([]graph.SourceFile, len(paths))
	var mu sync.Mutex
	var failed []int

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Concurrency)

	for i, rel := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			content, err := os.ReadFile(filepath.Join(root, rel))
			if err != nil {
				s.opts.Logger.Warn("read failed, skipping file",
					slog.String("path", rel),
					slog.String("error", err.Error()))
				mu.Lock()
				failed = append(failed, i)
				mu.Unlock()
				return nil
			}
			files[i] = graph.SourceFile{Path: rel, Content: content}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if len(failed) == 0 {
		return files, nil
	}
	kept := files[:0]
	for _, f := range files {
		if f.Path != "" {
			kept = append(kept, f)
		}
	}
	return kept, nil
}
