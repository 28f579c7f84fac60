// Copyright (C) 2025 CodeAtlas AI (oss@codeatlas.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package atlas is the service layer: it owns built workspace graphs
// and exposes build, update, export, cycle, and impact operations to
// the HTTP handlers and the CLI.
package atlas

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/codeatlas-ai/codeatlas/services/atlas/analysis"
	"github.com/codeatlas-ai/codeatlas/services/atlas/extract"
	"github.com/codeatlas-ai/codeatlas/services/atlas/graph"
	"github.com/codeatlas-ai/codeatlas/services/atlas/scanner"
	"github.com/codeatlas-ai/codeatlas/services/atlas/store"
)

// ServiceConfig bounds the resources a service instance may use.
type ServiceConfig struct {
	// MaxProjectFiles caps how many files a workspace scan may return.
	MaxProjectFiles int

	// MaxFileSize caps individual file size in bytes during scans.
	MaxFileSize int64

	// MaxCachedGraphs caps how many workspace graphs stay resident.
	MaxCachedGraphs int

	// GraphTTL evicts cached graphs not accessed within this window.
	GraphTTL time.Duration

	// ScanConcurrency bounds parallel file reads during scans.
	ScanConcurrency int
}

// DefaultServiceConfig returns limits sized for local development.
func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{
		MaxProjectFiles: 50000,
		MaxFileSize:     2 << 20,
		MaxCachedGraphs: 8,
		GraphTTL:        time.Hour,
		ScanConcurrency: 8,
	}
}

// CachedGraph is one resident workspace graph.
type CachedGraph struct {
	Root       string
	Graph      *graph.Graph
	BuiltAt    time.Time
	LastAccess time.Time
	Stats      graph.BuildStats

	// mu guards Graph against concurrent update and read.
	mu sync.RWMutex
}

// Service owns workspace graphs and the operations over them.
//
// Thread Safety:
//
//	Safe for concurrent use. Builds for the same root are serialized
//	by a per-root lock; graph reads and incremental updates are
//	guarded per cached graph.
type Service struct {
	config   ServiceConfig
	registry *extract.Registry
	builder  *graph.Builder
	updater  *graph.Updater
	store    *store.GraphStore
	logger   *slog.Logger

	mu        sync.RWMutex
	graphs    map[string]*CachedGraph
	initLocks sync.Map // root -> *sync.Mutex
}

// ServiceOption customizes a Service.
type ServiceOption func(*Service)

// WithStore enables snapshot persistence for built graphs.
func WithStore(gs *store.GraphStore) ServiceOption {
	return func(s *Service) { s.store = gs }
}

// WithRegistry replaces the default extractor registry.
func WithRegistry(r *extract.Registry) ServiceOption {
	return func(s *Service) { s.registry = r }
}

// WithServiceLogger sets the service logger.
func WithServiceLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) { s.logger = logger }
}

// NewService creates a service with the default extractors registered.
func NewService(config ServiceConfig, opts ...ServiceOption) *Service {
	s := &Service{
		config:   config,
		registry: extract.NewDefaultRegistry(),
		logger:   slog.Default(),
		graphs:   make(map[string]*CachedGraph),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.builder = graph.NewBuilder(s.registry,
		graph.WithMaxFiles(config.MaxProjectFiles),
		graph.WithLogger(s.logger),
	)
	s.updater = graph.NewUpdater(s.builder, s.logger)
	return s
}

// Registry exposes the extractor registry, e.g. for scanner allow-lists.
func (s *Service) Registry() *extract.Registry { return s.registry }

// Build scans the workspace at root and builds (or rebuilds) its graph.
//
// Inputs:
//
//	ctx - Context for cancellation.
//	root - Workspace directory. Resolved to an absolute path, which
//	       is also the cache key.
//
// Outputs:
//
//	*graph.BuildResult - Stats and per-file errors for the build.
//	error - Non-nil if the root is invalid, a build for the same root
//	        is already running, or the scan/build failed.
func (s *Service) Build(ctx context.Context, root string) (*graph.BuildResult, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRoot, err)
	}

	lockAny, _ := s.initLocks.LoadOrStore(absRoot, &sync.Mutex{})
	lock := lockAny.(*sync.Mutex)
	if !lock.TryLock() {
		return nil, fmt.Errorf("%w: %s", ErrBuildInProgress, absRoot)
	}
	defer lock.Unlock()

	sc := scanner.New(scanner.Options{
		Extensions:  s.registry.Extensions(),
		MaxFiles:    s.config.MaxProjectFiles,
		MaxFileSize: s.config.MaxFileSize,
		Concurrency: s.config.ScanConcurrency,
		Logger:      s.logger,
	})
	files, err := sc.Scan(ctx, absRoot)
	if err != nil {
		return nil, fmt.Errorf("scan workspace: %w", err)
	}

	result, err := s.builder.Build(ctx, files)
	if err != nil {
		return nil, err
	}

	cached := &CachedGraph{
		Root:       absRoot,
		Graph:      result.Graph,
		BuiltAt:    time.Now(),
		LastAccess: time.Now(),
		Stats:      result.Stats,
	}

	s.mu.Lock()
	s.graphs[absRoot] = cached
	s.evictLocked()
	s.mu.Unlock()

	s.persist(ctx, absRoot, result.Graph)
	return result, nil
}

// Update applies changed files to the cached graph for root.
//
// An empty change set is a no-op. Unknown roots return
// ErrProjectNotBuilt; callers should Build first.
func (s *Service) Update(ctx context.Context, root string, changed []graph.ChangedFile) (*graph.UpdateResult, error) {
	cached, err := s.cachedGraph(root)
	if err != nil {
		return nil, err
	}

	cached.mu.Lock()
	defer cached.mu.Unlock()

	result, err := s.updater.Update(ctx, cached.Graph, changed)
	if err != nil {
		return nil, err
	}
	cached.LastAccess = time.Now()

	if len(changed) > 0 {
		s.persist(ctx, cached.Root, cached.Graph)
	}
	return result, nil
}

// ExportJSON serializes the cached graph for root.
func (s *Service) ExportJSON(root string) ([]byte, error) {
	cached, err := s.cachedGraph(root)
	if err != nil {
		return nil, err
	}
	cached.mu.RLock()
	defer cached.mu.RUnlock()
	return cached.Graph.ToJSON()
}

// Node returns a node by ID from the cached graph for root.
func (s *Service) Node(root, id string) (*graph.Node, error) {
	cached, err := s.cachedGraph(root)
	if err != nil {
		return nil, err
	}
	cached.mu.RLock()
	defer cached.mu.RUnlock()

	n := cached.Graph.GetNode(id)
	if n == nil {
		return nil, fmt.Errorf("%w: %s", graph.ErrNodeNotFound, id)
	}
	return n, nil
}

// Cycles runs cycle detection over the cached graph for root.
func (s *Service) Cycles(ctx context.Context, root string) ([]analysis.Cycle, error) {
	cached, err := s.cachedGraph(root)
	if err != nil {
		return nil, err
	}
	cached.mu.RLock()
	defer cached.mu.RUnlock()
	return analysis.DetectCycles(ctx, cached.Graph), nil
}

// Impact runs impact analysis for nodeID over the cached graph for root.
func (s *Service) Impact(ctx context.Context, root, nodeID string) (*analysis.ImpactResult, error) {
	cached, err := s.cachedGraph(root)
	if err != nil {
		return nil, err
	}
	cached.mu.RLock()
	defer cached.mu.RUnlock()
	return analysis.AnalyzeImpact(ctx, cached.Graph, nodeID), nil
}

// Stats summarizes the cached graph for root.
func (s *Service) Stats(root string) (graph.Stats, error) {
	cached, err := s.cachedGraph(root)
	if err != nil {
		return graph.Stats{}, err
	}
	cached.mu.RLock()
	defer cached.mu.RUnlock()
	return cached.Graph.ComputeStats(), nil
}

// Restore loads a persisted snapshot into the cache without scanning.
// Returns ErrProjectNotBuilt when no store is configured or no
// snapshot exists.
func (s *Service) Restore(ctx context.Context, root string) error {
	if s.store == nil {
		return fmt.Errorf("%w: no snapshot store", ErrProjectNotBuilt)
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRoot, err)
	}

	g, err := s.store.LoadGraph(ctx, absRoot)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrProjectNotBuilt, err)
	}

	s.mu.Lock()
	s.graphs[absRoot] = &CachedGraph{
		Root:       absRoot,
		Graph:      g,
		BuiltAt:    time.Now(),
		LastAccess: time.Now(),
	}
	s.evictLocked()
	s.mu.Unlock()
	return nil
}

// Projects lists the roots with resident graphs.
func (s *Service) Projects() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	roots := make([]string, 0, len(s.graphs))
	for root := range s.graphs {
		roots = append(roots, root)
	}
	return roots
}

func (s *Service) cachedGraph(root string) (*CachedGraph, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRoot, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cached, ok := s.graphs[absRoot]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrProjectNotBuilt, absRoot)
	}
	cached.LastAccess = time.Now()
	return cached, nil
}

// evictLocked drops expired and excess graphs. Caller holds s.mu.
func (s *Service) evictLocked() {
	now := time.Now()
	if s.config.GraphTTL > 0 {
		for root, cached := range s.graphs {
			if now.Sub(cached.LastAccess) > s.config.GraphTTL {
				delete(s.graphs, root)
				s.logger.Info("evicted idle graph", slog.String("root", root))
			}
		}
	}

	if s.config.MaxCachedGraphs <= 0 {
		return
	}
	for len(s.graphs) > s.config.MaxCachedGraphs {
		var oldestRoot string
		var oldest time.Time
		for root, cached := range s.graphs {
			if oldestRoot == "" || cached.LastAccess.Before(oldest) {
				oldestRoot = root
				oldest = cached.LastAccess
			}
		}
		delete(s.graphs, oldestRoot)
		s.logger.Info("evicted least recently used graph", slog.String("root", oldestRoot))
	}
}

func (s *Service) persist(ctx context.Context, root string, g *graph.Graph) {
	if s.store == nil {
		return
	}
	if err := s.store.SaveGraph(ctx, root, g); err != nil {
		s.logger.Warn("snapshot save failed",
			slog.String("root", root),
			slog.String("error", err.Error()))
	}
}
