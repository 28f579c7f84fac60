// Copyright (C) 2025 CodeAtlas AI (oss@codeatlas.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package extract implements heuristic, line-oriented extractors that
// turn source files into code graph fragments, plus the registry that
// maps languages and file extensions to extractors.
//
// Extractors deliberately do not parse. They scan line by line with
// small regular expressions, which is fast, dependency-free, and good
// enough for structural navigation. Precision work (overload
// resolution, cross-file call graphs) is out of scope.
package extract

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/codeatlas-ai/codeatlas/services/atlas/graph"
)

// Registry maps languages and file extensions to extractors.
//
// Thread Safety:
//
//	Safe for concurrent use.
type Registry struct {
	mu          sync.RWMutex
	byLanguage  map[string]graph.Extractor
	byExtension map[string]graph.Extractor
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byLanguage:  make(map[string]graph.Extractor),
		byExtension: make(map[string]graph.Extractor),
	}
}

// NewDefaultRegistry creates a registry with the built-in extractors
// registered: Python, Java, and JavaScript, plus generic extractors
// for every other supported source and text extension. The generics
// contribute no structure, but they put a module node in the graph for
// every file, so builds see the whole workspace.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()

	// Registration of the built-ins cannot conflict.
	_ = r.Register(NewPython())
	_ = r.Register(NewJava())
	_ = r.Register(NewJavaScript())

	for _, g := range []*Generic{
		NewGeneric("typescript", []string{".ts", ".tsx", ".jsx"}),
		NewGeneric("c", []string{".c", ".h", ".cpp", ".hpp", ".cc"}),
		NewGeneric("csharp", []string{".cs"}),
		NewGeneric("ruby", []string{".rb"}),
		NewGeneric("php", []string{".php"}),
		NewGeneric("go", []string{".go"}),
		NewGeneric("rust", []string{".rs"}),
		NewGeneric("kotlin", []string{".kt", ".kts"}),
		NewGeneric("swift", []string{".swift"}),
		NewGeneric("scala", []string{".scala"}),
		NewGeneric("dart", []string{".dart"}),
		NewGeneric("web", []string{".html", ".css", ".scss"}),
		NewGeneric("sql", []string{".sql"}),
		NewGeneric("config", []string{".json", ".yaml", ".yml", ".xml"}),
		NewGeneric("markdown", []string{".md"}),
	} {
		_ = r.Register(g)
	}

	return r
}

// Register adds an extractor for its language and all its extensions.
//
// Outputs:
//
//	error - Non-nil if e is nil, or its language or any extension is
//	        already registered.
func (r *Registry) Register(e graph.Extractor) error {
	if e == nil {
		return ErrNilExtractor
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	lang := strings.ToLower(e.Language())
	if _, exists := r.byLanguage[lang]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateLanguage, lang)
	}

	for _, ext := range e.Extensions() {
		ext = normalizeExt(ext)
		if existing, exists := r.byExtension[ext]; exists {
			return fmt.Errorf("%w: %s already handled by %s",
				ErrDuplicateExtension, ext, existing.Language())
		}
	}

	r.byLanguage[lang] = e
	for _, ext := range e.Extensions() {
		r.byExtension[normalizeExt(ext)] = e
	}
	return nil
}

// ByExtension returns the extractor for a file extension (with or
// without the leading dot).
func (r *Registry) ByExtension(ext string) (graph.Extractor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.byExtension[normalizeExt(ext)]
	return e, ok
}

// ByLanguage returns the extractor for a language name.
func (r *Registry) ByLanguage(lang string) (graph.Extractor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.byLanguage[strings.ToLower(lang)]
	return e, ok
}

// Languages returns all registered language names, sorted.
func (r *Registry) Languages() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	langs := make([]string, 0, len(r.byLanguage))
	for lang := range r.byLanguage {
		langs = append(langs, lang)
	}
	sort.Strings(langs)
	return langs
}

// Extensions returns all registered extensions, sorted, with leading dots.
func (r *Registry) Extensions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	exts := make([]string, 0, len(r.byExtension))
	for ext := range r.byExtension {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}
