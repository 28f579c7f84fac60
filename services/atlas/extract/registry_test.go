// Copyright (C) 2025 CodeAtlas AI (oss@codeatlas.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package extract

import (
	"context"
	"errors"
	"testing"

	"github.com/codeatlas-ai/codeatlas/services/atlas/graph"
)

// =============================================================================
// Registry Tests
// =============================================================================

func TestNewDefaultRegistry(t *testing.T) {
	r := NewDefaultRegistry()

	for _, lang := range []string{"java", "javascript", "python", "go", "rust", "typescript", "markdown"} {
		if _, ok := r.ByLanguage(lang); !ok {
			t.Errorf("ByLanguage(%q) not found", lang)
		}
	}

	for _, ext := range []string{".py", ".java", ".js", ".mjs", ".cjs"} {
		if _, ok := r.ByExtension(ext); !ok {
			t.Errorf("ByExtension(%q) not found", ext)
		}
	}
}

func TestNewDefaultRegistry_GenericExtensionsCovered(t *testing.T) {
	r := NewDefaultRegistry()

	// Extensions without a dedicated extractor fall to a generic one,
	// so every supported file still gets a module node.
	exts := []string{
		".ts", ".tsx", ".jsx", ".c", ".cpp", ".cs", ".rb", ".php",
		".go", ".rs", ".kt", ".swift", ".scala", ".dart",
		".html", ".css", ".scss", ".sql", ".json", ".yaml", ".yml",
		".xml", ".md",
	}
	for _, ext := range exts {
		e, ok := r.ByExtension(ext)
		if !ok {
			t.Errorf("ByExtension(%q) not found", ext)
			continue
		}
		if _, isGeneric := e.(*Generic); !isGeneric {
			t.Errorf("ByExtension(%q) = %T, want *Generic", ext, e)
		}
	}
}

func TestRegistry_Register_Nil(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(nil); !errors.Is(err, ErrNilExtractor) {
		t.Errorf("err = %v, want ErrNilExtractor", err)
	}
}

func TestRegistry_Register_DuplicateLanguage(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(NewPython()); err != nil {
		t.Fatalf("first Register() failed: %v", err)
	}
	if err := r.Register(NewPython()); !errors.Is(err, ErrDuplicateLanguage) {
		t.Errorf("err = %v, want ErrDuplicateLanguage", err)
	}
}

func TestRegistry_Register_DuplicateExtension(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(NewPython()); err != nil {
		t.Fatalf("Register(python) failed: %v", err)
	}
	clash := NewGeneric("textual-python", []string{".py"})
	if err := r.Register(clash); !errors.Is(err, ErrDuplicateExtension) {
		t.Errorf("err = %v, want ErrDuplicateExtension", err)
	}
}

func TestRegistry_ByExtension_Normalized(t *testing.T) {
	r := NewDefaultRegistry()

	tests := []string{".py", "py", "PY", ".PY"}
	for _, ext := range tests {
		t.Run(ext, func(t *testing.T) {
			e, ok := r.ByExtension(ext)
			if !ok {
				t.Fatalf("ByExtension(%q) not found", ext)
			}
			if e.Language() != "python" {
				t.Errorf("Language() = %q, want python", e.Language())
			}
		})
	}
}

func TestRegistry_ByExtension_Unknown(t *testing.T) {
	r := NewDefaultRegistry()
	if _, ok := r.ByExtension(".exe"); ok {
		t.Error("ByExtension(.exe) should not be found")
	}
}

func TestRegistry_ByLanguage(t *testing.T) {
	r := NewDefaultRegistry()

	e, ok := r.ByLanguage("Java")
	if !ok {
		t.Fatal("ByLanguage(Java) not found")
	}
	if e.Language() != "java" {
		t.Errorf("Language() = %q, want java", e.Language())
	}

	if _, ok := r.ByLanguage("fortran"); ok {
		t.Error("ByLanguage(fortran) should not be found")
	}
}

func TestRegistry_Extensions_Sorted(t *testing.T) {
	r := NewDefaultRegistry()
	exts := r.Extensions()
	for i := 1; i < len(exts); i++ {
		if exts[i-1] >= exts[i] {
			t.Errorf("Extensions() not sorted: %v", exts)
			break
		}
	}
}

// =============================================================================
// Generic Extractor Tests
// =============================================================================

func TestGeneric_Extract_EmptyFragment(t *testing.T) {
	g := NewGeneric("text", []string{".txt", ".md"})

	if g.Language() != "text" {
		t.Errorf("Language() = %q, want text", g.Language())
	}

	frag, err := g.Extract(context.Background(), []byte("anything at all\n"), "notes/readme.md")
	if err != nil {
		t.Fatalf("Extract() returned error: %v", err)
	}
	if len(frag.Nodes) != 0 {
		t.Errorf("Nodes = %d, want 0", len(frag.Nodes))
	}
	if len(frag.Edges) != 0 {
		t.Errorf("Edges = %d, want 0", len(frag.Edges))
	}
}

func TestGeneric_RegistersForItsExtensions(t *testing.T) {
	r := NewRegistry()
	g := NewGeneric("config", []string{".toml", ".ini"})
	if err := r.Register(g); err != nil {
		t.Fatalf("Register() failed: %v", err)
	}

	e, ok := r.ByExtension(".toml")
	if !ok {
		t.Fatal("ByExtension(.toml) not found")
	}
	if _, isGeneric := e.(*Generic); !isGeneric {
		t.Error("expected *Generic extractor")
	}
}

// Interface compliance.
var (
	_ graph.Extractor = (*Python)(nil)
	_ graph.Extractor = (*Java)(nil)
	_ graph.Extractor = (*JavaScript)(nil)
	_ graph.Extractor = (*Generic)(nil)
)
