// Copyright (C) 2025 CodeAtlas AI (oss@codeatlas.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package graph

import "context"

// SourceFile is one input file for graph construction.
type SourceFile struct {
	// Path is the workspace-relative or absolute file path.
	Path string

	// Content is the full file content.
	Content []byte
}

// Fragment is the subgraph an extractor produced for one file.
//
// The file's own module node is added by the builder, not the
// extractor; fragments contain symbol nodes, synthetic import module
// nodes, and edges between them.
type Fragment struct {
	Nodes []*Node
	Edges []*Edge
}

// Extractor turns one file's content into a graph fragment.
//
// Description:
//
//	Implementations are heuristic and line-oriented. They must be
//	deterministic: identical content at an identical path yields an
//	identical fragment.
//
// Thread Safety:
//
//	Implementations must be safe for concurrent use.
type Extractor interface {
	// Extract scans content and returns nodes and edges for the file.
	Extract(ctx context.Context, content []byte, filePath string) (*Fragment, error)

	// Language returns the language name, e.g. "python".
	Language() string

	// Extensions returns the file extensions this extractor handles,
	// including the leading dot.
	Extensions() []string
}

// ExtractorLookup resolves an extractor for a file extension.
//
// Satisfied by the extract package's Registry.
type ExtractorLookup interface {
	// ByExtension returns the extractor registered for ext (with
	// leading dot), or false if none is registered.
	ByExtension(ext string) (Extractor, bool)
}
