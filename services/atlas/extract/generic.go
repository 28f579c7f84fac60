// Copyright (C) 2025 CodeAtlas AI (oss@codeatlas.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package extract

import (
	"context"
	"fmt"

	"github.com/codeatlas-ai/codeatlas/services/atlas/graph"
)

// Generic is a structure-free extractor.
//
// It contributes nothing beyond the module node the builder creates
// for every recognized file, which is exactly what you want for
// languages without a dedicated extractor: the file participates in
// the graph (imports from elsewhere can target it) without guessing
// at its contents.
type Generic struct {
	cfg        config
	language   string
	extensions []string
}

// NewGeneric creates a generic extractor for the given language name
// and extensions.
func NewGeneric(language string, extensions []string, opts ...Option) *Generic {
	return &Generic{
		cfg:        newConfig(opts),
		language:   language,
		extensions: extensions,
	}
}

// Language returns the configured language name.
func (g *Generic) Language() string { return g.language }

// Extensions returns the configured extensions.
func (g *Generic) Extensions() []string { return g.extensions }

// Extract returns an empty fragment.
func (g *Generic) Extract(ctx context.Context, content []byte, filePath string) (*graph.Fragment, error) {
	if len(content) > g.cfg.maxFileSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrContentTooLarge, len(content))
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &graph.Fragment{}, nil
}
