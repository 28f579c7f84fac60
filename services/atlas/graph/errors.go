// Copyright (C) 2025 CodeAtlas AI (oss@codeatlas.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package graph

import "errors"

var (
	// ErrNilGraph indicates an operation was given a nil graph.
	ErrNilGraph = errors.New("graph is nil")

	// ErrNodeNotFound indicates a node ID was not present in the graph.
	ErrNodeNotFound = errors.New("node not found")

	// ErrMaxFilesExceeded indicates the input exceeded the builder's file cap.
	ErrMaxFilesExceeded = errors.New("maximum file count exceeded")

	// ErrBuildCancelled indicates the build context was cancelled.
	ErrBuildCancelled = errors.New("build cancelled")

	// ErrNoExtractors indicates the builder has no extractor lookup configured.
	ErrNoExtractors = errors.New("no extractor lookup configured")
)
