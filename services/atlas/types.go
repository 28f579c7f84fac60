// Copyright (C) 2025 CodeAtlas AI (oss@codeatlas.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package atlas

import (
	"github.com/codeatlas-ai/codeatlas/services/atlas/analysis"
	"github.com/codeatlas-ai/codeatlas/services/atlas/graph"
)

// BuildRequest asks the service to scan and build a workspace graph.
type BuildRequest struct {
	// Root is the workspace directory to scan.
	Root string `json:"root" binding:"required"`
}

// BuildResponse reports the outcome of a build.
type BuildResponse struct {
	Root       string            `json:"root"`
	Stats      graph.BuildStats  `json:"stats"`
	FileErrors []graph.FileError `json:"file_errors,omitempty"`
	RequestID  string            `json:"request_id"`
}

// ChangedFileRequest is one changed file in an update request.
type ChangedFileRequest struct {
	// Path is the workspace-relative file path.
	Path string `json:"path" binding:"required"`

	// Content is the new file content. Ignored when Deleted is true.
	Content string `json:"content"`

	// Deleted marks the file as removed.
	Deleted bool `json:"deleted"`
}

// UpdateRequest asks the service to apply changed files incrementally.
type UpdateRequest struct {
	Root    string               `json:"root" binding:"required"`
	Changes []ChangedFileRequest `json:"changes"`
}

// UpdateResponse reports the outcome of an incremental update.
type UpdateResponse struct {
	Root       string            `json:"root"`
	Stats      graph.UpdateStats `json:"stats"`
	FileErrors []graph.FileError `json:"file_errors,omitempty"`
	RequestID  string            `json:"request_id"`
}

// StatsResponse reports graph size by node and edge type.
type StatsResponse struct {
	Root      string      `json:"root"`
	Stats     graph.Stats `json:"stats"`
	RequestID string      `json:"request_id"`
}

// CyclesResponse reports detected dependency cycles.
type CyclesResponse struct {
	Root      string           `json:"root"`
	Cycles    []analysis.Cycle `json:"cycles"`
	Count     int              `json:"count"`
	RequestID string           `json:"request_id"`
}

// ErrorResponse is the uniform error body for all endpoints.
type ErrorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id"`
}

// toChangedFiles converts API change entries to updater input.
func toChangedFiles(changes []ChangedFileRequest) []graph.ChangedFile {
	changed := make([]graph.ChangedFile, 0, len(changes))
	for _, c := range changes {
		if c.Deleted {
			changed = append(changed, graph.ChangedFile{Path: c.Path})
			continue
		}
		changed = append(changed, graph.ChangedFile{Path: c.Path, Content: []byte(c.Content)})
	}
	return changed
}
