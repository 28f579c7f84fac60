// Copyright (C) 2025 CodeAtlas AI (oss@codeatlas.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package graph

import (
	"sync"
	"time"
)

// DirtyEntry contains metadata about a dirty file.
type DirtyEntry struct {
	// Path is the file path (absolute or project-relative).
	Path string

	// MarkedAt is when the file was marked dirty.
	MarkedAt time.Time

	// Source indicates how the file became dirty ("watcher", "api", "manual").
	Source string

	// Removed is true when the file was deleted rather than modified.
	Removed bool
}

// DirtyTracker accumulates changed files between incremental updates.
//
// Description:
//
//	Records which files have been modified or deleted since the last
//	graph refresh. The watch loop marks files dirty as events arrive;
//	the flush loop drains the set and feeds it to the Updater.
//
// Thread Safety:
//
//	All methods are safe for concurrent use.
type DirtyTracker struct {
	mu         sync.RWMutex
	dirtyFiles map[string]DirtyEntry
	enabled    bool
}

// NewDirtyTracker creates an enabled tracker with an empty dirty set.
func NewDirtyTracker() *DirtyTracker {
	return &DirtyTracker{
		dirtyFiles: make(map[string]DirtyEntry),
		enabled:    true,
	}
}

// MarkDirty marks a file as modified with source "manual".
func (d *DirtyTracker) MarkDirty(path string) {
	d.MarkDirtyWithSource(path, "manual")
}

// MarkDirtyWithSource marks a file as modified, recording where the
// change was observed.
func (d *DirtyTracker) MarkDirtyWithSource(path, source string) {
	d.mark(path, source, false)
}

// MarkRemoved marks a file as deleted. A removal overrides any earlier
// modification mark for the same path.
func (d *DirtyTracker) MarkRemoved(path, source string) {
	d.mark(path, source, true)
}

func (d *DirtyTracker) mark(path, source string, removed bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.enabled {
		return
	}

	d.dirtyFiles[path] = DirtyEntry{
		Path:     path,
		MarkedAt: time.Now(),
		Source:   source,
		Removed:  removed,
	}
}

// HasDirty returns true if any files are marked dirty.
func (d *DirtyTracker) HasDirty() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.dirtyFiles) > 0
}

// Count returns the number of dirty files.
func (d *DirtyTracker) Count() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.dirtyFiles)
}

// GetDirtyEntries returns a copy of all dirty entries without clearing.
// Use Clear after a successful refresh.
func (d *DirtyTracker) GetDirtyEntries() []DirtyEntry {
	d.mu.RLock()
	defer d.mu.RUnlock()

	entries := make([]DirtyEntry, 0, len(d.dirtyFiles))
	for _, entry := range d.dirtyFiles {
		entries = append(entries, entry)
	}
	return entries
}

// GetDirtyFiles returns a copy of all dirty paths without clearing.
func (d *DirtyTracker) GetDirtyFiles() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()

	paths := make([]string, 0, len(d.dirtyFiles))
	for path := range d.dirtyFiles {
		paths = append(paths, path)
	}
	return paths
}

// Clear removes the given paths from the dirty set.
//
// Outputs:
//
//	int - Number of paths actually cleared.
func (d *DirtyTracker) Clear(paths []string) int {
	d.mu.Lock()
	defer d.mu.Unlock()

	cleared := 0
	for _, path := range paths {
		if _, exists := d.dirtyFiles[path]; exists {
			delete(d.dirtyFiles, path)
			cleared++
		}
	}
	return cleared
}

// ClearAll empties the dirty set and returns how many entries it held.
func (d *DirtyTracker) ClearAll() int {
	d.mu.Lock()
	defer d.mu.Unlock()

	count := len(d.dirtyFiles)
	d.dirtyFiles = make(map[string]DirtyEntry)
	return count
}

// Enable turns tracking on.
func (d *DirtyTracker) Enable() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.enabled = true
}

// Disable turns tracking off; marks become no-ops.
func (d *DirtyTracker) Disable() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.enabled = false
}

// IsEnabled returns true if tracking is enabled.
func (d *DirtyTracker) IsEnabled() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.enabled
}
