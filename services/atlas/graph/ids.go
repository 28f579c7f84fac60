// Copyright (C) 2025 CodeAtlas AI (oss@codeatlas.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package graph

import (
	"fmt"
	"strings"
)

// ModuleNodeID returns the ID for a file's module node.
func ModuleNodeID(filePath string) string {
	return "module:" + filePath
}

// ImportNodeID returns the ID for a synthetic external module node.
//
// The module name is sanitized first so that equivalent import forms
// across files resolve to the same node.
func ImportNodeID(moduleName string) string {
	return "module:" + SanitizeModuleName(moduleName)
}

// ClassNodeID returns the ID for a class declared in a file.
func ClassNodeID(filePath, name string) string {
	return fmt.Sprintf("%s:class:%s", filePath, name)
}

// FuncNodeID returns the ID for a function declared in a file.
func FuncNodeID(filePath, name string) string {
	return fmt.Sprintf("%s:func:%s", filePath, name)
}

// VarNodeID returns the ID for a variable declared in a file.
func VarNodeID(filePath, name string) string {
	return fmt.Sprintf("%s:var:%s", filePath, name)
}

// EdgeIDFor returns the deterministic ID for an edge.
func EdgeIDFor(source, target string, t EdgeType) string {
	return fmt.Sprintf("%s->%s:%s", source, target, t)
}

// NewEdge constructs an edge with its deterministic ID filled in.
func NewEdge(source, target string, t EdgeType) *Edge {
	return &Edge{
		ID:     EdgeIDFor(source, target, t),
		Source: source,
		Target: target,
		Type:   t,
	}
}

// SanitizeModuleName normalizes an import target into a stable module name.
//
// Description:
//
//	Strips quotes, whitespace, and trailing statement punctuation,
//	drops relative path prefixes, and folds path separators to dots
//	so "./utils/helpers" and "utils.helpers" name the same module.
//
// Outputs:
//
//	string - The sanitized name. Empty if nothing usable remains.
func SanitizeModuleName(name string) string {
	s := strings.TrimSpace(name)
	s = strings.Trim(s, `"'`)
	s = strings.TrimSuffix(s, ";")
	s = strings.TrimSpace(s)
	for strings.HasPrefix(s, "./") || strings.HasPrefix(s, "../") {
		s = strings.TrimPrefix(s, "./")
		s = strings.TrimPrefix(s, "../")
	}
	s = strings.ReplaceAll(s, "/", ".")
	s = strings.Trim(s, ".")
	return s
}
