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
	"regexp"
	"strings"

	"github.com/codeatlas-ai/codeatlas/services/atlas/graph"
)

var (
	jsFuncRe    = regexp.MustCompile(`^(?:export\s+)?(?:default\s+)?(?:async\s+)?function\s*\*?\s*(\w+)\s*\(`)
	jsArrowRe   = regexp.MustCompile(`^(?:export\s+)?(?:const|let|var)\s+(\w+)\s*=\s*(?:async\s*)?(?:\([^)]*\)|\w+)\s*=>`)
	jsFuncExpRe = regexp.MustCompile(`^(?:export\s+)?(?:const|let|var)\s+(\w+)\s*=\s*(?:async\s+)?function\b`)
	jsClassRe   = regexp.MustCompile(`^(?:export\s+)?(?:default\s+)?class\s+(\w+)(?:\s+extends\s+([\w.]+))?`)
	jsImportRe  = regexp.MustCompile(`^import\s+(?:.+\s+from\s+)?['"]([^'"]+)['"]`)
	jsRequireRe = regexp.MustCompile(`require\s*\(\s*['"]([^'"]+)['"]\s*\)`)
	jsVarRe     = regexp.MustCompile(`^(?:export\s+)?(?:const|let|var)\s+(\w+)\s*=`)
)

// jsDeny lists runtime names that never become call edges.
var jsDeny = map[string]struct{}{
	"log": {}, "require": {}, "error": {}, "warn": {}, "info": {},
	"parseInt": {}, "parseFloat": {}, "setTimeout": {}, "setInterval": {},
	"stringify": {}, "parse": {}, "String": {}, "Number": {},
	"Boolean": {}, "Array": {}, "Object": {}, "Promise": {},
	// Keywords the call regex would otherwise match.
	"if": {}, "for": {}, "while": {}, "switch": {}, "catch": {},
	"return": {}, "function": {}, "new": {}, "super": {}, "typeof": {},
}

// JavaScript extracts JavaScript source files.
//
// Description:
//
//	Recognizes function declarations, arrow and function-expression
//	assignments, class declarations with extends, ES module imports
//	and CommonJS requires, and top-level const/let/var declarations.
//	Call edges connect a function to same-file functions declared
//	earlier in the file; calls outside any function are attributed to
//	the file's module node.
//
// Thread Safety:
//
//	Safe for concurrent use.
type JavaScript struct {
	cfg config
}

// NewJavaScript creates a JavaScript extractor.
func NewJavaScript(opts ...Option) *JavaScript {
	return &JavaScript{cfg: newConfig(opts)}
}

// Language returns "javascript".
func (j *JavaScript) Language() string { return "javascript" }

// Extensions returns the handled extensions.
func (j *JavaScript) Extensions() []string { return []string{".js", ".mjs", ".cjs"} }

// Extract scans JavaScript content line by line, tracking brace depth
// to attribute calls to the enclosing function.
func (j *JavaScript) Extract(ctx context.Context, content []byte, filePath string) (*graph.Fragment, error) {
	if len(content) > j.cfg.maxFileSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrContentTooLarge, len(content))
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	frag := &graph.Fragment{}
	knownFuncs := make(map[string]struct{})
	knownClasses := make(map[string]struct{})
	seenImports := make(map[string]struct{})
	seenEdges := make(map[string]struct{})

	depth := 0
	var currentFunc *graph.Node
	funcDepth := 0
	lastNonEmpty := 0

	for i, line := range splitLines(content) {
		ln := i + 1
		trimmed := strings.TrimSpace(line)
		if idx := strings.Index(trimmed, "//"); idx >= 0 {
			trimmed = strings.TrimSpace(trimmed[:idx])
		}
		if trimmed == "" || strings.HasPrefix(trimmed, "*") || strings.HasPrefix(trimmed, "/*") {
			continue
		}
		lastNonEmpty = ln

		var declared string
		switch {
		case jsFuncRe.MatchString(trimmed):
			declared = jsFuncRe.FindStringSubmatch(trimmed)[1]
		case jsArrowRe.MatchString(trimmed):
			declared = jsArrowRe.FindStringSubmatch(trimmed)[1]
		case jsFuncExpRe.MatchString(trimmed):
			declared = jsFuncExpRe.FindStringSubmatch(trimmed)[1]
		}

		if declared != "" {
			node := &graph.Node{
				ID:        graph.FuncNodeID(filePath, declared),
				Name:      declared,
				Type:      graph.NodeFunction,
				FilePath:  filePath,
				LineStart: ln,
			}
			frag.Nodes = append(frag.Nodes, node)
			knownFuncs[declared] = struct{}{}
			if currentFunc == nil {
				currentFunc = node
				funcDepth = depth
			}

			// Single-line arrow body: "const f = () => g()".
			if idx := strings.Index(trimmed, "=>"); idx >= 0 {
				body := trimmed[idx+2:]
				if !strings.Contains(body, "{") {
					addCallEdges(frag, filePath, graph.FuncNodeID(filePath, declared), callTargets(body, jsDeny), knownFuncs, seenEdges)
					if currentFunc == node {
						node.LineEnd = ln
						currentFunc = nil
					}
					continue
				}
			}
		} else if m := jsClassRe.FindStringSubmatch(trimmed); m != nil {
			name := m[1]
			frag.Nodes = append(frag.Nodes, &graph.Node{
				ID:        graph.ClassNodeID(filePath, name),
				Name:      name,
				Type:      graph.NodeClass,
				FilePath:  filePath,
				LineStart: ln,
			})
			if super := m[2]; super != "" {
				if _, ok := knownClasses[super]; ok {
					edge := graph.NewEdge(
						graph.ClassNodeID(filePath, name),
						graph.ClassNodeID(filePath, super),
						graph.EdgeInheritance,
					)
					if _, dup := seenEdges[edge.ID]; !dup {
						seenEdges[edge.ID] = struct{}{}
						frag.Edges = append(frag.Edges, edge)
					}
				}
			}
			knownClasses[name] = struct{}{}
		} else if m := jsImportRe.FindStringSubmatch(trimmed); m != nil {
			addImport(frag, m[1], filePath, seenImports)
		} else if m := jsRequireRe.FindStringSubmatch(trimmed); m != nil {
			addImport(frag, m[1], filePath, seenImports)
			if vm := jsVarRe.FindStringSubmatch(trimmed); vm != nil && depth == 0 {
				frag.Nodes = append(frag.Nodes, &graph.Node{
					ID:        graph.VarNodeID(filePath, vm[1]),
					Name:      vm[1],
					Type:      graph.NodeVariable,
					FilePath:  filePath,
					LineStart: ln,
					LineEnd:   ln,
				})
			}
		} else if depth == 0 && jsVarRe.MatchString(trimmed) {
			m := jsVarRe.FindStringSubmatch(trimmed)
			frag.Nodes = append(frag.Nodes, &graph.Node{
				ID:        graph.VarNodeID(filePath, m[1]),
				Name:      m[1],
				Type:      graph.NodeVariable,
				FilePath:  filePath,
				LineStart: ln,
				LineEnd:   ln,
			})
		} else {
			callerID := graph.ModuleNodeID(filePath)
			if currentFunc != nil && depth > funcDepth {
				callerID = graph.FuncNodeID(filePath, currentFunc.Name)
			}
			addCallEdges(frag, filePath, callerID, callTargets(trimmed, jsDeny), knownFuncs, seenEdges)
		}

		depth += strings.Count(trimmed, "{") - strings.Count(trimmed, "}")
		if depth < 0 {
			depth = 0
		}
		if currentFunc != nil && depth <= funcDepth {
			currentFunc.LineEnd = ln
			currentFunc = nil
		}
	}

	if currentFunc != nil {
		currentFunc.LineEnd = lastNonEmpty
	}

	return frag, nil
}
