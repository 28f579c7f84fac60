// Copyright (C) 2025 CodeAtlas AI (oss@codeatlas.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package extract

import (
	"regexp"
	"strings"

	"github.com/codeatlas-ai/codeatlas/services/atlas/graph"
)

// defaultMaxFileSize caps extractor input at 2 MiB. Larger files are
// almost always generated code and would dominate extraction time.
const defaultMaxFileSize = 2 << 20

// Option configures an extractor.
type Option func(*config)

type config struct {
	maxFileSize int
}

func newConfig(opts []Option) config {
	cfg := config{maxFileSize: defaultMaxFileSize}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// WithMaxFileSize overrides the maximum accepted content size in bytes.
func WithMaxFileSize(n int) Option {
	return func(c *config) { c.maxFileSize = n }
}

// callRe matches an identifier immediately followed by an opening
// parenthesis. For dotted access like obj.method( it captures only the
// final segment.
var callRe = regexp.MustCompile(`([A-Za-z_$][A-Za-z0-9_$]*)\s*\(`)

// callTargets returns the call-like identifiers in s, excluding names
// on the deny list.
func callTargets(s string, deny map[string]struct{}) []string {
	matches := callRe.FindAllStringSubmatch(s, -1)
	if len(matches) == 0 {
		return nil
	}
	targets := make([]string, 0, len(matches))
	for _, m := range matches {
		name := m[1]
		if _, denied := deny[name]; denied {
			continue
		}
		targets = append(targets, name)
	}
	return targets
}

// indentOf counts leading whitespace characters. Tabs count as one;
// indentation is only compared within a single file, where mixing is
// rare enough for a heuristic.
func indentOf(line string) int {
	for i, r := range line {
		if r != ' ' && r != '\t' {
			return i
		}
	}
	return len(line)
}

// splitLines splits content into lines, tolerating CRLF endings.
func splitLines(content []byte) []string {
	lines := strings.Split(string(content), "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return lines
}

// addImport synthesizes an external module node and the Import edge
// from it to the file's module node. Repeated imports of the same
// module within a file collapse to one node and one edge.
func addImport(frag *graph.Fragment, moduleName, filePath string, seen map[string]struct{}) {
	name := graph.SanitizeModuleName(moduleName)
	if name == "" {
		return
	}
	if _, dup := seen[name]; dup {
		return
	}
	seen[name] = struct{}{}

	frag.Nodes = append(frag.Nodes, &graph.Node{
		ID:       graph.ImportNodeID(name),
		Name:     name,
		Type:     graph.NodeModule,
		FilePath: "",
		Properties: map[string]string{
			"external": "true",
		},
	})
	frag.Edges = append(frag.Edges, graph.NewEdge(
		graph.ImportNodeID(name),
		graph.ModuleNodeID(filePath),
		graph.EdgeImport,
	))
}

// addCallEdges emits Call edges from callerID to every target that
// names a function already discovered in this file. callerID is the
// enclosing function's node ID, or the file's module node ID for calls
// outside any function. Repeated calls collapse to one edge.
func addCallEdges(frag *graph.Fragment, filePath, callerID string, targets []string, known, seenEdges map[string]struct{}) {
	for _, target := range targets {
		if _, ok := known[target]; !ok {
			continue
		}
		edge := graph.NewEdge(
			callerID,
			graph.FuncNodeID(filePath, target),
			graph.EdgeCall,
		)
		if _, dup := seenEdges[edge.ID]; dup {
			continue
		}
		seenEdges[edge.ID] = struct{}{}
		frag.Edges = append(frag.Edges, edge)
	}
}
