// Copyright (C) 2025 CodeAtlas AI (oss@codeatlas.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package analysis provides read-only analyses over a code graph:
// dependency cycle detection and change impact analysis.
package analysis

import (
	"context"

	"github.com/codeatlas-ai/codeatlas/services/atlas/graph"
)

// Cycle is one closed dependency cycle.
//
// Path lists node IDs in traversal order and is closed: the first and
// last entries are the same node, so a triangle a->b->c->a has a path
// of length four.
type Cycle struct {
	Path []string `json:"path"`
}

// Len returns the number of distinct nodes in the cycle.
func (c Cycle) Len() int {
	if len(c.Path) == 0 {
		return 0
	}
	return len(c.Path) - 1
}

// DetectCycles finds dependency cycles in the graph.
//
// Description:
//
//	Runs a depth-first search over the directed edges, keeping a
//	recursion stack. When an edge points back into the stack, the
//	cycle is reconstructed from the current path. Detection is
//	best-effort: each DFS tree reports the first back edge it hits
//	and nodes are never revisited, so overlapping cycles may collapse
//	into one report. That trades completeness for linear running time,
//	which is the right trade for a navigation aid.
//
//	Results are deterministic: roots are visited in node insertion
//	order and neighbors in edge insertion order.
//
// Inputs:
//
//	ctx - Context for tracing. Not used for cancellation; detection
//	      is linear in the graph size.
//	g - The graph to analyze. Nil yields no cycles.
//
// Outputs:
//
//	[]Cycle - Closed cycle paths. Empty (non-nil) for acyclic graphs.
func DetectCycles(ctx context.Context, g *graph.Graph) []Cycle {
	cycles := []Cycle{}
	if g == nil {
		return cycles
	}

	ctx, span := startCycleSpan(ctx, g)
	defer span.End()

	adjacency := buildAdjacency(g)
	visited := make(map[string]bool, g.NodeCount())
	recStack := make(map[string]bool)

	var path []string

	var visit func(id string)
	visit = func(id string) {
		visited[id] = true
		recStack[id] = true
		path = append(path, id)

		for _, next := range adjacency[id] {
			if recStack[next] {
				// Back edge: the cycle is the path suffix starting at
				// the revisited node, closed with a repeat of it.
				start := 0
				for i, p := range path {
					if p == next {
						start = i
						break
					}
				}
				cycle := make([]string, 0, len(path)-start+1)
				cycle = append(cycle, path[start:]...)
				cycle = append(cycle, next)
				cycles = append(cycles, Cycle{Path: cycle})
				continue
			}
			if !visited[next] {
				visit(next)
			}
		}

		path = path[:len(path)-1]
		recStack[id] = false
	}

	for _, n := range g.Nodes {
		if !visited[n.ID] {
			visit(n.ID)
		}
	}

	setCycleSpanResult(span, len(cycles))
	recordCycleMetrics(ctx, len(cycles))
	return cycles
}

// buildAdjacency maps each node ID to its outgoing neighbors in edge
// insertion order.
func buildAdjacency(g *graph.Graph) map[string][]string {
	adjacency := make(map[string][]string, g.NodeCount())
	for _, e := range g.Edges {
		adjacency[e.Source] = append(adjacency[e.Source], e.Target)
	}
	return adjacency
}
