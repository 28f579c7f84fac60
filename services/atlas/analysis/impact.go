// Copyright (C) 2025 CodeAtlas AI (oss@codeatlas.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package analysis

import (
	"context"

	"github.com/codeatlas-ai/codeatlas/services/atlas/graph"
)

// ImpactLevel distinguishes how a node is affected by a change.
type ImpactLevel string

const (
	// ImpactDirect marks nodes sharing an edge with the target.
	ImpactDirect ImpactLevel = "direct"

	// ImpactIndirect marks nodes reachable from the direct set.
	ImpactIndirect ImpactLevel = "indirect"
)

// ImpactedNode is one affected node in an impact report.
type ImpactedNode struct {
	NodeID      string      `json:"node_id"`
	Name        string      `json:"name"`
	Type        string      `json:"type"`
	FilePath    string      `json:"file_path"`
	ImpactLevel ImpactLevel `json:"impact_level"`
}

// ImpactResult is the flat impact report for one target node.
type ImpactResult struct {
	TargetID      string         `json:"target_id"`
	ImpactedNodes []ImpactedNode `json:"impacted_nodes"`
}

// Grouped splits the flat report into direct and indirect slices.
func (r *ImpactResult) Grouped() (direct, indirect []ImpactedNode) {
	for _, n := range r.ImpactedNodes {
		if n.ImpactLevel == ImpactDirect {
			direct = append(direct, n)
		} else {
			indirect = append(indirect, n)
		}
	}
	return direct, indirect
}

// AnalyzeImpact reports which nodes a change to nodeID would affect.
//
// Description:
//
//	Edges are treated as undirected for impact purposes: a change
//	affects both what the node depends on and what depends on it.
//	Directly impacted nodes share an edge with the target in either
//	direction. Indirectly impacted nodes are everything else reachable
//	from the direct set via breadth-first search, excluding the target
//	and the direct set itself.
//
// Inputs:
//
//	ctx - Context for tracing.
//	g - The graph to analyze.
//	nodeID - The changed node. An unknown ID yields an empty result,
//	         not an error: asking about a node that is not in the
//	         graph simply impacts nothing.
//
// Outputs:
//
//	*ImpactResult - Flat report, one entry per impacted node, in
//	                deterministic BFS order. Never nil.
func AnalyzeImpact(ctx context.Context, g *graph.Graph, nodeID string) *ImpactResult {
	result := &ImpactResult{
		TargetID:      nodeID,
		ImpactedNodes: []ImpactedNode{},
	}
	if g == nil || !g.HasNode(nodeID) {
		return result
	}

	ctx, span := startImpactSpan(ctx, nodeID)
	defer span.End()

	adjacency := buildUndirectedAdjacency(g)

	seen := map[string]bool{nodeID: true}

	// Direct: every neighbor of the target, in edge insertion order.
	var frontier []string
	for _, neighbor := range adjacency[nodeID] {
		if seen[neighbor] {
			continue
		}
		seen[neighbor] = true
		frontier = append(frontier, neighbor)
		result.ImpactedNodes = append(result.ImpactedNodes, impactedEntry(g, neighbor, ImpactDirect))
	}

	// Indirect: BFS outward from the direct set.
	for len(frontier) > 0 {
		var next []string
		for _, id := range frontier {
			for _, neighbor := range adjacency[id] {
				if seen[neighbor] {
					continue
				}
				seen[neighbor] = true
				next = append(next, neighbor)
				result.ImpactedNodes = append(result.ImpactedNodes, impactedEntry(g, neighbor, ImpactIndirect))
			}
		}
		frontier = next
	}

	setImpactSpanResult(span, len(result.ImpactedNodes))
	recordImpactMetrics(ctx, len(result.ImpactedNodes))
	return result
}

func impactedEntry(g *graph.Graph, id string, level ImpactLevel) ImpactedNode {
	entry := ImpactedNode{NodeID: id, ImpactLevel: level}
	if n := g.GetNode(id); n != nil {
		entry.Name = n.Name
		entry.Type = string(n.Type)
		entry.FilePath = n.FilePath
	}
	return entry
}

// buildUndirectedAdjacency maps each node to every node it shares an
// edge with, in either direction, in edge insertion order.
func buildUndirectedAdjacency(g *graph.Graph) map[string][]string {
	adjacency := make(map[string][]string, g.NodeCount())
	for _, e := range g.Edges {
		adjacency[e.Source] = append(adjacency[e.Source], e.Target)
		adjacency[e.Target] = append(adjacency[e.Target], e.Source)
	}
	return adjacency
}
