// Copyright (C) 2025 CodeAtlas AI (oss@codeatlas.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package graph implements the code knowledge graph: typed nodes and edges
// extracted from source files, a builder that assembles whole-workspace
// graphs, and an updater that refreshes them incrementally.
package graph

import (
	"encoding/json"
	"fmt"
)

// NodeType classifies a graph node.
type NodeType string

const (
	// NodeModule represents a source file or an external module.
	NodeModule NodeType = "Module"

	// NodeClass represents a class declaration.
	NodeClass NodeType = "Class"

	// NodeFunction represents a function or method declaration.
	NodeFunction NodeType = "Function"

	// NodeVariable represents a top-level variable or field.
	NodeVariable NodeType = "Variable"
)

// Valid returns true if t is one of the defined node types.
func (t NodeType) Valid() bool {
	switch t {
	case NodeModule, NodeClass, NodeFunction, NodeVariable:
		return true
	}
	return false
}

// EdgeType classifies a graph edge.
type EdgeType string

const (
	// EdgeImport connects an imported module to the importing file's module.
	EdgeImport EdgeType = "Import"

	// EdgeCall connects a calling function to a called function.
	EdgeCall EdgeType = "Call"

	// EdgeInheritance connects a subclass to its base class.
	EdgeInheritance EdgeType = "Inheritance"

	// EdgeDependency connects a node to something it depends on.
	EdgeDependency EdgeType = "Dependency"

	// EdgeUsage connects a node to a symbol it uses.
	EdgeUsage EdgeType = "Usage"
)

// Valid returns true if t is one of the defined edge types.
func (t EdgeType) Valid() bool {
	switch t {
	case EdgeImport, EdgeCall, EdgeInheritance, EdgeDependency, EdgeUsage:
		return true
	}
	return false
}

// Node is a single entity in the code graph.
//
// IDs are deterministic: they are derived only from the file path, the
// local name, and the node's role, so re-extracting identical content
// always produces identical nodes.
type Node struct {
	// ID uniquely identifies the node within a graph.
	ID string `json:"id"`

	// Name is the local symbol or module name.
	Name string `json:"name"`

	// Type classifies the node.
	Type NodeType `json:"type"`

	// FilePath is the source file this node came from. Empty for
	// synthetic external module nodes.
	FilePath string `json:"filePath"`

	// LineStart is the 1-based line where the declaration begins.
	LineStart int `json:"lineStart,omitempty"`

	// LineEnd is the 1-based line where the declaration ends.
	LineEnd int `json:"lineEnd,omitempty"`

	// Properties holds extractor-specific metadata.
	Properties map[string]string `json:"properties,omitempty"`
}

// Edge is a directed, typed relationship between two nodes.
type Edge struct {
	// ID uniquely identifies the edge within a graph.
	ID string `json:"id"`

	// Source is the ID of the origin node.
	Source string `json:"source"`

	// Target is the ID of the destination node.
	Target string `json:"target"`

	// Type classifies the relationship.
	Type EdgeType `json:"type"`

	// Properties holds extractor-specific metadata.
	Properties map[string]string `json:"properties,omitempty"`
}

// Graph is the full code knowledge graph for a workspace.
//
// Description:
//
//	Holds nodes and edges in insertion order. Node IDs are unique;
//	adding a node with an existing ID is a no-op (first-seen wins),
//	which keeps merges idempotent. Edges are deduplicated by ID the
//	same way.
//
// Thread Safety:
//
//	Graph is NOT safe for concurrent mutation. Callers that share a
//	graph across goroutines must serialize access (the service layer
//	does this).
type Graph struct {
	Nodes []*Node `json:"nodes"`
	Edges []*Edge `json:"edges"`

	nodeIndex map[string]*Node
	edgeIndex map[string]*Edge
}

// NewGraph creates an empty graph.
func NewGraph() *Graph {
	return &Graph{
		Nodes:     []*Node{},
		Edges:     []*Edge{},
		nodeIndex: make(map[string]*Node),
		edgeIndex: make(map[string]*Edge),
	}
}

// AddNode inserts a node unless its ID already exists.
//
// Outputs:
//
//	bool - True if the node was inserted, false if the ID was taken.
func (g *Graph) AddNode(n *Node) bool {
	if n == nil || n.ID == "" {
		return false
	}
	if _, exists := g.nodeIndex[n.ID]; exists {
		return false
	}
	g.nodeIndex[n.ID] = n
	g.Nodes = append(g.Nodes, n)
	return true
}

// AddEdge inserts an edge unless its ID already exists.
func (g *Graph) AddEdge(e *Edge) bool {
	if e == nil || e.ID == "" {
		return false
	}
	if _, exists := g.edgeIndex[e.ID]; exists {
		return false
	}
	g.edgeIndex[e.ID] = e
	g.Edges = append(g.Edges, e)
	return true
}

// GetNode returns the node with the given ID, or nil.
func (g *Graph) GetNode(id string) *Node {
	return g.nodeIndex[id]
}

// HasNode returns true if a node with the given ID exists.
func (g *Graph) HasNode(id string) bool {
	_, ok := g.nodeIndex[id]
	return ok
}

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int { return len(g.Nodes) }

// EdgeCount returns the number of edges.
func (g *Graph) EdgeCount() int { return len(g.Edges) }

// RemoveNodes deletes every node for which keep returns false, along
// with all edges touching a deleted node.
//
// Outputs:
//
//	int - Number of nodes removed.
func (g *Graph) RemoveNodes(keep func(*Node) bool) int {
	kept := g.Nodes[:0]
	removed := 0
	for _, n := range g.Nodes {
		if keep(n) {
			kept = append(kept, n)
			continue
		}
		delete(g.nodeIndex, n.ID)
		removed++
	}
	g.Nodes = kept
	if removed > 0 {
		g.PruneDanglingEdges()
	}
	return removed
}

// PruneDanglingEdges drops every edge whose source or target node is
// missing from the graph.
//
// Outputs:
//
//	int - Number of edges removed.
func (g *Graph) PruneDanglingEdges() int {
	kept := g.Edges[:0]
	removed := 0
	for _, e := range g.Edges {
		if g.HasNode(e.Source) && g.HasNode(e.Target) {
			kept = append(kept, e)
			continue
		}
		delete(g.edgeIndex, e.ID)
		removed++
	}
	g.Edges = kept
	return removed
}

// Clone returns a deep copy of the graph.
func (g *Graph) Clone() *Graph {
	clone := NewGraph()
	for _, n := range g.Nodes {
		nc := *n
		if n.Properties != nil {
			nc.Properties = make(map[string]string, len(n.Properties))
			for k, v := range n.Properties {
				nc.Properties[k] = v
			}
		}
		clone.AddNode(&nc)
	}
	for _, e := range g.Edges {
		ec := *e
		if e.Properties != nil {
			ec.Properties = make(map[string]string, len(e.Properties))
			for k, v := range e.Properties {
				ec.Properties[k] = v
			}
		}
		clone.AddEdge(&ec)
	}
	return clone
}

// ToJSON serializes the graph.
//
// Description:
//
//	The output has exactly two top-level fields, "nodes" and "edges",
//	both always present as arrays. Node and edge ordering follows
//	insertion order so identical inputs serialize byte-identically.
func (g *Graph) ToJSON() ([]byte, error) {
	data, err := json.MarshalIndent(g, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal graph: %w", err)
	}
	return data, nil
}

// FromJSON deserializes a graph produced by ToJSON and rebuilds the
// internal indexes.
func FromJSON(data []byte) (*Graph, error) {
	var raw struct {
		Nodes []*Node `json:"nodes"`
		Edges []*Edge `json:"edges"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("unmarshal graph: %w", err)
	}
	g := NewGraph()
	for _, n := range raw.Nodes {
		g.AddNode(n)
	}
	for _, e := range raw.Edges {
		g.AddEdge(e)
	}
	return g, nil
}

// Stats summarizes a graph by node and edge type.
type Stats struct {
	NodeCount   int            `json:"node_count"`
	EdgeCount   int            `json:"edge_count"`
	NodesByType map[string]int `json:"nodes_by_type"`
	EdgesByType map[string]int `json:"edges_by_type"`
}

// ComputeStats counts nodes and edges per type.
func (g *Graph) ComputeStats() Stats {
	s := Stats{
		NodeCount:   len(g.Nodes),
		EdgeCount:   len(g.Edges),
		NodesByType: make(map[string]int),
		EdgesByType: make(map[string]int),
	}
	for _, n := range g.Nodes {
		s.NodesByType[string(n.Type)]++
	}
	for _, e := range g.Edges {
		s.EdgesByType[string(e.Type)]++
	}
	return s
}
