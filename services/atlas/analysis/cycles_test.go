// Copyright (C) 2025 CodeAtlas AI (oss@codeatlas.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package analysis

import (
	"context"
	"testing"

	"github.com/codeatlas-ai/codeatlas/services/atlas/graph"
)

// =============================================================================
// Test Helpers
// =============================================================================

func graphWith(t *testing.T, nodes []string, edges [][2]string) *graph.Graph {
	t.Helper()
	g := graph.NewGraph()
	for _, id := range nodes {
		if !g.AddNode(&graph.Node{ID: id, Name: id, Type: graph.NodeFunction, FilePath: "src/app.py"}) {
			t.Fatalf("AddNode(%s) failed", id)
		}
	}
	for _, e := range edges {
		if !g.AddEdge(graph.NewEdge(e[0], e[1], graph.EdgeCall)) {
			t.Fatalf("AddEdge(%s -> %s) failed", e[0], e[1])
		}
	}
	return g
}

// =============================================================================
// Cycle Detection Tests
// =============================================================================

func TestDetectCycles_NilGraph(t *testing.T) {
	cycles := DetectCycles(context.Background(), nil)
	if cycles == nil {
		t.Fatal("result should be non-nil")
	}
	if len(cycles) != 0 {
		t.Errorf("cycles = %d, want 0", len(cycles))
	}
}

func TestDetectCycles_Acyclic(t *testing.T) {
	g := graphWith(t,
		[]string{"a", "b", "c", "d"},
		[][2]string{{"a", "b"}, {"b", "c"}, {"a", "c"}, {"c", "d"}},
	)

	cycles := DetectCycles(context.Background(), g)
	if cycles == nil {
		t.Fatal("result should be non-nil even when empty")
	}
	if len(cycles) != 0 {
		t.Errorf("cycles = %d, want 0 for a DAG", len(cycles))
	}
}

func TestDetectCycles_Triangle(t *testing.T) {
	g := graphWith(t,
		[]string{"a", "b", "c"},
		[][2]string{{"a", "b"}, {"b", "c"}, {"c", "a"}},
	)

	cycles := DetectCycles(context.Background(), g)
	if len(cycles) != 1 {
		t.Fatalf("cycles = %d, want 1", len(cycles))
	}

	path := cycles[0].Path
	if len(path) != 4 {
		t.Fatalf("path length = %d, want 4 (closed triangle)", len(path))
	}
	if path[0] != path[len(path)-1] {
		t.Errorf("path is not closed: %v", path)
	}
	if cycles[0].Len() != 3 {
		t.Errorf("Len() = %d, want 3", cycles[0].Len())
	}

	want := []string{"a", "b", "c", "a"}
	for i := range want {
		if path[i] != want[i] {
			t.Errorf("path = %v, want %v", path, want)
			break
		}
	}
}

func TestDetectCycles_SelfLoop(t *testing.T) {
	g := graphWith(t,
		[]string{"a"},
		[][2]string{{"a", "a"}},
	)

	cycles := DetectCycles(context.Background(), g)
	if len(cycles) != 1 {
		t.Fatalf("cycles = %d, want 1", len(cycles))
	}
	path := cycles[0].Path
	if len(path) != 2 || path[0] != "a" || path[1] != "a" {
		t.Errorf("path = %v, want [a a]", path)
	}
	if cycles[0].Len() != 1 {
		t.Errorf("Len() = %d, want 1", cycles[0].Len())
	}
}

func TestDetectCycles_DisjointCycles(t *testing.T) {
	g := graphWith(t,
		[]string{"a", "b", "x", "y"},
		[][2]string{{"a", "b"}, {"b", "a"}, {"x", "y"}, {"y", "x"}},
	)

	cycles := DetectCycles(context.Background(), g)
	if len(cycles) != 2 {
		t.Fatalf("cycles = %d, want 2 disjoint cycles", len(cycles))
	}
}

func TestDetectCycles_Deterministic(t *testing.T) {
	build := func() *graph.Graph {
		return graphWith(t,
			[]string{"a", "b", "c", "d"},
			[][2]string{{"a", "b"}, {"b", "c"}, {"c", "a"}, {"c", "d"}},
		)
	}

	first := DetectCycles(context.Background(), build())
	second := DetectCycles(context.Background(), build())

	if len(first) != len(second) {
		t.Fatalf("cycle counts differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if len(first[i].Path) != len(second[i].Path) {
			t.Fatalf("cycle %d path lengths differ", i)
		}
		for j := range first[i].Path {
			if first[i].Path[j] != second[i].Path[j] {
				t.Errorf("cycle %d differs: %v vs %v", i, first[i].Path, second[i].Path)
				break
			}
		}
	}
}

func TestCycle_Len_Empty(t *testing.T) {
	if got := (Cycle{}).Len(); got != 0 {
		t.Errorf("Len() = %d, want 0", got)
	}
}
