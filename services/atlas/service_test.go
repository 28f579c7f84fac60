// Copyright (C) 2025 CodeAtlas AI (oss@codeatlas.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package atlas

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeatlas-ai/codeatlas/services/atlas/graph"
	"github.com/codeatlas-ai/codeatlas/services/atlas/store"
)

// =============================================================================
// Test Helpers
// =============================================================================

// newWorkspace creates a small python workspace and returns its root.
func newWorkspace(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	files := map[string]string{
		"app.py": "import os\n\ndef helper():\n    pass\n\ndef main():\n    helper()\n",
		"lib.py": "VERSION = \"1.0\"\n\nclass Base:\n    pass\n\nclass Engine(Base):\n    pass\n",
	}
	for rel, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(root, rel), []byte(content), 0o640))
	}
	return root
}

func newTestService(t *testing.T, opts ...ServiceOption) *Service {
	t.Helper()
	return NewService(DefaultServiceConfig(), opts...)
}

func newTestStore(t *testing.T) *store.GraphStore {
	t.Helper()
	db, err := store.Open(store.InMemoryConfig())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return store.NewGraphStore(db)
}

// =============================================================================
// Build Tests
// =============================================================================

func TestService_Build(t *testing.T) {
	svc := newTestService(t)
	root := newWorkspace(t)

	result, err := svc.Build(context.Background(), root)
	require.NoError(t, err)

	assert.Equal(t, 2, result.Stats.FilesExtracted)
	assert.Zero(t, result.Stats.FilesFailed)
	assert.True(t, result.Graph.HasNode(graph.FuncNodeID("app.py", "main")))
	assert.True(t, result.Graph.HasNode(graph.ClassNodeID("lib.py", "Engine")))
	assert.True(t, result.Graph.HasNode("module:os"))

	abs, err := filepath.Abs(root)
	require.NoError(t, err)
	assert.Contains(t, svc.Projects(), abs)
}

func TestService_Build_MissingRoot(t *testing.T) {
	svc := newTestService(t)
	_, err := svc.Build(context.Background(), filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}

func TestService_Build_RebuildReplacesCache(t *testing.T) {
	svc := newTestService(t)
	root := newWorkspace(t)
	ctx := context.Background()

	_, err := svc.Build(ctx, root)
	require.NoError(t, err)

	require.NoError(t, os.Remove(filepath.Join(root, "lib.py")))
	result, err := svc.Build(ctx, root)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Stats.FilesExtracted)
	assert.False(t, result.Graph.HasNode(graph.ClassNodeID("lib.py", "Engine")))
}

func TestService_Build_GenericFilesGetModuleNodes(t *testing.T) {
	svc := newTestService(t)
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "README.md"), []byte("# notes\n"), 0o640))
	require.NoError(t, os.WriteFile(filepath.Join(root, "schema.sql"), []byte("CREATE TABLE t (id INT);\n"), 0o640))

	result, err := svc.Build(context.Background(), root)
	require.NoError(t, err)

	assert.Equal(t, 2, result.Stats.FilesExtracted)
	assert.True(t, result.Graph.HasNode(graph.ModuleNodeID("README.md")))
	assert.True(t, result.Graph.HasNode(graph.ModuleNodeID("schema.sql")))
}

// =============================================================================
// Update Tests
// =============================================================================

func TestService_Update_NotBuilt(t *testing.T) {
	svc := newTestService(t)
	_, err := svc.Update(context.Background(), t.TempDir(), nil)
	assert.ErrorIs(t, err, ErrProjectNotBuilt)
}

func TestService_Update_EmptyChangeSetNoOp(t *testing.T) {
	svc := newTestService(t)
	root := newWorkspace(t)
	ctx := context.Background()

	_, err := svc.Build(ctx, root)
	require.NoError(t, err)

	result, err := svc.Update(ctx, root, nil)
	require.NoError(t, err)
	assert.Equal(t, graph.UpdateStats{}, result.Stats)
}

func TestService_Update_AppliesChanges(t *testing.T) {
	svc := newTestService(t)
	root := newWorkspace(t)
	ctx := context.Background()

	_, err := svc.Build(ctx, root)
	require.NoError(t, err)

	changed := []graph.ChangedFile{{Path: "app.py", Content: []byte("def renamed():\n    pass\n")}}
	result, err := svc.Update(ctx, root, changed)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Stats.FilesExtracted)

	_, err = svc.Node(root, graph.FuncNodeID("app.py", "renamed"))
	assert.NoError(t, err)
	_, err = svc.Node(root, graph.FuncNodeID("app.py", "main"))
	assert.ErrorIs(t, err, graph.ErrNodeNotFound)
}

// =============================================================================
// Query Tests
// =============================================================================

func TestService_ExportJSON_Shape(t *testing.T) {
	svc := newTestService(t)
	root := newWorkspace(t)

	_, err := svc.Build(context.Background(), root)
	require.NoError(t, err)

	data, err := svc.ExportJSON(root)
	require.NoError(t, err)

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Len(t, raw, 2)
	assert.Contains(t, raw, "nodes")
	assert.Contains(t, raw, "edges")
}

func TestService_ExportJSON_NotBuilt(t *testing.T) {
	svc := newTestService(t)
	_, err := svc.ExportJSON(t.TempDir())
	assert.ErrorIs(t, err, ErrProjectNotBuilt)
}

func TestService_Node(t *testing.T) {
	svc := newTestService(t)
	root := newWorkspace(t)

	_, err := svc.Build(context.Background(), root)
	require.NoError(t, err)

	node, err := svc.Node(root, graph.FuncNodeID("app.py", "helper"))
	require.NoError(t, err)
	assert.Equal(t, "helper", node.Name)
	assert.Equal(t, graph.NodeFunction, node.Type)

	_, err = svc.Node(root, "nope")
	assert.ErrorIs(t, err, graph.ErrNodeNotFound)
}

func TestService_Cycles(t *testing.T) {
	svc := newTestService(t)
	root := newWorkspace(t)
	ctx := context.Background()

	_, err := svc.Build(ctx, root)
	require.NoError(t, err)

	cycles, err := svc.Cycles(ctx, root)
	require.NoError(t, err)
	assert.NotNil(t, cycles)
	assert.Empty(t, cycles, "linear call chains have no cycles")
}

func TestService_Impact(t *testing.T) {
	svc := newTestService(t)
	root := newWorkspace(t)
	ctx := context.Background()

	_, err := svc.Build(ctx, root)
	require.NoError(t, err)

	result, err := svc.Impact(ctx, root, graph.FuncNodeID("app.py", "helper"))
	require.NoError(t, err)
	require.NotNil(t, result)

	impacted := make([]string, 0, len(result.ImpactedNodes))
	for _, n := range result.ImpactedNodes {
		impacted = append(impacted, n.NodeID)
	}
	assert.Contains(t, impacted, graph.FuncNodeID("app.py", "main"), "caller is impacted")
}

func TestService_Stats(t *testing.T) {
	svc := newTestService(t)
	root := newWorkspace(t)

	_, err := svc.Build(context.Background(), root)
	require.NoError(t, err)

	stats, err := svc.Stats(root)
	require.NoError(t, err)
	assert.Positive(t, stats.NodeCount)
	assert.Equal(t, 2, stats.NodesByType["Class"])
}

// =============================================================================
// Persistence Tests
// =============================================================================

func TestService_Restore_FromSnapshot(t *testing.T) {
	gs := newTestStore(t)
	root := newWorkspace(t)
	ctx := context.Background()

	// Build with one service instance, restore with a fresh one sharing
	// the same store, as serve mode does after a restart.
	first := newTestService(t, WithStore(gs))
	_, err := first.Build(ctx, root)
	require.NoError(t, err)

	second := newTestService(t, WithStore(gs))
	require.NoError(t, second.Restore(ctx, root))

	node, err := second.Node(root, graph.FuncNodeID("app.py", "main"))
	require.NoError(t, err)
	assert.Equal(t, "main", node.Name)
}

func TestService_Restore_NoStore(t *testing.T) {
	svc := newTestService(t)
	err := svc.Restore(context.Background(), t.TempDir())
	assert.ErrorIs(t, err, ErrProjectNotBuilt)
}

func TestService_Restore_NoSnapshot(t *testing.T) {
	svc := newTestService(t, WithStore(newTestStore(t)))
	err := svc.Restore(context.Background(), t.TempDir())
	assert.ErrorIs(t, err, ErrProjectNotBuilt)
}

// =============================================================================
// Cache Eviction Tests
// =============================================================================

func TestService_Build_EvictsLeastRecentlyUsed(t *testing.T) {
	config := DefaultServiceConfig()
	config.MaxCachedGraphs = 1
	svc := NewService(config)
	ctx := context.Background()

	first := newWorkspace(t)
	second := newWorkspace(t)

	_, err := svc.Build(ctx, first)
	require.NoError(t, err)
	_, err = svc.Build(ctx, second)
	require.NoError(t, err)

	assert.Len(t, svc.Projects(), 1)
	_, err = svc.ExportJSON(first)
	assert.ErrorIs(t, err, ErrProjectNotBuilt, "older graph should be evicted")
}
