// Copyright (C) 2025 CodeAtlas AI (oss@codeatlas.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package atlas

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeatlas-ai/codeatlas/services/atlas/graph"
)

// =============================================================================
// Test Helpers
// =============================================================================

func newTestRouter(t *testing.T, svc *Service) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router := gin.New()
	RegisterRoutes(router.Group("/v1"), NewHandlers(svc))
	return router
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func builtWorkspace(t *testing.T, svc *Service) string {
	t.Helper()
	root := newWorkspace(t)
	_, err := svc.Build(context.Background(), root)
	require.NoError(t, err)
	return root
}

// =============================================================================
// Build Endpoint Tests
// =============================================================================

func TestHandleBuild(t *testing.T) {
	svc := newTestService(t)
	router := newTestRouter(t, svc)
	root := newWorkspace(t)

	w := doJSON(t, router, http.MethodPost, "/v1/atlas/build", BuildRequest{Root: root})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp BuildResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, root, resp.Root)
	assert.Equal(t, 2, resp.Stats.FilesExtracted)
	assert.NotEmpty(t, resp.RequestID)
}

func TestHandleBuild_MissingRoot(t *testing.T) {
	router := newTestRouter(t, newTestService(t))

	w := doJSON(t, router, http.MethodPost, "/v1/atlas/build", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Error)
}

func TestHandleBuild_PropagatesRequestID(t *testing.T) {
	router := newTestRouter(t, newTestService(t))

	var buf bytes.Buffer
	require.NoError(t, json.NewEncoder(&buf).Encode(BuildRequest{Root: newWorkspace(t)}))
	req := httptest.NewRequest(http.MethodPost, "/v1/atlas/build", &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", "req-42")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp BuildResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "req-42", resp.RequestID)
}

// =============================================================================
// Update Endpoint Tests
// =============================================================================

func TestHandleUpdate(t *testing.T) {
	svc := newTestService(t)
	router := newTestRouter(t, svc)
	root := builtWorkspace(t, svc)

	update := UpdateRequest{
		Root: root,
		Changes: []ChangedFileRequest{
			{Path: "app.py", Content: "def fresh():\n    pass\n"},
			{Path: "lib.py", Deleted: true},
		},
	}
	w := doJSON(t, router, http.MethodPost, "/v1/atlas/update", update)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp UpdateResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Stats.FilesChanged)
	assert.Equal(t, 1, resp.Stats.FilesExtracted)

	_, err := svc.Node(root, graph.FuncNodeID("app.py", "fresh"))
	assert.NoError(t, err)
	_, err = svc.Node(root, graph.ClassNodeID("lib.py", "Engine"))
	assert.ErrorIs(t, err, graph.ErrNodeNotFound)
}

func TestHandleUpdate_NotBuilt(t *testing.T) {
	router := newTestRouter(t, newTestService(t))

	update := UpdateRequest{Root: t.TempDir()}
	w := doJSON(t, router, http.MethodPost, "/v1/atlas/update", update)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

// =============================================================================
// Query Endpoint Tests
// =============================================================================

func TestHandleGraph(t *testing.T) {
	svc := newTestService(t)
	router := newTestRouter(t, svc)
	root := builtWorkspace(t, svc)

	w := doJSON(t, router, http.MethodGet, "/v1/atlas/graph?root="+url.QueryEscape(root), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Header().Get("Content-Type"), "application/json")

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &raw))
	assert.Len(t, raw, 2)
	assert.Contains(t, raw, "nodes")
	assert.Contains(t, raw, "edges")
}

func TestHandleGraph_RequiresRoot(t *testing.T) {
	router := newTestRouter(t, newTestService(t))
	w := doJSON(t, router, http.MethodGet, "/v1/atlas/graph", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleNode(t *testing.T) {
	svc := newTestService(t)
	router := newTestRouter(t, svc)
	root := builtWorkspace(t, svc)

	id := graph.FuncNodeID("app.py", "main")
	path := "/v1/atlas/node/" + url.PathEscape(id) + "?root=" + url.QueryEscape(root)
	w := doJSON(t, router, http.MethodGet, path, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var node graph.Node
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &node))
	assert.Equal(t, id, node.ID)
	assert.Equal(t, "main", node.Name)
}

func TestHandleNode_NotFound(t *testing.T) {
	svc := newTestService(t)
	router := newTestRouter(t, svc)
	root := builtWorkspace(t, svc)

	path := "/v1/atlas/node/nope?root=" + url.QueryEscape(root)
	w := doJSON(t, router, http.MethodGet, path, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandleStats(t *testing.T) {
	svc := newTestService(t)
	router := newTestRouter(t, svc)
	root := builtWorkspace(t, svc)

	w := doJSON(t, router, http.MethodGet, "/v1/atlas/stats?root="+url.QueryEscape(root), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp StatsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Positive(t, resp.Stats.NodeCount)
	assert.Equal(t, 2, resp.Stats.NodesByType["Class"])
}

// =============================================================================
// Analysis Endpoint Tests
// =============================================================================

func TestHandleCycles(t *testing.T) {
	svc := newTestService(t)
	router := newTestRouter(t, svc)
	root := builtWorkspace(t, svc)

	w := doJSON(t, router, http.MethodGet, "/v1/atlas/cycles?root="+url.QueryEscape(root), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp CyclesResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, len(resp.Cycles), resp.Count)
	assert.NotNil(t, resp.Cycles)
}

func TestHandleImpact(t *testing.T) {
	svc := newTestService(t)
	router := newTestRouter(t, svc)
	root := builtWorkspace(t, svc)

	id := graph.FuncNodeID("app.py", "helper")
	path := "/v1/atlas/impact?root=" + url.QueryEscape(root) + "&node_id=" + url.QueryEscape(id)
	w := doJSON(t, router, http.MethodGet, path, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// The wire format uses impacted_nodes with per-node impact levels.
	var resp struct {
		TargetID      string `json:"target_id"`
		ImpactedNodes []struct {
			NodeID      string `json:"node_id"`
			ImpactLevel string `json:"impact_level"`
		} `json:"impacted_nodes"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, id, resp.TargetID)
	require.NotEmpty(t, resp.ImpactedNodes)
	for _, n := range resp.ImpactedNodes {
		assert.Contains(t, []string{"direct", "indirect"}, n.ImpactLevel)
	}
}

func TestHandleImpact_MissingParams(t *testing.T) {
	router := newTestRouter(t, newTestService(t))
	w := doJSON(t, router, http.MethodGet, "/v1/atlas/impact?root=/ws", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// =============================================================================
// Health Endpoint Tests
// =============================================================================

func TestHandleHealth(t *testing.T) {
	router := newTestRouter(t, newTestService(t))
	w := doJSON(t, router, http.MethodGet, "/v1/atlas/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHandleReady(t *testing.T) {
	svc := newTestService(t)
	router := newTestRouter(t, svc)
	builtWorkspace(t, svc)

	w := doJSON(t, router, http.MethodGet, "/v1/atlas/ready", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Status   string   `json:"status"`
		Projects []string `json:"projects"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ready", resp.Status)
	assert.Len(t, resp.Projects, 1)
}

// =============================================================================
// Error Mapping Tests
// =============================================================================

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not built", ErrProjectNotBuilt, http.StatusNotFound},
		{"node missing", graph.ErrNodeNotFound, http.StatusNotFound},
		{"build in progress", ErrBuildInProgress, http.StatusConflict},
		{"invalid root", ErrInvalidRoot, http.StatusBadRequest},
		{"file cap", graph.ErrMaxFilesExceeded, http.StatusBadRequest},
		{"other", context.DeadlineExceeded, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, statusFor(tt.err))
		})
	}
}
