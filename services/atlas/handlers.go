// Copyright (C) 2025 CodeAtlas AI (oss@codeatlas.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package atlas

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/codeatlas-ai/codeatlas/services/atlas/graph"
)

// Handlers exposes the service over HTTP.
type Handlers struct {
	service *Service
}

// NewHandlers creates the HTTP handler set for a service.
func NewHandlers(service *Service) *Handlers {
	return &Handlers{service: service}
}

// getOrCreateRequestID returns the caller's X-Request-ID header or a
// fresh UUID, so every response and log line can be correlated.
func getOrCreateRequestID(c *gin.Context) string {
	if id := c.GetHeader("X-Request-ID"); id != "" {
		return id
	}
	return uuid.NewString()
}

// HandleBuild builds a workspace graph.
//
// POST /v1/atlas/build
func (h *Handlers) HandleBuild(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := slog.With("request_id", requestID, "handler", "HandleBuild")

	var req BuildRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), RequestID: requestID})
		return
	}

	result, err := h.service.Build(c.Request.Context(), req.Root)
	if err != nil {
		logger.Error("build failed", slog.String("root", req.Root), slog.String("error", err.Error()))
		c.JSON(statusFor(err), ErrorResponse{Error: err.Error(), RequestID: requestID})
		return
	}

	logger.Info("build completed",
		slog.String("root", req.Root),
		slog.Int("nodes", result.Stats.NodeCount),
		slog.Int("edges", result.Stats.EdgeCount),
	)
	c.JSON(http.StatusOK, BuildResponse{
		Root:       req.Root,
		Stats:      result.Stats,
		FileErrors: result.FileErrors,
		RequestID:  requestID,
	})
}

// HandleUpdate applies changed files to a built graph.
//
// POST /v1/atlas/update
func (h *Handlers) HandleUpdate(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := slog.With("request_id", requestID, "handler", "HandleUpdate")

	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), RequestID: requestID})
		return
	}

	result, err := h.service.Update(c.Request.Context(), req.Root, toChangedFiles(req.Changes))
	if err != nil {
		logger.Error("update failed", slog.String("root", req.Root), slog.String("error", err.Error()))
		c.JSON(statusFor(err), ErrorResponse{Error: err.Error(), RequestID: requestID})
		return
	}

	c.JSON(http.StatusOK, UpdateResponse{
		Root:       req.Root,
		Stats:      result.Stats,
		FileErrors: result.FileErrors,
		RequestID:  requestID,
	})
}

// HandleGraph exports a built graph as JSON.
//
// GET /v1/atlas/graph?root=...
func (h *Handlers) HandleGraph(c *gin.Context) {
	requestID := getOrCreateRequestID(c)

	root := c.Query("root")
	if root == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "root query parameter is required", RequestID: requestID})
		return
	}

	data, err := h.service.ExportJSON(root)
	if err != nil {
		c.JSON(statusFor(err), ErrorResponse{Error: err.Error(), RequestID: requestID})
		return
	}
	c.Data(http.StatusOK, "application/json", data)
}

// HandleNode looks up a single node by ID.
//
// GET /v1/atlas/node/:id?root=...
func (h *Handlers) HandleNode(c *gin.Context) {
	requestID := getOrCreateRequestID(c)

	root := c.Query("root")
	if root == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "root query parameter is required", RequestID: requestID})
		return
	}

	node, err := h.service.Node(root, c.Param("id"))
	if err != nil {
		c.JSON(statusFor(err), ErrorResponse{Error: err.Error(), RequestID: requestID})
		return
	}
	c.JSON(http.StatusOK, node)
}

// HandleCycles reports dependency cycles in a built graph.
//
// GET /v1/atlas/cycles?root=...
func (h *Handlers) HandleCycles(c *gin.Context) {
	requestID := getOrCreateRequestID(c)

	root := c.Query("root")
	if root == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "root query parameter is required", RequestID: requestID})
		return
	}

	cycles, err := h.service.Cycles(c.Request.Context(), root)
	if err != nil {
		c.JSON(statusFor(err), ErrorResponse{Error: err.Error(), RequestID: requestID})
		return
	}
	c.JSON(http.StatusOK, CyclesResponse{
		Root:      root,
		Cycles:    cycles,
		Count:     len(cycles),
		RequestID: requestID,
	})
}

// HandleImpact reports the impact set of a node.
//
// GET /v1/atlas/impact?root=...&node_id=...
func (h *Handlers) HandleImpact(c *gin.Context) {
	requestID := getOrCreateRequestID(c)

	root := c.Query("root")
	nodeID := c.Query("node_id")
	if root == "" || nodeID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "root and node_id query parameters are required", RequestID: requestID})
		return
	}

	result, err := h.service.Impact(c.Request.Context(), root, nodeID)
	if err != nil {
		c.JSON(statusFor(err), ErrorResponse{Error: err.Error(), RequestID: requestID})
		return
	}
	c.JSON(http.StatusOK, result)
}

// HandleStats summarizes a built graph.
//
// GET /v1/atlas/stats?root=...
func (h *Handlers) HandleStats(c *gin.Context) {
	requestID := getOrCreateRequestID(c)

	root := c.Query("root")
	if root == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "root query parameter is required", RequestID: requestID})
		return
	}

	stats, err := h.service.Stats(root)
	if err != nil {
		c.JSON(statusFor(err), ErrorResponse{Error: err.Error(), RequestID: requestID})
		return
	}
	c.JSON(http.StatusOK, StatsResponse{Root: root, Stats: stats, RequestID: requestID})
}

// HandleHealth is a liveness probe.
//
// GET /v1/atlas/health
func (h *Handlers) HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// HandleReady is a readiness probe; ready once the service exists.
//
// GET /v1/atlas/ready
func (h *Handlers) HandleReady(c *gin.Context) {
	if h.service == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready", "projects": h.service.Projects()})
}

// statusFor maps service errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrProjectNotBuilt), errors.Is(err, graph.ErrNodeNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrBuildInProgress):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidRoot), errors.Is(err, graph.ErrMaxFilesExceeded):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
