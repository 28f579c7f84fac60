// Copyright (C) 2025 CodeAtlas AI (oss@codeatlas.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package atlas

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers all atlas routes with the router.
//
// Description:
//
//	Registers all /v1/atlas/* endpoints with the given Gin router
//	group. The router group should already have any required
//	middleware applied.
//
// Inputs:
//
//	rg - Gin router group (typically /v1)
//	handlers - The handlers instance
//
// Endpoints:
//
//	POST /v1/atlas/build - Scan a workspace and build its graph
//	POST /v1/atlas/update - Apply changed files incrementally
//	GET  /v1/atlas/graph - Export the graph as JSON (nodes/edges)
//	GET  /v1/atlas/node/:id - Look up a node by ID
//	GET  /v1/atlas/cycles - Detect dependency cycles
//	GET  /v1/atlas/impact - Analyze change impact for a node
//	GET  /v1/atlas/stats - Node/edge counts by type
//	GET  /v1/atlas/health - Health check
//	GET  /v1/atlas/ready - Readiness check
//
// Example:
//
//	service := atlas.NewService(atlas.DefaultServiceConfig())
//	handlers := atlas.NewHandlers(service)
//
//	v1 := router.Group("/v1")
//	atlas.RegisterRoutes(v1, handlers)
func RegisterRoutes(rg *gin.RouterGroup, handlers *Handlers) {
	group := rg.Group("/atlas")
	{
		// Graph lifecycle
		group.POST("/build", handlers.HandleBuild)
		group.POST("/update", handlers.HandleUpdate)

		// Queries
		group.GET("/graph", handlers.HandleGraph)
		group.GET("/node/:id", handlers.HandleNode)
		group.GET("/stats", handlers.HandleStats)

		// Analyses
		group.GET("/cycles", handlers.HandleCycles)
		group.GET("/impact", handlers.HandleImpact)

		// Health checks
		group.GET("/health", handlers.HandleHealth)
		group.GET("/ready", handlers.HandleReady)
	}
}
