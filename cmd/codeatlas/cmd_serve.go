// Copyright (C) 2025 CodeAtlas AI (oss@codeatlas.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/codeatlas-ai/codeatlas/cmd/codeatlas/config"
	"github.com/codeatlas-ai/codeatlas/services/atlas"
	"github.com/codeatlas-ai/codeatlas/services/atlas/telemetry"
)

// runServe starts the HTTP API server.
func runServe(cmd *cobra.Command, args []string) {
	ctx := context.Background()

	shutdown, err := telemetry.Init(ctx, telemetry.DefaultConfig())
	if err != nil {
		outputError("Telemetry init failed", err)
		os.Exit(exitError)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			slog.Warn("telemetry shutdown failed", slog.String("error", err.Error()))
		}
	}()

	svc, cleanup, err := newService()
	if err != nil {
		outputError("Failed to initialize", err)
		os.Exit(exitError)
	}
	defer cleanup()

	if verbose {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware("codeatlas"))
	if verbose {
		router.Use(gin.Logger())
	}

	handlers := atlas.NewHandlers(svc)
	v1 := router.Group("/v1")
	atlas.RegisterRoutes(v1, handlers)

	if mh := telemetry.MetricsHandler(); mh != nil {
		router.GET("/metrics", gin.WrapH(mh))
	}

	host := config.Global.Server.Host
	if serveHost != "" {
		host = serveHost
	}
	port := config.Global.Server.Port
	if servePort != 0 {
		port = servePort
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", host, port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("starting CodeAtlas server", slog.String("address", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed", slog.String("error", err.Error()))
			os.Exit(exitError)
		}
	}()

	<-quit
	slog.Info("shutting down CodeAtlas server")

	timeout := time.Duration(config.Global.Server.ShutdownTimeoutSeconds) * time.Second
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("graceful shutdown failed", slog.String("error", err.Error()))
		os.Exit(exitError)
	}
	slog.Info("server stopped")
}
