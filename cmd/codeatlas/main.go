// Copyright (C) 2025 CodeAtlas AI (oss@codeatlas.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Command codeatlas builds and queries source-code knowledge graphs.
//
// CodeAtlas scans a workspace, extracts modules, classes, functions,
// and variables with lightweight per-language heuristics, and links
// them with import, call, inheritance, dependency, and usage edges.
//
// Usage:
//
//	codeatlas build [path]
//	codeatlas export [path] --out graph.json
//	codeatlas cycles [path]
//	codeatlas impact NODE_ID --root [path]
//	codeatlas serve
//	codeatlas watch [path]
//
// Example requests against the server:
//
//	# Health check
//	curl http://localhost:8640/v1/atlas/health
//
//	# Build a graph
//	curl -X POST http://localhost:8640/v1/atlas/build \
//	  -H "Content-Type: application/json" \
//	  -d '{"root": "/path/to/project"}'
//
//	# Detect cycles
//	curl "http://localhost:8640/v1/atlas/cycles?root=/path/to/project"
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/codeatlas-ai/codeatlas/cmd/codeatlas/config"
	"github.com/codeatlas-ai/codeatlas/pkg/logging"
)

var appLogger *logging.Logger

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if appLogger != nil {
		appLogger.Close()
	}
}

func init() {
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if err := config.Load(); err != nil {
			return err
		}

		level := logging.LevelInfo
		switch config.Global.Logging.Level {
		case "debug":
			level = logging.LevelDebug
		case "warn":
			level = logging.LevelWarn
		case "error":
			level = logging.LevelError
		}
		if verbose {
			level = logging.LevelDebug
		}

		appLogger = logging.New(logging.Config{
			Level:   level,
			LogDir:  config.Global.Logging.LogDir,
			Service: "codeatlas",
			JSON:    config.Global.Logging.JSON,
		})
		appLogger.SetDefault()
		return nil
	}
}
