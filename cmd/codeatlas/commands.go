// Copyright (C) 2025 CodeAtlas AI (oss@codeatlas.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"github.com/spf13/cobra"
)

// --- Global Command Variables ---
var (
	jsonOutput bool
	verbose    bool

	// export-specific
	exportOut string

	// impact-specific
	impactRoot   string
	impactDirect bool

	// cycles-specific
	cyclesFailIfFound bool

	// serve-specific
	servePort int
	serveHost string

	rootCmd = &cobra.Command{
		Use:   "codeatlas",
		Short: "Build and query source-code knowledge graphs",
		Long: `CodeAtlas scans a workspace and builds a knowledge graph of its
modules, classes, functions, and variables, linked by import, call,
inheritance, dependency, and usage edges.

Run 'codeatlas build' on a workspace first, then query it with the
export, cycles, and impact commands, or start the HTTP API with serve.`,
	}

	buildCmd = &cobra.Command{
		Use:   "build [path]",
		Short: "Scan a workspace and build its knowledge graph",
		Long: `Scan the workspace at path (default: current directory), extract
symbols from every supported source file, and build the graph.

The graph is persisted to the local store so later export, cycles,
and impact commands can reuse it without rescanning.

Examples:
  codeatlas build
  codeatlas build ~/src/myproject
  codeatlas build --json`,
		Args: cobra.MaximumNArgs(1),
		Run:  runBuild, // Defined in cmd_build.go
	}

	exportCmd = &cobra.Command{
		Use:   "export [path]",
		Short: "Export a workspace graph as JSON",
		Long: `Export the graph for the workspace at path (default: current
directory) as a JSON document with "nodes" and "edges" arrays.

Uses the persisted snapshot when one exists; otherwise builds first.

Examples:
  codeatlas export
  codeatlas export ~/src/myproject --out graph.json`,
		Args: cobra.MaximumNArgs(1),
		Run:  runExport, // Defined in cmd_build.go
	}

	cyclesCmd = &cobra.Command{
		Use:   "cycles [path]",
		Short: "Detect dependency cycles in a workspace graph",
		Long: `Detect cycles in the graph for the workspace at path (default:
current directory). Each cycle is reported as a closed path whose
first and last node are the same.

Examples:
  codeatlas cycles
  codeatlas cycles ~/src/myproject --json
  codeatlas cycles --fail-if-found`,
		Args: cobra.MaximumNArgs(1),
		Run:  runCycles, // Defined in cmd_build.go
	}

	impactCmd = &cobra.Command{
		Use:   "impact NODE_ID",
		Short: "Analyze the impact of changing a node",
		Long: `Report every node impacted by a change to NODE_ID.

Directly connected nodes are reported with impact level "direct";
nodes reachable from those are "indirect".

Node ID formats:
  - Module:   "module:src/app.py"
  - Class:    "src/app.py:class:Engine"
  - Function: "src/app.py:func:start"
  - Variable: "src/app.py:var:VERSION"

Examples:
  codeatlas impact "src/app.py:func:start"
  codeatlas impact "module:src/app.py" --root ~/src/myproject
  codeatlas impact "src/app.py:class:Engine" --direct --json`,
		Args: cobra.ExactArgs(1),
		Run:  runImpact, // Defined in cmd_build.go
	}

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Start the CodeAtlas HTTP API server",
		Long: `Start the HTTP API on the configured host and port.

Endpoints live under /v1/atlas; Prometheus metrics are served on
/metrics when the prometheus exporter is active.

Examples:
  codeatlas serve
  codeatlas serve --port 9090`,
		Run: runServe, // Defined in cmd_serve.go
	}

	watchCmd = &cobra.Command{
		Use:   "watch [path]",
		Short: "Watch a workspace and keep its graph fresh",
		Long: `Build the graph for the workspace at path (default: current
directory), then watch the file system and apply incremental updates
as files change. Runs until interrupted.

Examples:
  codeatlas watch
  codeatlas watch ~/src/myproject`,
		Args: cobra.MaximumNArgs(1),
		Run:  runWatch, // Defined in cmd_watch.go
	}
)

func init() {
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false,
		"Output as JSON for scripting")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"Enable debug logging")

	exportCmd.Flags().StringVar(&exportOut, "out", "",
		"Write the JSON document to this file instead of stdout")

	cyclesCmd.Flags().BoolVar(&cyclesFailIfFound, "fail-if-found", false,
		"Exit with error if any cycle is found")

	impactCmd.Flags().StringVar(&impactRoot, "root", ".",
		"Workspace root the node belongs to")
	impactCmd.Flags().BoolVar(&impactDirect, "direct", false,
		"Only show directly impacted nodes")

	serveCmd.Flags().IntVar(&servePort, "port", 0,
		"Port to listen on (overrides config)")
	serveCmd.Flags().StringVar(&serveHost, "host", "",
		"Host to bind to (overrides config)")

	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(cyclesCmd)
	rootCmd.AddCommand(impactCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(watchCmd)
}
