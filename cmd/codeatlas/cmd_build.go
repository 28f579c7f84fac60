// Copyright (C) 2025 CodeAtlas AI (oss@codeatlas.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/codeatlas-ai/codeatlas/services/atlas/analysis"
)

const commandTimeout = 5 * time.Minute

// runBuild scans a workspace and builds its graph.
func runBuild(cmd *cobra.Command, args []string) {
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	root := rootArg(args)

	svc, cleanup, err := newService()
	if err != nil {
		outputError("Failed to initialize", err)
		os.Exit(exitError)
	}
	defer cleanup()

	result, err := svc.Build(ctx, root)
	if err != nil {
		outputError("Build failed", err)
		os.Exit(exitError)
	}

	if jsonOutput {
		outputJSON(map[string]interface{}{
			"success":     true,
			"root":        root,
			"stats":       result.Stats,
			"file_errors": result.FileErrors,
		})
		os.Exit(exitSuccess)
	}

	fmt.Printf("Built graph for %s:\n\n", root)
	fmt.Printf("  Files scanned:   %d\n", result.Stats.FilesTotal)
	fmt.Printf("  Files extracted: %d\n", result.Stats.FilesExtracted)
	fmt.Printf("  Files skipped:   %d\n", result.Stats.FilesSkipped)
	fmt.Printf("  Files failed:    %d\n", result.Stats.FilesFailed)
	fmt.Printf("  Nodes:           %d\n", result.Stats.NodeCount)
	fmt.Printf("  Edges:           %d\n", result.Stats.EdgeCount)
	fmt.Printf("  Duration:        %s\n", result.Stats.Duration)

	if len(result.FileErrors) > 0 {
		fmt.Printf("\nExtraction errors (files skipped):\n")
		for _, fe := range result.FileErrors {
			fmt.Printf("  %s: %s\n", fe.FilePath, fe.Error)
		}
	}
	os.Exit(exitSuccess)
}

// runExport writes the graph JSON document to stdout or a file.
func runExport(cmd *cobra.Command, args []string) {
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	root := rootArg(args)

	svc, cleanup, err := newService()
	if err != nil {
		outputError("Failed to initialize", err)
		os.Exit(exitError)
	}
	defer cleanup()

	if _, err := ensureGraph(ctx, svc, root); err != nil {
		outputError("Build failed", err)
		os.Exit(exitError)
	}

	data, err := svc.ExportJSON(root)
	if err != nil {
		outputError("Export failed", err)
		os.Exit(exitError)
	}

	if exportOut != "" {
		if err := os.WriteFile(exportOut, data, 0640); err != nil {
			outputError("Failed to write output file", err)
			os.Exit(exitError)
		}
		fmt.Fprintf(os.Stderr, "Wrote %s\n", exportOut)
		os.Exit(exitSuccess)
	}

	fmt.Println(string(data))
	os.Exit(exitSuccess)
}

// runCycles reports dependency cycles.
func runCycles(cmd *cobra.Command, args []string) {
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	root := rootArg(args)

	svc, cleanup, err := newService()
	if err != nil {
		outputError("Failed to initialize", err)
		os.Exit(exitError)
	}
	defer cleanup()

	if _, err := ensureGraph(ctx, svc, root); err != nil {
		outputError("Build failed", err)
		os.Exit(exitError)
	}

	cycles, err := svc.Cycles(ctx, root)
	if err != nil {
		outputError("Cycle detection failed", err)
		os.Exit(exitError)
	}

	if jsonOutput {
		outputJSON(map[string]interface{}{
			"success": true,
			"root":    root,
			"cycles":  cycles,
			"count":   len(cycles),
		})
	} else {
		outputCyclesText(root, cycles)
	}

	if cyclesFailIfFound && len(cycles) > 0 {
		os.Exit(exitError)
	}
	os.Exit(exitSuccess)
}

func outputCyclesText(root string, cycles []analysis.Cycle) {
	fmt.Printf("Cycles in %s:\n\n", root)

	if len(cycles) == 0 {
		fmt.Println("  No cycles found.")
		return
	}

	for i, cycle := range cycles {
		fmt.Printf("Cycle %d (%d nodes):\n", i+1, cycle.Len())
		fmt.Printf("  %s\n\n", strings.Join(cycle.Path, " -> "))
	}
	fmt.Printf("Found %d cycles\n", len(cycles))
}

// runImpact reports the impact set of a node.
func runImpact(cmd *cobra.Command, args []string) {
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	nodeID := args[0]

	svc, cleanup, err := newService()
	if err != nil {
		outputError("Failed to initialize", err)
		os.Exit(exitError)
	}
	defer cleanup()

	if _, err := ensureGraph(ctx, svc, impactRoot); err != nil {
		outputError("Build failed", err)
		os.Exit(exitError)
	}

	result, err := svc.Impact(ctx, impactRoot, nodeID)
	if err != nil {
		outputError("Impact analysis failed", err)
		os.Exit(exitError)
	}

	impacted := result.ImpactedNodes
	if impactDirect {
		direct := impacted[:0:0]
		for _, n := range impacted {
			if n.ImpactLevel == analysis.ImpactDirect {
				direct = append(direct, n)
			}
		}
		impacted = direct
	}

	if jsonOutput {
		outputJSON(map[string]interface{}{
			"success":        true,
			"target_id":      result.TargetID,
			"impacted_nodes": impacted,
			"count":          len(impacted),
		})
		os.Exit(exitSuccess)
	}

	fmt.Printf("Impact of %s:\n\n", nodeID)
	if len(impacted) == 0 {
		fmt.Println("  No impacted nodes found.")
		os.Exit(exitSuccess)
	}

	for _, n := range impacted {
		fmt.Printf("  [%s] %s (%s) %s\n", n.ImpactLevel, n.Name, n.Type, n.NodeID)
	}
	fmt.Printf("\nFound %d impacted nodes\n", len(impacted))
	os.Exit(exitSuccess)
}
