// Copyright (C) 2025 CodeAtlas AI (oss@codeatlas.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package analysis

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/codeatlas-ai/codeatlas/services/atlas/graph"
)

var (
	tracer = otel.Tracer("codeatlas.analysis")
	meter  = otel.Meter("codeatlas.analysis")

	cycleRuns     metric.Int64Counter
	cyclesFound   metric.Int64Counter
	impactRuns    metric.Int64Counter
	impactedCount metric.Int64Counter

	metricsOnce sync.Once
)

func initMetrics() {
	var err error

	cycleRuns, err = meter.Int64Counter("codeatlas.analysis.cycle_runs",
		metric.WithDescription("Cycle detection invocations"))
	if err != nil {
		cycleRuns = nil
	}

	cyclesFound, err = meter.Int64Counter("codeatlas.analysis.cycles_found",
		metric.WithDescription("Cycles reported across all runs"))
	if err != nil {
		cyclesFound = nil
	}

	impactRuns, err = meter.Int64Counter("codeatlas.analysis.impact_runs",
		metric.WithDescription("Impact analysis invocations"))
	if err != nil {
		impactRuns = nil
	}

	impactedCount, err = meter.Int64Counter("codeatlas.analysis.impacted_nodes",
		metric.WithDescription("Impacted nodes reported across all runs"))
	if err != nil {
		impactedCount = nil
	}
}

func startCycleSpan(ctx context.Context, g *graph.Graph) (context.Context, trace.Span) {
	return tracer.Start(ctx, "analysis.DetectCycles",
		trace.WithAttributes(
			attribute.Int("graph.nodes", g.NodeCount()),
			attribute.Int("graph.edges", g.EdgeCount()),
		))
}

func setCycleSpanResult(span trace.Span, count int) {
	span.SetAttributes(attribute.Int("cycles.found", count))
	span.SetStatus(codes.Ok, "")
}

func recordCycleMetrics(ctx context.Context, count int) {
	metricsOnce.Do(initMetrics)

	if cycleRuns != nil {
		cycleRuns.Add(ctx, 1)
	}
	if cyclesFound != nil {
		cyclesFound.Add(ctx, int64(count))
	}
}

func startImpactSpan(ctx context.Context, nodeID string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "analysis.AnalyzeImpact",
		trace.WithAttributes(attribute.String("target.id", nodeID)))
}

func setImpactSpanResult(span trace.Span, count int) {
	span.SetAttributes(attribute.Int("impacted.count", count))
	span.SetStatus(codes.Ok, "")
}

func recordImpactMetrics(ctx context.Context, count int) {
	metricsOnce.Do(initMetrics)

	if impactRuns != nil {
		impactRuns.Add(ctx, 1)
	}
	if impactedCount != nil {
		impactedCount.Add(ctx, int64(count))
	}
}
