// Copyright (C) 2025 CodeAtlas AI (oss@codeatlas.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package graph

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

var (
	tracer = otel.Tracer("codeatlas.graph")
	meter  = otel.Meter("codeatlas.graph")

	buildCounter    metric.Int64Counter
	buildDuration   metric.Float64Histogram
	filesExtracted  metric.Int64Counter
	filesFailed     metric.Int64Counter
	updateCounter   metric.Int64Counter
	updateNodeDelta metric.Int64Counter

	metricsOnce sync.Once
)

func initMetrics() {
	var err error

	buildCounter, err = meter.Int64Counter("codeatlas.graph.builds",
		metric.WithDescription("Number of graph builds"))
	if err != nil {
		buildCounter = nil
	}

	buildDuration, err = meter.Float64Histogram("codeatlas.graph.build.duration_ms",
		metric.WithDescription("Graph build duration in milliseconds"),
		metric.WithUnit("ms"))
	if err != nil {
		buildDuration = nil
	}

	filesExtracted, err = meter.Int64Counter("codeatlas.graph.files.extracted",
		metric.WithDescription("Files successfully extracted"))
	if err != nil {
		filesExtracted = nil
	}

	filesFailed, err = meter.Int64Counter("codeatlas.graph.files.failed",
		metric.WithDescription("Files whose extraction failed"))
	if err != nil {
		filesFailed = nil
	}

	updateCounter, err = meter.Int64Counter("codeatlas.graph.updates",
		metric.WithDescription("Number of incremental graph updates"))
	if err != nil {
		updateCounter = nil
	}

	updateNodeDelta, err = meter.Int64Counter("codeatlas.graph.update.nodes_removed",
		metric.WithDescription("Nodes removed during incremental updates"))
	if err != nil {
		updateNodeDelta = nil
	}
}

func startBuildSpan(ctx context.Context, fileCount int) (context.Context, trace.Span) {
	return tracer.Start(ctx, "graph.Build",
		trace.WithAttributes(attribute.Int("files.total", fileCount)))
}

func setBuildSpanResult(span trace.Span, result *BuildResult) {
	span.SetAttributes(
		attribute.Int("files.extracted", result.Stats.FilesExtracted),
		attribute.Int("files.skipped", result.Stats.FilesSkipped),
		attribute.Int("files.failed", result.Stats.FilesFailed),
		attribute.Int("graph.nodes", result.Stats.NodeCount),
		attribute.Int("graph.edges", result.Stats.EdgeCount),
	)
	span.SetStatus(codes.Ok, "")
}

func setBuildSpanError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

func recordBuildMetrics(ctx context.Context, result *BuildResult) {
	metricsOnce.Do(initMetrics)

	if buildCounter != nil {
		buildCounter.Add(ctx, 1)
	}
	if buildDuration != nil {
		buildDuration.Record(ctx, float64(result.Stats.Duration.Milliseconds()))
	}
	if filesExtracted != nil {
		filesExtracted.Add(ctx, int64(result.Stats.FilesExtracted))
	}
	if filesFailed != nil {
		filesFailed.Add(ctx, int64(result.Stats.FilesFailed))
	}
}

func startUpdateSpan(ctx context.Context, changedCount int) (context.Context, trace.Span) {
	return tracer.Start(ctx, "graph.Update",
		trace.WithAttributes(attribute.Int("files.changed", changedCount)))
}

func recordUpdateMetrics(ctx context.Context, nodesRemoved int) {
	metricsOnce.Do(initMetrics)

	if updateCounter != nil {
		updateCounter.Add(ctx, 1)
	}
	if updateNodeDelta != nil {
		updateNodeDelta.Add(ctx, int64(nodesRemoved))
	}
}
