// Package tracing provides OpenTelemetry tracing integration.
//
// This package provides tracing capabilities using the OpenTelemetry API.
// Spans cover the operational HTTP endpoints and discovery cycles; exporter
// wiring is left to the deployment environment.
//
// Example usage:
//
//	import "pravo-monitor/internal/observability/tracing"
//
//	func runCycle(ctx context.Context) {
//	    ctx, span := tracing.GetTracer().Start(ctx, "discovery-cycle")
//	    defer span.End()
//	    // ... walk sources ...
//	}
package tracing
