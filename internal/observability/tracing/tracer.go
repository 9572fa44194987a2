package tracing

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// tracer is the process-wide tracer. It resolves against whatever provider
// is installed globally, so spans are no-ops until one is configured.
var tracer = otel.Tracer("pravo-monitor")

// GetTracer returns the shared tracer for starting spans, for example
// around a discovery cycle or a notification batch.
func GetTracer() trace.Tracer {
	return tracer
}
