// Package observability groups the monitor's operational instrumentation.
//
// Subpackages:
//   - logging: slog setup and batch ID propagation
//   - metrics: Prometheus counters and gauges for discovery and delivery
//   - tracing: OpenTelemetry HTTP middleware and the shared tracer
//   - slo: service level targets and the gauges that track them
//
// Everything here reports through the Prometheus default registry and the
// global OpenTelemetry provider, so wiring happens once in cmd/bot.
package observability
