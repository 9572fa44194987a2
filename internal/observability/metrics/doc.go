// Package metrics provides Prometheus metrics registry and recording utilities.
//
// This package centralizes all application metrics including:
//   - Discovery metrics (documents scraped, added, cycle durations)
//   - Delivery metrics (per-chat announcements, bot commands)
//   - Store gauges (documents, subscribers)
//
// All metrics are automatically registered with the Prometheus default registry
// and exposed via the /metrics endpoint.
//
// Example usage:
//
//	import "pravo-monitor/internal/observability/metrics"
//
//	func scrapeSource(source string) {
//	    start := time.Now()
//	    // ... walk the source's pagination ...
//	    scraped := 10
//
//	    metrics.RecordSourceScrape(source, time.Since(start), scraped)
//	}
package metrics
