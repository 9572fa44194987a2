package slo

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// SLO targets define the service level objectives for the monitor.
// These targets are used to measure and monitor service reliability.
const (
	// CycleSuccessSLO defines the target ratio of discovery cycles that
	// complete without all sources failing (99% = roughly 7 failed cycles
	// per month on an hourly schedule)
	CycleSuccessSLO = 0.99

	// CycleDurationSLO defines the target for a full discovery cycle in
	// seconds (5 minutes covers three sources at up to 20 pages each)
	CycleDurationSLO = 300.0

	// DeliveryErrorRateSLO defines the maximum acceptable ratio of failed
	// subscriber deliveries (1% = 0.01)
	DeliveryErrorRateSLO = 0.01
)

// SLO tracking metrics
// These gauges are updated after each discovery cycle and delivery batch
// to track whether the service is meeting its SLO targets.
var (
	// SLOCycleSuccess tracks the cycle success ratio (0-1) over the
	// lifetime of the process, calculated as:
	// (total_cycles - failed_cycles) / total_cycles
	SLOCycleSuccess = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "slo_cycle_success_ratio",
			Help: "Discovery cycle success ratio (0-1), target: 0.99",
		},
	)

	// SLOCycleDuration tracks the duration of the most recent discovery
	// cycle in seconds
	SLOCycleDuration = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "slo_cycle_duration_seconds",
			Help: "Duration of the most recent discovery cycle in seconds, target: 300",
		},
	)

	// SLODeliveryErrorRate tracks the ratio of failed subscriber
	// deliveries (0-1) over the lifetime of the process, calculated as:
	// failed_deliveries / total_deliveries
	SLODeliveryErrorRate = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "slo_delivery_error_rate_ratio",
			Help: "Subscriber delivery error rate ratio (0-1), target: 0.01",
		},
	)
)

// UpdateCycleSuccess updates the cycle success SLO metric.
// Call this after each discovery cycle with the calculated success ratio.
//
// Example calculation:
//
//	ratio := float64(totalCycles-failedCycles) / float64(totalCycles)
//	slo.UpdateCycleSuccess(ratio)
func UpdateCycleSuccess(ratio float64) {
	SLOCycleSuccess.Set(ratio)
}

// UpdateCycleDuration updates the cycle duration SLO metric.
// Call this after each discovery cycle with the elapsed time in seconds.
func UpdateCycleDuration(seconds float64) {
	SLOCycleDuration.Set(seconds)
}

// UpdateDeliveryErrorRate updates the delivery error rate SLO metric.
// Call this after each delivery batch with the calculated error ratio.
//
// Example calculation:
//
//	rate := float64(failedDeliveries) / float64(totalDeliveries)
//	slo.UpdateDeliveryErrorRate(rate)
func UpdateDeliveryErrorRate(ratio float64) {
	SLODeliveryErrorRate.Set(ratio)
}
