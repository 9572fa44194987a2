// Package metrics provides centralized Prometheus metrics for the application.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Discovery metrics track the scrape-and-notify cycle
var (
	// DocumentsTotal tracks the number of documents in the store
	DocumentsTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "documents_total",
			Help: "Total number of documents in the store",
		},
	)

	// SubscribersTotal tracks the number of subscribed chats
	SubscribersTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "subscribers_total",
			Help: "Total number of subscribed chats",
		},
	)

	// DocumentsScrapedTotal counts documents extracted per source
	DocumentsScrapedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "documents_scraped_total",
			Help: "Total number of documents extracted from listing pages",
		},
		[]string{"source"},
	)

	// DocumentsAddedTotal counts documents that were new to the store
	DocumentsAddedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "documents_added_total",
			Help: "Total number of new documents added to the store",
		},
		[]string{"source"},
	)

	// SourceScrapeDuration measures time to walk one source's pagination
	SourceScrapeDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "source_scrape_duration_seconds",
			Help:    "Time taken to scrape one source",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
		},
		[]string{"source"},
	)

	// DiscoveryCycleDuration measures a full discovery cycle
	DiscoveryCycleDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "discovery_cycle_duration_seconds",
			Help:    "Time taken by a full discovery cycle",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
		},
	)

	// DiscoveryCycleErrors counts per-source failures inside a cycle
	DiscoveryCycleErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "discovery_cycle_errors_total",
			Help: "Total number of per-source discovery errors",
		},
		[]string{"source", "error_type"},
	)
)

// Delivery metrics track outbound Telegram traffic
var (
	// DeliveriesTotal counts per-chat announcement deliveries by outcome
	DeliveriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "deliveries_total",
			Help: "Total number of per-chat announcement deliveries",
		},
		[]string{"status"}, // status: success, failure
	)

	// BotCommandsTotal counts handled bot commands and keyboard actions
	BotCommandsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_commands_total",
			Help: "Total number of handled bot commands",
		},
		[]string{"command"},
	)
)
