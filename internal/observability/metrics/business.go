package metrics

import (
	"time"
)

// RecordSourceScrape records one source's scrape: how long the pagination
// walk took and how many documents it produced.
func RecordSourceScrape(source string, duration time.Duration, scraped int) {
	SourceScrapeDuration.WithLabelValues(source).Observe(duration.Seconds())
	if scraped > 0 {
		DocumentsScrapedTotal.WithLabelValues(source).Add(float64(scraped))
	}
}

// RecordDocumentsAdded records documents that were new to the store.
func RecordDocumentsAdded(source string, count int) {
	if count > 0 {
		DocumentsAddedTotal.WithLabelValues(source).Add(float64(count))
	}
}

// RecordCycle records the duration of a full discovery cycle.
func RecordCycle(duration time.Duration) {
	DiscoveryCycleDuration.Observe(duration.Seconds())
}

// RecordCycleError records a per-source failure inside a discovery cycle.
// errorType is a short stable label such as "fetch" or "boundary".
func RecordCycleError(source, errorType string) {
	DiscoveryCycleErrors.WithLabelValues(source, errorType).Inc()
}

// UpdateDocumentsTotal updates the document-count gauge. It should be
// refreshed after every store mutation and on startup.
func UpdateDocumentsTotal(count int) {
	DocumentsTotal.Set(float64(count))
}

// UpdateSubscribersTotal updates the subscriber-count gauge.
func UpdateSubscribersTotal(count int) {
	SubscribersTotal.Set(float64(count))
}

// RecordDelivery records the outcome of one per-chat announcement delivery.
func RecordDelivery(success bool) {
	status := "success"
	if !success {
		status = "failure"
	}
	DeliveriesTotal.WithLabelValues(status).Inc()
}

// RecordBotCommand records a handled bot command or keyboard action.
func RecordBotCommand(command string) {
	BotCommandsTotal.WithLabelValues(command).Inc()
}
