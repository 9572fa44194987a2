package metrics

import (
	"testing"
	"time"

	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func counterValue(t *testing.T, source string) float64 {
	t.Helper()
	m := &dto.Metric{}
	require.NoError(t, DocumentsScrapedTotal.WithLabelValues(source).Write(m))
	return m.GetCounter().GetValue()
}

func TestRecordSourceScrape(t *testing.T) {
	tests := []struct {
		name    string
		source  string
		scraped int
	}{
		{name: "single document", source: "federal", scraped: 1},
		{name: "multiple documents", source: "regional", scraped: 10},
		{name: "empty scrape", source: "rosobrnadzor", scraped: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := counterValue(t, tt.source)
			RecordSourceScrape(tt.source, 250*time.Millisecond, tt.scraped)
			assert.Equal(t, before+float64(tt.scraped), counterValue(t, tt.source))
		})
	}
}

func TestRecordDocumentsAdded(t *testing.T) {
	assert.NotPanics(t, func() {
		RecordDocumentsAdded("federal", 3)
		RecordDocumentsAdded("federal", 0)
	})
}

func TestRecordCycleError(t *testing.T) {
	assert.NotPanics(t, func() {
		RecordCycleError("regional", "fetch")
		RecordCycleError("regional", "boundary")
	})
}

func TestGauges(t *testing.T) {
	assert.NotPanics(t, func() {
		UpdateDocumentsTotal(1234)
		UpdateSubscribersTotal(7)
	})
}

func TestRecordDelivery(t *testing.T) {
	assert.NotPanics(t, func() {
		RecordDelivery(true)
		RecordDelivery(false)
	})
}

func TestRecordBotCommand(t *testing.T) {
	assert.NotPanics(t, func() {
		RecordBotCommand("/start")
		RecordBotCommand("search")
	})
}
