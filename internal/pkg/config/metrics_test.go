package config

import (
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestNewConfigMetrics_Initialized(t *testing.T) {
	metrics := NewConfigMetrics("test_init")

	assert.NotNil(t, metrics.LoadTimestamp)
	assert.NotNil(t, metrics.ValidationErrorsTotal)
	assert.NotNil(t, metrics.FallbacksTotal)
	assert.NotNil(t, metrics.FallbackActive)
	assert.Equal(t, "test_init", metrics.componentName)
}

func TestNewConfigMetrics_ComponentsDoNotCollide(t *testing.T) {
	workerMetrics := NewConfigMetrics("test_worker_cfg")
	seedMetrics := NewConfigMetrics("test_seed_cfg")

	assert.NotSame(t, workerMetrics.LoadTimestamp, seedMetrics.LoadTimestamp)

	workerMetrics.RecordLoadTimestamp()
	seedMetrics.RecordLoadTimestamp()
}

func TestRecordLoadTimestamp(t *testing.T) {
	metrics := NewConfigMetrics("test_load_ts")

	metrics.RecordLoadTimestamp()

	assert.Greater(t, testutil.ToFloat64(metrics.LoadTimestamp), float64(0))
}

func TestRecordValidationError_CountsPerField(t *testing.T) {
	metrics := NewConfigMetrics("test_validation")

	metrics.RecordValidationError("refresh_cron_schedule")
	metrics.RecordValidationError("timezone")
	metrics.RecordValidationError("refresh_cron_schedule")

	assert.Equal(t, float64(2),
		testutil.ToFloat64(metrics.ValidationErrorsTotal.WithLabelValues("refresh_cron_schedule")))
	assert.Equal(t, float64(1),
		testutil.ToFloat64(metrics.ValidationErrorsTotal.WithLabelValues("timezone")))
	assert.Equal(t, float64(0),
		testutil.ToFloat64(metrics.ValidationErrorsTotal.WithLabelValues("check_interval")))
}

func TestRecordFallback_CountsPerField(t *testing.T) {
	metrics := NewConfigMetrics("test_fallbacks")

	metrics.RecordFallback("check_interval", "default")
	metrics.RecordFallback("check_interval", "default")
	metrics.RecordFallback("document_limit", "default")

	assert.Equal(t, float64(2),
		testutil.ToFloat64(metrics.FallbacksTotal.WithLabelValues("check_interval")))
	assert.Equal(t, float64(1),
		testutil.ToFloat64(metrics.FallbacksTotal.WithLabelValues("document_limit")))
}

func TestSetFallbackActive_Toggle(t *testing.T) {
	metrics := NewConfigMetrics("test_fb_active")

	metrics.SetFallbackActive("", false)
	assert.Equal(t, float64(0), testutil.ToFloat64(metrics.FallbackActive))

	metrics.SetFallbackActive("", true)
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.FallbackActive))

	metrics.SetFallbackActive("", false)
	assert.Equal(t, float64(0), testutil.ToFloat64(metrics.FallbackActive))
}

func TestConfigMetrics_LoadWithFallbacks(t *testing.T) {
	metrics := NewConfigMetrics("test_load_scenario")

	// A load where two env vars were rejected and defaults applied.
	metrics.RecordLoadTimestamp()
	for _, field := range []string{"refresh_cron_schedule", "timezone"} {
		metrics.RecordValidationError(field)
		metrics.RecordFallback(field, "default")
	}
	metrics.SetFallbackActive("", true)

	assert.Greater(t, testutil.ToFloat64(metrics.LoadTimestamp), float64(0))
	assert.Equal(t, float64(1),
		testutil.ToFloat64(metrics.FallbacksTotal.WithLabelValues("timezone")))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.FallbackActive))
}

func TestConfigMetrics_CleanLoad(t *testing.T) {
	metrics := NewConfigMetrics("test_clean_load")

	metrics.RecordLoadTimestamp()
	metrics.SetFallbackActive("", false)

	assert.Equal(t, float64(0),
		testutil.ToFloat64(metrics.ValidationErrorsTotal.WithLabelValues("check_interval")))
	assert.Equal(t, float64(0), testutil.ToFloat64(metrics.FallbackActive))
}

func TestConfigMetrics_ConcurrentRecording(t *testing.T) {
	metrics := NewConfigMetrics("test_concurrent_cfg")

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			metrics.RecordLoadTimestamp()
			metrics.RecordValidationError("bot_token")
			metrics.RecordFallback("bot_token", "default")
			metrics.SetFallbackActive("bot_token", true)
		}()
	}
	wg.Wait()

	assert.Equal(t, float64(10),
		testutil.ToFloat64(metrics.ValidationErrorsTotal.WithLabelValues("bot_token")))
	assert.Equal(t, float64(10),
		testutil.ToFloat64(metrics.FallbacksTotal.WithLabelValues("bot_token")))
}
