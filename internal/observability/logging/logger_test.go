package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// captureLogger returns a JSON logger writing into a buffer, at the given
// level, for asserting on emitted records.
func captureLogger(level slog.Level) (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	handler := slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: level})
	return slog.New(handler), &buf
}

func decodeRecord(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry), "output should be valid JSON")
	return entry
}

func TestNewLogger_LevelFromEnv(t *testing.T) {
	tests := []struct {
		name     string
		logLevel string
	}{
		{"default level", ""},
		{"debug level", "debug"},
		{"unknown level falls back to info", "verbose"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.logLevel != "" {
				t.Setenv("LOG_LEVEL", tt.logLevel)
			}
			assert.NotNil(t, NewLogger())
			assert.NotNil(t, NewTextLogger())
		})
	}
}

func TestLogger_EmitsStructuredJSON(t *testing.T) {
	logger, buf := captureLogger(slog.LevelInfo)

	logger.Info("discovery cycle completed",
		"source", "minpros",
		"added", 4,
	)

	entry := decodeRecord(t, buf)
	assert.Equal(t, "discovery cycle completed", entry["msg"])
	assert.Equal(t, "INFO", entry["level"])
	assert.NotEmpty(t, entry["time"])
	assert.Equal(t, "minpros", entry["source"])
	assert.Equal(t, float64(4), entry["added"])
}

func TestLogger_DebugFilteredAtInfoLevel(t *testing.T) {
	logger, buf := captureLogger(slog.LevelInfo)

	logger.Debug("page fetch detail")
	logger.Info("cycle started")

	output := buf.String()
	assert.NotContains(t, output, "page fetch detail")
	assert.Contains(t, output, "cycle started")
}

func TestWithBatchID(t *testing.T) {
	logger, buf := captureLogger(slog.LevelInfo)

	ctx := ContextWithBatchID(context.Background(), "550e8400-e29b-41d4-a716-446655440000")
	WithBatchID(ctx, logger).Info("documents published")

	entry := decodeRecord(t, buf)
	assert.Equal(t, "550e8400-e29b-41d4-a716-446655440000", entry["batch_id"])
}

func TestWithBatchID_NoIDInContext(t *testing.T) {
	logger, buf := captureLogger(slog.LevelInfo)

	WithBatchID(context.Background(), logger).Info("documents published")

	output := buf.String()
	assert.Contains(t, output, "documents published")
	assert.NotContains(t, output, "batch_id")
}

func TestBatchIDFromContext(t *testing.T) {
	assert.Equal(t, "", BatchIDFromContext(context.Background()))

	ctx := ContextWithBatchID(context.Background(), "batch-7")
	assert.Equal(t, "batch-7", BatchIDFromContext(ctx))
}

func TestWithFields(t *testing.T) {
	tests := []struct {
		name   string
		fields map[string]interface{}
	}{
		{"single field", map[string]interface{}{"source": "rosobr"}},
		{"mixed types", map[string]interface{}{
			"source":  "minobr_yakutia",
			"scraped": 17,
			"fresh":   true,
		}},
		{"empty map", map[string]interface{}{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, buf := captureLogger(slog.LevelInfo)

			WithFields(logger, tt.fields).Info("cycle stats")

			entry := decodeRecord(t, buf)
			assert.Equal(t, "cycle stats", entry["msg"])
			for key, want := range tt.fields {
				if n, ok := want.(int); ok {
					assert.Equal(t, float64(n), entry[key], "field %s", key)
				} else {
					assert.Equal(t, want, entry[key], "field %s", key)
				}
			}
		})
	}
}

func TestFromContext(t *testing.T) {
	t.Run("returns stored logger", func(t *testing.T) {
		logger, buf := captureLogger(slog.LevelInfo)
		ctx := WithLogger(context.Background(), logger)

		FromContext(ctx).Info("stored logger used")
		assert.Contains(t, buf.String(), "stored logger used")
	})

	t.Run("falls back to default", func(t *testing.T) {
		assert.Equal(t, slog.Default(), FromContext(context.Background()))
	})

	t.Run("ignores wrong value type", func(t *testing.T) {
		ctx := context.WithValue(context.Background(), loggerContextKey, "not a logger")
		assert.Equal(t, slog.Default(), FromContext(ctx))
	})
}

func TestLogger_BatchScopedWorkflow(t *testing.T) {
	logger, buf := captureLogger(slog.LevelDebug)

	ctx := WithLogger(context.Background(), logger)
	ctx = ContextWithBatchID(ctx, "batch-workflow")

	scoped := WithBatchID(ctx, FromContext(ctx))
	scoped = WithFields(scoped, map[string]interface{}{"source": "minpros"})
	scoped.Info("new documents announced")

	entry := decodeRecord(t, buf)
	assert.Equal(t, "new documents announced", entry["msg"])
	assert.Equal(t, "batch-workflow", entry["batch_id"])
	assert.Equal(t, "minpros", entry["source"])
}

func TestLogger_OneJSONRecordPerLine(t *testing.T) {
	logger, buf := captureLogger(slog.LevelInfo)

	logger.Info("first")
	logger.Warn("second")
	logger.Error("third")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	for i, line := range lines {
		var entry map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(line), &entry), "line %d", i+1)
		assert.NotEmpty(t, entry["msg"])
		assert.NotEmpty(t, entry["level"])
	}
}

func BenchmarkLogger_Info(b *testing.B) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		logger.Info("benchmark message")
	}
}

func BenchmarkLogger_WithBatchID(b *testing.B) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	ctx := ContextWithBatchID(context.Background(), "benchmark-batch")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		WithBatchID(ctx, logger).Info("benchmark message")
	}
}
