package logger

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNoopLogger(t *testing.T) {
	logger := &NoopLogger{}

	// Should not panic
	logger.Debug("test")
	logger.Info("test")
	logger.Warn("test")
	logger.Error("test")

	// With arguments
	logger.Debug("test", "key", "value")
	logger.Info("test", "key", "value")
	logger.Warn("test", "key", "value")
	logger.Error("test", "key", "value")
}

func TestSlogAdapter(t *testing.T) {
	tests := []struct {
		name       string
		logFunc    func(Logger, string, ...any)
		message    string
		args       []any
		wantLevel  string
		wantFields map[string]string
	}{
		{
			name:      "Debug level",
			logFunc:   func(l Logger, msg string, args ...any) { l.Debug(msg, args...) },
			message:   "analysis started",
			args:      []any{"connection_id", "prod"},
			wantLevel: "DEBUG",
			wantFields: map[string]string{
				"connection_id": "prod",
			},
		},
		{
			name:      "Info level",
			logFunc:   func(l Logger, msg string, args ...any) { l.Info(msg, args...) },
			message:   "analysis completed",
			args:      []any{"recommendations", "2"},
			wantLevel: "INFO",
			wantFields: map[string]string{
				"recommendations": "2",
			},
		},
		{
			name:      "Warn level",
			logFunc:   func(l Logger, msg string, args ...any) { l.Warn(msg, args...) },
			message:   "statistics unavailable",
			args:      []any{"table", "emp"},
			wantLevel: "WARN",
			wantFields: map[string]string{
				"table": "emp",
			},
		},
		{
			name:      "Error level",
			logFunc:   func(l Logger, msg string, args ...any) { l.Error(msg, args...) },
			message:   "metadata fetch failed",
			args:      []any{"error", "connection refused"},
			wantLevel: "ERROR",
			wantFields: map[string]string{
				"error": "connection refused",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			handler := slog.NewTextHandler(&buf, &slog.HandlerOptions{
				Level: slog.LevelDebug,
			})
			logger := NewSlogAdapter(slog.New(handler))

			tt.logFunc(logger, tt.message, tt.args...)

			output := buf.String()
			assert.Contains(t, output, tt.wantLevel)
			assert.Contains(t, output, tt.message)
			for key, value := range tt.wantFields {
				// slog quotes string values
				assert.Contains(t, output, key+"=")
				assert.Contains(t, output, value)
			}
		})
	}
}

func TestSlogAdapterJSONHandler(t *testing.T) {
	var buf bytes.Buffer
	handler := slog.NewJSONHandler(&buf, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	})
	logger := NewSlogAdapter(slog.New(handler))

	logger.Info("analysis completed",
		"sql", "SELECT * FROM emp WHERE dept_id = ?",
		"duration_ms", 15,
		"recommendations", 1)

	output := buf.String()
	assert.Contains(t, output, `"msg":"analysis completed"`)
	assert.Contains(t, output, `"sql":"SELECT * FROM emp WHERE dept_id = ?"`)
	assert.Contains(t, output, `"duration_ms":15`)
	assert.Contains(t, output, `"recommendations":1`)
}

func TestSlogAdapterMultipleFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewSlogAdapter(slog.New(slog.NewTextHandler(&buf, nil)))

	logger.Info("complex log",
		"string", "value",
		"int", 42,
		"bool", true,
		"nil", nil)

	output := buf.String()
	assert.Contains(t, output, "string=value")
	assert.Contains(t, output, "int=42")
	assert.Contains(t, output, "bool=true")
	assert.Contains(t, output, "nil=<nil>")
}

func BenchmarkNoopLogger(b *testing.B) {
	logger := &NoopLogger{}
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		logger.Info("analysis completed",
			"sql", "SELECT * FROM emp",
			"duration_ms", 15,
			"recommendations", 2)
	}
}

func BenchmarkSlogAdapter(b *testing.B) {
	var buf bytes.Buffer
	logger := NewSlogAdapter(slog.New(slog.NewTextHandler(&buf, nil)))
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		logger.Info("analysis completed",
			"sql", "SELECT * FROM emp",
			"duration_ms", 15,
			"recommendations", 2)
	}
}
