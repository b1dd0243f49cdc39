package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
)

func TestZapLogger_LevelsAndFields(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(Config{Level: "debug", Format: "json", Output: &buf, Backend: "zap"})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	tests := []struct {
		level   string
		logFunc func(string, ...any)
	}{
		{"debug", l.Debug},
		{"info", l.Info},
		{"warn", l.Warn},
		{"error", l.Error},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			buf.Reset()
			tt.logFunc("zap message", "component", "store", "count", 3)

			var entry map[string]any
			if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
				t.Fatalf("Failed to parse JSON log %q: %v", buf.String(), err)
			}
			if entry["msg"] != "zap message" {
				t.Errorf("msg = %v, want zap message", entry["msg"])
			}
			if entry["level"] != tt.level {
				t.Errorf("level = %v, want %s", entry["level"], tt.level)
			}
			if entry["component"] != "store" {
				t.Errorf("component = %v, want store", entry["component"])
			}
			if entry["count"] != float64(3) {
				t.Errorf("count = %v, want 3", entry["count"])
			}
		})
	}
}

func TestZapLogger_SharesDynamicLevel(t *testing.T) {
	defer SetLevel("info")

	var buf bytes.Buffer
	l, err := New(Config{Level: "error", Format: "json", Output: &buf, Backend: "zap"})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	l.Info("hidden")
	if buf.Len() != 0 {
		t.Fatalf("info should be filtered at error level, got %s", buf.String())
	}

	SetLevel("debug")
	l.Debug("visible")
	if !strings.Contains(buf.String(), "visible") {
		t.Errorf("debug should be logged after SetLevel(debug), got %q", buf.String())
	}
}

func TestZapLogger_WithContext(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(Config{Level: "info", Format: "json", Output: &buf, Backend: "zap"})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx := WithRequestID(context.Background(), "req-abc")
	l.WithContext(ctx).Info("handled")

	if !strings.Contains(buf.String(), `"request_id":"req-abc"`) {
		t.Errorf("expected request_id in output, got %s", buf.String())
	}
}

func TestNew_UnknownBackend(t *testing.T) {
	if _, err := New(Config{Backend: "logrus"}); err == nil {
		t.Error("New() should reject unknown backends")
	}
}
