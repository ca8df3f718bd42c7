package logger

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name  string
		level string
	}{
		{"debug level", "debug"},
		{"info level", "info"},
		{"warn level", "warn"},
		{"error level", "error"},
		{"invalid level", "invalid"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log := New(tt.level)
			if log == nil {
				t.Error("New() returned nil")
			}
		})
	}
}

func TestShouldLog(t *testing.T) {
	tests := []struct {
		name        string
		configLevel string
		logLevel    string
		shouldLog   bool
	}{
		{"debug logs at debug level", "debug", "debug", true},
		{"info logs at debug level", "debug", "info", true},
		{"debug doesn't log at info level", "info", "debug", false},
		{"info logs at info level", "info", "info", true},
		{"error always logs", "debug", "error", true},
		{"warn doesn't log at error level", "error", "warn", false},
		{"invalid level defaults to info", "bogus", "debug", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log := New(tt.configLevel).(*implLogger)
			result := log.shouldLog(tt.logLevel)
			if result != tt.shouldLog {
				t.Errorf("shouldLog() = %v, want %v", result, tt.shouldLog)
			}
		})
	}
}

func TestPrefixesAndFormatting(t *testing.T) {
	ctx := context.Background()
	var buf bytes.Buffer
	log := NewWithWriter("debug", &buf)

	log.Debug(ctx, "batch %d", 1)
	log.Info(ctx, "scored %d rows for %s", 7, "internal")
	log.Warn(ctx, "skipped")
	log.Error(ctx, "failed: %v", "boom")

	out := buf.String()
	for _, want := range []string{"[DEBUG] batch 1", "[INFO] scored 7 rows for internal", "[WARN] skipped", "[ERROR] failed: boom"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestBanner(t *testing.T) {
	var buf bytes.Buffer
	Banner(context.Background(), NewWithWriter("info", &buf), "Batch Scorer")

	if got := strings.Count(buf.String(), "========================================"); got != 2 {
		t.Errorf("banner separators = %d, want 2", got)
	}
	if !strings.Contains(buf.String(), "Batch Scorer") {
		t.Errorf("banner missing title:\n%s", buf.String())
	}
}

func TestDiscard(t *testing.T) {
	log := Discard()
	log.Error(context.Background(), "dropped")
}
