package telemetry

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevelDefaultsToInfo(t *testing.T) {
	cases := map[string]slog.Level{
		"":        slog.LevelInfo,
		"info":    slog.LevelInfo,
		"DEBUG":   slog.LevelDebug,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"bogus":   slog.LevelInfo,
	}
	for input, want := range cases {
		if got := parseLevel(input); got != want {
			t.Errorf("parseLevel(%q) = %v, want %v", input, got, want)
		}
	}
}

func TestNewLoggerRespectsLevel(t *testing.T) {
	logger := NewLogger("json", "error")
	if !logger.Handler().Enabled(nil, slog.LevelError) {
		t.Error("expected ERROR to be enabled")
	}
	if logger.Handler().Enabled(nil, slog.LevelInfo) {
		t.Error("expected INFO to be suppressed at level=error")
	}
}

func TestNewLoggerTextFormat(t *testing.T) {
	if _, ok := NewLogger("text", "info").Handler().(*slog.TextHandler); !ok {
		t.Errorf("NewLogger(text) handler = %T, want *slog.TextHandler", NewLogger("text", "info").Handler())
	}

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	logger.Info("hello", "key", "value")
	if !strings.Contains(buf.String(), "key=value") {
		t.Errorf("text handler output = %q, want it to contain key=value", buf.String())
	}
}

func TestAllReturnsEveryCollector(t *testing.T) {
	collectors := All()
	if len(collectors) != 5 {
		t.Fatalf("All() returned %d collectors, want 5", len(collectors))
	}
}
