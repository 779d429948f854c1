package log

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	if New(Config{}) == nil {
		t.Fatal("New() returned nil")
	}
}

func TestNewWithWriterText(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, Config{Level: slog.LevelDebug})

	logger.Info("fact stored", "lineage_id", 7)

	out := buf.String()
	if !strings.Contains(out, "fact stored") {
		t.Errorf("output missing message: %s", out)
	}
	if !strings.Contains(out, "lineage_id=7") {
		t.Errorf("output missing attribute: %s", out)
	}
}

func TestNewWithWriterJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, Config{Level: slog.LevelInfo, JSON: true})

	logger.Info("search complete", "results", 3)

	if out := buf.String(); !strings.Contains(out, `"msg":"search complete"`) {
		t.Errorf("expected JSON msg field, got: %s", out)
	}
}

func TestNewNop(t *testing.T) {
	logger := NewNop()
	if logger == nil {
		t.Fatal("NewNop() returned nil")
	}
	logger.Info("discarded")
	logger.Error("also discarded")
}

func TestWithComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, Config{Level: slog.LevelInfo})

	logger.With("component", "store").Info("supersede committed")

	if out := buf.String(); !strings.Contains(out, "component=store") {
		t.Errorf("output missing component attribute: %s", out)
	}
}

func TestLevelFiltering(t *testing.T) {
	tests := []struct {
		name      string
		level     slog.Level
		wantDebug bool
	}{
		{"debug level passes debug", slog.LevelDebug, true},
		{"info level drops debug", slog.LevelInfo, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := NewWithWriter(&buf, Config{Level: tt.level})

			logger.Debug("debug line")
			logger.Info("info line")

			out := buf.String()
			if got := strings.Contains(out, "debug line"); got != tt.wantDebug {
				t.Errorf("debug emitted = %v, want %v", got, tt.wantDebug)
			}
			if !strings.Contains(out, "info line") {
				t.Error("info line missing")
			}
		})
	}
}

func TestLevelNames(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, Config{Level: slog.LevelDebug})

	logger.Debug("a")
	logger.Info("b")
	logger.Warn("c")
	logger.Error("d")

	out := buf.String()
	for _, level := range []string{"DEBUG", "INFO", "WARN", "ERROR"} {
		if !strings.Contains(out, level) {
			t.Errorf("output missing %s level", level)
		}
	}
}
