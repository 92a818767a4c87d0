package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/suykerbuyk/sweep-vault/internal/config"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zapcore.Level
	}{
		{"", zapcore.InfoLevel},
		{"debug", zapcore.DebugLevel},
		{"INFO", zapcore.InfoLevel},
		{"warning", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if err != nil || got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, %v, want %v", tt.in, got, err, tt.want)
		}
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Error("ParseLevel(loud) should fail")
	}
}

func TestJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	log, err := NewWithSink(config.LogConfig{Level: "info", Format: "json"}, zapcore.AddSync(&buf))
	if err != nil {
		t.Fatal(err)
	}
	log.Info("unpacked", zap.String("recording", "2024-03-01/cell3"), zap.Int("sweeps", 12))
	log.Debug("hidden")
	log.Sync()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("got %d lines, want 1:\n%s", len(lines), buf.String())
	}
	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("not JSON: %v", err)
	}
	if entry["msg"] != "unpacked" {
		t.Errorf("msg = %v", entry["msg"])
	}
	if entry["level"] != "info" {
		t.Errorf("level = %v", entry["level"])
	}
	if entry["recording"] != "2024-03-01/cell3" {
		t.Errorf("recording = %v", entry["recording"])
	}
	if entry["sweeps"] != float64(12) {
		t.Errorf("sweeps = %v", entry["sweeps"])
	}
}

func TestConsoleFormat(t *testing.T) {
	var buf bytes.Buffer
	log, err := NewWithSink(config.LogConfig{Level: "debug"}, zapcore.AddSync(&buf))
	if err != nil {
		t.Fatal(err)
	}
	log.Debug("rendering", zap.String("key", "a/b/c"))
	log.Sync()

	out := buf.String()
	if !strings.Contains(out, "DEBUG") || !strings.Contains(out, "rendering") {
		t.Errorf("console output = %q", out)
	}
}

func TestBadFormat(t *testing.T) {
	if _, err := NewWithSink(config.LogConfig{Format: "xml"}, zapcore.AddSync(&bytes.Buffer{})); err == nil {
		t.Error("xml format should fail")
	}
}
