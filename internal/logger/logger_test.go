package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestInitLevel(t *testing.T) {
	tests := []struct {
		level string
		want  zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"WARN", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"invalid", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
	}
	for _, tt := range tests {
		InitWriter(&bytes.Buffer{}, tt.level, "json")
		if Level() != tt.want {
			t.Errorf("Init(%q): level = %s, want %s", tt.level, Level(), tt.want)
		}
	}
}

func TestJSONOutput(t *testing.T) {
	var buf bytes.Buffer
	InitWriter(&buf, "info", "json")

	Debug("hidden %d", 1)
	Info("fetched %d rates", 3)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("got %d lines, want 1: %q", len(lines), buf.String())
	}
	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if entry["level"] != "info" || entry["message"] != "fetched 3 rates" {
		t.Errorf("entry = %v", entry)
	}
}

func TestTextOutput(t *testing.T) {
	var buf bytes.Buffer
	InitWriter(&buf, "debug", "text")
	Warn("slow cycle")
	if !strings.Contains(buf.String(), "slow cycle") {
		t.Errorf("console output %q missing message", buf.String())
	}
}

type countingStringer struct{ calls int }

func (c *countingStringer) String() string {
	c.calls++
	return "formatted"
}

func TestDisabledLevelSkipsFormatting(t *testing.T) {
	var buf bytes.Buffer
	InitWriter(&buf, "warn", "json")

	arg := &countingStringer{}
	Debug("cycle %s", arg)
	Info("cycle %s", arg)
	if arg.calls != 0 || buf.Len() != 0 {
		t.Errorf("disabled levels formatted %d times, wrote %q", arg.calls, buf.String())
	}

	Warn("cycle %s", arg)
	if arg.calls != 1 || !strings.Contains(buf.String(), "cycle formatted") {
		t.Errorf("enabled level: calls = %d, output %q", arg.calls, buf.String())
	}
}
