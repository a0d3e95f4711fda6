package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"strings"
	"testing"
)

func reset() {
	SetVerbose(false)
	SetJSON(false)
	SetOutput(os.Stderr)
}

func TestSetVerbose(t *testing.T) {
	defer reset()

	SetVerbose(false)
	if IsVerbose() {
		t.Error("expected verbose to be false initially")
	}

	SetVerbose(true)
	if !IsVerbose() {
		t.Error("expected verbose to be true after SetVerbose(true)")
	}

	SetVerbose(false)
	if IsVerbose() {
		t.Error("expected verbose to be false after SetVerbose(false)")
	}
}

func TestLevels_WhenVerbose(t *testing.T) {
	tests := []struct {
		name   string
		log    func()
		prefix string
		text   string
	}{
		{"debug", func() { Debug("test message %s", "arg") }, "[DEBUG]", "test message arg"},
		{"info", func() { Info("indexed %d chunks", 3) }, "[INFO]", "indexed 3 chunks"},
		{"warn", func() { Warn("skipping %s", "a.png") }, "[WARN]", "skipping a.png"},
		{"section", func() { Section("Retrieval") }, "[INFO]", "=== Retrieval ==="},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer reset()

			var buf bytes.Buffer
			SetOutput(&buf)
			SetVerbose(true)

			tt.log()

			out := buf.String()
			if !strings.HasPrefix(out, tt.prefix) {
				t.Errorf("expected prefix %q, got %q", tt.prefix, out)
			}
			if !strings.Contains(out, tt.text) {
				t.Errorf("expected %q in output, got %q", tt.text, out)
			}
		})
	}
}

func TestQuiet_WhenNotVerbose(t *testing.T) {
	defer reset()

	var buf bytes.Buffer
	SetOutput(&buf)
	SetVerbose(false)

	Debug("test message")
	Info("test message")
	Warn("test message")
	Error(errors.New("boom"), "test message")
	Section("Test")

	if buf.Len() > 0 {
		t.Errorf("expected no output when verbose is disabled, got %q", buf.String())
	}
}

func TestJSONOutput(t *testing.T) {
	defer reset()

	var buf bytes.Buffer
	SetOutput(&buf)
	SetVerbose(true)
	SetJSON(true)

	Error(errors.New("boom"), "generation failed for %s", "q1")

	var event map[string]any
	if err := json.Unmarshal(buf.Bytes(), &event); err != nil {
		t.Fatalf("expected JSON line, got %q: %v", buf.String(), err)
	}
	if event["level"] != "error" {
		t.Errorf("unexpected level: %v", event["level"])
	}
	if event["message"] != "generation failed for q1" {
		t.Errorf("unexpected message: %v", event["message"])
	}
	if event["error"] != "boom" {
		t.Errorf("unexpected error field: %v", event["error"])
	}
	if _, ok := event["time"]; !ok {
		t.Error("expected timestamp field")
	}
}

func TestStructuredFields(t *testing.T) {
	defer reset()

	var buf bytes.Buffer
	SetOutput(&buf)
	SetVerbose(true)

	L().Debug().Int("hits", 4).Msg("retrieval")

	out := buf.String()
	if !strings.Contains(out, "retrieval") || !strings.Contains(out, "hits=4") {
		t.Errorf("unexpected output: %q", out)
	}
}
