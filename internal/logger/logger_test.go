package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func resetLogger() {
	Init(Options{})
}

func TestInit_DefaultLevel(t *testing.T) {
	buf := &bytes.Buffer{}
	Init(Options{Output: buf})
	defer resetLogger()

	Info("info line")
	if !strings.Contains(buf.String(), "info line") {
		t.Error("info should be logged at the default level")
	}

	buf.Reset()
	Debug("debug line")
	if strings.Contains(buf.String(), "debug line") {
		t.Error("debug should not be logged at the default level")
	}
}

func TestInit_Debug(t *testing.T) {
	buf := &bytes.Buffer{}
	Init(Options{Debug: true, Output: buf})
	defer resetLogger()

	Debug("debug line")
	if !strings.Contains(buf.String(), "debug line") {
		t.Error("debug should be logged when Debug is set")
	}
}

func TestInit_Quiet(t *testing.T) {
	buf := &bytes.Buffer{}
	Init(Options{Quiet: true, Output: buf})
	defer resetLogger()

	Info("info line")
	Warn("warn line")
	if buf.Len() != 0 {
		t.Errorf("quiet mode should drop info and warn, got %q", buf.String())
	}

	Error("error line")
	if !strings.Contains(buf.String(), "error line") {
		t.Error("errors should survive quiet mode")
	}
}

func TestInit_JSON(t *testing.T) {
	buf := &bytes.Buffer{}
	Init(Options{JSON: true, Output: buf})
	defer resetLogger()

	Info("json line", "key", "value")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("JSON mode must produce valid JSON: %v", err)
	}
	if entry["msg"] != "json line" || entry["key"] != "value" {
		t.Errorf("entry: got %v", entry)
	}
}

func TestSetLogger(t *testing.T) {
	buf := &bytes.Buffer{}
	SetLogger(slog.New(slog.NewTextHandler(buf, nil)))
	defer resetLogger()

	Info("custom logger line")
	if !strings.Contains(buf.String(), "custom logger line") {
		t.Error("SetLogger should replace the default logger")
	}
}

func TestWith(t *testing.T) {
	buf := &bytes.Buffer{}
	Init(Options{Output: buf})
	defer resetLogger()

	With("component", "test").Info("with line")
	out := buf.String()
	if !strings.Contains(out, "with line") || !strings.Contains(out, "component=test") {
		t.Errorf("With should carry attributes, got %q", out)
	}
}
