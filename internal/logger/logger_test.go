package logger

import (
	"bytes"
	"encoding/json"
	"testing"
)

func TestNewLevels(t *testing.T) {
	var buf bytes.Buffer
	log := newWithWriter(&buf, "production", "info")
	log.Debug("hidden")
	log.Info("priced", "total", "125.25")

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	if len(lines) != 1 {
		t.Fatalf("expected 1 log line, got %d: %s", len(lines), buf.String())
	}
	var entry map[string]any
	if err := json.Unmarshal(lines[0], &entry); err != nil {
		t.Fatalf("log line is not json: %v", err)
	}
	if entry["msg"] != "priced" || entry["total"] != "125.25" {
		t.Fatalf("unexpected entry: %v", entry)
	}

	buf.Reset()
	newWithWriter(&buf, "dev", "").Debug("shown")
	if buf.Len() == 0 {
		t.Fatalf("expected debug output in dev")
	}
}
