package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestNew_JSONWhenNotTerminal(t *testing.T) {
	var buf bytes.Buffer
	log := New(Options{Out: &buf})

	log.Info().Str("file", "a.mp3").Msg("moved")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected JSON line, got %q: %v", buf.String(), err)
	}
	if entry["file"] != "a.mp3" || entry["message"] != "moved" || entry["level"] != "info" {
		t.Errorf("unexpected entry: %v", entry)
	}
	if _, ok := entry["time"]; !ok {
		t.Error("missing timestamp")
	}
}

func TestNew_Level(t *testing.T) {
	var buf bytes.Buffer
	quiet := New(Options{Out: &buf})
	quiet.Debug().Msg("hidden")
	if buf.Len() != 0 {
		t.Errorf("debug should be suppressed, got %q", buf.String())
	}

	verbose := New(Options{Out: &buf, Verbose: true})
	verbose.Debug().Msg("shown")
	if !strings.Contains(buf.String(), "shown") {
		t.Errorf("verbose should log debug, got %q", buf.String())
	}
}
