package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    zerolog.Level
		wantErr bool
	}{
		{"", zerolog.WarnLevel, false},
		{"debug", zerolog.DebugLevel, false},
		{" INFO ", zerolog.InfoLevel, false},
		{"loud", zerolog.NoLevel, true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestJSONOutput(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, zerolog.InfoLevel, true)
	log.Debug().Msg("hidden")
	log.Info().Str("image", "a.png").Msg("converted")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("got %d lines, want 1: %q", len(lines), buf.String())
	}
	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if entry["image"] != "a.png" || entry["message"] != "converted" {
		t.Fatalf("entry = %v", entry)
	}
}

func TestFileSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "framepress.log")
	log, closeLog, err := New(Options{Level: "info", File: path})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	log.Info().Msg("hello")
	if err := closeLog(); err != nil {
		t.Fatalf("close: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(string(data), "hello") {
		t.Fatalf("log file missing message: %q", data)
	}
}
