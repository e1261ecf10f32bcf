package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"framepress/internal/convert"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "framepress.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("Default().Validate() = %v", err)
	}
	s, err := Default().Settings()
	if err != nil {
		t.Fatalf("Settings: %v", err)
	}
	if s != convert.DefaultSettings() {
		t.Fatalf("Settings() = %+v, want defaults", s)
	}
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
format = "webp"
preset = "web"
sharpen = 35
gap_threshold = 8
zip = true

[resize]
mode = "width"
width = 1280
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if cfg.GapThreshold != 8 || !cfg.Zip {
		t.Fatalf("cfg = %+v", cfg)
	}

	s, err := cfg.Settings()
	if err != nil {
		t.Fatalf("Settings: %v", err)
	}
	if s.Preset != convert.PresetWeb || s.Quality != 80 {
		t.Errorf("preset values not applied: %+v", s)
	}
	if s.Sharpen != 35 {
		t.Errorf("explicit sharpen lost: %d", s.Sharpen)
	}
	if s.Resize != (convert.Resize{Mode: convert.ResizeWidth, Width: 1280, Percentage: 100}) {
		t.Errorf("resize = %+v", s.Resize)
	}
}

func TestLoadUnknownKey(t *testing.T) {
	path := writeConfig(t, "qualty = 50\n")
	_, err := Load(path)
	if err == nil || !strings.Contains(err.Error(), "qualty") {
		t.Fatalf("err = %v, want unknown key error", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"bad format", func(c *Config) { c.Format = "avif" }, true},
		{"bad filter", func(c *Config) { c.Filter = "nearest" }, true},
		{"bad preset", func(c *Config) { c.Preset = "cinema" }, true},
		{"negative workers", func(c *Config) { c.Workers = -2 }, true},
		{"zero gap", func(c *Config) { c.GapThreshold = 0 }, true},
		{"quality out of range", func(c *Config) { q := 150; c.Quality = &q }, true},
		{"lossless archive", func(c *Config) { c.Preset = "archive" }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
