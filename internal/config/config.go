// Package config holds conversion defaults and the optional TOML settings
// file. Command-line flags are layered on top by the cmd package.
package config

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	"framepress/internal/convert"
	"framepress/internal/raster"
	"framepress/internal/sequence"
)

type ResizeConfig struct {
	Mode       string  `toml:"mode"`
	Percentage float64 `toml:"percentage"`
	Width      int     `toml:"width"`
	Height     int     `toml:"height"`
}

// Config is the merged runtime configuration for a convert run.
type Config struct {
	Format   string       `toml:"format"`   // webp | jpeg | png
	Filter   string       `toml:"filter"`   // lanczos | catmullrom
	Preset   string       `toml:"preset"`   // applied before the explicit fields below
	Quality  *int         `toml:"quality"`  // nil keeps the preset's value
	Lossless *bool        `toml:"lossless"` // nil keeps the preset's value
	Sharpen  *int         `toml:"sharpen"`
	Denoise  *int         `toml:"denoise"`
	Resize   ResizeConfig `toml:"resize"`

	Workers      int  `toml:"workers"`       // 0 means one per CPU
	GapThreshold int  `toml:"gap_threshold"` // default 5
	Zip          bool `toml:"zip"`
	Fidelity     bool `toml:"fidelity"`
}

func Default() Config {
	return Config{
		Format:       string(raster.FormatWebP),
		Filter:       string(raster.FilterLanczos),
		Preset:       string(convert.PresetCustom),
		Resize:       ResizeConfig{Mode: string(convert.ResizePercentage), Percentage: 100},
		GapThreshold: sequence.DefaultGapThreshold,
	}
}

// Load reads path over the defaults. Keys the file sets but Config does not
// know are reported as an error.
func Load(path string) (Config, error) {
	cfg := Default()
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		sort.Strings(keys)
		return cfg, fmt.Errorf("config %s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	return cfg, nil
}

// Settings builds conversion settings: defaults, then the preset, then any
// explicitly set field.
func (c Config) Settings() (convert.Settings, error) {
	s := convert.DefaultSettings()
	s.Resize = convert.Resize{
		Mode:       convert.ResizeMode(strings.ToLower(c.Resize.Mode)),
		Percentage: c.Resize.Percentage,
		Width:      c.Resize.Width,
		Height:     c.Resize.Height,
	}

	preset := convert.Preset(strings.ToLower(c.Preset))
	if preset == "" {
		preset = convert.PresetCustom
	}
	s, err := s.ApplyPreset(preset)
	if err != nil {
		return s, err
	}

	if c.Quality != nil {
		s.Quality = *c.Quality
	}
	if c.Lossless != nil {
		s.Lossless = *c.Lossless
	}
	if c.Sharpen != nil {
		s.Sharpen = *c.Sharpen
	}
	if c.Denoise != nil {
		s.Denoise = *c.Denoise
	}
	return s, s.Validate()
}

// Validate checks everything Settings does plus the run-level fields.
func (c Config) Validate() error {
	var errs []error
	if _, err := raster.ParseFormat(c.Format); err != nil {
		errs = append(errs, err)
	}
	if _, err := raster.ParseFilter(c.Filter); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.Settings(); err != nil {
		errs = append(errs, err)
	}
	if c.Workers < 0 {
		errs = append(errs, fmt.Errorf("workers must not be negative, got %d", c.Workers))
	}
	if c.GapThreshold < 1 {
		errs = append(errs, fmt.Errorf("gap_threshold must be at least 1, got %d", c.GapThreshold))
	}
	return errors.Join(errs...)
}
