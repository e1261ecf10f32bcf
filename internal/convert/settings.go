package convert

import (
	"errors"
	"fmt"
	"math"
)

// ResizeMode selects how target dimensions are derived.
type ResizeMode string

const (
	ResizePercentage ResizeMode = "percentage" // Scale both axes by Percentage.
	ResizeWidth      ResizeMode = "width"      // Fix the width, keep aspect.
	ResizeHeight     ResizeMode = "height"     // Fix the height, keep aspect.
	ResizeExact      ResizeMode = "exact"      // Fix both; aspect may change.
)

type Resize struct {
	Mode       ResizeMode
	Percentage float64
	Width      int
	Height     int
}

// Settings is the per-call conversion configuration. It is passed by value
// and never modified by the pipeline.
type Settings struct {
	Quality  int // 0-100; ignored when Lossless.
	Resize   Resize
	Lossless bool
	Sharpen  int // 0-100.
	Denoise  int // 0-100.
	Preset   Preset
}

// DefaultSettings keeps the source size and encodes at quality 85.
func DefaultSettings() Settings {
	return Settings{
		Quality: 85,
		Resize:  Resize{Mode: ResizePercentage, Percentage: 100},
		Preset:  PresetCustom,
	}
}

// Validate checks value ranges.
func (s Settings) Validate() error {
	var errs []error
	if s.Quality < 0 || s.Quality > 100 {
		errs = append(errs, fmt.Errorf("quality %d out of range 0-100", s.Quality))
	}
	if s.Sharpen < 0 || s.Sharpen > 100 {
		errs = append(errs, fmt.Errorf("sharpen %d out of range 0-100", s.Sharpen))
	}
	if s.Denoise < 0 || s.Denoise > 100 {
		errs = append(errs, fmt.Errorf("denoise %d out of range 0-100", s.Denoise))
	}
	if _, ok := presets[s.Preset]; !ok && s.Preset != "" {
		errs = append(errs, fmt.Errorf("unknown preset %q", s.Preset))
	}

	r := s.Resize
	switch r.Mode {
	case ResizePercentage:
		if r.Percentage <= 0 || math.IsNaN(r.Percentage) || math.IsInf(r.Percentage, 0) {
			errs = append(errs, fmt.Errorf("resize percentage must be positive, got %v", r.Percentage))
		}
	case ResizeWidth:
		if r.Width <= 0 {
			errs = append(errs, fmt.Errorf("resize width must be positive, got %d", r.Width))
		}
	case ResizeHeight:
		if r.Height <= 0 {
			errs = append(errs, fmt.Errorf("resize height must be positive, got %d", r.Height))
		}
	case ResizeExact:
		if r.Width <= 0 || r.Height <= 0 {
			errs = append(errs, fmt.Errorf("exact resize needs positive width and height, got %dx%d", r.Width, r.Height))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown resize mode %q", r.Mode))
	}
	return errors.Join(errs...)
}

// EncodeQuality is the 0-1 quality handed to the encoder. Lossless always
// maps to 1.
func (s Settings) EncodeQuality() float64 {
	if s.Lossless {
		return 1
	}
	return float64(s.Quality) / 100
}

// NeedsLuma reports whether the luminance stage has any work to do.
func (s Settings) NeedsLuma() bool {
	return s.Denoise > 0 || s.Sharpen > 0
}

// TargetSize returns the output dimensions for a source of the given size.
// The result may be zero or negative for degenerate input; the rasterizer
// rejects those.
func (r Resize) TargetSize(width, height int) (int, int) {
	switch r.Mode {
	case ResizePercentage:
		return roundInt(float64(width) * r.Percentage / 100), roundInt(float64(height) * r.Percentage / 100)
	case ResizeWidth:
		if width == 0 {
			return r.Width, 0
		}
		return r.Width, roundInt(float64(height) * float64(r.Width) / float64(width))
	case ResizeHeight:
		if height == 0 {
			return 0, r.Height
		}
		return roundInt(float64(width) * float64(r.Height) / float64(height)), r.Height
	case ResizeExact:
		return r.Width, r.Height
	default:
		return width, height
	}
}

func roundInt(v float64) int {
	return int(math.Round(v))
}
