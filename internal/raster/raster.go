// Package raster decodes source images into NRGBA pixel buffers, resamples
// them, and encodes them to the output formats.
package raster

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnsupported is returned when source bytes are not a decodable image.
	ErrUnsupported = errors.New("raster: unsupported or corrupt image")

	// ErrContextUnavailable is returned when a pixel surface of the requested
	// size cannot be allocated.
	ErrContextUnavailable = errors.New("raster: pixel surface unavailable")

	// ErrNoEncoder is returned for an output format with no encoder.
	ErrNoEncoder = errors.New("raster: no encoder for format")

	// ErrNoOutput is returned when an encoder finished without writing bytes.
	ErrNoOutput = errors.New("raster: encoder produced no output")
)

// MaxPixels caps the area of any buffer the codec will allocate.
const MaxPixels = 1 << 28

type Format string

const (
	FormatWebP Format = "webp"
	FormatJPEG Format = "jpeg"
	FormatPNG  Format = "png"
)

func (f Format) Extension() string {
	switch f {
	case FormatJPEG:
		return ".jpg"
	case FormatPNG:
		return ".png"
	default:
		return ".webp"
	}
}

func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "webp", "":
		return FormatWebP, nil
	case "jpeg", "jpg":
		return FormatJPEG, nil
	case "png":
		return FormatPNG, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrNoEncoder, s)
	}
}

// Filter selects the resampling kernel.
type Filter string

const (
	FilterLanczos    Filter = "lanczos"
	FilterCatmullRom Filter = "catmullrom"
)

func ParseFilter(s string) (Filter, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "lanczos", "":
		return FilterLanczos, nil
	case "catmullrom", "catmull-rom", "bicubic":
		return FilterCatmullRom, nil
	default:
		return "", fmt.Errorf("unknown resample filter %q", s)
	}
}

// Codec is the library-backed rasterizer. The zero value resamples with
// Lanczos.
type Codec struct {
	Filter Filter
}

func New(filter Filter) *Codec {
	return &Codec{Filter: filter}
}

func checkSurface(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrContextUnavailable, width, height)
	}
	if int64(width)*int64(height) > MaxPixels {
		return fmt.Errorf("%w: %dx%d exceeds %d pixels", ErrContextUnavailable, width, height, MaxPixels)
	}
	return nil
}
