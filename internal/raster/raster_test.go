package raster

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"
)

func samplePNG(t *testing.T, w, h int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 10), G: uint8(y * 10), B: 90, A: 0xff})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func TestDecodePNG(t *testing.T) {
	c := New(FilterLanczos)
	img, err := c.Decode(context.Background(), samplePNG(t, 12, 7))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 12 || b.Dy() != 7 || b.Min != (image.Point{}) {
		t.Fatalf("bounds = %v, want 12x7 at origin", b)
	}
	if got := img.NRGBAAt(3, 2); got != (color.NRGBA{R: 30, G: 20, B: 90, A: 0xff}) {
		t.Fatalf("pixel = %+v", got)
	}
}

func TestDecodeCorrupt(t *testing.T) {
	c := New(FilterLanczos)
	_, err := c.Decode(context.Background(), []byte("definitely not an image"))
	if !errors.Is(err, ErrUnsupported) {
		t.Fatalf("err = %v, want ErrUnsupported", err)
	}
}

func TestDecodeCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := New("").Decode(ctx, samplePNG(t, 2, 2)); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestResample(t *testing.T) {
	for _, filter := range []Filter{FilterLanczos, FilterCatmullRom} {
		t.Run(string(filter), func(t *testing.T) {
			c := New(filter)
			src := image.NewNRGBA(image.Rect(0, 0, 200, 100))
			dst, err := c.Resample(src, 100, 50)
			if err != nil {
				t.Fatalf("resample: %v", err)
			}
			if b := dst.Bounds(); b.Dx() != 100 || b.Dy() != 50 {
				t.Fatalf("bounds = %v, want 100x50", b)
			}
			if src.Bounds().Dx() != 200 {
				t.Fatalf("source was modified")
			}
		})
	}
}

func TestResampleRejectsEmptySurface(t *testing.T) {
	c := New(FilterLanczos)
	src := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	for _, size := range [][2]int{{0, 4}, {4, -1}, {1 << 15, 1 << 14}} {
		if _, err := c.Resample(src, size[0], size[1]); !errors.Is(err, ErrContextUnavailable) {
			t.Errorf("Resample(%v) err = %v, want ErrContextUnavailable", size, err)
		}
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	c := New(FilterLanczos)
	src, err := c.Decode(context.Background(), samplePNG(t, 16, 16))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	for _, format := range []Format{FormatPNG, FormatJPEG} {
		t.Run(string(format), func(t *testing.T) {
			data, err := c.Encode(context.Background(), src, format, 0.8)
			if err != nil {
				t.Fatalf("encode: %v", err)
			}
			back, err := c.Decode(context.Background(), data)
			if err != nil {
				t.Fatalf("decode output: %v", err)
			}
			if back.Bounds() != src.Bounds() {
				t.Fatalf("bounds = %v, want %v", back.Bounds(), src.Bounds())
			}
		})
	}
}

func TestEncodeUnknownFormat(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 1, 1))
	_, err := New("").Encode(context.Background(), src, Format("avif"), 0.5)
	if !errors.Is(err, ErrNoEncoder) {
		t.Fatalf("err = %v, want ErrNoEncoder", err)
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantExt string
		wantErr bool
	}{
		{"webp", FormatWebP, ".webp", false},
		{"", FormatWebP, ".webp", false},
		{"JPG", FormatJPEG, ".jpg", false},
		{"png", FormatPNG, ".png", false},
		{"heic", "", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseFormat(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if tt.wantErr {
			continue
		}
		if got != tt.want || got.Extension() != tt.wantExt {
			t.Errorf("ParseFormat(%q) = %q (%q), want %q (%q)", tt.in, got, got.Extension(), tt.want, tt.wantExt)
		}
	}
}
