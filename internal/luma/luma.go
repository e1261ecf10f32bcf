// Package luma adjusts image brightness through a per-pixel luminance map.
// Changes are applied by scaling R, G and B together, so the ratio between
// channels (and with it hue and saturation) survives up to 8-bit rounding.
package luma

import (
	"image"
	"math"
)

// BT.601 luma weights.
const (
	weightR = 0.299
	weightG = 0.587
	weightB = 0.114
)

// nearBlack is the luminance below which Apply shifts channels instead of
// scaling them.
const nearBlack = 0.001

// Map holds one luminance value per pixel, row-major.
type Map struct {
	Width  int
	Height int
	Values []float64
}

func NewMap(width, height int) *Map {
	return &Map{Width: width, Height: height, Values: make([]float64, width*height)}
}

func (m *Map) At(x, y int) float64 {
	return m.Values[y*m.Width+x]
}

func (m *Map) clone() *Map {
	out := &Map{Width: m.Width, Height: m.Height, Values: make([]float64, len(m.Values))}
	copy(out.Values, m.Values)
	return out
}

// Extract computes the luminance of every pixel. Alpha is ignored.
func Extract(img *image.NRGBA) *Map {
	b := img.Bounds()
	m := NewMap(b.Dx(), b.Dy())
	for y := 0; y < m.Height; y++ {
		row := img.Pix[y*img.Stride:]
		for x := 0; x < m.Width; x++ {
			p := row[x*4 : x*4+3]
			m.Values[y*m.Width+x] = weightR*float64(p[0]) + weightG*float64(p[1]) + weightB*float64(p[2])
		}
	}
	return m
}

// Apply rewrites the RGB channels of img so its luminance moves from oldMap
// to newMap. Alpha is left alone.
func Apply(img *image.NRGBA, oldMap, newMap *Map) {
	for y := 0; y < oldMap.Height; y++ {
		row := img.Pix[y*img.Stride:]
		for x := 0; x < oldMap.Width; x++ {
			i := y*oldMap.Width + x
			before, after := oldMap.Values[i], newMap.Values[i]
			p := row[x*4 : x*4+3]

			if before < nearBlack {
				delta := after - before
				for c := range p {
					p[c] = clampByte(float64(p[c]) + delta)
				}
				continue
			}

			scale := after / before
			for c := range p {
				p[c] = clampByte(float64(p[c]) * scale)
			}
		}
	}
}

func clampByte(v float64) uint8 {
	v = math.Round(v)
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
