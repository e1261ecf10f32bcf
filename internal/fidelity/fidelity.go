// Package fidelity measures how far a processed buffer drifted in colour
// from its reference.
package fidelity

import (
	"errors"
	"image"
	"math"

	"github.com/lucasb-eyer/go-colorful"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// maxSamples bounds the number of pixels compared per image.
const maxSamples = 1 << 16

// Pixels below these are too grey or too dark to have a meaningful hue.
const (
	minSaturation = 0.15
	minValue      = 0.05
)

var ErrSizeMismatch = errors.New("fidelity: buffers differ in size")

// Report summarises colour drift. DeltaE values are CIE76 distances in Lab
// scaled to the usual 0-100 range; HueShift is in degrees.
type Report struct {
	Samples      int
	MeanDeltaE   float64
	MaxDeltaE    float64
	StdDevDeltaE float64
	HueSamples   int
	MeanHueShift float64
	MaxHueShift  float64
}

// Measure compares ref and got pixel by pixel on a fixed grid.
func Measure(ref, got *image.NRGBA) (Report, error) {
	rb, gb := ref.Bounds(), got.Bounds()
	if rb.Dx() != gb.Dx() || rb.Dy() != gb.Dy() {
		return Report{}, ErrSizeMismatch
	}

	total := rb.Dx() * rb.Dy()
	if total == 0 {
		return Report{}, nil
	}
	step := 1
	if total > maxSamples {
		step = int(math.Ceil(float64(total) / maxSamples))
	}

	deltas := make([]float64, 0, total/step+1)
	var hues []float64
	for i := 0; i < total; i += step {
		x, y := i%rb.Dx(), i/rb.Dx()
		a := toColor(ref, x, y)
		b := toColor(got, x, y)

		deltas = append(deltas, a.DistanceLab(b)*100)

		ha, sa, va := a.Hsv()
		hb, sb, vb := b.Hsv()
		if sa >= minSaturation && sb >= minSaturation && va >= minValue && vb >= minValue {
			hues = append(hues, hueDistance(ha, hb))
		}
	}

	r := Report{Samples: len(deltas), HueSamples: len(hues)}
	r.MeanDeltaE, r.StdDevDeltaE = stat.MeanStdDev(deltas, nil)
	r.MaxDeltaE = floats.Max(deltas)
	if len(deltas) < 2 {
		r.StdDevDeltaE = 0
	}
	if len(hues) > 0 {
		r.MeanHueShift = stat.Mean(hues, nil)
		r.MaxHueShift = floats.Max(hues)
	}
	return r, nil
}

func toColor(img *image.NRGBA, x, y int) colorful.Color {
	p := img.Pix[y*img.Stride+x*4:]
	return colorful.Color{
		R: float64(p[0]) / 255,
		G: float64(p[1]) / 255,
		B: float64(p[2]) / 255,
	}
}

func hueDistance(a, b float64) float64 {
	d := math.Abs(a - b)
	if d > 180 {
		d = 360 - d
	}
	return d
}
