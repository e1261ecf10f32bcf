package raster

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"math"

	"github.com/kolesa-team/go-webp/encoder"
	"github.com/kolesa-team/go-webp/webp"
)

// losslessLevel trades encode time for size; 6 is libwebp's default.
const losslessLevel = 6

// Encode compresses img to format. quality runs from 0 to 1; for WebP a
// quality of 1 selects the lossless encoder.
func (c *Codec) Encode(ctx context.Context, img *image.NRGBA, format Format, quality float64) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	quality = math.Max(0, math.Min(1, quality))

	var buf bytes.Buffer
	var err error
	switch format {
	case FormatWebP:
		err = encodeWebP(&buf, img, quality)
	case FormatJPEG:
		q := int(math.Round(quality * 100))
		if q < 1 {
			q = 1
		}
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: q})
	case FormatPNG:
		enc := png.Encoder{CompressionLevel: png.BestCompression}
		err = enc.Encode(&buf, img)
	default:
		return nil, fmt.Errorf("%w: %q", ErrNoEncoder, format)
	}
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", format, err)
	}
	if buf.Len() == 0 {
		return nil, ErrNoOutput
	}
	return buf.Bytes(), nil
}

func encodeWebP(buf *bytes.Buffer, img *image.NRGBA, quality float64) error {
	var (
		opts *encoder.Options
		err  error
	)
	if quality >= 1 {
		opts, err = encoder.NewLosslessEncoderOptions(encoder.PresetDefault, losslessLevel)
	} else {
		opts, err = encoder.NewLossyEncoderOptions(encoder.PresetDefault, float32(quality*100))
	}
	if err != nil {
		return err
	}
	return webp.Encode(buf, img, opts)
}
