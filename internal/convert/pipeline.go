// Package convert turns one source image into encoded output bytes:
// decode, resize, optional luminance filtering, encode.
package convert

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"time"

	"github.com/rs/zerolog"

	"framepress/internal/fidelity"
	"framepress/internal/luma"
	"framepress/internal/raster"
	"framepress/internal/sequence"
)

// Rasterizer decodes, resamples and encodes pixel buffers. *raster.Codec
// is the production implementation.
type Rasterizer interface {
	Decode(ctx context.Context, data []byte) (*image.NRGBA, error)
	Resample(src *image.NRGBA, width, height int) (*image.NRGBA, error)
	Encode(ctx context.Context, img *image.NRGBA, format raster.Format, quality float64) ([]byte, error)
}

// Source is anything Convert can read image bytes from.
type Source interface {
	Open() (io.ReadCloser, error)
}

type Result struct {
	Data   []byte
	Size   int64
	Width  int
	Height int

	// Fidelity is set when measuring is enabled and the luminance stage ran.
	Fidelity *fidelity.Report
}

type Pipeline struct {
	Raster  Rasterizer
	Format  raster.Format
	Measure bool
	Log     zerolog.Logger
}

func New(r Rasterizer, format raster.Format, log zerolog.Logger) *Pipeline {
	return &Pipeline{Raster: r, Format: format, Log: log}
}

// Convert runs the full pipeline for img. Every buffer it allocates is
// local to the call, so concurrent calls share nothing.
func (p *Pipeline) Convert(ctx context.Context, img *sequence.Image, s Settings) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, &Error{Kind: KindCanceled, Name: img.Name, Err: err}
	}
	data, err := readAll(img)
	if err != nil {
		return Result{}, &Error{Kind: KindDecode, Name: img.Name, Err: err}
	}
	return p.ConvertData(ctx, img.Name, data, s)
}

// ConvertData is Convert for source bytes the caller already holds.
func (p *Pipeline) ConvertData(ctx context.Context, name string, data []byte, s Settings) (Result, error) {
	log := p.Log.With().Str("component", "convert").Str("image", name).Logger()
	started := time.Now()

	buf, err := p.Raster.Decode(ctx, data)
	if err != nil {
		return Result{}, classify(name, KindDecode, err)
	}
	natW, natH := buf.Bounds().Dx(), buf.Bounds().Dy()
	log.Debug().Int("width", natW).Int("height", natH).Dur("took", time.Since(started)).Msg("decoded")

	targetW, targetH := s.Resize.TargetSize(natW, natH)
	if targetW != natW || targetH != natH {
		if targetW <= 0 || targetH <= 0 {
			return Result{}, &Error{
				Kind: KindContextUnavailable,
				Name: name,
				Err:  fmt.Errorf("%w: target %dx%d", raster.ErrContextUnavailable, targetW, targetH),
			}
		}
		buf, err = p.Raster.Resample(buf, targetW, targetH)
		if err != nil {
			return Result{}, classify(name, KindContextUnavailable, err)
		}
		log.Debug().Int("width", targetW).Int("height", targetH).Msg("resampled")
	}

	var report *fidelity.Report
	if s.NeedsLuma() {
		var ref *image.NRGBA
		if p.Measure {
			ref = cloneNRGBA(buf)
		}
		processLuma(buf, s)
		if ref != nil {
			r, err := fidelity.Measure(ref, buf)
			if err == nil {
				report = &r
			}
		}
	}

	out, err := p.Raster.Encode(ctx, buf, p.Format, s.EncodeQuality())
	if err != nil {
		return Result{}, classify(name, KindEncode, err)
	}
	if len(out) == 0 {
		return Result{}, &Error{Kind: KindEncode, Name: name, Err: raster.ErrNoOutput}
	}

	log.Debug().Int("bytes", len(out)).Dur("took", time.Since(started)).Msg("encoded")
	return Result{
		Data:     out,
		Size:     int64(len(out)),
		Width:    buf.Bounds().Dx(),
		Height:   buf.Bounds().Dy(),
		Fidelity: report,
	}, nil
}

// processLuma denoises then sharpens the luminance of buf in place.
func processLuma(buf *image.NRGBA, s Settings) {
	before := luma.Extract(buf)
	after := luma.Denoise(before, float64(s.Denoise))
	after = luma.Sharpen(after, float64(s.Sharpen))
	luma.Apply(buf, before, after)
}

func readAll(src Source) ([]byte, error) {
	rc, err := src.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// classify wraps err in an *Error. Cancellation and surface failures keep
// their own kinds whatever stage they come from; everything else gets fallback.
func classify(name string, fallback Kind, err error) error {
	kind := fallback
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		kind = KindCanceled
	case errors.Is(err, raster.ErrContextUnavailable):
		kind = KindContextUnavailable
	}
	return &Error{Kind: kind, Name: name, Err: err}
}

func cloneNRGBA(src *image.NRGBA) *image.NRGBA {
	dst := image.NewNRGBA(src.Rect)
	copy(dst.Pix, src.Pix)
	return dst
}
