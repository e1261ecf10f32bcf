package convert

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"framepress/internal/raster"
	"framepress/internal/sequence"
)

// fakeRaster decodes real PNGs but records what it is asked to resample and
// encode instead of running a codec.
type fakeRaster struct {
	mu          sync.Mutex
	resampled   [][2]int
	encodedSize [][2]int
	qualities   []float64
	encoded     []*image.NRGBA
	encodeErr   error
	resampleErr error
}

func (f *fakeRaster) Decode(ctx context.Context, data []byte) (*image.NRGBA, error) {
	return raster.New(raster.FilterLanczos).Decode(ctx, data)
}

func (f *fakeRaster) Resample(src *image.NRGBA, w, h int) (*image.NRGBA, error) {
	f.mu.Lock()
	f.resampled = append(f.resampled, [2]int{w, h})
	f.mu.Unlock()
	if f.resampleErr != nil {
		return nil, f.resampleErr
	}
	return image.NewNRGBA(image.Rect(0, 0, w, h)), nil
}

func (f *fakeRaster) Encode(_ context.Context, img *image.NRGBA, _ raster.Format, q float64) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.encodedSize = append(f.encodedSize, [2]int{img.Bounds().Dx(), img.Bounds().Dy()})
	f.qualities = append(f.qualities, q)
	f.encoded = append(f.encoded, img)
	if f.encodeErr != nil {
		return nil, f.encodeErr
	}
	return []byte("encoded"), nil
}

func pngImage(t *testing.T, name string, w, h int) *sequence.Image {
	t.Helper()

	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x * 3), G: uint8(y * 5), B: uint8((x + y) * 2), A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return detectOne(t, sequence.MemFile{FileName: name, Data: buf.Bytes()})
}

func detectOne(t *testing.T, f sequence.MemFile) *sequence.Image {
	t.Helper()
	seqs := sequence.Detect([]sequence.RawFile{f})
	if len(seqs) != 1 || len(seqs[0].Images) != 1 {
		t.Fatalf("expected a single image from detection")
	}
	return seqs[0].Images[0]
}

func TestConvertPercentageResize(t *testing.T) {
	fr := &fakeRaster{}
	p := New(fr, raster.FormatWebP, zerolog.Nop())

	s := DefaultSettings()
	s.Resize = Resize{Mode: ResizePercentage, Percentage: 50}

	res, err := p.Convert(context.Background(), pngImage(t, "a.png", 200, 100), s)
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	if len(fr.resampled) != 1 || fr.resampled[0] != [2]int{100, 50} {
		t.Fatalf("resampled = %v, want one call at 100x50", fr.resampled)
	}
	if fr.encodedSize[0] != [2]int{100, 50} {
		t.Fatalf("encoded %v, want 100x50", fr.encodedSize[0])
	}
	if res.Width != 100 || res.Height != 50 || res.Size != int64(len("encoded")) {
		t.Fatalf("result = %dx%d %d bytes", res.Width, res.Height, res.Size)
	}
}

func TestConvertSkipsResampleAtNaturalSize(t *testing.T) {
	fr := &fakeRaster{}
	p := New(fr, raster.FormatWebP, zerolog.Nop())

	if _, err := p.Convert(context.Background(), pngImage(t, "a.png", 30, 20), DefaultSettings()); err != nil {
		t.Fatalf("convert: %v", err)
	}
	if len(fr.resampled) != 0 {
		t.Fatalf("resampled %v, want no resample", fr.resampled)
	}
}

func TestConvertLosslessIgnoresQuality(t *testing.T) {
	fr := &fakeRaster{}
	p := New(fr, raster.FormatWebP, zerolog.Nop())
	img := pngImage(t, "a.png", 8, 8)

	for _, q := range []int{10, 95} {
		s := DefaultSettings()
		s.Quality = q
		s.Lossless = true
		if _, err := p.Convert(context.Background(), img, s); err != nil {
			t.Fatalf("convert: %v", err)
		}
	}
	if len(fr.qualities) != 2 || fr.qualities[0] != 1 || fr.qualities[1] != 1 {
		t.Fatalf("qualities = %v, want [1 1]", fr.qualities)
	}

	s := DefaultSettings()
	s.Quality = 40
	if _, err := p.Convert(context.Background(), img, s); err != nil {
		t.Fatalf("convert: %v", err)
	}
	if fr.qualities[2] != 0.4 {
		t.Fatalf("lossy quality = %v, want 0.4", fr.qualities[2])
	}
}

func TestConvertLumaOnlyWhenRequested(t *testing.T) {
	fr := &fakeRaster{}
	p := New(fr, raster.FormatWebP, zerolog.Nop())
	p.Measure = true
	img := pngImage(t, "a.png", 24, 24)

	res, err := p.Convert(context.Background(), img, DefaultSettings())
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	if res.Fidelity != nil {
		t.Fatalf("fidelity measured without luminance processing")
	}

	s := DefaultSettings()
	s.Sharpen = 60
	s.Denoise = 30
	res, err = p.Convert(context.Background(), img, s)
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	if res.Fidelity == nil {
		t.Fatalf("expected a fidelity report")
	}
	if res.Fidelity.MaxHueShift > 5 {
		t.Fatalf("MaxHueShift = %v, want near zero", res.Fidelity.MaxHueShift)
	}
}

func TestConvertCorruptInput(t *testing.T) {
	p := New(&fakeRaster{}, raster.FormatWebP, zerolog.Nop())
	img := detectOne(t, sequence.MemFile{FileName: "broken.png", Data: []byte("nope")})

	_, err := p.Convert(context.Background(), img, DefaultSettings())
	var cerr *Error
	if !errors.As(err, &cerr) || cerr.Kind != KindDecode {
		t.Fatalf("err = %v, want decode error", err)
	}
	if !errors.Is(err, raster.ErrUnsupported) {
		t.Fatalf("err = %v, want to wrap ErrUnsupported", err)
	}
	if !errors.Is(err, &Error{Kind: KindDecode}) {
		t.Fatalf("errors.Is by kind failed for %v", err)
	}
}

func TestConvertZeroTargetIsContextUnavailable(t *testing.T) {
	fr := &fakeRaster{}
	p := New(fr, raster.FormatWebP, zerolog.Nop())

	s := DefaultSettings()
	s.Resize = Resize{Mode: ResizePercentage, Percentage: 1}
	_, err := p.Convert(context.Background(), pngImage(t, "a.png", 10, 10), s)
	var cerr *Error
	if !errors.As(err, &cerr) || cerr.Kind != KindContextUnavailable {
		t.Fatalf("err = %v, want context unavailable", err)
	}
	if len(fr.encodedSize) != 0 {
		t.Fatalf("encoder called after failure")
	}
}

func TestConvertResampleFailure(t *testing.T) {
	fr := &fakeRaster{resampleErr: raster.ErrContextUnavailable}
	p := New(fr, raster.FormatWebP, zerolog.Nop())

	s := DefaultSettings()
	s.Resize = Resize{Mode: ResizeExact, Width: 5, Height: 5}
	_, err := p.Convert(context.Background(), pngImage(t, "a.png", 10, 10), s)
	if !errors.Is(err, &Error{Kind: KindContextUnavailable}) {
		t.Fatalf("err = %v, want context unavailable", err)
	}
}

func TestConvertEncodeFailure(t *testing.T) {
	fr := &fakeRaster{encodeErr: raster.ErrNoOutput}
	p := New(fr, raster.FormatWebP, zerolog.Nop())

	res, err := p.Convert(context.Background(), pngImage(t, "a.png", 4, 4), DefaultSettings())
	if !errors.Is(err, &Error{Kind: KindEncode}) {
		t.Fatalf("err = %v, want encode error", err)
	}
	if res.Data != nil || res.Size != 0 {
		t.Fatalf("partial result returned: %+v", res)
	}
}

func TestConvertWithCodec(t *testing.T) {
	p := New(raster.New(raster.FilterCatmullRom), raster.FormatPNG, zerolog.Nop())

	s := DefaultSettings()
	s.Resize = Resize{Mode: ResizeWidth, Width: 20}
	s.Sharpen = 40
	res, err := p.Convert(context.Background(), pngImage(t, "frame_0001.png", 40, 30), s)
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	out, err := png.Decode(bytes.NewReader(res.Data))
	if err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if b := out.Bounds(); b.Dx() != 20 || b.Dy() != 15 {
		t.Fatalf("output = %v, want 20x15", b)
	}
}

func TestConvertCanceled(t *testing.T) {
	fr := &fakeRaster{}
	p := New(fr, raster.FormatWebP, zerolog.Nop())
	img := pngImage(t, "a.png", 8, 8)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Convert(ctx, img, DefaultSettings())
	if !errors.Is(err, &Error{Kind: KindCanceled}) {
		t.Fatalf("err = %v, want canceled", err)
	}
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want to wrap context.Canceled", err)
	}
	if len(fr.encodedSize) != 0 {
		t.Fatalf("encoder called after cancellation")
	}
}

func TestClassifyCanceledDuringDecode(t *testing.T) {
	err := classify("a.png", KindDecode, context.Canceled)
	var cerr *Error
	if !errors.As(err, &cerr) || cerr.Kind != KindCanceled {
		t.Fatalf("err = %v, want canceled, not a decode error", err)
	}
	err = classify("a.png", KindEncode, context.DeadlineExceeded)
	if !errors.Is(err, &Error{Kind: KindCanceled}) {
		t.Fatalf("err = %v, want canceled", err)
	}
}
