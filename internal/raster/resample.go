package raster

import (
	"image"

	"github.com/disintegration/imaging"
	"golang.org/x/image/draw"
)

// Resample scales src to width x height in a single pass. src is not
// modified.
func (c *Codec) Resample(src *image.NRGBA, width, height int) (*image.NRGBA, error) {
	if err := checkSurface(width, height); err != nil {
		return nil, err
	}

	switch c.Filter {
	case FilterCatmullRom:
		dst := image.NewNRGBA(image.Rect(0, 0, width, height))
		draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
		return dst, nil
	default:
		return imaging.Resize(src, width, height, imaging.Lanczos), nil
	}
}
