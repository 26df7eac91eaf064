package resample

import (
	"fmt"
	"image"
	"image/draw"

	"github.com/disintegration/imaging"
	xdraw "golang.org/x/image/draw"
)

// Quality selects the resampling filter used for the final scaling pass.
type Quality int

const (
	QualityLow Quality = iota
	QualityMedium
	QualityHigh
)

func (q Quality) filter() imaging.ResampleFilter {
	switch q {
	case QualityLow:
		return imaging.Box
	case QualityHigh:
		return imaging.Lanczos
	default:
		return imaging.Linear
	}
}

// multiStepRatio is the scale ratio beyond which scaling goes through
// intermediate halving/doubling steps instead of a single extreme-ratio pass.
// Stepping keeps filter quality acceptable and bounds the peak size of any
// intermediate buffer.
const multiStepRatio = 4.0

// scaleLOD rescales the full source image to exactly tw x th.
func scaleLOD(src *image.RGBA, tw, th int, q Quality) (*image.RGBA, error) {
	if src == nil {
		return nil, fmt.Errorf("scale lod: nil source image")
	}
	if tw <= 0 || th <= 0 {
		return nil, fmt.Errorf("scale lod: invalid target size %dx%d", tw, th)
	}
	sw, sh := src.Bounds().Dx(), src.Bounds().Dy()
	if sw == 0 || sh == 0 {
		return nil, fmt.Errorf("scale lod: empty source image")
	}
	if sw == tw && sh == th {
		return src, nil
	}

	var cur image.Image = src
	cw, ch := sw, sh

	// Downscale in halving steps while still far larger than the target.
	for float64(cw)/float64(tw) > multiStepRatio && float64(ch)/float64(th) > multiStepRatio {
		nw, nh := cw/2, ch/2
		if nw < tw {
			nw = tw
		}
		if nh < th {
			nh = th
		}
		cur = stepScale(cur, nw, nh)
		cw, ch = nw, nh
	}

	// Upscale in doubling steps while still far smaller than the target.
	for float64(tw)/float64(cw) > multiStepRatio && float64(th)/float64(ch) > multiStepRatio {
		nw, nh := cw*2, ch*2
		if nw > tw {
			nw = tw
		}
		if nh > th {
			nh = th
		}
		cur = stepScale(cur, nw, nh)
		cw, ch = nw, nh
	}

	if cw == tw && ch == th {
		return toRGBA(cur), nil
	}
	return toRGBA(imaging.Resize(cur, tw, th, q.filter())), nil
}

// stepScale performs one intermediate halving/doubling pass. The cheap
// bilinear scaler is fine here; the quality filter runs on the final pass.
func stepScale(src image.Image, w, h int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), xdraw.Src, nil)
	return dst
}

func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok {
		return rgba
	}
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}
