package resample

import (
	"fmt"
	"image"
	"runtime"
)

const (
	// tileChunkRows is how many destination rows are resampled before the
	// loop considers yielding.
	tileChunkRows = 128
	// chunksPerYield bounds how long a single large tile can hold the
	// worker before queued jobs get a chance to interleave scheduling.
	chunksPerYield = 4
)

// extractTile crops job's source sub-rectangle and resamples it to the
// target size. Three paths, cheapest first: the input unchanged, a row-wise
// copy, or a chunked nearest-neighbor resample.
func extractTile(job Job) (*image.RGBA, error) {
	src := job.Source
	if src == nil {
		return nil, fmt.Errorf("extract tile: nil source image")
	}
	if job.TargetWidth <= 0 || job.TargetHeight <= 0 {
		return nil, fmt.Errorf("extract tile: invalid target size %dx%d", job.TargetWidth, job.TargetHeight)
	}
	sr := image.Rect(job.SourceX, job.SourceY, job.SourceX+job.SourceWidth, job.SourceY+job.SourceHeight)
	if sr.Empty() {
		return nil, fmt.Errorf("extract tile: empty source rectangle %v", sr)
	}
	if !sr.In(src.Bounds()) {
		return nil, fmt.Errorf("extract tile: source rectangle %v outside image bounds %v", sr, src.Bounds())
	}

	exactSize := sr.Dx() == job.TargetWidth && sr.Dy() == job.TargetHeight
	if exactSize && sr == src.Bounds() {
		return src, nil
	}
	if exactSize {
		return copyRect(src, sr), nil
	}
	return resampleNearest(src, sr, job.TargetWidth, job.TargetHeight), nil
}

// copyRect extracts sr from src with per-row memory copies.
func copyRect(src *image.RGBA, sr image.Rectangle) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, sr.Dx(), sr.Dy()))
	rowBytes := sr.Dx() * 4
	for y := 0; y < sr.Dy(); y++ {
		so := src.PixOffset(sr.Min.X, sr.Min.Y+y)
		do := dst.PixOffset(0, y)
		copy(dst.Pix[do:do+rowBytes], src.Pix[so:so+rowBytes])
	}
	return dst
}

// resampleNearest maps sr onto a tw x th buffer with nearest-neighbor
// sampling, processing destination rows in chunks and yielding between chunk
// groups so one big tile cannot monopolize the worker goroutine.
func resampleNearest(src *image.RGBA, sr image.Rectangle, tw, th int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, tw, th))
	xRatio := float64(sr.Dx()) / float64(tw)
	yRatio := float64(sr.Dy()) / float64(th)

	chunks := 0
	for y0 := 0; y0 < th; y0 += tileChunkRows {
		y1 := y0 + tileChunkRows
		if y1 > th {
			y1 = th
		}
		for y := y0; y < y1; y++ {
			sy := sr.Min.Y + int(float64(y)*yRatio)
			if sy >= sr.Max.Y {
				sy = sr.Max.Y - 1
			}
			do := dst.PixOffset(0, y)
			for x := 0; x < tw; x++ {
				sx := sr.Min.X + int(float64(x)*xRatio)
				if sx >= sr.Max.X {
					sx = sr.Max.X - 1
				}
				so := src.PixOffset(sx, sy)
				copy(dst.Pix[do:do+4], src.Pix[so:so+4])
				do += 4
			}
		}
		chunks++
		if chunks%chunksPerYield == 0 {
			runtime.Gosched()
		}
	}
	return dst
}
