package viewport

import (
	"log"
	"math"
	"time"

	"github.com/example/deepview/internal/resample"
)

// scheduleRegionUpdate arms (or re-arms) the debounce timer when the visible
// region has moved past the similarity threshold. Repeated calls while
// interaction continues keep pushing the timer back, so the resample only
// runs once interaction quiesces.
func (e *Engine) scheduleRegionUpdate() {
	if e.destroyed || e.img == nil {
		return
	}
	r := e.visibleRegion()
	if e.haveRegion && r.SimilarTo(e.lastRegion) {
		return
	}
	if e.debounce == nil {
		e.debounce = time.AfterFunc(e.debounceInterval, func() {
			e.post(e.commitAndRequest)
		})
		return
	}
	e.debounce.Reset(e.debounceInterval)
}

// commitAndRequest runs on the render thread when the debounce fires: it
// commits the temporary offset, snaps the visible region to whole source
// pixels and issues a tile job sized to the canvas.
func (e *Engine) commitAndRequest() {
	if e.destroyed || e.img == nil {
		return
	}
	e.commitTemporary()
	r := e.visibleRegion()
	if r.Empty() {
		return
	}

	sx := int(math.Floor(r.X))
	sy := int(math.Floor(r.Y))
	sw := int(math.Ceil(r.X+r.Width)) - sx
	sh := int(math.Ceil(r.Y+r.Height)) - sy
	if sx+sw > e.imgW {
		sw = e.imgW - sx
	}
	if sy+sh > e.imgH {
		sh = e.imgH - sy
	}
	if sw <= 0 || sh <= 0 {
		return
	}
	snapped := Region{X: float64(sx), Y: float64(sy), Width: float64(sw), Height: float64(sh)}
	e.lastRegion = snapped
	e.haveRegion = true
	e.pendingRegion = snapped

	tw, th := e.letterbox(float64(sw), float64(sh))
	e.jobSeq++
	e.liveJobID = e.jobSeq
	e.resampler.Submit(resample.Job{
		ID:           e.liveJobID,
		Kind:         resample.CreateTile,
		Source:       e.img,
		TargetWidth:  tw,
		TargetHeight: th,
		Quality:      resample.QualityMedium,
		SourceX:      sx,
		SourceY:      sy,
		SourceWidth:  sw,
		SourceHeight: sh,
	})
}

// requestInitialLOD issues a full resample of the freshly loaded image at
// canvas size.
func (e *Engine) requestInitialLOD() {
	r := e.visibleRegion()
	if r.Empty() {
		return
	}
	e.lastRegion = r
	e.haveRegion = true
	e.pendingRegion = Region{Width: float64(e.imgW), Height: float64(e.imgH)}

	tw, th := e.letterbox(float64(e.imgW), float64(e.imgH))
	e.jobSeq++
	e.liveJobID = e.jobSeq
	e.resampler.Submit(resample.Job{
		ID:           e.liveJobID,
		Kind:         resample.CreateLOD,
		Source:       e.img,
		TargetWidth:  tw,
		TargetHeight: th,
		Quality:      resample.QualityHigh,
	})
}

// letterbox fits a w:h source aspect into the canvas, returning the target
// pixel size. The canvas is in physical pixels, so device pixel density is
// already accounted for.
func (e *Engine) letterbox(w, h float64) (int, int) {
	size := e.surf.Size()
	scale := math.Min(float64(size.X)/w, float64(size.Y)/h)
	tw := int(math.Round(w * scale))
	th := int(math.Round(h * scale))
	if tw < 1 {
		tw = 1
	}
	if th < 1 {
		th = 1
	}
	return tw, th
}

// applyResample promotes a worker result to the current texture. Results for
// any job other than the most recently issued one are dropped: the worker
// finished them, but they no longer describe the view.
func (e *Engine) applyResample(res resample.Result) {
	if e.destroyed {
		return
	}
	if res.ID != e.liveJobID {
		return
	}
	if res.Err != nil {
		log.Printf("resample job %d: %v", res.ID, res.Err)
		return
	}
	tex, err := e.surf.NewTexture(res.Pixels)
	if err != nil {
		log.Printf("texture upload: %v", err)
		return
	}
	e.textureCount++
	e.textureBytes += int64(res.Width) * int64(res.Height) * 4

	e.releaseSlot(&e.previous)
	e.previous = e.current
	e.current = textureSlot{tex: tex, region: e.pendingRegion}
	e.Render()
}
