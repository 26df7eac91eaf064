package viewport

import "math"

// State is the committed viewport transform. Scale is source pixels to
// device pixels; the translation is in device pixels, relative to the canvas
// center.
type State struct {
	Scale      float64
	TranslateX float64
	TranslateY float64
}

// Region is a rectangle in source-image pixel coordinates.
type Region struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// regionSimilarityThreshold is the per-field pixel delta below which two
// regions are considered the same view, so no new resample is worth issuing.
const regionSimilarityThreshold = 5.0

// SimilarTo reports whether o differs from r by less than the similarity
// threshold in every field.
func (r Region) SimilarTo(o Region) bool {
	return math.Abs(r.X-o.X) < regionSimilarityThreshold &&
		math.Abs(r.Y-o.Y) < regionSimilarityThreshold &&
		math.Abs(r.Width-o.Width) < regionSimilarityThreshold &&
		math.Abs(r.Height-o.Height) < regionSimilarityThreshold
}

// Empty reports whether the region covers no pixels.
func (r Region) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

func (e *Engine) clampScale(s float64) float64 {
	if s < e.minScale() {
		return e.minScale()
	}
	if s > e.maxScale() {
		return e.maxScale()
	}
	return s
}

func (e *Engine) minScale() float64 {
	return e.fitScale * e.cfg.MinScale
}

func (e *Engine) maxScale() float64 {
	return math.Max(e.fitScale*e.cfg.MaxScale, 1.0)
}

// clampState bounds the scale and, when limitToBounds is on, keeps the
// scaled image from revealing empty space past its edges. An image smaller
// than the canvas on an axis is force-centered on that axis.
func (e *Engine) clampState(st State) State {
	st.Scale = e.clampScale(st.Scale)
	if !e.cfg.LimitToBounds {
		return st
	}
	size := e.surf.Size()
	st.TranslateX = clampAxis(st.TranslateX, float64(e.imgW)*st.Scale, float64(size.X))
	st.TranslateY = clampAxis(st.TranslateY, float64(e.imgH)*st.Scale, float64(size.Y))
	return st
}

func clampAxis(t, scaledDim, canvasDim float64) float64 {
	limit := (scaledDim - canvasDim) / 2
	if limit <= 0 {
		return 0
	}
	if t > limit {
		return limit
	}
	if t < -limit {
		return -limit
	}
	return t
}

// clampTemporary re-clamps the uncommitted gesture offset so a drag cannot
// move arbitrarily far past the boundary before snap-back.
func (e *Engine) clampTemporary() {
	if !e.cfg.LimitToBounds {
		return
	}
	total := e.clampState(State{
		Scale:      e.state.Scale,
		TranslateX: e.state.TranslateX + e.tempX,
		TranslateY: e.state.TranslateY + e.tempY,
	})
	e.tempX = total.TranslateX - e.state.TranslateX
	e.tempY = total.TranslateY - e.state.TranslateY
}

// visibleRegion computes the source-image rectangle currently on screen from
// the committed transform plus the temporary gesture offset.
func (e *Engine) visibleRegion() Region {
	if e.img == nil || e.state.Scale <= 0 {
		return Region{}
	}
	size := e.surf.Size()
	halfW := float64(size.X) / 2
	halfH := float64(size.Y) / 2
	cx := float64(e.imgW) / 2
	cy := float64(e.imgH) / 2
	tx := e.state.TranslateX + e.tempX
	ty := e.state.TranslateY + e.tempY
	s := e.state.Scale

	x0 := cx + (-halfW-tx)/s
	x1 := cx + (halfW-tx)/s
	y0 := cy + (-halfH-ty)/s
	y1 := cy + (halfH-ty)/s

	x0 = math.Max(0, x0)
	y0 = math.Max(0, y0)
	x1 = math.Min(float64(e.imgW), x1)
	y1 = math.Min(float64(e.imgH), y1)
	return Region{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}
}
