package viewport

import (
	"image"
	"image/color"
	"math"
)

var backgroundColor = color.Black

// Render draws the frame: the previous texture first (only while interaction
// is in progress, as a backdrop that hides resample latency), then the
// current texture on top. Both are placed by projecting their source region
// through the live transform, so a pan correction costs nothing more than a
// shifted destination rectangle.
func (e *Engine) Render() {
	if e.destroyed {
		return
	}
	e.surf.Fill(backgroundColor)
	if e.interacting() && e.previous.tex != nil {
		e.surf.Draw(e.previous.tex, e.projectRegion(e.previous.region))
	}
	if e.current.tex != nil {
		e.surf.Draw(e.current.tex, e.projectRegion(e.current.region))
	}
	e.surf.Publish()
	e.publishDebug()
}

func (e *Engine) interacting() bool {
	return e.gesture.kind == gestureDragging ||
		e.gesture.kind == gesturePinching ||
		e.tempX != 0 || e.tempY != 0
}

// projectRegion maps a source-image region to the canvas rectangle it
// occupies under the committed transform plus the temporary offset.
func (e *Engine) projectRegion(r Region) image.Rectangle {
	size := e.surf.Size()
	s := e.state.Scale
	tx := e.state.TranslateX + e.tempX
	ty := e.state.TranslateY + e.tempY

	x0 := float64(size.X)/2 + (r.X-float64(e.imgW)/2)*s + tx
	y0 := float64(size.Y)/2 + (r.Y-float64(e.imgH)/2)*s + ty
	x1 := x0 + r.Width*s
	y1 := y0 + r.Height*s
	return image.Rect(
		int(math.Round(x0)), int(math.Round(y0)),
		int(math.Round(x1)), int(math.Round(y1)),
	)
}
