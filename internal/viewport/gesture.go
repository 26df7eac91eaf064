package viewport

import (
	"math"
	"time"
)

// Double tap gating: a second press within the window and radius counts as a
// double tap instead of a new drag.
const (
	doubleTapWindow = 300 * time.Millisecond
	doubleTapRadius = 50.0
)

type gestureKind int

const (
	gestureIdle gestureKind = iota
	gestureDragging
	gesturePinching
	gestureAnimating
)

// gestureState is the single active gesture. Exactly one kind is live at a
// time; the zero value is Idle.
type gestureState struct {
	kind gestureKind

	// dragging
	lastX, lastY float64

	// pinching; the center is fixed at pinch start
	lastDistance     float64
	centerX, centerY float64

	// animating
	start     State
	target    State
	startTime time.Time
	duration  time.Duration
}

// PointerDown begins a drag, or fires a double tap when a recent press was
// close enough.
func (e *Engine) PointerDown(x, y float64) {
	if e.destroyed || e.img == nil {
		return
	}
	now := e.now()
	if !e.cfg.DoubleClick.Disabled &&
		!e.lastTap.IsZero() &&
		now.Sub(e.lastTap) <= doubleTapWindow &&
		math.Hypot(x-e.lastTapX, y-e.lastTapY) <= doubleTapRadius {
		e.lastTap = time.Time{}
		e.doubleTap(x, y)
		return
	}
	e.lastTap = now
	e.lastTapX, e.lastTapY = x, y

	if e.cfg.Panning.Disabled {
		return
	}
	// A press interrupts any running animation at its current state.
	e.gesture = gestureState{kind: gestureDragging, lastX: x, lastY: y}
}

// PointerMove accumulates the drag into the temporary offset and re-renders
// with a translation-only correction. The expensive resample is deferred to
// the debounce timer.
func (e *Engine) PointerMove(x, y float64) {
	if e.destroyed || e.gesture.kind != gestureDragging {
		return
	}
	dx := x - e.gesture.lastX
	dy := y - e.gesture.lastY
	e.gesture.lastX = x
	e.gesture.lastY = y
	e.tempX += dx
	e.tempY += dy
	e.clampTemporary()
	e.Render()
	e.scheduleRegionUpdate()
}

// PointerUp ends a drag. Any accumulated offset stays temporary until the
// debounce timer commits it.
func (e *Engine) PointerUp(x, y float64) {
	if e.destroyed || e.gesture.kind != gestureDragging {
		return
	}
	e.gesture = gestureState{}
	if e.tempX != 0 || e.tempY != 0 {
		e.scheduleRegionUpdate()
	}
}

// PinchStart begins a pinch. The center stays fixed for the whole gesture;
// any pending drag offset is committed first so the zoom math works on the
// committed transform.
func (e *Engine) PinchStart(cx, cy, distance float64) {
	if e.destroyed || e.img == nil || e.cfg.Pinch.Disabled || distance <= 0 {
		return
	}
	e.commitTemporary()
	e.gesture = gestureState{kind: gesturePinching, centerX: cx, centerY: cy, lastDistance: distance}
}

// PinchMove rescales so the image point under the pinch center stays fixed.
func (e *Engine) PinchMove(distance float64) {
	if e.destroyed || e.gesture.kind != gesturePinching || distance <= 0 {
		return
	}
	ratio := distance / e.gesture.lastDistance
	if step := e.cfg.Pinch.Step; step != 1 {
		ratio = math.Pow(ratio, step)
	}
	e.gesture.lastDistance = distance
	ns := e.clampScale(e.state.Scale * ratio)
	e.state = e.stateForZoomAt(e.gesture.centerX, e.gesture.centerY, ns)
	e.Render()
	e.notifyZoom()
	e.scheduleRegionUpdate()
}

// PinchEnd returns to Idle and lets the debounce pick up the final region.
func (e *Engine) PinchEnd() {
	if e.destroyed || e.gesture.kind != gesturePinching {
		return
	}
	e.gesture = gestureState{}
	e.scheduleRegionUpdate()
}

// Wheel zooms around the pointer position by the configured multiplicative
// step. It bypasses the gesture state machine entirely: always synchronous,
// immediately reclamped and rendered.
func (e *Engine) Wheel(x, y, deltaY float64) {
	if e.destroyed || e.img == nil || e.cfg.Wheel.Disabled || deltaY == 0 {
		return
	}
	factor := e.cfg.Wheel.Step
	if deltaY > 0 {
		factor = 1 / factor
	}
	e.commitTemporary()
	ns := e.clampScale(e.state.Scale * factor)
	if ns == e.state.Scale {
		return
	}
	e.state = e.stateForZoomAt(x, y, ns)
	e.Render()
	e.notifyZoom()
	e.scheduleRegionUpdate()
}

// doubleTap toggles between fit and 1:1, or zooms by a fixed step, keeping
// the tapped point fixed.
func (e *Engine) doubleTap(x, y float64) {
	var ns float64
	if e.cfg.DoubleClick.Mode == ModeZoom {
		ns = e.state.Scale * (1 + e.cfg.DoubleClick.Step)
	} else {
		const eps = 1e-6
		if math.Abs(e.state.Scale-e.fitScale) < eps {
			ns = 1.0
		} else {
			ns = e.fitScale
		}
	}
	e.commitTemporary()
	target := e.stateForZoomAt(x, y, e.clampScale(ns))
	e.applyTarget(target, true)
}

// stateForZoomAt solves for the translation that keeps the image point under
// the canvas point (px, py) fixed while the scale changes to ns.
func (e *Engine) stateForZoomAt(px, py, ns float64) State {
	size := e.surf.Size()
	vx := px - float64(size.X)/2
	vy := py - float64(size.Y)/2
	ratio := 1.0
	if e.state.Scale > 0 {
		ratio = ns / e.state.Scale
	}
	return e.clampState(State{
		Scale:      ns,
		TranslateX: vx - (vx-e.state.TranslateX)*ratio,
		TranslateY: vy - (vy-e.state.TranslateY)*ratio,
	})
}

// animate transitions to target with an ease-out curve. The host pumps Tick
// while Animating reports true.
func (e *Engine) animate(target State, d time.Duration) {
	if d <= 0 {
		d = time.Millisecond
	}
	e.gesture = gestureState{
		kind:      gestureAnimating,
		start:     e.state,
		target:    target,
		startTime: e.now(),
		duration:  d,
	}
}

// Animating reports whether an eased transition is in progress.
func (e *Engine) Animating() bool {
	return e.gesture.kind == gestureAnimating
}

// Tick advances a running animation. On completion it snaps exactly to the
// target values so floating-point drift cannot accumulate, then triggers a
// final region streaming update.
func (e *Engine) Tick(now time.Time) {
	if e.destroyed || e.gesture.kind != gestureAnimating {
		return
	}
	g := e.gesture
	t := float64(now.Sub(g.startTime)) / float64(g.duration)
	if t >= 1 {
		e.state = g.target
		e.gesture = gestureState{}
		e.Render()
		e.notifyZoom()
		e.scheduleRegionUpdate()
		return
	}
	if t < 0 {
		t = 0
	}
	k := easeOut(t)
	e.state = State{
		Scale:      lerp(g.start.Scale, g.target.Scale, k),
		TranslateX: lerp(g.start.TranslateX, g.target.TranslateX, k),
		TranslateY: lerp(g.start.TranslateY, g.target.TranslateY, k),
	}
	e.Render()
	e.notifyZoom()
}

func easeOut(t float64) float64 {
	u := 1 - t
	return 1 - u*u*u*u
}

func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}
