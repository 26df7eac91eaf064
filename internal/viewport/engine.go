// Package viewport implements the deep-zoom viewer core: the viewport
// transform and render loop, the region streaming controller that keeps a
// resampled texture matched to the visible rectangle, and the gesture and
// animation state machine that drives both.
//
// The engine is single-threaded: every method must be called from the render
// thread. Asynchronous completions (resample results, the debounce timer)
// are marshalled back through the post hook supplied at construction.
package viewport

import (
	"fmt"
	"image"
	"log"
	"time"

	"github.com/example/deepview/internal/clipboard"
	"github.com/example/deepview/internal/resample"
	"github.com/example/deepview/internal/source"
	"github.com/example/deepview/internal/surface"
)

// defaultDebounceInterval is how long interaction must quiesce before a new
// region resample is issued.
const defaultDebounceInterval = 150 * time.Millisecond

// Resampler is the background worker the engine streams regions through.
// *resample.Worker is the production implementation.
type Resampler interface {
	Submit(resample.Job)
	Results() <-chan resample.Result
	Close()
}

// test hook
var clipboardWriteImage = clipboard.WriteImage

type textureSlot struct {
	tex    surface.Texture
	region Region
}

// Engine owns the viewport state and composes the region streaming
// controller, the gesture state machine and the render loop.
type Engine struct {
	surf      surface.Surface
	resampler Resampler
	cfg       Config

	post func(func())
	now  func() time.Time

	img        *image.RGBA
	imgW, imgH int
	fitScale   float64

	state        State
	tempX, tempY float64

	gesture  gestureState
	lastTapX float64
	lastTapY float64
	lastTap  time.Time

	current  textureSlot
	previous textureSlot

	lastRegion    Region
	haveRegion    bool
	pendingRegion Region

	debounce         *time.Timer
	debounceInterval time.Duration
	jobSeq           int64
	liveJobID        int64

	textureCount int
	textureBytes int64

	destroyed bool

	onZoomChange         func(absolute, relative float64)
	onLoadingStateChange func(loading bool, message string, quality string)
	onImageCopied        func()
	onDebugUpdate        func(DebugSnapshot)
}

// Option modifies an Engine during creation.
type Option func(*Engine)

// WithPost sets the hook used to marshal asynchronous completions onto the
// render thread. The option is mandatory: without it worker results would
// run on the forwarding goroutine and break the single-thread contract.
func WithPost(post func(func())) Option {
	return func(e *Engine) { e.post = post }
}

// WithClock overrides the time source used for gestures and animation.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithDebounceInterval overrides the region streaming debounce.
func WithDebounceInterval(d time.Duration) Option {
	return func(e *Engine) { e.debounceInterval = d }
}

// WithZoomChangeListener registers a callback fired on every scale or
// translation change, with the absolute scale and the scale relative to fit.
func WithZoomChangeListener(fn func(absolute, relative float64)) Option {
	return func(e *Engine) { e.onZoomChange = fn }
}

// WithLoadingStateListener registers a callback fired when loading starts
// and when it completes or fails.
func WithLoadingStateListener(fn func(loading bool, message string, quality string)) Option {
	return func(e *Engine) { e.onLoadingStateChange = fn }
}

// WithImageCopiedListener registers a callback fired after a successful
// clipboard copy.
func WithImageCopiedListener(fn func()) Option {
	return func(e *Engine) { e.onImageCopied = fn }
}

// WithDebugListener registers a callback receiving a debug snapshot after
// every rendered frame when Config.Debug is set.
func WithDebugListener(fn func(DebugSnapshot)) Option {
	return func(e *Engine) { e.onDebugUpdate = fn }
}

// New creates an engine drawing to surf and resampling through res.
func New(surf surface.Surface, res Resampler, cfg Config, opts ...Option) (*Engine, error) {
	if surf == nil {
		return nil, &surface.ContextError{Op: "new engine", Err: fmt.Errorf("nil surface")}
	}
	if res == nil {
		return nil, fmt.Errorf("new engine: nil resampler")
	}
	e := &Engine{
		surf:             surf,
		resampler:        res,
		cfg:              cfg.withDefaults(),
		now:              time.Now,
		debounceInterval: defaultDebounceInterval,
	}
	for _, o := range opts {
		o(e)
	}
	if e.post == nil {
		return nil, fmt.Errorf("new engine: missing post hook (use WithPost)")
	}
	go e.forwardResults()
	return e, nil
}

// forwardResults moves worker results onto the render thread. It exits when
// Destroy closes the worker's result channel.
func (e *Engine) forwardResults() {
	for res := range e.resampler.Results() {
		res := res
		e.post(func() { e.applyResample(res) })
	}
}

// Load decodes the source image and initializes the transform. When the
// descriptor carries known dimensions the fit-to-screen scale is computed
// before the decode so the first paint does not shift.
func (e *Engine) Load(desc source.Descriptor) error {
	if e.destroyed {
		return fmt.Errorf("load: engine destroyed")
	}
	e.setLoading(true, "loading image", "")
	if desc.KnownWidth > 0 && desc.KnownHeight > 0 {
		e.imgW, e.imgH = desc.KnownWidth, desc.KnownHeight
		e.initTransform()
	}
	img, err := source.Decode(desc)
	if err != nil {
		e.setLoading(false, err.Error(), "")
		return err
	}
	if e.destroyed {
		return fmt.Errorf("load: engine destroyed")
	}
	e.img = img
	e.imgW = img.Bounds().Dx()
	e.imgH = img.Bounds().Dy()
	e.initTransform()
	e.haveRegion = false
	e.requestInitialLOD()
	e.Render()
	e.setLoading(false, "", "high")
	return nil
}

// initTransform derives the fit-to-screen scale from the canvas and resets
// the transform to the configured initial view.
func (e *Engine) initTransform() {
	size := e.surf.Size()
	if e.imgW <= 0 || e.imgH <= 0 || size.X <= 0 || size.Y <= 0 {
		return
	}
	fw := float64(size.X) / float64(e.imgW)
	fh := float64(size.Y) / float64(e.imgH)
	if fw < fh {
		e.fitScale = fw
	} else {
		e.fitScale = fh
	}
	e.state.Scale = e.clampScale(e.fitScale * e.cfg.InitialScale)
	if e.cfg.CenterOnInit {
		e.state.TranslateX = 0
		e.state.TranslateY = 0
	}
	e.tempX, e.tempY = 0, 0
	e.state = e.clampState(e.state)
	e.notifyZoom()
}

// Resize re-derives the fit scale after the canvas changed and re-clamps the
// view. The caller updates the surface size first.
func (e *Engine) Resize() {
	if e.destroyed || e.img == nil {
		return
	}
	relative := 1.0
	if e.fitScale > 0 {
		relative = e.state.Scale / e.fitScale
	}
	size := e.surf.Size()
	if size.X <= 0 || size.Y <= 0 {
		return
	}
	fw := float64(size.X) / float64(e.imgW)
	fh := float64(size.Y) / float64(e.imgH)
	if fw < fh {
		e.fitScale = fw
	} else {
		e.fitScale = fh
	}
	e.state.Scale = e.clampScale(e.fitScale * relative)
	e.state = e.clampState(e.state)
	e.Render()
	e.notifyZoom()
	e.scheduleRegionUpdate()
}

// ZoomIn zooms by the configured step around the viewport center.
func (e *Engine) ZoomIn(animated bool) {
	e.stepZoom(e.cfg.Wheel.Step, animated)
}

// ZoomOut zooms out by the configured step around the viewport center.
func (e *Engine) ZoomOut(animated bool) {
	e.stepZoom(1/e.cfg.Wheel.Step, animated)
}

func (e *Engine) stepZoom(factor float64, animated bool) {
	if e.destroyed || e.img == nil {
		return
	}
	e.commitTemporary()
	size := e.surf.Size()
	target := e.stateForZoomAt(float64(size.X)/2, float64(size.Y)/2, e.clampScale(e.state.Scale*factor))
	e.applyTarget(target, animated)
}

// ResetView returns to the initial fit-to-screen view.
func (e *Engine) ResetView() {
	if e.destroyed || e.img == nil {
		return
	}
	e.commitTemporary()
	target := e.clampState(State{Scale: e.clampScale(e.fitScale * e.cfg.InitialScale)})
	e.applyTarget(target, true)
}

func (e *Engine) applyTarget(target State, animated bool) {
	if animated && e.cfg.Smooth {
		e.animate(target, e.cfg.DoubleClick.AnimationTime)
		return
	}
	e.state = target
	e.Render()
	e.notifyZoom()
	e.scheduleRegionUpdate()
}

// Scale returns the current absolute scale.
func (e *Engine) Scale() float64 {
	return e.state.Scale
}

// FitScale returns the fit-to-screen scale for the current canvas.
func (e *Engine) FitScale() float64 {
	return e.fitScale
}

// OriginalSize reports whether the view is at 1:1 scale.
func (e *Engine) OriginalSize() bool {
	const eps = 1e-6
	return e.state.Scale > 1-eps && e.state.Scale < 1+eps
}

// CopyOriginalImageToClipboard copies the full-resolution source image.
// Missing clipboard support is a soft failure: logged, not returned.
func (e *Engine) CopyOriginalImageToClipboard() error {
	if e.destroyed || e.img == nil {
		return fmt.Errorf("copy image: no image loaded")
	}
	if err := clipboardWriteImage(e.img); err != nil {
		log.Printf("clipboard copy unavailable: %v", err)
		return nil
	}
	if e.onImageCopied != nil {
		e.onImageCopied()
	}
	return nil
}

// Destroy releases every texture, cancels the debounce timer, stops the
// animation and shuts down the worker. Late worker responses and timer
// fires see the destroyed flag and return without touching state.
func (e *Engine) Destroy() {
	if e.destroyed {
		return
	}
	e.destroyed = true
	if e.debounce != nil {
		e.debounce.Stop()
		e.debounce = nil
	}
	e.gesture = gestureState{}
	e.releaseSlot(&e.current)
	e.releaseSlot(&e.previous)
	e.resampler.Close()
	e.img = nil
}

func (e *Engine) releaseSlot(slot *textureSlot) {
	if slot.tex != nil {
		size := slot.tex.Size()
		e.textureCount--
		e.textureBytes -= int64(size.X) * int64(size.Y) * 4
		slot.tex.Release()
	}
	*slot = textureSlot{}
}

// commitTemporary folds the uncommitted gesture offset into the committed
// transform.
func (e *Engine) commitTemporary() {
	if e.tempX == 0 && e.tempY == 0 {
		return
	}
	e.state = e.clampState(State{
		Scale:      e.state.Scale,
		TranslateX: e.state.TranslateX + e.tempX,
		TranslateY: e.state.TranslateY + e.tempY,
	})
	e.tempX, e.tempY = 0, 0
}

func (e *Engine) notifyZoom() {
	if e.onZoomChange == nil {
		return
	}
	relative := 0.0
	if e.fitScale > 0 {
		relative = e.state.Scale / e.fitScale
	}
	e.onZoomChange(e.state.Scale, relative)
}

func (e *Engine) setLoading(loading bool, message, quality string) {
	if e.onLoadingStateChange != nil {
		e.onLoadingStateChange(loading, message, quality)
	}
}
