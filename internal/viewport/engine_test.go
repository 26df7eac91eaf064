package viewport

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"sync"
	"testing"
	"time"

	"github.com/example/deepview/internal/resample"
	"github.com/example/deepview/internal/source"
	"github.com/example/deepview/internal/surface"
)

type fakeTexture struct {
	size     image.Point
	owner    *fakeSurface
	released bool
}

func (t *fakeTexture) Size() image.Point { return t.size }

func (t *fakeTexture) Release() {
	if !t.released {
		t.released = true
		t.owner.live--
		t.owner.released++
	}
}

type fakeSurface struct {
	size image.Point

	created   int
	released  int
	live      int
	fills     int
	publishes int
	draws     []image.Rectangle

	failTextures bool
}

func (s *fakeSurface) Size() image.Point        { return s.size }
func (s *fakeSurface) DevicePixelRatio() float64 { return 1.0 }

func (s *fakeSurface) NewTexture(img *image.RGBA) (surface.Texture, error) {
	if s.failTextures {
		return nil, &surface.ContextError{Op: "new texture", Err: errors.New("forced failure")}
	}
	s.created++
	s.live++
	return &fakeTexture{size: img.Bounds().Size(), owner: s}, nil
}

func (s *fakeSurface) Fill(color.Color) { s.fills++ }

func (s *fakeSurface) Draw(t surface.Texture, dst image.Rectangle) {
	s.draws = append(s.draws, dst)
}

func (s *fakeSurface) Publish() { s.publishes++ }

type fakeResampler struct {
	mu      sync.Mutex
	jobs    []resample.Job
	results chan resample.Result
	closed  bool
}

func newFakeResampler() *fakeResampler {
	return &fakeResampler{results: make(chan resample.Result, 16)}
}

func (r *fakeResampler) Submit(job resample.Job) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs = append(r.jobs, job)
}

func (r *fakeResampler) Results() <-chan resample.Result { return r.results }

func (r *fakeResampler) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.closed {
		r.closed = true
		close(r.results)
	}
}

func (r *fakeResampler) jobCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.jobs)
}

func (r *fakeResampler) lastJob() resample.Job {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.jobs[len(r.jobs)-1]
}

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time { return c.t }

func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 0, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode test image: %v", err)
	}
	return buf.Bytes()
}

func newTestEngine(t *testing.T, canvasW, canvasH, imgW, imgH int, cfg Config, opts ...Option) (*Engine, *fakeSurface, *fakeResampler, *fakeClock) {
	t.Helper()
	surf := &fakeSurface{size: image.Pt(canvasW, canvasH)}
	res := newFakeResampler()
	clk := &fakeClock{t: time.Unix(1000, 0)}
	// Discard posted closures by default so debounce timers cannot mutate
	// engine state from another goroutine mid-test. Tests that care about
	// the debounce supply their own post hook.
	opts = append([]Option{WithClock(clk.Now), WithPost(func(func()) {})}, opts...)
	eng, err := New(surf, res, cfg, opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(eng.Destroy)
	if imgW > 0 {
		desc := source.Descriptor{Reader: bytes.NewReader(pngBytes(t, imgW, imgH))}
		if err := eng.Load(desc); err != nil {
			t.Fatalf("Load: %v", err)
		}
	}
	return eng, surf, res, clk
}

func samplePixels(w, h int) *image.RGBA {
	return image.NewRGBA(image.Rect(0, 0, w, h))
}

func TestLoadComputesFitAndIssuesInitialLOD(t *testing.T) {
	var loadingStates []bool
	eng, _, res, _ := newTestEngine(t, 400, 300, 800, 600, DefaultConfig(),
		WithLoadingStateListener(func(loading bool, _ string, _ string) {
			loadingStates = append(loadingStates, loading)
		}))

	if got, want := eng.FitScale(), 0.5; got != want {
		t.Errorf("fit scale: got %v, want %v", got, want)
	}
	if got, want := eng.Scale(), 0.5; got != want {
		t.Errorf("initial scale: got %v, want %v", got, want)
	}
	if res.jobCount() != 1 {
		t.Fatalf("expected exactly one initial job, got %d", res.jobCount())
	}
	job := res.lastJob()
	if job.Kind != resample.CreateLOD {
		t.Errorf("expected CreateLOD, got %v", job.Kind)
	}
	if job.TargetWidth != 400 || job.TargetHeight != 300 {
		t.Errorf("expected 400x300 target, got %dx%d", job.TargetWidth, job.TargetHeight)
	}
	if len(loadingStates) != 2 || !loadingStates[0] || loadingStates[1] {
		t.Errorf("expected loading true then false, got %v", loadingStates)
	}
}

func TestLoadDecodeError(t *testing.T) {
	eng, _, _, _ := newTestEngine(t, 400, 300, 0, 0, DefaultConfig())
	err := eng.Load(source.Descriptor{Reader: bytes.NewReader([]byte("not an image"))})
	if err == nil {
		t.Fatal("expected decode error")
	}
	var derr *source.DecodeError
	if !errors.As(err, &derr) {
		t.Errorf("expected *source.DecodeError, got %T", err)
	}
}

func TestNewRequiresPostHook(t *testing.T) {
	surf := &fakeSurface{size: image.Pt(400, 300)}
	res := newFakeResampler()
	defer res.Close()
	if _, err := New(surf, res, DefaultConfig()); err == nil {
		t.Fatal("expected an error when no post hook is supplied")
	}
	if _, err := New(surf, res, DefaultConfig(), WithPost(func(func()) {})); err != nil {
		t.Fatalf("New with post hook: %v", err)
	}
}

func TestScaleBounds(t *testing.T) {
	eng, _, _, _ := newTestEngine(t, 400, 300, 800, 600, DefaultConfig())
	minScale := eng.FitScale()
	maxScale := 4.0 // max(fit*8, 1) = max(4, 1)

	for i := 0; i < 50; i++ {
		eng.Wheel(200, 150, -1)
	}
	if s := eng.Scale(); s > maxScale {
		t.Errorf("scale %v exceeds max %v", s, maxScale)
	}
	for i := 0; i < 100; i++ {
		eng.Wheel(200, 150, 1)
	}
	if s := eng.Scale(); s < minScale {
		t.Errorf("scale %v below min %v", s, minScale)
	}
	for i := 0; i < 50; i++ {
		eng.ZoomIn(false)
	}
	if s := eng.Scale(); s > maxScale {
		t.Errorf("ZoomIn pushed scale %v past max %v", s, maxScale)
	}
}

func TestRegionSimilarityIdempotence(t *testing.T) {
	eng, _, res, _ := newTestEngine(t, 400, 300, 800, 600, DefaultConfig())
	before := res.jobCount()

	// The visible region has not moved, so no debounce timer may be armed.
	eng.scheduleRegionUpdate()
	eng.scheduleRegionUpdate()
	if eng.debounce != nil {
		t.Error("expected no debounce timer for an unchanged region")
	}
	if res.jobCount() != before {
		t.Errorf("expected no new jobs, got %d", res.jobCount()-before)
	}
}

func TestResampleSupersession(t *testing.T) {
	eng, surf, res, _ := newTestEngine(t, 400, 300, 800, 600, DefaultConfig())

	eng.Wheel(200, 150, -1)
	eng.commitAndRequest()
	jobA := res.lastJob()

	eng.Wheel(200, 150, -1)
	eng.commitAndRequest()
	jobB := res.lastJob()
	if jobA.ID == jobB.ID {
		t.Fatal("expected distinct job ids")
	}

	eng.applyResample(resample.Result{ID: jobB.ID, Status: resample.TileCreated, Pixels: samplePixels(400, 300), Width: 400, Height: 300})
	currentTex := eng.current.tex
	if currentTex == nil {
		t.Fatal("expected job B result to be applied")
	}

	created := surf.created
	eng.applyResample(resample.Result{ID: jobA.ID, Status: resample.TileCreated, Pixels: samplePixels(400, 300), Width: 400, Height: 300})
	if surf.created != created {
		t.Error("stale result must not create a texture")
	}
	if eng.current.tex != currentTex {
		t.Error("stale result must not displace the current texture")
	}
}

func TestBoundaryClampAtFitScale(t *testing.T) {
	eng, _, _, _ := newTestEngine(t, 400, 300, 800, 600, DefaultConfig())

	eng.PointerDown(100, 100)
	eng.PointerMove(350, 280)
	eng.PointerMove(600, 500)
	if eng.tempX != 0 || eng.tempY != 0 {
		t.Errorf("temporary offset must clamp to zero at fit scale, got (%v,%v)", eng.tempX, eng.tempY)
	}
	eng.PointerUp(600, 500)
	if eng.state.TranslateX != 0 || eng.state.TranslateY != 0 {
		t.Errorf("translate must stay (0,0) at fit scale, got (%v,%v)", eng.state.TranslateX, eng.state.TranslateY)
	}
}

func TestPinchFixedPoint(t *testing.T) {
	eng, _, _, _ := newTestEngine(t, 400, 300, 400, 300, DefaultConfig())
	if eng.Scale() != 1.0 {
		t.Fatalf("expected fit scale 1.0, got %v", eng.Scale())
	}

	// Record which image point sits under canvas (100,100) before the pinch.
	before := eng.imagePointAt(100, 100)

	eng.PinchStart(100, 100, 100)
	eng.PinchMove(200)
	if got, want := eng.Scale(), 2.0; got != want {
		t.Errorf("pinch scale: got %v, want %v", got, want)
	}
	after := eng.imagePointAt(100, 100)
	if dx := after.x - before.x; dx > 1 || dx < -1 {
		t.Errorf("pinch center drifted in x by %v source pixels", dx)
	}
	if dy := after.y - before.y; dy > 1 || dy < -1 {
		t.Errorf("pinch center drifted in y by %v source pixels", dy)
	}
	eng.PinchEnd()
	if eng.gesture.kind != gestureIdle {
		t.Error("expected idle after pinch end")
	}
}

func TestDoubleTapToggle(t *testing.T) {
	eng, _, _, clk := newTestEngine(t, 400, 300, 800, 600, DefaultConfig())
	if eng.Scale() != 0.5 {
		t.Fatalf("expected fit scale 0.5, got %v", eng.Scale())
	}

	doubleTap := func() {
		eng.PointerDown(200, 150)
		eng.PointerUp(200, 150)
		clk.Advance(100 * time.Millisecond)
		eng.PointerDown(200, 150)
	}

	doubleTap()
	if !eng.Animating() {
		t.Fatal("expected animation after double tap")
	}
	clk.Advance(250 * time.Millisecond)
	eng.Tick(clk.Now())
	if !eng.OriginalSize() {
		t.Fatalf("expected 1:1 after first toggle, got scale %v", eng.Scale())
	}

	clk.Advance(time.Second)
	doubleTap()
	clk.Advance(250 * time.Millisecond)
	eng.Tick(clk.Now())
	if got, want := eng.Scale(), 0.5; got != want {
		t.Fatalf("expected return to fit scale %v, got %v", want, got)
	}
}

func TestAnimationEasesAndSnaps(t *testing.T) {
	eng, _, _, clk := newTestEngine(t, 400, 300, 800, 600, DefaultConfig())

	eng.ZoomIn(true)
	if !eng.Animating() {
		t.Fatal("expected animation")
	}
	start := eng.Scale()
	clk.Advance(100 * time.Millisecond)
	eng.Tick(clk.Now())
	mid := eng.Scale()
	if mid <= start {
		t.Errorf("expected scale to grow mid-animation: start %v, mid %v", start, mid)
	}
	clk.Advance(200 * time.Millisecond)
	eng.Tick(clk.Now())
	if eng.Animating() {
		t.Error("expected animation to finish")
	}
	if got, want := eng.Scale(), 0.5*1.2; !closeTo(got, want, 1e-9) {
		t.Errorf("expected exact snap to %v, got %v", want, got)
	}
}

func TestDebounceCoalescing(t *testing.T) {
	cfg := DefaultConfig()
	cfg.InitialScale = 2 // scale 1.0 so panning has room

	postCh := make(chan func(), 8)
	eng, _, res, _ := newTestEngine(t, 400, 300, 800, 600, cfg,
		WithDebounceInterval(50*time.Millisecond),
		WithPost(func(fn func()) { postCh <- fn }))

	before := res.jobCount()
	eng.PointerDown(200, 150)
	for i := 0; i < 5; i++ {
		eng.PointerMove(200-float64((i+1)*10), 150-float64((i+1)*10))
	}
	eng.PointerUp(150, 100)

	select {
	case fn := <-postCh:
		fn()
	case <-time.After(2 * time.Second):
		t.Fatal("debounce timer never fired")
	}
	if got := res.jobCount() - before; got != 1 {
		t.Fatalf("expected exactly one coalesced job, got %d", got)
	}
	job := res.lastJob()
	// Cumulative offset (-50,-50) at scale 1: region shifts to x0=250, y0=200.
	if job.SourceX != 250 || job.SourceY != 200 {
		t.Errorf("expected region from final offset (250,200), got (%d,%d)", job.SourceX, job.SourceY)
	}
	if job.SourceWidth != 400 || job.SourceHeight != 300 {
		t.Errorf("expected 400x300 region, got %dx%d", job.SourceWidth, job.SourceHeight)
	}

	select {
	case <-postCh:
		t.Fatal("expected a single debounce fire")
	case <-time.After(150 * time.Millisecond):
	}
}

func TestTextureDoubleBuffering(t *testing.T) {
	eng, surf, res, _ := newTestEngine(t, 400, 300, 800, 600, DefaultConfig())

	apply := func() {
		eng.Wheel(200, 150, -1)
		eng.commitAndRequest()
		job := res.lastJob()
		eng.applyResample(resample.Result{ID: job.ID, Status: resample.TileCreated, Pixels: samplePixels(100, 75), Width: 100, Height: 75})
	}

	apply()
	if surf.live != 1 {
		t.Fatalf("expected one live texture, got %d", surf.live)
	}
	apply()
	if surf.live != 2 {
		t.Fatalf("expected current+previous live, got %d", surf.live)
	}
	apply()
	if surf.live != 2 {
		t.Errorf("expected displaced texture to be released, live=%d", surf.live)
	}
	if surf.released != 1 {
		t.Errorf("expected one released texture, got %d", surf.released)
	}
}

func TestDestroyReleasesEverything(t *testing.T) {
	eng, surf, res, _ := newTestEngine(t, 400, 300, 800, 600, DefaultConfig())
	job := res.lastJob()
	eng.applyResample(resample.Result{ID: job.ID, Status: resample.LODCreated, Pixels: samplePixels(400, 300), Width: 400, Height: 300})

	eng.Destroy()
	if surf.live != 0 {
		t.Errorf("expected all textures released, live=%d", surf.live)
	}
	if !res.closed {
		t.Error("expected resampler to be closed")
	}

	// Idempotent, and late completions must not mutate state.
	eng.Destroy()
	publishes := surf.publishes
	eng.applyResample(resample.Result{ID: job.ID, Status: resample.LODCreated, Pixels: samplePixels(400, 300), Width: 400, Height: 300})
	eng.Render()
	eng.PointerDown(10, 10)
	eng.Wheel(10, 10, -1)
	if surf.publishes != publishes {
		t.Error("destroyed engine must not render")
	}
	if surf.live != 0 {
		t.Error("destroyed engine must not create textures")
	}
}

func TestResampleErrorKeepsStaleTexture(t *testing.T) {
	eng, surf, res, _ := newTestEngine(t, 400, 300, 800, 600, DefaultConfig())
	job := res.lastJob()
	eng.applyResample(resample.Result{ID: job.ID, Status: resample.LODCreated, Pixels: samplePixels(400, 300), Width: 400, Height: 300})
	tex := eng.current.tex

	eng.Wheel(200, 150, -1)
	eng.commitAndRequest()
	bad := res.lastJob()
	eng.applyResample(resample.Result{ID: bad.ID, Status: resample.TileError, Err: errors.New("scale failed")})
	if eng.current.tex != tex {
		t.Error("error result must leave the stale texture displayed")
	}
	if surf.live != 1 {
		t.Errorf("expected one live texture, got %d", surf.live)
	}
}

func TestZoomChangeCallback(t *testing.T) {
	var absolutes, relatives []float64
	eng, _, _, _ := newTestEngine(t, 400, 300, 800, 600, DefaultConfig(),
		WithZoomChangeListener(func(abs, rel float64) {
			absolutes = append(absolutes, abs)
			relatives = append(relatives, rel)
		}))

	eng.Wheel(200, 150, -1)
	if len(absolutes) == 0 {
		t.Fatal("expected zoom change callbacks")
	}
	last := len(absolutes) - 1
	if want := 0.5 * 1.2; !closeTo(absolutes[last], want, 1e-9) {
		t.Errorf("absolute scale: got %v, want %v", absolutes[last], want)
	}
	if want := 1.2; !closeTo(relatives[last], want, 1e-9) {
		t.Errorf("relative scale: got %v, want %v", relatives[last], want)
	}
}

func TestCopyImageFiresCallback(t *testing.T) {
	copied := false
	eng, _, _, _ := newTestEngine(t, 400, 300, 800, 600, DefaultConfig(),
		WithImageCopiedListener(func() { copied = true }))

	original := clipboardWriteImage
	clipboardWriteImage = func(image.Image) error { return nil }
	t.Cleanup(func() { clipboardWriteImage = original })

	if err := eng.CopyOriginalImageToClipboard(); err != nil {
		t.Fatalf("copy: %v", err)
	}
	if !copied {
		t.Error("expected OnImageCopied callback")
	}
}

func TestCopyImageUnsupportedIsSoftFailure(t *testing.T) {
	eng, _, _, _ := newTestEngine(t, 400, 300, 800, 600, DefaultConfig())

	original := clipboardWriteImage
	clipboardWriteImage = func(image.Image) error { return errors.New("no clipboard") }
	t.Cleanup(func() { clipboardWriteImage = original })

	if err := eng.CopyOriginalImageToClipboard(); err != nil {
		t.Errorf("clipboard failure must be swallowed, got %v", err)
	}
}

type imagePoint struct {
	x, y float64
}

// imagePointAt inverts the live transform for a canvas point.
func (e *Engine) imagePointAt(px, py float64) imagePoint {
	size := e.surf.Size()
	s := e.state.Scale
	tx := e.state.TranslateX + e.tempX
	ty := e.state.TranslateY + e.tempY
	return imagePoint{
		x: float64(e.imgW)/2 + (px-float64(size.X)/2-tx)/s,
		y: float64(e.imgH)/2 + (py-float64(size.Y)/2-ty)/s,
	}
}

func closeTo(a, b, eps float64) bool {
	d := a - b
	return d < eps && d > -eps
}
