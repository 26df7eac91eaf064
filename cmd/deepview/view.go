package main

import (
	"flag"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"log"
	"math"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/exp/shiny/driver"
	"golang.org/x/exp/shiny/screen"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"golang.org/x/mobile/event/key"
	"golang.org/x/mobile/event/lifecycle"
	"golang.org/x/mobile/event/mouse"
	"golang.org/x/mobile/event/paint"
	"golang.org/x/mobile/event/size"
	"golang.org/x/mobile/event/touch"

	"github.com/example/deepview/assets"
	"github.com/example/deepview/internal/debugview"
	"github.com/example/deepview/internal/platform"
	"github.com/example/deepview/internal/resample"
	"github.com/example/deepview/internal/source"
	"github.com/example/deepview/internal/surface"
	"github.com/example/deepview/internal/viewport"
)

const (
	defaultWindowWidth  = 1024
	defaultWindowHeight = 768
	frameInterval       = 16 * time.Millisecond
)

// applyEvent carries a closure onto the render thread through the window's
// event queue.
type applyEvent struct {
	fn func()
}

// tickEvent drives the animation while one is running.
type tickEvent struct{}

type viewCmd struct {
	*root
	fs        *flag.FlagSet
	imagePath string
}

func parseViewCmd(args []string, r *root) (*viewCmd, error) {
	fs := flag.NewFlagSet("view", flag.ExitOnError)
	cmd := &viewCmd{root: r, fs: fs}
	fs.Usage = usageFunc(cmd)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() != 1 {
		return nil, &UsageError{of: cmd}
	}
	cmd.imagePath = fs.Arg(0)
	return cmd, nil
}

func (v *viewCmd) FlagSet() *flag.FlagSet {
	return v.fs
}

func (v *viewCmd) Program() string {
	return v.root.program + " view"
}

func (v *viewCmd) Run() error {
	if _, err := os.Stat(v.imagePath); err != nil {
		return fmt.Errorf("open image: %w", err)
	}

	var debugSrv *debugview.Server
	if v.debug {
		srv, err := debugview.New(v.debugAddr)
		if err != nil {
			return fmt.Errorf("start debug server: %w", err)
		}
		debugSrv = srv
		defer debugSrv.Close()
	}

	dpr := devicePixelRatio()

	driver.Main(func(s screen.Screen) {
		w, err := s.NewWindow(&screen.NewWindowOptions{
			Width:  defaultWindowWidth,
			Height: defaultWindowHeight,
			Title:  "DeepView - " + filepath.Base(v.imagePath),
		})
		if err != nil {
			log.Fatalf("new window: %v", err)
		}
		defer w.Release()

		surf, err := surface.NewShiny(s, w, image.Pt(defaultWindowWidth, defaultWindowHeight), dpr)
		if err != nil {
			log.Fatalf("init surface: %v", err)
		}

		opts := []viewport.Option{
			viewport.WithPost(func(fn func()) { w.Send(applyEvent{fn: fn}) }),
			viewport.WithImageCopiedListener(func() {
				v.notifyCopy(filepath.Base(v.imagePath))
			}),
			viewport.WithLoadingStateListener(func(loading bool, message, quality string) {
				if loading {
					log.Printf("loading %s", v.imagePath)
				} else if message != "" {
					log.Printf("load failed: %s", message)
				}
			}),
		}
		if debugSrv != nil {
			opts = append(opts, viewport.WithDebugListener(debugSrv.Publish))
		}

		eng, err := viewport.New(surf, resample.NewWorker(), v.config.Viewport(), opts...)
		if err != nil {
			log.Fatalf("init engine: %v", err)
		}
		defer eng.Destroy()

		showPlaceholder(surf, "Loading "+filepath.Base(v.imagePath)+"...")

		if err := eng.Load(source.Descriptor{Path: v.imagePath}); err != nil {
			log.Printf("%v", err)
			return
		}
		v.notifyLoad(filepath.Base(v.imagePath), nil)

		var pinch pinchTracker
		tickArmed := false
		pumpAnimation := func() {
			if eng.Animating() && !tickArmed {
				tickArmed = true
				time.AfterFunc(frameInterval, func() { w.Send(tickEvent{}) })
			}
		}

		for {
			switch e := w.NextEvent().(type) {
			case lifecycle.Event:
				if e.To == lifecycle.StageDead {
					return
				}
			case applyEvent:
				e.fn()
			case tickEvent:
				tickArmed = false
				eng.Tick(time.Now())
				pumpAnimation()
			case size.Event:
				surf.SetSize(e.Size())
				eng.Resize()
			case paint.Event:
				eng.Render()
			case mouse.Event:
				handleMouse(eng, e)
				pumpAnimation()
			case touch.Event:
				pinch.handle(eng, e)
			case key.Event:
				if e.Direction != key.DirPress {
					continue
				}
				switch {
				case e.Rune == '+' || e.Rune == '=':
					eng.ZoomIn(true)
				case e.Rune == '-':
					eng.ZoomOut(true)
				case e.Rune == '0':
					eng.ResetView()
				case e.Rune == 'c' || e.Rune == 'C':
					if err := eng.CopyOriginalImageToClipboard(); err != nil {
						log.Printf("%v", err)
					}
				case e.Rune == 'q' || e.Rune == 'Q' || e.Code == key.CodeEscape:
					return
				}
				pumpAnimation()
			}
		}
	})
	return nil
}

func handleMouse(eng *viewport.Engine, e mouse.Event) {
	x, y := float64(e.X), float64(e.Y)
	switch e.Button {
	// Wheel buttons arrive as press/release pairs; zoom once per notch.
	case mouse.ButtonWheelUp:
		if e.Direction == mouse.DirPress {
			eng.Wheel(x, y, -1)
		}
	case mouse.ButtonWheelDown:
		if e.Direction == mouse.DirPress {
			eng.Wheel(x, y, 1)
		}
	case mouse.ButtonLeft:
		switch e.Direction {
		case mouse.DirPress:
			eng.PointerDown(x, y)
		case mouse.DirRelease:
			eng.PointerUp(x, y)
		}
	default:
		if e.Direction == mouse.DirNone {
			eng.PointerMove(x, y)
		}
	}
}

// touchGestures is the slice of the engine the touch router drives. The
// production implementation is *viewport.Engine.
type touchGestures interface {
	PointerDown(x, y float64)
	PointerMove(x, y float64)
	PointerUp(x, y float64)
	PinchStart(cx, cy, distance float64)
	PinchMove(distance float64)
	PinchEnd()
}

// pinchTracker routes raw touch sequences to the engine. A lone touch drives
// the pointer gestures (drag, double tap); a second touch promotes the pair
// to a pinch, which the first two live touches define until one lifts. Extra
// fingers are ignored, and once a pinch starts the pointer stays silent until
// every finger has lifted.
type pinchTracker struct {
	order  []touch.Sequence
	points map[touch.Sequence]image.Point
	active bool

	pointerSeq  touch.Sequence
	pointerLive bool
}

func (p *pinchTracker) handle(eng touchGestures, e touch.Event) {
	if p.points == nil {
		p.points = make(map[touch.Sequence]image.Point)
	}
	x, y := float64(e.X), float64(e.Y)
	pt := image.Pt(int(e.X), int(e.Y))
	switch e.Type {
	case touch.TypeBegin:
		if _, ok := p.points[e.Sequence]; !ok {
			p.order = append(p.order, e.Sequence)
		}
		p.points[e.Sequence] = pt
		switch {
		case len(p.order) == 1:
			p.pointerSeq = e.Sequence
			p.pointerLive = true
			eng.PointerDown(x, y)
		case len(p.order) == 2 && !p.active:
			cx, cy, d := p.geometry()
			if d > 0 {
				// PinchStart supersedes the drag the first finger began.
				p.pointerLive = false
				eng.PinchStart(cx, cy, d)
				p.active = true
			}
		}
	case touch.TypeMove:
		if _, ok := p.points[e.Sequence]; !ok {
			return
		}
		p.points[e.Sequence] = pt
		if p.active {
			if p.inPinch(e.Sequence) {
				if _, _, d := p.geometry(); d > 0 {
					eng.PinchMove(d)
				}
			}
		} else if p.pointerLive && e.Sequence == p.pointerSeq {
			eng.PointerMove(x, y)
		}
	case touch.TypeEnd:
		delete(p.points, e.Sequence)
		for i, seq := range p.order {
			if seq == e.Sequence {
				p.order = append(p.order[:i], p.order[i+1:]...)
				break
			}
		}
		if p.active {
			if len(p.order) < 2 {
				eng.PinchEnd()
				p.active = false
			}
		} else if p.pointerLive && e.Sequence == p.pointerSeq {
			p.pointerLive = false
			eng.PointerUp(x, y)
		}
	}
}

// inPinch reports whether seq is one of the two touches defining the pinch.
func (p *pinchTracker) inPinch(seq touch.Sequence) bool {
	return len(p.order) >= 2 && (seq == p.order[0] || seq == p.order[1])
}

// geometry returns the center and distance of the first two tracked touches.
func (p *pinchTracker) geometry() (cx, cy, dist float64) {
	a := p.points[p.order[0]]
	b := p.points[p.order[1]]
	cx = float64(a.X+b.X) / 2
	cy = float64(a.Y+b.Y) / 2
	dist = math.Hypot(float64(a.X-b.X), float64(a.Y-b.Y))
	return cx, cy, dist
}

// showPlaceholder paints the embedded placeholder tile centered on a black
// frame, with the loading message beneath it, so the window is not blank
// while the image decodes.
func showPlaceholder(surf *surface.Shiny, msg string) {
	img, err := assets.Placeholder(32)
	if err != nil {
		return
	}
	b := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	tex, err := surf.NewTexture(rgba)
	if err != nil {
		return
	}
	defer tex.Release()

	size := surf.Size()
	dst := image.Rect(
		(size.X-b.Dx())/2, (size.Y-b.Dy())/2,
		(size.X+b.Dx())/2, (size.Y+b.Dy())/2,
	)
	surf.Fill(color.Black)
	surf.Draw(tex, dst)

	if banner := loadingBanner(msg); banner != nil {
		if btex, err := surf.NewTexture(banner); err == nil {
			bb := banner.Bounds()
			bdst := image.Rect(
				(size.X-bb.Dx())/2, dst.Max.Y+12,
				(size.X+bb.Dx())/2, dst.Max.Y+12+bb.Dy(),
			)
			surf.Draw(btex, bdst)
			btex.Release()
		}
	}
	surf.Publish()
}

// loadingBanner renders msg white-on-transparent with the builtin 7x13 face.
func loadingBanner(msg string) *image.RGBA {
	if msg == "" {
		return nil
	}
	face := basicfont.Face7x13
	w := font.MeasureString(face, msg).Ceil() + 8
	banner := image.NewRGBA(image.Rect(0, 0, w, face.Height+8))
	d := &font.Drawer{
		Dst:  banner,
		Src:  image.White,
		Face: face,
		Dot:  fixed.P(4, face.Ascent+4),
	}
	d.DrawString(msg)
	return banner
}

// devicePixelRatio asks the display server for the primary output's density
// and falls back to 1.0 when the probe is unavailable.
func devicePixelRatio() float64 {
	dpr, err := platform.DevicePixelRatio()
	if err != nil || dpr <= 0 {
		return 1.0
	}
	return dpr
}
