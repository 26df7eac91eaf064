package surface

import (
	"image"
	"image/color"
	"image/draw"

	"golang.org/x/exp/shiny/screen"
)

// Shiny renders through a shiny screen/window pair. The window's event loop
// is owned by the caller; Shiny only issues draw calls.
type Shiny struct {
	scr  screen.Screen
	win  screen.Window
	size image.Point
	dpr  float64
}

// NewShiny wraps an existing window. size is the initial drawable area in
// physical pixels and dpr the device pixel ratio detected for the display.
func NewShiny(scr screen.Screen, win screen.Window, size image.Point, dpr float64) (*Shiny, error) {
	if scr == nil || win == nil {
		return nil, &ContextError{Op: "init", Err: errNilWindow}
	}
	if dpr <= 0 {
		dpr = 1.0
	}
	return &Shiny{scr: scr, win: win, size: size, dpr: dpr}, nil
}

var errNilWindow = errNil("nil screen or window")

type errNil string

func (e errNil) Error() string { return string(e) }

// SetSize records the new drawable area after a resize event.
func (s *Shiny) SetSize(size image.Point) {
	s.size = size
}

func (s *Shiny) Size() image.Point {
	return s.size
}

func (s *Shiny) DevicePixelRatio() float64 {
	return s.dpr
}

// NewTexture uploads img via a transient buffer. Buffer and texture creation
// failures come back as ContextError.
func (s *Shiny) NewTexture(img *image.RGBA) (Texture, error) {
	size := img.Bounds().Size()
	tex, err := s.scr.NewTexture(size)
	if err != nil {
		return nil, &ContextError{Op: "new texture", Err: err}
	}
	buf, err := s.scr.NewBuffer(size)
	if err != nil {
		tex.Release()
		return nil, &ContextError{Op: "new buffer", Err: err}
	}
	draw.Draw(buf.RGBA(), buf.Bounds(), img, img.Bounds().Min, draw.Src)
	tex.Upload(image.Point{}, buf, buf.Bounds())
	buf.Release()
	return &shinyTexture{tex: tex, size: size}, nil
}

func (s *Shiny) Fill(c color.Color) {
	s.win.Fill(image.Rectangle{Max: s.size}, c, draw.Src)
}

func (s *Shiny) Draw(t Texture, dst image.Rectangle) {
	st, ok := t.(*shinyTexture)
	if !ok || st.tex == nil {
		return
	}
	s.win.Scale(dst, st.tex, st.tex.Bounds(), draw.Over, nil)
}

func (s *Shiny) Publish() {
	s.win.Publish()
}

type shinyTexture struct {
	tex  screen.Texture
	size image.Point
}

func (t *shinyTexture) Size() image.Point {
	return t.size
}

func (t *shinyTexture) Release() {
	if t.tex != nil {
		t.tex.Release()
		t.tex = nil
	}
}
