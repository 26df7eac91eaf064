// Package surface abstracts the render target the viewport engine draws to.
// The production implementation wraps a shiny screen/window pair; tests use
// in-memory fakes. Textures have an explicit Release lifecycle and are only
// ever touched from the render thread.
package surface

import (
	"fmt"
	"image"
	"image/color"
)

// Texture is a render-target-resident pixel rectangle.
type Texture interface {
	// Size returns the texture dimensions in pixels.
	Size() image.Point
	// Release frees the texture. The texture must not be drawn afterwards.
	Release()
}

// Surface is the drawing target for the viewport engine. All methods must be
// called from the render thread.
type Surface interface {
	// Size returns the drawable area in physical pixels.
	Size() image.Point
	// DevicePixelRatio reports physical pixels per logical pixel.
	DevicePixelRatio() float64
	// NewTexture uploads img into a new texture.
	NewTexture(img *image.RGBA) (Texture, error)
	// Fill paints the whole surface with c.
	Fill(c color.Color)
	// Draw scales t onto the destination rectangle.
	Draw(t Texture, dst image.Rectangle)
	// Publish flushes the frame to the screen.
	Publish()
}

// ContextError reports a failure to create or use the underlying render
// context. Construction-time context errors are fatal to the caller.
type ContextError struct {
	Op  string
	Err error
}

func (e *ContextError) Error() string {
	return fmt.Sprintf("render context: %s: %v", e.Op, e.Err)
}

func (e *ContextError) Unwrap() error {
	return e.Err
}
