// Package source decodes the viewer's input image. PNG, JPEG and GIF come
// from the standard library; WebP, BMP and TIFF are registered through
// golang.org/x/image.
package source

import (
	"fmt"
	"image"
	"image/draw"
	"io"
	"os"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Descriptor identifies a source image. Exactly one of Path or Reader must
// be set. KnownWidth/KnownHeight, when non-zero, let the engine compute the
// fit-to-screen scale before the decode finishes.
type Descriptor struct {
	Path   string
	Reader io.Reader

	KnownWidth  int
	KnownHeight int
}

// DecodeError wraps a failure to read or decode the source image.
type DecodeError struct {
	Name string
	Err  error
}

func (e *DecodeError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("decode image: %v", e.Err)
	}
	return fmt.Sprintf("decode image %s: %v", e.Name, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Decode reads and decodes the descriptor into an RGBA buffer.
func Decode(desc Descriptor) (*image.RGBA, error) {
	r := desc.Reader
	name := desc.Path
	if r == nil {
		if desc.Path == "" {
			return nil, &DecodeError{Err: fmt.Errorf("descriptor has neither path nor reader")}
		}
		f, err := os.Open(desc.Path)
		if err != nil {
			return nil, &DecodeError{Name: name, Err: err}
		}
		defer f.Close()
		r = f
	}

	img, _, err := image.Decode(r)
	if err != nil {
		return nil, &DecodeError{Name: name, Err: err}
	}
	if rgba, ok := img.(*image.RGBA); ok && rgba.Bounds().Min == (image.Point{}) {
		return rgba, nil
	}
	b := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	return rgba, nil
}
