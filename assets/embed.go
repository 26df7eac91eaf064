package assets

import (
	"bytes"
	"embed"
	"fmt"
	"image"
	"image/png"
	"io/fs"
	"path"
	"strconv"
	"strings"
	"sync"
)

// Embedded placeholder images shown while a source is still loading.
//
//go:embed images/*.png
var embeddedImages embed.FS

var (
	loadOnce sync.Once
	loadErr  error

	placeholderImages = map[int]image.Image{}
	placeholderData   = map[int][]byte{}
)

func loadImages() {
	entries, err := fs.ReadDir(embeddedImages, "images")
	if err != nil {
		loadErr = err
		return
	}
	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasSuffix(name, ".png") {
			continue
		}
		data, err := embeddedImages.ReadFile(path.Join("images", name))
		if err != nil {
			loadErr = err
			return
		}
		base := strings.TrimSuffix(name, ".png")
		idx := strings.LastIndex(base, "-")
		if idx == -1 || idx == len(base)-1 {
			continue
		}
		size, err := strconv.Atoi(base[idx+1:])
		if err != nil {
			continue
		}
		img, err := png.Decode(bytes.NewReader(data))
		if err != nil {
			loadErr = err
			return
		}
		placeholderImages[size] = img
		placeholderData[size] = append([]byte(nil), data...)
	}
}

func ensureImages() error {
	loadOnce.Do(loadImages)
	return loadErr
}

// Placeholder returns the decoded placeholder tile of the requested size.
func Placeholder(size int) (image.Image, error) {
	if err := ensureImages(); err != nil {
		return nil, err
	}
	img, ok := placeholderImages[size]
	if !ok {
		return nil, fmt.Errorf("placeholder %dpx not embedded", size)
	}
	return img, nil
}

// PlaceholderPNG returns a copy of the raw PNG bytes for the requested size.
func PlaceholderPNG(size int) ([]byte, error) {
	if err := ensureImages(); err != nil {
		return nil, err
	}
	data, ok := placeholderData[size]
	if !ok {
		return nil, fmt.Errorf("placeholder %dpx not embedded", size)
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}
