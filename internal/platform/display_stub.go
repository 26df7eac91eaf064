//go:build !(linux || freebsd || openbsd || netbsd || dragonfly)

package platform

import "fmt"

// DevicePixelRatio is unavailable without an X connection; callers fall back
// to the toolkit-reported ratio.
func DevicePixelRatio() (float64, error) {
	return 0, fmt.Errorf("device pixel ratio probing is not supported on this platform")
}
