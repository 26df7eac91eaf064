//go:build linux || freebsd || openbsd || netbsd || dragonfly

package platform

import (
	"fmt"
	"math"

	"github.com/jezek/xgb"
	"github.com/jezek/xgb/randr"
	"github.com/jezek/xgb/xproto"
)

// baselineDPI is the density a device pixel ratio of 1.0 corresponds to.
const baselineDPI = 96.0

// DevicePixelRatio probes the primary output through the X RandR extension
// and derives the pixel density from its physical size. Callers should fall
// back to 1.0 on error.
func DevicePixelRatio() (float64, error) {
	conn, err := xgb.NewConn()
	if err != nil {
		return 0, fmt.Errorf("connect X server: %w", err)
	}
	defer conn.Close()

	setup := xproto.Setup(conn)
	if setup == nil {
		return 0, fmt.Errorf("xproto setup unavailable")
	}
	screen := setup.DefaultScreen(conn)
	if screen == nil {
		return 0, fmt.Errorf("xproto screen unavailable")
	}

	if err := randr.Init(conn); err != nil {
		return 0, fmt.Errorf("init randr: %w", err)
	}

	res, err := randr.GetScreenResourcesCurrent(conn, screen.Root).Reply()
	if err != nil {
		return 0, fmt.Errorf("screen resources: %w", err)
	}
	primary, err := randr.GetOutputPrimary(conn, screen.Root).Reply()
	if err != nil {
		return 0, fmt.Errorf("primary output: %w", err)
	}

	outputs := res.Outputs
	if primary != nil && primary.Output != 0 {
		outputs = append([]randr.Output{primary.Output}, outputs...)
	}
	for _, output := range outputs {
		info, err := randr.GetOutputInfo(conn, output, res.ConfigTimestamp).Reply()
		if err != nil || info.Connection != randr.ConnectionConnected || info.Crtc == 0 {
			continue
		}
		if info.MmWidth == 0 {
			continue
		}
		crtc, err := randr.GetCrtcInfo(conn, info.Crtc, res.ConfigTimestamp).Reply()
		if err != nil || crtc.Width == 0 {
			continue
		}
		dpi := float64(crtc.Width) / (float64(info.MmWidth) / 25.4)
		return clampRatio(dpi / baselineDPI), nil
	}
	return 0, fmt.Errorf("no connected output with physical dimensions")
}

// clampRatio snaps implausible densities back into the range real displays
// report, then rounds to a quarter step so neighbouring monitors agree.
func clampRatio(r float64) float64 {
	if r < 0.5 {
		r = 0.5
	}
	if r > 4 {
		r = 4
	}
	return math.Round(r*4) / 4
}
