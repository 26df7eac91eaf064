// Package config loads the viewer configuration from an RC file. Keys in the
// root section control the zoom range and view behavior; gesture sections
// tune or disable individual input paths.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/example/deepview/internal/viewport"
)

// Notify holds desktop notification settings.
type Notify struct {
	Copy bool
	Load bool
}

// Wheel configures mouse wheel zooming.
type Wheel struct {
	Step     float64
	Disabled bool
}

// Pinch configures pinch zooming. Step is an exponent applied to the pinch
// ratio; 1 tracks the fingers exactly.
type Pinch struct {
	Step     float64
	Disabled bool
}

// DoubleClick configures double tap zooming. Mode is "toggle" or "zoom".
type DoubleClick struct {
	Step          float64
	Mode          string
	AnimationTime time.Duration
	Disabled      bool
}

// Panning configures drag panning.
type Panning struct {
	Disabled bool
}

// Config holds the application configuration.
type Config struct {
	InitialScale float64
	MinScale     float64
	MaxScale     float64

	LimitToBounds bool
	CenterOnInit  bool
	Smooth        bool

	Debug     bool
	DebugAddr string

	Wheel       Wheel
	Pinch       Pinch
	DoubleClick DoubleClick
	Panning     Panning
	Notify      Notify
}

// New creates a new Config with defaults.
func New() *Config {
	return &Config{
		InitialScale:  1,
		MinScale:      1,
		MaxScale:      8,
		LimitToBounds: true,
		CenterOnInit:  true,
		Smooth:        true,
		DebugAddr:     "localhost:0",
		Wheel:         Wheel{Step: 1.2},
		Pinch:         Pinch{Step: 1},
		DoubleClick: DoubleClick{
			Step:          0.7,
			Mode:          "toggle",
			AnimationTime: 200 * time.Millisecond,
		},
	}
}

// Viewport converts the file representation into the engine configuration.
func (c *Config) Viewport() viewport.Config {
	mode := viewport.ModeToggle
	if strings.EqualFold(c.DoubleClick.Mode, "zoom") {
		mode = viewport.ModeZoom
	}
	return viewport.Config{
		InitialScale:  c.InitialScale,
		MinScale:      c.MinScale,
		MaxScale:      c.MaxScale,
		LimitToBounds: c.LimitToBounds,
		CenterOnInit:  c.CenterOnInit,
		Smooth:        c.Smooth,
		Debug:         c.Debug,
		Wheel:         viewport.WheelConfig{Step: c.Wheel.Step, Disabled: c.Wheel.Disabled},
		Pinch:         viewport.PinchConfig{Step: c.Pinch.Step, Disabled: c.Pinch.Disabled},
		DoubleClick: viewport.DoubleClickConfig{
			Step:          c.DoubleClick.Step,
			Mode:          mode,
			AnimationTime: c.DoubleClick.AnimationTime,
			Disabled:      c.DoubleClick.Disabled,
		},
		Panning: viewport.PanningConfig{Disabled: c.Panning.Disabled},
	}
}

// String implements fmt.Stringer and returns the configuration in RC format.
func (c *Config) String() string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "initial_scale = %g\n", c.InitialScale)
	fmt.Fprintf(&sb, "min_scale = %g\n", c.MinScale)
	fmt.Fprintf(&sb, "max_scale = %g\n", c.MaxScale)
	fmt.Fprintf(&sb, "limit_to_bounds = %v\n", c.LimitToBounds)
	fmt.Fprintf(&sb, "center_on_init = %v\n", c.CenterOnInit)
	fmt.Fprintf(&sb, "smooth = %v\n", c.Smooth)
	fmt.Fprintf(&sb, "debug = %v\n", c.Debug)
	if c.DebugAddr != "" {
		fmt.Fprintf(&sb, "debug_addr = %s\n", c.DebugAddr)
	}
	sb.WriteString("\n")

	sb.WriteString("[wheel]\n")
	fmt.Fprintf(&sb, "step = %g\n", c.Wheel.Step)
	fmt.Fprintf(&sb, "disabled = %v\n", c.Wheel.Disabled)
	sb.WriteString("\n")

	sb.WriteString("[pinch]\n")
	fmt.Fprintf(&sb, "step = %g\n", c.Pinch.Step)
	fmt.Fprintf(&sb, "disabled = %v\n", c.Pinch.Disabled)
	sb.WriteString("\n")

	sb.WriteString("[double_click]\n")
	fmt.Fprintf(&sb, "step = %g\n", c.DoubleClick.Step)
	fmt.Fprintf(&sb, "mode = %s\n", c.DoubleClick.Mode)
	fmt.Fprintf(&sb, "animation_time = %s\n", c.DoubleClick.AnimationTime)
	fmt.Fprintf(&sb, "disabled = %v\n", c.DoubleClick.Disabled)
	sb.WriteString("\n")

	sb.WriteString("[panning]\n")
	fmt.Fprintf(&sb, "disabled = %v\n", c.Panning.Disabled)
	sb.WriteString("\n")

	sb.WriteString("[notify]\n")
	fmt.Fprintf(&sb, "copy = %v\n", c.Notify.Copy)
	fmt.Fprintf(&sb, "load = %v\n", c.Notify.Load)
	sb.WriteString("\n")

	return sb.String()
}
