package viewport

import "time"

// DoubleClickMode selects what a double click/tap does.
type DoubleClickMode string

const (
	// ModeToggle flips between the fit-to-screen scale and 1:1.
	ModeToggle DoubleClickMode = "toggle"
	// ModeZoom applies a fixed zoom step per double click.
	ModeZoom DoubleClickMode = "zoom"
)

// WheelConfig controls wheel/trackpad zoom.
type WheelConfig struct {
	// Step is the multiplicative zoom factor per wheel notch. Must be > 1.
	Step     float64
	Disabled bool
}

// PinchConfig controls two-finger pinch zoom.
type PinchConfig struct {
	// Step is an exponent applied to the raw distance ratio; 1 means the
	// pinch maps one to one onto scale.
	Step     float64
	Disabled bool
}

// DoubleClickConfig controls double click/tap zoom.
type DoubleClickConfig struct {
	// Step is the fractional zoom increment used in ModeZoom.
	Step          float64
	Mode          DoubleClickMode
	AnimationTime time.Duration
	Disabled      bool
}

// PanningConfig controls drag panning.
type PanningConfig struct {
	Disabled bool
}

// Config holds the engine options. Zero values are replaced by defaults at
// construction.
type Config struct {
	// InitialScale is a multiple of the fit-to-screen scale.
	InitialScale float64
	// MinScale/MaxScale bound the scale as multiples of the fit-to-screen
	// scale. The absolute maximum never drops below 1:1.
	MinScale float64
	MaxScale float64

	Wheel       WheelConfig
	Pinch       PinchConfig
	DoubleClick DoubleClickConfig
	Panning     PanningConfig

	// LimitToBounds keeps the image from being panned off screen and
	// force-centers it below the fit-to-screen scale.
	LimitToBounds bool
	// CenterOnInit zeroes the translation when an image loads.
	CenterOnInit bool
	// Smooth enables animated transitions.
	Smooth bool
	// Debug enables debug snapshot publishing.
	Debug bool
}

// DefaultConfig returns the configuration used when the host supplies
// nothing.
func DefaultConfig() Config {
	return Config{
		InitialScale: 1,
		MinScale:     1,
		MaxScale:     8,
		Wheel:        WheelConfig{Step: 1.2},
		Pinch:        PinchConfig{Step: 1},
		DoubleClick: DoubleClickConfig{
			Step:          0.7,
			Mode:          ModeToggle,
			AnimationTime: 200 * time.Millisecond,
		},
		LimitToBounds: true,
		CenterOnInit:  true,
		Smooth:        true,
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.InitialScale <= 0 {
		c.InitialScale = def.InitialScale
	}
	if c.MinScale <= 0 {
		c.MinScale = def.MinScale
	}
	if c.MaxScale <= 0 {
		c.MaxScale = def.MaxScale
	}
	if c.Wheel.Step <= 1 {
		c.Wheel.Step = def.Wheel.Step
	}
	if c.Pinch.Step <= 0 {
		c.Pinch.Step = def.Pinch.Step
	}
	if c.DoubleClick.Step <= 0 {
		c.DoubleClick.Step = def.DoubleClick.Step
	}
	if c.DoubleClick.Mode == "" {
		c.DoubleClick.Mode = def.DoubleClick.Mode
	}
	if c.DoubleClick.AnimationTime <= 0 {
		c.DoubleClick.AnimationTime = def.DoubleClick.AnimationTime
	}
	return c
}
