package viewport

// DebugSnapshot is a point-in-time view of the engine internals, published
// after each rendered frame when debug mode is on.
type DebugSnapshot struct {
	Scale      float64 `json:"scale"`
	FitScale   float64 `json:"fitScale"`
	TranslateX float64 `json:"translateX"`
	TranslateY float64 `json:"translateY"`
	TempX      float64 `json:"tempX"`
	TempY      float64 `json:"tempY"`

	CanvasWidth  int `json:"canvasWidth"`
	CanvasHeight int `json:"canvasHeight"`
	ImageWidth   int `json:"imageWidth"`
	ImageHeight  int `json:"imageHeight"`

	TextureCount int   `json:"textureCount"`
	TextureBytes int64 `json:"textureBytes"`

	VisibleRegion Region `json:"visibleRegion"`
	LiveJobID     int64  `json:"liveJobId"`
	Gesture       string `json:"gesture"`
}

// Snapshot captures the current engine state.
func (e *Engine) Snapshot() DebugSnapshot {
	size := e.surf.Size()
	return DebugSnapshot{
		Scale:         e.state.Scale,
		FitScale:      e.fitScale,
		TranslateX:    e.state.TranslateX,
		TranslateY:    e.state.TranslateY,
		TempX:         e.tempX,
		TempY:         e.tempY,
		CanvasWidth:   size.X,
		CanvasHeight:  size.Y,
		ImageWidth:    e.imgW,
		ImageHeight:   e.imgH,
		TextureCount:  e.textureCount,
		TextureBytes:  e.textureBytes,
		VisibleRegion: e.visibleRegion(),
		LiveJobID:     e.liveJobID,
		Gesture:       e.gesture.kind.String(),
	}
}

func (e *Engine) publishDebug() {
	if e.cfg.Debug && e.onDebugUpdate != nil {
		e.onDebugUpdate(e.Snapshot())
	}
}

func (k gestureKind) String() string {
	switch k {
	case gestureDragging:
		return "dragging"
	case gesturePinching:
		return "pinching"
	case gestureAnimating:
		return "animating"
	default:
		return "idle"
	}
}
