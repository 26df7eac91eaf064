package resample

import (
	"bytes"
	"image"
	"image/color"
	"testing"
	"time"
)

func gradientImage(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: uint8(x + y), A: 255})
		}
	}
	return img
}

func awaitResult(t *testing.T, w *Worker) Result {
	t.Helper()
	select {
	case res := <-w.Results():
		return res
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for worker result")
	}
	return Result{}
}

func TestTileExactFastPathReturnsInputUnchanged(t *testing.T) {
	src := gradientImage(64, 48)
	w := NewWorker()
	defer w.Close()

	w.Submit(Job{
		ID:           1,
		Kind:         CreateTile,
		Source:       src,
		TargetWidth:  64,
		TargetHeight: 48,
		SourceWidth:  64,
		SourceHeight: 48,
	})
	res := awaitResult(t, w)
	if res.Status != TileCreated {
		t.Fatalf("expected TileCreated, got %v (err=%v)", res.Status, res.Err)
	}
	if res.Pixels != src {
		t.Error("expected the exact fast path to return the input buffer")
	}
	if !bytes.Equal(res.Pixels.Pix, src.Pix) {
		t.Error("expected pixel-identical output")
	}
}

func TestTileOffsetCopy(t *testing.T) {
	src := gradientImage(64, 64)
	w := NewWorker()
	defer w.Close()

	w.Submit(Job{
		ID:           2,
		Kind:         CreateTile,
		Source:       src,
		TargetWidth:  16,
		TargetHeight: 16,
		SourceX:      10,
		SourceY:      20,
		SourceWidth:  16,
		SourceHeight: 16,
	})
	res := awaitResult(t, w)
	if res.Status != TileCreated {
		t.Fatalf("expected TileCreated, got %v (err=%v)", res.Status, res.Err)
	}
	if res.Width != 16 || res.Height != 16 {
		t.Fatalf("expected 16x16 tile, got %dx%d", res.Width, res.Height)
	}
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			got := res.Pixels.RGBAAt(x, y)
			want := src.RGBAAt(x+10, y+20)
			if got != want {
				t.Fatalf("pixel (%d,%d): got %v, want %v", x, y, got, want)
			}
		}
	}
}

func TestTileNearestNeighborResample(t *testing.T) {
	src := gradientImage(100, 100)
	w := NewWorker()
	defer w.Close()

	w.Submit(Job{
		ID:           3,
		Kind:         CreateTile,
		Source:       src,
		TargetWidth:  50,
		TargetHeight: 50,
		SourceWidth:  100,
		SourceHeight: 100,
	})
	res := awaitResult(t, w)
	if res.Status != TileCreated {
		t.Fatalf("expected TileCreated, got %v (err=%v)", res.Status, res.Err)
	}
	if res.Width != 50 || res.Height != 50 {
		t.Fatalf("expected 50x50 output, got %dx%d", res.Width, res.Height)
	}
	// 2:1 nearest neighbor picks every other source pixel.
	if got, want := res.Pixels.RGBAAt(10, 10), src.RGBAAt(20, 20); got != want {
		t.Errorf("pixel (10,10): got %v, want %v", got, want)
	}
}

func TestTileOutsideBoundsFails(t *testing.T) {
	src := gradientImage(32, 32)
	w := NewWorker()
	defer w.Close()

	w.Submit(Job{
		ID:           4,
		Kind:         CreateTile,
		Source:       src,
		TargetWidth:  10,
		TargetHeight: 10,
		SourceX:      20,
		SourceY:      20,
		SourceWidth:  30,
		SourceHeight: 30,
	})
	res := awaitResult(t, w)
	if res.Status != TileError {
		t.Fatalf("expected TileError, got %v", res.Status)
	}
	if res.Err == nil {
		t.Fatal("expected an error for out-of-bounds source rectangle")
	}
	if res.ID != 4 {
		t.Errorf("error result must carry the job id, got %d", res.ID)
	}
}

func TestErrorDoesNotBlockSubsequentJobs(t *testing.T) {
	src := gradientImage(32, 32)
	w := NewWorker()
	defer w.Close()

	w.Submit(Job{ID: 5, Kind: CreateLOD, Source: nil, TargetWidth: 10, TargetHeight: 10})
	w.Submit(Job{ID: 6, Kind: CreateLOD, Source: src, TargetWidth: 16, TargetHeight: 16})

	first := awaitResult(t, w)
	if first.Status != LODError || first.ID != 5 {
		t.Fatalf("expected LODError for job 5, got %v id=%d", first.Status, first.ID)
	}
	second := awaitResult(t, w)
	if second.Status != LODCreated || second.ID != 6 {
		t.Fatalf("expected LODCreated for job 6, got %v id=%d (err=%v)", second.Status, second.ID, second.Err)
	}
}

func TestLODMultiStepDownscale(t *testing.T) {
	src := gradientImage(1024, 1024)
	w := NewWorker()
	defer w.Close()

	w.Submit(Job{ID: 7, Kind: CreateLOD, Source: src, TargetWidth: 100, TargetHeight: 100, Quality: QualityHigh})
	res := awaitResult(t, w)
	if res.Status != LODCreated {
		t.Fatalf("expected LODCreated, got %v (err=%v)", res.Status, res.Err)
	}
	if res.Width != 100 || res.Height != 100 {
		t.Fatalf("expected 100x100 output, got %dx%d", res.Width, res.Height)
	}
}

func TestLODUpscale(t *testing.T) {
	src := gradientImage(20, 20)
	w := NewWorker()
	defer w.Close()

	w.Submit(Job{ID: 8, Kind: CreateLOD, Source: src, TargetWidth: 200, TargetHeight: 200, Quality: QualityLow})
	res := awaitResult(t, w)
	if res.Status != LODCreated {
		t.Fatalf("expected LODCreated, got %v (err=%v)", res.Status, res.Err)
	}
	if res.Width != 200 || res.Height != 200 {
		t.Fatalf("expected 200x200 output, got %dx%d", res.Width, res.Height)
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	w := NewWorker()
	w.Close()
	w.Close()
	if _, ok := <-w.Results(); ok {
		t.Error("expected result channel to be closed")
	}
	// Submitting after close must not block.
	done := make(chan struct{})
	go func() {
		w.Submit(Job{ID: 9, Kind: CreateTile})
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Submit blocked after Close")
	}
}
