// Package resample produces level-of-detail and tile pixel buffers for the
// viewport engine. All work happens on a dedicated goroutine so the render
// thread never blocks on pixel processing; requests and results travel over
// channels and carry a job id so the requester can discard stale results.
package resample

import (
	"fmt"
	"image"
	"sync"
)

// Kind selects the processing a Job requests.
type Kind int

const (
	// CreateLOD rescales the whole source image to the target size.
	CreateLOD Kind = iota
	// CreateTile crops a source sub-rectangle and resamples it to the
	// target size.
	CreateTile
)

// Status tags a Result with the outcome of its Job.
type Status int

const (
	LODCreated Status = iota
	TileCreated
	LODError
	TileError
)

// Job describes a single resample request. SourceX/Y/Width/Height are only
// meaningful for CreateTile.
type Job struct {
	ID           int64
	Kind         Kind
	Source       *image.RGBA
	TargetWidth  int
	TargetHeight int
	Quality      Quality

	SourceX      int
	SourceY      int
	SourceWidth  int
	SourceHeight int
}

// Result carries the outcome of a Job back to the requester. Err is set for
// the error statuses; Pixels for the success ones. ID always matches the
// originating Job so outdated responses can be dropped.
type Result struct {
	ID     int64
	Status Status
	Pixels *image.RGBA
	Width  int
	Height int
	Err    error
}

// Worker processes resample jobs sequentially on its own goroutine. A job
// that has started is always finished; supersession is the caller's concern.
type Worker struct {
	jobs      chan Job
	results   chan Result
	quit      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// NewWorker starts the processing goroutine.
func NewWorker() *Worker {
	w := &Worker{
		jobs:    make(chan Job, 16),
		results: make(chan Result, 16),
		quit:    make(chan struct{}),
	}
	w.wg.Add(1)
	go w.run()
	return w
}

// Submit queues a job. It returns without queueing when the worker has been
// closed.
func (w *Worker) Submit(job Job) {
	select {
	case w.jobs <- job:
	case <-w.quit:
	}
}

// Results returns the channel results are delivered on. The channel is
// closed once Close completes.
func (w *Worker) Results() <-chan Result {
	return w.results
}

// Close stops the worker and closes the result channel. Safe to call more
// than once.
func (w *Worker) Close() {
	w.closeOnce.Do(func() {
		close(w.quit)
		w.wg.Wait()
		close(w.results)
	})
}

func (w *Worker) run() {
	defer w.wg.Done()
	for {
		select {
		case job := <-w.jobs:
			res := process(job)
			select {
			case w.results <- res:
			case <-w.quit:
				return
			}
		case <-w.quit:
			return
		}
	}
}

// process executes one job. Errors are captured into the result so a bad job
// never takes the worker down or blocks the jobs behind it.
func process(job Job) Result {
	switch job.Kind {
	case CreateLOD:
		px, err := scaleLOD(job.Source, job.TargetWidth, job.TargetHeight, job.Quality)
		if err != nil {
			return Result{ID: job.ID, Status: LODError, Err: err}
		}
		return Result{ID: job.ID, Status: LODCreated, Pixels: px, Width: px.Bounds().Dx(), Height: px.Bounds().Dy()}
	case CreateTile:
		px, err := extractTile(job)
		if err != nil {
			return Result{ID: job.ID, Status: TileError, Err: err}
		}
		return Result{ID: job.ID, Status: TileCreated, Pixels: px, Width: px.Bounds().Dx(), Height: px.Bounds().Dy()}
	default:
		return Result{ID: job.ID, Status: TileError, Err: fmt.Errorf("unknown job kind %d", job.Kind)}
	}
}
