package renderer

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/df07/go-pathtracer/pkg/core"
	"github.com/df07/go-pathtracer/pkg/raster"
)

// ErrUnknownStrategy is returned for a sharding strategy the scheduler does not know
var ErrUnknownStrategy = errors.New("unknown strategy")

// Strategy selects how a render is split into jobs
type Strategy int

const (
	// StrategyTiles renders each tile at the full sample count and blits it into place
	StrategyTiles Strategy = iota
	// StrategySamples renders one sample of every pixel per job and averages the passes in index order
	StrategySamples
)

func (s Strategy) String() string {
	switch s {
	case StrategyTiles:
		return "tiles"
	case StrategySamples:
		return "samples"
	default:
		return fmt.Sprintf("Strategy(%d)", int(s))
	}
}

// ParseStrategy converts a strategy name to a Strategy
func ParseStrategy(name string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "tiles", "tile":
		return StrategyTiles, nil
	case "samples", "sample":
		return StrategySamples, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
	}
}

// notifyBuffer bounds the queue of undelivered job completions
const notifyBuffer = 256

// SchedulerConfig contains configuration for parallel rendering
type SchedulerConfig struct {
	Strategy   Strategy // How to shard the image
	TileSize   int      // Size of each tile (64x64 recommended)
	NumWorkers int      // Number of parallel workers (0 = use CPU count)
}

// DefaultSchedulerConfig returns sensible default values
func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		Strategy:   StrategyTiles,
		TileSize:   64,
		NumWorkers: 0, // Auto-detect CPU count
	}
}

// JobCompletion describes a job whose output has just been merged
type JobCompletion struct {
	JobID         int           // Index of the job in submission order
	JobNumber     int           // 1-based count of jobs merged so far
	TotalJobs     int           // Jobs in this render
	Region        raster.Region // Pixels the job covered
	Sample        int           // Sample index for sample passes, -1 for tiles
	SamplesMerged int           // Samples per pixel now visible in the frame
	WorkerID      int
	Elapsed       time.Duration // Time the job spent on its worker
}

// Observer is notified after each job is merged into the frame. Notifications
// are delivered from a separate goroutine; if the observer falls behind,
// notifications are dropped rather than stalling the render.
type Observer interface {
	JobCompleted(JobCompletion)
}

// ObserverFunc adapts a function to the Observer interface
type ObserverFunc func(JobCompletion)

// JobCompleted calls f
func (f ObserverFunc) JobCompleted(c JobCompletion) {
	f(c)
}

// freezer is implemented by scenes that can be made read-only
type freezer interface {
	Freeze()
}

// Scheduler splits a render into jobs, runs them on a worker pool and
// merges their output into the target buffer
type Scheduler struct {
	renderer *Renderer
	config   SchedulerConfig
	logger   core.Logger
	progress core.Logger

	mu       sync.RWMutex // guards frame contents and observer
	frame    *raster.Image
	observer Observer
}

// NewScheduler creates a scheduler. A nil logger discards output.
func NewScheduler(renderer *Renderer, config SchedulerConfig, logger core.Logger) (*Scheduler, error) {
	if config.Strategy != StrategyTiles && config.Strategy != StrategySamples {
		return nil, fmt.Errorf("%w: %v", ErrUnknownStrategy, config.Strategy)
	}
	if config.TileSize <= 0 {
		config.TileSize = DefaultSchedulerConfig().TileSize
	}
	if logger == nil {
		logger = core.NopLogger()
	}

	return &Scheduler{
		renderer: renderer,
		config:   config,
		logger:   logger,
		progress: core.NopLogger(),
	}, nil
}

// SetObserver registers the observer notified on each job completion
func (s *Scheduler) SetObserver(observer Observer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observer = observer
}

// SetProgressLogger sets the logger that receives one line per merged job
func (s *Scheduler) SetProgressLogger(logger core.Logger) {
	if logger == nil {
		logger = core.NopLogger()
	}
	s.progress = logger
}

// Config returns the scheduler configuration
func (s *Scheduler) Config() SchedulerConfig {
	return s.config
}

// Snapshot returns a copy of the frame being rendered, or nil before the first render
func (s *Scheduler) Snapshot() *raster.Image {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.frame == nil {
		return nil
	}
	return s.frame.Clone()
}

// PixelsU32 returns the current frame as packed 0x00RRGGBB pixels, top row first
func (s *Scheduler) PixelsU32() []uint32 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.frame == nil {
		return nil
	}
	return s.frame.PixelsU32()
}

// Render fills target.Buffer. The scene is frozen first if it supports it
// and must not change until Render returns. Cancelling ctx stops workers from
// starting new jobs; Render then returns ctx.Err() with the partial frame.
func (s *Scheduler) Render(ctx context.Context, camera Camera, scene Scene, target RenderTarget) (RenderStats, error) {
	if target.Buffer == nil || target.FullWidth <= 0 || target.FullHeight <= 0 {
		return RenderStats{}, fmt.Errorf("%w: render target needs a buffer and a positive full size", ErrInvalidConfig)
	}
	if f, ok := scene.(freezer); ok {
		f.Freeze()
	}

	startTime := time.Now()
	tasks := s.planTasks(target.Buffer.Region())

	numWorkers := s.config.NumWorkers
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}
	numWorkers = max(1, min(numWorkers, len(tasks)))

	stats := RenderStats{
		Strategy:    s.config.Strategy,
		Jobs:        len(tasks),
		Workers:     numWorkers,
		TotalPixels: target.Buffer.Region().Area(),
	}

	s.mu.Lock()
	s.frame = target.Buffer
	observer := s.observer
	s.mu.Unlock()

	if len(tasks) == 0 {
		return stats, nil
	}

	s.logger.Printf("Rendering %v with %d %s jobs on %d workers (%d samples/pixel, depth %d)\n",
		target.Buffer.Region(), len(tasks), s.config.Strategy, numWorkers,
		s.renderer.config.SamplesPerPixel, s.renderer.config.MaxDepth)

	notify, stopNotify := startNotifier(observer)
	defer stopNotify()

	pool := NewWorkerPool(numWorkers, len(tasks), s.renderer.config.Seed, s.executor(camera, scene, target))
	pool.Start(ctx)
	for _, task := range tasks {
		pool.SubmitTask(task)
	}

	merger := newSampleMerger(target.Buffer.Region())

	// Exactly one result arrives per task, including skipped ones
	for i := 0; i < len(tasks); i++ {
		result, ok := pool.GetResult()
		if !ok {
			pool.Stop()
			return stats, fmt.Errorf("worker pool closed unexpectedly")
		}
		if result.Error != nil {
			continue
		}

		task := tasks[result.TaskID]
		stats.JobsCompleted++

		samplesMerged := s.merge(target.Buffer, task, result, merger)
		if task.Sample >= 0 {
			stats.TotalSamples += task.Region.Area()
		} else {
			stats.TotalSamples += task.Region.Area() * s.renderer.config.SamplesPerPixel
		}

		completion := JobCompletion{
			JobID:         task.ID,
			JobNumber:     stats.JobsCompleted,
			TotalJobs:     len(tasks),
			Region:        task.Region,
			Sample:        task.Sample,
			SamplesMerged: samplesMerged,
			WorkerID:      result.WorkerID,
			Elapsed:       result.Elapsed,
		}
		s.progress.Printf("Job %d/%d (%v) done by worker %d in %v\n",
			completion.JobNumber, completion.TotalJobs, task.Region, result.WorkerID, result.Elapsed)
		notify(completion)
	}

	pool.Stop()

	if s.config.Strategy == StrategySamples {
		stats.SamplesPerPixel = merger.merged
	} else {
		stats.SamplesPerPixel = s.renderer.config.SamplesPerPixel
	}
	stats.Elapsed = time.Since(startTime)

	if err := ctx.Err(); err != nil {
		s.logger.Printf("Render cancelled after %d/%d jobs: %v\n", stats.JobsCompleted, stats.Jobs, err)
		return stats, err
	}

	s.logger.Printf("Render completed in %v\n", stats.Elapsed)
	return stats, nil
}

// planTasks splits the region into jobs for the configured strategy
func (s *Scheduler) planTasks(region raster.Region) []Task {
	if region.Empty() {
		return nil
	}

	var tasks []Task
	switch s.config.Strategy {
	case StrategySamples:
		for sample := 0; sample < s.renderer.config.SamplesPerPixel; sample++ {
			tasks = append(tasks, Task{ID: sample, Region: region, Sample: sample})
		}
	default:
		for i, chunk := range region.Chunks(s.config.TileSize) {
			tasks = append(tasks, Task{ID: i, Region: chunk, Sample: -1})
		}
	}
	return tasks
}

// executor returns the function workers run for each task
func (s *Scheduler) executor(camera Camera, scene Scene, target RenderTarget) TaskFunc {
	return func(task Task, sampler *core.RandomSampler) TaskResult {
		if task.Sample < 0 {
			tile := raster.NewImageWithRegion(task.Region)
			s.renderer.Render(camera, scene, RenderTarget{
				FullWidth:  target.FullWidth,
				FullHeight: target.FullHeight,
				Buffer:     tile,
			}, sampler)
			return TaskResult{Tile: tile}
		}

		acc := raster.NewAccumulator(task.Region)
		s.renderer.Accumulate(camera, scene, target.FullWidth, target.FullHeight, acc, task.Sample, 1, sampler)
		return TaskResult{Samples: acc}
	}
}

// merge folds one result into the frame and returns the samples per pixel now visible
func (s *Scheduler) merge(frame *raster.Image, task Task, result TaskResult, merger *sampleMerger) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if result.Tile != nil {
		frame.Blit(result.Tile)
		return s.renderer.config.SamplesPerPixel
	}

	if merger.add(task.Sample, result.Samples) {
		s.renderer.ResolveInto(merger.sum, merger.merged, frame)
	}
	return merger.merged
}

// sampleMerger sums sample passes strictly in index order, holding early
// arrivals until the passes before them are in. The sum is therefore the
// same regardless of completion order.
type sampleMerger struct {
	sum     *raster.Accumulator
	pending map[int]*raster.Accumulator
	merged  int // passes [0, merged) are in sum
}

func newSampleMerger(region raster.Region) *sampleMerger {
	return &sampleMerger{
		sum:     raster.NewAccumulator(region),
		pending: make(map[int]*raster.Accumulator),
	}
}

// add stores a pass and merges every pass that is now contiguous.
// It reports whether sum changed.
func (m *sampleMerger) add(sample int, pass *raster.Accumulator) bool {
	m.pending[sample] = pass

	advanced := false
	for {
		next, ok := m.pending[m.merged]
		if !ok {
			return advanced
		}
		m.sum.Merge(next)
		delete(m.pending, m.merged)
		m.merged++
		advanced = true
	}
}

// startNotifier delivers completions to the observer on its own goroutine,
// dropping them when the buffer is full
func startNotifier(observer Observer) (notify func(JobCompletion), stop func()) {
	if observer == nil {
		return func(JobCompletion) {}, func() {}
	}

	events := make(chan JobCompletion, notifyBuffer)
	go func() {
		for event := range events {
			observer.JobCompleted(event)
		}
	}()

	notify = func(c JobCompletion) {
		select {
		case events <- c:
		default:
			// Observer is behind, drop the update
		}
	}
	return notify, func() { close(events) }
}
