package renderer

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/df07/go-pathtracer/pkg/core"
	"github.com/df07/go-pathtracer/pkg/raster"
)

// Task is one unit of render work: a tile at full sample count, or one
// sample pass over the whole image
type Task struct {
	ID     int
	Region raster.Region // Pixels covered by the job
	Sample int           // Sample index for a sample pass, -1 for a tile
}

// TaskResult contains the result of one task
type TaskResult struct {
	TaskID   int
	WorkerID int
	Tile     *raster.Image       // Finished tile (tile tasks)
	Samples  *raster.Accumulator // Radiance of one sample pass (sample tasks)
	Elapsed  time.Duration
	Error    error // Set when the task was skipped because the render was cancelled
}

// TaskFunc executes a task with the worker's own sampler
type TaskFunc func(task Task, sampler *core.RandomSampler) TaskResult

// WorkerPool manages parallel task execution
type WorkerPool struct {
	taskQueue   chan Task
	resultQueue chan TaskResult
	workers     []*Worker
	numWorkers  int
	wg          sync.WaitGroup
}

// Worker owns an independent random stream and runs tasks from the queue
type Worker struct {
	ID          int
	sampler     *core.RandomSampler
	execute     TaskFunc
	taskQueue   chan Task
	resultQueue chan TaskResult
}

// NewWorkerPool creates a worker pool with the specified number of workers.
// queueSize bounds both queues; the scheduler sizes it to the job count so
// submitting never blocks. Worker i is seeded with seed XOR i.
func NewWorkerPool(numWorkers, queueSize int, seed uint64, execute TaskFunc) *WorkerPool {
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}

	wp := &WorkerPool{
		taskQueue:   make(chan Task, queueSize),
		resultQueue: make(chan TaskResult, queueSize),
		numWorkers:  numWorkers,
	}

	for i := 0; i < numWorkers; i++ {
		wp.workers = append(wp.workers, &Worker{
			ID:          i,
			sampler:     core.NewRandomSampler(seed ^ uint64(i)),
			execute:     execute,
			taskQueue:   wp.taskQueue,
			resultQueue: wp.resultQueue,
		})
	}

	return wp
}

// Start begins all workers. Cancelling ctx makes workers skip the tasks
// they have not started yet; every task still produces a result.
func (wp *WorkerPool) Start(ctx context.Context) {
	for _, worker := range wp.workers {
		wp.wg.Add(1)
		go worker.run(ctx, &wp.wg)
	}
}

// Stop gracefully shuts down all workers
func (wp *WorkerPool) Stop() {
	close(wp.taskQueue) // No more tasks
	wp.wg.Wait()        // Wait for workers to finish
	close(wp.resultQueue)
}

// SubmitTask submits a task to the worker pool
func (wp *WorkerPool) SubmitTask(task Task) {
	wp.taskQueue <- task
}

// GetResult retrieves a completed task result
func (wp *WorkerPool) GetResult() (TaskResult, bool) {
	result, ok := <-wp.resultQueue
	return result, ok
}

// GetNumWorkers returns the number of workers in the pool
func (wp *WorkerPool) GetNumWorkers() int {
	return wp.numWorkers
}

// run is the main worker loop
func (w *Worker) run(ctx context.Context, wg *sync.WaitGroup) {
	defer wg.Done()

	for task := range w.taskQueue {
		if err := ctx.Err(); err != nil {
			w.resultQueue <- TaskResult{TaskID: task.ID, WorkerID: w.ID, Error: err}
			continue
		}

		start := time.Now()
		result := w.execute(task, w.sampler)
		result.TaskID = task.ID
		result.WorkerID = w.ID
		result.Elapsed = time.Since(start)

		w.resultQueue <- result
	}
}
