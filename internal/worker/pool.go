// Package worker fans row bands of a texture out to parallel workers.
package worker

import (
	"context"
	"sync"
	"time"
)

// Filler writes the pixel rows [Y0, Y1) of a texture.
// Implementations must only touch their own rows so bands can run concurrently.
type Filler interface {
	FillRows(ctx context.Context, y0, y1 int) error
}

// FillerFunc adapts a function to Filler.
type FillerFunc func(ctx context.Context, y0, y1 int) error

// FillRows calls f.
func (f FillerFunc) FillRows(ctx context.Context, y0, y1 int) error { return f(ctx, y0, y1) }

// Task is one band of rows.
type Task struct {
	Y0 int
	Y1 int
}

// Rows returns the number of rows in the band.
func (t Task) Rows() int { return t.Y1 - t.Y0 }

// Result represents the outcome of filling one band.
type Result struct {
	Task    Task
	Err     error
	Elapsed time.Duration
}

// ProgressFunc is called after each task completes.
type ProgressFunc func(completed, total, failed int)

// Config configures the worker pool.
type Config struct {
	Workers    int
	Filler     Filler
	OnProgress ProgressFunc
}

// Pool runs band tasks in parallel.
type Pool struct {
	workers    int
	filler     Filler
	onProgress ProgressFunc
}

// New creates a new worker pool.
func New(cfg Config) *Pool {
	workers := cfg.Workers
	if workers <= 0 {
		workers = 1
	}

	return &Pool{
		workers:    workers,
		filler:     cfg.Filler,
		onProgress: cfg.OnProgress,
	}
}

// Workers returns the number of goroutines Run starts.
func (p *Pool) Workers() int { return p.workers }

// Bands splits height rows into at most n contiguous bands of near-equal size.
func Bands(height, n int) []Task {
	if height <= 0 {
		return nil
	}
	if n <= 0 {
		n = 1
	}
	if n > height {
		n = height
	}

	tasks := make([]Task, 0, n)
	base := height / n
	extra := height % n
	y := 0
	for i := 0; i < n; i++ {
		rows := base
		if i < extra {
			rows++
		}
		tasks = append(tasks, Task{Y0: y, Y1: y + rows})
		y += rows
	}
	return tasks
}

// Run executes all tasks and returns one result per task.
// It blocks until every task has finished or been cancelled.
func (p *Pool) Run(ctx context.Context, tasks []Task) []Result {
	if len(tasks) == 0 {
		return nil
	}

	taskCh := make(chan Task, len(tasks))
	resultCh := make(chan Result, len(tasks))

	var wg sync.WaitGroup
	for i := 0; i < p.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.worker(ctx, taskCh, resultCh)
		}()
	}

	// The task channel is buffered for every task, so feeding never blocks.
	for _, task := range tasks {
		taskCh <- task
	}
	close(taskCh)

	results := make([]Result, 0, len(tasks))
	done := make(chan struct{})

	go func() {
		completed, failed := 0, 0
		for result := range resultCh {
			results = append(results, result)

			completed++
			if result.Err != nil {
				failed++
			}
			if p.onProgress != nil {
				p.onProgress(completed, len(tasks), failed)
			}
		}
		close(done)
	}()

	wg.Wait()
	close(resultCh)
	<-done

	return results
}

// FirstError returns the first non-nil error among results.
func FirstError(results []Result) error {
	for _, r := range results {
		if r.Err != nil {
			return r.Err
		}
	}
	return nil
}

func (p *Pool) worker(ctx context.Context, tasks <-chan Task, results chan<- Result) {
	for task := range tasks {
		select {
		case <-ctx.Done():
			results <- Result{
				Task: task,
				Err:  ctx.Err(),
			}
			continue
		default:
		}

		start := time.Now()
		err := p.filler.FillRows(ctx, task.Y0, task.Y1)

		results <- Result{
			Task:    task,
			Err:     err,
			Elapsed: time.Since(start),
		}
	}
}
