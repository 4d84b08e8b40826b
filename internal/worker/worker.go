// Package worker runs in-process maintenance jobs on fixed intervals.
package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"insight-flow/backend/internal/logger"
)

type JobFunc func(ctx context.Context) error

type job struct {
	name     string
	interval time.Duration
	fn       JobFunc
}

// Worker ticks every registered job in its own goroutine until Stop.
type Worker struct {
	mu      sync.Mutex
	jobs    []job
	timeout time.Duration
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running bool
}

// NewWorker bounds each job run by timeout. Zero means 30s.
func NewWorker(timeout time.Duration) *Worker {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Worker{timeout: timeout}
}

func (w *Worker) Register(name string, interval time.Duration, fn JobFunc) error {
	if interval <= 0 {
		return fmt.Errorf("job %s: interval must be positive", name)
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return fmt.Errorf("job %s: worker already started", name)
	}
	w.jobs = append(w.jobs, job{name: name, interval: interval, fn: fn})
	return nil
}

func (w *Worker) Start(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return
	}
	ctx, w.cancel = context.WithCancel(ctx)
	w.running = true

	log := logger.Get()
	log.Info().Int("jobs", len(w.jobs)).Msg("starting worker")
	for _, j := range w.jobs {
		w.wg.Add(1)
		go w.loop(ctx, j)
	}
}

// Stop cancels every loop and waits for runs in flight.
func (w *Worker) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.cancel()
	w.running = false
	w.mu.Unlock()

	w.wg.Wait()
	log := logger.Get()
	log.Info().Msg("worker stopped")
}

func (w *Worker) loop(ctx context.Context, j job) {
	defer w.wg.Done()
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.run(ctx, j)
		}
	}
}

func (w *Worker) run(ctx context.Context, j job) {
	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	log := logger.Get()
	defer func() {
		if r := recover(); r != nil {
			log.Error().Str("job", j.name).Interface("panic", r).Msg("job panicked")
		}
	}()

	start := time.Now()
	if err := j.fn(ctx); err != nil {
		log.Warn().Err(err).Str("job", j.name).Msg("job failed")
		return
	}
	log.Debug().Str("job", j.name).Dur("took", time.Since(start)).Msg("job completed")
}
