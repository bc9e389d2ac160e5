// Package worker runs fire-and-forget jobs on a fixed set of goroutines.
package worker

import (
	"context"
	"sync"
	"time"

	"applicant-api-io/api/pkg/util"

	"go.uber.org/zap"
)

// Job is a unit of background work. Its error is logged, never returned.
type Job struct {
	Type string
	Run  func(ctx context.Context) error
}

type Worker struct {
	id   int
	jobs <-chan Job
	wg   *sync.WaitGroup
}

type Pool struct {
	Jobs       chan Job
	Workers    []Worker
	JobTimeout time.Duration

	wg      sync.WaitGroup
	mu      sync.RWMutex
	stopped bool
}

// NewPool creates a pool of size workers sharing a queue of queueSize jobs.
func NewPool(size, queueSize int) *Pool {
	if size < 1 {
		size = 1
	}
	if queueSize < size {
		queueSize = size
	}
	pool := &Pool{
		Jobs:       make(chan Job, queueSize),
		JobTimeout: 60 * time.Second,
	}
	pool.Workers = make([]Worker, size)
	for i := 0; i < size; i++ {
		pool.Workers[i] = Worker{id: i, jobs: pool.Jobs, wg: &pool.wg}
	}
	return pool
}

func (pool *Pool) Start() {
	for i := range pool.Workers {
		util.LogInfo("worker started", zap.Int("worker", pool.Workers[i].id))
		pool.wg.Add(1)
		go pool.Workers[i].start(pool.JobTimeout)
	}
}

// Stop stops accepting jobs, lets workers drain the queue and waits for them.
func (pool *Pool) Stop() {
	pool.mu.Lock()
	if pool.stopped {
		pool.mu.Unlock()
		return
	}
	pool.stopped = true
	close(pool.Jobs)
	pool.mu.Unlock()

	pool.wg.Wait()
	util.LogInfo("worker pool stopped")
}

// Enqueue schedules job without blocking. It reports false when the queue
// is full or the pool is stopped; the job is then dropped.
func (pool *Pool) Enqueue(job Job) bool {
	pool.mu.RLock()
	defer pool.mu.RUnlock()
	if pool.stopped {
		util.LogWarning("worker pool stopped, dropping job", zap.String("type", job.Type))
		return false
	}

	select {
	case pool.Jobs <- job:
		return true
	default:
		util.LogWarning("worker queue full, dropping job", zap.String("type", job.Type))
		return false
	}
}

func (w *Worker) start(timeout time.Duration) {
	defer w.wg.Done()
	for job := range w.jobs {
		w.run(job, timeout)
	}
}

func (w *Worker) run(job Job, timeout time.Duration) {
	defer func() {
		if r := recover(); r != nil {
			util.Log.Error("job panicked", zap.String("type", job.Type), zap.Any("panic", r))
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := job.Run(ctx); err != nil {
		util.LogError("job failed", err, zap.String("type", job.Type), zap.Int("worker", w.id))
		return
	}
	util.Log.Debug("job done", zap.String("type", job.Type), zap.Int("worker", w.id))
}
