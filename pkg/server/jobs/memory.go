// pkg/server/jobs/memory.go
package jobs

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog/log"
)

// MemoryManager is a bounded in-memory queue drained by a worker pool.
type MemoryManager struct {
	concurrency int
	queue       chan Job
	process     ProcessFunc
	wg          sync.WaitGroup
	cancelFunc  context.CancelFunc
	mu          sync.RWMutex
	started     bool

	active    atomic.Int64
	processed atomic.Int64
	dropped   atomic.Int64
}

// NewMemoryManager creates a new in-memory job manager.
// If concurrency <= 0, defaults to 4. If queueSize <= 0, defaults to 100.
func NewMemoryManager(concurrency, queueSize int, process ProcessFunc) *MemoryManager {
	if concurrency <= 0 {
		concurrency = 4
	}
	if queueSize <= 0 {
		queueSize = 100
	}
	if process == nil {
		process = func(context.Context, Job) {}
	}

	return &MemoryManager{
		concurrency: concurrency,
		queue:       make(chan Job, queueSize),
		process:     process,
	}
}

// Start spawns the worker goroutines.
func (m *MemoryManager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.started {
		return fmt.Errorf("job manager already started")
	}

	workerCtx, cancel := context.WithCancel(ctx)
	m.cancelFunc = cancel

	for i := 0; i < m.concurrency; i++ {
		m.wg.Add(1)
		go m.worker(workerCtx, i)
	}

	m.started = true
	log.Info().
		Str("component", "jobs").
		Int("workers", m.concurrency).
		Int("queue_size", cap(m.queue)).
		Msg("Job manager started")

	return nil
}

// Submit enqueues job, failing fast when the queue is full.
func (m *MemoryManager) Submit(job Job) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if !m.started {
		return ErrNotStarted
	}

	select {
	case m.queue <- job:
		return nil
	default:
		return ErrQueueFull
	}
}

// Status returns a snapshot of the queue counters.
func (m *MemoryManager) Status() Status {
	return Status{
		QueueDepth: len(m.queue),
		ActiveJobs: m.active.Load(),
		Processed:  m.processed.Load(),
		Dropped:    m.dropped.Load(),
	}
}

// Stop stops accepting jobs and waits for in-flight jobs to complete.
// Jobs still queued are dropped. It respects the context deadline.
func (m *MemoryManager) Stop(ctx context.Context) error {
	m.mu.Lock()
	if !m.started {
		m.mu.Unlock()
		return nil
	}

	if m.cancelFunc != nil {
		m.cancelFunc()
	}
	m.started = false
	m.mu.Unlock()

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		m.drain()
		log.Info().
			Str("component", "jobs").
			Msg("Job manager stopped gracefully")
		return nil
	case <-ctx.Done():
		log.Warn().
			Str("component", "jobs").
			Msg("Job manager shutdown timed out")
		return ctx.Err()
	}
}

func (m *MemoryManager) drain() {
	for {
		select {
		case job := <-m.queue:
			m.dropped.Add(1)
			log.Warn().
				Str("component", "jobs").
				Str("job_id", job.ID).
				Int("entries", len(job.Entries)).
				Msg("Dropping queued job on shutdown")
		default:
			return
		}
	}
}

// worker processes jobs from the queue until the context is canceled.
func (m *MemoryManager) worker(ctx context.Context, id int) {
	defer m.wg.Done()

	log.Debug().
		Str("component", "jobs").
		Int("worker_id", id).
		Msg("Worker started")

	for {
		select {
		case <-ctx.Done():
			log.Debug().
				Str("component", "jobs").
				Int("worker_id", id).
				Msg("Worker stopping")
			return
		case job := <-m.queue:
			log.Debug().
				Str("component", "jobs").
				Int("worker_id", id).
				Str("job_id", job.ID).
				Int("entries", len(job.Entries)).
				Msg("Processing job")

			m.active.Add(1)
			m.process(context.WithoutCancel(ctx), job)
			m.active.Add(-1)
			m.processed.Add(1)
		}
	}
}
