package jobs

import (
	"context"
	"errors"

	"github.com/busmock/busmock/pkg/event"
)

var (
	// ErrQueueFull is returned by Submit when the buffer is full.
	ErrQueueFull = errors.New("job queue is full")
	// ErrNotStarted is returned by Submit before Start or after Stop.
	ErrNotStarted = errors.New("job manager is not running")
)

// Manager defines the interface for background dispatch of published batches.
type Manager interface {
	// Start begins processing jobs in the background.
	Start(ctx context.Context) error

	// Stop stops accepting jobs and waits for in-flight ones or ctx.
	Stop(ctx context.Context) error

	// Submit enqueues a job without blocking.
	Submit(job Job) error

	// Status returns current queue statistics.
	Status() Status
}

// Job is one accepted PutEvents batch.
type Job struct {
	ID      string
	Entries []event.Entry
}

// ProcessFunc handles one job. It receives a context that is not cancelled
// when the manager stops, so in-flight work runs to completion.
type ProcessFunc func(ctx context.Context, job Job)

// Status holds job manager statistics
type Status struct {
	QueueDepth int   `json:"queue_depth"`
	ActiveJobs int64 `json:"active_jobs"`
	Processed  int64 `json:"processed"`
	Dropped    int64 `json:"dropped"`
}
