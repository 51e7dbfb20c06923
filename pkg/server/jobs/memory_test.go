package jobs

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/busmock/busmock/pkg/event"
)

func TestNewMemoryManager(t *testing.T) {
	mgr := NewMemoryManager(4, 10, nil)

	require.NotNil(t, mgr)
	require.Equal(t, 4, mgr.concurrency)
	require.Equal(t, 10, cap(mgr.queue))
}

func TestNewMemoryManager_Defaults(t *testing.T) {
	for _, n := range []int{0, -1} {
		mgr := NewMemoryManager(n, n, nil)
		require.Equal(t, 4, mgr.concurrency, "Should default to 4 workers")
		require.Equal(t, 100, cap(mgr.queue), "Should default to 100 queued jobs")
	}
}

func TestMemoryManager_StartStop(t *testing.T) {
	mgr := NewMemoryManager(2, 10, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, mgr.Start(ctx))
	require.Error(t, mgr.Start(ctx), "second start must fail")

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer stopCancel()

	require.NoError(t, mgr.Stop(stopCtx))
	require.NoError(t, mgr.Stop(stopCtx), "stop is idempotent")
}

func TestMemoryManager_ProcessesJobs(t *testing.T) {
	var (
		mu   sync.Mutex
		seen []string
	)
	mgr := NewMemoryManager(2, 10, func(_ context.Context, job Job) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, job.ID)
	})

	require.NoError(t, mgr.Start(context.Background()))
	require.NoError(t, mgr.Submit(Job{ID: "a", Entries: []event.Entry{{Source: "x"}}}))
	require.NoError(t, mgr.Submit(Job{ID: "b"}))

	require.Eventually(t, func() bool {
		return mgr.Status().Processed == 2
	}, 2*time.Second, 10*time.Millisecond)

	mu.Lock()
	require.ElementsMatch(t, []string{"a", "b"}, seen)
	mu.Unlock()

	require.NoError(t, mgr.Stop(context.Background()))
}

func TestMemoryManager_Submit_NotStarted(t *testing.T) {
	mgr := NewMemoryManager(1, 1, nil)
	require.ErrorIs(t, mgr.Submit(Job{ID: "a"}), ErrNotStarted)
}

func TestMemoryManager_Submit_QueueFull(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{}, 1)
	mgr := NewMemoryManager(1, 1, func(context.Context, Job) {
		started <- struct{}{}
		<-release
	})
	require.NoError(t, mgr.Start(context.Background()))

	// first job occupies the single worker, second fills the buffer
	require.NoError(t, mgr.Submit(Job{ID: "1"}))
	<-started
	require.NoError(t, mgr.Submit(Job{ID: "2"}))
	require.ErrorIs(t, mgr.Submit(Job{ID: "3"}), ErrQueueFull)
	require.Equal(t, 1, mgr.Status().QueueDepth)
	require.Equal(t, int64(1), mgr.Status().ActiveJobs)

	close(release)
	require.NoError(t, mgr.Stop(context.Background()))
}

func TestMemoryManager_InFlightCompletesOnStop(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	var ctxErr error
	mgr := NewMemoryManager(1, 1, func(ctx context.Context, _ Job) {
		close(started)
		<-release
		ctxErr = ctx.Err()
	})
	require.NoError(t, mgr.Start(context.Background()))
	require.NoError(t, mgr.Submit(Job{ID: "slow"}))
	<-started

	stopped := make(chan error, 1)
	go func() { stopped <- mgr.Stop(context.Background()) }()

	time.Sleep(20 * time.Millisecond)
	require.ErrorIs(t, mgr.Submit(Job{ID: "late"}), ErrNotStarted)

	close(release)
	require.NoError(t, <-stopped)
	require.NoError(t, ctxErr, "in-flight job context must not be cancelled")
	require.Equal(t, int64(1), mgr.Status().Processed)
}

func TestMemoryManager_StopTimeout(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	started := make(chan struct{})
	mgr := NewMemoryManager(1, 1, func(context.Context, Job) {
		close(started)
		<-release
	})
	require.NoError(t, mgr.Start(context.Background()))
	require.NoError(t, mgr.Submit(Job{ID: "stuck"}))
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	require.ErrorIs(t, mgr.Stop(ctx), context.DeadlineExceeded)
}
