package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/busmock/busmock/pkg/bus"
	"github.com/busmock/busmock/pkg/config"
	"github.com/busmock/busmock/pkg/dispatch"
	"github.com/busmock/busmock/pkg/event"
	"github.com/busmock/busmock/pkg/schedule"
	"github.com/busmock/busmock/pkg/server/api"
	"github.com/busmock/busmock/pkg/server/httpx"
	"github.com/busmock/busmock/pkg/server/jobs"
	"github.com/busmock/busmock/pkg/subscription"
	"github.com/busmock/busmock/pkg/version"
	"github.com/busmock/busmock/pkg/workspace"
)

// App orchestrates the server runtime components:
// - HTTP ingress (PutEvents, health, pattern testing)
// - Dispatch workers fed by the job queue
// - Cron scheduler for scheduled functions
// - Instance lock on the state directory
type App struct {
	HTTP        *http.Server
	Jobs        jobs.Manager
	Scheduler   *schedule.Scheduler
	Coordinator *dispatch.Coordinator
	Registry    *subscription.Registry
	Events      *event.Bus
	Stats       *event.Stats
	Ready       *atomic.Bool
	Config      config.Config
	Deps        *Deps

	mu       sync.Mutex
	listener net.Listener
	lock     *workspace.Lock
}

// New creates and configures a new server application.
func New(_ context.Context, cfg config.Config, deps *Deps) (*App, error) {
	if deps == nil || deps.Plan == nil {
		return nil, errors.New("definitions plan is required")
	}
	if deps.Invoker == nil {
		return nil, errors.New("invoker is required")
	}
	deps.Logger.Info().Str("version", version.Info()).Msg("Initializing server application")

	payloadLimit, err := cfg.Server.PayloadLimitBytes()
	if err != nil {
		return nil, err
	}

	registry := subscription.NewRegistry(bus.NewResolver(deps.Plan.Table), deps.Plan.Subscriptions...)

	events := event.NewBus()
	stats := event.NewStats(events)

	coordinator, err := dispatch.NewCoordinator(dispatch.Config{
		Account:             cfg.Bus.Account,
		Region:              cfg.Bus.Region,
		MaxAttempts:         cfg.Retry.MaxAttempts,
		Delay:               cfg.Retry.Delay,
		ThrowRetryExhausted: cfg.Retry.ThrowExhausted,
	}, registry, deps.Invoker, deps.Logger.With().Str("component", "dispatch").Logger(), dispatch.WithPublisher(events))
	if err != nil {
		return nil, fmt.Errorf("create dispatch coordinator: %w", err)
	}

	jobsMgr := jobs.NewMemoryManager(cfg.Server.Concurrency, cfg.Server.QueueSize, func(ctx context.Context, job jobs.Job) {
		resp, err := coordinator.Dispatch(ctx, job.Entries)
		if err != nil {
			deps.Logger.Error().
				Err(err).
				Str("job_id", job.ID).
				Int("failed", resp.FailedEntryCount).
				Msg("Dispatch finished with failures")
		}
	})

	scheduler := schedule.NewScheduler(coordinator, deps.Logger)
	for _, t := range deps.Plan.EnabledTriggers() {
		if err := scheduler.Add(t); err != nil {
			return nil, err
		}
	}

	ready := &atomic.Bool{}
	apiDeps := &api.Deps{
		Ready: ready,
		Config: api.Config{
			PayloadLimit: payloadLimit,
			DefaultBus:   cfg.Bus.Name,
			SyncDispatch: cfg.Server.SyncDispatch,
		},
		Jobs:          jobsMgr,
		Dispatcher:    coordinator,
		Stats:         stats,
		Subscriptions: registry.Len(),
	}
	if err := apiDeps.Config.Validate(); err != nil {
		return nil, err
	}

	router := httpx.NewRouter(apiDeps)

	httpServer := &http.Server{
		Addr:         cfg.Server.ListenAddr(),
		Handler:      httpx.Chain(apiDeps.Config, router),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	deps.Logger.Info().
		Int("subscriptions", registry.Len()).
		Int("schedules", len(scheduler.Triggers())).
		Int("rejected", len(deps.Plan.Rejected)).
		Msg("Definitions loaded")

	return &App{
		HTTP:        httpServer,
		Jobs:        jobsMgr,
		Scheduler:   scheduler,
		Coordinator: coordinator,
		Registry:    registry,
		Events:      events,
		Stats:       stats,
		Ready:       ready,
		Config:      cfg,
		Deps:        deps,
	}, nil
}

// Addr returns the bound listener address once Run has started listening,
// or the configured address before that.
func (a *App) Addr() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.listener != nil {
		return a.listener.Addr().String()
	}
	return a.HTTP.Addr
}

// Run starts the server and blocks until ctx is done or the listener fails.
// The state directory comes from ctx (workspace.WithContext) when present,
// otherwise from server.state_dir.
func (a *App) Run(ctx context.Context) error {
	stateDir, ok := workspace.FromContext(ctx)
	if !ok {
		var err error
		if stateDir, err = workspace.Prepare(a.Config.Server.StateDir); err != nil {
			return err
		}
	}
	lock, err := workspace.Acquire(stateDir)
	if err != nil {
		return err
	}

	ln, err := net.Listen("tcp", a.HTTP.Addr)
	if err != nil {
		_ = lock.Release()
		return fmt.Errorf("listen on %s: %w", a.HTTP.Addr, err)
	}

	a.mu.Lock()
	a.listener = ln
	a.lock = lock
	a.mu.Unlock()

	a.Deps.Logger.Info().
		Str("addr", ln.Addr().String()).
		Str("state_dir", stateDir).
		Bool("sync_dispatch", a.Config.Server.SyncDispatch).
		Msg("Starting busmock server")

	serverErr := make(chan error, 1)
	go func() {
		if err := a.HTTP.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- fmt.Errorf("HTTP server failed: %w", err)
		}
	}()

	if err := a.Jobs.Start(ctx); err != nil {
		_ = a.shutdown()
		return fmt.Errorf("start jobs: %w", err)
	}
	a.Scheduler.Start()

	a.Ready.Store(true)
	a.Deps.Logger.Info().Msg("Server is ready and accepting connections")

	select {
	case <-ctx.Done():
		a.Deps.Logger.Info().Msg("Shutdown signal received")
	case err := <-serverErr:
		a.Deps.Logger.Error().Err(err).Msg("Server error")
		return errors.Join(err, a.shutdown())
	}

	return a.shutdown()
}

// shutdown stops ingress first, then the scheduler and the workers, so that
// in-flight dispatches finish before the lock is released.
func (a *App) shutdown() error {
	a.Deps.Logger.Info().Msg("Initiating graceful shutdown")

	shutdownCtx := context.Background()
	if timeout := a.Config.Server.ShutdownTimeout; timeout > 0 {
		var cancel context.CancelFunc
		shutdownCtx, cancel = context.WithTimeout(shutdownCtx, timeout)
		defer cancel()
	}

	a.Ready.Store(false)

	var errs []error

	if err := a.HTTP.Shutdown(shutdownCtx); err != nil {
		a.Deps.Logger.Error().Err(err).Msg("HTTP server shutdown failed")
		errs = append(errs, err)
	} else {
		a.Deps.Logger.Info().Msg("HTTP server stopped")
	}

	if err := a.Scheduler.Stop(shutdownCtx); err != nil {
		a.Deps.Logger.Error().Err(err).Msg("Scheduler shutdown failed")
		errs = append(errs, err)
	}

	if err := a.Jobs.Stop(shutdownCtx); err != nil {
		a.Deps.Logger.Error().Err(err).Msg("Jobs shutdown failed")
		errs = append(errs, err)
	} else {
		a.Deps.Logger.Info().Msg("Dispatch workers stopped")
	}

	a.mu.Lock()
	lock := a.lock
	a.lock = nil
	a.mu.Unlock()
	if err := lock.Release(); err != nil {
		errs = append(errs, fmt.Errorf("release state lock: %w", err))
	}

	a.Deps.Logger.Info().Msg("Server shutdown complete")
	return errors.Join(errs...)
}
