// Copyright 2025 Busmock Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package schedule

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/busmock/busmock/pkg/event"
	"github.com/busmock/busmock/pkg/subscription"
)

// Dispatcher delivers one entry to one subscription, applying the usual
// matching, envelope and retry rules.
type Dispatcher interface {
	DispatchTo(ctx context.Context, sub *subscription.Subscription, entry event.Entry) error
}

// Scheduler runs enabled triggers on their cron specs.
type Scheduler struct {
	cron       *cron.Cron
	dispatcher Dispatcher
	logger     zerolog.Logger
	triggers   []*Trigger
}

// NewScheduler creates a stopped scheduler.
func NewScheduler(dispatcher Dispatcher, logger zerolog.Logger) *Scheduler {
	logger = logger.With().Str("component", "scheduler").Logger()
	cl := cronLogger{logger: logger}
	return &Scheduler{
		cron:       cron.New(cron.WithLogger(cl), cron.WithChain(cron.Recover(cl))),
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// Add registers a trigger. Disabled triggers are rejected with their
// translation error.
func (s *Scheduler) Add(t *Trigger) error {
	if !t.Enabled() {
		return fmt.Errorf("trigger %s is disabled: %w", t.HandlerID, t.Err)
	}
	if _, err := s.cron.AddFunc(t.Cron, func() { s.Fire(context.Background(), t) }); err != nil {
		return fmt.Errorf("schedule %s: %w", t.HandlerID, err)
	}
	s.triggers = append(s.triggers, t)
	s.logger.Info().Str("handler", t.HandlerID).Str("cron", t.Cron).Msgf("Scheduled '%s'", t.Expression)
	return nil
}

// Triggers returns the registered triggers.
func (s *Scheduler) Triggers() []*Trigger {
	return append([]*Trigger(nil), s.triggers...)
}

// Fire dispatches one synthetic entry for t.
func (s *Scheduler) Fire(ctx context.Context, t *Trigger) {
	entry := t.Entry()
	s.logger.Debug().Str("handler", t.HandlerID).Str("event_id", entry.ID).Msg("Run scheduled function")
	if err := s.dispatcher.DispatchTo(ctx, t.Subscription(), entry); err != nil {
		s.logger.Error().Err(err).Str("handler", t.HandlerID).Msg("Scheduled invocation failed")
	}
}

// Start begins running triggers in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop stops scheduling new ticks and waits for running ones, or for ctx.
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// cronLogger adapts zerolog to cron.Logger.
type cronLogger struct {
	logger zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
