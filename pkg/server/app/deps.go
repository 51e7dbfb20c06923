package app

import (
	"github.com/rs/zerolog"

	"github.com/busmock/busmock/pkg/config"
	"github.com/busmock/busmock/pkg/definition"
	"github.com/busmock/busmock/pkg/dispatch"
)

// Deps holds dependencies for the server application.
// This pattern enables dependency injection and easier testing.
type Deps struct {
	// Plan holds the subscriptions, triggers and bus table built from the
	// definitions file.
	Plan *definition.Plan

	// Invoker runs handlers; usually the *invoke.Router built from the
	// same definitions file.
	Invoker dispatch.Invoker

	// Config manager for runtime configuration; optional.
	Config *config.Manager

	// Logger for structured logging (injected by caller)
	Logger zerolog.Logger
}
