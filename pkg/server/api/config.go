package api

import (
	"errors"
	"time"
)

// Sentinel errors for configuration validation
var (
	// ErrInvalidPayloadLimit is returned when the body limit is not positive.
	ErrInvalidPayloadLimit = errors.New("invalid payload limit: must be > 0")
	// ErrInvalidTimeout is returned when a timeout value is invalid (negative).
	ErrInvalidTimeout = errors.New("invalid timeout: must be >= 0")
)

// Config holds API-level configuration.
type Config struct {
	// PayloadLimit caps request bodies, in bytes.
	PayloadLimit int64

	// DefaultBus is assigned to entries without EventBusName. Empty leaves
	// them bus-less, so subscriptions skip their bus check.
	DefaultBus string

	// SyncDispatch makes PutEvents wait for handlers and report their
	// outcomes instead of acknowledging as soon as the batch is queued.
	SyncDispatch bool

	// SyncTimeout bounds an inline dispatch. Zero means no bound; the retry
	// policy already limits how long a dispatch can take.
	SyncTimeout time.Duration
}

// DefaultConfig returns the default API configuration.
func DefaultConfig() Config {
	return Config{
		PayloadLimit: 10_000_000,
	}
}

// Validate checks that the configuration is valid.
func (c Config) Validate() error {
	if c.PayloadLimit <= 0 {
		return ErrInvalidPayloadLimit
	}
	if c.SyncTimeout < 0 {
		return ErrInvalidTimeout
	}
	return nil
}
