// Copyright 2025 Busmock Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package dispatch

import (
	"fmt"
	"time"
)

// Config carries the account identity stamped on envelopes and the retry policy.
type Config struct {
	// Account and Region are copied into every envelope.
	Account string
	Region  string

	// MaxAttempts is the total number of invocation attempts per handler,
	// including the first one. Must be >= 1.
	MaxAttempts int

	// Delay is the fixed wait between attempts.
	Delay time.Duration

	// ThrowRetryExhausted makes Dispatch return an error when a handler runs out
	// of attempts. The failed outcome is recorded either way.
	ThrowRetryExhausted bool
}

// DefaultConfig returns the emulator defaults: ten retries after the first
// attempt, 500ms apart.
func DefaultConfig() Config {
	return Config{
		Account:             "000000000000",
		Region:              "us-east-1",
		MaxAttempts:         11,
		Delay:               500 * time.Millisecond,
		ThrowRetryExhausted: true,
	}
}

// Validate checks the config.
func (c Config) Validate() error {
	if c.MaxAttempts < 1 {
		return fmt.Errorf("MaxAttempts must be >= 1, got %d", c.MaxAttempts)
	}
	if c.Delay < 0 {
		return fmt.Errorf("delay must be >= 0, got %v", c.Delay)
	}
	if c.Account == "" {
		return fmt.Errorf("account must not be empty")
	}
	if c.Region == "" {
		return fmt.Errorf("region must not be empty")
	}
	return nil
}
