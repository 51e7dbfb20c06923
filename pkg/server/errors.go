package server

import (
	"errors"
	"fmt"

	"github.com/busmock/busmock/pkg/workspace"
)

const (
	errorCodeInvalidPort        = "SERVER_INVALID_PORT"
	errorCodeInvalidConcurrency = "SERVER_INVALID_CONCURRENCY"
	errorCodeConfigUnavailable  = "SERVER_CONFIG_UNAVAILABLE"
	errorCodeInvalidConfig      = "SERVER_INVALID_CONFIG"
	errorCodeDefinitionsInvalid = "SERVER_DEFINITIONS_INVALID"
	errorCodeLockFailed         = "SERVER_LOCK_FAILED"
	errorCodeAppInitFailed      = "SERVER_INIT_FAILED"
	errorCodeRuntimeFailed      = "SERVER_RUNTIME_FAILED"
)

var (
	// ErrInvalidPort indicates an invalid port flag value.
	ErrInvalidPort = errors.New("invalid port")
	// ErrInvalidConcurrency indicates an invalid worker concurrency value.
	ErrInvalidConcurrency = errors.New("invalid concurrency")
	// ErrConfigUnavailable indicates the CLI context lacked a config manager.
	ErrConfigUnavailable = errors.New("config manager unavailable")
)

type errorCoder interface {
	error
	Code() string
}

type withCodeError struct {
	error
	code string
}

func (e *withCodeError) Code() string {
	return e.code
}

func (e *withCodeError) Unwrap() error {
	return e.error
}

// WithErrorCode annotates err with a server error code.
func WithErrorCode(err error, code string) error {
	if err == nil {
		return nil
	}
	return &withCodeError{error: err, code: code}
}

// NewInvalidPortError formats an invalid port error with context.
func NewInvalidPortError(port int) error {
	return WithErrorCode(fmt.Errorf("%w: invalid port %d: must be between 1 and 65535", ErrInvalidPort, port), errorCodeInvalidPort)
}

// NewInvalidConcurrencyError formats an invalid concurrency error.
func NewInvalidConcurrencyError(concurrency int) error {
	return WithErrorCode(fmt.Errorf("%w: invalid concurrency %d: must be at least 1", ErrInvalidConcurrency, concurrency), errorCodeInvalidConcurrency)
}

// WrapInvalidConfig annotates server config validation errors.
func WrapInvalidConfig(err error) error {
	if err == nil {
		return nil
	}
	return WithErrorCode(fmt.Errorf("invalid server configuration: %w", err), errorCodeInvalidConfig)
}

// WrapDefinitions annotates failures loading or validating the definitions file.
func WrapDefinitions(err error) error {
	if err == nil {
		return nil
	}
	return WithErrorCode(fmt.Errorf("definitions: %w", err), errorCodeDefinitionsInvalid)
}

// WrapLock annotates state directory preparation and locking failures.
func WrapLock(err error) error {
	if err == nil {
		return nil
	}
	return WithErrorCode(err, errorCodeLockFailed)
}

// WrapAppInit annotates server app creation failures.
func WrapAppInit(err error) error {
	if err == nil {
		return nil
	}
	return WithErrorCode(err, errorCodeAppInitFailed)
}

// WrapRuntime annotates server runtime failures.
func WrapRuntime(err error) error {
	if err == nil {
		return nil
	}
	return WithErrorCode(err, errorCodeRuntimeFailed)
}

// ErrorCode resolves a server error to its error code.
func ErrorCode(err error) string {
	if err == nil {
		return ""
	}

	var coded errorCoder
	if errors.As(err, &coded) {
		if code := coded.Code(); code != "" {
			return code
		}
	}

	switch {
	case errors.Is(err, ErrInvalidPort):
		return errorCodeInvalidPort
	case errors.Is(err, ErrInvalidConcurrency):
		return errorCodeInvalidConcurrency
	case errors.Is(err, ErrConfigUnavailable):
		return errorCodeConfigUnavailable
	case errors.Is(err, workspace.ErrStateLocked):
		return errorCodeLockFailed
	default:
		return errorCodeRuntimeFailed
	}
}

// ExitCode maps server errors to CLI exit codes.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}

	switch ErrorCode(err) {
	case errorCodeInvalidPort, errorCodeInvalidConcurrency, errorCodeInvalidConfig:
		return 2
	case errorCodeDefinitionsInvalid:
		return 3
	case errorCodeLockFailed:
		return 4
	case errorCodeAppInitFailed:
		return 7
	default:
		return 1
	}
}

// Suggestions provides CLI hints for server errors.
func Suggestions(err error) []string {
	if err == nil {
		return nil
	}

	switch ErrorCode(err) {
	case errorCodeInvalidPort:
		return []string{
			"Use a port between 1 and 65535",
			"Example:                 busmock server start --port 4010",
		}
	case errorCodeInvalidConcurrency:
		return []string{
			"Set worker concurrency to at least 1",
			"Example:                 busmock server start --jobs-concurrency 4",
		}
	case errorCodeConfigUnavailable:
		return []string{
			"Run via the busmock CLI so the config manager initializes",
		}
	case errorCodeInvalidConfig:
		return []string{
			"Check configuration values in busmock.yaml and BUSMOCK_* variables",
			"Retry with --debug for detailed validation errors",
		}
	case errorCodeDefinitionsInvalid:
		return []string{
			"Check the definitions file:  busmock rules --definitions <path>",
			"Each function needs exactly one of url or command",
		}
	case errorCodeLockFailed:
		return []string{
			"Stop the other busmock instance using this state directory",
			"Or pick another one:      busmock server start --server.state_dir <path>",
		}
	case errorCodeAppInitFailed:
		return []string{
			"Retry with debug logging: busmock server start --debug",
			"Review configuration for invalid values",
		}
	case errorCodeRuntimeFailed:
		return []string{
			"Check server logs for runtime errors",
			"Ensure no other process is using the selected port",
		}
	default:
		return nil
	}
}
