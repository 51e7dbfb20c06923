package config

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/pflag"
)

// DefaultServerConfig returns the default server configuration.
// These are sensible defaults for local development and can be overridden
// via flags, environment variables, or config files.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Addr:            "127.0.0.1",
		Port:            4010,
		PayloadLimit:    "10mb",
		QueueSize:       100,
		Concurrency:     4,
		ReadTimeout:     30 * time.Second,
		WriteTimeout:    30 * time.Second,
		InvokeTimeout:   30 * time.Second,
		ShutdownTimeout: 30 * time.Second,
	}
}

// PayloadLimitBytes parses PayloadLimit ("10mb", "512KiB", "1048576").
func (s ServerConfig) PayloadLimitBytes() (int64, error) {
	n, err := humanize.ParseBytes(s.PayloadLimit)
	if err != nil {
		return 0, fmt.Errorf("invalid payload limit %q: %w", s.PayloadLimit, err)
	}
	if n == 0 {
		return 0, fmt.Errorf("invalid payload limit %q: must be > 0", s.PayloadLimit)
	}
	return int64(n), nil
}

// ListenAddr returns addr:port.
func (s ServerConfig) ListenAddr() string {
	return fmt.Sprintf("%s:%d", s.Addr, s.Port)
}

// BindServerFlags binds server-specific flags to the provided FlagSet.
// These flags will be used by the 'busmock server start' command.
//
// Flags are namespaced under 'server.' so they map straight onto config keys.
// Example: --server.addr, --server.port
func BindServerFlags(flags *pflag.FlagSet) {
	defaults := DefaultServerConfig()

	flags.String("server.addr", defaults.Addr, "Server listen address (use 0.0.0.0 for all interfaces)")
	flags.Int("server.port", defaults.Port, "Server listen port")
	flags.String("server.payload_limit", defaults.PayloadLimit, "Maximum PutEvents request body size")
	flags.Int("server.queue_size", defaults.QueueSize, "Number of PutEvents batches buffered before returning 503")
	flags.Int("server.concurrency", defaults.Concurrency, "Number of concurrent dispatch workers")
	flags.Bool("server.sync_dispatch", defaults.SyncDispatch, "Wait for handlers before answering PutEvents")
	flags.String("server.state_dir", "", "Directory holding the instance lock (default: OS cache dir)")
	flags.Duration("server.read_timeout", defaults.ReadTimeout, "HTTP read timeout")
	flags.Duration("server.write_timeout", defaults.WriteTimeout, "HTTP write timeout")
	flags.Duration("server.invoke_timeout", defaults.InvokeTimeout, "Default timeout for HTTP handlers")
	flags.String("definitions.path", DefaultDefinitionsPath, "Definitions file with functions and events")
}
