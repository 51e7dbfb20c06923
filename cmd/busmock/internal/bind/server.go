package bind

import (
	"github.com/spf13/cobra"

	"github.com/busmock/busmock/pkg/config"
	srv "github.com/busmock/busmock/pkg/server"
)

// ServerOptions holds the shorthand options of the server start command.
type ServerOptions struct {
	Addr        string
	Port        int
	Concurrency int
	Definitions string
}

// BindServerOptions extracts and validates server command flags.
//
// Values start from the loaded configuration and are overridden by the
// shorthand flags the user actually set:
//   - --addr: Server listen address (e.g., "127.0.0.1", "0.0.0.0")
//   - --port: Server listen port (1-65535)
//   - --jobs-concurrency: Number of concurrent dispatch workers
//   - --definitions: Definitions file path
//
// Returns an error if validation fails (e.g., invalid port range, invalid concurrency).
func BindServerOptions(cmd *cobra.Command, cfg config.Config) (ServerOptions, error) {
	opts := ServerOptions{
		Addr:        cfg.Server.Addr,
		Port:        cfg.Server.Port,
		Concurrency: cfg.Server.Concurrency,
		Definitions: cfg.Definitions.Path,
	}

	flags := cmd.Flags()
	if flags.Changed("addr") {
		opts.Addr, _ = flags.GetString("addr")
	}
	if flags.Changed("port") {
		opts.Port, _ = flags.GetInt("port")
	}
	if flags.Changed("jobs-concurrency") {
		opts.Concurrency, _ = flags.GetInt("jobs-concurrency")
	}
	if flags.Changed("definitions") {
		opts.Definitions, _ = flags.GetString("definitions")
	}

	if opts.Port < 1 || opts.Port > 65535 {
		return ServerOptions{}, srv.NewInvalidPortError(opts.Port)
	}
	if opts.Concurrency < 1 {
		return ServerOptions{}, srv.NewInvalidConcurrencyError(opts.Concurrency)
	}

	return opts, nil
}

// Apply copies the options onto cfg.
func (o ServerOptions) Apply(cfg *config.Config) {
	cfg.Server.Addr = o.Addr
	cfg.Server.Port = o.Port
	cfg.Server.Concurrency = o.Concurrency
	cfg.Definitions.Path = o.Definitions
}
