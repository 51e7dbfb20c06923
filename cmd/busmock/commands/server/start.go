package server

import (
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/busmock/busmock/cmd/busmock/internal/bind"
	"github.com/busmock/busmock/cmd/busmock/internal/format"
	"github.com/busmock/busmock/pkg/appctx"
	"github.com/busmock/busmock/pkg/config"
	"github.com/busmock/busmock/pkg/definition"
	"github.com/busmock/busmock/pkg/logging"
	srv "github.com/busmock/busmock/pkg/server"
	"github.com/busmock/busmock/pkg/server/app"
	"github.com/busmock/busmock/pkg/workspace"
)

const operation = "start server"

// newStartServerCommand creates the 'busmock server start' command.
//
// The command loads the definitions file, registers its subscriptions and
// schedules, and serves PutEvents until interrupted (SIGINT/SIGTERM). Shutdown
// closes ingress first, then stops the scheduler and drains the workers.
//
// Example usage:
//
//	busmock server start
//	busmock server start --port 4010 --definitions serverless.yml
//	busmock server start --server.sync_dispatch --jobs-concurrency 8
func newStartServerCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start the event bus emulator",
		Long: `Start the busmock server process.

The server hosts, in a single runtime:
  - PutEvents ingress (POST /)
  - Pattern testing (POST /_busmock/test-event-pattern) and stats (GET /_busmock/stats)
  - Health and readiness endpoints (/healthz, /readyz)
  - Dispatch workers that invoke subscribed handlers with retries
  - A scheduler for rate(...) and cron(...) triggers`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := format.FromCommand(cmd)

			cfgMgr, ok := appctx.Config(cmd.Context())
			if !ok {
				err := srv.ErrConfigUnavailable
				return formatter.PrintTotalFailureSummary(operation, err, srv.ErrorCode(err))
			}
			cfg := cfgMgr.Get()

			opts, err := bind.BindServerOptions(cmd, cfg)
			if err != nil {
				return formatter.PrintTotalFailureSummary(operation, err, srv.ErrorCode(err))
			}
			opts.Apply(&cfg)

			if err := config.Validate(cfg); err != nil {
				wrapped := srv.WrapInvalidConfig(err)
				return formatter.PrintTotalFailureSummary(operation, wrapped, srv.ErrorCode(wrapped))
			}

			logger := logging.Component("server")

			deps, err := loadDeps(cfg, cfgMgr, logger)
			if err != nil {
				return formatter.PrintTotalFailureSummary(operation, err, srv.ErrorCode(err))
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			stateDir, err := workspace.Prepare(cfg.Server.StateDir)
			if err != nil {
				wrapped := srv.WrapLock(err)
				return formatter.PrintTotalFailureSummary(operation, wrapped, srv.ErrorCode(wrapped))
			}
			ctx = workspace.WithContext(ctx, stateDir)
			logger.Debug().Str("state_dir", stateDir).Msg("State directory ready")

			serverApp, err := app.New(ctx, cfg, deps)
			if err != nil {
				wrapped := srv.WrapAppInit(err)
				return formatter.PrintTotalFailureSummary(operation, wrapped, srv.ErrorCode(wrapped))
			}

			if runErr := serverApp.Run(ctx); runErr != nil {
				wrapped := srv.WrapRuntime(runErr)
				if errors.Is(runErr, workspace.ErrStateLocked) {
					wrapped = srv.WrapLock(runErr)
				}
				return formatter.PrintTotalFailureSummary(operation, wrapped, srv.ErrorCode(wrapped))
			}

			return nil
		},
	}

	defaults := config.DefaultServerConfig()
	cmd.Flags().String("addr", defaults.Addr, "Server listen address")
	cmd.Flags().Int("port", defaults.Port, "Server listen port")
	cmd.Flags().Int("jobs-concurrency", defaults.Concurrency, "Number of concurrent dispatch workers")
	cmd.Flags().String("definitions", config.DefaultDefinitionsPath, "Definitions file with functions and events")
	config.BindServerFlags(cmd.Flags())

	return cmd
}

// loadDeps reads the definitions file and builds the subscription plan and
// the handler router. Subscriptions and schedules that fail to build are
// logged and left out; the server still starts.
func loadDeps(cfg config.Config, cfgMgr *config.Manager, logger zerolog.Logger) (*app.Deps, error) {
	f, err := definition.Load(cfg.Definitions.Path)
	if err != nil {
		return nil, srv.WrapDefinitions(err)
	}

	plan, buildErr := definition.Build(f, cfg.Bus.Imported)
	if buildErr != nil {
		logger.Warn().Err(buildErr).Int("rejected", len(plan.Rejected)).Msg("Some events were not registered")
	}

	router, err := definition.BuildRouter(f, cfg.Server.InvokeTimeout)
	if err != nil {
		return nil, srv.WrapDefinitions(err)
	}
	logger.Info().Strs("handlers", router.Handlers()).Msg("Handlers registered")

	return &app.Deps{
		Plan:    plan,
		Invoker: router,
		Config:  cfgMgr,
		Logger:  logger,
	}, nil
}
