package commands

import (
	"github.com/spf13/cobra"

	serverCmd "github.com/busmock/busmock/cmd/busmock/commands/server"
	"github.com/busmock/busmock/cmd/busmock/internal/format"
	"github.com/busmock/busmock/pkg/appctx"
	"github.com/busmock/busmock/pkg/config"
	"github.com/busmock/busmock/pkg/logging"
	srv "github.com/busmock/busmock/pkg/server"
)

const cliExecutable = "busmock"

// NewCommand constructs the top-level busmock CLI command. The persistent
// pre-run loads configuration (defaults, file, BUSMOCK_* env, flags),
// configures global logging and stores the config manager on the context.
func NewCommand() *cobra.Command {
	var configFile string

	cmd := &cobra.Command{
		Use:   cliExecutable,
		Short: "Busmock is a local event bus emulator",
		Long: `Busmock emulates an EventBridge-style event bus on your machine.

It accepts PutEvents requests, matches entries against the event patterns
declared in a definitions file and invokes the subscribed handlers, retrying
failures. Schedules declared as rate(...) or cron(...) run locally.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			manager := config.NewManager()
			if err := manager.Load(cmd.Flags(), configFile); err != nil {
				return srv.WrapInvalidConfig(err)
			}

			cfg := manager.Get()
			if err := logging.ConfigureGlobalLogging(cfg.Log.Level, cfg.Log.Format); err != nil {
				return err
			}

			ctx := appctx.WithConfig(cmd.Context(), manager)
			cmd.SetContext(ctx)
			if root := cmd.Root(); root != nil && root != cmd {
				root.SetContext(ctx)
			}
			return nil
		},
	}

	cmd.SilenceUsage = true
	cmd.SilenceErrors = true

	cmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Configuration file path")
	config.BindFlags(cmd.PersistentFlags())
	format.BindFlags(cmd)

	cmd.AddGroup(&cobra.Group{ID: "emulator", Title: "Emulator Commands"})
	cmd.AddGroup(&cobra.Group{ID: "tools", Title: "Pattern & Schedule Tools"})

	cmd.AddCommand(serverCmd.NewCommand())
	cmd.AddCommand(newRulesCommand())
	cmd.AddCommand(newMatchCommand())
	cmd.AddCommand(newScheduleCommand())
	cmd.AddCommand(newVersionCommand())

	return cmd
}

// configFrom returns the loaded configuration, or defaults when the command
// runs without the root pre-run (tests invoking subcommands directly).
func configFrom(cmd *cobra.Command) config.Config {
	if manager, ok := appctx.Config(cmd.Context()); ok {
		return manager.Get()
	}
	return config.DefaultConfig()
}
