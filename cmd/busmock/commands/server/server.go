// Package server provides the Cobra commands for the emulator's server lifecycle.
package server

import (
	"github.com/spf13/cobra"
)

const cliExecutable = "server"

// NewCommand returns the 'busmock server' command group.
func NewCommand() *cobra.Command {
	command := &cobra.Command{
		Use:     cliExecutable,
		Short:   "Busmock server",
		GroupID: "emulator",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	command.SuggestionsMinimumDistance = 1

	command.AddCommand(newStartServerCommand())

	return command
}
