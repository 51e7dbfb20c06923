package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/busmock/busmock/cmd/busmock/internal/format"
	"github.com/busmock/busmock/pkg/version"
)

func newVersionCommand() *cobra.Command {
	var short bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			formatter := format.FromCommand(cmd)
			info := version.Get()

			if formatter.JSON() {
				return formatter.PrintJSON(info)
			}

			out := cmd.OutOrStdout()
			if short {
				_, err := fmt.Fprintln(out, info.Version)
				return err
			}
			if _, err := fmt.Fprintf(out, "%s version: %s\nCommit: %s\nBuild Date: %s\n",
				cliExecutable, info.Version, info.Commit, info.BuildDate); err != nil {
				return err
			}
			if info.Development {
				_, err := fmt.Fprintln(out, "Development build")
				return err
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&short, "short", "s", false, "Print only the version number")

	return cmd
}
