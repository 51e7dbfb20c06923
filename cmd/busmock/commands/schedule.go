package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/busmock/busmock/cmd/busmock/internal/format"
	"github.com/busmock/busmock/pkg/schedule"
)

// ScheduleResult is the JSON output of the schedule command.
type ScheduleResult struct {
	Expression string `json:"expression"`
	Cron       string `json:"cron"`
}

func newScheduleCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "schedule <expression>",
		Short:   "Translate a rate(...) or cron(...) expression",
		GroupID: "tools",
		Example: `  busmock schedule "rate(5 minutes)"
  busmock schedule "cron(0/15 * * * ? *)"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := format.FromCommand(cmd)
			expr := strings.Join(args, " ")

			spec, err := schedule.Translate(expr)
			if err != nil {
				return formatter.PrintTotalFailureSummary("translate schedule", err, format.CodeUnsupportedSched)
			}

			if formatter.JSON() {
				return formatter.PrintJSON(ScheduleResult{Expression: expr, Cron: spec})
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), spec)
			return err
		},
	}

	return cmd
}
