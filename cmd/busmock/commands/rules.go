package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/busmock/busmock/cmd/busmock/internal/format"
	"github.com/busmock/busmock/pkg/bus"
	"github.com/busmock/busmock/pkg/config"
	"github.com/busmock/busmock/pkg/definition"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("170"))
	subtleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Bold(true)
)

// RulesReport is the JSON output of the rules command.
type RulesReport struct {
	Definitions   string            `json:"definitions"`
	Buses         []string          `json:"buses"`
	Handlers      []string          `json:"handlers"`
	Subscriptions []SubscriptionRow `json:"subscriptions"`
	Schedules     []ScheduleRow     `json:"schedules"`
	Rejected      []RejectionRow    `json:"rejected"`
}

// SubscriptionRow describes one registered subscription.
type SubscriptionRow struct {
	Handler  string         `json:"handler"`
	Bus      string         `json:"bus"`
	Resolved string         `json:"resolved,omitempty"`
	Pattern  map[string]any `json:"pattern"`

	// DetailFields are the flattened detail paths; Alternatives counts the
	// branches of a top-level $or.
	DetailFields []string `json:"detail_fields,omitempty"`
	Alternatives int      `json:"alternatives,omitempty"`
}

// ScheduleRow describes one declared schedule.
type ScheduleRow struct {
	Handler    string `json:"handler"`
	Expression string `json:"expression"`
	Cron       string `json:"cron,omitempty"`
	Enabled    bool   `json:"enabled"`
	Error      string `json:"error,omitempty"`
}

// RejectionRow describes a subscription that could not be registered.
type RejectionRow struct {
	Handler string `json:"handler"`
	Error   string `json:"error"`
}

func newRulesCommand() *cobra.Command {
	var definitionsPath string

	cmd := &cobra.Command{
		Use:     "rules",
		Short:   "List subscriptions and schedules declared in the definitions file",
		GroupID: "emulator",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			formatter := format.FromCommand(cmd)
			cfg := configFrom(cmd)

			path := cfg.Definitions.Path
			if cmd.Flags().Changed("definitions") {
				path = definitionsPath
			}

			f, err := definition.Load(path)
			if err != nil {
				return formatter.PrintTotalFailureSummary("list rules", err, format.CodeDefinitionsInvalid)
			}
			// configuration errors only disable the declaring event; they are listed below
			plan, _ := definition.Build(f, cfg.Bus.Imported)

			router, err := definition.BuildRouter(f, cfg.Server.InvokeTimeout)
			if err != nil {
				return formatter.PrintTotalFailureSummary("list rules", err, format.CodeDefinitionsInvalid)
			}

			report := buildReport(path, plan, router.Handlers())
			if formatter.JSON() {
				return formatter.PrintJSON(report)
			}

			noColor, _ := cmd.Flags().GetBool("no-color")
			return printReport(cmd.OutOrStdout(), formatter, report, !noColor)
		},
	}

	cmd.Flags().StringVar(&definitionsPath, "definitions", config.DefaultDefinitionsPath, "Definitions file path")

	return cmd
}

func buildReport(path string, plan *definition.Plan, handlers []string) RulesReport {
	resolver := bus.NewResolver(plan.Table)
	report := RulesReport{
		Definitions:   path,
		Buses:         plan.Table.Names(),
		Handlers:      handlers,
		Subscriptions: []SubscriptionRow{},
		Schedules:     []ScheduleRow{},
		Rejected:      []RejectionRow{},
	}

	for _, sub := range plan.Subscriptions {
		row := SubscriptionRow{Handler: sub.HandlerID, Bus: sub.Bus.String(), Pattern: sub.Pattern}
		if name, ok := resolver.Resolve(sub.Bus); ok {
			row.Resolved = name
		}
		if sub.Detail != nil {
			row.DetailFields = sub.Detail.Paths()
			row.Alternatives = sub.Detail.Alternatives()
		}
		report.Subscriptions = append(report.Subscriptions, row)
	}

	for _, t := range plan.Triggers {
		row := ScheduleRow{Handler: t.HandlerID, Expression: t.Expression, Cron: t.Cron, Enabled: t.Enabled()}
		if t.Err != nil {
			row.Error = t.Err.Error()
		}
		report.Schedules = append(report.Schedules, row)
	}

	for _, r := range plan.Rejected {
		report.Rejected = append(report.Rejected, RejectionRow{Handler: r.HandlerID, Error: r.Err.Error()})
	}

	return report
}

func printReport(out io.Writer, formatter format.Formatter, report RulesReport, colored bool) error {
	render := func(style lipgloss.Style, s string) string {
		if !colored {
			return s
		}
		return style.Render(s)
	}

	buses := "-"
	if len(report.Buses) > 0 {
		buses = strings.Join(report.Buses, ", ")
	}
	if _, err := fmt.Fprintf(out, "%s %s\n%s %s\n\n", render(titleStyle, "Buses"), buses,
		render(titleStyle, "Handlers"), strings.Join(report.Handlers, ", ")); err != nil {
		return err
	}

	if _, err := fmt.Fprintf(out, "%s %s\n\n", render(titleStyle, "Subscriptions"), render(subtleStyle, report.Definitions)); err != nil {
		return err
	}
	rows := make([][]string, 0, len(report.Subscriptions))
	for _, s := range report.Subscriptions {
		resolved := s.Resolved
		if resolved == "" {
			resolved = "-"
		}
		pattern := compactJSON(s.Pattern)
		if s.Alternatives > 0 {
			pattern += fmt.Sprintf(" (%d alternatives)", s.Alternatives)
		}
		rows = append(rows, []string{s.Handler, s.Bus, resolved, pattern})
	}
	if err := formatter.PrintTable([]string{"handler", "bus", "resolved", "pattern"}, rows); err != nil {
		return err
	}

	if _, err := fmt.Fprintf(out, "\n%s\n\n", render(titleStyle, "Schedules")); err != nil {
		return err
	}
	rows = rows[:0]
	for _, s := range report.Schedules {
		status := render(successStyle, "enabled")
		cron := s.Cron
		if !s.Enabled {
			status = render(errorStyle, "disabled: "+s.Error)
			cron = "-"
		}
		rows = append(rows, []string{s.Handler, strconv.Quote(s.Expression), cron, status})
	}
	if err := formatter.PrintTable([]string{"handler", "expression", "cron", "status"}, rows); err != nil {
		return err
	}

	if len(report.Rejected) > 0 {
		if _, err := fmt.Fprintf(out, "\n%s\n\n", render(errorStyle, "Rejected")); err != nil {
			return err
		}
		rows = rows[:0]
		for _, r := range report.Rejected {
			rows = append(rows, []string{r.Handler, r.Error})
		}
		if err := formatter.PrintTable([]string{"handler", "error"}, rows); err != nil {
			return err
		}
	}

	return formatter.PrintSummary(fmt.Sprintf("\n%d subscriptions, %d schedules, %d rejected",
		len(report.Subscriptions), len(report.Schedules), len(report.Rejected)))
}

func compactJSON(v any) string {
	if v == nil {
		return "-"
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(data)
}
