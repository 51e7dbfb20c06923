package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/busmock/busmock/cmd/busmock/internal/format"
	"github.com/busmock/busmock/pkg/pattern"
)

func newMatchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "match <pattern-file> <event-file>",
		Short:   "Test an event pattern against an event",
		GroupID: "tools",
		Long: `Evaluate an event pattern against a full event document.

The pattern file may be JSON or YAML. The event file holds one JSON event
(source, detail-type, detail, ...). Use "-" to read either file from stdin.`,
		Example: `  busmock match pattern.json event.json
  cat event.json | busmock match pattern.yml -`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := format.FromCommand(cmd)

			rawPattern, err := readPattern(cmd.InOrStdin(), args[0])
			if err != nil {
				return formatter.PrintTotalFailureSummary("match", err, format.CodeInvalidPattern)
			}
			tree, err := pattern.ParseTree(rawPattern)
			if err != nil {
				return formatter.PrintTotalFailureSummary("match", err, format.CodeInvalidPattern)
			}

			doc, err := readEvent(cmd.InOrStdin(), args[1])
			if err != nil {
				return formatter.PrintTotalFailureSummary("match", err, format.CodeInvalidEvent)
			}

			if tree.Match(doc) {
				return formatter.PrintResult("pattern matches event", true)
			}
			return formatter.PrintResult("pattern does not match event", false)
		},
	}

	return cmd
}

func readInput(stdin io.Reader, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(stdin)
	}
	return os.ReadFile(path)
}

func readPattern(stdin io.Reader, path string) (map[string]any, error) {
	data, err := readInput(stdin, path)
	if err != nil {
		return nil, fmt.Errorf("read pattern: %w", err)
	}
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode pattern %s: %w", path, err)
	}
	if raw == nil {
		return nil, fmt.Errorf("pattern %s is empty", path)
	}
	return raw, nil
}

func readEvent(stdin io.Reader, path string) (map[string]any, error) {
	data, err := readInput(stdin, path)
	if err != nil {
		return nil, fmt.Errorf("read event: %w", err)
	}
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode event %s: %w", path, err)
	}
	if doc == nil {
		return nil, fmt.Errorf("event %s must be a JSON object", path)
	}
	return doc, nil
}
