package commands

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	srv "github.com/busmock/busmock/pkg/server"
	"github.com/busmock/busmock/pkg/version"
)

const definitionsYAML = `
version: "1.0"
functions:
  orders:
    url: http://127.0.0.1:9/orders
    events:
      - eventBridge:
          eventBus:
            Ref: OrdersBus
          pattern:
            source: [orders]
            detail-type: [created]
      - eventBridge:
          schedule: rate(5 minutes)
  broken:
    url: http://127.0.0.1:9/broken
    events:
      - eventBridge:
          pattern:
            detail:
              ip: [{cidr: "10.0.0.0/8"}]
      - eventBridge:
          schedule: rate(0 minutes)
resources:
  Resources:
    OrdersBus:
      Type: AWS::Events::EventBus
      Properties:
        Name: orders-bus
`

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	t.Setenv("BUSMOCK_LOG_LEVEL", "error")

	cmd := NewCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append(args, "--no-color"))

	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestVersionCommand(t *testing.T) {
	stdout, _, err := execute(t, "version", "--short")
	require.NoError(t, err)
	require.Equal(t, version.Version+"\n", stdout)

	stdout, _, err = execute(t, "version")
	require.NoError(t, err)
	require.Contains(t, stdout, "busmock version: "+version.Version)
	require.Contains(t, stdout, "Commit: ")
	require.Contains(t, stdout, "Development build")
}

func TestRootCommand_InvalidConfig(t *testing.T) {
	t.Setenv("BUSMOCK_RETRY_MAX_ATTEMPTS", "0")

	cmd := NewCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"version"})

	err := cmd.Execute()
	require.Error(t, err)
	require.Equal(t, 2, srv.ExitCode(err))
}

func TestScheduleCommand(t *testing.T) {
	stdout, _, err := execute(t, "schedule", "rate(5 minutes)")
	require.NoError(t, err)
	require.Equal(t, "*/5 * * * *\n", stdout)

	stdout, _, err = execute(t, "schedule", "cron(0/15", "*", "*", "*", "?", "*)")
	require.NoError(t, err)
	require.Equal(t, "*/15 * * * *\n", stdout)

	stdout, _, err = execute(t, "schedule", "rate(1 day)", "-o", "json")
	require.NoError(t, err)
	require.JSONEq(t, `{"expression": "rate(1 day)", "cron": "0 0 */1 * *"}`, stdout)
}

func TestScheduleCommand_Unsupported(t *testing.T) {
	_, stderr, err := execute(t, "schedule", "rate(0 minutes)")
	require.Error(t, err)
	require.Contains(t, stderr, "✗ Failed to translate schedule")
	require.Contains(t, stderr, "Use rate(<n> minute|minutes|hour|hours|day|days)")
}

func TestMatchCommand(t *testing.T) {
	patternPath := writeFile(t, "pattern.yml", `
source: [orders]
detail:
  amount: [{numeric: [">", 100]}]
`)
	matching := writeFile(t, "match.json", `{"source": "orders", "detail-type": "created", "detail": {"amount": 150}}`)
	other := writeFile(t, "other.json", `{"source": "orders", "detail": {"amount": 50}}`)

	stdout, _, err := execute(t, "match", patternPath, matching)
	require.NoError(t, err)
	require.Equal(t, "✓ pattern matches event\n", stdout)

	stdout, _, err = execute(t, "match", patternPath, other)
	require.NoError(t, err)
	require.Equal(t, "✗ pattern does not match event\n", stdout)

	stdout, _, err = execute(t, "match", patternPath, matching, "--output", "json")
	require.NoError(t, err)
	require.JSONEq(t, `{"result": true}`, stdout)
}

func TestMatchCommand_Stdin(t *testing.T) {
	patternPath := writeFile(t, "pattern.json", `{"detail-type": [{"prefix": "order."}]}`)

	cmd := NewCommand()
	var stdout bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetIn(bytes.NewBufferString(`{"detail-type": "order.created"}`))
	cmd.SetArgs([]string{"match", patternPath, "-", "--no-color"})

	require.NoError(t, cmd.Execute())
	require.Equal(t, "✓ pattern matches event\n", stdout.String())
}

func TestMatchCommand_Errors(t *testing.T) {
	event := writeFile(t, "event.json", `{"source": "orders"}`)

	unsupported := writeFile(t, "cidr.json", `{"detail": {"ip": [{"cidr": "10.0.0.0/8"}]}}`)
	_, stderr, err := execute(t, "match", unsupported, event)
	require.Error(t, err)
	require.Contains(t, stderr, "not supported")

	badEvent := writeFile(t, "bad.json", `[1, 2]`)
	pattern := writeFile(t, "pattern.json", `{"source": ["orders"]}`)
	_, _, err = execute(t, "match", pattern, badEvent)
	require.Error(t, err)

	_, _, err = execute(t, "match", filepath.Join(t.TempDir(), "missing.json"), event)
	require.Error(t, err)
}

func TestRulesCommand(t *testing.T) {
	path := writeFile(t, "busmock.yml", definitionsYAML)

	stdout, _, err := execute(t, "rules", "--definitions", path)
	require.NoError(t, err)

	require.Contains(t, stdout, "Buses orders-bus")
	require.Contains(t, stdout, "Handlers broken, orders")
	require.Contains(t, stdout, "Subscriptions "+path)
	require.Contains(t, stdout, "orders   Ref:OrdersBus  orders-bus")
	require.Contains(t, stdout, `"rate(5 minutes)"`)
	require.Contains(t, stdout, "*/5 * * * *")
	require.Contains(t, stdout, "disabled: ")
	require.Contains(t, stdout, "Rejected")
	require.Contains(t, stdout, "1 subscriptions, 2 schedules, 1 rejected")
}

func TestRulesCommand_JSON(t *testing.T) {
	path := writeFile(t, "busmock.yml", definitionsYAML)

	stdout, _, err := execute(t, "rules", "--definitions", path, "-o", "json")
	require.NoError(t, err)

	var report RulesReport
	require.NoError(t, json.Unmarshal([]byte(stdout), &report))
	require.Len(t, report.Subscriptions, 1)
	require.Equal(t, "orders", report.Subscriptions[0].Handler)
	require.Equal(t, "orders-bus", report.Subscriptions[0].Resolved)
	require.Equal(t, []string{"orders-bus"}, report.Buses)
	require.Equal(t, []string{"broken", "orders"}, report.Handlers)

	require.Len(t, report.Schedules, 2)
	byHandler := map[string]ScheduleRow{}
	for _, s := range report.Schedules {
		byHandler[s.Handler] = s
	}
	require.True(t, byHandler["orders"].Enabled)
	require.False(t, byHandler["broken"].Enabled)
	require.NotEmpty(t, byHandler["broken"].Error)

	require.Len(t, report.Rejected, 1)
	require.Equal(t, "broken", report.Rejected[0].Handler)
}

func TestRulesCommand_DetailFields(t *testing.T) {
	path := writeFile(t, "busmock.yml", `
version: "1.0"
functions:
  audit:
    command: ["cat"]
    events:
      - eventBridge:
          pattern:
            detail:
              $or:
                - user: {id: [1]}
                - region: [eu]
      - eventBridge:
          pattern:
            detail:
              order: {total: [{numeric: [">", 10]}]}
              state: [open]
`)

	stdout, _, err := execute(t, "rules", "--definitions", path, "-o", "json")
	require.NoError(t, err)

	var report RulesReport
	require.NoError(t, json.Unmarshal([]byte(stdout), &report))
	require.Len(t, report.Subscriptions, 2)
	require.Equal(t, 2, report.Subscriptions[0].Alternatives)
	require.Empty(t, report.Subscriptions[0].DetailFields)
	require.Zero(t, report.Subscriptions[1].Alternatives)
	require.Equal(t, []string{"order.total", "state"}, report.Subscriptions[1].DetailFields)
	require.Empty(t, report.Buses)

	stdout, _, err = execute(t, "rules", "--definitions", path)
	require.NoError(t, err)
	require.Contains(t, stdout, "Buses -")
	require.Contains(t, stdout, "(2 alternatives)")
}

func TestRulesCommand_MissingDefinitions(t *testing.T) {
	_, stderr, err := execute(t, "rules", "--definitions", filepath.Join(t.TempDir(), "nope.yml"))
	require.Error(t, err)
	require.Contains(t, stderr, "✗ Failed to list rules")
}
