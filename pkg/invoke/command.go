package invoke

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"

	"github.com/rs/zerolog/log"
)

// CommandInvoker runs a local command per invocation with the JSON envelope on
// stdin. A non-zero exit status is an error.
type CommandInvoker struct {
	Command []string
	Dir     string
	Env     []string
}

// NewCommandInvoker returns a CommandInvoker for argv.
func NewCommandInvoker(argv []string, dir string, env map[string]string) (*CommandInvoker, error) {
	if len(argv) == 0 || argv[0] == "" {
		return nil, errors.New("command must not be empty")
	}
	c := &CommandInvoker{Command: append([]string(nil), argv...), Dir: dir}
	for k, v := range env {
		c.Env = append(c.Env, k+"="+v)
	}
	return c, nil
}

// Invoke runs the command and waits for it.
func (c *CommandInvoker) Invoke(ctx context.Context, handlerID string, envelope map[string]any) error {
	body, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("encode envelope: %w", err)
	}

	cmd := exec.CommandContext(ctx, c.Command[0], c.Command[1:]...)
	cmd.Dir = c.Dir
	cmd.Env = append(os.Environ(), c.Env...)
	cmd.Env = append(cmd.Env, "BUSMOCK_HANDLER="+handlerID)
	cmd.Stdin = bytes.NewReader(body)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("invoke %s: %w: %s", handlerID, err, bytes.TrimSpace(stderr.Bytes()))
	}

	log.Debug().
		Str("handler", handlerID).
		Str("stdout", string(bytes.TrimSpace(stdout.Bytes()))).
		Msg("Command handler finished")
	return nil
}
