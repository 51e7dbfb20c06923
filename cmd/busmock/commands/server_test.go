package commands

import (
	"bytes"
	"context"
	"net"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"

	srv "github.com/busmock/busmock/pkg/server"
	"github.com/busmock/busmock/pkg/workspace"
)

func freePort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())
	return port
}

func TestServerStart_InvalidPort(t *testing.T) {
	_, stderr, err := execute(t, "server", "start", "--port", "0")
	require.ErrorIs(t, err, srv.ErrInvalidPort)
	require.Equal(t, 2, srv.ExitCode(err))
	require.Contains(t, stderr, "✗ Failed to start server")
}

func TestServerStart_InvalidConcurrency(t *testing.T) {
	_, _, err := execute(t, "server", "start", "--jobs-concurrency", "0")
	require.ErrorIs(t, err, srv.ErrInvalidConcurrency)
	require.Equal(t, 2, srv.ExitCode(err))
}

func TestServerStart_MissingDefinitions(t *testing.T) {
	_, stderr, err := execute(t, "server", "start", "--definitions", filepath.Join(t.TempDir(), "missing.yml"))
	require.Error(t, err)
	require.Equal(t, 3, srv.ExitCode(err))
	require.Contains(t, stderr, "busmock rules --definitions <path>")
}

func TestServerStart_StateDirLocked(t *testing.T) {
	stateDir := t.TempDir()
	lock, err := workspace.Acquire(stateDir)
	require.NoError(t, err)
	t.Cleanup(func() { _ = lock.Release() })

	definitions := writeFile(t, "busmock.yml", definitionsYAML)
	_, _, err = execute(t, "server", "start",
		"--definitions", definitions,
		"--port", strconv.Itoa(freePort(t)),
		"--server.state_dir", stateDir,
	)
	require.ErrorIs(t, err, workspace.ErrStateLocked)
	require.Equal(t, 4, srv.ExitCode(err))
}

func TestServerStart_StopsWhenContextDone(t *testing.T) {
	t.Setenv("BUSMOCK_LOG_LEVEL", "error")
	definitions := writeFile(t, "busmock.yml", definitionsYAML)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cmd := NewCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"server", "start",
		"--definitions", definitions,
		"--port", strconv.Itoa(freePort(t)),
		"--server.state_dir", t.TempDir(),
	})

	require.NoError(t, cmd.ExecuteContext(ctx))
}
