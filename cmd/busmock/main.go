package main

import (
	"os"

	"github.com/busmock/busmock/cmd/busmock/commands"
	srv "github.com/busmock/busmock/pkg/server"
)

// main runs the busmock CLI and maps failures to exit codes:
//   - 0: Success
//   - 1: General or runtime error
//   - 2: Invalid usage or configuration
//   - 3: Invalid definitions file
//   - 4: State directory locked by another instance
//   - 7: Server initialization failed
func main() {
	if err := commands.NewCommand().Execute(); err != nil {
		os.Exit(srv.ExitCode(err))
	}
}
