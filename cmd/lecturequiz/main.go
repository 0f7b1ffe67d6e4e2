package main

import (
	"context"
	"fmt"
	"os"

	"github.com/alnah/go-lecturequiz/internal/cli"
	"github.com/alnah/go-lecturequiz/internal/interrupt"
)

// Injected at build time via ldflags.
var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	os.Exit(run())
}

// run executes the CLI and returns the process exit code. Deferred cleanup
// runs before main calls os.Exit.
func run() int {
	handler, ctx := interrupt.NewHandler(context.Background())
	defer handler.Stop()

	root := cli.NewRootCmd(cli.DefaultEnv(), fmt.Sprintf("%s (commit: %s)", version, commit))
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return cli.ExitCode(err)
	}
	if handler.WasInterrupted() {
		return interrupt.ExitInterrupt
	}
	return cli.ExitOK
}
