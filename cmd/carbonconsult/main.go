// Command carbonconsult estimates the CO2e footprint of supply-chain offers.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Joel31000/CarbonConsult/internal/cli"
	"github.com/Joel31000/CarbonConsult/pkg/version"
)

func main() {
	os.Exit(run())
}

// run executes the root command and returns the process exit code.
func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return exitCode(cli.NewRootCmd(version.GetVersion()).ExecuteContext(ctx))
}

// exitCode prints err and maps it to an exit code.
func exitCode(err error) int {
	if err == nil {
		return 0
	}
	_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	return 1
}
