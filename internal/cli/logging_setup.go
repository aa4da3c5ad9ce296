package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Joel31000/CarbonConsult/internal/logging"
)

// setupLogging builds the logger from the loaded configuration and the
// --debug flag and attaches it to the command context.
func (a *app) setupLogging(cmd *cobra.Command, projectDir string) {
	result := logging.NewLogger(a.cfg.Logging.ToLoggingConfig(a.flags.debug))
	a.logResult = result
	logger := logging.ComponentLogger(result.Logger, "cli")

	if result.FallbackReason != "" {
		_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %s; logging to stderr\n", result.FallbackReason)
	}

	cmd.SetContext(logger.WithContext(cmd.Context()))

	logger.Debug().
		Str("command", cmd.Name()).
		Str("project_dir", projectDir).
		Str("factors", a.cfg.Factors.File).
		Msg("command started")
}
