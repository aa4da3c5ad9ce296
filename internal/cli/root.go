// Package cli implements the carbonconsult command tree.
package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/Joel31000/CarbonConsult/internal/config"
	"github.com/Joel31000/CarbonConsult/internal/factors"
	"github.com/Joel31000/CarbonConsult/internal/logging"
	"github.com/Joel31000/CarbonConsult/internal/submission"
	"github.com/Joel31000/CarbonConsult/internal/suggest"
)

// isTerminal checks if the given file is a terminal.
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

type rootFlags struct {
	debug       bool
	configPath  string
	projectDir  string
	factorsPath string
}

// app is what the root command assembles before any subcommand runs.
type app struct {
	flags     rootFlags
	cfg       *config.Config
	table     *factors.Table
	logResult *logging.Result
}

// NewRootCmd creates the root Cobra command for the carbonconsult CLI.
func NewRootCmd(ver string) *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:           "carbonconsult",
		Short:         "CO2e footprint calculator for supply-chain offers",
		Long:          "CarbonConsult: estimate the carbon footprint of an offer across materials, manufacturing, implementation, transport and end of life",
		Version:       ver,
		Example:       rootCmdExample,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
		PersistentPostRunE: func(_ *cobra.Command, _ []string) error {
			return a.logResult.Close()
		},
	}

	pf := cmd.PersistentFlags()
	pf.BoolVar(&a.flags.debug, "debug", false, "enable debug logging")
	pf.StringVar(&a.flags.configPath, "config", "", "config file (default $CARBONCONSULT_HOME/config.yaml)")
	pf.StringVar(&a.flags.projectDir, "project-dir", "", "project directory holding .carbonconsult/ (default: search upwards)")
	pf.StringVar(&a.flags.factorsPath, "factors", "", "custom emission factor table (YAML)")

	cmd.AddCommand(
		newCalcCmd(a), newExportCmd(a), newImportCmd(a),
		newSuggestCmd(a), newSubmitCmd(a), newSubmissionsCmd(a),
		newFactorsCmd(a), newInitCmd(a),
	)
	return cmd
}

const rootCmdExample = `  # Compute the footprint of an offer
  carbonconsult calc offer.yaml

  # Compare several offers and reports, as JSON
  carbonconsult calc site-a.yaml site-b.yaml carbon_report_Site_C.xlsx --output json

  # Export a spreadsheet report
  carbonconsult export offer.yaml --format xlsx

  # Turn a hand-edited report back into an offer
  carbonconsult import carbon_report_Site_A.csv --out offer.yaml

  # Ask for reduction recommendations
  CARBONCONSULT_SUGGEST_PROVIDER=anthropic carbonconsult suggest offer.yaml

  # Record a submission
  carbonconsult submit offer.yaml`

// setup loads the configuration, configures logging and loads the factor
// table. CLI flags override the environment and config files.
func (a *app) setup(cmd *cobra.Command) error {
	wd, err := os.Getwd()
	if err != nil {
		wd = ""
	}
	projectDir := config.ResolveProjectDir(cmd.Context(), a.flags.projectDir, wd)

	cfg, err := config.Load(a.flags.configPath, projectDir)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}
	if a.flags.factorsPath != "" {
		cfg.Factors.File = a.flags.factorsPath
	}
	if err = cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	a.cfg = cfg

	a.setupLogging(cmd, projectDir)

	if cfg.Factors.File == "" {
		a.table = factors.Default()
		return nil
	}
	table, err := factors.Load(cfg.Factors.File)
	if err != nil {
		return err
	}
	a.table = table
	return nil
}

// suggester builds the suggestion service from the configuration.
func (a *app) suggester(cmd *cobra.Command) (*suggest.Service, error) {
	return suggest.New(cmd.Context(), suggest.Options{
		Provider: a.cfg.Suggest.Provider,
		Model:    a.cfg.Suggest.Model,
		APIKey:   a.cfg.Suggest.APIKey,
		Timeout:  time.Duration(a.cfg.Suggest.TimeoutSeconds) * time.Second,
	})
}

// openStore opens the configured submission store.
func (a *app) openStore() (submission.Store, error) {
	return submission.Open(a.cfg.Submission.Backend, a.cfg.Submission.Path)
}
