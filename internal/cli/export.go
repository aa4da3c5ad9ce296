package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Joel31000/CarbonConsult/internal/session"
	"github.com/Joel31000/CarbonConsult/internal/tabular"
)

// ErrFormatMismatch is returned when --format contradicts the --out extension.
var ErrFormatMismatch = errors.New("report format does not match output file extension")

type exportFlags struct {
	format           string
	out              string
	dir              string
	reinforcedColumn bool
}

func newExportCmd(a *app) *cobra.Command {
	var flags exportFlags

	cmd := &cobra.Command{
		Use:   "export <offer|report>",
		Short: "Export an offer and its emissions as a CSV or XLSX report",
		Long: `Writes one row per line item, grouped by category, followed by a Total row.

Without --out the report is written to --dir as carbon_report_<label>.<ext>.`,
		Example: `  carbonconsult export offer.yaml
  carbonconsult export offer.yaml --format xlsx --reinforced-column
  carbonconsult export offer.yaml --out reports/site-a.csv`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("reinforced-column") {
				flags.reinforcedColumn = a.cfg.Export.ReinforcedColumn
			}
			if flags.dir == "" {
				flags.dir = a.cfg.Export.Dir
			}
			return a.runExport(cmd, args[0], flags)
		},
	}

	cmd.Flags().StringVarP(&flags.format, "format", "f", "", "report format: csv or xlsx (default from config or --out extension)")
	cmd.Flags().StringVar(&flags.out, "out", "", "output file path")
	cmd.Flags().StringVar(&flags.dir, "dir", "", "output directory when --out is not set (default current directory)")
	cmd.Flags().BoolVar(&flags.reinforcedColumn, "reinforced-column", false, "add an explicit Reinforced yes/no column")
	return cmd
}

func (a *app) runExport(cmd *cobra.Command, input string, flags exportFlags) error {
	ctx := cmd.Context()

	format, err := a.exportFormat(flags)
	if err != nil {
		return err
	}

	offer, err := loadOffer(ctx, input, a.table)
	if err != nil {
		return err
	}
	s := session.New(a.table, session.WithOffer(offer))
	opts := tabular.ExportOptions{ReinforcedColumn: flags.reinforcedColumn}

	path := flags.out
	if path == "" {
		dir := flags.dir
		if dir == "" {
			dir = "."
		}
		path, err = s.ExportFile(ctx, dir, format, opts)
		if err != nil {
			return err
		}
	} else {
		if filepath.Ext(path) == "" {
			path += "." + string(format)
		}
		if err = os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return fmt.Errorf("creating output directory: %w", err)
		}
		if err = tabular.WriteFile(path, s.Export(ctx, opts)); err != nil {
			return err
		}
	}

	cmd.Printf("Report written to %s\n", path)
	return nil
}

// exportFormat resolves the report format: --format, then the --out
// extension, then the configuration. A --format that disagrees with a
// recognised --out extension is an error.
func (a *app) exportFormat(flags exportFlags) (tabular.Format, error) {
	switch {
	case flags.format != "":
		f, err := tabular.ParseFormat(flags.format)
		if err != nil {
			return "", err
		}
		if ext, extErr := tabular.FormatFromPath(flags.out); flags.out != "" && extErr == nil && ext != f {
			return "", fmt.Errorf("%w: --format %s, --out %s", ErrFormatMismatch, f, flags.out)
		}
		return f, nil
	case flags.out != "" && filepath.Ext(flags.out) != "":
		f, err := tabular.FormatFromPath(flags.out)
		if err != nil {
			return "", fmt.Errorf("--out %s: %w", flags.out, err)
		}
		return f, nil
	default:
		return tabular.ParseFormat(a.cfg.Export.Format)
	}
}
