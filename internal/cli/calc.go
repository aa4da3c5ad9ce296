package cli

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Joel31000/CarbonConsult/internal/engine"
	"github.com/Joel31000/CarbonConsult/internal/factors"
	"github.com/Joel31000/CarbonConsult/internal/greenops"
	"github.com/Joel31000/CarbonConsult/internal/lineitem"
	"github.com/Joel31000/CarbonConsult/internal/logging"
)

type calcFlags struct {
	output        string
	unit          string
	equivalencies bool
	concurrency   int
}

func newCalcCmd(a *app) *cobra.Command {
	var flags calcFlags

	cmd := &cobra.Command{
		Use:   "calc <offer|report>...",
		Short: "Compute the CO2e footprint of one or more offers",
		Long: `Computes per-category and total CO2e for each input file.

Inputs may be offer files (.yaml, .yml, .json) or exported reports (.csv,
.xlsx). Files are processed concurrently and printed in argument order.`,
		Example: `  carbonconsult calc offer.yaml
  carbonconsult calc a.yaml b.xlsx --output json --unit t`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runCalc(cmd, args, flags)
		},
	}

	cmd.Flags().StringVarP(&flags.output, "output", "o", outputTable, "output format: table or json")
	cmd.Flags().StringVar(&flags.unit, "unit", "kg", "display unit: g, kg, t or lb")
	cmd.Flags().BoolVar(&flags.equivalencies, "equivalencies", true, "show relatable equivalencies of the total")
	cmd.Flags().IntVar(&flags.concurrency, "concurrency", runtime.NumCPU(), "maximum files processed at once")
	return cmd
}

func (a *app) runCalc(cmd *cobra.Command, args []string, flags calcFlags) error {
	output := strings.ToLower(flags.output)
	if output != outputTable && output != outputJSON {
		return fmt.Errorf("%w: %q (want table or json)", errInvalidOutput, flags.output)
	}
	if !greenops.IsRecognizedUnit(flags.unit) {
		return fmt.Errorf("%w: %q", greenops.ErrInvalidUnit, flags.unit)
	}

	ctx := cmd.Context()
	calc := engine.NewCalculator(a.table)
	reports := make([]calcReport, len(args))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(max(flags.concurrency, 1))
	for i, path := range args {
		g.Go(func() error {
			offer, err := loadOffer(gCtx, path, a.table)
			if err != nil {
				return err
			}
			report, err := buildReport(path, offer, calc.Calculate(gCtx, offer), flags)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			reports[i] = report
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	logging.FromContext(ctx).Debug().
		Str("component", "cli").
		Str("operation", "calc").
		Int("files", len(args)).
		Msg("calculation complete")

	return renderReports(cmd.OutOrStdout(), reports, output)
}

// calcReport is the rendered form of one calculation.
type calcReport struct {
	Source     string                     `json:"source"`
	Label      string                     `json:"label,omitempty"`
	Unit       string                     `json:"unit"`
	Totals     engine.Totals              `json:"totals_kg"`
	GrandTotal float64                    `json:"grand_total"`
	Breakdown  []reportShare              `json:"breakdown"`
	Details    map[string][]engine.Detail `json:"details"`
	Unresolved []string                   `json:"unresolved,omitempty"`

	Equivalencies *greenops.EquivalencyOutput `json:"equivalencies,omitempty"`
}

// reportShare is a category subtotal expressed in the display unit.
type reportShare struct {
	Category string  `json:"category"`
	Label    string  `json:"label"`
	Value    float64 `json:"value"`
	Percent  float64 `json:"percent"`
}

func buildReport(path string, offer *lineitem.Offer, res *engine.Result, flags calcFlags) (calcReport, error) {
	unit := strings.ToLower(strings.TrimSpace(flags.unit))
	grand, err := greenops.FromKg(res.Totals.GrandTotal, unit)
	if err != nil {
		return calcReport{}, err
	}

	report := calcReport{
		Source:     path,
		Label:      offer.Label,
		Unit:       unit,
		Totals:     res.Totals,
		GrandTotal: grand,
		Details:    make(map[string][]engine.Detail, len(factors.All())),
	}
	for _, share := range res.Breakdown() {
		v, convErr := greenops.FromKg(share.CO2e, unit)
		if convErr != nil {
			return calcReport{}, convErr
		}
		report.Breakdown = append(report.Breakdown, reportShare{
			Category: share.Category.String(),
			Label:    share.Category.Label(),
			Value:    v,
			Percent:  share.Percent,
		})
		details := res.DetailsIn(share.Category)
		if details == nil {
			details = []engine.Detail{}
		}
		report.Details[share.Category.String()] = details
	}
	for _, it := range res.Items {
		if !it.Resolved && it.Name != "" {
			report.Unresolved = append(report.Unresolved, fmt.Sprintf("%s: %s", it.Category.Label(), it.Name))
		}
	}

	if flags.equivalencies {
		eq, eqErr := greenops.ForTotal(res.Totals.GrandTotal)
		if eqErr != nil {
			return calcReport{}, eqErr
		}
		if !eq.IsEmpty {
			report.Equivalencies = &eq
		}
	}
	return report, nil
}
