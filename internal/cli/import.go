package cli

import (
	"github.com/spf13/cobra"

	"github.com/Joel31000/CarbonConsult/internal/lineitem"
	"github.com/Joel31000/CarbonConsult/internal/session"
)

type importFlags struct {
	out          string
	commentsFrom string
	label        string
}

func newImportCmd(a *app) *cobra.Command {
	var flags importFlags

	cmd := &cobra.Command{
		Use:   "import <report>",
		Short: "Rebuild an offer from a CSV or XLSX report",
		Long: `Reads an exported (possibly hand-edited) report and writes the offer it
describes. Rows with unknown categories, blank rows and rows after Total are
ignored.

With --comments-from, the label and comments of an existing offer are kept and
only its line items are replaced.`,
		Example: `  carbonconsult import carbon_report_Site_A.csv --out offer.yaml
  carbonconsult import edited.xlsx --comments-from offer.yaml --out offer.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runImport(cmd, args[0], flags)
		},
	}

	cmd.Flags().StringVar(&flags.out, "out", "", "write the offer to this file (.yaml or .json); default stdout as YAML")
	cmd.Flags().StringVar(&flags.commentsFrom, "comments-from", "", "offer whose label and comments are kept")
	cmd.Flags().StringVar(&flags.label, "label", "", "label of the imported offer")
	return cmd
}

func (a *app) runImport(cmd *cobra.Command, report string, flags importFlags) error {
	ctx := cmd.Context()

	var opts []session.Option
	if flags.commentsFrom != "" {
		base, err := loadOffer(ctx, flags.commentsFrom, a.table)
		if err != nil {
			return err
		}
		opts = append(opts, session.WithOffer(base))
	}
	s := session.New(a.table, opts...)

	if err := s.ImportFile(ctx, report); err != nil {
		return err
	}
	if flags.label != "" {
		s.SetLabel(flags.label)
	}

	offer := s.Offer()
	if flags.out == "" {
		return lineitem.WriteOffer(cmd.OutOrStdout(), offer, "yaml")
	}
	if err := writeOffer(flags.out, offer); err != nil {
		return err
	}
	cmd.Printf("Imported %d line items into %s\n", offer.Len(), flags.out)
	return nil
}
