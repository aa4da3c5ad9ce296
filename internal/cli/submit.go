package cli

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Joel31000/CarbonConsult/internal/cli/pagination"
	"github.com/Joel31000/CarbonConsult/internal/greenops"
	"github.com/Joel31000/CarbonConsult/internal/session"
	"github.com/Joel31000/CarbonConsult/internal/submission"
)

func newSubmitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "submit <offer|report>",
		Short: "Record an offer and its totals in the submission store",
		Long: `Persists a snapshot of the offer together with its computed totals. The
store is a JSON file or a SQLite database, selected by submission.backend.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runSubmit(cmd, args[0])
		},
	}
}

func (a *app) runSubmit(cmd *cobra.Command, input string) error {
	ctx := cmd.Context()

	offer, err := loadOffer(ctx, input, a.table)
	if err != nil {
		return err
	}

	store, err := a.openStore()
	if err != nil {
		return fmt.Errorf("%w: %w", submission.ErrSubmissionFailed, err)
	}
	defer store.Close()

	s := session.New(a.table, session.WithOffer(offer), session.WithSubmitter(submission.NewSubmitter(store)))
	ack, err := s.Submit(ctx)
	if err != nil {
		return err
	}
	cmd.Printf("%s (id %s)\n", ack.Message, ack.ID)
	return nil
}

type submissionsFlags struct {
	limit  int
	offset int
	sort   string
	output string
}

func newSubmissionsCmd(a *app) *cobra.Command {
	var flags submissionsFlags

	cmd := &cobra.Command{
		Use:   "submissions",
		Short: "List recorded submissions",
		Example: `  carbonconsult submissions --sort total:desc --limit 10
  carbonconsult submissions --output json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runSubmissions(cmd, flags)
		},
	}

	cmd.Flags().IntVar(&flags.limit, "limit", pagination.DefaultLimit, "maximum submissions shown (0 = all)")
	cmd.Flags().IntVar(&flags.offset, "offset", 0, "submissions to skip")
	cmd.Flags().StringVar(&flags.sort, "sort", "", "sort by created, total or label, optionally suffixed :asc or :desc")
	cmd.Flags().StringVarP(&flags.output, "output", "o", outputTable, "output format: table or json")
	return cmd
}

func (a *app) runSubmissions(cmd *cobra.Command, flags submissionsFlags) error {
	params := pagination.Params{Limit: flags.limit, Offset: flags.offset}
	if err := params.Validate(); err != nil {
		return err
	}
	if err := params.SetSort(flags.sort); err != nil {
		return err
	}
	sorter := pagination.NewSubmissionSorter()
	if err := sorter.Validate(params.SortField); err != nil {
		return err
	}
	output := strings.ToLower(flags.output)
	if output != outputTable && output != outputJSON {
		return fmt.Errorf("%w: %q (want table or json)", errInvalidOutput, flags.output)
	}

	store, err := a.openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	all, err := store.List(cmd.Context())
	if err != nil {
		return err
	}
	page, meta := pagination.Page(sorter.Sort(all, params.SortField, params.SortOrder), params)

	w := cmd.OutOrStdout()
	if output == outputJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			Submissions []submission.Submission `json:"submissions"`
			Meta        pagination.Meta         `json:"meta"`
		}{Submissions: page, Meta: meta})
	}

	tw := tabwriter.NewWriter(w, 0, 0, tabPadding, ' ', 0)
	fmt.Fprintln(tw, "ID\tCREATED\tLABEL\tTOTAL (KG CO2E)")
	for _, sub := range page {
		label := ""
		if sub.Offer != nil {
			label = sub.Offer.Label
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", sub.ID, sub.CreatedAt.Format("2006-01-02 15:04"), label,
			greenops.FormatFloat(sub.Totals.GrandTotal, 2))
	}
	if err = tw.Flush(); err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "Showing %d of %d submissions\n", meta.Returned, meta.TotalItems)
	return err
}
