package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Joel31000/CarbonConsult/internal/config"
	"github.com/Joel31000/CarbonConsult/internal/session"
	"github.com/Joel31000/CarbonConsult/internal/suggest"
)

func newSuggestCmd(a *app) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "suggest <offer|report>",
		Short: "Ask an AI model for an assessment and reduction recommendations",
		Long: `Sends the category totals, the detailed emission lines and the offer
comments to the configured provider (anthropic or gemini) and prints its
assessment and recommendations. The offer is never modified.`,
		Example: `  CARBONCONSULT_SUGGEST_PROVIDER=gemini GEMINI_API_KEY=... carbonconsult suggest offer.yaml`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output = strings.ToLower(output)
			if output != outputTable && output != outputJSON {
				return fmt.Errorf("%w: %q (want table or json)", errInvalidOutput, output)
			}
			return a.runSuggest(cmd, args[0], output)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", outputTable, "output format: table or json")
	return cmd
}

func (a *app) runSuggest(cmd *cobra.Command, input, output string) error {
	ctx := cmd.Context()

	svc, err := a.suggester(cmd)
	if err != nil {
		if errors.Is(err, suggest.ErrNotConfigured) {
			return fmt.Errorf("%w (set suggest.provider in %s or %s)", err, config.FileName, config.EnvSuggestProvider)
		}
		return err
	}

	offer, err := loadOffer(ctx, input, a.table)
	if err != nil {
		return err
	}
	s := session.New(a.table, session.WithOffer(offer), session.WithSuggester(svc))

	resp, err := s.Suggest(ctx)
	if err != nil {
		return err
	}
	return renderSuggestion(cmd.OutOrStdout(), resp, output)
}
