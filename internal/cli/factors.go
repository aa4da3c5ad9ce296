package cli

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Joel31000/CarbonConsult/internal/factors"
)

// Pseudo-categories of the factors command for the concrete sub-model tables.
const (
	sectionConcrete = "concrete"
	sectionRebar    = "rebar"
)

type factorSection struct {
	Key     string          `json:"key"`
	Label   string          `json:"label"`
	Entries []factors.Entry `json:"entries"`
}

func newFactorsCmd(a *app) *cobra.Command {
	var (
		category string
		output   string
	)

	cmd := &cobra.Command{
		Use:   "factors",
		Short: "List the emission factors in use",
		Example: `  carbonconsult factors
  carbonconsult factors --category transport
  carbonconsult factors --category concrete --output json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sections, err := a.factorSections(category)
			if err != nil {
				return err
			}
			return renderFactors(cmd, a.table.Version(), sections, strings.ToLower(output))
		},
	}

	cmd.Flags().StringVarP(&category, "category", "c", "",
		"only this category (materials, manufacturing, implementation, transport, end_of_life, concrete, rebar)")
	cmd.Flags().StringVarP(&output, "output", "o", outputTable, "output format: table or json")
	return cmd
}

func (a *app) factorSections(category string) ([]factorSection, error) {
	all := make([]factorSection, 0, len(factors.All())+2)
	for _, c := range factors.All() {
		all = append(all, factorSection{Key: c.String(), Label: c.Label(), Entries: a.table.Entries(c)})
	}
	all = append(all,
		factorSection{Key: sectionConcrete, Label: "Concrete types (per kg cement)", Entries: a.table.ConcreteTypes()},
		factorSection{Key: sectionRebar, Label: "Rebar grades (per kg steel)", Entries: a.table.RebarGrades()},
	)

	if category == "" {
		return all, nil
	}
	want := strings.ToLower(strings.TrimSpace(category))
	if c, ok := factors.ParseCategory(category); ok {
		want = c.String()
	}
	for _, s := range all {
		if s.Key == want {
			return []factorSection{s}, nil
		}
	}
	return nil, fmt.Errorf("unknown category %q", category)
}

func renderFactors(cmd *cobra.Command, version string, sections []factorSection, output string) error {
	w := cmd.OutOrStdout()
	switch output {
	case outputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			Version  string          `json:"version"`
			Sections []factorSection `json:"sections"`
		}{Version: version, Sections: sections})
	case outputTable:
	default:
		return fmt.Errorf("%w: %q (want table or json)", errInvalidOutput, output)
	}

	if _, err := fmt.Fprintf(w, "Emission factor table v%s\n", version); err != nil {
		return err
	}
	for _, s := range sections {
		fmt.Fprintf(w, "\n%s\n", s.Label)
		tw := tabwriter.NewWriter(w, 0, 0, tabPadding, ' ', 0)
		fmt.Fprintln(tw, "  NAME\tFACTOR\tUNIT")
		for _, e := range s.Entries {
			fmt.Fprintf(tw, "  %s\t%g\t%s\n", e.Name, e.Factor, e.Unit)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}
	return nil
}
