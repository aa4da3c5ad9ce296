package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"

	"github.com/Joel31000/CarbonConsult/internal/greenops"
	"github.com/Joel31000/CarbonConsult/internal/suggest"
)

// Output formats.
const (
	outputTable = "table"
	outputJSON  = "json"
)

var errInvalidOutput = errors.New("invalid output format")

const (
	tabPadding  = 2
	boxWidth    = 56
	shareFormat = "%.1f%%"
)

func boxBorderColor() lipgloss.Color { return lipgloss.Color("240") }

func boxTitleColor() lipgloss.Color { return lipgloss.Color("39") }

func creditColor() lipgloss.Color { return lipgloss.Color("42") }

func mutedColor() lipgloss.Color { return lipgloss.Color("245") }

// isWriterTerminal reports whether w is a terminal; only then is output
// styled.
func isWriterTerminal(w io.Writer) bool {
	if f, ok := w.(*os.File); ok {
		return isTerminal(f)
	}
	return false
}

func unitLabel(unit string) string {
	u := strings.TrimSuffix(strings.ToLower(unit), "co2e")
	if u == "" {
		u = "kg"
	}
	return u + " CO2e"
}

func renderReports(w io.Writer, reports []calcReport, output string) error {
	if output == outputJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(reports)
	}

	styled := isWriterTerminal(w)
	for i, r := range reports {
		if i > 0 {
			if _, err := fmt.Fprintln(w); err != nil {
				return err
			}
		}
		var err error
		if styled {
			err = renderStyledReport(w, r)
		} else {
			err = renderPlainReport(w, r)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func reportTitle(r calcReport) string {
	if r.Label == "" {
		return r.Source
	}
	return fmt.Sprintf("%s (%s)", r.Label, r.Source)
}

func renderPlainReport(w io.Writer, r calcReport) error {
	if _, err := fmt.Fprintf(w, "%s\n", reportTitle(r)); err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, tabPadding, ' ', tabwriter.AlignRight)
	fmt.Fprintf(tw, "CATEGORY\t%s\tSHARE\t\n", strings.ToUpper(unitLabel(r.Unit)))
	for _, s := range r.Breakdown {
		fmt.Fprintf(tw, "%s\t%s\t"+shareFormat+"\t\n", s.Label, greenops.FormatFloat(s.Value, 2), s.Percent)
	}
	fmt.Fprintf(tw, "TOTAL\t%s\t\t\n", greenops.FormatFloat(r.GrandTotal, 2))
	if err := tw.Flush(); err != nil {
		return err
	}

	for _, u := range r.Unresolved {
		fmt.Fprintf(w, "warning: no emission factor for %s\n", u)
	}
	if r.Equivalencies != nil {
		fmt.Fprintln(w, r.Equivalencies.DisplayText)
	}
	return nil
}

func renderStyledReport(w io.Writer, r calcReport) error {
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(boxTitleColor())
	labelStyle := lipgloss.NewStyle().Width(18)
	valueStyle := lipgloss.NewStyle().Width(16).Align(lipgloss.Right)
	shareStyle := lipgloss.NewStyle().Width(9).Align(lipgloss.Right).Foreground(mutedColor())
	creditStyle := valueStyle.Foreground(creditColor())
	borderStyle := lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(boxBorderColor()).
		Padding(0, 1).
		Width(boxWidth)

	var b strings.Builder
	b.WriteString(titleStyle.Render(reportTitle(r)))
	b.WriteString("\n\n")
	for _, s := range r.Breakdown {
		vs := valueStyle
		if s.Value < 0 {
			vs = creditStyle
		}
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
			labelStyle.Render(s.Label),
			vs.Render(greenops.FormatFloat(s.Value, 2)),
			shareStyle.Render(fmt.Sprintf(shareFormat, s.Percent)),
		))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		labelStyle.Bold(true).Render("Total"),
		valueStyle.Bold(true).Render(greenops.FormatFloat(r.GrandTotal, 2)),
		shareStyle.Render(unitLabel(r.Unit)),
	))
	for _, u := range r.Unresolved {
		b.WriteString("\n")
		b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Render("⚠ no emission factor for " + u))
	}
	if r.Equivalencies != nil {
		b.WriteString("\n")
		b.WriteString(lipgloss.NewStyle().Italic(true).Foreground(mutedColor()).Render(r.Equivalencies.DisplayText))
	}

	_, err := fmt.Fprintln(w, borderStyle.Render(b.String()))
	return err
}

// renderSuggestion prints an assessment and its numbered recommendations.
func renderSuggestion(w io.Writer, resp suggest.Response, output string) error {
	if output == outputJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	}

	heading := func(s string) string { return s }
	if isWriterTerminal(w) {
		style := lipgloss.NewStyle().Bold(true).Foreground(boxTitleColor())
		heading = func(s string) string { return style.Render(s) }
	}

	if _, err := fmt.Fprintf(w, "%s\n%s\n\n%s\n", heading("Assessment"), resp.Assessment, heading("Recommendations")); err != nil {
		return err
	}
	for i, rec := range resp.Recommendations {
		if _, err := fmt.Fprintf(w, "%d. %s\n", i+1, rec); err != nil {
			return err
		}
	}
	return nil
}
