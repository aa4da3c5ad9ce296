package cli_test

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Joel31000/CarbonConsult/internal/cli"
	"github.com/Joel31000/CarbonConsult/internal/cli/pagination"
	"github.com/Joel31000/CarbonConsult/internal/config"
	"github.com/Joel31000/CarbonConsult/internal/engine"
	"github.com/Joel31000/CarbonConsult/internal/greenops"
	"github.com/Joel31000/CarbonConsult/internal/lineitem"
	"github.com/Joel31000/CarbonConsult/internal/submission"
	"github.com/Joel31000/CarbonConsult/internal/suggest"
	"github.com/Joel31000/CarbonConsult/internal/tabular"
)

const siteAOffer = `label: Site A
materials:
  - material: Steel (Virgin)
    quantity: 50
  - material: Concrete
    quantity: 10
    concrete_type: CEM III/B
    cement_mass: 300
    reinforced: true
    rebar_grade: Standard rebar
    rebar_mass: 100
    rebar_factor: 1.2
transport:
  - mode: Road (Diesel truck)
    distance: 500
    weight: 10
end_of_life:
  - method: Recycling (Metals)
    weight: 100
comments: Assumes local steel
`

// 100 + (939 + 1200) + 500 - 180
const siteATotal = 2559.0

type calcJSON struct {
	Source        string                      `json:"source"`
	Label         string                      `json:"label"`
	Unit          string                      `json:"unit"`
	Totals        engine.Totals               `json:"totals_kg"`
	GrandTotal    float64                     `json:"grand_total"`
	Details       map[string][]engine.Detail  `json:"details"`
	Unresolved    []string                    `json:"unresolved"`
	Equivalencies *greenops.EquivalencyOutput `json:"equivalencies"`
}

// setupEnv isolates the command from the user's configuration and returns
// the configuration home.
func setupEnv(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv(config.EnvHome, home)
	t.Setenv(config.EnvProjectDir, t.TempDir())
	t.Setenv(config.EnvLogLevel, "error")
	t.Setenv(config.EnvSuggestProvider, "")
	t.Setenv(config.EnvAnthropicKey, "")
	t.Setenv(config.EnvGeminiKey, "")
	return home
}

func writeTestFile(t *testing.T, path, content string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	cmd := cli.NewRootCmd("test")
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func calcAsJSON(t *testing.T, args ...string) []calcJSON {
	t.Helper()
	out, err := execute(t, append([]string{"calc", "--output", "json"}, args...)...)
	require.NoError(t, err, out)
	var got []calcJSON
	require.NoError(t, json.Unmarshal([]byte(out), &got), out)
	return got
}

func TestCalc_JSON(t *testing.T) {
	setupEnv(t)
	offer := writeTestFile(t, filepath.Join(t.TempDir(), "offer.yaml"), siteAOffer)

	got := calcAsJSON(t, offer)
	require.Len(t, got, 1)
	r := got[0]

	assert.Equal(t, offer, r.Source)
	assert.Equal(t, "Site A", r.Label)
	assert.Equal(t, "kg", r.Unit)
	assert.InDelta(t, siteATotal, r.Totals.GrandTotal, 1e-9)
	assert.InDelta(t, siteATotal, r.GrandTotal, 1e-9)
	assert.InDelta(t, -180.0, r.Totals.EndOfLife, 1e-9)
	assert.Len(t, r.Details["materials"], 2)
	assert.Empty(t, r.Details["end_of_life"], "credits are not listed as details")
	assert.Empty(t, r.Unresolved)
	require.NotNil(t, r.Equivalencies)
	assert.Len(t, r.Equivalencies.Results, 4)
}

func TestCalc_TablePlain(t *testing.T) {
	setupEnv(t)
	offer := writeTestFile(t, filepath.Join(t.TempDir(), "offer.yaml"), siteAOffer)

	out, err := execute(t, "calc", offer)
	require.NoError(t, err)

	assert.Contains(t, out, "Site A ("+offer+")")
	assert.Contains(t, out, "Materials")
	assert.Contains(t, out, "End of life")
	assert.Contains(t, out, "TOTAL")
	assert.Contains(t, out, "2,559.00")
	assert.Contains(t, out, "Equivalent to driving")
	assert.NotContains(t, out, "\x1b[", "no styling when not a terminal")
}

func TestCalc_ManyFilesKeepArgumentOrder(t *testing.T) {
	setupEnv(t)
	dir := t.TempDir()
	a := writeTestFile(t, filepath.Join(dir, "a.yaml"), siteAOffer)
	b := writeTestFile(t, filepath.Join(dir, "b.json"), `{"label": "Small", "materials": [{"material": "Glass", "quantity": "1000"}]}`)
	c := writeTestFile(t, filepath.Join(dir, "c.yaml"), "label: Empty\n")

	got := calcAsJSON(t, "--unit", "t", "--concurrency", "2", a, b, c)
	require.Len(t, got, 3)

	assert.Equal(t, []string{"Site A", "Small", "Empty"}, []string{got[0].Label, got[1].Label, got[2].Label})
	assert.Equal(t, "t", got[0].Unit)
	assert.InDelta(t, siteATotal/1000, got[0].GrandTotal, 1e-9)
	assert.InDelta(t, 900.0, got[1].Totals.GrandTotal, 1e-9)
	assert.InDelta(t, 0.0, got[2].GrandTotal, 1e-9)
	assert.Nil(t, got[2].Equivalencies, "no equivalencies below the threshold")
}

func TestCalc_Errors(t *testing.T) {
	setupEnv(t)
	offer := writeTestFile(t, filepath.Join(t.TempDir(), "offer.yaml"), siteAOffer)

	tests := []struct {
		name    string
		args    []string
		wantErr error
	}{
		{name: "bad unit", args: []string{"calc", "--unit", "furlong", offer}, wantErr: greenops.ErrInvalidUnit},
		{name: "unsupported input", args: []string{"calc", "offer.pdf"}, wantErr: cli.ErrUnsupportedInput},
		{name: "broken report", args: []string{"calc", writeTestFile(t, filepath.Join(t.TempDir(), "r.xlsx"), "nope")}, wantErr: tabular.ErrUnreadableDocument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.args...)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}

	_, err := execute(t, "calc", "--output", "xml", offer)
	require.Error(t, err)
	_, err = execute(t, "calc", filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	_, err = execute(t, "calc")
	require.Error(t, err)
}

func TestCalc_RebarGradeFromTable(t *testing.T) {
	setupEnv(t)
	offer := writeTestFile(t, filepath.Join(t.TempDir(), "offer.yaml"), `materials:
  - material: Concrete
    quantity: 10
    concrete_type: CEM III/B
    cement_mass: 300
    reinforced: true
    rebar_grade: Standard rebar
    rebar_mass: 100
`)

	got := calcAsJSON(t, offer)
	require.Len(t, got, 1)
	assert.InDelta(t, 2139.0, got[0].Totals.Materials, 1e-9)
}

func TestCalc_CustomFactorTable(t *testing.T) {
	setupEnv(t)
	dir := t.TempDir()
	offer := writeTestFile(t, filepath.Join(dir, "offer.yaml"), siteAOffer)
	table := writeTestFile(t, filepath.Join(dir, "factors.yaml"), `version: "1.0.0"
materials:
  - { name: "Steel (Virgin)", factor: 3.0, unit: "kg CO2e/kg" }
`)

	got := calcAsJSON(t, "--factors", table, offer)
	require.Len(t, got, 1)

	// Steel 150 plus the rebar term, which does not depend on the table.
	assert.InDelta(t, 1350.0, got[0].Totals.GrandTotal, 1e-9)
	assert.Contains(t, got[0].Unresolved, "Transport: Road (Diesel truck)")

	_, err := execute(t, "calc", "--factors", filepath.Join(dir, "none.yaml"), offer)
	require.Error(t, err)
}

func TestExportImport_RoundTrip(t *testing.T) {
	setupEnv(t)
	dir := t.TempDir()
	offer := writeTestFile(t, filepath.Join(dir, "offer.yaml"), siteAOffer)

	for _, format := range []string{"csv", "xlsx"} {
		t.Run(format, func(t *testing.T) {
			outDir := t.TempDir()
			out, err := execute(t, "export", offer, "--format", format, "--dir", outDir)
			require.NoError(t, err)
			report := filepath.Join(outDir, "carbon_report_Site_A."+format)
			assert.Contains(t, out, report)
			require.FileExists(t, report)

			got := calcAsJSON(t, report)
			assert.InDelta(t, siteATotal, got[0].Totals.GrandTotal, 0.01)

			yamlOut, err := execute(t, "import", report)
			require.NoError(t, err)
			imported, err := lineitem.ReadOffer(strings.NewReader(yamlOut))
			require.NoError(t, err)
			require.Len(t, imported.Materials, 2)
			assert.Equal(t, "Steel (Virgin)", imported.Materials[0].Material)
			assert.True(t, imported.Materials[1].IsReinforced())
			assert.Equal(t, "Standard rebar", imported.Materials[1].Concrete.Rebar.Grade)
		})
	}
}

func TestExport_OutPathAndReinforcedColumn(t *testing.T) {
	setupEnv(t)
	dir := t.TempDir()
	offer := writeTestFile(t, filepath.Join(dir, "offer.yaml"), siteAOffer)
	report := filepath.Join(dir, "reports", "custom.csv")

	_, err := execute(t, "export", offer, "--out", report, "--reinforced-column")
	require.NoError(t, err)

	doc, err := tabular.ReadFile(report)
	require.NoError(t, err)
	assert.Equal(t, tabular.ColReinforced, doc.Header[len(doc.Header)-1])

	_, err = execute(t, "export", offer, "--out", filepath.Join(dir, "r.pdf"))
	require.ErrorIs(t, err, tabular.ErrUnsupportedFormat)

	mismatched := filepath.Join(dir, "mismatch.csv")
	_, err = execute(t, "export", offer, "--format", "xlsx", "--out", mismatched)
	require.ErrorIs(t, err, cli.ErrFormatMismatch)
	assert.NoFileExists(t, mismatched)

	out, err := execute(t, "export", offer, "--format", "xlsx", "--out", filepath.Join(dir, "bare"))
	require.NoError(t, err)
	assert.Contains(t, out, filepath.Join(dir, "bare.xlsx"))
	doc, err = tabular.ReadFile(filepath.Join(dir, "bare.xlsx"))
	require.NoError(t, err)
	assert.Equal(t, tabular.Columns(), doc.Header)
}

func TestImport_CommentsFromAndOut(t *testing.T) {
	setupEnv(t)
	dir := t.TempDir()
	offer := writeTestFile(t, filepath.Join(dir, "offer.yaml"), siteAOffer)
	report := writeTestFile(t, filepath.Join(dir, "edited.csv"),
		"Category;Item name;Unit;Quantity\nMaterials;Glass;kg;1000\nTransport;Rail;km;100\n")
	target := filepath.Join(dir, "out", "offer.json")

	out, err := execute(t, "import", report, "--comments-from", offer, "--out", target)
	require.NoError(t, err)
	assert.Contains(t, out, "Imported 2 line items")

	f, err := os.Open(target)
	require.NoError(t, err)
	defer f.Close()
	got, err := lineitem.ReadOffer(f)
	require.NoError(t, err)

	assert.Equal(t, "Site A", got.Label)
	assert.Equal(t, "Assumes local steel", got.Comments)
	require.Len(t, got.Materials, 1)
	assert.Equal(t, "Glass", got.Materials[0].Material)
	assert.Empty(t, got.EndOfLife, "line items are replaced wholesale")

	_, err = execute(t, "import", filepath.Join(dir, "missing.xlsx"))
	require.ErrorIs(t, err, tabular.ErrUnreadableDocument)
}

func TestSuggest_NotConfigured(t *testing.T) {
	setupEnv(t)
	offer := writeTestFile(t, filepath.Join(t.TempDir(), "offer.yaml"), siteAOffer)

	_, err := execute(t, "suggest", offer)
	require.ErrorIs(t, err, suggest.ErrNotConfigured)

	t.Setenv(config.EnvSuggestProvider, "anthropic")
	_, err = execute(t, "suggest", offer)
	require.ErrorIs(t, err, suggest.ErrNotConfigured, "missing API key")
}

func TestSubmitAndList(t *testing.T) {
	for _, backend := range []string{"file", "sqlite"} {
		t.Run(backend, func(t *testing.T) {
			home := setupEnv(t)
			dir := t.TempDir()
			writeTestFile(t, filepath.Join(home, "config.yaml"),
				"submission:\n  backend: "+backend+"\n  path: "+filepath.Join(dir, "store."+backend)+"\n")
			big := writeTestFile(t, filepath.Join(dir, "big.yaml"), siteAOffer)
			small := writeTestFile(t, filepath.Join(dir, "small.yaml"), "label: Small\nmaterials:\n  - {material: Glass, quantity: 10}\n")

			for _, offer := range []string{small, big} {
				out, err := execute(t, "submit", offer)
				require.NoError(t, err)
				assert.Contains(t, out, submission.SuccessMessage)
			}

			out, err := execute(t, "submissions", "--output", "json", "--sort", "total:desc", "--limit", "1")
			require.NoError(t, err)
			var listed struct {
				Submissions []submission.Submission `json:"submissions"`
				Meta        pagination.Meta         `json:"meta"`
			}
			require.NoError(t, json.Unmarshal([]byte(out), &listed))
			require.Len(t, listed.Submissions, 1)
			assert.Equal(t, "Site A", listed.Submissions[0].Offer.Label)
			assert.InDelta(t, siteATotal, listed.Submissions[0].Totals.GrandTotal, 1e-9)
			assert.Equal(t, 2, listed.Meta.TotalItems)
			assert.True(t, listed.Meta.HasNext)

			out, err = execute(t, "submissions")
			require.NoError(t, err)
			assert.Contains(t, out, "Small")
			assert.Contains(t, out, "2,559.00")
			assert.Contains(t, out, "Showing 2 of 2 submissions")

			_, err = execute(t, "submissions", "--sort", "savings")
			require.ErrorIs(t, err, pagination.ErrInvalidSortField)
		})
	}
}

func TestSubmit_CorruptedStore(t *testing.T) {
	home := setupEnv(t)
	dir := t.TempDir()
	store := writeTestFile(t, filepath.Join(dir, "subs.json"), "{broken")
	writeTestFile(t, filepath.Join(home, "config.yaml"), "submission:\n  backend: file\n  path: "+store+"\n")
	offer := writeTestFile(t, filepath.Join(dir, "offer.yaml"), siteAOffer)

	_, err := execute(t, "submit", offer)
	require.ErrorIs(t, err, submission.ErrSubmissionFailed)
	require.ErrorIs(t, err, submission.ErrStoreCorrupted)
}

func TestFactors(t *testing.T) {
	setupEnv(t)

	out, err := execute(t, "factors", "--category", "Transport")
	require.NoError(t, err)
	assert.Contains(t, out, "Emission factor table v1.2.0")
	assert.Contains(t, out, "Rail")
	assert.NotContains(t, out, "Glass")

	out, err = execute(t, "factors", "--category", "concrete", "--output", "json")
	require.NoError(t, err)
	var listed struct {
		Version  string `json:"version"`
		Sections []struct {
			Key     string `json:"key"`
			Entries []struct {
				Name string `json:"name"`
			} `json:"entries"`
		} `json:"sections"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &listed))
	require.Len(t, listed.Sections, 1)
	assert.Equal(t, "concrete", listed.Sections[0].Key)
	assert.NotEmpty(t, listed.Sections[0].Entries)

	out, err = execute(t, "factors")
	require.NoError(t, err)
	assert.Contains(t, out, "Rebar grades")

	_, err = execute(t, "factors", "--category", "packaging")
	require.Error(t, err)
}

func TestInit(t *testing.T) {
	setupEnv(t)
	root := t.TempDir()

	out, err := execute(t, "init", root)
	require.NoError(t, err)
	assert.Contains(t, out, filepath.Join(root, ".carbonconsult"))
	assert.FileExists(t, filepath.Join(root, ".carbonconsult", "config.yaml"))
	assert.FileExists(t, filepath.Join(root, ".carbonconsult", ".gitignore"))
}

func TestProjectConfigOverlay(t *testing.T) {
	setupEnv(t)
	project := filepath.Join(t.TempDir(), ".carbonconsult")
	writeTestFile(t, filepath.Join(project, "config.yaml"), "export:\n  format: xlsx\n")
	offer := writeTestFile(t, filepath.Join(t.TempDir(), "offer.yaml"), siteAOffer)
	outDir := t.TempDir()

	_, err := execute(t, "--project-dir", project, "export", offer, "--dir", outDir)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(outDir, "carbon_report_Site_A.xlsx"))
}

func TestInvalidConfig(t *testing.T) {
	home := setupEnv(t)
	writeTestFile(t, filepath.Join(home, "config.yaml"), "export:\n  format: pdf\n")

	_, err := execute(t, "factors")
	require.ErrorIs(t, err, config.ErrInvalidExport)
}
