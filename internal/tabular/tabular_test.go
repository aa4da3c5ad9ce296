package tabular

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Joel31000/CarbonConsult/internal/engine"
	"github.com/Joel31000/CarbonConsult/internal/factors"
	"github.com/Joel31000/CarbonConsult/internal/lineitem"
)

func sampleOffer() *lineitem.Offer {
	return &lineitem.Offer{
		Label: "Bridge deck",
		Materials: []lineitem.MaterialItem{
			{Material: "Steel (Virgin)", Quantity: 50},
			lineitem.NewConcreteItem("CEM III/B", 10, 300, &lineitem.RebarSpec{
				Grade: "Standard rebar", MassPerVolume: 100, Factor: 1.2,
			}),
		},
		Manufacturing: []lineitem.ProcessItem{{Process: "Welding", DurationHours: 4}},
		Transport:     []lineitem.TransportItem{{Mode: "Road (Diesel truck)", DistanceKm: 500, WeightTonnes: 10}},
		EndOfLife: []lineitem.EndOfLifeItem{
			{Method: "Recycling (Metals)", WeightKg: 100},
			{Method: "Landfill", WeightKg: 10},
		},
		Comments: "Steel sourced locally",
	}
}

func calculate(t *testing.T, o *lineitem.Offer) *engine.Result {
	t.Helper()
	return engine.NewCalculator(factors.Default()).Calculate(context.Background(), o)
}

func TestExport_Layout(t *testing.T) {
	offer := sampleOffer()
	doc := Export(offer, calculate(t, offer), ExportOptions{})

	assert.Equal(t, Columns(), doc.Header)
	want := [][]string{
		{"Materials", "Steel (Virgin)", "kg", "50.00", "2.00", "", "", "", "", "100.00"},
		{"", "CEM III/B (Reinforced)", "m³", "10.00", "0.31", "300.00", "1.20", "100.00", "", "2139.00"},
		{"Manufacturing", "Welding", "H", "4.00", "7.50", "", "", "", "", "30.00"},
		{"Transport", "Road (Diesel truck)", "km", "500.00", "0.10", "", "", "", "10.00", "500.00"},
		{"End of life", "Recycling (Metals)", "kg", "100.00", "-1.80", "", "", "", "", "0.00"},
		{"", "Landfill", "kg", "10.00", "0.20", "", "", "", "", "2.00"},
		{"Total", "", "", "", "", "", "", "", "", "2591.00"},
	}
	assert.Equal(t, want, doc.Rows)
}

func TestExport_EmptyOffer(t *testing.T) {
	doc := Export(nil, nil, ExportOptions{})
	require.Len(t, doc.Rows, 1)
	assert.Equal(t, TotalLabel, doc.Rows[0][0])
	assert.Equal(t, "0.00", doc.Rows[0][9])
}

func TestExport_ReinforcedColumn(t *testing.T) {
	offer := &lineitem.Offer{Materials: []lineitem.MaterialItem{
		{Material: "Glass", Quantity: 1},
		lineitem.NewConcreteItem("CEM V", 1, 250, nil),
		lineitem.NewConcreteItem("CEM V", 1, 250, &lineitem.RebarSpec{MassPerVolume: 80, Factor: 0.7}),
	}}
	doc := Export(offer, calculate(t, offer), ExportOptions{ReinforcedColumn: true})

	require.Len(t, doc.Header, 11)
	assert.Equal(t, ColReinforced, doc.Header[10])
	assert.Equal(t, "", doc.Rows[0][10])
	assert.Equal(t, "no", doc.Rows[1][10])
	assert.Equal(t, "yes", doc.Rows[2][10])
	assert.Len(t, doc.Rows[3], 11, "total row keeps the full width")
}

func TestRoundTrip_NonConcrete(t *testing.T) {
	offer := &lineitem.Offer{
		Materials:      []lineitem.MaterialItem{{Material: "Glass", Quantity: 12.5}, {Material: "Plastic (PET)", Quantity: 3.25}},
		Manufacturing:  []lineitem.ProcessItem{{Process: "Machining", DurationHours: 6}},
		Implementation: []lineitem.ProcessItem{{Process: "Excavation", DurationHours: 1.5}, {Process: "Unknown rig", DurationHours: 2}},
		Transport:      []lineitem.TransportItem{{Mode: "Rail", DistanceKm: 820.4, WeightTonnes: 3.75}},
		EndOfLife:      []lineitem.EndOfLifeItem{{Method: "Recycling (Plastics)", WeightKg: 3.25}},
	}
	original := calculate(t, offer)

	for _, format := range []Format{FormatCSV, FormatXLSX} {
		t.Run(string(format), func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, Encode(&buf, Export(offer, original, ExportOptions{}), format))

			doc, err := Decode(&buf, format)
			require.NoError(t, err)
			got, err := Import(context.Background(), doc, factors.Default())
			require.NoError(t, err)

			assert.Equal(t, offer.Materials, got.Materials)
			assert.Equal(t, offer.Manufacturing, got.Manufacturing)
			assert.Equal(t, offer.Implementation, got.Implementation)
			assert.Equal(t, offer.Transport, got.Transport)
			assert.Equal(t, offer.EndOfLife, got.EndOfLife)

			recomputed := calculate(t, got)
			for _, c := range factors.All() {
				assert.InDelta(t, original.Totals.ByCategory(c), recomputed.Totals.ByCategory(c), 0.01, c.String())
			}
			assert.InDelta(t, original.Totals.GrandTotal, recomputed.Totals.GrandTotal, 0.01)
		})
	}
}

func TestRoundTrip_ReinforcedConcrete(t *testing.T) {
	offer := &lineitem.Offer{Materials: []lineitem.MaterialItem{
		lineitem.NewConcreteItem("CEM III/B", 10, 300, &lineitem.RebarSpec{Grade: "Standard rebar", MassPerVolume: 100, Factor: 1.2}),
		lineitem.NewConcreteItem("CEM II/A", 4, 280, nil),
		lineitem.NewConcreteItem("CEM V", 2, 260, &lineitem.RebarSpec{Grade: "Low-carbon rebar (EAF)", MassPerVolume: 90, Factor: 0.7}),
	}}
	res := calculate(t, offer)

	tests := []struct {
		name   string
		format Format
		opts   ExportOptions
	}{
		{name: "csv suffix", format: FormatCSV},
		{name: "xlsx suffix", format: FormatXLSX},
		{name: "csv explicit column", format: FormatCSV, opts: ExportOptions{ReinforcedColumn: true}},
		{name: "xlsx explicit column", format: FormatXLSX, opts: ExportOptions{ReinforcedColumn: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, Encode(&buf, Export(offer, res, tt.opts), tt.format))
			doc, err := Decode(&buf, tt.format)
			require.NoError(t, err)

			got, err := Import(context.Background(), doc, nil)
			require.NoError(t, err)
			require.Len(t, got.Materials, 3)
			assert.Equal(t, offer.Materials, got.Materials)
			assert.True(t, got.Materials[0].IsReinforced())
			assert.False(t, got.Materials[1].IsReinforced())
			assert.InDelta(t, res.Totals.Materials, calculate(t, got).Totals.Materials, 0.01)
		})
	}
}

func TestExport_RebarGradeWithoutFactor(t *testing.T) {
	offer := &lineitem.Offer{Materials: []lineitem.MaterialItem{
		lineitem.NewConcreteItem("CEM III/B", 10, 300, &lineitem.RebarSpec{Grade: "Standard rebar", MassPerVolume: 100}),
	}}

	doc := Export(offer, calculate(t, offer), ExportOptions{})
	require.NotEmpty(t, doc.Rows)
	cols := indexHeader(doc.Header)
	assert.Equal(t, "1.20", cols.cell(doc.Rows[0], ColRebarFactor))
	assert.Equal(t, "2139.00", cols.cell(doc.Rows[0], ColCO2e))

	got, err := Import(context.Background(), doc, nil)
	require.NoError(t, err)
	require.True(t, got.Materials[0].IsReinforced())
	assert.Equal(t, "Standard rebar", got.Materials[0].Concrete.Rebar.Grade)
	assert.InDelta(t, 1.2, got.Materials[0].Concrete.Rebar.Factor, 1e-9)
}

func TestImport_ExplicitColumnWinsOverSuffix(t *testing.T) {
	doc := &Document{
		Header: append(Columns(), ColReinforced),
		Rows: [][]string{
			{"Materials", "CEM V", "m³", "1.00", "", "250.00", "2.00", "50.00", "", "", "yes"},
			{"", "CEM I (Portland) (Reinforced)", "m³", "1.00", "", "250.00", "", "", "", "", "no"},
		},
	}
	got, err := Import(context.Background(), doc, nil)
	require.NoError(t, err)
	require.Len(t, got.Materials, 2)

	assert.Equal(t, "CEM V", got.Materials[0].Concrete.Type)
	require.NotNil(t, got.Materials[0].Concrete.Rebar)
	assert.Equal(t, "Virgin rebar (BOF)", got.Materials[0].Concrete.Rebar.Grade)
	assert.Equal(t, "CEM I (Portland)", got.Materials[1].Concrete.Type)
	assert.False(t, got.Materials[1].IsReinforced())
}

func TestImport_LegacyMarkerAndPlainConcrete(t *testing.T) {
	doc := &Document{
		Header: Columns(),
		Rows: [][]string{
			{"Materials", "CEM III/A (armé)", "m³", "2", "", "300", "1.5", "40", "", ""},
			{"", "Concrete", "m³", "3", "", "100", "", "", "", ""},
		},
	}
	got, err := Import(context.Background(), doc, nil)
	require.NoError(t, err)
	require.Len(t, got.Materials, 2)

	m := got.Materials[0]
	assert.Equal(t, "CEM III/A", m.Concrete.Type)
	require.True(t, m.IsReinforced())
	assert.Empty(t, m.Concrete.Rebar.Grade, "no grade has factor 1.5")
	assert.InDelta(t, 1.5, m.Concrete.Rebar.Factor, 1e-9)

	plain := got.Materials[1]
	assert.True(t, plain.IsConcrete())
	assert.Empty(t, plain.Concrete.Type)
	assert.InDelta(t, 3.0, plain.Quantity, 1e-9)
}

func TestImport_HandEditedCSV(t *testing.T) {
	input := bom + strings.Join([]string{
		"Category;Item name;Quantity;Notes;Transport weight (tonnes)",
		"Materials;Glass;1,5;hello;",
		";;;;",
		"Gizmos;Widget;3;;",
		";Sprocket;4;;",
		"Transport;Rail;100;;2,5",
		"End of life;Landfill;abc;;",
		"manufacturing;Assembly;2;;",
		";;7;;",
		"Total;;;;",
		"Materials;Glass;99;;",
	}, "\r\n")

	doc, err := ReadCSV(strings.NewReader(input))
	require.NoError(t, err)
	got, err := Import(context.Background(), doc, nil)
	require.NoError(t, err)

	assert.Equal(t, []lineitem.MaterialItem{{Material: "Glass", Quantity: 1.5}}, got.Materials)
	assert.Equal(t, []lineitem.TransportItem{{Mode: "Rail", DistanceKm: 100, WeightTonnes: 2.5}}, got.Transport)
	assert.Equal(t, []lineitem.EndOfLifeItem{{Method: "Landfill", WeightKg: 0}}, got.EndOfLife)
	assert.Equal(t, []lineitem.ProcessItem{{Process: "Assembly", DurationHours: 2}}, got.Manufacturing)
	assert.Empty(t, got.Implementation)
	assert.Empty(t, got.Comments)
}

func TestImport_ProcessCategoriesStaySeparate(t *testing.T) {
	doc := &Document{
		Header: Columns(),
		Rows: [][]string{
			{"Manufacturing", "Welding", "H", "1.00"},
			{"", "Assembly", "H", "2.00"},
			{"Implementation", "Excavation", "H", "3.00"},
			{"", "Welding", "H", "4.00"},
		},
	}
	got, err := Import(context.Background(), doc, nil)
	require.NoError(t, err)
	assert.Equal(t, []lineitem.ProcessItem{{Process: "Welding", DurationHours: 1}, {Process: "Assembly", DurationHours: 2}}, got.Manufacturing)
	assert.Equal(t, []lineitem.ProcessItem{{Process: "Excavation", DurationHours: 3}, {Process: "Welding", DurationHours: 4}}, got.Implementation)
}

func TestImport_Unreadable(t *testing.T) {
	t.Run("nil document", func(t *testing.T) {
		_, err := Import(context.Background(), nil, nil)
		require.ErrorIs(t, err, ErrUnreadableDocument)
	})

	t.Run("missing item name column", func(t *testing.T) {
		_, err := Import(context.Background(), &Document{Header: []string{"Category", "Quantity"}}, nil)
		require.ErrorIs(t, err, ErrUnreadableDocument)
	})

	t.Run("empty csv", func(t *testing.T) {
		_, err := ReadCSV(strings.NewReader(""))
		require.ErrorIs(t, err, ErrUnreadableDocument)
	})

	t.Run("corrupt xlsx", func(t *testing.T) {
		_, err := ReadXLSX(strings.NewReader("definitely not a zip archive"))
		require.ErrorIs(t, err, ErrUnreadableDocument)
	})
}

func TestHeaderMatching(t *testing.T) {
	idx := indexHeader([]string{bom + "CATEGORY", " item  name ", "Cement mass (kg per m3)"})
	assert.True(t, idx.has(ColCategory))
	assert.True(t, idx.has(ColItemName))
	assert.True(t, idx.has(ColCementMass))
	assert.False(t, idx.has(ColRebarMass))
	assert.Equal(t, "", idx.cell([]string{"a"}, ColItemName), "short rows read as blank")
}

func TestFormat(t *testing.T) {
	f, err := FormatFromPath("/tmp/report.XLSX")
	require.NoError(t, err)
	assert.Equal(t, FormatXLSX, f)

	f, err = ParseFormat(".csv")
	require.NoError(t, err)
	assert.Equal(t, FormatCSV, f)

	_, err = FormatFromPath("report.ods")
	require.ErrorIs(t, err, ErrUnsupportedFormat)

	require.ErrorIs(t, Encode(&bytes.Buffer{}, &Document{}, Format("pdf")), ErrUnsupportedFormat)
}

func TestFilename(t *testing.T) {
	assert.Equal(t, "carbon_report_Bridge_deck_A.csv", Filename("Bridge deck A", FormatCSV))
	assert.Equal(t, "carbon_report_export.xlsx", Filename("  ", FormatXLSX))
	assert.Equal(t, "carbon_report_Lot_1_2.csv", Filename("Lot 1/2", FormatCSV))
	assert.Equal(t, "carbon_report_.._.._etc_Site_B.csv", Filename("../../etc\\Site B", FormatCSV))
}

func TestWriteReadFile(t *testing.T) {
	offer := sampleOffer()
	doc := Export(offer, calculate(t, offer), ExportOptions{})

	for _, format := range []Format{FormatCSV, FormatXLSX} {
		path := filepath.Join(t.TempDir(), Filename(offer.Label, format))
		require.NoError(t, WriteFile(path, doc))

		back, err := ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, doc.Header, back.Header)
		assert.Equal(t, len(doc.Rows), len(back.Rows))
	}

	_, err := ReadFile(filepath.Join(t.TempDir(), "missing.csv"))
	require.ErrorIs(t, err, ErrUnreadableDocument)
}
