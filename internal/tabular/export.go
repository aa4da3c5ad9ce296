package tabular

import (
	"strconv"

	"github.com/Joel31000/CarbonConsult/internal/engine"
	"github.com/Joel31000/CarbonConsult/internal/factors"
	"github.com/Joel31000/CarbonConsult/internal/lineitem"
)

// Unit labels written in the Unit column.
const (
	UnitKg    = "kg"
	UnitCubic = "m³"
	UnitHours = "H"
	UnitKm    = "km"
)

// ExportOptions tunes the exported layout.
type ExportOptions struct {
	// ReinforcedColumn appends an explicit yes/no Reinforced column so the
	// importer does not have to rely on the name suffix.
	ReinforcedColumn bool
}

// Export lays out offer and its computed result as a Document.
//
// Rows follow category order then list order. The CO2e cell of an item is
// its computed value when that value is listed in the category details and 0
// otherwise. Numeric cells carry exactly two decimals.
func Export(offer *lineitem.Offer, res *engine.Result, opts ExportOptions) *Document {
	if offer == nil {
		offer = &lineitem.Offer{}
	}
	if res == nil {
		res = &engine.Result{}
	}

	header := Columns()
	if opts.ReinforcedColumn {
		header = append(header, ColReinforced)
	}
	doc := &Document{Header: header}

	for _, c := range factors.All() {
		rows := categoryRows(offer, res, c, opts)
		if len(rows) == 0 {
			continue
		}
		rows[0].category = c.Label()
		for _, r := range rows {
			doc.Rows = append(doc.Rows, r.cells(opts))
		}
	}

	total := exportRow{category: TotalLabel, co2e: formatNumber(res.Totals.GrandTotal)}
	doc.Rows = append(doc.Rows, total.cells(opts))
	return doc
}

// exportRow is one data row before it is flattened into cells.
type exportRow struct {
	category        string
	name            string
	unit            string
	quantity        string
	factor          string
	cementMass      string
	rebarFactor     string
	rebarMass       string
	transportWeight string
	co2e            string
	reinforced      string
}

func (r exportRow) cells(opts ExportOptions) []string {
	out := []string{
		r.category,
		r.name,
		r.unit,
		r.quantity,
		r.factor,
		r.cementMass,
		r.rebarFactor,
		r.rebarMass,
		r.transportWeight,
		r.co2e,
	}
	if opts.ReinforcedColumn {
		out = append(out, r.reinforced)
	}
	return out
}

func categoryRows(offer *lineitem.Offer, res *engine.Result, c factors.Category, opts ExportOptions) []exportRow {
	n := offer.Count(c)
	rows := make([]exportRow, 0, n)
	for i := range n {
		item, _ := res.Item(c, i)
		r := exportRow{
			factor: formatNumber(item.Factor),
			co2e:   detailValue(item),
		}

		switch c {
		case factors.Materials:
			materialRow(&r, offer.Materials[i], item, opts)
		case factors.Manufacturing:
			p := offer.Manufacturing[i]
			r.name, r.unit, r.quantity = p.Process, UnitHours, formatNumber(p.DurationHours)
		case factors.Implementation:
			p := offer.Implementation[i]
			r.name, r.unit, r.quantity = p.Process, UnitHours, formatNumber(p.DurationHours)
		case factors.Transport:
			t := offer.Transport[i]
			r.name, r.unit, r.quantity = t.Mode, UnitKm, formatNumber(t.DistanceKm)
			r.transportWeight = formatNumber(t.WeightTonnes)
		case factors.EndOfLife:
			e := offer.EndOfLife[i]
			r.name, r.unit, r.quantity = e.Method, UnitKg, formatNumber(e.WeightKg)
		}
		rows = append(rows, r)
	}
	return rows
}

func materialRow(r *exportRow, m lineitem.MaterialItem, item engine.ItemResult, opts ExportOptions) {
	r.name = engine.DisplayName(m)
	r.quantity = formatNumber(m.Quantity)
	if !m.IsConcrete() {
		r.unit = UnitKg
		return
	}

	r.unit = UnitCubic
	if opts.ReinforcedColumn {
		r.reinforced = "no"
	}
	if m.Concrete == nil {
		return
	}
	r.cementMass = formatNumber(m.Concrete.CementMassPerVolume)
	if rebar := m.Concrete.Rebar; rebar != nil {
		factor := item.RebarFactor
		if factor == 0 {
			factor = rebar.Factor
		}
		r.rebarFactor = formatNumber(factor)
		r.rebarMass = formatNumber(rebar.MassPerVolume)
		if opts.ReinforcedColumn {
			r.reinforced = "yes"
		}
	}
}

// detailValue returns the value an item contributes to the category details,
// which list only strictly positive emissions.
func detailValue(item engine.ItemResult) string {
	if !item.InDetails() {
		return formatNumber(0)
	}
	return formatNumber(item.CO2e)
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
