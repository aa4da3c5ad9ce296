package tabular

import (
	"context"
	"fmt"
	"strings"

	"github.com/Joel31000/CarbonConsult/internal/factors"
	"github.com/Joel31000/CarbonConsult/internal/lineitem"
	"github.com/Joel31000/CarbonConsult/internal/logging"
)

// reinforcedMarkers are the name suffixes recognised as "reinforced". The
// French marker is accepted for reports produced by earlier releases.
//
//nolint:gochecknoglobals // Read-only lookup list.
var reinforcedMarkers = []string{"(reinforced)", "(armé)"}

// rebarFactorTolerance matches a two-decimal rebar factor back to its grade.
const rebarFactorTolerance = 0.005

// Import rebuilds the five line-item lists from a document.
//
// The returned offer carries no Label or Comments: reports do not hold them.
// Blank rows, unknown categories and extra columns are skipped; numeric cells
// that do not parse become 0. Rows after the Total row are ignored. A
// document without a Category or Item name column is rejected with
// ErrUnreadableDocument.
func Import(ctx context.Context, doc *Document, table *factors.Table) (*lineitem.Offer, error) {
	logger := logging.FromContext(ctx).With().
		Str("component", "tabular").
		Str("operation", "Import").
		Logger()

	if doc == nil {
		return nil, fmt.Errorf("%w: empty document", ErrUnreadableDocument)
	}
	if table == nil {
		table = factors.Default()
	}

	cols := indexHeader(doc.Header)
	for _, required := range []string{ColCategory, ColItemName} {
		if !cols.has(required) {
			return nil, fmt.Errorf("%w: missing %q column", ErrUnreadableDocument, required)
		}
	}

	imp := importer{cols: cols, table: table, offer: &lineitem.Offer{}}
	var (
		current factors.Category
		active  bool
	)
	for n, row := range doc.Rows {
		if blankRow(row) {
			continue
		}
		if label := cols.cell(row, ColCategory); label != "" {
			if strings.EqualFold(label, TotalLabel) {
				break
			}
			current, active = factors.ParseCategory(label)
			if !active {
				logger.Debug().Int("row", n+2).Str("category", label).Msg("skipping unknown category")
			}
		}
		if !active {
			continue
		}
		name := cols.cell(row, ColItemName)
		if name == "" {
			continue
		}
		imp.add(current, name, row)
	}

	logger.Debug().Int("items", imp.offer.Len()).Msg("document imported")
	return imp.offer, nil
}

type importer struct {
	cols  columnIndex
	table *factors.Table
	offer *lineitem.Offer
}

func (imp *importer) number(row []string, col string) float64 {
	return lineitem.ParseNumber(imp.cols.cell(row, col))
}

func (imp *importer) add(c factors.Category, name string, row []string) {
	o := imp.offer
	qty := imp.number(row, ColQuantity)

	switch c {
	case factors.Materials:
		o.Materials = append(o.Materials, imp.material(name, row))
	case factors.Manufacturing:
		o.Manufacturing = append(o.Manufacturing, lineitem.ProcessItem{Process: name, DurationHours: qty})
	case factors.Implementation:
		o.Implementation = append(o.Implementation, lineitem.ProcessItem{Process: name, DurationHours: qty})
	case factors.Transport:
		o.Transport = append(o.Transport, lineitem.TransportItem{
			Mode:         name,
			DistanceKm:   qty,
			WeightTonnes: imp.number(row, ColTransportWeight),
		})
	case factors.EndOfLife:
		o.EndOfLife = append(o.EndOfLife, lineitem.EndOfLifeItem{Method: name, WeightKg: qty})
	}
}

func (imp *importer) material(name string, row []string) lineitem.MaterialItem {
	base, marked := stripReinforcedMarker(name)
	reinforced := marked
	if v, ok := parseYesNo(imp.cols.cell(row, ColReinforced)); ok {
		reinforced = v
	}

	qty := imp.number(row, ColQuantity)
	if base != factors.ConcreteMaterial && !imp.table.IsConcreteType(base) {
		return lineitem.MaterialItem{Material: name, Quantity: qty}
	}

	concreteType := base
	if base == factors.ConcreteMaterial {
		concreteType = ""
	}
	var rebar *lineitem.RebarSpec
	if reinforced {
		rebar = &lineitem.RebarSpec{
			MassPerVolume: imp.number(row, ColRebarMass),
			Factor:        imp.number(row, ColRebarFactor),
		}
		if grade, ok := imp.table.RebarGradeFor(rebar.Factor, rebarFactorTolerance); ok {
			rebar.Grade = grade
			rebar.Factor, _ = imp.table.RebarFactor(grade)
		}
	}
	return lineitem.NewConcreteItem(concreteType, qty, imp.number(row, ColCementMass), rebar)
}

// stripReinforcedMarker removes a trailing reinforced marker from name,
// ignoring case.
func stripReinforcedMarker(name string) (string, bool) {
	lower := strings.ToLower(name)
	for _, m := range reinforcedMarkers {
		if strings.HasSuffix(lower, m) {
			return strings.TrimSpace(name[:len(name)-len(m)]), true
		}
	}
	return strings.TrimSpace(name), false
}

func parseYesNo(s string) (value, ok bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yes", "y", "true", "1", "x", "oui":
		return true, true
	case "no", "n", "false", "0", "non":
		return false, true
	default:
		return false, false
	}
}
