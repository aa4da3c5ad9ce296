// Package engine aggregates line-item emissions into per-category and grand
// totals.
package engine

import (
	"context"
	"math"

	"github.com/rs/zerolog"

	"github.com/Joel31000/CarbonConsult/internal/factors"
	"github.com/Joel31000/CarbonConsult/internal/lineitem"
	"github.com/Joel31000/CarbonConsult/internal/logging"
)

// rebarGradeTolerance is how far an explicit rebar factor may sit from its
// grade's table factor before the mismatch is logged.
const rebarGradeTolerance = 0.005

// Calculator computes emissions against a factor table. It holds no mutable
// state and is safe to call on every edit.
type Calculator struct {
	table *factors.Table
}

// NewCalculator returns a Calculator bound to table. A nil table selects the
// embedded default.
func NewCalculator(table *factors.Table) *Calculator {
	if table == nil {
		table = factors.Default()
	}
	return &Calculator{table: table}
}

// Table returns the factor table the calculator resolves names against.
func (c *Calculator) Table() *factors.Table {
	return c.table
}

// Calculate computes every item, the positive-only details, and the totals.
//
// It never fails: names that do not resolve contribute 0 and are logged at
// debug level. Totals include zero and negative items; details do not.
// No rounding is applied.
func (c *Calculator) Calculate(ctx context.Context, offer *lineitem.Offer) *Result {
	logger := logging.FromContext(ctx).With().
		Str("component", "engine").
		Str("operation", "Calculate").
		Logger()

	res := &Result{Details: make(map[factors.Category][]Detail, len(factors.All()))}
	if offer == nil {
		return res
	}

	record := func(r ItemResult) {
		if !r.Resolved && r.Name != "" {
			logger.Debug().
				Str("category", r.Category.String()).
				Str("name", r.Name).
				Msg("unresolved emission factor, contributing 0")
		}
		res.Items = append(res.Items, r)
		res.Totals.add(r.Category, r.CO2e)
		if r.InDetails() {
			res.Details[r.Category] = append(res.Details[r.Category], Detail{Name: r.Name, CO2e: r.CO2e})
		}
	}

	for i, m := range offer.Materials {
		if m.IsReinforced() {
			c.checkRebarGrade(logger, i, m.Concrete.Rebar)
		}
		record(c.Material(i, m))
	}
	for i, p := range offer.Manufacturing {
		record(c.Process(factors.Manufacturing, i, p))
	}
	for i, p := range offer.Implementation {
		record(c.Process(factors.Implementation, i, p))
	}
	for i, t := range offer.Transport {
		record(c.Transport(i, t))
	}
	for i, e := range offer.EndOfLife {
		record(c.EndOfLife(i, e))
	}

	t := &res.Totals
	t.GrandTotal = t.Materials + t.Manufacturing + t.Implementation + t.Transport + t.EndOfLife

	logger.Debug().
		Int("items", len(res.Items)).
		Float64("grand_total", t.GrandTotal).
		Msg("emissions calculated")

	return res
}

// Material computes one material line. Concrete is always routed to the
// concrete sub-model and never looked up in the generic material table.
func (c *Calculator) Material(i int, m lineitem.MaterialItem) ItemResult {
	if m.IsConcrete() {
		return c.concrete(i, m)
	}
	e, ok := c.table.Lookup(factors.Materials, m.Material)
	return ItemResult{
		Category: factors.Materials,
		Index:    i,
		Name:     m.Material,
		Factor:   e.Factor,
		Resolved: ok,
		CO2e:     m.Quantity * e.Factor,
	}
}

func (c *Calculator) concrete(i int, m lineitem.MaterialItem) ItemResult {
	r := ItemResult{
		Category: factors.Materials,
		Index:    i,
		Name:     DisplayName(m),
	}
	spec := m.Concrete
	if spec == nil {
		return r
	}

	factor, ok := c.table.ConcreteFactor(spec.Type)
	r.Factor = factor
	r.Resolved = ok
	r.CementCO2e = m.Quantity * spec.CementMassPerVolume * factor
	if spec.Rebar != nil {
		r.RebarFactor = c.RebarFactor(spec.Rebar)
		r.RebarCO2e = m.Quantity * spec.Rebar.MassPerVolume * r.RebarFactor
	}
	r.CO2e = r.CementCO2e + r.RebarCO2e
	return r
}

// RebarFactor returns the factor a rebar spec is computed with. An explicit
// Factor wins; a zero Factor falls back to the table factor of Grade, and to
// 0 when the grade is unknown.
func (c *Calculator) RebarFactor(rebar *lineitem.RebarSpec) float64 {
	if rebar == nil {
		return 0
	}
	if rebar.Factor != 0 || rebar.Grade == "" {
		return rebar.Factor
	}
	f, _ := c.table.RebarFactor(rebar.Grade)
	return f
}

func (c *Calculator) checkRebarGrade(logger zerolog.Logger, i int, rebar *lineitem.RebarSpec) {
	if rebar.Grade == "" {
		return
	}
	f, ok := c.table.RebarFactor(rebar.Grade)
	switch {
	case !ok:
		logger.Debug().
			Int("index", i).
			Str("grade", rebar.Grade).
			Float64("factor", rebar.Factor).
			Msg("unknown rebar grade, using the explicit factor")
	case rebar.Factor != 0 && math.Abs(rebar.Factor-f) > rebarGradeTolerance:
		logger.Debug().
			Int("index", i).
			Str("grade", rebar.Grade).
			Float64("factor", rebar.Factor).
			Float64("grade_factor", f).
			Msg("explicit rebar factor overrides grade")
	}
}

// DisplayName returns the name a material line is reported under. For
// concrete that is the concrete type (or "Concrete" when unset), suffixed
// with ReinforcedMarker when the item is reinforced.
func DisplayName(m lineitem.MaterialItem) string {
	if !m.IsConcrete() {
		return m.Material
	}
	name := factors.ConcreteMaterial
	if m.Concrete != nil && m.Concrete.Type != "" {
		name = m.Concrete.Type
	}
	if m.IsReinforced() {
		name += ReinforcedMarker
	}
	return name
}

// Process computes a manufacturing or implementation line.
func (c *Calculator) Process(cat factors.Category, i int, p lineitem.ProcessItem) ItemResult {
	e, ok := c.table.Lookup(cat, p.Process)
	return ItemResult{
		Category: cat,
		Index:    i,
		Name:     p.Process,
		Factor:   e.Factor,
		Resolved: ok,
		CO2e:     p.DurationHours * e.Factor,
	}
}

// Transport computes a freight leg: distance × weight × factor.
func (c *Calculator) Transport(i int, t lineitem.TransportItem) ItemResult {
	e, ok := c.table.Lookup(factors.Transport, t.Mode)
	return ItemResult{
		Category: factors.Transport,
		Index:    i,
		Name:     t.Mode,
		Factor:   e.Factor,
		Resolved: ok,
		CO2e:     t.DistanceKm * t.WeightTonnes * e.Factor,
	}
}

// EndOfLife computes a disposal line; negative factors yield credits.
func (c *Calculator) EndOfLife(i int, e lineitem.EndOfLifeItem) ItemResult {
	entry, ok := c.table.Lookup(factors.EndOfLife, e.Method)
	return ItemResult{
		Category: factors.EndOfLife,
		Index:    i,
		Name:     e.Method,
		Factor:   entry.Factor,
		Resolved: ok,
		CO2e:     e.WeightKg * entry.Factor,
	}
}
