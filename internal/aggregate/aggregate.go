// Package aggregate folds raw trade records into the result rows behind the
// dashboard's charts and tables. Every function here is pure: it reads the
// records and the selection context and returns freshly allocated rows.
package aggregate

import (
	"math"

	"tradeexplorer/internal/model"
	"tradeexplorer/internal/selection"
)

// epsilon is the magnitude below which a computed value counts as zero.
const epsilon = 1e-12

const millions = 1e6

// Suppress returns nil for non-finite or near-zero values.
func Suppress(value float64) *float64 {
	if math.IsNaN(value) || math.IsInf(value, 0) || math.Abs(value) < epsilon {
		return nil
	}
	return &value
}

// Contribution is the value a record adds under unit and prices: the GDP
// share as is, or the currency amount in millions.
func Contribution(record model.Record, unit model.Unit, prices model.Prices) (float64, bool) {
	if unit == model.UnitGDP {
		if record.PctOfGDP == nil {
			return 0, false
		}
		return *record.PctOfGDP, true
	}
	amounts, ok := record.Amounts(unit)
	if !ok {
		return 0, false
	}
	value := amounts.For(prices)
	if value == nil {
		return 0, false
	}
	return *value / millions, true
}

// sign is the multiplier applied to a single-flow total.
func sign(flow model.Flow) float64 {
	if flow == model.FlowImports {
		return -1
	}
	return 1
}

// FilterSingle keeps the records of the selected years, dropping trade of the
// reporting countries with themselves and, unless a partner group is
// selected, partners that are themselves aggregates of countries.
func FilterSingle(records []model.Record, ctx *selection.Context) []model.Record {
	reporters := make(map[string]struct{}, len(ctx.Countries))
	for _, country := range ctx.Countries {
		reporters[country] = struct{}{}
	}
	out := make([]model.Record, 0, len(records))
	for _, record := range records {
		if !ctx.InRange(record.Year) {
			continue
		}
		if _, ok := reporters[record.Partner]; ok {
			continue
		}
		if ctx.PartnerFilter == nil && model.IsGroupPartner(record.Partner) {
			continue
		}
		out = append(out, record)
	}
	return out
}

// FilterMulti keeps the records of the selected years and partners.
func FilterMulti(records []model.Record, ctx *selection.Context) []model.Record {
	out := make([]model.Record, 0, len(records))
	for _, record := range records {
		if !ctx.InRange(record.Year) || !ctx.HasPartner(record.Partner) {
			continue
		}
		out = append(out, record)
	}
	return out
}

func matchesCategory(record model.Record, ctx *selection.Context) bool {
	return ctx.AllCategories() || record.Category == ctx.Category
}

// flowTotals accumulates exports and imports for one group.
type flowTotals struct {
	exports      float64
	imports      float64
	exportsCount int
	importsCount int
}

func (t *flowTotals) add(flow model.Flow, value float64) {
	switch flow {
	case model.FlowExports:
		t.exports += value
		t.exportsCount++
	case model.FlowImports:
		t.imports += value
		t.importsCount++
	}
}

// mean turns sums into per-row averages.
func (t flowTotals) mean() (float64, float64) {
	var exports, imports float64
	if t.exportsCount > 0 {
		exports = t.exports / float64(t.exportsCount)
	}
	if t.importsCount > 0 {
		imports = t.imports / float64(t.importsCount)
	}
	return exports, imports
}

// triple reports exports, imports as a negative outflow, and the balance.
func triple(exports, imports float64) (exp, imp, bal *float64) {
	return Suppress(exports), Suppress(imports * -1), Suppress(exports - imports)
}
