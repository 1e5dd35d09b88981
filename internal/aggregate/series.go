package aggregate

import (
	"sort"
	"strings"

	"tradeexplorer/internal/model"
	"tradeexplorer/internal/selection"
)

// accumulate adds each record's contribution to the totals keyed by key.
// Records without a contribution are skipped without creating a group.
func accumulate(records []model.Record, ctx *selection.Context, key func(model.Record) (string, bool)) map[string]*flowTotals {
	groups := make(map[string]*flowTotals)
	for _, record := range records {
		name, ok := key(record)
		if !ok {
			continue
		}
		contribution, ok := Contribution(record, ctx.Unit, ctx.Prices)
		if !ok {
			continue
		}
		t := groups[name]
		if t == nil {
			t = &flowTotals{}
			groups[name] = t
		}
		t.add(record.Flow, contribution)
	}
	return groups
}

// resolve collapses totals into the exports/imports/balance triple. A nil
// group reports all three as null.
func resolve(t *flowTotals, unit model.Unit) (exp, imp, bal *float64) {
	if t == nil {
		return nil, nil, nil
	}
	exports, imports := t.exports, t.imports
	if unit == model.UnitGDP {
		exports, imports = t.mean()
	}
	return triple(exports, imports)
}

// WorldTrade is the reporter's trade with all partners, one row per year of
// the selected range whether or not any record falls in it.
func WorldTrade(records []model.Record, ctx *selection.Context) []model.SeriesPoint {
	byYear := make(map[int]*flowTotals)
	for _, record := range records {
		if !matchesCategory(record, ctx) {
			continue
		}
		contribution, ok := Contribution(record, ctx.Unit, ctx.Prices)
		if !ok {
			continue
		}
		t := byYear[record.Year]
		if t == nil {
			t = &flowTotals{}
			byYear[record.Year] = t
		}
		t.add(record.Flow, contribution)
	}

	out := make([]model.SeriesPoint, 0, ctx.Span())
	for year := ctx.TimeStart; year <= ctx.TimeEnd; year++ {
		exp, imp, bal := resolve(byYear[year], ctx.Unit)
		out = append(out, model.SeriesPoint{
			Year:     year,
			Country:  ctx.Country,
			Partner:  model.RestOfWorld,
			Category: ctx.Category,
			Imports:  imp,
			Exports:  exp,
			Balance:  bal,
			Unit:     ctx.UnitLabel,
		})
	}
	return out
}

// PartnerSeries is the trade with each selected partner per year, covering
// every partner and year of the selection. Rows are ordered by partner, then
// year.
func PartnerSeries(records []model.Record, ctx *selection.Context) []model.SeriesPoint {
	type point struct {
		partner string
		year    int
	}
	groups := make(map[point]*flowTotals)
	for _, record := range records {
		if !matchesCategory(record, ctx) || !ctx.HasPartner(record.Partner) {
			continue
		}
		contribution, ok := Contribution(record, ctx.Unit, ctx.Prices)
		if !ok {
			continue
		}
		k := point{record.Partner, record.Year}
		t := groups[k]
		if t == nil {
			t = &flowTotals{}
			groups[k] = t
		}
		t.add(record.Flow, contribution)
	}

	partners := append([]string(nil), ctx.Partners...)
	sort.Strings(partners)

	out := make([]model.SeriesPoint, 0, len(partners)*ctx.Span())
	for _, partner := range partners {
		for year := ctx.TimeStart; year <= ctx.TimeEnd; year++ {
			exp, imp, bal := resolve(groups[point{partner, year}], ctx.Unit)
			out = append(out, model.SeriesPoint{
				Year:     year,
				Country:  ctx.Country,
				Partner:  partner,
				Category: ctx.Category,
				Imports:  imp,
				Exports:  exp,
				Balance:  bal,
				Unit:     ctx.UnitLabel,
			})
		}
	}
	return out
}

// CategoryTable totals trade per partner and category over the whole range.
// Only combinations with at least one contributing record appear, ordered by
// partner, then category.
func CategoryTable(records []model.Record, ctx *selection.Context) []model.CategoryTotal {
	groups := accumulate(records, ctx, func(record model.Record) (string, bool) {
		if record.Partner == "" || record.Category == "" {
			return "", false
		}
		if !ctx.HasPartner(record.Partner) || !ctx.InRange(record.Year) {
			return "", false
		}
		if !ctx.AllCategories() && record.Category != ctx.Category {
			return "", false
		}
		return record.Partner + "\x00" + record.Category, true
	})

	years := ctx.YearsLabel()
	out := make([]model.CategoryTotal, 0, len(groups))
	for key, t := range groups {
		partner, category := splitKey(key)
		exp, imp, bal := resolve(t, ctx.Unit)
		out = append(out, model.CategoryTotal{
			Years:    years,
			Country:  ctx.Country,
			Partner:  partner,
			Category: category,
			Imports:  imp,
			Exports:  exp,
			Balance:  bal,
			Unit:     ctx.UnitLabel,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Partner != out[j].Partner {
			return out[i].Partner < out[j].Partner
		}
		return out[i].Category < out[j].Category
	})
	return out
}

func splitKey(key string) (string, string) {
	partner, category, _ := strings.Cut(key, "\x00")
	return partner, category
}
