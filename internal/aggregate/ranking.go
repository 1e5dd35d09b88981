package aggregate

import (
	"sort"

	"tradeexplorer/internal/model"
	"tradeexplorer/internal/selection"
)

// rank sums (or, for GDP shares, averages) the selected flow per key and
// applies the flow sign after that choice. Keys whose value is suppressed are
// dropped. Results are ordered by value descending, then key.
func rank(records []model.Record, ctx *selection.Context, key func(model.Record) (string, bool)) []ranked {
	type total struct {
		sum   float64
		count int
	}
	totals := make(map[string]*total)
	for _, record := range records {
		if record.Flow != ctx.Flow {
			continue
		}
		name, ok := key(record)
		if !ok {
			continue
		}
		contribution, ok := Contribution(record, ctx.Unit, ctx.Prices)
		if !ok {
			continue
		}
		t := totals[name]
		if t == nil {
			t = &total{}
			totals[name] = t
		}
		t.sum += contribution
		t.count++
	}

	out := make([]ranked, 0, len(totals))
	for name, t := range totals {
		value := t.sum
		if ctx.Unit == model.UnitGDP {
			value = t.sum / float64(t.count)
		}
		suppressed := Suppress(value * sign(ctx.Flow))
		if suppressed == nil {
			continue
		}
		out = append(out, ranked{key: name, value: *suppressed})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].value != out[j].value {
			return out[i].value > out[j].value
		}
		return out[i].key < out[j].key
	})
	return out
}

type ranked struct {
	key   string
	value float64
}

// Partners ranks trade partners of the selected flow.
func Partners(records []model.Record, ctx *selection.Context) []model.PartnerRank {
	byPartner := rank(records, ctx, func(record model.Record) (string, bool) {
		if record.Partner == "" || !matchesCategory(record, ctx) || !ctx.HasPartner(record.Partner) {
			return "", false
		}
		return record.Partner, true
	})

	years := ctx.YearsLabel()
	out := make([]model.PartnerRank, 0, len(byPartner))
	for _, r := range byPartner {
		out = append(out, model.PartnerRank{
			Years:   years,
			Country: ctx.Country,
			Partner: r.key,
			Flow:    ctx.Flow,
			Value:   r.value,
			Unit:    ctx.UnitLabel,
		})
	}
	return out
}

// Categories ranks product categories of the selected flow across partners.
func Categories(records []model.Record, ctx *selection.Context) []model.CategoryRank {
	byCategory := rank(records, ctx, func(record model.Record) (string, bool) {
		if record.Category == "" || record.Category == model.AllProducts || !ctx.HasPartner(record.Partner) {
			return "", false
		}
		return record.Category, true
	})

	years := ctx.YearsLabel()
	out := make([]model.CategoryRank, 0, len(byCategory))
	for _, r := range byCategory {
		out = append(out, model.CategoryRank{
			Years:    years,
			Country:  ctx.Country,
			Partner:  model.RestOfWorld,
			Category: r.key,
			Flow:     ctx.Flow,
			Value:    r.value,
			Unit:     ctx.UnitLabel,
		})
	}
	return out
}
