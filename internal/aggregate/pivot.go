package aggregate

import (
	"sort"

	"tradeexplorer/internal/model"
)

// Pivot lays a multi-partner series out as one row per year with one column
// per partner.
type Pivot struct {
	Partners []string   `json:"partners"`
	Rows     []PivotRow `json:"rows"`
}

// PivotRow holds the values of one year, aligned with Pivot.Partners.
type PivotRow struct {
	Year   int        `json:"year"`
	Values []*float64 `json:"values"`
}

// Reshape pivots the flow values of points by year and partner.
func Reshape(points []model.SeriesPoint, flow model.Flow) Pivot {
	column := make(map[string]int)
	partners := []string{}
	var years []int
	seenYear := make(map[int]struct{})
	for _, p := range points {
		if _, ok := column[p.Partner]; !ok {
			column[p.Partner] = 0
			partners = append(partners, p.Partner)
		}
		if _, ok := seenYear[p.Year]; !ok {
			seenYear[p.Year] = struct{}{}
			years = append(years, p.Year)
		}
	}
	sort.Strings(partners)
	sort.Ints(years)
	for i, partner := range partners {
		column[partner] = i
	}

	rowOf := make(map[int]int, len(years))
	rows := make([]PivotRow, len(years))
	for i, year := range years {
		rowOf[year] = i
		rows[i] = PivotRow{Year: year, Values: make([]*float64, len(partners))}
	}
	for _, p := range points {
		rows[rowOf[p.Year]].Values[column[p.Partner]] = p.Get(flow)
	}
	return Pivot{Partners: partners, Rows: rows}
}

// Limits returns the smallest and largest flow value across points. ok is
// false when no point carries a value.
func Limits(points []model.SeriesPoint, flow model.Flow) (lo, hi float64, ok bool) {
	for _, p := range points {
		v := p.Get(flow)
		if v == nil {
			continue
		}
		if !ok {
			lo, hi, ok = *v, *v, true
			continue
		}
		lo = min(lo, *v)
		hi = max(hi, *v)
	}
	return lo, hi, ok
}
