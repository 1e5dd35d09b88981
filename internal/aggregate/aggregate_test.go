package aggregate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradeexplorer/internal/model"
	"tradeexplorer/internal/selection"
)

func ptr(v float64) *float64 { return &v }

func usd(year int, partner, category string, flow model.Flow, amount float64) model.Record {
	return model.Record{
		Year:     year,
		Country:  "South Africa",
		Partner:  partner,
		Category: category,
		Flow:     flow,
		USD:      model.Amounts{Constant: ptr(amount)},
	}
}

func gdp(year int, partner, category string, flow model.Flow, share float64) model.Record {
	r := usd(year, partner, category, flow, 0)
	r.PctOfGDP = ptr(share)
	return r
}

func single(t *testing.T, in selection.Input) *selection.Context {
	t.Helper()
	if in.Country == nil {
		in.Country = selection.List{"South Africa"}
	}
	ctx := selection.BuildSingle(in)
	require.NotNil(t, ctx)
	return ctx
}

func multi(t *testing.T, in selection.Input) *selection.Context {
	t.Helper()
	ctx := selection.BuildMulti(in)
	require.NotNil(t, ctx)
	return ctx
}

func TestPartnersAveragesGDPShares(t *testing.T) {
	ctx := single(t, selection.Input{Unit: "gdp", TimeRange: selection.Range{"2020"}})
	records := []model.Record{
		gdp(2020, "China", "A", model.FlowExports, 0.02),
		gdp(2020, "China", "B", model.FlowExports, 0.04),
	}

	ranks := Partners(records, ctx)
	require.Len(t, ranks, 1)
	assert.Equal(t, "China", ranks[0].Partner)
	assert.InDelta(t, 0.03, ranks[0].Value, 1e-12)
	assert.Equal(t, "share of gdp", ranks[0].Unit)
	assert.Equal(t, "2020-2020", ranks[0].Years)
}

func TestPartnersSumsAndOrders(t *testing.T) {
	ctx := single(t, selection.Input{TimeRange: selection.Range{"2019", "2020"}})
	records := []model.Record{
		usd(2019, "China", "A", model.FlowExports, 10e6),
		usd(2020, "China", "B", model.FlowExports, 20e6),
		usd(2020, "Brazil", "A", model.FlowExports, 50e6),
		usd(2020, "Angola", "A", model.FlowExports, 30e6),
		usd(2020, "Angola", "A", model.FlowImports, 999e6),
		usd(2020, "Tiny", "A", model.FlowExports, 1e-7),
	}

	ranks := Partners(records, ctx)
	require.Len(t, ranks, 3)
	assert.Equal(t, []string{"Brazil", "Angola", "China"},
		[]string{ranks[0].Partner, ranks[1].Partner, ranks[2].Partner})
	assert.InDelta(t, 50.0, ranks[0].Value, 1e-9)
	assert.InDelta(t, 30.0, ranks[1].Value, 1e-9)
	assert.InDelta(t, 30.0, ranks[2].Value, 1e-9)
	assert.Equal(t, "constant usd million", ranks[0].Unit)
	assert.Equal(t, model.FlowExports, ranks[0].Flow)
}

func TestPartnersNegatesImports(t *testing.T) {
	ctx := single(t, selection.Input{Flow: "imports", TimeRange: selection.Range{"2020"}})
	records := []model.Record{
		usd(2020, "A", "X", model.FlowImports, 30e6),
		usd(2020, "B", "X", model.FlowImports, 10e6),
	}

	ranks := Partners(records, ctx)
	require.Len(t, ranks, 2)
	assert.Equal(t, "B", ranks[0].Partner)
	assert.InDelta(t, -10.0, ranks[0].Value, 1e-9)
	assert.InDelta(t, -30.0, ranks[1].Value, 1e-9)
}

func TestPartnersRespectsCategoryAndGroup(t *testing.T) {
	ctx := single(t, selection.Input{
		Category:  "Minerals",
		Group:     selection.List{"China"},
		TimeRange: selection.Range{"2020"},
	})
	records := []model.Record{
		usd(2020, "China", "Minerals", model.FlowExports, 5e6),
		usd(2020, "China", "Food", model.FlowExports, 7e6),
		usd(2020, "Brazil", "Minerals", model.FlowExports, 9e6),
	}

	ranks := Partners(records, ctx)
	require.Len(t, ranks, 1)
	assert.Equal(t, "China", ranks[0].Partner)
	assert.InDelta(t, 5.0, ranks[0].Value, 1e-9)
}

func TestFilterSingleDropsReportersAndGroups(t *testing.T) {
	ctx := single(t, selection.Input{TimeRange: selection.Range{"2020"}})
	records := []model.Record{
		usd(2019, "China", "A", model.FlowExports, 1),
		usd(2020, "China", "A", model.FlowExports, 1),
		usd(2020, "South Africa", "A", model.FlowExports, 1),
		usd(2020, "G20 countries", "A", model.FlowExports, 1),
	}

	kept := FilterSingle(records, ctx)
	require.Len(t, kept, 1)
	assert.Equal(t, "China", kept[0].Partner)

	grouped := single(t, selection.Input{Group: selection.List{"G20 countries"}, TimeRange: selection.Range{"2020"}})
	assert.Len(t, FilterSingle(records, grouped), 2)
}

func TestCategoriesExcludeAllProducts(t *testing.T) {
	ctx := single(t, selection.Input{TimeRange: selection.Range{"2020"}})
	records := []model.Record{
		usd(2020, "China", model.AllProducts, model.FlowExports, 100e6),
		usd(2020, "China", "Minerals", model.FlowExports, 40e6),
		usd(2020, "Brazil", "Minerals", model.FlowExports, 20e6),
		usd(2020, "Brazil", "Food", model.FlowExports, 30e6),
		usd(2020, "Brazil", "", model.FlowExports, 30e6),
	}

	ranks := Categories(records, ctx)
	require.Len(t, ranks, 2)
	assert.Equal(t, "Minerals", ranks[0].Category)
	assert.InDelta(t, 60.0, ranks[0].Value, 1e-9)
	assert.Equal(t, "Food", ranks[1].Category)
	for _, r := range ranks {
		assert.Equal(t, model.RestOfWorld, r.Partner)
	}
}

func TestWorldTradeSignConvention(t *testing.T) {
	ctx := single(t, selection.Input{Country: selection.List{"X"}, TimeRange: selection.Range{"2020"}})
	records := []model.Record{
		usd(2020, "Y", "A", model.FlowExports, 100e6),
		usd(2020, "Y", "A", model.FlowImports, 60e6),
	}

	series := WorldTrade(records, ctx)
	require.Len(t, series, 1)
	point := series[0]
	require.NotNil(t, point.Exports)
	require.NotNil(t, point.Imports)
	require.NotNil(t, point.Balance)
	assert.InDelta(t, 100.0, *point.Exports, 1e-9)
	assert.InDelta(t, -60.0, *point.Imports, 1e-9)
	assert.InDelta(t, 40.0, *point.Balance, 1e-9)
	assert.Equal(t, model.RestOfWorld, point.Partner)
	assert.Equal(t, "X", point.Country)
}

func TestWorldTradeCoversEveryYear(t *testing.T) {
	ctx := single(t, selection.Input{TimeRange: selection.Range{"2015", "2019"}})
	records := []model.Record{
		usd(2016, "Y", "A", model.FlowExports, 1e6),
		usd(2018, "Y", "B", model.FlowImports, 2e6),
	}

	series := WorldTrade(records, ctx)
	require.Len(t, series, 5)
	for i, point := range series {
		assert.Equal(t, 2015+i, point.Year)
	}
	assert.Nil(t, series[0].Exports)
	assert.Nil(t, series[0].Balance)
	assert.InDelta(t, 1.0, *series[1].Exports, 1e-9)
	assert.Nil(t, series[1].Imports)
	assert.InDelta(t, -2.0, *series[3].Imports, 1e-9)
	assert.InDelta(t, -2.0, *series[3].Balance, 1e-9)
}

func TestSeriesWithOutOfDomainRange(t *testing.T) {
	ctx := single(t, selection.Input{TimeRange: selection.Range{"0", "1e300"}})
	require.LessOrEqual(t, ctx.TimeStart, ctx.TimeEnd)

	var series []model.SeriesPoint
	require.NotPanics(t, func() { series = WorldTrade(nil, ctx) })
	require.Len(t, series, selection.MaxYear-selection.MinYear+1)
	assert.Equal(t, selection.MinYear, series[0].Year)
	assert.Equal(t, selection.MaxYear, series[len(series)-1].Year)

	reversed := &selection.Context{TimeStart: 2020, TimeEnd: 2010, Partners: []string{"Canada"}}
	assert.NotPanics(t, func() {
		assert.Empty(t, WorldTrade(nil, reversed))
		assert.Empty(t, PartnerSeries(nil, reversed))
	})
}

func TestWorldTradeFiltersCategory(t *testing.T) {
	ctx := single(t, selection.Input{Category: "Food", TimeRange: selection.Range{"2020"}})
	records := []model.Record{
		usd(2020, "Y", "Food", model.FlowExports, 3e6),
		usd(2020, "Y", "Minerals", model.FlowExports, 5e6),
	}

	series := WorldTrade(records, ctx)
	require.Len(t, series, 1)
	assert.InDelta(t, 3.0, *series[0].Exports, 1e-9)
	assert.Equal(t, "Food", series[0].Category)
}

func TestPartnerSeriesCartesianProduct(t *testing.T) {
	ctx := multi(t, selection.Input{
		Country:   selection.List{"Kenya"},
		Partners:  selection.List{"Canada"},
		TimeRange: selection.Range{"2015", "2016"},
	})

	series := PartnerSeries(FilterMulti(nil, ctx), ctx)
	require.Len(t, series, 2)
	assert.Equal(t, 2015, series[0].Year)
	assert.Equal(t, 2016, series[1].Year)
	for _, point := range series {
		assert.Equal(t, "Canada", point.Partner)
		assert.Equal(t, "Kenya", point.Country)
	}
}

func TestPartnerSeriesOrdering(t *testing.T) {
	ctx := multi(t, selection.Input{
		Country:   selection.List{"Kenya"},
		Partners:  selection.List{"Zambia", "Canada"},
		TimeRange: selection.Range{"2021", "2020"},
	})
	records := []model.Record{
		usd(2021, "Zambia", "A", model.FlowExports, 4e6),
		usd(2020, "Canada", "A", model.FlowImports, 1e6),
		usd(2020, "Canada", "B", model.FlowImports, 2e6),
		usd(2020, "France", "A", model.FlowExports, 9e6),
		usd(2022, "Canada", "A", model.FlowExports, 9e6),
	}

	series := PartnerSeries(FilterMulti(records, ctx), ctx)
	require.Len(t, series, 4)
	got := make([][2]any, 0, len(series))
	for _, point := range series {
		got = append(got, [2]any{point.Partner, point.Year})
	}
	assert.Equal(t, [][2]any{{"Canada", 2020}, {"Canada", 2021}, {"Zambia", 2020}, {"Zambia", 2021}}, got)

	assert.InDelta(t, -3.0, *series[0].Imports, 1e-9)
	assert.InDelta(t, -3.0, *series[0].Balance, 1e-9)
	assert.Nil(t, series[0].Exports)
	assert.Nil(t, series[1].Exports)
	assert.InDelta(t, 4.0, *series[3].Exports, 1e-9)
}

func TestCategoryTable(t *testing.T) {
	ctx := multi(t, selection.Input{
		Country:   selection.List{"Kenya"},
		Partners:  selection.List{"Zambia", "Canada"},
		TimeRange: selection.Range{"2020", "2021"},
	})
	records := []model.Record{
		usd(2020, "Zambia", "Food", model.FlowExports, 4e6),
		usd(2021, "Zambia", "Food", model.FlowExports, 6e6),
		usd(2021, "Zambia", "Food", model.FlowImports, 1e6),
		usd(2020, "Canada", "Minerals", model.FlowImports, 2e6),
		usd(2020, "Canada", "Food", model.FlowExports, 3e6),
		{Year: 2020, Partner: "Canada", Category: "Empty", Flow: model.FlowExports},
	}

	table := CategoryTable(records, ctx)
	require.Len(t, table, 3)
	assert.Equal(t, [][2]string{{"Canada", "Food"}, {"Canada", "Minerals"}, {"Zambia", "Food"}},
		[][2]string{
			{table[0].Partner, table[0].Category},
			{table[1].Partner, table[1].Category},
			{table[2].Partner, table[2].Category},
		})

	zambia := table[2]
	assert.InDelta(t, 10.0, *zambia.Exports, 1e-9)
	assert.InDelta(t, -1.0, *zambia.Imports, 1e-9)
	assert.InDelta(t, 9.0, *zambia.Balance, 1e-9)
	assert.Equal(t, "2020-2021", zambia.Years)
	assert.Nil(t, table[1].Exports)
}

func TestCategoryTableAveragesGDPPerFlow(t *testing.T) {
	ctx := multi(t, selection.Input{
		Country:   selection.List{"Kenya"},
		Partners:  selection.List{"Canada"},
		Unit:      "gdp",
		Category:  "Food",
		TimeRange: selection.Range{"2020", "2021"},
	})
	records := []model.Record{
		gdp(2020, "Canada", "Food", model.FlowExports, 0.2),
		gdp(2021, "Canada", "Food", model.FlowExports, 0.4),
		gdp(2021, "Canada", "Food", model.FlowImports, 0.1),
		gdp(2021, "Canada", "Minerals", model.FlowImports, 0.9),
	}

	table := CategoryTable(records, ctx)
	require.Len(t, table, 1)
	assert.InDelta(t, 0.3, *table[0].Exports, 1e-12)
	assert.InDelta(t, -0.1, *table[0].Imports, 1e-12)
	assert.InDelta(t, 0.2, *table[0].Balance, 1e-12)
}

func TestSuppress(t *testing.T) {
	assert.Nil(t, Suppress(0))
	assert.Nil(t, Suppress(1e-13))
	assert.Nil(t, Suppress(-1e-13))
	require.NotNil(t, Suppress(1e-11))
	assert.Equal(t, -2.5, *Suppress(-2.5))
}

func TestContribution(t *testing.T) {
	record := usd(2020, "Y", "A", model.FlowExports, 2e6)
	value, ok := Contribution(record, model.UnitUSD, model.PricesConstant)
	require.True(t, ok)
	assert.InDelta(t, 2.0, value, 1e-12)

	_, ok = Contribution(record, model.UnitUSD, model.PricesCurrent)
	assert.False(t, ok)
	_, ok = Contribution(record, model.UnitGDP, model.PricesConstant)
	assert.False(t, ok)
}

func TestReshapeAndLimits(t *testing.T) {
	points := []model.SeriesPoint{
		{Year: 2021, Partner: "Zambia", Exports: ptr(4)},
		{Year: 2020, Partner: "Canada", Exports: ptr(-1)},
		{Year: 2021, Partner: "Canada", Exports: ptr(2)},
		{Year: 2020, Partner: "Zambia"},
	}

	pivot := Reshape(points, model.FlowExports)
	assert.Equal(t, []string{"Canada", "Zambia"}, pivot.Partners)
	require.Len(t, pivot.Rows, 2)
	assert.Equal(t, 2020, pivot.Rows[0].Year)
	assert.Equal(t, []*float64{ptr(-1), nil}, pivot.Rows[0].Values)
	assert.Equal(t, []*float64{ptr(2), ptr(4)}, pivot.Rows[1].Values)

	lo, hi, ok := Limits(points, model.FlowExports)
	require.True(t, ok)
	assert.Equal(t, -1.0, lo)
	assert.Equal(t, 4.0, hi)

	_, _, ok = Limits(points, model.FlowImports)
	assert.False(t, ok)
}
