package selection

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradeexplorer/internal/model"
)

func TestParseRange(t *testing.T) {
	tests := []struct {
		name      string
		values    []string
		wantStart int
		wantEnd   int
	}{
		{name: "ordered pair", values: []string{"2015", "2016"}, wantStart: 2015, wantEnd: 2016},
		{name: "reversed pair", values: []string{"2020", "2010"}, wantStart: 2010, wantEnd: 2020},
		{name: "lone value", values: []string{"2019"}, wantStart: 2019, wantEnd: 2019},
		{name: "fractional bounds truncate", values: []string{"2015.9", "2017.2"}, wantStart: 2015, wantEnd: 2017},
		{name: "bad start falls back to end", values: []string{"abc", "2012"}, wantStart: 2012, wantEnd: 2012},
		{name: "bad end falls back to start", values: []string{"2012", ""}, wantStart: 2012, wantEnd: 2012},
		{name: "unparseable", values: []string{"x", "y"}, wantStart: 0, wantEnd: 0},
		{name: "empty", values: nil, wantStart: 0, wantEnd: 0},
		{name: "huge end clamps", values: []string{"0", "1e300"}, wantStart: 0, wantEnd: MaxYear},
		{name: "huge negative start clamps", values: []string{"-1e300", "5"}, wantStart: MinYear, wantEnd: 5},
		{name: "both beyond domain", values: []string{"1e9", "-1e9"}, wantStart: MinYear, wantEnd: MaxYear},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end := ParseRange(tt.values)
			assert.Equal(t, tt.wantStart, start)
			assert.Equal(t, tt.wantEnd, end)
			assert.LessOrEqual(t, start, end)
		})
	}
}

func TestValues(t *testing.T) {
	assert.Nil(t, Values(nil))
	assert.Equal(t, []string{"Kenya"}, Values("Kenya"))
	assert.Equal(t, []string{}, Values(""))
	assert.Equal(t, []string{"Kenya", "Canada"}, Values([]string{"Kenya", "", "Canada", "Kenya"}))
	assert.Equal(t, []string{"Kenya", "2020"}, Values([]any{"Kenya", nil, float64(2020)}))
}

func TestBuildSingle(t *testing.T) {
	ctx := BuildSingle(Input{
		Country:   List{"Kenya", "Kenya", model.AllCountries},
		Group:     List{model.AllCountries},
		Unit:      "USD",
		TimeRange: Range{"2020", "2015"},
	})
	require.NotNil(t, ctx)

	assert.Equal(t, ModeSingle, ctx.Mode)
	assert.Equal(t, []string{"Kenya"}, ctx.Countries)
	assert.Equal(t, "Kenya", ctx.Country)
	assert.Nil(t, ctx.PartnerFilter)
	assert.Equal(t, model.UnitUSD, ctx.Unit)
	assert.Equal(t, model.PricesConstant, ctx.Prices)
	assert.Equal(t, model.FlowExports, ctx.Flow)
	assert.Equal(t, model.AllCategory, ctx.Category)
	assert.Equal(t, 2015, ctx.TimeStart)
	assert.Equal(t, 2020, ctx.TimeEnd)
	assert.Equal(t, "constant usd million", ctx.UnitLabel)
	assert.Equal(t, "2015-2020", ctx.YearsLabel())
	assert.True(t, ctx.HasPartner("anyone"))
}

func TestBuildSingleWithGroup(t *testing.T) {
	ctx := BuildSingle(Input{Country: List{"Kenya"}, Group: List{"G7 countries"}, Unit: "gdp"})
	require.NotNil(t, ctx)

	assert.True(t, ctx.HasPartner("G7 countries"))
	assert.False(t, ctx.HasPartner("Canada"))
	assert.Equal(t, "share of gdp", ctx.UnitLabel)
}

func TestBuildSingleEmptyCountry(t *testing.T) {
	assert.Nil(t, BuildSingle(Input{}))
	assert.Nil(t, BuildSingle(Input{Country: List{model.AllCountries}}))
}

func TestBuildMulti(t *testing.T) {
	ctx := BuildMulti(Input{
		Country:   List{"Kenya"},
		Partners:  List{"Canada", "Brazil", "Canada"},
		Prices:    "current",
		TimeRange: Range{"2015", "2016"},
		Flow:      "balance",
	})
	require.NotNil(t, ctx)

	assert.Equal(t, ModeMulti, ctx.Mode)
	assert.Equal(t, "Kenya", ctx.Country)
	assert.Equal(t, []string{"Canada", "Brazil"}, ctx.Partners)
	assert.True(t, ctx.HasPartner("Brazil"))
	assert.False(t, ctx.HasPartner("Kenya"))
	assert.Equal(t, model.FlowBalance, ctx.Flow)
	assert.Equal(t, "current usd million", ctx.UnitLabel)
}

func TestBuildMultiRequiresPartners(t *testing.T) {
	assert.Nil(t, BuildMulti(Input{Country: List{"Kenya"}}))
	assert.Nil(t, BuildMulti(Input{Partners: List{"Canada"}}))
}

func TestInputUnmarshalScalarOrList(t *testing.T) {
	var in Input
	err := json.Unmarshal([]byte(`{
		"country": "Kenya",
		"partners": ["Canada", null, "Brazil"],
		"group": null,
		"time_range": 2019
	}`), &in)
	require.NoError(t, err)

	assert.Equal(t, List{"Kenya"}, in.Country)
	assert.Equal(t, List{"Canada", "Brazil"}, in.Partners)
	assert.Nil(t, in.Group)
	assert.Equal(t, Range{"2019"}, in.TimeRange)

	err = json.Unmarshal([]byte(`{"time_range": [2010, "2012"]}`), &in)
	require.NoError(t, err)
	assert.Equal(t, Range{"2010", "2012"}, in.TimeRange)
}

func TestIsAllCategory(t *testing.T) {
	assert.True(t, IsAllCategory("All"))
	assert.True(t, IsAllCategory("all products"))
	assert.True(t, IsAllCategory(""))
	assert.False(t, IsAllCategory("Machinery"))
}

func TestDefaults(t *testing.T) {
	single := BuildSingle(DefaultSingle())
	require.NotNil(t, single)
	assert.Equal(t, LastYear-singleWindow, single.TimeStart)
	assert.Equal(t, LastYear, single.TimeEnd)

	multi := BuildMulti(DefaultMulti())
	require.NotNil(t, multi)
	assert.Equal(t, []string{"Canada"}, multi.Partners)
	assert.Equal(t, LastYear-multiWindow, multi.TimeStart)
}
