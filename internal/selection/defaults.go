package selection

import (
	"strconv"

	"tradeexplorer/internal/model"
)

const (
	FirstYear = 2002
	LastYear  = 2023

	DefaultSingleCountry = "South Africa"
	DefaultMultiCountry  = "Kenya"

	singleWindow = 20
	multiWindow  = 10
)

var DefaultMultiPartners = []string{"Canada"}

type Option struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

type Options struct {
	Units       []Option `json:"units"`
	Prices      []Option `json:"prices"`
	SingleFlows []Option `json:"single_flows"`
	MultiFlows  []Option `json:"multi_flows"`
	TimeRange   [2]int   `json:"time_range"`
}

// AvailableOptions lists the values the dashboard offers for each control.
func AvailableOptions() Options {
	return Options{
		Units: []Option{
			{Label: "US Dollars", Value: string(model.UnitUSD)},
			{Label: "Canada Dollars", Value: string(model.UnitCAD)},
			{Label: "Euros", Value: string(model.UnitEUR)},
			{Label: "British pounds", Value: string(model.UnitGBP)},
			{Label: "Share of GDP", Value: string(model.UnitGDP)},
		},
		Prices: []Option{
			{Label: "Constant", Value: string(model.PricesConstant)},
			{Label: "Current", Value: string(model.PricesCurrent)},
		},
		SingleFlows: []Option{
			{Label: "Imports", Value: string(model.FlowImports)},
			{Label: "Exports", Value: string(model.FlowExports)},
		},
		MultiFlows: []Option{
			{Label: "Balance", Value: string(model.FlowBalance)},
			{Label: "Exports", Value: string(model.FlowExports)},
			{Label: "Imports", Value: string(model.FlowImports)},
		},
		TimeRange: [2]int{FirstYear, LastYear},
	}
}

// DefaultSingle is the selection shown when the single-country view opens.
func DefaultSingle() Input {
	return Input{
		Country:   List{DefaultSingleCountry},
		Group:     List{model.AllCountries},
		Unit:      string(defaultUnit),
		Prices:    string(defaultPrices),
		TimeRange: window(singleWindow),
		Category:  defaultCategory,
		Flow:      string(model.FlowExports),
	}
}

// DefaultMulti is the selection shown when the multi-partner view opens.
func DefaultMulti() Input {
	return Input{
		Country:   List{DefaultMultiCountry},
		Partners:  append(List(nil), DefaultMultiPartners...),
		Unit:      string(defaultUnit),
		Prices:    string(defaultPrices),
		TimeRange: window(multiWindow),
		Category:  defaultCategory,
		Flow:      string(model.FlowBalance),
	}
}

func window(size int) Range {
	return Range{strconv.Itoa(LastYear - size), strconv.Itoa(LastYear)}
}
