package model

type Flow string

const (
	FlowExports Flow = "exports"
	FlowImports Flow = "imports"
	FlowBalance Flow = "balance"
)

type Unit string

const (
	UnitUSD Unit = "usd"
	UnitCAD Unit = "cad"
	UnitEUR Unit = "eur"
	UnitGBP Unit = "gbp"
	UnitGDP Unit = "gdp"
)

// Currencies lists the units backed by a currency column.
var Currencies = []Unit{UnitUSD, UnitCAD, UnitEUR, UnitGBP}

type Prices string

const (
	PricesConstant Prices = "constant"
	PricesCurrent  Prices = "current"
)

const (
	AllCountries = "All countries"
	AllProducts  = "All products"
	AllCategory  = "All"
	RestOfWorld  = "RoW"
)

// GroupPartners are partner names that stand for aggregates of countries.
var GroupPartners = []string{
	"African countries",
	"BRICS countries",
	"EU27 countries",
	"Eastern African countries",
	"G20 countries",
	"G7 countries",
	"Horn of Africa countries",
	"MERCOSUR",
	"Middle African countries",
	"Northern African countries",
	"Sahel countries",
	"Southern African countries",
	"Sub-saharan countries",
	"Western African countries",
}

var groupPartnerSet = func() map[string]struct{} {
	set := make(map[string]struct{}, len(GroupPartners))
	for _, name := range GroupPartners {
		set[name] = struct{}{}
	}
	return set
}()

func IsGroupPartner(name string) bool {
	_, ok := groupPartnerSet[name]
	return ok
}

// Amounts holds one nullable amount per price basis, in raw currency units.
type Amounts struct {
	Constant *float64
	Current  *float64
}

func (a Amounts) For(prices Prices) *float64 {
	switch prices {
	case PricesConstant:
		return a.Constant
	case PricesCurrent:
		return a.Current
	default:
		return nil
	}
}

// Record is one country/partner/year/category/flow row of the source dataset.
type Record struct {
	Year     int
	Country  string
	Partner  string
	Category string
	Flow     Flow
	USD      Amounts
	CAD      Amounts
	EUR      Amounts
	GBP      Amounts
	PctOfGDP *float64
}

func (r Record) Amounts(unit Unit) (Amounts, bool) {
	switch unit {
	case UnitUSD:
		return r.USD, true
	case UnitCAD:
		return r.CAD, true
	case UnitEUR:
		return r.EUR, true
	case UnitGBP:
		return r.GBP, true
	default:
		return Amounts{}, false
	}
}

// ValueColumn is the source column name holding amounts for unit and prices.
func ValueColumn(unit Unit, prices Prices) string {
	return "value_" + string(unit) + "_" + string(prices)
}

// CoreColumns is the projection read from every partition, in order.
var CoreColumns = func() []string {
	columns := []string{"year", "country", "partner", "category", "flow"}
	for _, unit := range Currencies {
		columns = append(columns, ValueColumn(unit, PricesConstant), ValueColumn(unit, PricesCurrent))
	}
	return append(columns, "pct_of_gdp")
}()

// Kind names an aggregation pipeline.
type Kind string

const (
	KindPartnerRanking  Kind = "partner_ranking"
	KindCategoryRanking Kind = "category_ranking"
	KindWorldTrade      Kind = "world_trade"
	KindPartnerSeries   Kind = "partner_series"
	KindCategoryTable   Kind = "category_table"
)

type PartnerRank struct {
	Years   string  `json:"years"`
	Country string  `json:"country"`
	Partner string  `json:"partner"`
	Flow    Flow    `json:"flow"`
	Value   float64 `json:"value"`
	Unit    string  `json:"unit"`
}

type CategoryRank struct {
	Years    string  `json:"years"`
	Country  string  `json:"country"`
	Partner  string  `json:"partner"`
	Category string  `json:"category"`
	Flow     Flow    `json:"flow"`
	Value    float64 `json:"value"`
	Unit     string  `json:"unit"`
}

// SeriesPoint is one (partner, year) point of a trade time series.
type SeriesPoint struct {
	Year     int      `json:"year"`
	Country  string   `json:"country"`
	Partner  string   `json:"partner"`
	Category string   `json:"category"`
	Imports  *float64 `json:"imports"`
	Exports  *float64 `json:"exports"`
	Balance  *float64 `json:"balance"`
	Unit     string   `json:"unit"`
}

// Get returns the value for flow.
func (p SeriesPoint) Get(flow Flow) *float64 {
	switch flow {
	case FlowExports:
		return p.Exports
	case FlowImports:
		return p.Imports
	case FlowBalance:
		return p.Balance
	default:
		return nil
	}
}

type CategoryTotal struct {
	Years    string   `json:"years"`
	Country  string   `json:"country"`
	Partner  string   `json:"partner"`
	Category string   `json:"category"`
	Imports  *float64 `json:"imports"`
	Exports  *float64 `json:"exports"`
	Balance  *float64 `json:"balance"`
	Unit     string   `json:"unit"`
}
