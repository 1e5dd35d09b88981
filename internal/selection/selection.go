package selection

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"tradeexplorer/internal/model"
)

// MinYear and MaxYear bound every time range, so a series never spans
// more than MaxYear-MinYear+1 years.
const (
	MinYear = 0
	MaxYear = 9999
)

const (
	defaultUnit     = model.UnitUSD
	defaultPrices   = model.PricesConstant
	defaultCategory = model.AllCategory
	defaultFlow     = model.FlowExports
)

type Mode string

const (
	ModeSingle Mode = "single"
	ModeMulti  Mode = "multi"
)

// List is a selection that may arrive as a scalar, an array, or null.
type List []string

func (l *List) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*l = nil
		return nil
	}
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*l = List(Values(raw))
	return nil
}

// Range is a time range that may arrive as a lone year or a [start, end] pair.
type Range []string

func (r *Range) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(bytes.TrimSpace(data), &raw); err != nil {
		return err
	}
	switch value := raw.(type) {
	case nil:
		*r = nil
	case []any:
		out := make(Range, 0, len(value))
		for _, item := range value {
			out = append(out, scalarString(item))
		}
		*r = out
	default:
		*r = Range{scalarString(value)}
	}
	return nil
}

// Input carries raw, possibly partial, UI selections.
type Input struct {
	Country   List   `json:"country"`
	Partners  List   `json:"partners"`
	Group     List   `json:"group"`
	Unit      string `json:"unit"`
	Prices    string `json:"prices"`
	TimeRange Range  `json:"time_range"`
	Category  string `json:"category"`
	Flow      string `json:"flow"`
}

// Context is the normalized selection. It is built once per query and must
// not be modified afterwards.
type Context struct {
	Mode      Mode
	Country   string
	Countries []string
	Partners  []string
	// PartnerFilter is nil when no partner restriction applies.
	PartnerFilter map[string]struct{}
	Unit          model.Unit
	Prices        model.Prices
	Category      string
	Flow          model.Flow
	TimeStart     int
	TimeEnd       int
	UnitLabel     string
}

func (c *Context) AllCategories() bool {
	return IsAllCategory(c.Category)
}

func (c *Context) YearsLabel() string {
	return fmt.Sprintf("%d-%d", c.TimeStart, c.TimeEnd)
}

func (c *Context) HasPartner(partner string) bool {
	if c.PartnerFilter == nil {
		return true
	}
	_, ok := c.PartnerFilter[partner]
	return ok
}

// Span is the number of years in the range.
func (c *Context) Span() int {
	if c.TimeEnd < c.TimeStart {
		return 0
	}
	return c.TimeEnd - c.TimeStart + 1
}

func (c *Context) InRange(year int) bool {
	return year >= c.TimeStart && year <= c.TimeEnd
}

// BuildSingle normalizes a single-country selection. It returns nil when no
// reporting country remains after normalization.
func BuildSingle(in Input) *Context {
	countries := without(Values(in.Country), model.AllCountries)
	if len(countries) == 0 {
		return nil
	}
	ctx := build(in)
	ctx.Mode = ModeSingle
	ctx.Country = strings.Join(countries, ", ")
	ctx.Countries = countries
	if group := without(Values(in.Group), model.AllCountries); len(group) > 0 {
		ctx.PartnerFilter = setOf(group)
	}
	return ctx
}

// BuildMulti normalizes a country plus partner-set selection. It returns nil
// when either the country or the partner list is empty.
func BuildMulti(in Input) *Context {
	countries := Values(in.Country)
	partners := Values(in.Partners)
	if len(countries) == 0 || len(partners) == 0 {
		return nil
	}
	ctx := build(in)
	ctx.Mode = ModeMulti
	ctx.Country = countries[0]
	ctx.Countries = countries
	ctx.Partners = partners
	ctx.PartnerFilter = setOf(partners)
	return ctx
}

func build(in Input) *Context {
	unit := model.Unit(lowerOr(in.Unit, string(defaultUnit)))
	prices := model.Prices(lowerOr(in.Prices, string(defaultPrices)))
	category := strings.TrimSpace(in.Category)
	if category == "" {
		category = defaultCategory
	}
	start, end := ParseRange(in.TimeRange)
	return &Context{
		Unit:      unit,
		Prices:    prices,
		Category:  category,
		Flow:      model.Flow(lowerOr(in.Flow, string(defaultFlow))),
		TimeStart: start,
		TimeEnd:   end,
		UnitLabel: UnitLabel(unit, prices),
	}
}

// UnitLabel describes the unit of aggregated values.
func UnitLabel(unit model.Unit, prices model.Prices) string {
	if unit == model.UnitGDP {
		return "share of gdp"
	}
	return fmt.Sprintf("%s %s million", prices, unit)
}

// IsAllCategory reports whether category selects every product category.
func IsAllCategory(category string) bool {
	switch strings.ToLower(strings.TrimSpace(category)) {
	case "", "all", "all products":
		return true
	default:
		return false
	}
}

// ParseRange coerces a lone value or a pair into an ordered, truncated year
// range within [MinYear, MaxYear]. Unparseable bounds fall back to the other
// bound, then to zero.
func ParseRange(values []string) (int, int) {
	start, startOK := math.NaN(), false
	if len(values) > 0 {
		start, startOK = parseNumber(values[0])
	}
	end, endOK := start, startOK
	if len(values) > 1 {
		end, endOK = parseNumber(values[1])
	}

	if !startOK {
		start, startOK = end, endOK
	}
	if !endOK {
		end, endOK = start, startOK
	}
	if !startOK {
		start = 0
	}
	if !endOK {
		end = start
	}
	start = clampYear(start)
	end = clampYear(end)
	if end < start {
		start, end = end, start
	}
	return int(math.Trunc(start)), int(math.Trunc(end))
}

// Values flattens a scalar or list selection into a deduplicated list,
// dropping null and empty entries while keeping first-seen order.
func Values(value any) []string {
	var items []string
	switch v := value.(type) {
	case nil:
		return nil
	case List:
		items = v
	case []string:
		items = v
	case []any:
		items = make([]string, 0, len(v))
		for _, item := range v {
			if item == nil {
				continue
			}
			items = append(items, scalarString(item))
		}
	default:
		items = []string{scalarString(v)}
	}

	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for _, item := range items {
		if item == "" {
			continue
		}
		if _, ok := seen[item]; ok {
			continue
		}
		seen[item] = struct{}{}
		out = append(out, item)
	}
	return out
}

func clampYear(year float64) float64 {
	return math.Trunc(math.Max(MinYear, math.Min(MaxYear, year)))
}

func parseNumber(raw string) (float64, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, false
	}
	return value, true
}

func scalarString(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case json.Number:
		return v.String()
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprint(v)
	}
}

func without(values []string, drop string) []string {
	out := values[:0:0]
	for _, value := range values {
		if value != drop {
			out = append(out, value)
		}
	}
	return out
}

func setOf(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, value := range values {
		set[value] = struct{}{}
	}
	return set
}

func lowerOr(value, fallback string) string {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" {
		return fallback
	}
	return value
}
