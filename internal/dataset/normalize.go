package dataset

import (
	"encoding/json"
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"

	"tradeexplorer/internal/model"
)

// Normalize converts engine rows into records. Rows without a numeric year
// cannot be placed on any time axis and are dropped.
func Normalize(rows []map[string]any) ([]model.Record, int) {
	records := make([]model.Record, 0, len(rows))
	dropped := 0
	for _, row := range rows {
		year := NumericOrNull(row["year"])
		if year == nil {
			dropped++
			continue
		}
		records = append(records, model.Record{
			Year:     int(math.Trunc(*year)),
			Country:  text(row["country"]),
			Partner:  text(row["partner"]),
			Category: text(row["category"]),
			Flow:     model.Flow(text(row["flow"])),
			USD:      amounts(row, model.UnitUSD),
			CAD:      amounts(row, model.UnitCAD),
			EUR:      amounts(row, model.UnitEUR),
			GBP:      amounts(row, model.UnitGBP),
			PctOfGDP: NumericOrNull(row["pct_of_gdp"]),
		})
	}
	return records, dropped
}

func amounts(row map[string]any, unit model.Unit) model.Amounts {
	return model.Amounts{
		Constant: NumericOrNull(row[model.ValueColumn(unit, model.PricesConstant)]),
		Current:  NumericOrNull(row[model.ValueColumn(unit, model.PricesCurrent)]),
	}
}

// NumericOrNull coerces value to a finite number, or nil when it has none.
func NumericOrNull(value any) *float64 {
	var (
		f  float64
		ok bool
	)
	switch v := value.(type) {
	case nil:
		return nil
	case float64:
		f, ok = v, true
	case float32:
		f, ok = float64(v), true
	case int:
		f, ok = float64(v), true
	case int8:
		f, ok = float64(v), true
	case int16:
		f, ok = float64(v), true
	case int32:
		f, ok = float64(v), true
	case int64:
		f, ok = float64(v), true
	case uint8:
		f, ok = float64(v), true
	case uint16:
		f, ok = float64(v), true
	case uint32:
		f, ok = float64(v), true
	case uint64:
		f, ok = float64(v), true
	case bool:
		if v {
			f = 1
		}
		ok = true
	case *big.Int:
		if v != nil {
			f, _ = new(big.Float).SetInt(v).Float64()
			ok = true
		}
	case json.Number:
		f, ok = parseFloat(v.String())
	case string:
		f, ok = parseFloat(v)
	case []byte:
		f, ok = parseFloat(string(v))
	case interface{ Float64() float64 }:
		// DECIMAL and HUGEINT wrappers
		f, ok = v.Float64(), true
	case fmt.Stringer:
		f, ok = parseFloat(v.String())
	}
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}

func parseFloat(raw string) (float64, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func text(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	default:
		return fmt.Sprint(v)
	}
}
