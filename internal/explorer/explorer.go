// Package explorer answers dashboard selections. Each call fetches the
// records of the selected countries once and feeds every pipeline of the
// view from that one fetch.
package explorer

import (
	"context"
	"log/slog"
	"time"

	"tradeexplorer/internal/aggregate"
	"tradeexplorer/internal/metrics"
	"tradeexplorer/internal/model"
	"tradeexplorer/internal/selection"
)

// Source returns the records of a set of reporting countries.
type Source interface {
	Rows(ctx context.Context, countries []string) ([]model.Record, error)
}

type Service struct {
	source Source
	logger *slog.Logger
}

func New(source Source, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{source: source, logger: logger.With("component", "explorer")}
}

type SingleResult struct {
	Partners   []model.PartnerRank  `json:"partners"`
	Categories []model.CategoryRank `json:"categories"`
	WorldTrade []model.SeriesPoint  `json:"world_trade"`
}

type MultiResult struct {
	Plot  []model.SeriesPoint   `json:"plot"`
	Table []model.CategoryTotal `json:"table"`
	Pivot aggregate.Pivot       `json:"pivot"`
	// Limits bounds the plotted flow; nil when no point has a value.
	Limits *Limits `json:"limits"`
}

type Limits struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Single runs the single-country view. A selection without a reporting
// country yields empty results.
func (s *Service) Single(ctx context.Context, in selection.Input) (SingleResult, error) {
	result := SingleResult{
		Partners:   []model.PartnerRank{},
		Categories: []model.CategoryRank{},
		WorldTrade: []model.SeriesPoint{},
	}
	sel := selection.BuildSingle(in)
	if sel == nil {
		return result, nil
	}

	start := time.Now()
	records, err := s.source.Rows(ctx, sel.Countries)
	if err != nil {
		s.logger.Error("view failed", "mode", sel.Mode, "countries", sel.Countries, "error", err)
		return result, err
	}
	rows := aggregate.FilterSingle(records, sel)

	result.Partners = aggregate.Partners(rows, sel)
	result.Categories = aggregate.Categories(rows, sel)
	result.WorldTrade = aggregate.WorldTrade(rows, sel)

	observe(model.KindPartnerRanking, len(result.Partners))
	observe(model.KindCategoryRanking, len(result.Categories))
	observe(model.KindWorldTrade, len(result.WorldTrade))
	s.logger.Debug("view computed", "mode", sel.Mode, "country", sel.Country, "years", sel.YearsLabel(),
		"rows", len(rows), "dur_ms", time.Since(start).Milliseconds())
	return result, nil
}

// Multi runs the country versus partners view. A selection missing either
// side yields empty results.
func (s *Service) Multi(ctx context.Context, in selection.Input) (MultiResult, error) {
	result := MultiResult{
		Plot:  []model.SeriesPoint{},
		Table: []model.CategoryTotal{},
		Pivot: aggregate.Pivot{Partners: []string{}, Rows: []aggregate.PivotRow{}},
	}
	sel := selection.BuildMulti(in)
	if sel == nil {
		return result, nil
	}

	start := time.Now()
	records, err := s.source.Rows(ctx, sel.Countries)
	if err != nil {
		s.logger.Error("view failed", "mode", sel.Mode, "countries", sel.Countries, "partners", sel.Partners, "error", err)
		return result, err
	}
	rows := aggregate.FilterMulti(records, sel)

	result.Plot = aggregate.PartnerSeries(rows, sel)
	result.Table = aggregate.CategoryTable(rows, sel)
	result.Pivot = aggregate.Reshape(result.Plot, sel.Flow)
	if lo, hi, ok := aggregate.Limits(result.Plot, sel.Flow); ok {
		result.Limits = &Limits{Min: lo, Max: hi}
	}

	observe(model.KindPartnerSeries, len(result.Plot))
	observe(model.KindCategoryTable, len(result.Table))
	s.logger.Debug("view computed", "mode", sel.Mode, "country", sel.Country, "partners", sel.Partners,
		"years", sel.YearsLabel(), "rows", len(rows), "dur_ms", time.Since(start).Milliseconds())
	return result, nil
}

func observe(kind model.Kind, rows int) {
	metrics.PipelineRows.WithLabelValues(string(kind)).Add(float64(rows))
}
