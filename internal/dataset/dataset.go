package dataset

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"tradeexplorer/internal/metrics"
	"tradeexplorer/internal/model"
	"tradeexplorer/internal/query"
	"tradeexplorer/internal/store"
)

var ErrNoCountries = errors.New("dataset: no countries requested")

// Locator makes the partitions of a country available for reading.
type Locator interface {
	EnsureAll(ctx context.Context, countries []string) error
	URLs(country string) ([]string, error)
}

// Cache memoizes the records of a set of reporting countries. Entries are
// keyed by the sorted country set and are never evicted. At most one fetch
// per key is in flight; a failed fetch leaves no entry behind.
type Cache struct {
	locator Locator
	runner  query.Runner
	store   store.Store
	logger  *slog.Logger

	group singleflight.Group
	mu    sync.RWMutex
	rows  map[string][]model.Record
}

func New(locator Locator, runner query.Runner, snapshots store.Store, logger *slog.Logger) *Cache {
	if snapshots == nil {
		snapshots = &store.NopStore{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{
		locator: locator,
		runner:  runner,
		store:   snapshots,
		logger:  logger.With("component", "dataset"),
		rows:    make(map[string][]model.Record),
	}
}

// Key identifies a country set independently of order and repetition.
func Key(countries []string) string {
	return strings.Join(canonical(countries), "|")
}

// Rows returns the records of countries. The returned slice is shared by
// every caller of the same key and must not be modified.
func (c *Cache) Rows(ctx context.Context, countries []string) ([]model.Record, error) {
	sorted := canonical(countries)
	if len(sorted) == 0 {
		return nil, ErrNoCountries
	}
	key := strings.Join(sorted, "|")

	if rows, ok := c.cached(key); ok {
		metrics.CacheLookups.WithLabelValues("dataset", "hit").Inc()
		return rows, nil
	}

	detached := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key, func() (any, error) {
		if rows, ok := c.cached(key); ok {
			return rows, nil
		}
		metrics.CacheLookups.WithLabelValues("dataset", "miss").Inc()
		rows, err := c.load(detached, sorted)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.rows[key] = rows
		c.mu.Unlock()
		return rows, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Shared {
			metrics.CacheLookups.WithLabelValues("dataset", "shared").Inc()
		}
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]model.Record), nil
	}
}

func (c *Cache) cached(key string) ([]model.Record, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	rows, ok := c.rows[key]
	return rows, ok
}

func (c *Cache) load(ctx context.Context, countries []string) ([]model.Record, error) {
	start := time.Now()

	records, ok, err := c.store.LoadRecords(ctx, countries)
	if err != nil {
		c.logger.Warn("snapshot read failed", "countries", countries, "error", err)
	} else if ok {
		c.logger.Info("loaded from snapshot", "countries", countries, "rows", len(records))
		return records, nil
	}

	if err := c.locator.EnsureAll(ctx, countries); err != nil {
		return nil, err
	}
	sources := make([]query.Source, 0, len(countries))
	for _, country := range countries {
		urls, err := c.locator.URLs(country)
		if err != nil {
			return nil, err
		}
		sources = append(sources, query.Source{Country: country, URLs: urls})
	}
	statement, err := query.CountryRows(sources, model.CoreColumns)
	if err != nil {
		return nil, err
	}

	raw, err := c.runner.Run(ctx, statement)
	if err != nil {
		return nil, err
	}
	records, dropped := Normalize(raw)
	if dropped > 0 {
		c.logger.Warn("dropped rows without year", "countries", countries, "dropped", dropped)
	}

	if err := c.store.UpsertRecords(ctx, countries, records); err != nil {
		c.logger.Warn("snapshot write failed", "countries", countries, "error", err)
	}
	c.logger.Info("fetched country data", "countries", countries, "rows", len(records),
		"dur_ms", time.Since(start).Milliseconds())
	return records, nil
}

func canonical(countries []string) []string {
	seen := make(map[string]struct{}, len(countries))
	out := make([]string, 0, len(countries))
	for _, country := range countries {
		if country == "" {
			continue
		}
		if _, ok := seen[country]; ok {
			continue
		}
		seen[country] = struct{}{}
		out = append(out, country)
	}
	sort.Strings(out)
	return out
}
