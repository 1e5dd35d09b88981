package store

import (
	"context"

	"tradeexplorer/internal/model"
)

// Store persists raw trade records per reporting country so a restarted
// process can answer without listing and reading remote partitions again.
type Store interface {
	UpsertRecords(ctx context.Context, countries []string, records []model.Record) error
	// LoadRecords returns ok=false unless every country has a snapshot.
	LoadRecords(ctx context.Context, countries []string) (records []model.Record, ok bool, err error)
	ListCountries(ctx context.Context) ([]Snapshot, error)
	Close() error
}

type Snapshot struct {
	Country    string
	Records    int
	IngestedAt string
}

type NopStore struct{}

func (s *NopStore) UpsertRecords(ctx context.Context, countries []string, records []model.Record) error {
	_ = ctx
	_ = countries
	_ = records
	return nil
}

func (s *NopStore) LoadRecords(ctx context.Context, countries []string) ([]model.Record, bool, error) {
	_ = ctx
	_ = countries
	return nil, false, nil
}

func (s *NopStore) ListCountries(ctx context.Context) ([]Snapshot, error) {
	_ = ctx
	return nil, nil
}

func (s *NopStore) Close() error {
	return nil
}
