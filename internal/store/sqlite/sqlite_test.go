package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradeexplorer/internal/model"
)

func ptr(v float64) *float64 { return &v }

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "trade.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestUpsertAndLoadRecords(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	records := []model.Record{
		{Year: 2020, Country: "Kenya", Partner: "Canada", Category: "Machinery", Flow: model.FlowExports,
			USD: model.Amounts{Constant: ptr(100e6), Current: ptr(110e6)}, PctOfGDP: ptr(0.02)},
		{Year: 2020, Country: "Kenya", Partner: "Canada", Category: "Machinery", Flow: model.FlowImports,
			USD: model.Amounts{Constant: ptr(60e6)}},
	}
	require.NoError(t, s.UpsertRecords(ctx, []string{"Kenya"}, records))

	loaded, ok, err := s.LoadRecords(ctx, []string{"Kenya"})
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, loaded, 2)

	exports := loaded[0]
	assert.Equal(t, model.FlowExports, exports.Flow)
	require.NotNil(t, exports.USD.Current)
	assert.Equal(t, 110e6, *exports.USD.Current)
	assert.Equal(t, 0.02, *exports.PctOfGDP)
	assert.Nil(t, exports.EUR.Constant)

	imports := loaded[1]
	assert.Equal(t, model.FlowImports, imports.Flow)
	assert.Nil(t, imports.USD.Current)
	assert.Nil(t, imports.PctOfGDP)
}

func TestLoadRecordsRequiresEveryCountry(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	require.NoError(t, s.UpsertRecords(ctx, []string{"Kenya"}, nil))

	records, ok, err := s.LoadRecords(ctx, []string{"Kenya"})
	require.NoError(t, err)
	assert.True(t, ok, "a country with no rows still has a snapshot")
	assert.Empty(t, records)

	_, ok, err = s.LoadRecords(ctx, []string{"Kenya", "Canada"})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestUpsertReplacesCountrySnapshot(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	first := []model.Record{
		{Year: 2019, Country: "Kenya", Partner: "Canada", Category: "A", Flow: model.FlowExports},
		{Year: 2020, Country: "Kenya", Partner: "Canada", Category: "A", Flow: model.FlowExports},
	}
	require.NoError(t, s.UpsertRecords(ctx, []string{"Kenya"}, first))
	require.NoError(t, s.UpsertRecords(ctx, []string{"Kenya"}, first[1:]))

	loaded, ok, err := s.LoadRecords(ctx, []string{"Kenya"})
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, loaded, 1)
	assert.Equal(t, 2020, loaded[0].Year)

	snapshots, err := s.ListCountries(ctx)
	require.NoError(t, err)
	require.Len(t, snapshots, 1)
	assert.Equal(t, "Kenya", snapshots[0].Country)
	assert.Equal(t, 1, snapshots[0].Records)
}

func TestNewRequiresPath(t *testing.T) {
	_, err := New("")
	assert.Error(t, err)
}
