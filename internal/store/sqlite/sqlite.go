package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"tradeexplorer/internal/model"
	"tradeexplorer/internal/store"
)

type Store struct {
	db *sql.DB
}

func New(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite: path is required")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return s, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// UpsertRecords replaces the snapshot of every listed country with the
// records belonging to it.
func (s *Store) UpsertRecords(ctx context.Context, countries []string, records []model.Record) (err error) {
	if len(countries) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	args := make([]any, 0, len(countries))
	for _, country := range countries {
		args = append(args, country)
	}
	if _, err = tx.ExecContext(ctx,
		`DELETE FROM trade_records WHERE country IN (`+placeholders(len(countries))+`)`, args...); err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO trade_records (
			country, partner, category, flow, year,
			value_usd_constant, value_usd_current, value_cad_constant, value_cad_current,
			value_eur_constant, value_eur_current, value_gbp_constant, value_gbp_current,
			pct_of_gdp
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(country, partner, category, flow, year)
		DO UPDATE SET
			value_usd_constant = excluded.value_usd_constant,
			value_usd_current = excluded.value_usd_current,
			value_cad_constant = excluded.value_cad_constant,
			value_cad_current = excluded.value_cad_current,
			value_eur_constant = excluded.value_eur_constant,
			value_eur_current = excluded.value_eur_current,
			value_gbp_constant = excluded.value_gbp_constant,
			value_gbp_current = excluded.value_gbp_current,
			pct_of_gdp = excluded.pct_of_gdp
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	counts := make(map[string]int, len(countries))
	for i := range records {
		record := records[i]
		counts[record.Country]++
		_, err = stmt.ExecContext(
			ctx,
			record.Country,
			record.Partner,
			record.Category,
			string(record.Flow),
			record.Year,
			value(record.USD.Constant), value(record.USD.Current),
			value(record.CAD.Constant), value(record.CAD.Current),
			value(record.EUR.Constant), value(record.EUR.Current),
			value(record.GBP.Constant), value(record.GBP.Current),
			value(record.PctOfGDP),
		)
		if err != nil {
			return err
		}
	}

	now := time.Now().UTC().Format(time.RFC3339)
	for _, country := range countries {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO snapshots (country, record_count, ingested_at) VALUES (?, ?, ?)
			ON CONFLICT(country) DO UPDATE SET
				record_count = excluded.record_count,
				ingested_at = excluded.ingested_at
		`, country, counts[country], now)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (s *Store) LoadRecords(ctx context.Context, countries []string) ([]model.Record, bool, error) {
	if len(countries) == 0 {
		return nil, false, nil
	}
	args := make([]any, 0, len(countries))
	for _, country := range countries {
		args = append(args, country)
	}

	var present int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM snapshots WHERE country IN (`+placeholders(len(countries))+`)`, args...).Scan(&present)
	if err != nil {
		return nil, false, err
	}
	if present < len(countries) {
		return nil, false, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT year, country, partner, category, flow,
			value_usd_constant, value_usd_current, value_cad_constant, value_cad_current,
			value_eur_constant, value_eur_current, value_gbp_constant, value_gbp_current,
			pct_of_gdp
		FROM trade_records
		WHERE country IN (`+placeholders(len(countries))+`)
		ORDER BY country, partner, category, flow, year
	`, args...)
	if err != nil {
		return nil, false, err
	}
	defer rows.Close()

	records := make([]model.Record, 0)
	for rows.Next() {
		var (
			record model.Record
			flow   string
			values [9]sql.NullFloat64
		)
		if err := rows.Scan(
			&record.Year, &record.Country, &record.Partner, &record.Category, &flow,
			&values[0], &values[1], &values[2], &values[3],
			&values[4], &values[5], &values[6], &values[7],
			&values[8],
		); err != nil {
			return nil, false, err
		}
		record.Flow = model.Flow(flow)
		record.USD = model.Amounts{Constant: nullable(values[0]), Current: nullable(values[1])}
		record.CAD = model.Amounts{Constant: nullable(values[2]), Current: nullable(values[3])}
		record.EUR = model.Amounts{Constant: nullable(values[4]), Current: nullable(values[5])}
		record.GBP = model.Amounts{Constant: nullable(values[6]), Current: nullable(values[7])}
		record.PctOfGDP = nullable(values[8])
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, false, err
	}
	return records, true, nil
}

func (s *Store) ListCountries(ctx context.Context) ([]store.Snapshot, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT country, record_count, ingested_at FROM snapshots ORDER BY country`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var snapshots []store.Snapshot
	for rows.Next() {
		var snapshot store.Snapshot
		if err := rows.Scan(&snapshot.Country, &snapshot.Records, &snapshot.IngestedAt); err != nil {
			return nil, err
		}
		snapshots = append(snapshots, snapshot)
	}
	return snapshots, rows.Err()
}

func (s *Store) migrate() error {
	statements := []string{
		`PRAGMA foreign_keys = ON;`,
		`CREATE TABLE IF NOT EXISTS trade_records (
			country TEXT NOT NULL,
			partner TEXT NOT NULL,
			category TEXT NOT NULL,
			flow TEXT NOT NULL,
			year INTEGER NOT NULL,
			value_usd_constant REAL,
			value_usd_current REAL,
			value_cad_constant REAL,
			value_cad_current REAL,
			value_eur_constant REAL,
			value_eur_current REAL,
			value_gbp_constant REAL,
			value_gbp_current REAL,
			pct_of_gdp REAL,
			PRIMARY KEY (country, partner, category, flow, year)
		);`,
		`CREATE TABLE IF NOT EXISTS snapshots (
			country TEXT PRIMARY KEY,
			record_count INTEGER NOT NULL,
			ingested_at TEXT NOT NULL
		);`,
	}

	for _, statement := range statements {
		if _, err := s.db.Exec(statement); err != nil {
			return err
		}
	}

	return nil
}

func nullable(value sql.NullFloat64) *float64 {
	if !value.Valid {
		return nil
	}
	v := value.Float64
	return &v
}

func value(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

func placeholders(count int) string {
	if count <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", count), ", ")
}

var _ store.Store = (*Store)(nil)
