package query

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"

	"tradeexplorer/internal/metrics"
)

const DefaultHTTPTimeout = 120 * time.Second

var ErrQuery = errors.New("query: execution failed")

// Error carries the statement that the engine rejected.
type Error struct {
	SQL string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("query: %v", e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	return target == ErrQuery
}

// Runner executes an analytic statement and returns column-keyed rows.
type Runner interface {
	Run(ctx context.Context, statement string) ([]map[string]any, error)
}

type Config struct {
	// Path of the database file; empty keeps the database in memory.
	Path        string
	HTTPTimeout time.Duration
}

// DuckDB runs statements on an embedded DuckDB able to read remote parquet.
type DuckDB struct {
	db     *sql.DB
	logger *slog.Logger
}

func Open(ctx context.Context, cfg Config, logger *slog.Logger) (*DuckDB, error) {
	if cfg.HTTPTimeout <= 0 {
		cfg.HTTPTimeout = DefaultHTTPTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}

	db, err := sql.Open("duckdb", cfg.Path)
	if err != nil {
		return nil, err
	}
	// settings below are per connection
	db.SetMaxOpenConns(1)

	engine := &DuckDB{db: db, logger: logger.With("component", "query")}
	if err := engine.configure(ctx, cfg); err != nil {
		_ = db.Close()
		return nil, err
	}
	return engine, nil
}

func (d *DuckDB) configure(ctx context.Context, cfg Config) error {
	d.tryConfigure(ctx, "INSTALL httpfs;")
	for _, statement := range []string{"LOAD parquet;", "LOAD httpfs;"} {
		if _, err := d.db.ExecContext(ctx, statement); err != nil {
			return fmt.Errorf("query: %s: %w", statement, err)
		}
	}
	d.tryConfigure(ctx, "SET enable_http_metadata_cache = true;")
	d.tryConfigure(ctx, "SET enable_object_cache = true;")
	d.tryConfigure(ctx, fmt.Sprintf("SET http_timeout = %d;", int(cfg.HTTPTimeout.Seconds())))
	return nil
}

func (d *DuckDB) tryConfigure(ctx context.Context, statement string) {
	if _, err := d.db.ExecContext(ctx, statement); err != nil {
		d.logger.Warn("duckdb config skipped", "sql", statement, "error", err)
	}
}

func (d *DuckDB) Close() error {
	if d == nil || d.db == nil {
		return nil
	}
	return d.db.Close()
}

func (d *DuckDB) Run(ctx context.Context, statement string) ([]map[string]any, error) {
	start := time.Now()
	out, err := d.run(ctx, statement)
	metrics.QueryDuration.WithLabelValues(metrics.Result(err)).Observe(time.Since(start).Seconds())
	if err != nil {
		d.logger.Error("duckdb query failed", "sql", statement, "error", err)
		return nil, &Error{SQL: statement, Err: err}
	}
	d.logger.Debug("duckdb query finished", "rows", len(out), "dur_ms", time.Since(start).Milliseconds())
	return out, nil
}

func (d *DuckDB) run(ctx context.Context, statement string) ([]map[string]any, error) {
	rows, err := d.db.QueryContext(ctx, statement)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var out []map[string]any
	values := make([]any, len(columns))
	pointers := make([]any, len(columns))
	for i := range values {
		pointers[i] = &values[i]
	}
	for rows.Next() {
		if err := rows.Scan(pointers...); err != nil {
			return nil, err
		}
		row := make(map[string]any, len(columns))
		for i, column := range columns {
			row[column] = values[i]
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

var _ Runner = (*DuckDB)(nil)
