// Package app assembles the explorer from configuration.
package app

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"tradeexplorer/internal/config"
	"tradeexplorer/internal/dataset"
	"tradeexplorer/internal/explorer"
	"tradeexplorer/internal/partition"
	"tradeexplorer/internal/query"
	"tradeexplorer/internal/store"
	"tradeexplorer/internal/store/sqlite"
)

type App struct {
	Locator  *partition.Locator
	Engine   *query.DuckDB
	Store    store.Store
	Data     *dataset.Cache
	Explorer *explorer.Service
}

func Open(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	locator, err := partition.NewWithConfig(cfg.Partition, logger)
	if err != nil {
		return nil, err
	}
	engine, err := query.Open(ctx, cfg.Query, logger)
	if err != nil {
		locator.Close()
		return nil, err
	}
	snapshots, err := OpenStore(cfg.StorePath)
	if err != nil {
		locator.Close()
		_ = engine.Close()
		return nil, err
	}

	data := dataset.New(locator, engine, snapshots, logger)
	return &App{
		Locator:  locator,
		Engine:   engine,
		Store:    snapshots,
		Data:     data,
		Explorer: explorer.New(data, logger),
	}, nil
}

func (a *App) Close() error {
	a.Locator.Close()
	return errors.Join(a.Engine.Close(), a.Store.Close())
}

// OpenStore opens the sqlite snapshot tier at path, or a no-op store when
// path is empty.
func OpenStore(path string) (store.Store, error) {
	if strings.TrimSpace(path) == "" {
		return &store.NopStore{}, nil
	}
	return sqlite.New(path)
}
