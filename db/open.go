package db

import (
	"context"
	"fmt"

	"bookcatalog/config"
	"bookcatalog/models"
)

// Open connects the record store selected by cfg.Backend. The caller owns
// the returned library and must Close it.
func Open(ctx context.Context, cfg config.Store) (models.Library, error) {
	switch cfg.Backend {
	case config.BackendElastic:
		client, err := config.SetupElasticSearch(cfg.ElasticURL)
		if err != nil {
			return nil, fmt.Errorf("connect elasticsearch: %w", err)
		}
		indexName := cfg.Index
		if indexName == "" {
			indexName = INDEX_NAME
		}
		library, err := NewElasticLibrary(ctx, client, indexName)
		if err != nil {
			client.Stop()
			return nil, err
		}
		return library, nil

	case config.BackendSQLite:
		sqlDB, err := config.SetupSQLite(ctx, cfg.SQLDSN)
		if err != nil {
			return nil, err
		}
		library, err := NewSQLLibrary(ctx, sqlDB, DialectSQLite)
		if err != nil {
			sqlDB.Close()
			return nil, err
		}
		return library, nil

	case config.BackendPostgres:
		sqlDB, err := config.SetupPostgres(ctx, cfg.SQLDSN)
		if err != nil {
			return nil, err
		}
		library, err := NewSQLLibrary(ctx, sqlDB, DialectPostgres)
		if err != nil {
			sqlDB.Close()
			return nil, err
		}
		return library, nil

	case config.BackendMemory:
		if cfg.SnapshotPath == "" {
			return NewMemoryLibrary(), nil
		}
		library, err := OpenMemoryLibrary(cfg.SnapshotPath)
		if err != nil {
			return nil, err
		}
		return library, nil
	}

	return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
}
