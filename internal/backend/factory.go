// Package backend builds the expense store selected by configuration.
package backend

import (
	"context"
	"fmt"
	"log/slog"

	"expensetracker/internal/config"
	"expensetracker/internal/storage"
	"expensetracker/internal/storage/postgres"
	"expensetracker/internal/store"
	"expensetracker/internal/store/memory"
)

// Type names a storage backend.
type Type string

const (
	MemoryBackend   Type = config.BackendMemory
	SQLiteBackend   Type = config.BackendSQLite
	PostgresBackend Type = config.BackendPostgres
)

func (t Type) IsValid() bool {
	switch t {
	case MemoryBackend, SQLiteBackend, PostgresBackend:
		return true
	}
	return false
}

func (t Type) String() string {
	return string(t)
}

// Types returns every supported backend.
func Types() []Type {
	return []Type{MemoryBackend, SQLiteBackend, PostgresBackend}
}

// Config holds what the factory needs to open a store.
type Config struct {
	Type         Type
	SQLiteDBPath string
	PostgresURL  string
}

// FromAppConfig extracts the storage settings from the application config.
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}
	cfg := Config{
		Type:         Type(appConfig.DataBackend),
		SQLiteDBPath: appConfig.SQLiteDBPath,
		PostgresURL:  appConfig.PostgresURL,
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	switch c.Type {
	case MemoryBackend:
	case SQLiteBackend:
		if c.SQLiteDBPath == "" {
			return fmt.Errorf("SQLite database path is required for sqlite backend")
		}
	case PostgresBackend:
		if c.PostgresURL == "" {
			return fmt.Errorf("postgres URL is required for postgres backend")
		}
	default:
		return fmt.Errorf("invalid backend type: %s", c.Type)
	}
	return nil
}

// Open creates the configured store. The caller owns it and must Close it.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (store.Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	switch cfg.Type {
	case SQLiteBackend:
		repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("initialize SQLite repository: %w", err)
		}
		logger.Info("Initialized SQLite backend", "db_path", cfg.SQLiteDBPath)
		return repo, nil
	case PostgresBackend:
		repo, err := postgres.Connect(ctx, cfg.PostgresURL)
		if err != nil {
			return nil, fmt.Errorf("initialize postgres repository: %w", err)
		}
		logger.Info("Initialized Postgres backend")
		return repo, nil
	default:
		logger.Info("Initialized memory backend")
		return memory.New(), nil
	}
}
