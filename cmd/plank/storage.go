package main

import (
	"fmt"
	"log/slog"

	"plank/internal/adapter/file"
	"plank/internal/adapter/memory"
	"plank/internal/adapter/postgres"
	"plank/internal/adapter/redis"
	"plank/internal/adapter/sqlite"
	"plank/internal/config"
	"plank/internal/domain"
)

// storage is an opened backend: the document store plus where login
// sessions live.
type storage struct {
	store    domain.KeyValueStore
	sessions domain.SessionRepository
}

func (s storage) Close() error {
	return s.store.Close()
}

// openStorage opens the configured backend. Only postgres persists login
// sessions; the other drivers keep them in memory.
func openStorage(cfg config.StorageConfig, logger *slog.Logger) (storage, error) {
	st, err := openBackend(cfg)
	if err != nil {
		return storage{}, err
	}
	logStorage(logger, cfg)
	return st, nil
}

func openBackend(cfg config.StorageConfig) (storage, error) {
	inMemorySessions := func() domain.SessionRepository { return memory.New().NewSessionRepo() }

	switch cfg.Driver {
	case config.DriverMemory:
		db := memory.New()
		return storage{store: db, sessions: db.NewSessionRepo()}, nil
	case config.DriverFile:
		st, err := file.Open(cfg.DataDir)
		if err != nil {
			return storage{}, fmt.Errorf("file store: %w", err)
		}
		return storage{store: st, sessions: inMemorySessions()}, nil
	case config.DriverSQLite:
		db, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return storage{}, fmt.Errorf("sqlite open: %w", err)
		}
		return storage{store: db, sessions: inMemorySessions()}, nil
	case config.DriverPostgres:
		db, err := postgres.Open(cfg.DatabaseURL)
		if err != nil {
			return storage{}, fmt.Errorf("db open: %w", err)
		}
		return storage{store: db, sessions: postgres.NewSessionRepo(db)}, nil
	case config.DriverRedis:
		st, err := redis.Open(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.Prefix)
		if err != nil {
			return storage{}, fmt.Errorf("redis open: %w", err)
		}
		return storage{store: st, sessions: inMemorySessions()}, nil
	default:
		return storage{}, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

func logStorage(logger *slog.Logger, cfg config.StorageConfig) {
	switch cfg.Driver {
	case config.DriverSQLite:
		logger.Info("storage opened", "driver", cfg.Driver, "path", cfg.SQLitePath)
	case config.DriverFile:
		logger.Info("storage opened", "driver", cfg.Driver, "dir", cfg.DataDir)
	case config.DriverRedis:
		logger.Info("storage opened", "driver", cfg.Driver, "addr", cfg.Redis.Addr)
	default:
		logger.Info("storage opened", "driver", cfg.Driver)
	}
}
