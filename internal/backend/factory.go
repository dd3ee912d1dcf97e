package backend

import (
	"context"
	"fmt"
	"log/slog"

	"contable/internal/storage"
	"contable/internal/storage/redis"
	"contable/internal/storage/sqlite"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{logger: logger}
}

// CreateBackend opens the configured key-value store and wraps it in a
// collection repository.
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var (
		kv  storage.KV
		err error
	)
	switch config.Type {
	case SQLiteBackend:
		kv, err = f.createSQLiteKV(config)
	case RedisBackend:
		kv, err = f.createRedisKV(ctx, config)
	case MemoryBackend:
		kv = f.createMemoryKV()
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
	if err != nil {
		return nil, err
	}

	repo := storage.NewRepository(kv, config.KeyPrefix, f.logger)
	return &BackendResult{
		Repository: repo,
		Cleanup:    repo.Close,
	}, nil
}

func (f *DefaultFactory) createSQLiteKV(config Config) (storage.KV, error) {
	kv, err := sqlite.Open(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite backend: %w", err)
	}
	f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)
	return kv, nil
}

func (f *DefaultFactory) createRedisKV(ctx context.Context, config Config) (storage.KV, error) {
	kv, err := redis.Dial(ctx, config.RedisAddr, config.RedisPassword, config.RedisDB)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Redis backend: %w", err)
	}
	f.logger.Info("Initialized Redis backend", "addr", config.RedisAddr, "db", config.RedisDB)
	return kv, nil
}

func (f *DefaultFactory) createMemoryKV() storage.KV {
	f.logger.Warn("Initialized memory backend, data is lost on restart")
	return storage.NewMemoryKV()
}
