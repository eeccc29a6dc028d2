// Package bootstrap opens the store and cache selected by configuration.
package bootstrap

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"quiz-master/internal/config"
	"quiz-master/internal/quiz"
	"quiz-master/internal/quiz/postgres"
	"quiz-master/internal/quiz/rediscache"
	"quiz-master/internal/quiz/sqlite"
)

// Store is a repository that can report its health.
type Store interface {
	quiz.Repository
	Ping(ctx context.Context) error
}

// OpenStore returns the configured store and a function releasing it.
func OpenStore(ctx context.Context, cfg config.Store, logger *zap.Logger) (Store, func(), error) {
	switch cfg.Driver {
	case config.DriverSQLite:
		store, err := sqlite.NewSQLiteStore(cfg.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite store: %w", err)
		}
		logger.Info("using sqlite store", zap.String("path", cfg.SQLitePath))
		return store, func() {
			if err := store.Close(); err != nil {
				logger.Warn("close sqlite store", zap.Error(err))
			}
		}, nil

	case config.DriverPostgres:
		pool, err := postgres.NewPool(ctx, cfg.PostgresURL, postgres.PoolConfig{
			MaxConns:        cfg.MaxConns,
			MaxConnLifetime: cfg.MaxConnLifetime,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("open postgres pool: %w", err)
		}
		store, err := postgres.NewStore(ctx, pool)
		if err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("init postgres store: %w", err)
		}
		logger.Info("using postgres store", zap.Int32("max_conns", cfg.MaxConns))
		return store, pool.Close, nil

	default:
		return nil, nil, fmt.Errorf("%w: %q", config.ErrUnknownStoreDriver, cfg.Driver)
	}
}

// OpenCache returns Redis when a URL is configured, otherwise an in-process
// cache.
func OpenCache(ctx context.Context, cfg config.Cache, logger *zap.Logger) (quiz.Cache, func(), error) {
	if cfg.RedisURL == "" {
		logger.Info("using in-process cache", zap.Duration("ttl", cfg.TTL))
		return quiz.NewMemoryCache(cfg.TTL), func() {}, nil
	}

	cache, err := rediscache.Connect(ctx, cfg.RedisURL, cfg.TTL)
	if err != nil {
		return nil, nil, fmt.Errorf("connect redis: %w", err)
	}
	logger.Info("using redis cache", zap.Duration("ttl", cfg.TTL))
	return cache, func() {
		if err := cache.Close(); err != nil {
			logger.Warn("close redis", zap.Error(err))
		}
	}, nil
}
