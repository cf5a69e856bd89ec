package main

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/student-bot/backend/internal/cache"
	rediscache "github.com/student-bot/backend/internal/cache/redis"
	"github.com/student-bot/backend/internal/extract"
	"github.com/student-bot/backend/internal/query"
	"github.com/student-bot/backend/internal/storage/sqlite"
	"github.com/student-bot/backend/pkg/config"
	"github.com/student-bot/backend/pkg/logger"
	"github.com/student-bot/backend/pkg/retry"
)

// runtime holds the long-lived pieces shared by every subcommand.
type runtime struct {
	db      *sqlite.Client
	engine  *query.Engine
	closers []func() error
}

func openStore(cfg *config.Config) (*sqlite.Client, error) {
	db, err := sqlite.NewClient(cfg.SQLite.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to create SQLite client: %w", err)
	}
	if err := db.InitSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return db, nil
}

func bootstrap(ctx context.Context, cfg *config.Config) (*runtime, error) {
	db, err := openStore(cfg)
	if err != nil {
		return nil, err
	}

	rt := &runtime{db: db}

	responseCache, err := rt.buildCache(ctx, cfg)
	if err != nil {
		db.Close()
		return nil, err
	}

	var recognizer extract.Recognizer
	if cfg.NLP.Enabled {
		recognizer = extract.NewProseRecognizer()
	}

	rt.engine = query.NewEngine(db, query.Options{
		Extractor:         extract.NewExtractor(recognizer),
		Cache:             responseCache,
		StrictStoreErrors: cfg.Query.StrictStoreErrors,
	})

	return rt, nil
}

func (rt *runtime) buildCache(ctx context.Context, cfg *config.Config) (cache.Cache, error) {
	switch cfg.Cache.Backend {
	case "lru":
		c, err := cache.NewLRU(cfg.Cache.Size)
		if err != nil {
			return nil, fmt.Errorf("failed to create LRU cache: %w", err)
		}
		return c, nil
	case "redis":
		policy := retry.DefaultPolicy()
		policy.MaxAttempts = cfg.Redis.ConnectRetries
		policy.Logger = logger.GetLogger()

		c, err := rediscache.NewClient(ctx,
			cfg.Redis.Host,
			cfg.Redis.Port,
			cfg.Redis.Password,
			cfg.Redis.DB,
			time.Duration(cfg.Redis.TTLSeconds)*time.Second,
			policy,
		)
		if err != nil {
			return nil, err
		}
		rt.closers = append(rt.closers, c.Close)
		return c, nil
	default:
		return cache.NewUnbounded(), nil
	}
}

// Close releases the cache and then the store.
func (rt *runtime) Close() {
	for _, closeFn := range rt.closers {
		if err := closeFn(); err != nil {
			logger.Warn("Failed to close resource", zap.Error(err))
		}
	}
	if err := rt.engine.Close(); err != nil {
		logger.Warn("Failed to close store", zap.Error(err))
	}
}
