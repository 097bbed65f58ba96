package app

import (
	"context"
	"fmt"

	"github.com/kapu/bookmood-go/internal/config"
	"github.com/kapu/bookmood-go/internal/service"
	"github.com/kapu/bookmood-go/internal/service/cache"
	"github.com/kapu/bookmood-go/internal/service/database"
	"github.com/kapu/bookmood-go/pkg/errors"
	"go.uber.org/zap"
)

// Container bundles the assembled pipeline and the resources it owns.
type Container struct {
	Config   *config.Config
	Logger   *zap.Logger
	Pipeline *service.Pipeline

	closers []func()
}

func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
}

// Build assembles all services. All heavy-weight initialization (store
// connections, cache load) happens here so the pipeline itself stays free
// of wiring concerns.
func Build(ctx context.Context, cfg *config.Config, logger *zap.Logger) (container *Container, err error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger must not be nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	var closers []func()
	defer func() {
		if err != nil {
			for i := len(closers) - 1; i >= 0; i-- {
				closers[i]()
			}
		}
	}()

	store, storeClosers, err := buildStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	closers = append(closers, storeClosers...)

	cacheSvc := cache.NewService(ctx, store, logger)

	collector := service.NewCollectorService(cfg.Goodreads, nil, logger)
	sentiment := service.NewSentimentService(logger)
	moods := service.NewMoodExtractor(cfg.Analysis, logger)
	analyzer := service.NewAnalyzerService(sentiment, moods, cfg.Analysis, nil, logger)
	pipeline := service.NewPipeline(collector, analyzer, cacheSvc, cfg.Goodreads.MaxReviews, logger)

	logger.Info("Pipeline assembled",
		zap.String("cache_backend", cfg.Cache.Backend),
		zap.String("source", cfg.Goodreads.BaseURL),
	)

	return &Container{
		Config:   cfg,
		Logger:   logger,
		Pipeline: pipeline,
		closers:  closers,
	}, nil
}

func buildStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (cache.Store, []func(), error) {
	switch cfg.Cache.Backend {
	case "file":
		return cache.NewFileStore(cfg.Cache.FilePath), nil, nil

	case "memory":
		return cache.NewMemoryStore(), nil, nil

	case "redis":
		store, err := cache.NewRedisStore(cfg.Cache.Redis, logger)
		if err != nil {
			return nil, nil, errors.NewServiceError("failed to create redis store", "cache", "init", err)
		}
		return store, []func(){func() { _ = store.Close() }}, nil

	case "postgres":
		pg, err := database.NewPostgresService(cfg.Cache.Postgres, logger)
		if err != nil {
			return nil, nil, errors.NewServiceError("failed to connect to postgres", "database", "init", err)
		}
		store, err := cache.NewPostgresStore(ctx, pg, logger)
		if err != nil {
			pg.Close()
			return nil, nil, errors.NewServiceError("failed to create postgres store", "cache", "init", err)
		}
		return store, []func(){func() { _ = pg.Close() }}, nil

	default:
		return nil, nil, errors.NewServiceError(
			fmt.Sprintf("unknown cache backend: %s", cfg.Cache.Backend), "cache", "init", nil)
	}
}
