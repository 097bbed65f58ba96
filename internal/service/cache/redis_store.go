package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/kapu/bookmood-go/internal/config"
	"github.com/kapu/bookmood-go/internal/domain"
	"github.com/kapu/bookmood-go/pkg/errors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const moodHashKey = "bookmood:results"

// RedisStore keeps the cache in a single Redis hash, one field per book
// key. Entries never expire; re-analysis overwrites the field.
type RedisStore struct {
	client *redis.Client
	logger *zap.Logger
}

func NewRedisStore(cfg config.RedisConfig, logger *zap.Logger) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password:     cfg.Password,
		DB:           cfg.DB,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, errors.NewCacheError("failed to connect to Redis", "ping", "", err)
	}

	logger.Info("Redis connected",
		zap.String("addr", fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)),
		zap.Int("db", cfg.DB),
	)

	return &RedisStore{client: client, logger: logger}, nil
}

func (s *RedisStore) Load(ctx context.Context) (map[string]domain.MoodAnalysisResult, error) {
	fields, err := s.client.HGetAll(ctx, moodHashKey).Result()
	if err != nil {
		return nil, errors.NewCacheError("load failed", "hgetall", moodHashKey, err)
	}

	entries := make(map[string]domain.MoodAnalysisResult, len(fields))
	for key, raw := range fields {
		var result domain.MoodAnalysisResult
		if err := json.Unmarshal([]byte(raw), &result); err != nil {
			s.logger.Warn("Skipping corrupt cache entry", zap.String("key", key), zap.Error(err))
			continue
		}
		entries[key] = result
	}
	return entries, nil
}

func (s *RedisStore) Save(ctx context.Context, entries map[string]domain.MoodAnalysisResult) error {
	fields := make(map[string]any, len(entries))
	for key, result := range entries {
		data, err := json.Marshal(result)
		if err != nil {
			return errors.NewCacheError("marshal failed", "save", key, err)
		}
		fields[key] = data
	}

	pipe := s.client.TxPipeline()
	pipe.Del(ctx, moodHashKey)
	if len(fields) > 0 {
		pipe.HSet(ctx, moodHashKey, fields)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return errors.NewCacheError("save failed", "hset", moodHashKey, err)
	}
	return nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
