package cache

import (
	"context"
	"encoding/json"

	"github.com/kapu/bookmood-go/internal/domain"
	"github.com/kapu/bookmood-go/internal/service/database"
	"github.com/kapu/bookmood-go/pkg/errors"
	"go.uber.org/zap"
)

const createMoodCacheTable = `
CREATE TABLE IF NOT EXISTS mood_cache (
	cache_key  TEXT PRIMARY KEY,
	result     JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// PostgresStore persists the cache in a mood_cache table, one row per book
// key. Save replaces the table contents in a single transaction to keep
// the wholesale-rewrite semantics of the file layout.
type PostgresStore struct {
	pg     *database.PostgresService
	logger *zap.Logger
}

func NewPostgresStore(ctx context.Context, pg *database.PostgresService, logger *zap.Logger) (*PostgresStore, error) {
	if _, err := pg.GetDB().ExecContext(ctx, createMoodCacheTable); err != nil {
		return nil, errors.NewCacheError("failed to ensure mood_cache table", "init", "", err)
	}
	return &PostgresStore{pg: pg, logger: logger}, nil
}

func (s *PostgresStore) Load(ctx context.Context) (map[string]domain.MoodAnalysisResult, error) {
	rows, err := s.pg.GetDB().QueryContext(ctx, `SELECT cache_key, result FROM mood_cache`)
	if err != nil {
		return nil, errors.NewCacheError("load failed", "select", "mood_cache", err)
	}
	defer rows.Close()

	entries := make(map[string]domain.MoodAnalysisResult)
	for rows.Next() {
		var key string
		var raw []byte
		if err := rows.Scan(&key, &raw); err != nil {
			return nil, errors.NewCacheError("scan failed", "select", key, err)
		}

		var result domain.MoodAnalysisResult
		if err := json.Unmarshal(raw, &result); err != nil {
			s.logger.Warn("Skipping corrupt cache row", zap.String("key", key), zap.Error(err))
			continue
		}
		entries[key] = result
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewCacheError("load failed", "select", "mood_cache", err)
	}
	return entries, nil
}

func (s *PostgresStore) Save(ctx context.Context, entries map[string]domain.MoodAnalysisResult) error {
	tx, err := s.pg.GetDB().BeginTx(ctx, nil)
	if err != nil {
		return errors.NewCacheError("save failed", "begin", "mood_cache", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM mood_cache`); err != nil {
		return errors.NewCacheError("save failed", "delete", "mood_cache", err)
	}

	for key, result := range entries {
		data, err := json.Marshal(result)
		if err != nil {
			return errors.NewCacheError("marshal failed", "save", key, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO mood_cache (cache_key, result, updated_at) VALUES ($1, $2, now())`,
			key, data,
		); err != nil {
			return errors.NewCacheError("save failed", "insert", key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.NewCacheError("save failed", "commit", "mood_cache", err)
	}
	return nil
}
