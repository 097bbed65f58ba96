package cache

import (
	"context"
	"sync"

	"github.com/kapu/bookmood-go/internal/domain"
	"github.com/kapu/bookmood-go/internal/util"
	"github.com/kapu/bookmood-go/pkg/errors"
	"go.uber.org/zap"
)

// Service is the process-scoped mood-result cache: an in-memory map keyed
// by normalized (title, author), flushed wholesale to the Store after every
// write. Durability is best-effort; correctness of returned results never
// depends on it.
type Service struct {
	store   Store
	mu      sync.RWMutex
	entries map[string]domain.MoodAnalysisResult
	logger  *zap.Logger
}

// NewService loads the backing store eagerly. A load failure is demoted to
// an empty cache with a warning; it is never fatal.
func NewService(ctx context.Context, store Store, logger *zap.Logger) *Service {
	entries, err := store.Load(ctx)
	if err != nil {
		logger.Warn("Cache load failed, starting empty", zap.Error(err))
		entries = map[string]domain.MoodAnalysisResult{}
	}

	logger.Info("Mood cache loaded", zap.Int("entries", len(entries)))

	return &Service{
		store:   store,
		entries: entries,
		logger:  logger,
	}
}

// Key normalizes (title, author) into the cache key: case-folded, trimmed,
// pipe-joined.
func Key(title, author string) string {
	return util.Normalize(title) + "|" + util.Normalize(author)
}

func (s *Service) Get(title, author string) (*domain.MoodAnalysisResult, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result, ok := s.entries[Key(title, author)]
	if !ok {
		return nil, false
	}
	return &result, true
}

// Put stores a successful result, replacing any previous entry wholesale,
// and flushes the store. Unsuccessful results are rejected so failures stay
// retryable. A flush failure is logged, not returned: the in-memory entry
// stands either way.
func (s *Service) Put(ctx context.Context, title, author string, result domain.MoodAnalysisResult) error {
	if !result.Success {
		return errors.NewCacheError("refusing to cache unsuccessful analysis", "put", Key(title, author), nil)
	}

	key := Key(title, author)

	s.mu.Lock()
	s.entries[key] = result
	snapshot := make(map[string]domain.MoodAnalysisResult, len(s.entries))
	for k, v := range s.entries {
		snapshot[k] = v
	}
	s.mu.Unlock()

	if err := s.store.Save(ctx, snapshot); err != nil {
		s.logger.Error("Cache save failed", zap.String("key", key), zap.Error(err))
	}

	return nil
}

func (s *Service) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
