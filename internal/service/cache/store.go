package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/kapu/bookmood-go/internal/domain"
)

// Store is the durable backing of the mood cache. Load runs once at
// startup; Save rewrites the full entry set after every write, matching the
// whole-entry replacement semantics of the cache.
type Store interface {
	Load(ctx context.Context) (map[string]domain.MoodAnalysisResult, error)
	Save(ctx context.Context, entries map[string]domain.MoodAnalysisResult) error
}

// FileStore keeps the whole cache in one JSON file, the default deployment
// layout. Saves go through a temp file and rename so a crash mid-write
// never truncates the existing cache.
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Load(_ context.Context) (map[string]domain.MoodAnalysisResult, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]domain.MoodAnalysisResult{}, nil
		}
		return nil, fmt.Errorf("failed to read cache file: %w", err)
	}

	entries := make(map[string]domain.MoodAnalysisResult)
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse cache file: %w", err)
	}
	return entries, nil
}

func (s *FileStore) Save(_ context.Context, entries map[string]domain.MoodAnalysisResult) error {
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal cache: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".mood_cache-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp cache file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write cache: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close cache file: %w", err)
	}

	return os.Rename(tmpName, s.path)
}

// MemoryStore is a volatile Store for tests and single-run tooling.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]domain.MoodAnalysisResult
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: map[string]domain.MoodAnalysisResult{}}
}

func (s *MemoryStore) Load(_ context.Context) (map[string]domain.MoodAnalysisResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]domain.MoodAnalysisResult, len(s.entries))
	for k, v := range s.entries {
		out[k] = v
	}
	return out, nil
}

func (s *MemoryStore) Save(_ context.Context, entries map[string]domain.MoodAnalysisResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = make(map[string]domain.MoodAnalysisResult, len(entries))
	for k, v := range entries {
		s.entries[k] = v
	}
	return nil
}
