package app

import (
	"context"
	goerrors "errors"
	"testing"

	"github.com/kapu/bookmood-go/internal/config"
	pkgerrors "github.com/kapu/bookmood-go/pkg/errors"
	"go.uber.org/zap"
)

func testConfig() *config.Config {
	return &config.Config{
		Goodreads: config.GoodreadsConfig{
			BaseURL:    "https://example.com",
			MaxReviews: 15,
		},
		Analysis: config.AnalysisConfig{
			MinReviews:          3,
			ConfidenceThreshold: 0.1,
			MinWordFrequency:    2,
			MaxMoodCategories:   5,
			VibeSelection:       "random",
		},
		Cache: config.CacheConfig{Backend: "memory"},
	}
}

func TestBuildMemoryBackend(t *testing.T) {
	container, err := Build(context.Background(), testConfig(), zap.NewNop())
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	defer container.Close()

	if container.Pipeline == nil {
		t.Fatal("expected assembled pipeline")
	}
	if container.Config == nil || container.Logger == nil {
		t.Fatal("expected config and logger on the container")
	}
}

func TestBuildUnknownBackend(t *testing.T) {
	cfg := testConfig()
	cfg.Cache.Backend = "dynamo"

	_, err := Build(context.Background(), cfg, zap.NewNop())
	if err == nil {
		t.Fatal("expected error for unknown cache backend")
	}

	var svcErr *pkgerrors.ServiceError
	if !goerrors.As(err, &svcErr) {
		t.Fatalf("expected ServiceError, got %T: %v", err, err)
	}
}

func TestBuildNilConfig(t *testing.T) {
	if _, err := Build(context.Background(), nil, zap.NewNop()); err == nil {
		t.Fatal("expected error for nil config")
	}
}
