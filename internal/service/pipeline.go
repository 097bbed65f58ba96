package service

import (
	"context"
	"strings"

	"github.com/kapu/bookmood-go/internal/domain"
	"github.com/kapu/bookmood-go/internal/service/cache"
	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"
)

// ReviewFinder is the collection dependency of the pipeline; satisfied by
// CollectorService and by fakes in tests.
type ReviewFinder interface {
	FindReviews(ctx context.Context, title, author string, maxReviews int) ([]domain.Review, error)
}

// Pipeline wires collection, analysis and caching into the single inbound
// operation: analyze the mood of one book.
type Pipeline struct {
	collector  ReviewFinder
	analyzer   *AnalyzerService
	cache      *cache.Service
	maxReviews int
	logger     *zap.Logger
}

func NewPipeline(collector ReviewFinder, analyzer *AnalyzerService, cacheSvc *cache.Service, maxReviews int, logger *zap.Logger) *Pipeline {
	return &Pipeline{
		collector:  collector,
		analyzer:   analyzer,
		cache:      cacheSvc,
		maxReviews: maxReviews,
		logger:     logger,
	}
}

// AnalyzeBookMood returns the cached or freshly computed mood result.
// (nil, nil) means the book could not be located; an error means the title
// was blank or the source was unreachable after retries. Failed analyses
// are returned but never cached, so the next request retries them.
func (p *Pipeline) AnalyzeBookMood(ctx context.Context, title, author string) (*domain.MoodAnalysisResult, error) {
	if cached, ok := p.cache.Get(title, author); ok {
		p.logger.Info("Using cached mood analysis", zap.String("title", title))
		return cached, nil
	}

	reviews, err := p.collector.FindReviews(ctx, title, author, p.maxReviews)
	if err != nil {
		return nil, err
	}
	if len(reviews) == 0 {
		p.logger.Warn("No reviews found",
			zap.String("title", title),
			zap.String("author", author),
		)
		return nil, nil
	}

	result := p.analyzer.Analyze(reviews)
	if result.Success {
		if err := p.cache.Put(ctx, title, author, result); err != nil {
			p.logger.Warn("Skipping cache write", zap.Error(err))
		}
	}

	return &result, nil
}

// MoodTags returns up to the top 3 mood names for a book, or nil when no
// analysis is available.
func (p *Pipeline) MoodTags(ctx context.Context, title, author string) ([]string, error) {
	result, err := p.AnalyzeBookMood(ctx, title, author)
	if err != nil {
		return nil, err
	}
	if result == nil || !result.Success {
		return nil, nil
	}

	limit := min(3, len(result.PrimaryMoods))
	tags := make([]string, 0, limit)
	for _, mood := range result.PrimaryMoods[:limit] {
		tags = append(tags, mood.Mood)
	}
	return tags, nil
}

// VibeForBook prefers the analyzed vibe line and falls back to a phrase
// derived from the book description when no analysis is available.
func (p *Pipeline) VibeForBook(ctx context.Context, title, author, description string) string {
	if title != "" && author != "" {
		result, err := p.AnalyzeBookMood(ctx, title, author)
		if err == nil && result != nil && result.Success && result.VibeLine != "" {
			return result.VibeLine
		}
		if err != nil {
			p.logger.Warn("Vibe analysis unavailable, using description fallback", zap.Error(err))
		}
	}

	return describeByDescription(description)
}

func describeByDescription(description string) string {
	switch {
	case len(description) > 200:
		return "A deep, complex narrative that readers find emotionally resonant."
	case len(description) > 100:
		return "A compelling story with layers waiting to be discovered."
	case strings.Contains(strings.ToLower(description), "mystery"):
		return "A mysterious tale that will keep you guessing."
	case strings.Contains(strings.ToLower(description), "romance"):
		return "A heartwarming story perfect for cozy reading."
	default:
		return "A delightful read for any quiet moment."
	}
}

type BookQuery struct {
	Title  string
	Author string
}

type BatchResult struct {
	Query  BookQuery
	Result *domain.MoodAnalysisResult
	Err    error
}

// AnalyzeBatch runs several analyses with a worker pool capped at one
// goroutine: outbound requests to the review source must never overlap, but
// cached books still short-circuit without touching the network.
func (p *Pipeline) AnalyzeBatch(ctx context.Context, queries []BookQuery) []BatchResult {
	results := make([]BatchResult, len(queries))

	workers := pool.New().WithMaxGoroutines(1)
	for i, query := range queries {
		workers.Go(func() {
			result, err := p.AnalyzeBookMood(ctx, query.Title, query.Author)
			results[i] = BatchResult{Query: query, Result: result, Err: err}
		})
	}
	workers.Wait()

	return results
}
