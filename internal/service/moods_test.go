package service

import (
	"testing"

	"github.com/kapu/bookmood-go/internal/config"
	"github.com/kapu/bookmood-go/internal/domain"
	"go.uber.org/zap"
)

func testAnalysisConfig() config.AnalysisConfig {
	return config.AnalysisConfig{
		MinReviews:          3,
		ConfidenceThreshold: 0.1,
		MinWordFrequency:    2,
		MaxMoodCategories:   5,
		SentimentWeight:     0.7,
		KeywordWeight:       0.3,
		VibeSelection:       "deterministic",
	}
}

func reviewsFromTexts(texts ...string) []domain.Review {
	reviews := make([]domain.Review, 0, len(texts))
	for _, text := range texts {
		reviews = append(reviews, domain.NewReview(text, nil, 0))
	}
	return reviews
}

func TestExtractMoodsEmptyInput(t *testing.T) {
	extractor := NewMoodExtractor(testAnalysisConfig(), zap.NewNop())

	moods := extractor.ExtractMoods(nil)
	if len(moods) != 0 {
		t.Fatalf("expected empty mood map for empty input, got %v", moods)
	}
}

func TestExtractMoodsDiscoversBuckets(t *testing.T) {
	extractor := NewMoodExtractor(testAnalysisConfig(), zap.NewNop())

	// "haunting" and "twisted" each appear twice, collecting a suffix
	// weight of 2 and clustering under "dark"; "wonderful" and "loved"
	// do the same for "uplifting".
	reviews := reviewsFromTexts(
		"A haunting tale with a twisted plot, haunting in its imagery and twisted to the very end.",
		"Simply wonderful. I loved the characters and loved the wonderful little town they live in.",
	)

	moods := extractor.ExtractMoods(reviews)

	if _, ok := moods["dark"]; !ok {
		t.Fatalf("expected 'dark' bucket, got %v", moods)
	}
	if _, ok := moods["uplifting"]; !ok {
		t.Fatalf("expected 'uplifting' bucket, got %v", moods)
	}

	for mood, confidence := range moods {
		if confidence <= 0 || confidence > 1 {
			t.Fatalf("confidence out of range for %q: %v", mood, confidence)
		}
	}
}

func TestExtractMoodsDropsSingleTokenClusters(t *testing.T) {
	extractor := NewMoodExtractor(testAnalysisConfig(), zap.NewNop())

	// "gripping" passes the weight filter on its own (seed +2, suffix +1)
	// but is the only token pointing at "intense", so the cluster dies.
	reviews := reviewsFromTexts(
		"A gripping story from the first page onwards, it held me all night.",
	)

	moods := extractor.ExtractMoods(reviews)
	if _, ok := moods["intense"]; ok {
		t.Fatalf("single-token cluster should be dropped, got %v", moods)
	}
}

func TestExtractMoodsFirstMatchingRuleWins(t *testing.T) {
	extractor := NewMoodExtractor(testAnalysisConfig(), zap.NewNop())

	// "loved" contains "love", an indicator of both "uplifting" and
	// "romantic"; declaration order sends it to "uplifting".
	reviews := reviewsFromTexts(
		"I loved it, truly loved it. Wonderful writing and a wonderful cast.",
	)

	moods := extractor.ExtractMoods(reviews)
	if _, ok := moods["romantic"]; ok {
		t.Fatalf("'loved' must cluster under the earlier rule, got %v", moods)
	}
	if _, ok := moods["uplifting"]; !ok {
		t.Fatalf("expected 'uplifting' bucket, got %v", moods)
	}
}

func TestExtractMoodsCustomRuleTable(t *testing.T) {
	extractor := NewMoodExtractor(testAnalysisConfig(), zap.NewNop())
	extractor.rules = []MoodRule{
		{Name: "nautical", Indicators: []string{"sea"}},
	}

	reviews := reviewsFromTexts(
		"A seafaring adventure: searching and seafaring across endless searching seas.",
	)

	moods := extractor.ExtractMoods(reviews)
	if _, ok := moods["nautical"]; !ok {
		t.Fatalf("expected custom 'nautical' bucket, got %v", moods)
	}
}

func TestEmotionalWeightsHyphenatedSeed(t *testing.T) {
	extractor := NewMoodExtractor(testAnalysisConfig(), zap.NewNop())

	// Seed membership (+2) and the -ing suffix (+1) per occurrence.
	tokens := tokenizeWords("a thought-provoking and thought-provoking essay")
	weights := extractor.emotionalWeights(tokens)
	if got := weights["thought-provoking"]; got != 6 {
		t.Fatalf("expected weight 6 for hyphenated seed, got %d (weights %v)", got, weights)
	}
}

func TestExtractMoodsCapsCategories(t *testing.T) {
	cfg := testAnalysisConfig()
	cfg.MaxMoodCategories = 1
	extractor := NewMoodExtractor(cfg, zap.NewNop())

	reviews := reviewsFromTexts(
		"A haunting tale with a twisted plot, haunting in its imagery and twisted to the very end.",
		"Simply wonderful. I loved the characters and loved the wonderful little town they live in.",
	)

	moods := extractor.ExtractMoods(reviews)
	if len(moods) > 1 {
		t.Fatalf("expected at most 1 mood category, got %v", moods)
	}
}
