package service

import (
	"math"
	"strings"

	"github.com/jonreiter/govader"
	"github.com/kapu/bookmood-go/internal/domain"
	"github.com/kapu/bookmood-go/internal/util"
	"go.uber.org/zap"
)

// SentimentService scores review text with a two-estimator ensemble: the
// VADER lexicon analyzer and an independent pattern estimator. Either one
// alone is unreliable on short informal review text; agreement between the
// two differently-biased methods acts as a proxy for trustworthiness.
type SentimentService struct {
	analyzer *govader.SentimentIntensityAnalyzer
	pattern  *patternEstimator
	logger   *zap.Logger
}

func NewSentimentService(logger *zap.Logger) *SentimentService {
	return &SentimentService{
		analyzer: govader.NewSentimentIntensityAnalyzer(),
		pattern:  newPatternEstimator(),
		logger:   logger,
	}
}

// Score never fails: empty or garbled text yields a neutral zero-confidence
// score so that one malformed review cannot abort a batch analysis.
func (s *SentimentService) Score(text string) domain.SentimentScore {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return domain.NeutralSentiment()
	}

	vader := s.analyzer.PolarityScores(trimmed)
	polarity, subjectivity := s.pattern.Assess(trimmed)

	return domain.SentimentScore{
		Compound:     vader.Compound,
		Positive:     vader.Positive,
		Negative:     vader.Negative,
		Neutral:      vader.Neutral,
		Polarity:     polarity,
		Subjectivity: subjectivity,
		Confidence:   sentimentConfidence(vader.Compound, polarity),
		TextLength:   len(trimmed),
		WordCount:    util.CountWords(trimmed),
	}
}

// sentimentConfidence blends estimator agreement with score extremity:
// 0.6*agreement + 0.4*extremity, capped at 1. Agreement is 1 when both
// estimators coincide and 0 when maximally opposed; extremity rewards
// strongly-opinionated text over neutral text.
func sentimentConfidence(compound, polarity float64) float64 {
	agreement := 1 - math.Abs(compound-polarity)/2
	extremity := math.Max(math.Abs(compound), math.Abs(polarity))
	return util.Clamp(agreement*0.6+extremity*0.4, 0, 1)
}
