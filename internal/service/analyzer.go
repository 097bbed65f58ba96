package service

import (
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/kapu/bookmood-go/internal/config"
	"github.com/kapu/bookmood-go/internal/constants"
	"github.com/kapu/bookmood-go/internal/domain"
	"github.com/kapu/bookmood-go/internal/util"
	"github.com/sourcegraph/conc/panics"
	"go.uber.org/zap"
)

// Candidate vibe phrases keyed to the five sentiment bands, ordered from
// overwhelmingly positive down to predominantly negative.
var vibePhrasePools = [5][]string{
	{
		"A book that wraps you in warmth.",
		"Perfect for lifting spirits on any day.",
		"Readers consistently fall in love with this one.",
	},
	{
		"A gentle companion for quiet moments.",
		"Leaves most readers with a satisfied smile.",
		"The kind of book you recommend to friends.",
	},
	{
		"A book that divides readers - in the best way.",
		"Complex emotions await within these pages.",
		"Not for everyone, but unforgettable for some.",
	},
	{
		"A bittersweet read that lingers after the last page.",
		"Readers leave this one with heavy hearts and much to think about.",
		"More shadow than light, but deliberately so.",
	},
	{
		"A challenging read that stays with you.",
		"Prepare for an emotionally intense journey.",
		"Not a comfort read, but deeply impactful.",
	},
}

// Mood-specific vibe phrases appended to the candidate pool when the top
// discovered bucket has an entry. The table covers more moods than the
// clustering rules can currently produce; extra rows are harmless.
var moodVibePhrases = map[string]string{
	"cozy":              "Like a warm blanket on a rainy day.",
	"dark":              "Best read with all the lights on.",
	"mysterious":        "Will keep you guessing until the very end.",
	"romantic":          "Have tissues ready for the swoony moments.",
	"adventurous":       "Pack your bags - you're going on a journey.",
	"melancholy":        "Beautiful in its sadness, like autumn leaves.",
	"uplifting":         "A ray of sunshine in book form.",
	"intense":           "Buckle up for an emotional rollercoaster.",
	"whimsical":         "Delightfully odd in all the right ways.",
	"thought-provoking": "Will have you pondering long after the last page.",
}

// AnalyzerService merges per-review sentiment and discovered moods into one
// book-level result. It never returns an error: every failure mode maps to
// a structured result with Success=false.
type AnalyzerService struct {
	sentiment *SentimentService
	moods     *MoodExtractor
	cfg       config.AnalysisConfig
	rng       *rand.Rand
	rngMu     sync.Mutex
	logger    *zap.Logger
}

func NewAnalyzerService(sentiment *SentimentService, moods *MoodExtractor, cfg config.AnalysisConfig, rng *rand.Rand, logger *zap.Logger) *AnalyzerService {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	return &AnalyzerService{
		sentiment: sentiment,
		moods:     moods,
		cfg:       cfg,
		rng:       rng,
		logger:    logger,
	}
}

// Analyze produces the aggregate mood result for one book's reviews. An
// unexpected panic anywhere in the computation is captured and converted to
// a failed result rather than crashing the batch.
func (a *AnalyzerService) Analyze(reviews []domain.Review) domain.MoodAnalysisResult {
	if len(reviews) == 0 {
		return domain.FailedAnalysis("No reviews provided")
	}

	if len(reviews) < a.cfg.MinReviews {
		a.logger.Warn("Fewer reviews than recommended",
			zap.Int("reviews", len(reviews)),
			zap.Int("recommended", a.cfg.MinReviews),
		)
	}

	var result domain.MoodAnalysisResult
	recovered := panics.Try(func() {
		result = a.analyze(reviews)
	})
	if recovered != nil {
		a.logger.Error("Analysis panicked", zap.Any("panic", recovered.Value))
		return domain.FailedAnalysis(fmt.Sprintf("Analysis failed: %v", recovered.Value))
	}

	return result
}

func (a *AnalyzerService) analyze(reviews []domain.Review) domain.MoodAnalysisResult {
	a.logger.Info("Analyzing mood", zap.Int("reviews", len(reviews)))

	scored := make([]domain.Review, 0, len(reviews))
	scores := make([]domain.SentimentScore, 0, len(reviews))
	for _, review := range reviews {
		if review.Text == "" {
			continue
		}
		scores = append(scores, a.sentiment.Score(review.Text))
		scored = append(scored, review)
	}

	if len(scores) == 0 {
		return domain.FailedAnalysis("No valid reviews to analyze")
	}

	overall := aggregateSentiment(scores)
	moodScores := a.moods.ExtractMoods(reviews)
	primaryMoods := rankMoods(moodScores)

	result := domain.MoodAnalysisResult{
		Success:            true,
		OverallSentiment:   &overall,
		PrimaryMoods:       primaryMoods,
		MoodDescription:    describeMood(overall.CompoundScore, primaryMoods),
		VibeLine:           a.vibeLine(overall.CompoundScore, primaryMoods),
		AnalysisConfidence: analysisConfidence(scores, len(moodScores)),
		ReviewCount:        len(scored),
		ReviewStatistics:   reviewStatistics(scored),
		Metadata: &domain.AnalysisMetadata{
			AnalyzerVersion:     constants.AnalyzerVersion,
			AnalyzedAt:          time.Now().UTC(),
			MinReviews:          a.cfg.MinReviews,
			ConfidenceThreshold: a.cfg.ConfidenceThreshold,
		},
	}

	a.logger.Info("Analysis complete",
		zap.Float64("compound", overall.CompoundScore),
		zap.String("top_mood", result.TopMood()),
		zap.Int("moods", len(primaryMoods)),
		zap.Float64("confidence", result.AnalysisConfidence),
	)

	return result
}

func aggregateSentiment(scores []domain.SentimentScore) domain.OverallSentiment {
	compounds := make([]float64, len(scores))
	positives := make([]float64, len(scores))
	negatives := make([]float64, len(scores))
	polarities := make([]float64, len(scores))
	confidences := make([]float64, len(scores))
	for i, s := range scores {
		compounds[i] = s.Compound
		positives[i] = s.Positive
		negatives[i] = s.Negative
		polarities[i] = s.Polarity
		confidences[i] = s.Confidence
	}

	stdev := util.SampleStdev(compounds)
	return domain.OverallSentiment{
		CompoundScore:        util.Mean(compounds),
		CompoundMedian:       util.Median(compounds),
		CompoundStdev:        stdev,
		PositiveScore:        util.Mean(positives),
		NegativeScore:        util.Mean(negatives),
		PatternPolarity:      util.Mean(polarities),
		AverageConfidence:    util.Mean(confidences),
		SentimentConsistency: 1 - stdev,
	}
}

// rankMoods orders buckets by confidence descending; names break ties so
// the ordering is stable within one call.
func rankMoods(moodScores map[string]float64) []domain.MoodScore {
	ranked := make([]domain.MoodScore, 0, len(moodScores))
	for mood, confidence := range moodScores {
		ranked = append(ranked, domain.MoodScore{Mood: mood, Confidence: confidence})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Confidence != ranked[j].Confidence {
			return ranked[i].Confidence > ranked[j].Confidence
		}
		return ranked[i].Mood < ranked[j].Mood
	})
	return ranked
}

// sentimentBand buckets a mean compound score into one of the five bands.
func sentimentBand(compound float64) int {
	switch {
	case compound >= 0.5:
		return 0
	case compound >= 0.1:
		return 1
	case compound >= -0.1:
		return 2
	case compound >= -0.5:
		return 3
	default:
		return 4
	}
}

var bandDescriptions = [5]string{
	"overwhelmingly positive",
	"generally positive",
	"mixed",
	"somewhat negative",
	"predominantly negative",
}

func describeMood(compound float64, primaryMoods []domain.MoodScore) string {
	desc := bandDescriptions[sentimentBand(compound)]
	if len(primaryMoods) > 0 {
		return fmt.Sprintf("This book has a %s reception with a primarily %s mood.", desc, primaryMoods[0].Mood)
	}
	return fmt.Sprintf("This book has a %s reception.", desc)
}

// vibeLine selects one phrase from the band pool, extended with a
// mood-specific phrase when the top bucket has one. Selection is random or
// deterministic-first depending on configuration.
func (a *AnalyzerService) vibeLine(compound float64, primaryMoods []domain.MoodScore) string {
	pool := vibePhrasePools[sentimentBand(compound)]
	candidates := make([]string, len(pool))
	copy(candidates, pool)

	if len(primaryMoods) > 0 {
		if phrase, ok := moodVibePhrases[primaryMoods[0].Mood]; ok {
			candidates = append(candidates, phrase)
		}
	}

	if a.cfg.VibeSelection == "deterministic" {
		return candidates[0]
	}

	a.rngMu.Lock()
	defer a.rngMu.Unlock()
	return candidates[a.rng.Intn(len(candidates))]
}

// analysisConfidence blends mean per-review confidence (0.5), richness of
// mood discovery (0.3) and sample size (0.2), rounded to 3 decimals.
func analysisConfidence(scores []domain.SentimentScore, moodCount int) float64 {
	confidences := make([]float64, len(scores))
	for i, s := range scores {
		confidences[i] = s.Confidence
	}

	sentimentConf := util.Mean(confidences)
	moodConf := util.Clamp(float64(moodCount)*0.2, 0, 1)
	sampleConf := util.Clamp(float64(len(scores))/10, 0, 1)

	return util.Round3(sentimentConf*0.5 + moodConf*0.3 + sampleConf*0.2)
}

func reviewStatistics(reviews []domain.Review) *domain.ReviewStatistics {
	lengths := make([]float64, len(reviews))
	wordCounts := make([]float64, len(reviews))
	ratings := make([]float64, 0, len(reviews))
	distribution := make(map[int]int)
	totalHelpful := 0

	for i, r := range reviews {
		lengths[i] = float64(r.Length)
		wordCounts[i] = float64(r.WordCount)
		totalHelpful += r.HelpfulVotes
		if r.HasRating() {
			ratings = append(ratings, float64(*r.Rating))
			distribution[*r.Rating]++
		}
	}

	stats := &domain.ReviewStatistics{
		AverageLength:     util.Mean(lengths),
		AverageWordCount:  util.Mean(wordCounts),
		TotalHelpfulVotes: totalHelpful,
	}
	if len(ratings) > 0 {
		avg := util.Mean(ratings)
		stats.AverageRating = &avg
		stats.RatingDistribution = distribution
	}
	return stats
}
