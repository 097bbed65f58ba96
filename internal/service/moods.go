package service

import (
	"math"
	"sort"
	"strings"

	"github.com/kapu/bookmood-go/internal/config"
	"github.com/kapu/bookmood-go/internal/domain"
	"github.com/kapu/bookmood-go/internal/util"
	"go.uber.org/zap"
)

// MoodRule maps indicator substrings onto one named mood bucket. Rules are
// evaluated in declaration order and the first matching rule wins, so more
// specific buckets must precede generic ones.
type MoodRule struct {
	Name       string
	Indicators []string
}

// DefaultMoodRules is the ordered clustering table. Tokens matching no rule
// fall back to the seed-list buckets ("positive"/"emotional") and finally to
// the catch-all "atmospheric".
var DefaultMoodRules = []MoodRule{
	{Name: "uplifting", Indicators: []string{"love", "joy", "happy", "wonderful", "amazing", "beautiful", "perfect"}},
	{Name: "dark", Indicators: []string{"dark", "scary", "disturbing", "twisted", "grim", "haunting"}},
	{Name: "mysterious", Indicators: []string{"mystery", "suspense", "intrigue", "puzzle", "secret"}},
	{Name: "romantic", Indicators: []string{"love", "romance", "passion", "heart", "romantic"}},
	{Name: "intense", Indicators: []string{"intense", "powerful", "overwhelming", "gripping", "dramatic"}},
}

// Seed vocabulary of known emotion words. Literal membership earns a token
// a higher emotional weight than a suffix match alone.
var (
	positiveEmotionSeeds = []string{
		"joy", "happiness", "love", "excitement", "hope", "satisfaction",
		"delight", "pleasure", "contentment", "bliss", "euphoria",
	}
	negativeEmotionSeeds = []string{
		"sadness", "anger", "fear", "disgust", "anxiety", "depression",
		"frustration", "disappointment", "grief", "despair", "rage",
	}
	intensityModifierSeeds = []string{
		"very", "extremely", "incredibly", "absolutely", "completely",
		"totally", "utterly", "quite", "rather", "somewhat",
	}
	literaryQualitySeeds = []string{
		"compelling", "gripping", "engaging", "captivating", "riveting",
		"thought-provoking", "profound", "insightful", "brilliant", "masterful",
	}
)

// emotionalSuffixes mark descriptive/emotional adjective forms; only tokens
// longer than 4 runes qualify for the suffix bonus.
var emotionalSuffixes = []string{"ing", "ed", "ful", "ous", "ive"}

var stopwords = map[string]bool{
	"the": true, "a": true, "an": true, "and": true, "or": true, "but": true,
	"in": true, "on": true, "at": true, "to": true, "for": true, "of": true,
	"with": true, "by": true, "is": true, "it": true, "its": true, "was": true,
	"were": true, "be": true, "been": true, "being": true, "this": true,
	"that": true, "these": true, "those": true, "i": true, "me": true,
	"my": true, "you": true, "your": true, "he": true, "she": true,
	"his": true, "her": true, "they": true, "them": true, "their": true,
	"we": true, "our": true, "as": true, "so": true, "if": true, "then": true,
	"than": true, "too": true, "also": true, "just": true, "from": true,
	"up": true, "down": true, "out": true, "about": true, "into": true,
	"over": true, "under": true, "again": true, "all": true, "any": true,
	"both": true, "each": true, "few": true, "more": true, "most": true,
	"other": true, "some": true, "such": true, "only": true, "own": true,
	"same": true, "can": true, "will": true, "did": true, "do": true,
	"does": true, "have": true, "has": true, "had": true, "not": true,
	"what": true, "which": true, "who": true, "when": true, "where": true,
	"why": true, "how": true, "there": true, "here": true, "because": true,
	"while": true, "during": true, "book": true, "read": true, "reading": true,
	"author": true, "story": true, "one": true, "would": true, "could": true,
}

// MoodExtractor mines mood buckets from the pooled review corpus. The
// bucket set is not fixed: it emerges from which emotionally-loaded tokens
// the text contains, clustered by the ordered rule table.
type MoodExtractor struct {
	cfg    config.AnalysisConfig
	rules  []MoodRule
	seeds  map[string]bool
	logger *zap.Logger
}

func NewMoodExtractor(cfg config.AnalysisConfig, logger *zap.Logger) *MoodExtractor {
	seeds := make(map[string]bool)
	for _, list := range [][]string{
		positiveEmotionSeeds, negativeEmotionSeeds,
		intensityModifierSeeds, literaryQualitySeeds,
	} {
		for _, word := range list {
			seeds[word] = true
		}
	}

	return &MoodExtractor{
		cfg:    cfg,
		rules:  DefaultMoodRules,
		seeds:  seeds,
		logger: logger,
	}
}

// ExtractMoods returns discovered mood buckets with prevalence confidence.
// Empty input yields an empty map, never an error.
func (m *MoodExtractor) ExtractMoods(reviews []domain.Review) map[string]float64 {
	if len(reviews) == 0 {
		return map[string]float64{}
	}

	var builder strings.Builder
	for _, review := range reviews {
		builder.WriteString(review.Text)
		builder.WriteString(" ")
	}

	tokens := make([]string, 0)
	for _, token := range tokenizeWords(builder.String()) {
		if !stopwords[token] {
			tokens = append(tokens, token)
		}
	}

	weights := m.emotionalWeights(tokens)
	clusters := m.clusterTokens(weights)

	scores := make(map[string]float64, len(clusters))
	for mood, members := range clusters {
		var weight int
		for _, token := range members {
			weight += weights[token]
		}

		confidence := util.Clamp(float64(weight)/math.Max(float64(len(tokens))*0.01, 1), 0, 1)
		if confidence >= m.cfg.ConfidenceThreshold {
			scores[mood] = confidence
		}
	}

	m.capCategories(scores)

	m.logger.Debug("Mood extraction complete",
		zap.Int("tokens", len(tokens)),
		zap.Int("weighted_tokens", len(weights)),
		zap.Int("moods", len(scores)),
	)

	return scores
}

// emotionalWeights scores every token occurrence: +2 for seed-list
// membership, +1 for an emotional suffix on tokens longer than 4 runes.
// Weights accumulate across occurrences; tokens below MinWordFrequency are
// dropped.
func (m *MoodExtractor) emotionalWeights(tokens []string) map[string]int {
	weights := make(map[string]int)
	for _, token := range tokens {
		if m.seeds[token] {
			weights[token] += 2
		}
		if len([]rune(token)) > 4 {
			for _, suffix := range emotionalSuffixes {
				if strings.HasSuffix(token, suffix) {
					weights[token]++
					break
				}
			}
		}
	}

	for token, weight := range weights {
		if weight < m.cfg.MinWordFrequency {
			delete(weights, token)
		}
	}
	return weights
}

// clusterTokens groups weighted tokens into named buckets by first-match
// substring rules. Clusters need at least 2 distinct contributing tokens;
// a single stray word is not corroborating vocabulary.
func (m *MoodExtractor) clusterTokens(weights map[string]int) map[string][]string {
	clusters := make(map[string][]string)
	for token := range weights {
		bucket := m.categorize(token)
		clusters[bucket] = append(clusters[bucket], token)
	}

	for bucket, members := range clusters {
		if len(members) < 2 {
			delete(clusters, bucket)
		}
	}
	return clusters
}

func (m *MoodExtractor) categorize(token string) string {
	for _, rule := range m.rules {
		for _, indicator := range rule.Indicators {
			if strings.Contains(token, indicator) {
				return rule.Name
			}
		}
	}

	if util.Contains(positiveEmotionSeeds, token) {
		return "positive"
	}
	if util.Contains(negativeEmotionSeeds, token) {
		return "emotional"
	}
	return "atmospheric"
}

// capCategories trims the score map to MaxMoodCategories, keeping the
// highest-confidence buckets.
func (m *MoodExtractor) capCategories(scores map[string]float64) {
	if m.cfg.MaxMoodCategories <= 0 || len(scores) <= m.cfg.MaxMoodCategories {
		return
	}

	type entry struct {
		mood       string
		confidence float64
	}
	entries := make([]entry, 0, len(scores))
	for mood, confidence := range scores {
		entries = append(entries, entry{mood, confidence})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].confidence != entries[j].confidence {
			return entries[i].confidence > entries[j].confidence
		}
		return entries[i].mood < entries[j].mood
	})

	for _, dropped := range entries[m.cfg.MaxMoodCategories:] {
		delete(scores, dropped.mood)
	}
}
