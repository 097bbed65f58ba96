package service

import (
	"strings"
	"unicode"

	"github.com/kapu/bookmood-go/internal/util"
)

// polarEntry is one lexicon word with its polarity in [-1,1] and
// subjectivity in [0,1].
type polarEntry struct {
	polarity     float64
	subjectivity float64
}

// patternLexicon covers vocabulary common in book reviews. Polarity and
// subjectivity values follow the usual adjective-lexicon conventions:
// factual words score low subjectivity, opinion words high.
var patternLexicon = map[string]polarEntry{
	// positive
	"good":          {0.7, 0.6},
	"great":         {0.8, 0.75},
	"excellent":     {1.0, 1.0},
	"amazing":       {0.6, 0.9},
	"wonderful":     {1.0, 1.0},
	"beautiful":     {0.85, 1.0},
	"perfect":       {1.0, 1.0},
	"best":          {1.0, 0.3},
	"love":          {0.5, 0.6},
	"loved":         {0.7, 0.8},
	"happy":         {0.8, 1.0},
	"magical":       {0.65, 0.85},
	"brilliant":     {0.9, 0.9},
	"compelling":    {0.55, 0.7},
	"gripping":      {0.6, 0.8},
	"engaging":      {0.6, 0.75},
	"captivating":   {0.7, 0.85},
	"delightful":    {0.8, 0.9},
	"enjoyable":     {0.6, 0.8},
	"heartwarming":  {0.75, 0.9},
	"inspiring":     {0.7, 0.85},
	"cozy":          {0.5, 0.7},
	"satisfying":    {0.6, 0.8},
	"masterful":     {0.85, 0.9},
	"profound":      {0.6, 0.8},
	"charming":      {0.7, 0.85},
	"fun":           {0.5, 0.6},
	"interesting":   {0.5, 0.5},
	"recommend":     {0.55, 0.6},
	"favorite":      {0.8, 0.9},

	// negative
	"bad":           {-0.7, 0.65},
	"terrible":      {-1.0, 1.0},
	"awful":         {-1.0, 1.0},
	"worst":         {-1.0, 1.0},
	"boring":        {-0.8, 1.0},
	"dull":          {-0.6, 0.8},
	"disappointing": {-0.65, 0.8},
	"disappointed":  {-0.65, 0.8},
	"hate":          {-0.8, 0.9},
	"hated":         {-0.9, 0.95},
	"sad":           {-0.5, 1.0},
	"slow":          {-0.3, 0.4},
	"confusing":     {-0.4, 0.7},
	"tedious":       {-0.6, 0.85},
	"predictable":   {-0.3, 0.8},
	"weak":          {-0.5, 0.7},
	"flat":          {-0.4, 0.6},
	"disturbing":    {-0.6, 0.9},
	"depressing":    {-0.6, 0.9},
	"mediocre":      {-0.5, 0.8},
	"forgettable":   {-0.55, 0.8},
	"unreadable":    {-0.9, 0.9},
}

// intensifiers scale the polarity of the word that follows them.
var intensifiers = map[string]float64{
	"very":       1.3,
	"extremely":  1.4,
	"incredibly": 1.4,
	"absolutely": 1.4,
	"completely": 1.35,
	"totally":    1.3,
	"utterly":    1.35,
	"really":     1.2,
	"quite":      1.1,
	"rather":     1.1,
	"somewhat":   0.7,
	"slightly":   0.6,
}

// negations flip and dampen the polarity of the word that follows.
var negations = map[string]bool{
	"not":     true,
	"no":      true,
	"never":   true,
	"nothing": true,
	"hardly":  true,
	"barely":  true,
	"isn't":   true,
	"wasn't":  true,
	"won't":   true,
	"don't":   true,
	"didn't":  true,
	"can't":   true,
	"couldn't": true,
}

// patternEstimator is the statistical half of the sentiment ensemble: it
// averages per-word polarity over recognized opinion vocabulary, applying
// intensifier and negation modifiers from the preceding token. Subjectivity
// is the mean subjectivity of matched words, estimating how opinion-laden
// the text reads.
type patternEstimator struct {
	lexicon      map[string]polarEntry
	intensifiers map[string]float64
	negations    map[string]bool
}

func newPatternEstimator() *patternEstimator {
	return &patternEstimator{
		lexicon:      patternLexicon,
		intensifiers: intensifiers,
		negations:    negations,
	}
}

// Assess returns (polarity, subjectivity). Text with no recognized
// vocabulary scores (0, 0).
func (p *patternEstimator) Assess(text string) (float64, float64) {
	tokens := tokenizeWords(text)
	if len(tokens) == 0 {
		return 0, 0
	}

	var (
		polaritySum     float64
		subjectivitySum float64
		matched         int
		modifier        = 1.0
		negated         bool
	)

	for _, token := range tokens {
		if factor, ok := p.intensifiers[token]; ok {
			modifier *= factor
			continue
		}
		if p.negations[token] {
			negated = true
			continue
		}

		entry, ok := p.lexicon[token]
		if ok {
			polarity := entry.polarity * modifier
			if negated {
				polarity *= -0.5
			}
			polaritySum += util.Clamp(polarity, -1, 1)
			subjectivitySum += entry.subjectivity
			matched++
		}

		modifier = 1.0
		negated = false
	}

	if matched == 0 {
		return 0, 0
	}

	polarity := util.Clamp(polaritySum/float64(matched), -1, 1)
	subjectivity := util.Clamp(subjectivitySum/float64(matched), 0, 1)
	return polarity, subjectivity
}

// tokenizeWords lowercases and splits text into letter runs, keeping
// in-word apostrophes and hyphens so negated contractions ("didn't") and
// compound adjectives ("thought-provoking") survive as one token.
func tokenizeWords(text string) []string {
	lowered := strings.ToLower(text)
	tokens := strings.FieldsFunc(lowered, func(r rune) bool {
		return !unicode.IsLetter(r) && r != '\'' && r != '-'
	})

	cleaned := tokens[:0]
	for _, token := range tokens {
		token = strings.Trim(token, "'-")
		if token != "" {
			cleaned = append(cleaned, token)
		}
	}
	return cleaned
}
