package domain

// SentimentScore is the per-review signal from the two-estimator ensemble:
// the lexicon estimator contributes Compound/Positive/Negative/Neutral, the
// pattern estimator contributes Polarity/Subjectivity, and Confidence blends
// their agreement with the extremity of either score.
type SentimentScore struct {
	Compound     float64 `json:"compound"`     // [-1,1]
	Positive     float64 `json:"positive"`     // [0,1]
	Negative     float64 `json:"negative"`     // [0,1]
	Neutral      float64 `json:"neutral"`      // [0,1]
	Polarity     float64 `json:"polarity"`     // [-1,1]
	Subjectivity float64 `json:"subjectivity"` // [0,1]
	Confidence   float64 `json:"confidence"`   // [0,1]
	TextLength   int     `json:"text_length"`
	WordCount    int     `json:"word_count"`
}

// NeutralSentiment is the zero-confidence fallback for empty or garbled text.
func NeutralSentiment() SentimentScore {
	return SentimentScore{Neutral: 1}
}

// OverallSentiment aggregates the per-review scores of one book.
type OverallSentiment struct {
	CompoundScore        float64 `json:"compound_score"`
	CompoundMedian       float64 `json:"compound_median"`
	CompoundStdev        float64 `json:"compound_stdev"`
	PositiveScore        float64 `json:"positive_score"`
	NegativeScore        float64 `json:"negative_score"`
	PatternPolarity      float64 `json:"pattern_polarity"`
	AverageConfidence    float64 `json:"average_confidence"`
	SentimentConsistency float64 `json:"sentiment_consistency"`
}
