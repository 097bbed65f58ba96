package domain

import "time"

// MoodScore is one discovered mood bucket with its prevalence confidence.
type MoodScore struct {
	Mood       string  `json:"mood"`
	Confidence float64 `json:"confidence"`
}

type ReviewStatistics struct {
	AverageLength      float64     `json:"average_length"`
	AverageWordCount   float64     `json:"average_word_count"`
	AverageRating      *float64    `json:"average_rating,omitempty"`
	RatingDistribution map[int]int `json:"rating_distribution,omitempty"`
	TotalHelpfulVotes  int         `json:"total_helpful_votes"`
}

type AnalysisMetadata struct {
	AnalyzerVersion     string    `json:"analyzer_version"`
	AnalyzedAt          time.Time `json:"analyzed_at"`
	MinReviews          int       `json:"min_reviews"`
	ConfidenceThreshold float64   `json:"confidence_threshold"`
}

// MoodAnalysisResult is the cacheable book-level outcome. A failed analysis
// carries only Success and Error; only successful results may be cached.
type MoodAnalysisResult struct {
	Success            bool              `json:"success"`
	Error              string            `json:"error,omitempty"`
	OverallSentiment   *OverallSentiment `json:"overall_sentiment,omitempty"`
	PrimaryMoods       []MoodScore       `json:"primary_moods,omitempty"`
	MoodDescription    string            `json:"mood_description,omitempty"`
	VibeLine           string            `json:"vibe_line,omitempty"`
	AnalysisConfidence float64           `json:"analysis_confidence,omitempty"`
	ReviewCount        int               `json:"review_count,omitempty"`
	ReviewStatistics   *ReviewStatistics `json:"review_statistics,omitempty"`
	Metadata           *AnalysisMetadata `json:"metadata,omitempty"`
}

func FailedAnalysis(errMsg string) MoodAnalysisResult {
	return MoodAnalysisResult{Success: false, Error: errMsg}
}

// TopMood returns the highest-confidence mood name, or "" when none were found.
func (r *MoodAnalysisResult) TopMood() string {
	if r == nil || len(r.PrimaryMoods) == 0 {
		return ""
	}
	return r.PrimaryMoods[0].Mood
}
