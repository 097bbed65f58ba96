package domain

import "strings"

// Review is a single reader review extracted from the external source.
// Immutable once built.
type Review struct {
	Text         string `json:"text"`
	Rating       *int   `json:"rating,omitempty"` // 1..5 stars when present
	HelpfulVotes int    `json:"helpful_votes"`
	Length       int    `json:"length"`
	WordCount    int    `json:"word_count"`
}

func NewReview(text string, rating *int, helpfulVotes int) Review {
	return Review{
		Text:         text,
		Rating:       rating,
		HelpfulVotes: helpfulVotes,
		Length:       len(text),
		WordCount:    len(strings.Fields(text)),
	}
}

func (r *Review) HasRating() bool {
	return r != nil && r.Rating != nil
}
