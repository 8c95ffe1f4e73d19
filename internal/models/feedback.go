package models

import "time"

// Sentiment labels accepted from the analysis model.
const (
	SentimentPositive = "positive"
	SentimentNegative = "negative"
	SentimentNeutral  = "neutral"
)

// IsSentiment reports whether s is one of the canonical sentiment labels.
func IsSentiment(s string) bool {
	switch s {
	case SentimentPositive, SentimentNegative, SentimentNeutral:
		return true
	}
	return false
}

type Feedback struct {
	ID                 int64     `json:"id" bson:"_id"`
	OriginalText       string    `json:"original_text" bson:"originalText"`
	TranslatedText     string    `json:"translated_text" bson:"translatedText,omitempty"`
	Sentiment          string    `json:"sentiment" bson:"sentiment"`
	Product            string    `json:"product" bson:"product,omitempty"`
	Language           string    `json:"language" bson:"language,omitempty"`
	LanguageConfidence *float64  `json:"language_confidence,omitempty" bson:"languageConfidence,omitempty"`
	CreatedAt          time.Time `json:"created_at" bson:"createdAt"`
}

// FeedbackRequest is the body of POST /api/feedback. When TranslatedText and
// Sentiment are both supplied the analysis call is skipped.
type FeedbackRequest struct {
	Text               string   `json:"text" validate:"required,min=1,max=2000"`
	Product            string   `json:"product" validate:"required,max=200"`
	TranslatedText     string   `json:"translated_text,omitempty" validate:"max=4000"`
	Sentiment          string   `json:"sentiment,omitempty" validate:"max=32"`
	Language           string   `json:"language,omitempty" validate:"max=16"`
	LanguageConfidence *float64 `json:"language_confidence,omitempty"`
}

// PreAnalyzed returns the caller-supplied analysis, if complete.
func (r FeedbackRequest) PreAnalyzed() (AnalysisResult, bool) {
	if r.TranslatedText == "" || r.Sentiment == "" {
		return AnalysisResult{}, false
	}
	return AnalysisResult{
		TranslatedText:     r.TranslatedText,
		Sentiment:          r.Sentiment,
		Language:           r.Language,
		LanguageConfidence: r.LanguageConfidence,
	}, true
}

// UnspecifiedProduct is the filter value matching feedback with no product.
const UnspecifiedProduct = "(unspecified)"

// FeedbackFilter narrows feedback queries. Empty fields do not filter.
type FeedbackFilter struct {
	Product   string `query:"product"`
	Language  string `query:"language"`
	Sentiment string `query:"sentiment"`
}

type FeedbackPage struct {
	Total int64      `json:"total"`
	Items []Feedback `json:"items"`
	Skip  int        `json:"skip"`
	Limit int        `json:"limit"`
}

type BulkDeleteRequest struct {
	IDs []int64 `json:"ids" validate:"required,min=1,max=1000"`
}

type BulkDeleteResponse struct {
	Deleted int     `json:"deleted"`
	IDs     []int64 `json:"ids"`
}

type Stats struct {
	Total       int64              `json:"total"`
	Counts      map[string]int64   `json:"counts"`
	Percentages map[string]float64 `json:"percentages"`
}
