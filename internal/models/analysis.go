package models

// AnalysisResult is what the language model returns for a piece of feedback.
type AnalysisResult struct {
	TranslatedText     string   `json:"translated_text"`
	Sentiment          string   `json:"sentiment"`
	Language           string   `json:"language,omitempty"`
	LanguageConfidence *float64 `json:"language_confidence,omitempty"`
}

type AnalyzeRequest struct {
	Text string `json:"text" validate:"required,min=1,max=2000"`
}

// ModelInfo describes a model offered by the analysis provider.
type ModelInfo struct {
	Name    string `json:"name"`
	OwnedBy string `json:"owned_by,omitempty"`
	Created int64  `json:"created,omitempty"`
}

type CurrentModelRequest struct {
	ModelName string `json:"model_name" validate:"required,max=200"`
}

type CurrentModelResponse struct {
	CurrentModel string `json:"current_model"`
}
