package services

import (
	"encoding/json"
	"strings"
	"unicode"

	"github.com/developia-II/feedback-analyzer-backend/internal/apperr"
	"github.com/developia-II/feedback-analyzer-backend/internal/models"
)

const fence = "```"

// ExtractAnalysis pulls the JSON analysis object out of raw model output.
// Output wrapped in a markdown code fence, optionally tagged with a language
// such as ```json, is unwrapped first. Field validation is left to the caller.
func ExtractAnalysis(raw string) (models.AnalysisResult, error) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return models.AnalysisResult{}, apperr.New(apperr.KindEmptyAIResponse, "AI returned an empty response")
	}

	body := stripFence(text)

	var result models.AnalysisResult
	if err := json.Unmarshal([]byte(body), &result); err != nil {
		return models.AnalysisResult{}, &apperr.Error{
			Kind:    apperr.KindInvalidAIResponse,
			Message: "AI returned a response that is not valid JSON",
			Raw:     raw,
			Err:     err,
		}
	}
	return result, nil
}

func stripFence(text string) string {
	if !strings.HasPrefix(text, fence) {
		return text
	}
	body := text[len(fence):]

	// language tag: the run of non-space characters right after the fence
	tagEnd := strings.IndexFunc(body, func(r rune) bool {
		return unicode.IsSpace(r) || r == '{' || r == '['
	})
	if tagEnd > 0 {
		body = body[tagEnd:]
	} else if tagEnd < 0 {
		body = ""
	}

	body = strings.TrimSpace(body)
	body = strings.TrimSuffix(body, fence)
	return strings.TrimSpace(body)
}
