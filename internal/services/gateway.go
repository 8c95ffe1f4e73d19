package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/developia-II/feedback-analyzer-backend/internal/apperr"
	"github.com/developia-II/feedback-analyzer-backend/internal/metrics"
	"github.com/developia-II/feedback-analyzer-backend/internal/models"
)

// Generation is the raw output of one model call. HadContent is false when
// the provider answered without any candidate text, e.g. because the output
// was blocked.
type Generation struct {
	Text       string
	HadContent bool
}

// Generator sends a prompt to a named language model.
type Generator interface {
	Generate(ctx context.Context, prompt, model string) (Generation, error)
}

const maxFailureMessage = 200

// Provider error fragments that mean the caller has run out of quota.
// Matching on message text is a heuristic; providers do not expose a stable
// error code for this through the OpenAI-compatible surface.
var quotaMarkers = []string{
	"quota",
	"rate limit",
	"rate_limit",
	"429",
	"resource_exhausted",
	"resource exhausted",
	"too many requests",
}

var unsupportedModelMarkers = []string{
	"not found",
	"invalid",
}

// Gateway turns a feedback text into a validated AnalysisResult using a
// Generator.
type Gateway struct {
	gen     Generator
	metrics *metrics.Metrics
	logger  *slog.Logger
}

func NewGateway(gen Generator, m *metrics.Metrics, logger *slog.Logger) *Gateway {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gateway{gen: gen, metrics: m, logger: logger}
}

// BuildPrompt returns the instruction sent to the model for text.
func BuildPrompt(text string) string {
	var b strings.Builder
	b.WriteString("Analyze the following customer feedback text.\n")
	b.WriteString("Your task is to:\n")
	b.WriteString("1. Detect the language of the text and give its ISO 639-1 code.\n")
	b.WriteString("2. Estimate your confidence in the detected language as a number between 0 and 1.\n")
	b.WriteString("3. Translate the text into English.\n")
	b.WriteString("4. Classify the sentiment as one of: 'positive', 'negative', or 'neutral'.\n")
	b.WriteString("Respond with a single JSON object and nothing else, using the keys ")
	b.WriteString(`"language", "language_confidence", "translated_text" and "sentiment".` + "\n")
	fmt.Fprintf(&b, "Text: %q\n", text)
	return b.String()
}

// Analyze runs text through model and validates the answer.
func (g *Gateway) Analyze(ctx context.Context, text, model string) (models.AnalysisResult, error) {
	start := time.Now()
	result, err := g.analyze(ctx, text, model)
	outcome := outcomeOf(err)
	g.metrics.ObserveAnalysis(outcome, time.Since(start))
	if err != nil {
		g.logger.Warn("analysis failed", "model", model, "outcome", outcome, "error", err)
	}
	return result, err
}

func (g *Gateway) analyze(ctx context.Context, text, model string) (models.AnalysisResult, error) {
	gen, err := g.gen.Generate(ctx, BuildPrompt(text), model)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil || errors.Is(err, context.Canceled) {
			return models.AnalysisResult{}, apperr.Wrap(apperr.KindClientDisconnected, err, "Client disconnected")
		}
		return models.AnalysisResult{}, classifyProviderError(err, model)
	}
	if !gen.HadContent {
		return models.AnalysisResult{}, apperr.New(apperr.KindEmptyAIResponse, "AI content generation failed")
	}

	result, err := ExtractAnalysis(gen.Text)
	if err != nil {
		return models.AnalysisResult{}, err
	}
	return validateResult(result, gen.Text)
}

func validateResult(r models.AnalysisResult, raw string) (models.AnalysisResult, error) {
	r.TranslatedText = strings.TrimSpace(r.TranslatedText)
	r.Sentiment = strings.ToLower(strings.TrimSpace(r.Sentiment))
	r.Language = strings.ToLower(strings.TrimSpace(r.Language))

	invalid := func(msg string) (models.AnalysisResult, error) {
		return models.AnalysisResult{}, &apperr.Error{Kind: apperr.KindInvalidAIResponse, Message: msg, Raw: raw}
	}
	if r.TranslatedText == "" {
		return invalid("AI response is missing translated_text")
	}
	if r.Sentiment == "" {
		return invalid("AI response is missing sentiment")
	}
	if !models.IsSentiment(r.Sentiment) {
		return invalid(fmt.Sprintf("AI returned an unknown sentiment %q", r.Sentiment))
	}
	if c := r.LanguageConfidence; c != nil && (*c < 0 || *c > 1) {
		r.LanguageConfidence = nil
	}
	return r, nil
}

func classifyProviderError(err error, model string) error {
	msg := strings.ToLower(err.Error())
	switch {
	case containsAny(msg, quotaMarkers):
		return apperr.Wrap(apperr.KindQuotaExceeded, err,
			fmt.Sprintf("AI quota exceeded for model %q. Try again later or select another model.", model))
	case containsAny(msg, unsupportedModelMarkers):
		return apperr.Wrap(apperr.KindUnsupportedModel, err,
			fmt.Sprintf("Model %q is not available or not supported", model))
	default:
		return apperr.Wrap(apperr.KindAnalysisFailed, err,
			"AI analysis failed: "+apperr.Truncate(err.Error(), maxFailureMessage))
	}
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}

func outcomeOf(err error) string {
	switch apperr.KindOf(err) {
	case apperr.KindQuotaExceeded:
		return metrics.OutcomeQuota
	case apperr.KindUnsupportedModel:
		return metrics.OutcomeUnsupportedModel
	case apperr.KindEmptyAIResponse:
		return metrics.OutcomeEmpty
	case apperr.KindInvalidAIResponse:
		return metrics.OutcomeInvalid
	case apperr.KindClientDisconnected:
		return metrics.OutcomeDisconnected
	}
	if err == nil {
		return metrics.OutcomeSuccess
	}
	return metrics.OutcomeFailed
}
