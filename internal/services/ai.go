package services

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/developia-II/feedback-analyzer-backend/internal/models"
)

// DefaultAIBaseURL is Gemini's OpenAI-compatible endpoint.
const DefaultAIBaseURL = "https://generativelanguage.googleapis.com/v1beta/openai"

// OpenAIGenerator talks to any OpenAI-compatible chat completion API.
type OpenAIGenerator struct {
	client *openai.Client
}

func NewOpenAIGenerator(apiKey, baseURL string) *OpenAIGenerator {
	cfg := openai.DefaultConfig(strings.TrimSpace(apiKey))
	if baseURL == "" {
		baseURL = DefaultAIBaseURL
	}
	cfg.BaseURL = strings.TrimRight(baseURL, "/")

	return &OpenAIGenerator{client: openai.NewClientWithConfig(cfg)}
}

func (g *OpenAIGenerator) Generate(ctx context.Context, prompt, model string) (Generation, error) {
	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		// go-openai omits a zero temperature; this is the closest value it sends.
		Temperature: math.SmallestNonzeroFloat32,
	})
	if err != nil {
		return Generation{}, fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return Generation{}, nil
	}
	content := resp.Choices[0].Message.Content
	return Generation{Text: content, HadContent: strings.TrimSpace(content) != ""}, nil
}

// ListModels returns the models the provider offers, with any "models/"
// prefix removed from their names.
func (g *OpenAIGenerator) ListModels(ctx context.Context) ([]models.ModelInfo, error) {
	list, err := g.client.ListModels(ctx)
	if err != nil {
		return nil, fmt.Errorf("list models: %w", err)
	}
	out := make([]models.ModelInfo, 0, len(list.Models))
	for _, m := range list.Models {
		out = append(out, models.ModelInfo{
			Name:    strings.TrimPrefix(m.ID, "models/"),
			OwnedBy: m.OwnedBy,
			Created: m.CreatedAt,
		})
	}
	return out, nil
}
