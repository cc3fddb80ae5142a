package pipeline

import (
	"context"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const DefaultGeminiModel = "gemini-embedding-001"

// GeminiEmbedder embeds through the Gemini API.
func GeminiEmbedder(ctx context.Context, apiKey string, modelName string) (EmbedFunc, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	if modelName == "" {
		modelName = DefaultGeminiModel
	}
	em := client.EmbeddingModel(modelName)

	return func(ctx context.Context, text string) ([]float32, error) {
		res, err := em.EmbedContent(ctx, genai.Text(text))
		if err != nil {
			return nil, classifyEmbedError("gemini", err)
		}
		if res.Embedding == nil || len(res.Embedding.Values) == 0 {
			return nil, fmt.Errorf("gemini embedding failed: no embedding returned")
		}
		return res.Embedding.Values, nil
	}, nil
}
