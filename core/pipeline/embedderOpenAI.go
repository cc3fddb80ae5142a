package pipeline

import (
	"context"
	"errors"
	"fmt"

	openai "github.com/meguminnnnnnnnn/go-openai"
	"github.com/siherrmann/pagerag/model"
)

const DefaultOpenAIModel = "text-embedding-3-small"

// OpenAIEmbedder embeds through the OpenAI embeddings endpoint or any
// compatible server at baseURL.
func OpenAIEmbedder(apiKey string, baseURL string, modelName string) EmbedFunc {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	if modelName == "" {
		modelName = DefaultOpenAIModel
	}
	client := openai.NewClientWithConfig(config)

	return func(ctx context.Context, text string) ([]float32, error) {
		resp, err := client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
			Input: []string{text},
			Model: openai.EmbeddingModel(modelName),
		})
		if err != nil {
			var apiErr *openai.APIError
			if errors.As(err, &apiErr) && apiErr.Code == "context_length_exceeded" {
				return nil, model.NewSizeLimitError(err)
			}
			return nil, classifyEmbedError("openai", err)
		}

		if len(resp.Data) == 0 {
			return nil, fmt.Errorf("openai embedding failed: no embeddings returned")
		}
		return resp.Data[0].Embedding, nil
	}
}
