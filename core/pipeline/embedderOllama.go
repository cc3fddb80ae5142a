package pipeline

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	ollama "github.com/ollama/ollama/api"
)

const DefaultOllamaURL = "http://localhost:11434"

// OllamaEmbedder embeds through an Ollama server. Truncation is disabled so
// oversized input is reported instead of silently cut.
func OllamaEmbedder(baseURL string, modelName string) (EmbedFunc, error) {
	if baseURL == "" {
		baseURL = DefaultOllamaURL
	}
	parsedURL, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	if modelName == "" {
		return nil, fmt.Errorf("ollama embedder requires a model name")
	}

	client := ollama.NewClient(parsedURL, &http.Client{Timeout: 120 * time.Second})
	truncate := false

	return func(ctx context.Context, text string) ([]float32, error) {
		resp, err := client.Embed(ctx, &ollama.EmbedRequest{
			Model:    modelName,
			Input:    text,
			Truncate: &truncate,
		})
		if err != nil {
			return nil, classifyEmbedError("ollama", err)
		}
		if len(resp.Embeddings) == 0 {
			return nil, fmt.Errorf("ollama embedding failed: no embeddings returned")
		}
		return resp.Embeddings[0], nil
	}, nil
}
