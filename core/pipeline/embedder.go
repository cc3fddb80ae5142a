package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/knights-analytics/hugot"
	"github.com/siherrmann/pagerag/helper"
	"github.com/siherrmann/pagerag/model"
)

const DefaultLocalModel = "sentence-transformers/all-MiniLM-L6-v2"

// Provider messages signalling that the input exceeded the token budget.
var sizeLimitMessages = []string{
	"maximum context length",
	"8192 tokens",
	"context_length_exceeded",
	"input length exceeds",
	"exceeds the context",
	"exceeds the maximum",
	"too many tokens",
	"token limit",
}

// NewEmbedder creates the embedder selected by config.
func NewEmbedder(ctx context.Context, config *helper.EmbedderConfiguration) (EmbedFunc, error) {
	switch config.Provider {
	case "openai":
		return OpenAIEmbedder(config.APIKey, config.BaseURL, config.Model), nil
	case "ollama":
		return OllamaEmbedder(config.BaseURL, config.Model)
	case "gemini":
		return GeminiEmbedder(ctx, config.APIKey, config.Model)
	case "local", "":
		modelName := config.Model
		if modelName == "" {
			modelName = DefaultLocalModel
		}
		return LocalEmbedder(config.ModelPath, modelName)
	}
	return nil, fmt.Errorf("unknown embedding provider %q", config.Provider)
}

// DefaultEmbedder creates an embedder using a real sentence transformer model
// Uses the all-MiniLM-L6-v2 model which produces 384-dimensional embeddings
func DefaultEmbedder() (EmbedFunc, error) {
	return LocalEmbedder(helper.DefaultModelDir, DefaultLocalModel)
}

// LocalEmbedder runs a Hugging Face feature extraction model in process.
// The model is kept in modelDir. The tokenizer truncates long input, so it
// never reports a size limit.
func LocalEmbedder(modelDir string, modelName string) (EmbedFunc, error) {
	modelPath, err := helper.PrepareModel(modelDir, modelName, "onnx/model.onnx")
	if err != nil {
		return nil, err
	}

	session, err := hugot.NewGoSession()
	if err != nil {
		return nil, fmt.Errorf("failed to create hugot session: %w", err)
	}

	config := hugot.FeatureExtractionConfig{
		ModelPath: modelPath,
		Name:      "embedder-pipeline",
	}
	sentencePipeline, err := hugot.NewPipeline(session, config)
	if err != nil {
		if destroyErr := session.Destroy(); destroyErr != nil {
			return nil, fmt.Errorf("failed to create sentence pipeline: %w (cleanup error: %v)", err, destroyErr)
		}
		return nil, fmt.Errorf("failed to create sentence pipeline: %w", err)
	}

	return func(ctx context.Context, text string) ([]float32, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		result, err := sentencePipeline.RunPipeline([]string{text})
		if err != nil {
			return nil, fmt.Errorf("failed to generate embedding: %w", err)
		}
		if len(result.Embeddings) == 0 {
			return nil, fmt.Errorf("no embedding generated")
		}
		return result.Embeddings[0], nil
	}, nil
}

// classifyEmbedError marks provider errors about oversized input as
// model.ErrSizeLimitExceeded and wraps all others.
func classifyEmbedError(provider string, err error) error {
	if isSizeLimitMessage(err.Error()) {
		return model.NewSizeLimitError(err)
	}
	return fmt.Errorf("%s embedding failed: %w", provider, err)
}

func isSizeLimitMessage(msg string) bool {
	msg = strings.ToLower(msg)
	for _, m := range sizeLimitMessages {
		if strings.Contains(msg, m) {
			return true
		}
	}
	return false
}
