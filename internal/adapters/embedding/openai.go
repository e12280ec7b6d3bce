package embedding

import (
	"context"
	"fmt"

	"github.com/openai/openai-go/v3"
	"go.uber.org/zap"

	"github.com/0xcro3dile/agent-multitool/internal/adapters/llm"
	"github.com/0xcro3dile/agent-multitool/internal/domain/entities"
)

// OpenAIAdapter implements ports.EmbeddingService with the OpenAI
// embeddings endpoint. A batch is sent as a single request.
type OpenAIAdapter struct {
	client openai.Client
	model  string
	logger *zap.Logger
}

// NewOpenAIAdapter creates an OpenAI embedding adapter.
func NewOpenAIAdapter(apiKey, baseURL, model string, logger *zap.Logger) (*OpenAIAdapter, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai embeddings: %w", entities.ErrMissingCredential)
	}
	if model == "" {
		model = "text-embedding-3-small"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OpenAIAdapter{
		client: openai.NewClient(llm.ClientOptions(apiKey, baseURL)...),
		model:  model,
		logger: logger,
	}, nil
}

// Embed generates an embedding for a single text.
func (a *OpenAIAdapter) Embed(ctx context.Context, text string) ([]float32, error) {
	out, err := a.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

// EmbedBatch generates embeddings for multiple texts.
func (a *OpenAIAdapter) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	resp, err := a.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Model:          openai.EmbeddingModel(a.model),
		Input:          openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: texts},
		EncodingFormat: openai.EmbeddingNewParamsEncodingFormatFloat,
	})
	if err != nil {
		return nil, fmt.Errorf("calling OpenAI embeddings: %w", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("OpenAI returned %d embeddings for %d texts", len(resp.Data), len(texts))
	}

	out := make([][]float32, len(texts))
	for _, d := range resp.Data {
		if d.Index < 0 || int(d.Index) >= len(out) {
			return nil, fmt.Errorf("OpenAI returned embedding index %d out of range", d.Index)
		}
		vec := make([]float32, len(d.Embedding))
		for i, v := range d.Embedding {
			vec[i] = float32(v)
		}
		out[d.Index] = vec
	}

	a.logger.Debug("embedded batch", zap.String("model", a.model), zap.Int("texts", len(texts)))
	return out, nil
}
