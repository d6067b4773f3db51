package openaiembed

import (
	"context"
	"fmt"

	"github.com/nversa/docchat/internal/config"
	"github.com/nversa/docchat/internal/domain"
	"github.com/nversa/docchat/internal/embedding"
	"github.com/nversa/docchat/pkg/logging"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

type client struct {
	api    openai.Client
	model  string
	logger *logging.Logger
}

// New builds an Embedder backed by the OpenAI embeddings API.
func New(modelName, apiKey string) embedding.Embedder {
	return &client{
		api:    openai.NewClient(option.WithAPIKey(apiKey)),
		model:  modelName,
		logger: logging.NewLogger("openai_embedding"),
	}
}

func (c *client) Model() string { return c.model }

func (c *client) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := c.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (c *client) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	resp, err := c.api.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Input:      openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: texts},
		Model:      openai.EmbeddingModel(c.model),
		Dimensions: openai.Int(int64(config.EmbeddingOutputDimensionality)),
	})
	if err != nil {
		c.logger.Error("embedding call failed", "chunks", len(texts), "error", err)
		return nil, fmt.Errorf("%w: %v", domain.ErrEmbedding, err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("%w: got %d embeddings for %d chunks", domain.ErrEmbedding, len(resp.Data), len(texts))
	}

	vectors := make([][]float32, len(resp.Data))
	for _, d := range resp.Data {
		v := make([]float32, len(d.Embedding))
		for i, f := range d.Embedding {
			v[i] = float32(f)
		}
		vectors[d.Index] = v
	}
	return vectors, nil
}
