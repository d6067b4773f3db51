package googleembed

import (
	"context"
	"fmt"
	"time"

	"github.com/nversa/docchat/internal/config"
	"github.com/nversa/docchat/internal/domain"
	"github.com/nversa/docchat/internal/embedding"
	"github.com/nversa/docchat/pkg/logging"
	"google.golang.org/genai"
)

var dimension = config.EmbeddingOutputDimensionality

type client struct {
	genAi  *genai.Client
	model  string
	logger *logging.Logger
}

// New builds an Embedder backed by the Google embedding API.
func New(ctx context.Context, modelName, apiKey string) (embedding.Embedder, error) {
	c, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("create google embedding client: %w", err)
	}
	return &client{
		genAi:  c,
		model:  modelName,
		logger: logging.NewLogger("google_embedding"),
	}, nil
}

func (c *client) Model() string { return c.model }

func (c *client) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	result, err := c.doCall(ctx, genai.Text(text))
	if err != nil {
		c.logger.Error("query embedding failed", "error", err)
		return nil, fmt.Errorf("%w: %v", domain.ErrEmbedding, err)
	}
	if len(result.Embeddings) == 0 {
		return nil, fmt.Errorf("%w: empty response", domain.ErrEmbedding)
	}
	return result.Embeddings[0].Values, nil
}

func (c *client) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	res, err := c.doCall(ctx, getContent(texts))
	if err != nil {
		if isQuotaExhausted(err) {
			c.logger.Warn("rate limit hit, retrying once", "error", err)
			time.Sleep(5 * time.Second)
			res, err = c.doCall(ctx, getContent(texts))
		}
		if err != nil {
			c.logger.Error("batch embedding failed", "chunks", len(texts), "error", err)
			return nil, fmt.Errorf("%w: %v", domain.ErrEmbedding, err)
		}
	}

	if len(res.Embeddings) != len(texts) {
		return nil, fmt.Errorf("%w: got %d embeddings for %d chunks", domain.ErrEmbedding, len(res.Embeddings), len(texts))
	}
	vectors := make([][]float32, 0, len(res.Embeddings))
	for _, r := range res.Embeddings {
		vectors = append(vectors, r.Values)
	}
	return vectors, nil
}

func (c *client) doCall(ctx context.Context, content []*genai.Content) (*genai.EmbedContentResponse, error) {
	return c.genAi.Models.EmbedContent(ctx, c.model, content, &genai.EmbedContentConfig{
		OutputDimensionality: &dimension,
		TaskType:             "RETRIEVAL_DOCUMENT",
	})
}

func getContent(texts []string) []*genai.Content {
	contents := make([]*genai.Content, 0, len(texts))
	for _, t := range texts {
		contents = append(contents, &genai.Content{
			Parts: []*genai.Part{{Text: t}},
		})
	}
	return contents
}
