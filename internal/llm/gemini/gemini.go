package gemini

import (
	"context"
	"fmt"

	"github.com/nversa/docchat/internal/config"
	"github.com/nversa/docchat/internal/domain"
	"github.com/nversa/docchat/internal/llm"
	"github.com/nversa/docchat/pkg/logging"
	"google.golang.org/genai"
)

type client struct {
	genAi     *genai.Client
	modelName string
	logger    *logging.Logger
}

func New(ctx context.Context, modelName, apiKey string) (llm.Provider, error) {
	c, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &client{
		genAi:     c,
		modelName: modelName,
		logger:    logging.NewLogger("llm_gemini"),
	}, nil
}

func (c *client) Generate(ctx context.Context, prompt string) (llm.Response, error) {
	contentConfig := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{Text: config.SystemInstruction}},
		},
	}

	result, err := c.genAi.Models.GenerateContent(ctx, c.modelName, genai.Text(prompt), contentConfig)
	if err != nil {
		c.logger.Error("generation failed", "error", err)
		return llm.Response{}, fmt.Errorf("%w: %v", domain.ErrGeneration, err)
	}

	if len(result.Candidates) > 0 && result.Candidates[0].Content != nil {
		parts := result.Candidates[0].Content.Parts
		if len(parts) > 1 {
			texts := make([]string, 0, len(parts))
			for _, p := range parts {
				texts = append(texts, p.Text)
			}
			return llm.Response{Kind: llm.StructuredContent, Parts: texts}, nil
		}
	}
	if text := result.Text(); text != "" {
		return llm.Response{Kind: llm.PlainText, Text: text}, nil
	}
	return llm.Response{Kind: llm.Unknown, Raw: result}, nil
}
