package openaichat

import (
	"context"
	"fmt"

	"github.com/nversa/docchat/internal/config"
	"github.com/nversa/docchat/internal/domain"
	"github.com/nversa/docchat/internal/llm"
	"github.com/nversa/docchat/pkg/logging"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

type client struct {
	api       openai.Client
	modelName string
	logger    *logging.Logger
}

func New(modelName, apiKey string) llm.Provider {
	return &client{
		api:       openai.NewClient(option.WithAPIKey(apiKey)),
		modelName: modelName,
		logger:    logging.NewLogger("llm_openai"),
	}
}

func (c *client) Generate(ctx context.Context, prompt string) (llm.Response, error) {
	resp, err := c.api.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.modelName),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(config.SystemInstruction),
			openai.UserMessage(prompt),
		},
	})
	if err != nil {
		c.logger.Error("generation failed", "error", err)
		return llm.Response{}, fmt.Errorf("%w: %v", domain.ErrGeneration, err)
	}
	if len(resp.Choices) == 0 {
		return llm.Response{Kind: llm.Unknown, Raw: resp}, nil
	}
	return llm.Response{Kind: llm.PlainText, Text: resp.Choices[0].Message.Content}, nil
}
