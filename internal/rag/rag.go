// Package rag answers questions against the indexed document corpus:
// embed the question, retrieve the closest chunks, ground the model's
// generation on them, and normalize the reply to plain text.
package rag

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/nversa/docchat/internal/config"
	"github.com/nversa/docchat/internal/domain"
	"github.com/nversa/docchat/internal/embedding"
	"github.com/nversa/docchat/internal/llm"
	"github.com/nversa/docchat/internal/metrics"
	"github.com/nversa/docchat/internal/sanitize"
	"github.com/nversa/docchat/internal/vectorindex"
	"github.com/nversa/docchat/pkg/logging"
)

// Service is the only surface the transport layer sees. Handlers stay
// decoupled from the embedder, the index, and the model behind it.
type Service interface {
	Answer(ctx context.Context, question string) (domain.ChatTurn, error)
}

type service struct {
	embedder embedding.Embedder
	index    vectorindex.Index
	provider llm.Provider
	topK     int
	logger   *logging.Logger
}

func NewService(embedder embedding.Embedder, index vectorindex.Index, provider llm.Provider) Service {
	return &service{
		embedder: embedder,
		index:    index,
		provider: provider,
		topK:     config.RetrievalTopK,
		logger:   logging.NewLogger("rag_service"),
	}
}

// Answer runs the full retrieval pipeline for one question. A question
// that retrieves nothing still goes to the model with an empty context
// block, so the model can say it has nothing to go on.
func (s *service) Answer(ctx context.Context, question string) (domain.ChatTurn, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return domain.ChatTurn{}, fmt.Errorf("%w: question must not be empty", domain.ErrValidation)
	}

	log := s.logger.With("traceId", traceID(ctx))

	vector, err := s.embedQuestion(ctx, question)
	if err != nil {
		log.Error("question embedding failed", "error", err)
		return domain.ChatTurn{}, fmt.Errorf("%w: embedding question: %v", domain.ErrEmbedding, err)
	}

	matches, err := s.searchIndex(ctx, vector)
	if err != nil {
		log.Error("vector search failed", "error", err)
		return domain.ChatTurn{}, fmt.Errorf("%w: searching index: %v", domain.ErrIndex, err)
	}

	contextBlock := assembleContext(matches)
	log.Debug("context assembled", "matches", len(matches))

	resp, err := s.generate(ctx, buildPrompt(contextBlock, question))
	if err != nil {
		log.Error("generation failed", "error", err)
		return domain.ChatTurn{}, fmt.Errorf("%w: %v", domain.ErrGeneration, err)
	}

	answer := sanitize.Answer(resolveAnswer(resp))
	return domain.ChatTurn{
		Question:    question,
		Answer:      answer,
		ContextUsed: contextBlock,
	}, nil
}

func (s *service) embedQuestion(ctx context.Context, question string) ([]float32, error) {
	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("embedding", time.Since(start)) }()

	callCtx, cancel := context.WithTimeout(ctx, config.CallTimeout)
	defer cancel()
	return s.embedder.EmbedQuery(callCtx, question)
}

func (s *service) searchIndex(ctx context.Context, vector []float32) ([]domain.ScoredText, error) {
	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("vector_search", time.Since(start)) }()

	callCtx, cancel := context.WithTimeout(ctx, config.CallTimeout)
	defer cancel()
	return s.index.Query(callCtx, vector, s.topK, s.embedder.Model())
}

func (s *service) generate(ctx context.Context, prompt string) (llm.Response, error) {
	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("llm_generation", time.Since(start)) }()

	callCtx, cancel := context.WithTimeout(ctx, config.CallTimeout)
	defer cancel()
	return s.provider.Generate(callCtx, prompt)
}

func assembleContext(matches []domain.ScoredText) string {
	texts := make([]string, len(matches))
	for i, m := range matches {
		texts[i] = m.Text
	}
	return strings.Join(texts, config.ContextDelimiter)
}

func buildPrompt(contextBlock, question string) string {
	return "Context:\n" + contextBlock + "\n\nUser Question:\n" + question
}

// resolveAnswer flattens the provider response into one string. Structured
// replies are joined part by part; anything unrecognized is serialized
// verbatim so the caller still sees what came back.
func resolveAnswer(resp llm.Response) string {
	switch resp.Kind {
	case llm.PlainText:
		return resp.Text
	case llm.StructuredContent:
		return strings.Join(resp.Parts, "\n")
	default:
		raw, err := json.Marshal(resp.Raw)
		if err != nil {
			return fmt.Sprintf("%v", resp.Raw)
		}
		return string(raw)
	}
}

func traceID(ctx context.Context) string {
	if v, ok := ctx.Value(config.TraceIDKey).(string); ok {
		return v
	}
	return ""
}
