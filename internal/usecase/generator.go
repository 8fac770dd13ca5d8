package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"docqa/internal/domain"
)

// LLMGenerator turns evidence and a query into an answer through the chat
// collaborator. It satisfies the controller's Generator contract.
type LLMGenerator struct {
	builder PromptBuilder
	client  domain.LLMClient
	logger  *slog.Logger
}

// NewLLMGenerator wires the prompt builder and chat client together.
func NewLLMGenerator(builder PromptBuilder, client domain.LLMClient, logger *slog.Logger) *LLMGenerator {
	return &LLMGenerator{
		builder: builder,
		client:  client,
		logger:  logger,
	}
}

// Generate produces a single complete answer.
func (g *LLMGenerator) Generate(ctx context.Context, query string, evidence []domain.ScoredHit, history []domain.Message, params domain.GenerationParams) (string, error) {
	messages := g.builder.Build(query, evidence, history)

	answer, err := g.client.Complete(ctx, messages, params)
	if err != nil {
		return "", fmt.Errorf("llm completion: %w", err)
	}
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return "", fmt.Errorf("llm returned an empty answer")
	}

	g.logger.Debug("answer_generated",
		slog.Int("evidence_count", len(evidence)),
		slog.Int("answer_chars", len(answer)),
		slog.String("model", g.client.Version()))

	return answer, nil
}

// GenerateStream produces the answer as a fragment stream. Used by the
// single-pass streaming path; the self-reflection loop needs complete
// answers and uses Generate.
func (g *LLMGenerator) GenerateStream(ctx context.Context, query string, evidence []domain.ScoredHit, history []domain.Message, params domain.GenerationParams) (<-chan string, <-chan error, error) {
	messages := g.builder.Build(query, evidence, history)
	return g.client.CompleteStream(ctx, messages, params)
}
