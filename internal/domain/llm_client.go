package domain

import "context"

// Message is one turn of a chat exchange sent to the LLM.
type Message struct {
	Role    string // system, user, assistant
	Content string
}

// GenerationParams are the per-call knobs the controller adjusts between
// retries.
type GenerationParams struct {
	Temperature float64
	MaxTokens   int
}

// DefaultGenerationParams returns the starting generation knobs.
func DefaultGenerationParams() GenerationParams {
	return GenerationParams{Temperature: 0.7, MaxTokens: 4096}
}

// LLMClient sends chat messages to the generation collaborator.
// Implementations own timeout, rate limiting, and bounded retry with
// backoff; a failure surfaces as an error, never a hang.
type LLMClient interface {
	Complete(ctx context.Context, messages []Message, params GenerationParams) (string, error)
	// CompleteStream returns a fragment channel and an error channel. The
	// fragment channel is closed when generation finishes.
	CompleteStream(ctx context.Context, messages []Message, params GenerationParams) (<-chan string, <-chan error, error)
	Version() string
}
