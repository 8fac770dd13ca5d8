package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"

	"docqa/internal/domain"
	"docqa/internal/usecase/evaluation"
)

// Answer cache sizing and admission. Only confident answers are cached so
// a degraded result never shadows a later healthy one.
const (
	answerCacheSize    = 512
	answerCacheTTL     = 10 * time.Minute
	cacheMinConfidence = 0.5
	snippetMaxRunes    = 200
)

// AnswerInput drives one question-answering request.
type AnswerInput struct {
	Query   string
	TopK    int
	Method  domain.RetrievalMethod
	History []domain.Message
}

// SourceRef is the caller-facing citation for one evidence chunk.
type SourceRef struct {
	ChunkID     string  `json:"chunk_id"`
	SourceDocID string  `json:"source_doc_id"`
	ChunkIndex  int     `json:"chunk_index"`
	Score       float64 `json:"score"`
	Snippet     string  `json:"snippet"`
}

// AnswerOutput is the normalized answer response returned to API clients.
type AnswerOutput struct {
	AnswerID            string                                `json:"answer_id"`
	Query               string                                `json:"query"`
	Answer              string                                `json:"answer"`
	Confidence          float64                               `json:"confidence"`
	ActionsTaken        []Action                              `json:"actions_taken"`
	IterationCount      int                                   `json:"iteration_count"`
	IterationsExhausted bool                                  `json:"iterations_exhausted"`
	Sources             []SourceRef                           `json:"sources"`
	RetrievalQuality    *evaluation.RetrievalQualitySummary   `json:"retrieval_quality,omitempty"`
	GenerationQuality   *evaluation.GenerationQualitySummary  `json:"generation_quality,omitempty"`
	ElapsedMillis       int64                                 `json:"elapsed_ms"`
	Cached              bool                                  `json:"cached"`
}

// StreamEventKind tags one event on the answer stream.
type StreamEventKind string

const (
	StreamEventKindMeta     StreamEventKind = "meta"
	StreamEventKindDelta    StreamEventKind = "delta"
	StreamEventKindDone     StreamEventKind = "done"
	StreamEventKindFallback StreamEventKind = "fallback"
	StreamEventKindError    StreamEventKind = "error"
)

// StreamEvent is one message on the answer stream.
type StreamEvent struct {
	Kind    StreamEventKind
	Payload any
}

// StreamMeta opens a stream with the request ID and the evidence that
// will ground the answer.
type StreamMeta struct {
	AnswerID string      `json:"answer_id"`
	Sources  []SourceRef `json:"sources"`
}

// AnswerUsecase is the application entry point for grounded QA.
type AnswerUsecase interface {
	// Execute runs the full self-reflective loop and returns one answer.
	Execute(ctx context.Context, input AnswerInput) (*AnswerOutput, error)
	// Stream runs a single retrieval pass and streams the generated answer
	// as it is produced. The reflection loop needs complete answers to
	// evaluate, so streamed answers skip it.
	Stream(ctx context.Context, input AnswerInput) <-chan StreamEvent
}

type answerUsecase struct {
	controller *SelfRAGController
	retriever  Retriever
	generator  *LLMGenerator
	evaluator  RetrievalJudge
	cache      *expirable.LRU[string, *AnswerOutput]
	logger     *slog.Logger
}

// NewAnswerUsecase wires the QA entry point.
func NewAnswerUsecase(
	controller *SelfRAGController,
	retriever Retriever,
	generator *LLMGenerator,
	evaluator RetrievalJudge,
	logger *slog.Logger,
) AnswerUsecase {
	return &answerUsecase{
		controller: controller,
		retriever:  retriever,
		generator:  generator,
		evaluator:  evaluator,
		cache:      expirable.NewLRU[string, *AnswerOutput](answerCacheSize, nil, answerCacheTTL),
		logger:     logger,
	}
}

func (u *answerUsecase) Execute(ctx context.Context, input AnswerInput) (*AnswerOutput, error) {
	if strings.TrimSpace(input.Query) == "" {
		return nil, fmt.Errorf("query is required")
	}

	key := cacheKey(input)
	// multi-turn requests are personalized by history and bypass the cache
	if len(input.History) == 0 {
		if cached, ok := u.cache.Get(key); ok {
			u.logger.Debug("answer_cache_hit", slog.String("answer_id", cached.AnswerID))
			hit := *cached
			hit.Cached = true
			return &hit, nil
		}
	}

	outcome := u.controller.Execute(ctx, input.Query, input.History, RetrievalParams{
		TopK:   input.TopK,
		Method: input.Method,
	})

	output := &AnswerOutput{
		AnswerID:            uuid.NewString(),
		Query:               outcome.Query,
		Answer:              outcome.FinalAnswer,
		Confidence:          outcome.Confidence,
		ActionsTaken:        outcome.ActionsTaken,
		IterationCount:      outcome.IterationCount,
		IterationsExhausted: outcome.IterationsExhausted,
		Sources:             sourceRefs(outcome.Sources),
		ElapsedMillis:       outcome.Elapsed.Milliseconds(),
	}
	if outcome.RetrievalQuality != nil {
		summary := outcome.RetrievalQuality.Summary()
		output.RetrievalQuality = &summary
	}
	if outcome.GenerationQuality != nil {
		summary := outcome.GenerationQuality.Summary()
		output.GenerationQuality = &summary
	}

	if len(input.History) == 0 && output.Confidence >= cacheMinConfidence {
		u.cache.Add(key, output)
	}

	return output, nil
}

func (u *answerUsecase) Stream(ctx context.Context, input AnswerInput) <-chan StreamEvent {
	events := make(chan StreamEvent)

	go func() {
		defer close(events)

		if strings.TrimSpace(input.Query) == "" {
			events <- StreamEvent{Kind: StreamEventKindError, Payload: "query is required"}
			return
		}

		topK := input.TopK
		if topK <= 0 {
			topK = DefaultTopK
		}
		method := input.Method
		if method == "" {
			method = domain.MethodHybrid
		}

		outcome := u.retriever.Search(ctx, input.Query, topK, method)
		quality := u.evaluator.Evaluate(input.Query, outcome)
		if quality.HasIssue(evaluation.IssueNoResults) {
			events <- StreamEvent{Kind: StreamEventKindFallback, Payload: "no relevant documents found"}
			return
		}

		answerID := uuid.NewString()
		events <- StreamEvent{Kind: StreamEventKindMeta, Payload: StreamMeta{
			AnswerID: answerID,
			Sources:  sourceRefs(outcome.FusedHits),
		}}

		fragments, errs, err := u.generator.GenerateStream(ctx, input.Query, outcome.FusedHits, input.History, domain.DefaultGenerationParams())
		if err != nil {
			u.logger.Error("stream_generation_failed", slog.String("error", err.Error()))
			events <- StreamEvent{Kind: StreamEventKindFallback, Payload: "generation unavailable"}
			return
		}

		for fragments != nil || errs != nil {
			select {
			case <-ctx.Done():
				events <- StreamEvent{Kind: StreamEventKindError, Payload: ctx.Err().Error()}
				return
			case fragment, ok := <-fragments:
				if !ok {
					fragments = nil
					continue
				}
				events <- StreamEvent{Kind: StreamEventKindDelta, Payload: fragment}
			case streamErr, ok := <-errs:
				if !ok {
					errs = nil
					continue
				}
				if streamErr != nil {
					u.logger.Error("stream_interrupted", slog.String("error", streamErr.Error()))
					events <- StreamEvent{Kind: StreamEventKindError, Payload: streamErr.Error()}
					return
				}
			}
		}

		events <- StreamEvent{Kind: StreamEventKindDone, Payload: StreamMeta{AnswerID: answerID}}
	}()

	return events
}

func cacheKey(input AnswerInput) string {
	return fmt.Sprintf("%s|%s|%d", strings.ToLower(strings.TrimSpace(input.Query)), input.Method, input.TopK)
}

func sourceRefs(hits []domain.ScoredHit) []SourceRef {
	refs := make([]SourceRef, 0, len(hits))
	for _, hit := range hits {
		refs = append(refs, SourceRef{
			ChunkID:     hit.ID,
			SourceDocID: hit.SourceDocID,
			ChunkIndex:  hit.ChunkIndex,
			Score:       hit.Score,
			Snippet:     snippet(hit.Content),
		})
	}
	return refs
}

func snippet(content string) string {
	runes := []rune(strings.TrimSpace(content))
	if len(runes) <= snippetMaxRunes {
		return string(runes)
	}
	return string(runes[:snippetMaxRunes]) + "…"
}
