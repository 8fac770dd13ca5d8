package usecase

import (
	"context"
	"log/slog"
	"time"

	"docqa/internal/domain"
	"docqa/internal/usecase/evaluation"
)

// Quality thresholds and iteration bound defaults for the loop.
const (
	DefaultMaxIterations        = 3
	DefaultMinRetrievalQuality  = 0.5
	DefaultMinGenerationQuality = 0.6

	rejectThreshold  = 0.2
	clarifyThreshold = 0.4

	// Below this faithfulness the evidence itself is suspect and the loop
	// goes back to retrieval instead of regenerating.
	suspectEvidenceFaithfulness = 0.3
)

// User-facing terminal messages for the reject and clarify branches.
const (
	rejectAnswer   = "Sorry, no sufficiently relevant information was found to answer your question."
	clarifyAnswer  = "Your question needs more specific detail. Please rephrase it or add more context."
	degradedAnswer = "An answer could not be generated right now. Please try again later."
)

// Retriever is the retrieval collaborator the controller loops over.
type Retriever interface {
	Search(ctx context.Context, query string, topK int, method domain.RetrievalMethod) *domain.RetrievalOutcome
}

// Generator produces an answer from the query, its evidence, and optional
// chat history.
type Generator interface {
	Generate(ctx context.Context, query string, evidence []domain.ScoredHit, history []domain.Message, params domain.GenerationParams) (string, error)
}

// RetrievalJudge and GenerationJudge are the quality evaluators the
// controller consults between stages.
type RetrievalJudge interface {
	Evaluate(query string, outcome *domain.RetrievalOutcome) evaluation.RetrievalQuality
}

type GenerationJudge interface {
	Evaluate(ctx context.Context, query, answer string, evidence []domain.ScoredHit) evaluation.GenerationQuality
}

// loopState enumerates the stages of the self-reflection state machine.
// Transitions: retrieve → evaluateRetrieval → {generate | retrieve |
// finalize}; generate → evaluateGeneration → {finalize | retrieve |
// generate}.
type loopState int

const (
	stateRetrieve loopState = iota
	stateGenerate
	stateFinalize
)

// SelfRAGController runs the retrieve → evaluate → generate → evaluate
// loop with bounded retries. One invocation owns all of its state; a
// single controller may serve concurrent requests.
type SelfRAGController struct {
	retriever      Retriever
	generator      Generator
	retrievalEval  RetrievalJudge
	generationEval GenerationJudge

	maxIterations        int
	minRetrievalQuality  float64
	minGenerationQuality float64

	logger *slog.Logger
}

// SelfRAGOption tweaks controller thresholds.
type SelfRAGOption func(*SelfRAGController)

// WithMaxIterations bounds the loop; values below 1 are ignored.
func WithMaxIterations(n int) SelfRAGOption {
	return func(c *SelfRAGController) {
		if n >= 1 {
			c.maxIterations = n
		}
	}
}

// WithQualityThresholds overrides the minimum retrieval and generation
// quality; non-positive values keep the defaults.
func WithQualityThresholds(retrieval, generation float64) SelfRAGOption {
	return func(c *SelfRAGController) {
		if retrieval > 0 {
			c.minRetrievalQuality = retrieval
		}
		if generation > 0 {
			c.minGenerationQuality = generation
		}
	}
}

// NewSelfRAGController wires the loop's collaborators.
func NewSelfRAGController(
	retriever Retriever,
	generator Generator,
	retrievalEval RetrievalJudge,
	generationEval GenerationJudge,
	logger *slog.Logger,
	opts ...SelfRAGOption,
) *SelfRAGController {
	c := &SelfRAGController{
		retriever:            retriever,
		generator:            generator,
		retrievalEval:        retrievalEval,
		generationEval:       generationEval,
		maxIterations:        DefaultMaxIterations,
		minRetrievalQuality:  DefaultMinRetrievalQuality,
		minGenerationQuality: DefaultMinGenerationQuality,
		logger:               logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Execute runs the full self-reflective loop for one query. Zero-valued
// params fall back to the defaults. It always returns an outcome:
// collaborator failures and exhausted iterations degrade the answer and
// confidence instead of propagating errors.
func (c *SelfRAGController) Execute(ctx context.Context, query string, history []domain.Message, params RetrievalParams) *SelfRAGOutcome {
	start := time.Now()

	if params.TopK <= 0 {
		params.TopK = DefaultTopK
	}
	if params.Method == "" {
		params.Method = domain.MethodHybrid
	}

	state := &IterationState{
		RetrievalParams:  params,
		GenerationParams: domain.DefaultGenerationParams(),
	}

	outcome := &SelfRAGOutcome{Query: query}

	var (
		current     = stateRetrieve
		lastOutcome *domain.RetrievalOutcome
		lastAnswer  string
		lastSources []domain.ScoredHit
	)

	for current != stateFinalize {
		if state.Iteration >= c.maxIterations {
			outcome.IterationsExhausted = true
			break
		}
		if err := ctx.Err(); err != nil {
			// caller cancelled: finish with the best partial answer we have
			c.logger.Warn("self_rag_cancelled",
				slog.Int("iteration", state.Iteration),
				slog.String("reason", err.Error()))
			break
		}
		state.Iteration++

		c.logger.Info("self_rag_iteration_started",
			slog.Int("iteration", state.Iteration),
			slog.Int("top_k", state.RetrievalParams.TopK),
			slog.String("method", string(state.RetrievalParams.Method)))

		if current == stateRetrieve {
			lastOutcome = c.retriever.Search(ctx, query, state.RetrievalParams.TopK, state.RetrievalParams.Method)
			quality := c.retrievalEval.Evaluate(query, lastOutcome)
			outcome.RetrievalQuality = &quality

			action := c.decideRetrievalAction(quality)
			state.record(action)

			c.logger.Info("retrieval_evaluated",
				slog.Float64("relevance", quality.RelevanceScore),
				slog.Bool("sufficient", quality.IsSufficient),
				slog.String("action", string(action)))

			switch action {
			case ActionReject:
				lastAnswer = rejectAnswer
				lastSources = nil
				current = stateFinalize
				continue
			case ActionClarify:
				lastAnswer = clarifyAnswer
				lastSources = nil
				current = stateFinalize
				continue
			case ActionRetrieve:
				if state.Iteration < c.maxIterations {
					state.RetrievalParams = c.adjustRetrievalParams(state.RetrievalParams, quality)
					continue
				}
				// out of retries: generate from what we have
			}
		}

		answer, err := c.generator.Generate(ctx, query, lastOutcome.FusedHits, history, state.GenerationParams)
		if err != nil {
			c.logger.Error("generation_failed",
				slog.Int("iteration", state.Iteration),
				slog.String("error", err.Error()))
			lastAnswer = degradedAnswer
			lastSources = nil
			state.record(ActionImprove)
			current = stateGenerate
			continue
		}
		lastAnswer = answer
		lastSources = lastOutcome.FusedHits

		quality := c.generationEval.Evaluate(ctx, query, answer, lastOutcome.FusedHits)
		outcome.GenerationQuality = &quality

		action := c.decideGenerationAction(quality)
		state.record(action)

		c.logger.Info("generation_evaluated",
			slog.Float64("overall", quality.Overall),
			slog.Bool("reliable", quality.IsReliable),
			slog.String("action", string(action)))

		switch action {
		case ActionRetrieve:
			// evidence is suspect: restart from retrieval
			state.RetrievalParams = c.adjustRetrievalParams(state.RetrievalParams, *outcome.RetrievalQuality)
			current = stateRetrieve
		case ActionImprove:
			state.GenerationParams = c.adjustGenerationParams(state.GenerationParams, quality)
			current = stateGenerate
		default:
			current = stateFinalize
		}
	}

	outcome.FinalAnswer = lastAnswer
	outcome.Sources = lastSources
	outcome.ActionsTaken = state.ActionsTaken
	outcome.IterationCount = state.Iteration
	outcome.Confidence = overallConfidence(outcome.RetrievalQuality, outcome.GenerationQuality)
	outcome.Elapsed = time.Since(start)

	if outcome.FinalAnswer == "" {
		outcome.FinalAnswer = degradedAnswer
	}

	c.logger.Info("self_rag_completed",
		slog.Int("iterations", outcome.IterationCount),
		slog.Float64("confidence", outcome.Confidence),
		slog.Bool("exhausted", outcome.IterationsExhausted),
		slog.Int64("duration_ms", outcome.Elapsed.Milliseconds()))

	return outcome
}

func (c *SelfRAGController) decideRetrievalAction(quality evaluation.RetrievalQuality) Action {
	switch {
	case quality.RelevanceScore >= c.minRetrievalQuality && quality.IsSufficient:
		return ActionContinue
	case quality.RelevanceScore < rejectThreshold:
		return ActionReject
	case quality.RelevanceScore < clarifyThreshold:
		return ActionClarify
	default:
		return ActionRetrieve
	}
}

func (c *SelfRAGController) decideGenerationAction(quality evaluation.GenerationQuality) Action {
	switch {
	case quality.Overall >= c.minGenerationQuality && quality.IsReliable:
		return ActionContinue
	case quality.Faithfulness < suspectEvidenceFaithfulness:
		return ActionRetrieve
	case quality.Overall < c.minGenerationQuality:
		return ActionImprove
	default:
		return ActionContinue
	}
}

func (c *SelfRAGController) adjustRetrievalParams(params RetrievalParams, quality evaluation.RetrievalQuality) RetrievalParams {
	if quality.HasIssue(evaluation.IssueLowDiversity) {
		params.TopK += topKDiversityStep
	}
	if quality.HasIssue(evaluation.IssueDuplicateContent) {
		params.Method = domain.MethodDense
	}
	if quality.HasIssue(evaluation.IssueLowRelevance) {
		params.Method = domain.MethodHybrid
		params.TopK = params.TopK + topKRelevanceStep
		if params.TopK > maxAdjustedTopK {
			params.TopK = maxAdjustedTopK
		}
	}
	c.logger.Debug("retrieval_params_adjusted",
		slog.Int("top_k", params.TopK),
		slog.String("method", string(params.Method)))
	return params
}

func (c *SelfRAGController) adjustGenerationParams(params domain.GenerationParams, quality evaluation.GenerationQuality) domain.GenerationParams {
	if quality.Faithfulness < 0.5 {
		params.Temperature = adjustedTemperature
	}
	if quality.Completeness < 0.5 {
		params.MaxTokens += maxTokensGrowthStep
	}
	if quality.HasIssue(evaluation.IssueExcessiveHedging) {
		params.Temperature = clampedTemperature
	}
	c.logger.Debug("generation_params_adjusted",
		slog.Float64("temperature", params.Temperature),
		slog.Int("max_tokens", params.MaxTokens))
	return params
}

func overallConfidence(r *evaluation.RetrievalQuality, g *evaluation.GenerationQuality) float64 {
	if r == nil || g == nil {
		return 0.0
	}
	confidence := 0.4*(r.RelevanceScore*r.Confidence) + 0.6*(g.Overall*g.Confidence)
	if confidence > 1 {
		confidence = 1
	}
	return confidence
}
