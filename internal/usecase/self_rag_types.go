package usecase

import (
	"time"

	"docqa/internal/domain"
	"docqa/internal/usecase/evaluation"
)

// Action is a control decision made by the self-reflection loop after a
// quality evaluation. Actions are recorded in order so callers can see why
// the loop ended where it did.
type Action string

const (
	// ActionContinue accepts the current stage's output and moves on.
	ActionContinue Action = "continue"
	// ActionRetrieve re-runs retrieval with adjusted parameters.
	ActionRetrieve Action = "retrieve"
	// ActionClarify ends the loop asking the user to refine the question.
	ActionClarify Action = "clarify"
	// ActionReject ends the loop declining to answer.
	ActionReject Action = "reject"
	// ActionImprove regenerates the answer with adjusted parameters.
	ActionImprove Action = "improve"
)

// Default retrieval knobs for a loop iteration.
const (
	DefaultTopK         = 5
	maxAdjustedTopK     = 10
	topKDiversityStep   = 3
	topKRelevanceStep   = 2
	adjustedTemperature = 0.3
	clampedTemperature  = 0.1
	maxTokensGrowthStep = 1000
)

// RetrievalParams are the per-iteration retrieval knobs the controller
// adjusts between retries.
type RetrievalParams struct {
	TopK   int
	Method domain.RetrievalMethod
}

// DefaultRetrievalParams returns the starting knobs for a fresh loop.
func DefaultRetrievalParams() RetrievalParams {
	return RetrievalParams{TopK: DefaultTopK, Method: domain.MethodHybrid}
}

// IterationState is the loop-private state of one controller invocation.
// It is created at the start of the call and discarded at the end; nothing
// is shared across concurrent invocations.
type IterationState struct {
	Iteration        int
	RetrievalParams  RetrievalParams
	GenerationParams domain.GenerationParams
	ActionsTaken     []Action
}

func (s *IterationState) record(action Action) {
	s.ActionsTaken = append(s.ActionsTaken, action)
}

// SelfRAGOutcome is the terminal result of one self-reflective answer
// loop. It is always produced, even when every collaborator fails; total
// failure degrades to an explanatory answer with zero confidence.
type SelfRAGOutcome struct {
	Query               string
	FinalAnswer         string
	ActionsTaken        []Action
	RetrievalQuality    *evaluation.RetrievalQuality
	GenerationQuality   *evaluation.GenerationQuality
	IterationCount      int
	Confidence          float64
	Sources             []domain.ScoredHit
	Elapsed             time.Duration
	IterationsExhausted bool
}
