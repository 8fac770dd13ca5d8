package domain

import "time"

// RetrievalMethod tags how a result set was produced.
type RetrievalMethod string

const (
	MethodDense  RetrievalMethod = "dense"
	MethodSparse RetrievalMethod = "sparse"
	MethodHybrid RetrievalMethod = "hybrid"
)

// ScoredHit is one retrieved chunk with its relevance score. The score
// scheme depends on the producing stage: cosine similarity for dense hits,
// boosted BM25 for sparse hits, and the weighted combination after fusion.
// Hits are value objects; fusion creates new hits rather than mutating the
// inputs.
type ScoredHit struct {
	ID          string
	Score       float64
	Content     string
	Metadata    map[string]string
	SourceDocID string
	ChunkIndex  int
}

// WithScore returns a copy of the hit carrying a recomputed score.
func (h ScoredHit) WithScore(score float64) ScoredHit {
	h.Score = score
	return h
}

// RetrievalOutcome is the result of one retrieval call. FusedHits is sorted
// by score descending with hit IDs unique; DenseHits and SparseHits keep
// the per-leg rankings for evaluation and debugging.
type RetrievalOutcome struct {
	Query      string
	FusedHits  []ScoredHit
	DenseHits  []ScoredHit
	SparseHits []ScoredHit
	Method     RetrievalMethod
	Elapsed    time.Duration
}

// Empty reports whether retrieval produced no usable hits.
func (o *RetrievalOutcome) Empty() bool {
	return o == nil || len(o.FusedHits) == 0
}
