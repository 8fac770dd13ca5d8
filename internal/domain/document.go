package domain

import "context"

// CandidateDocument is a chunk record eligible for lexical scoring. It is
// the raw material SparseRetriever works on; scores are assigned only after
// keyword gating and BM25.
type CandidateDocument struct {
	ID          string
	Content     string
	Metadata    map[string]string
	SourceDocID string
	ChunkIndex  int
}

// Hit converts the candidate into a ScoredHit with the given score.
func (d CandidateDocument) Hit(score float64) ScoredHit {
	return ScoredHit{
		ID:          d.ID,
		Score:       score,
		Content:     d.Content,
		Metadata:    d.Metadata,
		SourceDocID: d.SourceDocID,
		ChunkIndex:  d.ChunkIndex,
	}
}

// CandidateSource supplies the in-memory candidate set for sparse
// retrieval. Backed by the chunk store; metadata is parsed once at this
// boundary so the core never touches raw JSON.
type CandidateSource interface {
	FetchCandidates(ctx context.Context) ([]CandidateDocument, error)
}
