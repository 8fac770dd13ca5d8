package domain

import "context"

// VectorEncoder generates embeddings for texts. Implementations call the
// embedding collaborator with their own timeout and bounded retry; the core
// treats any error as an empty result.
type VectorEncoder interface {
	Encode(ctx context.Context, texts []string) ([][]float32, error)
	Version() string
}

// VectorIndex performs nearest-neighbor search over chunk embeddings.
// Scores are cosine similarities in [-1, 1]; the index may return more
// candidates than survive the caller's similarity floor.
type VectorIndex interface {
	Search(ctx context.Context, vector []float32, k int) ([]ScoredHit, error)
}
