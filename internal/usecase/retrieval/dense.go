package retrieval

import (
	"context"
	"log/slog"

	"docqa/internal/domain"
)

// DefaultSimilarityFloor drops vector hits whose cosine similarity is too
// low to be evidence. Applied after index search, not as an index
// constraint.
const DefaultSimilarityFloor = 0.3

// DenseSearcher embeds the query and searches the vector index, filtering
// out hits below the similarity floor. Collaborator failures degrade to an
// empty result.
type DenseSearcher struct {
	encoder domain.VectorEncoder
	index   domain.VectorIndex
	floor   float64
	logger  *slog.Logger
}

// NewDenseSearcher wires the embedding and index collaborators. A
// non-positive floor falls back to the default.
func NewDenseSearcher(encoder domain.VectorEncoder, index domain.VectorIndex, floor float64, logger *slog.Logger) *DenseSearcher {
	if floor <= 0 {
		floor = DefaultSimilarityFloor
	}
	return &DenseSearcher{
		encoder: encoder,
		index:   index,
		floor:   floor,
		logger:  logger,
	}
}

// Search returns up to topK hits with similarity at or above the floor,
// ranked by the index. Embedding or index errors are logged and yield an
// empty slice.
func (d *DenseSearcher) Search(ctx context.Context, query string, topK int) []domain.ScoredHit {
	if topK <= 0 {
		return nil
	}

	embeddings, err := d.encoder.Encode(ctx, []string{query})
	if err != nil {
		d.logger.Error("dense_search_embed_failed", slog.String("error", err.Error()))
		return nil
	}
	if len(embeddings) == 0 || len(embeddings[0]) == 0 {
		d.logger.Warn("dense_search_empty_embedding", slog.String("query", query))
		return nil
	}

	raw, err := d.index.Search(ctx, embeddings[0], topK)
	if err != nil {
		d.logger.Error("dense_search_index_failed", slog.String("error", err.Error()))
		return nil
	}

	filtered := make([]domain.ScoredHit, 0, len(raw))
	for _, hit := range raw {
		if hit.Score >= d.floor {
			filtered = append(filtered, hit)
		}
	}

	d.logger.Debug("dense_search_completed",
		slog.Int("raw_hits", len(raw)),
		slog.Int("filtered_hits", len(filtered)),
		slog.Float64("floor", d.floor))

	return filtered
}
