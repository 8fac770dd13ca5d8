package retrieval

import (
	"log/slog"
	"sort"

	"docqa/internal/domain"
)

// Default fusion weights. Dense similarity dominates; sparse BM25 breaks
// ties and rescues lexical-only matches. The weights need not sum to 1.
const (
	DefaultDenseWeight  = 0.7
	DefaultSparseWeight = 0.3
)

// FusionEngine merges dense and sparse ranked lists by weighted score
// union. Pure and deterministic: identical inputs always produce identical
// output ordering.
type FusionEngine struct {
	DenseWeight  float64
	SparseWeight float64
	logger       *slog.Logger
}

// NewFusionEngine creates an engine; non-positive weights fall back to the
// defaults.
func NewFusionEngine(denseWeight, sparseWeight float64, logger *slog.Logger) *FusionEngine {
	if denseWeight <= 0 {
		denseWeight = DefaultDenseWeight
	}
	if sparseWeight <= 0 {
		sparseWeight = DefaultSparseWeight
	}
	return &FusionEngine{
		DenseWeight:  denseWeight,
		SparseWeight: sparseWeight,
		logger:       logger,
	}
}

// Fuse combines both lists into at most topK hits. Each identity gets
//
//	fused = denseWeight*denseScore + sparseWeight*sparseScore
//
// with a missing component treated as exactly 0. Identities are unique in
// the output; ties keep dense-then-sparse insertion order. If fusion fails
// internally the engine degrades to the dense list truncated to topK, so a
// fusion bug can never take down retrieval while dense results exist.
func (f *FusionEngine) Fuse(dense, sparse []domain.ScoredHit, topK int) (fused []domain.ScoredHit) {
	defer func() {
		if r := recover(); r != nil {
			f.logger.Error("fusion_degraded_to_dense", slog.Any("panic", r))
			fused = truncate(dense, topK)
		}
	}()

	if topK <= 0 {
		return nil
	}

	type fusedEntry struct {
		hit         domain.ScoredHit
		denseScore  float64
		sparseScore float64
	}

	entries := make(map[string]*fusedEntry, len(dense)+len(sparse))
	order := make([]string, 0, len(dense)+len(sparse))

	for _, hit := range dense {
		if _, ok := entries[hit.ID]; !ok {
			entries[hit.ID] = &fusedEntry{hit: hit}
			order = append(order, hit.ID)
		}
		entries[hit.ID].denseScore = hit.Score
	}
	for _, hit := range sparse {
		if _, ok := entries[hit.ID]; !ok {
			entries[hit.ID] = &fusedEntry{hit: hit}
			order = append(order, hit.ID)
		}
		entries[hit.ID].sparseScore = hit.Score
	}

	fused = make([]domain.ScoredHit, 0, len(order))
	for _, id := range order {
		e := entries[id]
		score := f.DenseWeight*e.denseScore + f.SparseWeight*e.sparseScore
		fused = append(fused, e.hit.WithScore(score))
	}

	sort.SliceStable(fused, func(i, j int) bool {
		return fused[i].Score > fused[j].Score
	})

	return truncate(fused, topK)
}

func truncate(hits []domain.ScoredHit, topK int) []domain.ScoredHit {
	if topK >= 0 && len(hits) > topK {
		return hits[:topK]
	}
	return hits
}
