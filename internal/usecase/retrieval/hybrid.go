package retrieval

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"docqa/internal/domain"
)

// HybridRetriever is the unified retrieval entry point. It runs the dense
// and sparse legs (concurrently in hybrid mode), fuses their rankings, and
// packages everything into a RetrievalOutcome. Collaborator failures never
// propagate; the worst case is an outcome with no hits, which the quality
// evaluator handles like any other poor result.
type HybridRetriever struct {
	dense  *DenseSearcher
	sparse *SparseRetriever
	source domain.CandidateSource
	fusion *FusionEngine
	logger *slog.Logger
}

// NewHybridRetriever wires the retrieval legs together.
func NewHybridRetriever(
	dense *DenseSearcher,
	sparse *SparseRetriever,
	source domain.CandidateSource,
	fusion *FusionEngine,
	logger *slog.Logger,
) *HybridRetriever {
	return &HybridRetriever{
		dense:  dense,
		sparse: sparse,
		source: source,
		fusion: fusion,
		logger: logger,
	}
}

// Search retrieves up to topK hits using the requested method. Hybrid mode
// over-fetches each leg at 2*topK before fusion so both rankings have
// enough depth to contribute.
func (h *HybridRetriever) Search(ctx context.Context, query string, topK int, method domain.RetrievalMethod) *domain.RetrievalOutcome {
	start := time.Now()

	outcome := &domain.RetrievalOutcome{
		Query:  query,
		Method: method,
	}

	switch method {
	case domain.MethodDense:
		hits := h.dense.Search(ctx, query, topK)
		outcome.DenseHits = hits
		outcome.FusedHits = hits
	case domain.MethodSparse:
		hits := h.sparseSearch(ctx, query, topK)
		outcome.SparseHits = hits
		outcome.FusedHits = hits
	default:
		outcome.Method = domain.MethodHybrid
		h.hybridSearch(ctx, query, topK, outcome)
	}

	outcome.Elapsed = time.Since(start)

	h.logger.Info("retrieval_completed",
		slog.String("method", string(outcome.Method)),
		slog.Int("dense_hits", len(outcome.DenseHits)),
		slog.Int("sparse_hits", len(outcome.SparseHits)),
		slog.Int("fused_hits", len(outcome.FusedHits)),
		slog.Int64("duration_ms", outcome.Elapsed.Milliseconds()))

	return outcome
}

func (h *HybridRetriever) hybridSearch(ctx context.Context, query string, topK int, outcome *domain.RetrievalOutcome) {
	fetchK := topK * 2

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		outcome.DenseHits = h.dense.Search(gctx, query, fetchK)
		return nil
	})
	g.Go(func() error {
		outcome.SparseHits = h.sparseSearch(gctx, query, fetchK)
		return nil
	})
	// legs report failures as empty slices, never as errors
	_ = g.Wait()

	outcome.FusedHits = h.fusion.Fuse(outcome.DenseHits, outcome.SparseHits, topK)
}

func (h *HybridRetriever) sparseSearch(ctx context.Context, query string, topK int) []domain.ScoredHit {
	candidates, err := h.source.FetchCandidates(ctx)
	if err != nil {
		h.logger.Error("candidate_fetch_failed", slog.String("error", err.Error()))
		return nil
	}
	return h.sparse.Search(ctx, query, candidates, topK)
}
