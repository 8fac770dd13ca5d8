package retrieval_test

import (
	"io"
	"log/slog"
	"testing"

	"docqa/internal/domain"
	"docqa/internal/usecase/retrieval"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func TestFuse_WeightedUnion(t *testing.T) {
	engine := retrieval.NewFusionEngine(0.7, 0.3, discardLogger())

	dense := []domain.ScoredHit{
		{ID: "1", Score: 0.9, Content: "dense one"},
	}
	sparse := []domain.ScoredHit{
		{ID: "1", Score: 0.5, Content: "dense one"},
		{ID: "2", Score: 0.8, Content: "sparse two"},
	}

	fused := engine.Fuse(dense, sparse, 10)

	require.Len(t, fused, 2)
	assert.Equal(t, "1", fused[0].ID)
	assert.InDelta(t, 0.7*0.9+0.3*0.5, fused[0].Score, 1e-9)
	assert.Equal(t, "2", fused[1].ID)
	assert.InDelta(t, 0.3*0.8, fused[1].Score, 1e-9, "missing dense component counts as exactly zero")
}

func TestFuse_DeduplicatesByIdentity(t *testing.T) {
	engine := retrieval.NewFusionEngine(0.7, 0.3, discardLogger())

	dense := []domain.ScoredHit{{ID: "x", Score: 0.6}}
	sparse := []domain.ScoredHit{{ID: "x", Score: 1.5}}

	fused := engine.Fuse(dense, sparse, 10)

	require.Len(t, fused, 1)
	assert.InDelta(t, 0.7*0.6+0.3*1.5, fused[0].Score, 1e-9)
}

func TestFuse_TruncatesToTopK(t *testing.T) {
	engine := retrieval.NewFusionEngine(0.7, 0.3, discardLogger())

	dense := []domain.ScoredHit{
		{ID: "a", Score: 0.9},
		{ID: "b", Score: 0.8},
		{ID: "c", Score: 0.7},
	}

	fused := engine.Fuse(dense, nil, 2)

	require.Len(t, fused, 2)
	assert.Equal(t, "a", fused[0].ID)
	assert.Equal(t, "b", fused[1].ID)
}

func TestFuse_TiesKeepInsertionOrder(t *testing.T) {
	engine := retrieval.NewFusionEngine(0.7, 0.3, discardLogger())

	dense := []domain.ScoredHit{
		{ID: "first", Score: 0.5},
		{ID: "second", Score: 0.5},
	}

	fused := engine.Fuse(dense, nil, 10)

	require.Len(t, fused, 2)
	assert.Equal(t, "first", fused[0].ID)
	assert.Equal(t, "second", fused[1].ID)
}

func TestFuse_Deterministic(t *testing.T) {
	engine := retrieval.NewFusionEngine(0.7, 0.3, discardLogger())

	dense := []domain.ScoredHit{
		{ID: "a", Score: 0.91}, {ID: "b", Score: 0.85}, {ID: "c", Score: 0.4},
	}
	sparse := []domain.ScoredHit{
		{ID: "c", Score: 2.1}, {ID: "d", Score: 1.3}, {ID: "a", Score: 0.2},
	}

	first := engine.Fuse(dense, sparse, 4)
	second := engine.Fuse(dense, sparse, 4)

	assert.Equal(t, first, second)
}

func TestFuse_DoesNotMutateInputs(t *testing.T) {
	engine := retrieval.NewFusionEngine(0.7, 0.3, discardLogger())

	dense := []domain.ScoredHit{{ID: "a", Score: 0.9}}
	sparse := []domain.ScoredHit{{ID: "a", Score: 0.5}}

	engine.Fuse(dense, sparse, 10)

	assert.InDelta(t, 0.9, dense[0].Score, 1e-12)
	assert.InDelta(t, 0.5, sparse[0].Score, 1e-12)
}

func TestFuse_EmptyInputs(t *testing.T) {
	engine := retrieval.NewFusionEngine(0.7, 0.3, discardLogger())

	assert.Empty(t, engine.Fuse(nil, nil, 5))
}
