package retrieval

import (
	"context"
	"log/slog"
	"sort"

	"docqa/internal/domain"
)

const (
	queryKeywordLimit    = 10
	documentKeywordLimit = 20
)

// SparseRetriever scores candidates with keyword-gated BM25. Corpus
// statistics are built from the candidate set passed to each call, so the
// retriever itself is stateless and safe for concurrent use.
type SparseRetriever struct {
	keywords *domain.KeywordExtractor
	scorer   domain.BM25Scorer
	logger   *slog.Logger
}

// NewSparseRetriever creates a sparse retriever with default BM25
// parameters.
func NewSparseRetriever(logger *slog.Logger) *SparseRetriever {
	return &SparseRetriever{
		keywords: domain.NewKeywordExtractor(),
		scorer:   domain.NewBM25Scorer(),
		logger:   logger,
	}
}

// Search ranks candidates against the query. A candidate sharing no
// keywords with the query is discarded outright; survivors are scored with
// BM25 amplified by the keyword-overlap ratio:
//
//	final = bm25 * (1 + |matched| / |queryKeywords|)
//
// Returns at most topK hits sorted by final score descending. Failure to
// extract query keywords skips sparse search entirely.
func (r *SparseRetriever) Search(ctx context.Context, query string, candidates []domain.CandidateDocument, topK int) []domain.ScoredHit {
	if topK <= 0 || len(candidates) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		r.logger.Warn("sparse_search_cancelled", slog.String("reason", err.Error()))
		return nil
	}

	queryKeywords := r.keywords.ExtractKeywords(query, queryKeywordLimit)
	if len(queryKeywords) == 0 {
		r.logger.Warn("sparse_search_no_query_keywords", slog.String("query", query))
		return nil
	}
	querySet := make(map[string]struct{}, len(queryKeywords))
	for _, kw := range queryKeywords {
		querySet[kw] = struct{}{}
	}

	queryTerms := domain.Tokenize(query)

	docTerms := make([][]string, len(candidates))
	for i, cand := range candidates {
		docTerms[i] = domain.Tokenize(cand.Content)
	}
	stats := domain.BuildCorpusStats(docTerms)

	var hits []domain.ScoredHit
	for i, cand := range candidates {
		matched := r.matchedKeywords(cand.Content, querySet)
		if matched == 0 {
			// hard gate: zero keyword overlap disqualifies the candidate
			// regardless of its BM25 score
			continue
		}

		bm25 := r.scorer.Score(queryTerms, docTerms[i], stats)
		boost := float64(matched) / float64(len(queryKeywords))
		final := bm25 * (1 + boost)

		hits = append(hits, cand.Hit(final))
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Score > hits[j].Score
	})
	if len(hits) > topK {
		hits = hits[:topK]
	}

	r.logger.Debug("sparse_search_completed",
		slog.Int("candidates", len(candidates)),
		slog.Int("matched", len(hits)),
		slog.Any("query_keywords", queryKeywords))

	return hits
}

func (r *SparseRetriever) matchedKeywords(content string, querySet map[string]struct{}) int {
	docKeywords := r.keywords.ExtractKeywords(content, documentKeywordLimit)
	matched := 0
	for _, kw := range docKeywords {
		if _, ok := querySet[kw]; ok {
			matched++
		}
	}
	return matched
}
