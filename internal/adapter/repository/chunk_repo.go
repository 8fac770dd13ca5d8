package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"docqa/internal/domain"
)

// Candidate fetches are capped so a large corpus cannot blow up the
// in-memory lexical scoring pass.
const defaultCandidateLimit = 2000

// ChunkRepository reads document chunks from Postgres. It backs both
// retrieval legs: vector search over the pgvector embedding column and
// the candidate fetch for lexical scoring.
type ChunkRepository struct {
	pool           *pgxpool.Pool
	candidateLimit int
	logger         *slog.Logger
}

// NewChunkRepository creates a chunk repository on the shared pool.
// candidateLimit <= 0 falls back to the default cap.
func NewChunkRepository(pool *pgxpool.Pool, candidateLimit int, logger *slog.Logger) *ChunkRepository {
	if candidateLimit <= 0 {
		candidateLimit = defaultCandidateLimit
	}
	return &ChunkRepository{
		pool:           pool,
		candidateLimit: candidateLimit,
		logger:         logger,
	}
}

// Search returns the k nearest chunks by cosine similarity, best first.
// The score is cosine similarity in [-1, 1]; floor filtering happens in
// the caller, not in SQL.
func (r *ChunkRepository) Search(ctx context.Context, vector []float32, k int) ([]domain.ScoredHit, error) {
	query := `
		SELECT id, content, metadata, source_doc_id, chunk_index,
		       1 - (embedding <=> $1) AS score
		FROM document_chunks
		ORDER BY embedding <=> $1
		LIMIT $2
	`
	rows, err := r.pool.Query(ctx, query, pgvector.NewVector(vector), k)
	if err != nil {
		return nil, fmt.Errorf("failed to query chunks by vector: %w", err)
	}
	defer rows.Close()

	var hits []domain.ScoredHit
	for rows.Next() {
		var (
			hit     domain.ScoredHit
			rawMeta []byte
		)
		if err := rows.Scan(&hit.ID, &hit.Content, &rawMeta, &hit.SourceDocID, &hit.ChunkIndex, &hit.Score); err != nil {
			return nil, fmt.Errorf("failed to scan chunk hit: %w", err)
		}
		hit.Metadata = parseMetadata(rawMeta, r.logger)
		hits = append(hits, hit)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return hits, nil
}

// FetchCandidates loads the chunk corpus for in-memory lexical scoring,
// newest chunks first, capped at the candidate limit.
func (r *ChunkRepository) FetchCandidates(ctx context.Context) ([]domain.CandidateDocument, error) {
	query := `
		SELECT id, content, metadata, source_doc_id, chunk_index
		FROM document_chunks
		ORDER BY created_at DESC
		LIMIT $1
	`
	rows, err := r.pool.Query(ctx, query, r.candidateLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to query candidate chunks: %w", err)
	}
	defer rows.Close()

	var candidates []domain.CandidateDocument
	for rows.Next() {
		var (
			cand    domain.CandidateDocument
			rawMeta []byte
		)
		if err := rows.Scan(&cand.ID, &cand.Content, &rawMeta, &cand.SourceDocID, &cand.ChunkIndex); err != nil {
			return nil, fmt.Errorf("failed to scan candidate chunk: %w", err)
		}
		cand.Metadata = parseMetadata(rawMeta, r.logger)
		candidates = append(candidates, cand)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	r.logger.Debug("candidates_fetched", slog.Int("count", len(candidates)))
	return candidates, nil
}

// parseMetadata decodes the jsonb column into the flat string map the
// core works with. Malformed metadata is logged and dropped; it never
// fails a retrieval.
func parseMetadata(raw []byte, logger *slog.Logger) map[string]string {
	if len(raw) == 0 {
		return nil
	}
	var meta map[string]string
	if err := json.Unmarshal(raw, &meta); err != nil {
		logger.Warn("chunk_metadata_unparseable", slog.String("error", err.Error()))
		return nil
	}
	return meta
}

var (
	_ domain.VectorIndex     = (*ChunkRepository)(nil)
	_ domain.CandidateSource = (*ChunkRepository)(nil)
)
