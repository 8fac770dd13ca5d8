package llmapi

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"docqa/internal/domain"
	"docqa/internal/usecase/evaluation"
)

const judgeEvidenceLimit = 3

// LLMJudge asks the chat collaborator for a second opinion on answer
// quality and parses its JSON verdict at this boundary. Errors are
// returned to the evaluator, which falls back to a neutral score.
type LLMJudge struct {
	client domain.LLMClient
	logger *slog.Logger
}

// NewLLMJudge wraps a chat client as a quality judge.
func NewLLMJudge(client domain.LLMClient, logger *slog.Logger) *LLMJudge {
	return &LLMJudge{client: client, logger: logger}
}

type judgeVerdict struct {
	Faithfulness float64 `json:"faithfulness"`
	Relevance    float64 `json:"relevance"`
	Completeness float64 `json:"completeness"`
	Overall      float64 `json:"overall"`
}

// Judge returns an overall quality score in [0,1] for the answer.
func (j *LLMJudge) Judge(ctx context.Context, query, answer string, evidence []domain.ScoredHit) (float64, error) {
	messages := []domain.Message{
		{Role: "system", Content: "You are a strict answer-quality rater. Reply with a single JSON object and nothing else."},
		{Role: "user", Content: j.buildPrompt(query, answer, evidence)},
	}

	raw, err := j.client.Complete(ctx, messages, domain.GenerationParams{Temperature: 0, MaxTokens: 256})
	if err != nil {
		return 0, fmt.Errorf("judge completion: %w", err)
	}

	verdict, err := parseVerdict(raw)
	if err != nil {
		return 0, fmt.Errorf("judge verdict: %w", err)
	}

	score := verdict.Overall
	if score <= 0 {
		score = (verdict.Faithfulness + verdict.Relevance + verdict.Completeness) / 3
	}
	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}

	j.logger.Debug("answer_judged", slog.Float64("score", score))
	return score, nil
}

func (j *LLMJudge) buildPrompt(query, answer string, evidence []domain.ScoredHit) string {
	var sb strings.Builder
	sb.WriteString("Rate the answer below.\n\nQuestion:\n")
	sb.WriteString(query)
	sb.WriteString("\n\nEvidence:\n")
	for i, hit := range evidence {
		if i >= judgeEvidenceLimit {
			break
		}
		sb.WriteString(strings.TrimSpace(hit.Content))
		sb.WriteString("\n")
	}
	sb.WriteString("\nAnswer:\n")
	sb.WriteString(answer)
	sb.WriteString("\n\nScore each dimension from 0 to 1: faithfulness (grounded in the evidence), ")
	sb.WriteString("relevance (addresses the question), completeness (answers it fully).\n")
	sb.WriteString(`Reply exactly like: {"faithfulness": 0.8, "relevance": 0.9, "completeness": 0.7, "overall": 0.8}`)
	return sb.String()
}

// parseVerdict tolerates markdown code fences and surrounding prose by
// extracting the first JSON object from the reply.
func parseVerdict(raw string) (judgeVerdict, error) {
	var verdict judgeVerdict

	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return verdict, fmt.Errorf("no JSON object in reply")
	}

	if err := json.Unmarshal([]byte(raw[start:end+1]), &verdict); err != nil {
		return verdict, fmt.Errorf("unmarshal: %w", err)
	}
	return verdict, nil
}

var _ evaluation.JudgeClient = (*LLMJudge)(nil)
