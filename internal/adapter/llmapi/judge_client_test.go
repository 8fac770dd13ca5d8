package llmapi

import (
	"context"
	"errors"
	"testing"

	"docqa/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cannedLLM struct {
	reply string
	err   error
}

func (c *cannedLLM) Complete(context.Context, []domain.Message, domain.GenerationParams) (string, error) {
	return c.reply, c.err
}

func (c *cannedLLM) CompleteStream(context.Context, []domain.Message, domain.GenerationParams) (<-chan string, <-chan error, error) {
	return nil, nil, errors.New("not used")
}

func (c *cannedLLM) Version() string { return "canned" }

func TestJudge_ParsesVerdict(t *testing.T) {
	judge := NewLLMJudge(&cannedLLM{
		reply: `{"faithfulness": 0.8, "relevance": 0.9, "completeness": 0.7, "overall": 0.85}`,
	}, testLogger())

	score, err := judge.Judge(context.Background(), "q", "a", nil)

	require.NoError(t, err)
	assert.InDelta(t, 0.85, score, 1e-9)
}

func TestJudge_ToleratesCodeFences(t *testing.T) {
	judge := NewLLMJudge(&cannedLLM{
		reply: "```json\n{\"overall\": 0.6}\n```",
	}, testLogger())

	score, err := judge.Judge(context.Background(), "q", "a", nil)

	require.NoError(t, err)
	assert.InDelta(t, 0.6, score, 1e-9)
}

func TestJudge_AveragesWhenOverallMissing(t *testing.T) {
	judge := NewLLMJudge(&cannedLLM{
		reply: `{"faithfulness": 0.6, "relevance": 0.9, "completeness": 0.3}`,
	}, testLogger())

	score, err := judge.Judge(context.Background(), "q", "a", nil)

	require.NoError(t, err)
	assert.InDelta(t, 0.6, score, 1e-9)
}

func TestJudge_ErrorsOnProseReply(t *testing.T) {
	judge := NewLLMJudge(&cannedLLM{reply: "the answer looks fine to me"}, testLogger())

	_, err := judge.Judge(context.Background(), "q", "a", nil)

	require.Error(t, err)
}

func TestJudge_PropagatesClientError(t *testing.T) {
	judge := NewLLMJudge(&cannedLLM{err: errors.New("llm down")}, testLogger())

	_, err := judge.Judge(context.Background(), "q", "a", nil)

	require.Error(t, err)
}
