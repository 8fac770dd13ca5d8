package usecase_test

import (
	"strings"
	"testing"

	"docqa/internal/domain"
	"docqa/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPromptBuilder_NumbersEvidence(t *testing.T) {
	b := usecase.NewEvidencePromptBuilder()

	evidence := []domain.ScoredHit{
		{ID: "c1", Content: "first chunk", SourceDocID: "doc-a"},
		{ID: "c2", Content: "second chunk", SourceDocID: "doc-b"},
	}
	messages := b.Build("the question", evidence, nil)

	require.Len(t, messages, 2)
	assert.Equal(t, "system", messages[0].Role)
	assert.Contains(t, messages[0].Content, "[1] (doc-a)")
	assert.Contains(t, messages[0].Content, "first chunk")
	assert.Contains(t, messages[0].Content, "[2] (doc-b)")
	assert.Equal(t, "user", messages[1].Role)
	assert.Equal(t, "the question", messages[1].Content)
}

func TestPromptBuilder_FoldsHistoryBeforeQuery(t *testing.T) {
	b := usecase.NewEvidencePromptBuilder()

	history := []domain.Message{
		{Role: "user", Content: "earlier question"},
		{Role: "assistant", Content: "earlier answer"},
	}
	messages := b.Build("follow-up", nil, history)

	require.Len(t, messages, 4)
	assert.Equal(t, "system", messages[0].Role)
	assert.Equal(t, "earlier question", messages[1].Content)
	assert.Equal(t, "earlier answer", messages[2].Content)
	assert.Equal(t, "follow-up", messages[3].Content)
}

func TestPromptBuilder_NotesEmptyContext(t *testing.T) {
	b := usecase.NewEvidencePromptBuilder()

	messages := b.Build("question", nil, nil)

	assert.Contains(t, messages[0].Content, "no documents were retrieved")
}

func TestPromptBuilder_AppendsExtraInstructions(t *testing.T) {
	b := usecase.NewEvidencePromptBuilder("Answer in formal register.")

	messages := b.Build("question", nil, nil)

	assert.True(t, strings.Contains(messages[0].Content, "Answer in formal register."))
}
