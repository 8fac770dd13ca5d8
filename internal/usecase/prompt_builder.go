package usecase

import (
	"fmt"
	"strings"

	"docqa/internal/domain"
)

// PromptBuilder renders the chat messages sent to the generation
// collaborator.
type PromptBuilder interface {
	Build(query string, evidence []domain.ScoredHit, history []domain.Message) []domain.Message
}

// EvidencePromptBuilder composes a grounded QA prompt: a system message
// with answering rules, the evidence as numbered context blocks, optional
// prior chat turns, and the user's question last.
type EvidencePromptBuilder struct {
	additionalInstructions []string
}

// NewEvidencePromptBuilder creates a builder with optional extra
// instructions appended to the system message.
func NewEvidencePromptBuilder(additionalInstructions ...string) *EvidencePromptBuilder {
	return &EvidencePromptBuilder{additionalInstructions: additionalInstructions}
}

// Build renders the messages for the chat API.
func (b *EvidencePromptBuilder) Build(query string, evidence []domain.ScoredHit, history []domain.Message) []domain.Message {
	var sb strings.Builder
	sb.WriteString("You are a question-answering assistant. Answer using ONLY the documents provided in the context below.\n")
	sb.WriteString("Rules:\n")
	sb.WriteString("1. Base every statement on the context; do not add outside knowledge.\n")
	sb.WriteString("2. If the context does not contain the answer, say that no relevant information was found.\n")
	sb.WriteString("3. Reference the supporting document by its number, e.g. [1].\n")
	sb.WriteString("4. Answer in the language of the question.\n")
	for _, extra := range b.additionalInstructions {
		sb.WriteString(extra)
		sb.WriteString("\n")
	}

	if len(evidence) > 0 {
		sb.WriteString("\nContext:\n")
		for i, hit := range evidence {
			sb.WriteString(fmt.Sprintf("[%d]", i+1))
			if hit.SourceDocID != "" {
				sb.WriteString(" (")
				sb.WriteString(hit.SourceDocID)
				sb.WriteString(")")
			}
			sb.WriteString("\n")
			sb.WriteString(strings.TrimSpace(hit.Content))
			sb.WriteString("\n\n")
		}
	} else {
		sb.WriteString("\nContext: no documents were retrieved for this question.\n")
	}

	messages := make([]domain.Message, 0, len(history)+2)
	messages = append(messages, domain.Message{Role: "system", Content: sb.String()})
	messages = append(messages, history...)
	messages = append(messages, domain.Message{Role: "user", Content: query})

	return messages
}
