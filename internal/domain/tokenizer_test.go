package domain_test

import (
	"testing"

	"docqa/internal/domain"

	"github.com/stretchr/testify/assert"
)

func TestTokenize_LatinText(t *testing.T) {
	tokens := domain.Tokenize("Machine Learning is a subset of AI systems")

	assert.Contains(t, tokens, "machine")
	assert.Contains(t, tokens, "learning")
	assert.Contains(t, tokens, "systems")
	assert.NotContains(t, tokens, "is", "stop words are filtered")
	assert.NotContains(t, tokens, "a", "single characters are filtered")
}

func TestTokenize_ChineseBigrams(t *testing.T) {
	tokens := domain.Tokenize("机器学习")

	assert.Equal(t, []string{"机器", "器学", "学习"}, tokens)
}

func TestTokenize_MixedScript(t *testing.T) {
	tokens := domain.Tokenize("EDA工具介绍 version 2.5")

	assert.Contains(t, tokens, "eda")
	assert.Contains(t, tokens, "工具")
	assert.Contains(t, tokens, "version")
}

func TestTokenize_EmptyAndWhitespace(t *testing.T) {
	assert.Empty(t, domain.Tokenize(""))
	assert.Empty(t, domain.Tokenize("   \n\t "))
}

func TestTokenize_LoneIdeographDropped(t *testing.T) {
	assert.Empty(t, domain.Tokenize("山"))
}

func TestTokenize_Deterministic(t *testing.T) {
	text := "分布式系统中的一致性协议 consensus protocols"
	first := domain.Tokenize(text)
	second := domain.Tokenize(text)

	assert.Equal(t, first, second)
}
