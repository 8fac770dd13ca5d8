package domain_test

import (
	"testing"

	"docqa/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractKeywords_TopKBound(t *testing.T) {
	e := domain.NewKeywordExtractor()

	keywords := e.ExtractKeywords("storage engine compaction merges sorted runs into larger sorted runs", 3)

	require.NotEmpty(t, keywords)
	assert.LessOrEqual(t, len(keywords), 3)
}

func TestExtractKeywords_NoDuplicates(t *testing.T) {
	e := domain.NewKeywordExtractor()

	keywords := e.ExtractKeywords("cache cache cache eviction eviction policy", 10)

	seen := make(map[string]int)
	for _, kw := range keywords {
		seen[kw]++
	}
	for kw, count := range seen {
		assert.Equal(t, 1, count, "keyword %q appears more than once", kw)
	}
}

func TestExtractKeywords_FrequencyRanksFirst(t *testing.T) {
	e := domain.NewKeywordExtractor()

	keywords := e.ExtractKeywords("index index index lookup", 2)

	require.NotEmpty(t, keywords)
	assert.Equal(t, "index", keywords[0])
}

func TestExtractKeywords_EmptyInput(t *testing.T) {
	e := domain.NewKeywordExtractor()

	assert.Empty(t, e.ExtractKeywords("", 10))
	assert.Empty(t, e.ExtractKeywords("的 了 是", 10), "stop-word-only input yields nothing")
	assert.Empty(t, e.ExtractKeywords("anything", 0))
}

func TestExtractEntities_NumbersAndLatin(t *testing.T) {
	e := domain.NewKeywordExtractor()

	entities := e.ExtractEntities("Kafka 3.5 处理了 1000 条消息，延迟低于 ms 级")

	assert.Contains(t, entities, "Kafka")
	assert.Contains(t, entities, "3.5")
	assert.Contains(t, entities, "1000")
	assert.NotContains(t, entities, "ms", "latin tokens must be longer than two characters")
}

func TestExtractEntities_EmptyInput(t *testing.T) {
	e := domain.NewKeywordExtractor()

	assert.Empty(t, e.ExtractEntities(""))
	assert.Empty(t, e.ExtractEntities("纯中文没有实体"))
}
