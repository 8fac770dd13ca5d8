package domain

import (
	"regexp"
	"sort"
	"strings"
)

var (
	numberPattern = regexp.MustCompile(`\d+(?:\.\d+)?`)
	latinPattern  = regexp.MustCompile(`[A-Za-z]+`)
)

// KeywordExtractor ranks the salient terms of a text by term frequency
// weighted by term length, after stop-word filtering. It stands in for the
// TF-IDF tagger of the original corpus pipeline without needing global
// corpus statistics.
type KeywordExtractor struct{}

// NewKeywordExtractor creates an extractor (stateless).
func NewKeywordExtractor() *KeywordExtractor {
	return &KeywordExtractor{}
}

// ExtractKeywords returns up to topK distinct terms ordered by importance.
// Terms are stop-word filtered and longer than one character. Empty or
// unusable input yields an empty slice, never an error.
func (e *KeywordExtractor) ExtractKeywords(text string, topK int) []string {
	if topK <= 0 {
		return nil
	}
	tokens := Tokenize(text)
	if len(tokens) == 0 {
		return nil
	}

	freq := make(map[string]int, len(tokens))
	firstSeen := make(map[string]int, len(tokens))
	for i, tok := range tokens {
		if _, ok := freq[tok]; !ok {
			firstSeen[tok] = i
		}
		freq[tok]++
	}

	terms := make([]string, 0, len(freq))
	for term := range freq {
		terms = append(terms, term)
	}
	// tf weighted by term length; ties resolved by first occurrence so the
	// ranking is deterministic for identical input
	sort.Slice(terms, func(i, j int) bool {
		si := float64(freq[terms[i]]) * termWeight(terms[i])
		sj := float64(freq[terms[j]]) * termWeight(terms[j])
		if si != sj {
			return si > sj
		}
		return firstSeen[terms[i]] < firstSeen[terms[j]]
	})

	if len(terms) > topK {
		terms = terms[:topK]
	}
	return terms
}

func termWeight(term string) float64 {
	n := len([]rune(term))
	if n <= 2 {
		return 1.0
	}
	// longer terms carry more content; saturate so length cannot dominate tf
	if n > 6 {
		n = 6
	}
	return 1.0 + float64(n-2)*0.25
}

// ExtractEntities recognizes simple entities: numeric tokens and Latin
// tokens longer than two characters. The result is deduplicated and sorted
// for deterministic output; failures degrade to an empty slice.
func (e *KeywordExtractor) ExtractEntities(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	seen := make(map[string]struct{})
	for _, m := range numberPattern.FindAllString(text, -1) {
		seen[m] = struct{}{}
	}
	for _, m := range latinPattern.FindAllString(text, -1) {
		if len(m) > 2 {
			seen[m] = struct{}{}
		}
	}

	if len(seen) == 0 {
		return nil
	}
	entities := make([]string, 0, len(seen))
	for ent := range seen {
		entities = append(entities, ent)
	}
	sort.Strings(entities)
	return entities
}
