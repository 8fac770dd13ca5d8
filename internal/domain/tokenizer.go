package domain

import (
	"strings"
	"unicode"
)

// StopWords is the default stop-word set applied by Tokenize and the
// keyword extractor. It mixes the Chinese function words the corpus was
// tuned on with common English fillers so mixed-language chunks tokenize
// cleanly.
var StopWords = map[string]struct{}{
	// Chinese
	"的": {}, "了": {}, "在": {}, "是": {}, "我": {}, "有": {}, "和": {},
	"就": {}, "不": {}, "人": {}, "都": {}, "一": {}, "一个": {}, "上": {},
	"也": {}, "很": {}, "到": {}, "说": {}, "要": {}, "去": {}, "你": {},
	"会": {}, "着": {}, "没有": {}, "看": {}, "好": {}, "自己": {}, "这": {},
	"那": {}, "它": {}, "他": {}, "她": {}, "我们": {}, "你们": {}, "他们": {},
	"什么": {}, "怎么": {}, "为什么": {}, "哪里": {}, "什么时候": {},
	"怎样": {}, "多少": {}, "几": {}, "第一": {}, "第二": {},
	// English
	"the": {}, "a": {}, "an": {}, "is": {}, "are": {}, "was": {}, "were": {},
	"of": {}, "to": {}, "in": {}, "on": {}, "at": {}, "and": {}, "or": {},
	"it": {}, "this": {}, "that": {}, "for": {}, "with": {}, "as": {},
	"be": {}, "by": {}, "from": {}, "what": {}, "how": {}, "why": {},
	"where": {}, "when": {}, "which": {}, "who": {},
}

// IsStopWord reports whether the term is in the default stop-word set.
func IsStopWord(term string) bool {
	_, ok := StopWords[term]
	return ok
}

func isCJK(r rune) bool {
	return (r >= '一' && r <= '鿿') || // CJK Unified Ideographs
		(r >= '㐀' && r <= '䶿') || // Extension A
		(r >= '぀' && r <= 'ヿ') // Hiragana/Katakana
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

// Tokenize splits text into scoring terms: Latin/numeric runs become
// lowercased word tokens, and CJK runs are emitted as overlapping bigrams.
// Stop words and single-character tokens are dropped. The segmenter-free
// bigram scheme keeps tokenization deterministic while still giving BM25
// and overlap scoring usable units for Chinese text.
func Tokenize(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	var tokens []string
	var latin []rune
	var cjk []rune

	flushLatin := func() {
		if len(latin) == 0 {
			return
		}
		tok := strings.ToLower(string(latin))
		latin = latin[:0]
		if len(tok) <= 1 || IsStopWord(tok) {
			return
		}
		tokens = append(tokens, tok)
	}
	flushCJK := func() {
		if len(cjk) == 0 {
			return
		}
		run := cjk
		cjk = nil
		if len(run) == 1 {
			// lone ideograph: dropped like any other single-character token
			return
		}
		for i := 0; i+1 < len(run); i++ {
			tok := string(run[i : i+2])
			if IsStopWord(tok) || IsStopWord(string(run[i])) && IsStopWord(string(run[i+1])) {
				continue
			}
			tokens = append(tokens, tok)
		}
	}

	for _, r := range text {
		switch {
		case isCJK(r):
			flushLatin()
			cjk = append(cjk, r)
		case isWordRune(r):
			flushCJK()
			latin = append(latin, r)
		default:
			flushLatin()
			flushCJK()
		}
	}
	flushLatin()
	flushCJK()

	return tokens
}
