package domain

import "math"

// Default BM25 parameters. k1 controls term-frequency saturation, b the
// strength of document-length normalization. Standard values per
// Robertson et al.
const (
	DefaultBM25K1 = 1.2
	DefaultBM25B  = 0.75
)

// CorpusStats carries the corpus-level statistics BM25 needs. For sparse
// retrieval these are built on the fly from the candidate set, not from a
// global index.
type CorpusStats struct {
	// TermDocFreq maps a term to the number of candidate documents that
	// contain it at least once.
	TermDocFreq map[string]int
	// AvgDocLen is the mean token count across candidate documents.
	AvgDocLen float64
	// TotalDocs is the candidate document count.
	TotalDocs int
}

// BuildCorpusStats computes per-term document frequency, average document
// length, and document count from the tokenized candidate set.
func BuildCorpusStats(docTerms [][]string) CorpusStats {
	stats := CorpusStats{
		TermDocFreq: make(map[string]int),
		TotalDocs:   len(docTerms),
	}
	if len(docTerms) == 0 {
		return stats
	}

	totalLen := 0
	for _, terms := range docTerms {
		totalLen += len(terms)
		unique := make(map[string]struct{}, len(terms))
		for _, t := range terms {
			unique[t] = struct{}{}
		}
		for t := range unique {
			stats.TermDocFreq[t]++
		}
	}
	stats.AvgDocLen = float64(totalLen) / float64(len(docTerms))
	return stats
}

// BM25Scorer computes Okapi BM25 relevance between a tokenized query and a
// tokenized document. A scorer is immutable after construction and safe for
// concurrent use.
type BM25Scorer struct {
	K1 float64
	B  float64
}

// NewBM25Scorer returns a scorer with the standard k1/b defaults.
func NewBM25Scorer() BM25Scorer {
	return BM25Scorer{K1: DefaultBM25K1, B: DefaultBM25B}
}

// Score sums, over the query terms present in the document,
//
//	idf(t) * tf*(k1+1) / (tf + k1*(1 - b + b*doclen/avgdoclen))
//
// with idf(t) = ln((N - df + 0.5) / (df + 0.5)). Terms absent from the
// document contribute zero. Empty query or document scores exactly 0.0,
// and the result is never negative.
func (s BM25Scorer) Score(queryTerms, docTerms []string, stats CorpusStats) float64 {
	if len(queryTerms) == 0 || len(docTerms) == 0 {
		return 0.0
	}

	docLen := float64(len(docTerms))
	avgDocLen := stats.AvgDocLen
	if avgDocLen <= 0 {
		avgDocLen = docLen
	}
	totalDocs := stats.TotalDocs
	if totalDocs < 1 {
		totalDocs = 1
	}

	tfByTerm := make(map[string]int, len(docTerms))
	for _, t := range docTerms {
		tfByTerm[t]++
	}

	score := 0.0
	for _, term := range queryTerms {
		tf := tfByTerm[term]
		if tf == 0 {
			continue
		}

		df := 1
		if v, ok := stats.TermDocFreq[term]; ok && v > 0 {
			df = v
		}

		idf := math.Log((float64(totalDocs) - float64(df) + 0.5) / (float64(df) + 0.5))

		numerator := float64(tf) * (s.K1 + 1)
		denominator := float64(tf) + s.K1*(1-s.B+s.B*(docLen/avgDocLen))
		score += idf * (numerator / denominator)
	}

	if score < 0 {
		return 0.0
	}
	return score
}
