package evaluation

import (
	"log/slog"
	"math"
	"strings"

	"docqa/internal/domain"
)

// DefaultMinRelevance is the per-hit relevance threshold a hit must clear
// to count toward sufficiency.
const DefaultMinRelevance = 0.5

// RetrievalEvaluator scores how well a retrieval outcome answers the
// query, using lexical heuristics only. Stateless and safe for concurrent
// use.
type RetrievalEvaluator struct {
	minRelevance float64
	lexicon      *Lexicon
	logger       *slog.Logger
}

// NewRetrievalEvaluator builds an evaluator. A non-positive threshold and
// a nil lexicon fall back to the defaults.
func NewRetrievalEvaluator(minRelevance float64, lexicon *Lexicon, logger *slog.Logger) *RetrievalEvaluator {
	if minRelevance <= 0 {
		minRelevance = DefaultMinRelevance
	}
	if lexicon == nil {
		lexicon = DefaultLexicon()
	}
	return &RetrievalEvaluator{
		minRelevance: minRelevance,
		lexicon:      lexicon,
		logger:       logger,
	}
}

// Evaluate derives a RetrievalQuality verdict from the fused hits.
func (e *RetrievalEvaluator) Evaluate(query string, outcome *domain.RetrievalOutcome) RetrievalQuality {
	if outcome == nil || len(outcome.FusedHits) == 0 {
		return RetrievalQuality{
			RelevanceScore: 0,
			Confidence:     1.0,
			IsSufficient:   false,
			Issues:         []IssueCode{IssueNoResults},
			Recommendation: RecommendEscalate,
		}
	}

	hits := outcome.FusedHits
	scores := make([]float64, len(hits))
	for i, hit := range hits {
		scores[i] = e.hitRelevance(query, hit.Content)
	}

	avg := mean(scores)
	max := maxOf(scores)
	sufficientCount := 0
	for _, s := range scores {
		if s >= e.minRelevance {
			sufficientCount++
		}
	}

	quality := RetrievalQuality{
		RelevanceScore: avg,
		IsSufficient:   sufficientCount >= 1 && max >= 0.6,
		Issues:         e.identifyIssues(hits, scores),
		Recommendation: recommend(max, sufficientCount),
		Confidence:     e.confidence(scores, outcome.Method),
	}

	e.logger.Debug("retrieval_evaluated",
		slog.Float64("relevance", quality.RelevanceScore),
		slog.Bool("sufficient", quality.IsSufficient),
		slog.Int("issues", len(quality.Issues)))

	return quality
}

// hitRelevance blends token overlap, query-term density, and interrogative
// hint matching into a single [0,1] score for one hit.
func (e *RetrievalEvaluator) hitRelevance(query, content string) float64 {
	queryTokens := domain.Tokenize(query)
	contentTokens := domain.Tokenize(content)
	if len(queryTokens) == 0 || len(contentTokens) == 0 {
		return 0
	}

	querySet := toSet(queryTokens)
	contentSet := toSet(contentTokens)

	overlapCount := 0
	for tok := range querySet {
		if _, ok := contentSet[tok]; ok {
			overlapCount++
		}
	}
	overlap := float64(overlapCount) / float64(len(querySet))

	occurrences := 0
	for _, qt := range queryTokens {
		for _, ct := range contentTokens {
			if qt == ct {
				occurrences++
			}
		}
	}
	density := float64(occurrences) / float64(len(contentTokens))

	hint := e.semanticHint(query, content, overlap)

	score := overlap*0.4 + math.Min(density*10, 1.0)*0.3 + hint*0.3
	return math.Min(score, 1.0)
}

// semanticHint checks whether the content carries the markers a relevant
// document is expected to contain for the query's interrogative. A query
// with no recognized interrogative falls back to the overlap ratio so
// keyword-style queries are not penalized on this component.
func (e *RetrievalEvaluator) semanticHint(query, content string, fallback float64) float64 {
	lowerQuery := strings.ToLower(query)
	lowerContent := strings.ToLower(content)

	checks := 0
	matched := 0
	for interrogative, markers := range e.lexicon.SemanticHints {
		if !strings.Contains(lowerQuery, interrogative) {
			continue
		}
		checks++
		for _, marker := range markers {
			if strings.Contains(lowerContent, marker) {
				matched++
				break
			}
		}
	}
	if checks == 0 {
		return fallback
	}
	return float64(matched) / float64(checks)
}

func (e *RetrievalEvaluator) identifyIssues(hits []domain.ScoredHit, scores []float64) []IssueCode {
	var issues []IssueCode

	lowCount := 0
	for _, s := range scores {
		if s < 0.3 {
			lowCount++
		}
	}
	if float64(lowCount) > float64(len(scores))*0.8 {
		issues = append(issues, IssueLowRelevance)
	}

	contents := make(map[string]struct{}, len(hits))
	for _, hit := range hits {
		contents[hit.Content] = struct{}{}
	}
	if float64(len(contents)) < float64(len(hits))*0.7 {
		issues = append(issues, IssueDuplicateContent)
	}

	docs := make(map[string]struct{}, len(hits))
	for _, hit := range hits {
		docs[hit.SourceDocID] = struct{}{}
	}
	if len(docs) < 2 && len(hits) > 3 {
		issues = append(issues, IssueLowDiversity)
	}

	if maxOf(scores)-minOf(scores) < 0.1 {
		issues = append(issues, IssueLowDiscrimination)
	}

	return issues
}

// confidence blends score stability, hit-count adequacy (saturating at 5
// hits), and a retrieval-method bonus favoring hybrid.
func (e *RetrievalEvaluator) confidence(scores []float64, method domain.RetrievalMethod) float64 {
	stability := math.Max(0, 1-stdDev(scores))
	count := math.Min(float64(len(scores))/5.0, 1.0)
	methodFactor := 0.7
	if method == domain.MethodHybrid {
		methodFactor = 0.9
	}
	return math.Min(stability*0.5+count*0.3+methodFactor*0.2, 1.0)
}

func recommend(maxRelevance float64, sufficientCount int) Recommendation {
	switch {
	case maxRelevance >= 0.8 && sufficientCount >= 2:
		return RecommendProceed
	case maxRelevance >= 0.6 && sufficientCount >= 1:
		return RecommendProceedWithCaution
	case maxRelevance >= 0.4:
		return RecommendReformulateQuery
	default:
		return RecommendEscalate
	}
}

func toSet(tokens []string) map[string]struct{} {
	set := make(map[string]struct{}, len(tokens))
	for _, tok := range tokens {
		set[tok] = struct{}{}
	}
	return set
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func stdDev(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	m := mean(values)
	sum := 0.0
	for _, v := range values {
		sum += (v - m) * (v - m)
	}
	return math.Sqrt(sum / float64(len(values)))
}

func maxOf(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	max := values[0]
	for _, v := range values[1:] {
		if v > max {
			max = v
		}
	}
	return max
}

func minOf(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	min := values[0]
	for _, v := range values[1:] {
		if v < min {
			min = v
		}
	}
	return min
}
