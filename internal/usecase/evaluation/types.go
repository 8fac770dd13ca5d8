package evaluation

// IssueCode is a machine-readable quality problem attached to an
// evaluation result. Codes are stable strings so downstream consumers can
// switch on them.
type IssueCode string

const (
	IssueNoResults         IssueCode = "no_results"
	IssueLowRelevance      IssueCode = "low_relevance"
	IssueDuplicateContent  IssueCode = "duplicate_content"
	IssueLowDiversity      IssueCode = "low_diversity"
	IssueLowDiscrimination IssueCode = "low_discrimination"

	IssueLowFaithfulness   IssueCode = "low_faithfulness"
	IssueInconsistentLogic IssueCode = "inconsistent_logic"
	IssueHallucination     IssueCode = "hallucination"
	IssueExcessiveHedging  IssueCode = "excessive_hedging"
	IssueAnswerTooShort    IssueCode = "answer_too_short"
)

// Recommendation is the retrieval evaluator's deterministic next-step
// advice, tiered by the strength of the best hit.
type Recommendation string

const (
	RecommendProceed            Recommendation = "proceed"
	RecommendProceedWithCaution Recommendation = "proceed_with_caution"
	RecommendReformulateQuery   Recommendation = "reformulate_query"
	RecommendEscalate           Recommendation = "escalate_insufficient"
)

// RetrievalQuality is the evaluator's verdict on one RetrievalOutcome.
// It is derived purely from the outcome and carries no references back
// into it.
type RetrievalQuality struct {
	RelevanceScore float64        `json:"relevance_score"`
	Confidence     float64        `json:"confidence"`
	IsSufficient   bool           `json:"is_sufficient"`
	Issues         []IssueCode    `json:"issues,omitempty"`
	Recommendation Recommendation `json:"recommendation"`
}

// HasIssue reports whether the given code was flagged.
func (q RetrievalQuality) HasIssue(code IssueCode) bool {
	return hasIssue(q.Issues, code)
}

// GenerationQuality is the evaluator's verdict on one generated answer
// against its evidence.
type GenerationQuality struct {
	Faithfulness float64     `json:"faithfulness"`
	Consistency  float64     `json:"consistency"`
	Completeness float64     `json:"completeness"`
	Overall      float64     `json:"overall"`
	IsReliable   bool        `json:"is_reliable"`
	Issues       []IssueCode `json:"issues,omitempty"`
	Confidence   float64     `json:"confidence"`
}

// HasIssue reports whether the given code was flagged.
func (q GenerationQuality) HasIssue(code IssueCode) bool {
	return hasIssue(q.Issues, code)
}

func hasIssue(issues []IssueCode, code IssueCode) bool {
	for _, issue := range issues {
		if issue == code {
			return true
		}
	}
	return false
}

// RetrievalQualitySummary is the compact display form of a retrieval
// verdict, used by API responses and quality logs.
type RetrievalQualitySummary struct {
	RelevanceScore float64        `json:"relevance_score"`
	Confidence     float64        `json:"confidence"`
	IsSufficient   bool           `json:"is_sufficient"`
	QualityLevel   string         `json:"quality_level"`
	IssueCount     int            `json:"issue_count"`
	Recommendation Recommendation `json:"recommendation"`
}

// Summary condenses the verdict for display.
func (q RetrievalQuality) Summary() RetrievalQualitySummary {
	return RetrievalQualitySummary{
		RelevanceScore: q.RelevanceScore,
		Confidence:     q.Confidence,
		IsSufficient:   q.IsSufficient,
		QualityLevel:   QualityLevel(q.RelevanceScore),
		IssueCount:     len(q.Issues),
		Recommendation: q.Recommendation,
	}
}

// GenerationQualitySummary is the compact display form of a generation
// verdict.
type GenerationQualitySummary struct {
	Overall      float64 `json:"overall"`
	Faithfulness float64 `json:"faithfulness"`
	Consistency  float64 `json:"consistency"`
	Completeness float64 `json:"completeness"`
	IsReliable   bool    `json:"is_reliable"`
	QualityLevel string  `json:"quality_level"`
	IssueCount   int     `json:"issue_count"`
	Confidence   float64 `json:"confidence"`
}

// Summary condenses the verdict for display.
func (q GenerationQuality) Summary() GenerationQualitySummary {
	return GenerationQualitySummary{
		Overall:      q.Overall,
		Faithfulness: q.Faithfulness,
		Consistency:  q.Consistency,
		Completeness: q.Completeness,
		IsReliable:   q.IsReliable,
		QualityLevel: QualityLevel(q.Overall),
		IssueCount:   len(q.Issues),
		Confidence:   q.Confidence,
	}
}

// QualityLevel buckets a [0,1] score into a coarse display label.
func QualityLevel(score float64) string {
	switch {
	case score >= 0.8:
		return "excellent"
	case score >= 0.6:
		return "good"
	case score >= 0.4:
		return "fair"
	case score >= 0.2:
		return "poor"
	default:
		return "very_poor"
	}
}
