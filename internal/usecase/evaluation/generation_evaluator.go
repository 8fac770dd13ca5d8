package evaluation

import (
	"context"
	"log/slog"
	"math"
	"strings"
	"unicode/utf8"

	"docqa/internal/domain"
)

// JudgeClient is the optional LLM-backed second opinion on answer
// quality. A failed or missing judge never blocks evaluation.
type JudgeClient interface {
	// Judge returns an overall quality score in [0,1] for the answer
	// given the query and evidence.
	Judge(ctx context.Context, query, answer string, evidence []domain.ScoredHit) (float64, error)
}

// Weight of the heuristic score when an LLM judge opinion is available,
// and the neutral score used when the judge call fails.
const (
	heuristicJudgeBlend = 0.7
	neutralJudgeScore   = 0.5
)

// GenerationEvaluator scores a generated answer for faithfulness to its
// evidence, internal consistency, and completeness. Heuristic and
// lexicon-driven; an optional JudgeClient re-blends the overall score.
type GenerationEvaluator struct {
	judge   JudgeClient
	lexicon *Lexicon
	logger  *slog.Logger
}

// NewGenerationEvaluator builds an evaluator. The judge may be nil; a nil
// lexicon falls back to the default.
func NewGenerationEvaluator(judge JudgeClient, lexicon *Lexicon, logger *slog.Logger) *GenerationEvaluator {
	if lexicon == nil {
		lexicon = DefaultLexicon()
	}
	return &GenerationEvaluator{
		judge:   judge,
		lexicon: lexicon,
		logger:  logger,
	}
}

// Evaluate derives a GenerationQuality verdict for the answer.
func (e *GenerationEvaluator) Evaluate(ctx context.Context, query, answer string, evidence []domain.ScoredHit) GenerationQuality {
	faithfulness := e.faithfulness(answer, evidence)
	consistency := e.consistency(answer)
	completeness := e.completeness(query, answer)

	overall := faithfulness*0.4 + consistency*0.3 + completeness*0.3

	if e.judge != nil && len(evidence) > 0 {
		judged, err := e.judge.Judge(ctx, query, answer, evidence)
		if err != nil {
			e.logger.Warn("llm_judge_failed", slog.String("error", err.Error()))
			judged = neutralJudgeScore
		}
		overall = overall*heuristicJudgeBlend + judged*(1-heuristicJudgeBlend)
	}

	quality := GenerationQuality{
		Faithfulness: faithfulness,
		Consistency:  consistency,
		Completeness: completeness,
		Overall:      overall,
		IsReliable:   e.isReliable(faithfulness, consistency, completeness, answer),
		Issues:       e.identifyIssues(answer, faithfulness, consistency),
		Confidence:   e.confidence(faithfulness, consistency, len(evidence)),
	}

	e.logger.Debug("generation_evaluated",
		slog.Float64("overall", quality.Overall),
		slog.Bool("reliable", quality.IsReliable),
		slog.Int("issues", len(quality.Issues)))

	return quality
}

// faithfulness measures whether the answer is grounded in the evidence.
// Without evidence, an honest admission scores 0.8 and an asserted answer
// 0.1 (suspected hallucination).
func (e *GenerationEvaluator) faithfulness(answer string, evidence []domain.ScoredHit) float64 {
	if len(evidence) == 0 {
		if containsAny(answer, e.lexicon.AbsenceAdmissions) {
			return 0.8
		}
		return 0.1
	}

	answerSet := toSet(domain.Tokenize(answer))

	totalOverlap := 0
	totalSourceTokens := 0
	for _, hit := range evidence {
		chunkSet := toSet(domain.Tokenize(hit.Content))
		for tok := range chunkSet {
			if _, ok := answerSet[tok]; ok {
				totalOverlap++
			}
		}
		totalSourceTokens += len(chunkSet)
	}

	overlapRatio := 0.0
	if totalSourceTokens > 0 {
		overlapRatio = float64(totalOverlap) / float64(totalSourceTokens)
	}

	citation := 0.0
	for _, phrase := range e.lexicon.CitationPhrases {
		if containsPhrase(answer, phrase) {
			citation += 0.1
		}
	}

	penalty := 0.0
	for _, phrase := range e.lexicon.HallucinationPhrases {
		if containsPhrase(answer, phrase) {
			penalty += 0.15
		}
	}

	score := math.Min(overlapRatio*3+citation-penalty, 1.0)
	return math.Max(score, 0.0)
}

// consistency checks the answer for internal contradictions, hedging
// density, and moderate use of logical connectors (0.5/0.3/0.2 blend).
func (e *GenerationEvaluator) consistency(answer string) float64 {
	contradictions := 0
	for _, pair := range e.lexicon.ContradictionPairs {
		if pair.Affirm.MatchString(answer) && pair.Negate.MatchString(answer) {
			contradictions++
		}
	}

	tokens := domain.Tokenize(answer)
	tokenCount := len(tokens)
	if tokenCount == 0 {
		tokenCount = 1
	}
	hedgeDensity := float64(e.hedgeCount(answer)) / float64(tokenCount)

	connectors := 0
	lower := strings.ToLower(answer)
	for _, connector := range e.lexicon.LogicalConnectors {
		connectors += strings.Count(lower, connector)
	}
	connectorScore := math.Min(float64(connectors)/3.0, 1.0)

	score := math.Max(0, 1-float64(contradictions)*0.3)*0.5 +
		math.Max(0, 1-hedgeDensity*10)*0.3 +
		connectorScore*0.2

	return math.Min(score, 1.0)
}

// completeness checks whether the answer addresses the question type and
// has adequate length (full length credit at 100 characters). An honest
// admission of insufficient information short-circuits to 0.6.
func (e *GenerationEvaluator) completeness(query, answer string) float64 {
	if containsAny(answer, e.lexicon.InsufficiencyAdmissions) {
		return 0.6
	}

	lowerQuery := strings.ToLower(query)
	lowerAnswer := strings.ToLower(answer)

	typeMatch := 0.0
	for interrogative, elements := range e.lexicon.QuestionTypes {
		if !strings.Contains(lowerQuery, interrogative) {
			continue
		}
		for _, element := range elements {
			if strings.Contains(lowerAnswer, element) {
				typeMatch += 0.3
				break
			}
		}
	}

	length := math.Min(float64(utf8.RuneCountInString(strings.TrimSpace(answer)))/100.0, 1.0)

	return math.Min(typeMatch*0.6+length*0.4, 1.0)
}

func (e *GenerationEvaluator) isReliable(faithfulness, consistency, completeness float64, answer string) bool {
	if faithfulness < 0.4 || consistency < 0.4 {
		return false
	}
	if containsAny(answer, e.lexicon.HallucinationPhrases) {
		return false
	}
	return (faithfulness+consistency+completeness)/3 >= 0.6
}

func (e *GenerationEvaluator) identifyIssues(answer string, faithfulness, consistency float64) []IssueCode {
	var issues []IssueCode

	if faithfulness < 0.5 {
		issues = append(issues, IssueLowFaithfulness)
	}
	if consistency < 0.5 {
		issues = append(issues, IssueInconsistentLogic)
	}
	if containsAny(answer, e.lexicon.HallucinationPhrases) {
		issues = append(issues, IssueHallucination)
	}
	if e.hedgeCount(answer) > 3 {
		issues = append(issues, IssueExcessiveHedging)
	}
	if utf8.RuneCountInString(strings.TrimSpace(answer)) < 50 {
		issues = append(issues, IssueAnswerTooShort)
	}

	return issues
}

// confidence blends faithfulness/consistency agreement with evidence
// volume (saturating at 3 chunks).
func (e *GenerationEvaluator) confidence(faithfulness, consistency float64, evidenceCount int) float64 {
	stability := 1 - math.Abs(faithfulness-consistency)
	sourceFactor := math.Min(float64(evidenceCount)/3.0, 1.0)
	return math.Min(stability*0.6+sourceFactor*0.4, 1.0)
}

func (e *GenerationEvaluator) hedgeCount(answer string) int {
	count := 0
	lower := strings.ToLower(answer)
	for _, phrase := range e.lexicon.HedgingPhrases {
		count += strings.Count(lower, phrase)
	}
	return count
}

func containsAny(text string, phrases []string) bool {
	lower := strings.ToLower(text)
	for _, phrase := range phrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}

func containsPhrase(text, phrase string) bool {
	return strings.Contains(strings.ToLower(text), phrase)
}
