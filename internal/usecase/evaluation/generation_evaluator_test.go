package evaluation_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"docqa/internal/domain"
	"docqa/internal/usecase/evaluation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubJudge struct {
	score float64
	err   error
	calls int
}

func (s *stubJudge) Judge(_ context.Context, _, _ string, _ []domain.ScoredHit) (float64, error) {
	s.calls++
	return s.score, s.err
}

func TestEvaluateGeneration_HallucinationWithoutEvidence(t *testing.T) {
	e := evaluation.NewGenerationEvaluator(nil, nil, discardLogger())

	quality := e.Evaluate(context.Background(), "什么是机器学习",
		"我认为机器学习就是让计算机自己学习的技术", nil)

	assert.LessOrEqual(t, quality.Faithfulness, 0.1)
	assert.False(t, quality.IsReliable)
	assert.True(t, quality.HasIssue(evaluation.IssueHallucination))
	assert.True(t, quality.HasIssue(evaluation.IssueLowFaithfulness))
}

func TestEvaluateGeneration_HonestAbsenceAdmission(t *testing.T) {
	e := evaluation.NewGenerationEvaluator(nil, nil, discardLogger())

	quality := e.Evaluate(context.Background(), "什么是机器学习",
		"抱歉，没有找到与该问题相关的内容。", nil)

	assert.InDelta(t, 0.8, quality.Faithfulness, 1e-9)
}

func TestEvaluateGeneration_GroundedAnswerIsReliable(t *testing.T) {
	e := evaluation.NewGenerationEvaluator(nil, nil, discardLogger())

	evidence := []domain.ScoredHit{
		{ID: "c1", Content: "机器学习是人工智能的分支，通过算法从数据中学习规律并做出预测", SourceDocID: "d1"},
	}
	answer := "根据文档，机器学习的定义是人工智能的分支。" +
		"它通过算法从数据中学习规律，因此能够对新数据做出预测。" +
		"但是模型的效果依赖于数据质量，所以训练前需要清洗数据。" +
		"此外，文档中提到学习规律的过程是自动进行的。"

	quality := e.Evaluate(context.Background(), "什么是机器学习", answer, evidence)

	assert.True(t, quality.IsReliable)
	assert.GreaterOrEqual(t, quality.Overall, 0.6)
	assert.GreaterOrEqual(t, quality.Faithfulness, 0.4)
	assert.Empty(t, quality.Issues)
}

func TestEvaluateGeneration_ContradictionLowersConsistency(t *testing.T) {
	e := evaluation.NewGenerationEvaluator(nil, nil, discardLogger())

	answer := "它不是缺陷而是特性。它是缺陷不是特性。可能也许大概如此。"
	quality := e.Evaluate(context.Background(), "这是缺陷吗", answer, nil)

	assert.Less(t, quality.Consistency, 0.5)
	assert.True(t, quality.HasIssue(evaluation.IssueInconsistentLogic))
}

func TestEvaluateGeneration_ExcessiveHedging(t *testing.T) {
	e := evaluation.NewGenerationEvaluator(nil, nil, discardLogger())

	answer := "可能是这样，也许是那样，大概如此，似乎还有别的情况，估计需要更多验证。" +
		strings.Repeat("这里补充一些凑足长度的说明文字。", 3)
	quality := e.Evaluate(context.Background(), "如何部署", answer, nil)

	assert.True(t, quality.HasIssue(evaluation.IssueExcessiveHedging))
}

func TestEvaluateGeneration_ShortAnswerFlagged(t *testing.T) {
	e := evaluation.NewGenerationEvaluator(nil, nil, discardLogger())

	quality := e.Evaluate(context.Background(), "什么是机器学习", "是一种技术。", nil)

	assert.True(t, quality.HasIssue(evaluation.IssueAnswerTooShort))
}

func TestEvaluateGeneration_InsufficiencyAdmissionCompleteness(t *testing.T) {
	e := evaluation.NewGenerationEvaluator(nil, nil, discardLogger())

	quality := e.Evaluate(context.Background(), "什么是机器学习",
		"当前资料信息不足，无法给出完整的定义。", nil)

	assert.InDelta(t, 0.6, quality.Completeness, 1e-9)
}

func TestEvaluateGeneration_JudgeBlendsOverall(t *testing.T) {
	judge := &stubJudge{score: 1.0}
	withJudge := evaluation.NewGenerationEvaluator(judge, nil, discardLogger())
	without := evaluation.NewGenerationEvaluator(nil, nil, discardLogger())

	evidence := []domain.ScoredHit{{ID: "c1", Content: "机器学习从数据中学习规律"}}
	answer := "机器学习从数据中学习规律。"

	base := without.Evaluate(context.Background(), "什么是机器学习", answer, evidence)
	blended := withJudge.Evaluate(context.Background(), "什么是机器学习", answer, evidence)

	require.Equal(t, 1, judge.calls)
	assert.InDelta(t, base.Overall*0.7+1.0*0.3, blended.Overall, 1e-9)
}

func TestEvaluateGeneration_JudgeFailureUsesNeutralScore(t *testing.T) {
	judge := &stubJudge{err: errors.New("judge unavailable")}
	withJudge := evaluation.NewGenerationEvaluator(judge, nil, discardLogger())
	without := evaluation.NewGenerationEvaluator(nil, nil, discardLogger())

	evidence := []domain.ScoredHit{{ID: "c1", Content: "机器学习从数据中学习规律"}}
	answer := "机器学习从数据中学习规律。"

	base := without.Evaluate(context.Background(), "什么是机器学习", answer, evidence)
	blended := withJudge.Evaluate(context.Background(), "什么是机器学习", answer, evidence)

	assert.InDelta(t, base.Overall*0.7+0.5*0.3, blended.Overall, 1e-9)
}

func TestEvaluateGeneration_JudgeSkippedWithoutEvidence(t *testing.T) {
	judge := &stubJudge{score: 1.0}
	e := evaluation.NewGenerationEvaluator(judge, nil, discardLogger())

	e.Evaluate(context.Background(), "什么是机器学习", "没有找到相关内容。", nil)

	assert.Zero(t, judge.calls)
}
