package evaluation

import "regexp"

// ContradictionPair is two regex patterns whose co-occurrence in one
// answer suggests the text both affirms and denies the same thing.
type ContradictionPair struct {
	Affirm *regexp.Regexp
	Negate *regexp.Regexp
}

// Lexicon holds the phrase lists and patterns the heuristic evaluators
// score with. The detection rules are inherently approximate, so the
// lexicon is injected rather than hard-coded: swapping it retunes the
// evaluators for a different deployment language without touching the
// scoring logic.
type Lexicon struct {
	// HedgingPhrases signal uncertainty ("可能", "perhaps").
	HedgingPhrases []string
	// CitationPhrases signal the answer is grounded in the evidence.
	CitationPhrases []string
	// HallucinationPhrases signal the answer draws on the model's own
	// opinion or "common knowledge" instead of the evidence.
	HallucinationPhrases []string
	// AbsenceAdmissions are honest statements that no evidence was found.
	AbsenceAdmissions []string
	// InsufficiencyAdmissions are honest statements that the evidence
	// cannot fully answer the question.
	InsufficiencyAdmissions []string
	// LogicalConnectors reward structured reasoning when used moderately.
	LogicalConnectors []string
	// ContradictionPairs flag internal negation/affirmation conflicts.
	ContradictionPairs []ContradictionPair
	// SemanticHints maps an interrogative term to content markers a
	// relevant document is expected to contain.
	SemanticHints map[string][]string
	// QuestionTypes maps an interrogative term to the answer elements a
	// complete answer is expected to contain (synonyms included).
	QuestionTypes map[string][]string
}

// DefaultLexicon returns the bilingual Chinese/English lexicon the system
// ships with. English phrases are matched case-insensitively by the
// evaluators.
func DefaultLexicon() *Lexicon {
	return &Lexicon{
		HedgingPhrases: []string{
			"可能", "也许", "大概", "似乎", "应该", "估计", "不确定",
			"不清楚", "不知道", "没有明确", "无法确定",
			"might", "perhaps", "possibly", "probably", "it seems",
			"unclear", "not sure", "uncertain",
		},
		CitationPhrases: []string{
			"根据文档", "文档显示", "明确指出", "具体说明",
			"详细介绍", "文档中提到", "资料表明",
			"according to the document", "the document states",
			"the documentation mentions", "as described in the document",
		},
		HallucinationPhrases: []string{
			"众所周知", "一般来说", "通常情况下", "根据常识",
			"我认为", "个人觉得", "据我了解",
			"as is well known", "generally speaking", "in my opinion",
			"i believe", "common sense tells", "as far as i know",
		},
		AbsenceAdmissions: []string{
			"没有找到", "无相关信息", "文档中没有",
			"no relevant information", "could not find",
			"not found in the document",
		},
		InsufficiencyAdmissions: []string{
			"没有找到", "信息不足", "无法回答",
			"insufficient information", "cannot answer", "could not find",
		},
		LogicalConnectors: []string{
			"因此", "所以", "但是", "然而", "另外", "此外", "首先", "其次",
			"therefore", "however", "moreover", "furthermore",
			"first", "second", "additionally",
		},
		ContradictionPairs: []ContradictionPair{
			{regexp.MustCompile(`不是.*是`), regexp.MustCompile(`是.*不是`)},
			{regexp.MustCompile(`没有.*有`), regexp.MustCompile(`有.*没有`)},
			{regexp.MustCompile(`不能.*能`), regexp.MustCompile(`能.*不能`)},
			{regexp.MustCompile(`不会.*会`), regexp.MustCompile(`会.*不会`)},
			{regexp.MustCompile(`\bis not\b.*\bis\b`), regexp.MustCompile(`\bis\b.*\bis not\b`)},
			{regexp.MustCompile(`\bcannot\b.*\bcan\b`), regexp.MustCompile(`\bcan\b.*\bcannot\b`)},
		},
		SemanticHints: map[string][]string{
			"什么":   {"介绍", "定义", "解释", "说明"},
			"如何":   {"方法", "步骤", "流程", "操作"},
			"为什么":  {"原因", "因为", "由于", "原理"},
			"哪里":   {"位置", "地方", "所在", "地点"},
			"什么时候": {"时间", "时候", "何时", "日期"},
			"what":  {"definition", "introduction", "refers", "means"},
			"how":   {"method", "steps", "procedure", "process"},
			"why":   {"because", "reason", "due to", "cause"},
			"where": {"location", "located", "place"},
			"when":  {"time", "date", "during"},
		},
		QuestionTypes: map[string][]string{
			"什么":   {"定义", "介绍", "解释", "含义", "意思", "概念"},
			"如何":   {"方法", "步骤", "流程", "途径", "方式", "手段", "过程", "阶段"},
			"为什么":  {"原因", "解释", "分析", "理由", "缘由", "根源"},
			"哪里":   {"位置", "地点"},
			"什么时候": {"时间", "日期"},
			"多少":   {"数量", "价格", "比例"},
			"what":  {"definition", "refers", "means", "concept"},
			"how":   {"method", "steps", "procedure", "process"},
			"why":   {"because", "reason", "cause"},
			"where": {"location", "located"},
			"when":  {"time", "date"},
			"how many": {"count", "number", "ratio"},
		},
	}
}
