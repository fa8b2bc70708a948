package rules

import (
	"github.com/maturity-diagnostic/internal/content"
	"github.com/maturity-diagnostic/internal/domain"
	"go.uber.org/zap"
)

// Narrative is the derived strengths and gaps for one respondent.
type Narrative struct {
	Strengths []string
	Gaps      []string
}

// Engine applies the narrative rules against a content catalog.
type Engine struct {
	catalog       *content.Catalog
	strengthRules []*Rule
	earlyRules    []*Rule
	gapRules      []*Rule
	logger        *zap.Logger
}

// NewEngine creates a new rule engine over the given catalog.
func NewEngine(catalog *content.Catalog, logger *zap.Logger) *Engine {
	return &Engine{
		catalog:       catalog,
		strengthRules: StrengthRules(),
		earlyRules:    EarlyStageRules(),
		gapRules:      GapRules(),
		logger:        logger.Named("rule_engine"),
	}
}

// Derive computes strengths and gaps for the answers and their score.
func (e *Engine) Derive(answers domain.DiagnosticAnswers, score domain.ScoreResult) Narrative {
	n := Narrative{
		Strengths: e.IdentifyStrengths(answers),
		Gaps:      e.IdentifyGaps(answers, score),
	}

	e.logger.Debug("narrative derived",
		zap.String("answers", answers.String()),
		zap.Int("strengths", len(n.Strengths)),
		zap.Int("gaps", len(n.Gaps)),
	)

	return n
}

// IdentifyStrengths returns the strength statements in question order.
//
// Top and mid strengths are collected first. Only when none matched are the
// early-stage B statements used, and only when those are also empty is the
// single generic fallback returned.
func (e *Engine) IdentifyStrengths(answers domain.DiagnosticAnswers) []string {
	strengths := e.collect(e.strengthRules, answers, e.catalog.Strengths)
	if len(strengths) == 0 {
		strengths = e.collect(e.earlyRules, answers, e.catalog.Strengths)
	}
	if len(strengths) == 0 {
		strengths = []string{e.catalog.FallbackStrength}
	}
	return strengths
}

// IdentifyGaps returns the gap statements. A score at or below
// CrisisScoreThreshold prepends the crisis statements. No de-duplication.
func (e *Engine) IdentifyGaps(answers domain.DiagnosticAnswers, score domain.ScoreResult) []string {
	gaps := make([]string, 0)
	if score.Score <= CrisisScoreThreshold {
		gaps = append(gaps, e.catalog.CrisisGaps...)
	}
	return append(gaps, e.collect(e.gapRules, answers, e.catalog.Gaps)...)
}

func (e *Engine) collect(rules []*Rule, answers domain.DiagnosticAnswers, lookup func(int, domain.Answer) []string) []string {
	out := make([]string, 0)
	for _, rule := range rules {
		if rule.Match(answers) {
			out = append(out, lookup(rule.QuestionID, rule.Answer)...)
		}
	}
	return out
}
