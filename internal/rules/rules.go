// Package rules derives the strengths and gaps narrative from a set of
// answers. Each rule selects a statement group from the content catalog by
// (question, answer); the rules themselves carry no prose.
package rules

import (
	"fmt"

	"github.com/maturity-diagnostic/internal/domain"
)

// Tier names the kind of statement group a rule emits.
type Tier string

const (
	// TierTop is emitted for the best answer (D).
	TierTop Tier = "top"
	// TierMid is emitted for C answers.
	TierMid Tier = "mid"
	// TierEarly is the weaker B signal, used only when no top or mid
	// strength was found anywhere.
	TierEarly Tier = "early"
	// TierSevere is emitted for A answers.
	TierSevere Tier = "severe"
	// TierModerate is emitted for B answers.
	TierModerate Tier = "moderate"
)

// CrisisScoreThreshold is the highest overall score that still prepends the
// crisis-mode gap statements.
const CrisisScoreThreshold = 2

// Rule represents a single narrative rule.
type Rule struct {
	// ID is the unique identifier for this rule.
	ID string

	// QuestionID is the 1-based question the rule inspects.
	QuestionID int

	// Answer is the answer that triggers the rule.
	Answer domain.Answer

	// Tier is the statement group the rule emits.
	Tier Tier
}

// Match checks if the answers trigger this rule.
func (r *Rule) Match(answers domain.DiagnosticAnswers) bool {
	a, ok := answers.For(r.QuestionID)
	return ok && a == r.Answer
}

func newRule(questionID int, answer domain.Answer, tier Tier) *Rule {
	return &Rule{
		ID:         fmt.Sprintf("q%d_%s_%s", questionID, tier, answer),
		QuestionID: questionID,
		Answer:     answer,
		Tier:       tier,
	}
}

// StrengthRules returns the top and mid strength rules in question order.
// Within a question, D is checked before C; at most one can match.
func StrengthRules() []*Rule {
	var out []*Rule
	for q := 1; q <= domain.QuestionCount; q++ {
		out = append(out,
			newRule(q, domain.AnswerD, TierTop),
			newRule(q, domain.AnswerC, TierMid),
		)
	}
	return out
}

// EarlyStageRules returns the fallback strength rules for B answers.
func EarlyStageRules() []*Rule {
	var out []*Rule
	for q := 1; q <= domain.QuestionCount; q++ {
		out = append(out, newRule(q, domain.AnswerB, TierEarly))
	}
	return out
}

// GapRules returns the per-question gap rules in question order. Within a
// question, A is checked before B; C and D produce no gap.
func GapRules() []*Rule {
	var out []*Rule
	for q := 1; q <= domain.QuestionCount; q++ {
		out = append(out,
			newRule(q, domain.AnswerA, TierSevere),
			newRule(q, domain.AnswerB, TierModerate),
		)
	}
	return out
}
