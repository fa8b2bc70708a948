package content

import (
	"errors"
	"testing"

	"github.com/maturity-diagnostic/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_EmbeddedCatalogIsValid(t *testing.T) {
	c := Default()
	require.NotNil(t, c)
	require.Len(t, c.Questions, domain.QuestionCount)
	assert.Len(t, c.CrisisGaps, 3)
	assert.NotEmpty(t, c.FallbackStrength)
}

func TestCatalog_ActionPlan(t *testing.T) {
	c := Default()

	tests := []struct {
		name       string
		questionID int
		answer     domain.Answer
		wantPlan   bool
	}{
		{"q1 worst answer", 1, domain.AnswerA, true},
		{"q4 best answer", 4, domain.AnswerD, true},
		{"question out of range low", 0, domain.AnswerA, false},
		{"question out of range high", 5, domain.AnswerA, false},
		{"unknown answer", 2, domain.Answer("E"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan, ok := c.ActionPlan(tt.questionID, tt.answer)
			assert.Equal(t, tt.wantPlan, ok)
			if tt.wantPlan {
				require.NotNil(t, plan)
				assert.NotEmpty(t, plan.NextStep)
				assert.NotEmpty(t, plan.HowToDo)
			} else {
				assert.Nil(t, plan)
			}
		})
	}
}

func TestCatalog_ActionPlanReturnsCopy(t *testing.T) {
	c := Default()

	plan, ok := c.ActionPlan(1, domain.AnswerA)
	require.True(t, ok)
	original := plan.HowToDo[0]
	plan.HowToDo[0] = "mutated"
	plan.NextStep = "mutated"

	again, _ := c.ActionPlan(1, domain.AnswerA)
	assert.Equal(t, original, again.HowToDo[0])
	assert.NotEqual(t, "mutated", again.NextStep)
}

func TestCatalog_GenerateActionPlans_FixedOrder(t *testing.T) {
	c := Default()

	for _, s := range []string{"AAAA", "ABCD", "DCBA", "DDDD"} {
		answers, err := domain.AnswersFromString(s)
		require.NoError(t, err)

		set := c.GenerateActionPlans(answers)
		require.Len(t, set, domain.QuestionCount)
		for i, slot := range set {
			assert.Equal(t, i+1, slot.QuestionID)
			assert.Equal(t, []string{"q1", "q2", "q3", "q4"}[i], slot.Key())
			want, wantOK := c.ActionPlan(i+1, answers.All()[i])
			assert.Equal(t, wantOK, slot.Present())
			assert.Equal(t, want, slot.Plan)
		}
	}
}

func TestCatalog_AbsentPlanIsPreserved(t *testing.T) {
	doc := minimalCatalog(`
    action_plans:
      A:
        scenario: s
        best_practice: b
        next_step: n
        what_to_do: w
        how_to_do: [h]
        practical_examples: [p]
        suggested_tools: [t]
        expected_result: e`)

	c, err := Load([]byte(doc))
	require.NoError(t, err)

	answers := domain.DiagnosticAnswers{Q1: "A", Q2: "D", Q3: "D", Q4: "D"}
	set := c.GenerateActionPlans(answers)
	assert.True(t, set[0].Present())
	assert.False(t, set[1].Present())
	assert.False(t, set[3].Present())
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"not yaml", "questions: [unclosed"},
		{"no questions", "crisis_gaps: [a, b, c]"},
		{"incomplete plan", minimalCatalog(`
    action_plans:
      A:
        scenario: s`)},
		{"plan for unknown answer", minimalCatalog(`
    action_plans:
      Z:
        next_step: n
        what_to_do: w`)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load([]byte(tt.doc))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidCatalog))
		})
	}
}

func TestCatalog_QuestionList(t *testing.T) {
	qs := Default().QuestionList()
	require.Len(t, qs, 4)
	for i, q := range qs {
		assert.Equal(t, i+1, q.ID)
		require.Len(t, q.Options, 4)
		assert.Equal(t, domain.AnswerA, q.Options[0].Value)
		assert.Equal(t, domain.AnswerD, q.Options[3].Value)
	}
}

func TestCatalog_LabelsAndDescriptions(t *testing.T) {
	c := Default()
	assert.NotEmpty(t, c.LevelLabel(domain.LevelAdvanced))
	for s := 1; s <= 5; s++ {
		assert.NotEmpty(t, c.ScoreDescription(s))
	}
	assert.Empty(t, c.ScoreDescription(0))
	assert.Empty(t, c.ScoreDescription(6))
}

// minimalCatalog builds a valid four question document; extra is appended
// to the first question.
func minimalCatalog(extra string) string {
	question := func(id string) string {
		return `
  - id: ` + id + `
    title: t
    text: q
    options: {A: a, B: b, C: c, D: d}
    strengths:
      D: [d1, d2]
      C: [c1, c2]
      B: [b1]
    gaps:
      A: [a1, a2, a3]
      B: [b1, b2]`
	}
	return "questions:" + question("1") + extra + question("2") + question("3") + question("4") + `
crisis_gaps: [x, y, z]
fallback_strength: f
levels: {beginner: B, intermediate: I, advanced: A}
score_descriptions: {1: one, 2: two, 3: three, 4: four, 5: five}
`
}
