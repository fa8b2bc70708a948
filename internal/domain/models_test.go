package domain

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnswer_Points(t *testing.T) {
	tests := []struct {
		answer Answer
		want   int
	}{
		{AnswerA, 1},
		{AnswerB, 2},
		{AnswerC, 3},
		{AnswerD, 4},
		{Answer("E"), 0},
		{Answer(""), 0},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.answer.Points(), "answer %q", tt.answer)
	}
}

func TestAnswersFromString(t *testing.T) {
	got, err := AnswersFromString("ABCD")
	require.NoError(t, err)
	assert.Equal(t, DiagnosticAnswers{Q1: AnswerA, Q2: AnswerB, Q3: AnswerC, Q4: AnswerD}, got)
	assert.Equal(t, "ABCD", got.String())

	for _, bad := range []string{"", "ABC", "ABCDE", "abcd", "ABCX"} {
		_, err := AnswersFromString(bad)
		assert.True(t, errors.Is(err, ErrInvalidAnswer), "input %q", bad)
	}
}

func TestDiagnosticAnswers_Validate(t *testing.T) {
	assert.NoError(t, DiagnosticAnswers{Q1: "A", Q2: "B", Q3: "C", Q4: "D"}.Validate())

	err := DiagnosticAnswers{Q1: "A", Q2: "B", Q3: "Z", Q4: "D"}.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidAnswer)
	assert.Contains(t, err.Error(), "q3")
}

func TestDiagnosticAnswers_For(t *testing.T) {
	answers := DiagnosticAnswers{Q1: "A", Q2: "B", Q3: "C", Q4: "D"}

	a, ok := answers.For(3)
	assert.True(t, ok)
	assert.Equal(t, AnswerC, a)

	_, ok = answers.For(0)
	assert.False(t, ok)
	_, ok = answers.For(5)
	assert.False(t, ok)
}

func TestActionPlanSet_MarshalJSON(t *testing.T) {
	set := ActionPlanSet{
		{QuestionID: 1, Answer: AnswerA, Plan: &ActionPlan{NextStep: "one"}},
		{QuestionID: 2, Answer: AnswerD},
		{QuestionID: 3, Answer: AnswerB, Plan: &ActionPlan{NextStep: "three"}},
		{QuestionID: 4, Answer: AnswerC, Plan: &ActionPlan{NextStep: "four"}},
	}

	raw, err := json.Marshal(set)
	require.NoError(t, err)

	s := string(raw)
	assert.NotContains(t, s, `"q2"`)
	assert.Less(t, strings.Index(s, `"q1"`), strings.Index(s, `"q3"`))
	assert.Less(t, strings.Index(s, `"q3"`), strings.Index(s, `"q4"`))

	var decoded ActionPlanSet
	require.NoError(t, json.Unmarshal(raw, &decoded))
	plan, ok := decoded.Get(3)
	require.True(t, ok)
	assert.Equal(t, "three", plan.NextStep)
	_, ok = decoded.Get(2)
	assert.False(t, ok)
}

func TestDevolutiva_JSONKeepsSlotAnswers(t *testing.T) {
	answers := DiagnosticAnswers{Q1: AnswerA, Q2: AnswerD, Q3: AnswerB, Q4: AnswerC}
	rec := DiagnosticRecord{
		ID:      "diag_1",
		Answers: answers,
		Devolutiva: Devolutiva{
			Score:   ScoreResult{Score: 2, Level: LevelBeginner},
			Answers: answers,
			ActionPlans: ActionPlanSet{
				{QuestionID: 1, Answer: AnswerA, Plan: &ActionPlan{NextStep: "one"}},
				{QuestionID: 2, Answer: AnswerD},
				{QuestionID: 3, Answer: AnswerB, Plan: &ActionPlan{NextStep: "three"}},
				{QuestionID: 4, Answer: AnswerC, Plan: &ActionPlan{NextStep: "four"}},
			},
		},
	}

	raw, err := json.Marshal(rec)
	require.NoError(t, err)

	var decoded DiagnosticRecord
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, rec.Devolutiva.ActionPlans, decoded.Devolutiva.ActionPlans)
	assert.Equal(t, AnswerD, decoded.Devolutiva.ActionPlans[1].Answer)
	assert.False(t, decoded.Devolutiva.ActionPlans[1].Present())
}

func TestActionPlanSet_EmptyMarshalsToObject(t *testing.T) {
	raw, err := json.Marshal(ActionPlanSet{})
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(raw))
}

func TestDiagnosticRecord_WithEnrichment(t *testing.T) {
	rec := DiagnosticRecord{
		ID: "diag_1",
		Devolutiva: Devolutiva{
			Score:     ScoreResult{Score: 3, Level: LevelIntermediate},
			Strengths: []string{"s"},
		},
	}

	enriched := rec.WithEnrichment("texto")

	assert.Equal(t, "texto", enriched.Devolutiva.EnrichedContent)
	assert.Empty(t, rec.Devolutiva.EnrichedContent)
	assert.Equal(t, rec.Devolutiva.Score, enriched.Devolutiva.Score)
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(WrapError("send", ErrCollaboratorUnavailable, true)))
	assert.False(t, IsRetryable(WrapError("send", ErrRender, false)))
	assert.False(t, IsRetryable(errors.New("plain")))
}
