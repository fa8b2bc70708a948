package scoring

import (
	"testing"

	"github.com/maturity-diagnostic/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// allCombinations enumerates the 4^4 answer sets.
func allCombinations() []domain.DiagnosticAnswers {
	var out []domain.DiagnosticAnswers
	for _, a := range domain.AllAnswers {
		for _, b := range domain.AllAnswers {
			for _, c := range domain.AllAnswers {
				for _, d := range domain.AllAnswers {
					out = append(out, domain.DiagnosticAnswers{Q1: a, Q2: b, Q3: c, Q4: d})
				}
			}
		}
	}
	return out
}

func expectedRaw(total int) (int, domain.Level) {
	switch {
	case total <= 6:
		return 1, domain.LevelBeginner
	case total <= 9:
		return 2, domain.LevelBeginner
	case total <= 11:
		return 3, domain.LevelIntermediate
	case total <= 14:
		return 4, domain.LevelAdvanced
	default:
		return 5, domain.LevelAdvanced
	}
}

func TestCalculate_Exhaustive(t *testing.T) {
	combos := allCombinations()
	require.Len(t, combos, 256)

	for _, answers := range combos {
		got := Calculate(answers)

		sum := 0
		aCount := 0
		for _, a := range answers.All() {
			sum += a.Points()
			if a == domain.AnswerA {
				aCount++
			}
		}

		assert.Equal(t, sum, got.TotalPoints, answers.String())
		assert.GreaterOrEqual(t, got.TotalPoints, 4)
		assert.LessOrEqual(t, got.TotalPoints, 16)
		assert.GreaterOrEqual(t, got.Score, 1)
		assert.LessOrEqual(t, got.Score, 5)
		assert.Equal(t, aCount >= 2, got.HasTwoOrMoreA, answers.String())

		rawScore, rawLevel := expectedRaw(sum)
		if aCount >= 2 && rawScore > 3 {
			assert.Equal(t, 3, got.Score, answers.String())
			assert.Equal(t, domain.LevelIntermediate, got.Level, answers.String())
			assert.True(t, got.CappedScore, answers.String())
		} else {
			assert.Equal(t, rawScore, got.Score, answers.String())
			assert.Equal(t, rawLevel, got.Level, answers.String())
			assert.False(t, got.CappedScore, answers.String())
		}

		if got.HasTwoOrMoreA {
			assert.LessOrEqual(t, got.Score, 3, answers.String())
			assert.NotEqual(t, domain.LevelAdvanced, got.Level, answers.String())
		}
	}
}

func TestRawScore_Boundaries(t *testing.T) {
	tests := []struct {
		total     int
		wantScore int
		wantLevel domain.Level
	}{
		{4, 1, domain.LevelBeginner},
		{6, 1, domain.LevelBeginner},
		{7, 2, domain.LevelBeginner},
		{9, 2, domain.LevelBeginner},
		{10, 3, domain.LevelIntermediate},
		{11, 3, domain.LevelIntermediate},
		{12, 4, domain.LevelAdvanced},
		{14, 4, domain.LevelAdvanced},
		{15, 5, domain.LevelAdvanced},
		{16, 5, domain.LevelAdvanced},
	}

	for _, tt := range tests {
		score, level := RawScore(tt.total)
		assert.Equal(t, tt.wantScore, score, "total %d", tt.total)
		assert.Equal(t, tt.wantLevel, level, "total %d", tt.total)
	}
}

func TestCalculate_Scenarios(t *testing.T) {
	tests := []struct {
		name    string
		answers string
		want    domain.ScoreResult
	}{
		{
			name:    "all best answers",
			answers: "DDDD",
			want:    domain.ScoreResult{TotalPoints: 16, Score: 5, Level: domain.LevelAdvanced},
		},
		{
			name:    "two A with raw score three is not capped",
			answers: "AADD",
			want:    domain.ScoreResult{TotalPoints: 10, Score: 3, Level: domain.LevelIntermediate, HasTwoOrMoreA: true},
		},
		{
			name:    "two A with raw score two stays beginner",
			answers: "AACC",
			want:    domain.ScoreResult{TotalPoints: 8, Score: 2, Level: domain.LevelBeginner, HasTwoOrMoreA: true},
		},
		{
			name:    "single A is not a cap trigger",
			answers: "ABDD",
			want:    domain.ScoreResult{TotalPoints: 11, Score: 3, Level: domain.LevelIntermediate},
		},
		{
			name:    "all worst answers",
			answers: "AAAA",
			want:    domain.ScoreResult{TotalPoints: 4, Score: 1, Level: domain.LevelBeginner, HasTwoOrMoreA: true},
		},
		{
			name:    "single A with high total stays advanced",
			answers: "ADDD",
			want:    domain.ScoreResult{TotalPoints: 13, Score: 4, Level: domain.LevelAdvanced},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			answers, err := domain.AnswersFromString(tt.answers)
			require.NoError(t, err)
			assert.Equal(t, tt.want, Calculate(answers))
		})
	}
}

func TestCalculate_Idempotent(t *testing.T) {
	for _, answers := range allCombinations() {
		assert.Equal(t, Calculate(answers), Calculate(answers))
	}
}

func TestApplyCap(t *testing.T) {
	tests := []struct {
		name       string
		score      int
		level      domain.Level
		twoOrMoreA bool
		wantScore  int
		wantLevel  domain.Level
		wantCapped bool
	}{
		{"score 5 capped", 5, domain.LevelAdvanced, true, 3, domain.LevelIntermediate, true},
		{"score 4 capped", 4, domain.LevelAdvanced, true, 3, domain.LevelIntermediate, true},
		{"score 3 at boundary untouched", 3, domain.LevelIntermediate, true, 3, domain.LevelIntermediate, false},
		{"score 1 never raised", 1, domain.LevelBeginner, true, 1, domain.LevelBeginner, false},
		{"no A trigger", 5, domain.LevelAdvanced, false, 5, domain.LevelAdvanced, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score, level, capped := ApplyCap(tt.score, tt.level, tt.twoOrMoreA)
			assert.Equal(t, tt.wantScore, score)
			assert.Equal(t, tt.wantLevel, level)
			assert.Equal(t, tt.wantCapped, capped)
		})
	}
}

func TestCountA(t *testing.T) {
	answers, _ := domain.AnswersFromString("ABAC")
	assert.Equal(t, 2, CountA(answers))
}
