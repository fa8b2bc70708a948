// Package scoring maps four ordinal answers to a bounded maturity score.
//
// The engine is a pure function: it has no state, performs no I/O and is
// total over valid answers.
package scoring

import "github.com/maturity-diagnostic/internal/domain"

// MaxScoreWithTwoOrMoreA is the ceiling applied when at least two answers
// are A.
const MaxScoreWithTwoOrMoreA = 3

// bucket maps an inclusive upper bound of total points to a raw score.
type bucket struct {
	maxPoints int
	score     int
	level     domain.Level
}

// buckets are ordered by maxPoints; the last bucket covers the maximum of 16.
var buckets = []bucket{
	{maxPoints: 6, score: 1, level: domain.LevelBeginner},
	{maxPoints: 9, score: 2, level: domain.LevelBeginner},
	{maxPoints: 11, score: 3, level: domain.LevelIntermediate},
	{maxPoints: 14, score: 4, level: domain.LevelAdvanced},
	{maxPoints: 16, score: 5, level: domain.LevelAdvanced},
}

// RawScore buckets a point total into a score and level before the safety
// cap is applied.
func RawScore(totalPoints int) (int, domain.Level) {
	for _, b := range buckets {
		if totalPoints <= b.maxPoints {
			return b.score, b.level
		}
	}
	last := buckets[len(buckets)-1]
	return last.score, last.level
}

// CountA returns how many answers equal A.
func CountA(answers domain.DiagnosticAnswers) int {
	n := 0
	for _, a := range answers.All() {
		if a == domain.AnswerA {
			n++
		}
	}
	return n
}

// Calculate computes the ScoreResult for a set of answers.
//
// A respondent with two or more A answers never scores above 3: a raw score
// of 4 or 5 is pulled down to 3/intermediate and CappedScore is set. Raw
// scores of 3 or less are left alone.
func Calculate(answers domain.DiagnosticAnswers) domain.ScoreResult {
	total := 0
	for _, a := range answers.All() {
		total += a.Points()
	}

	score, level := RawScore(total)
	hasTwoOrMoreA := CountA(answers) >= 2
	score, level, capped := ApplyCap(score, level, hasTwoOrMoreA)

	return domain.ScoreResult{
		TotalPoints:   total,
		Score:         score,
		Level:         level,
		HasTwoOrMoreA: hasTwoOrMoreA,
		CappedScore:   capped,
	}
}

// ApplyCap enforces the two-or-more-A ceiling on a raw score. The cap only
// ever lowers the result to 3/intermediate, never below.
//
// With four questions two A answers contribute 2 points, so the best total
// they allow is 10 (raw score 3) and the cap does not fire through Calculate.
func ApplyCap(score int, level domain.Level, hasTwoOrMoreA bool) (int, domain.Level, bool) {
	if hasTwoOrMoreA && score > MaxScoreWithTwoOrMoreA {
		return MaxScoreWithTwoOrMoreA, domain.LevelIntermediate, true
	}
	return score, level, false
}
