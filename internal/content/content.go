// Package content holds the static question, narrative and action plan
// tables of the diagnostic. The prose lives in catalog.yaml and is embedded
// into the binary.
package content

import (
	_ "embed"
	"errors"
	"fmt"
	"sync"

	"github.com/maturity-diagnostic/internal/domain"
	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var catalogYAML []byte

// ErrInvalidCatalog indicates the content tables are malformed.
var ErrInvalidCatalog = errors.New("invalid content catalog")

// QuestionContent is the full content attached to one question.
type QuestionContent struct {
	ID          int                                  `yaml:"id"`
	Title       string                               `yaml:"title"`
	Text        string                               `yaml:"text"`
	Options     map[domain.Answer]string             `yaml:"options"`
	Strengths   map[domain.Answer][]string           `yaml:"strengths"`
	Gaps        map[domain.Answer][]string           `yaml:"gaps"`
	ActionPlans map[domain.Answer]*domain.ActionPlan `yaml:"action_plans"`
}

// Catalog is the parsed content table. It is read-only after Load.
type Catalog struct {
	Questions         []QuestionContent       `yaml:"questions"`
	CrisisGaps        []string                `yaml:"crisis_gaps"`
	FallbackStrength  string                  `yaml:"fallback_strength"`
	Levels            map[domain.Level]string `yaml:"levels"`
	ScoreDescriptions map[int]string          `yaml:"score_descriptions"`
}

var (
	defaultOnce    sync.Once
	defaultCatalog *Catalog
)

// Default returns the embedded catalog. It panics if the embedded data is
// malformed, which is caught by the package tests.
func Default() *Catalog {
	defaultOnce.Do(func() {
		c, err := Load(catalogYAML)
		if err != nil {
			panic(err)
		}
		defaultCatalog = c
	})
	return defaultCatalog
}

// Load parses and validates a catalog document.
func Load(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks the shape the narrative rules depend on.
func (c *Catalog) Validate() error {
	if len(c.Questions) != domain.QuestionCount {
		return fmt.Errorf("%w: expected %d questions, got %d", ErrInvalidCatalog, domain.QuestionCount, len(c.Questions))
	}

	for i, q := range c.Questions {
		if q.ID != i+1 {
			return fmt.Errorf("%w: question %d has id %d", ErrInvalidCatalog, i+1, q.ID)
		}
		if q.Text == "" {
			return fmt.Errorf("%w: question %d has no text", ErrInvalidCatalog, q.ID)
		}
		for _, a := range domain.AllAnswers {
			if q.Options[a] == "" {
				return fmt.Errorf("%w: question %d has no label for %s", ErrInvalidCatalog, q.ID, a)
			}
		}
		if err := checkCount(q.Strengths[domain.AnswerD], 2, 2, q.ID, "top strengths"); err != nil {
			return err
		}
		if err := checkCount(q.Strengths[domain.AnswerC], 2, 2, q.ID, "mid strengths"); err != nil {
			return err
		}
		if err := checkCount(q.Strengths[domain.AnswerB], 1, 1, q.ID, "early-stage strengths"); err != nil {
			return err
		}
		if err := checkCount(q.Gaps[domain.AnswerA], 2, 3, q.ID, "severe gaps"); err != nil {
			return err
		}
		if err := checkCount(q.Gaps[domain.AnswerB], 1, 2, q.ID, "moderate gaps"); err != nil {
			return err
		}
		for a, plan := range q.ActionPlans {
			if !a.IsValid() {
				return fmt.Errorf("%w: question %d has plan for unknown answer %q", ErrInvalidCatalog, q.ID, a)
			}
			if plan == nil || plan.NextStep == "" || plan.WhatToDo == "" {
				return fmt.Errorf("%w: question %d answer %s has an incomplete plan", ErrInvalidCatalog, q.ID, a)
			}
		}
	}

	if len(c.CrisisGaps) != 3 {
		return fmt.Errorf("%w: expected 3 crisis gaps, got %d", ErrInvalidCatalog, len(c.CrisisGaps))
	}
	if c.FallbackStrength == "" {
		return fmt.Errorf("%w: fallback strength is empty", ErrInvalidCatalog)
	}
	for _, l := range []domain.Level{domain.LevelBeginner, domain.LevelIntermediate, domain.LevelAdvanced} {
		if c.Levels[l] == "" {
			return fmt.Errorf("%w: no label for level %s", ErrInvalidCatalog, l)
		}
	}
	for s := 1; s <= 5; s++ {
		if c.ScoreDescriptions[s] == "" {
			return fmt.Errorf("%w: no description for score %d", ErrInvalidCatalog, s)
		}
	}

	return nil
}

func checkCount(items []string, min, max, questionID int, what string) error {
	if len(items) < min || len(items) > max {
		return fmt.Errorf("%w: question %d has %d %s", ErrInvalidCatalog, questionID, len(items), what)
	}
	return nil
}

// Question returns the content for a 1-based question id.
func (c *Catalog) Question(id int) (*QuestionContent, bool) {
	if id < 1 || id > len(c.Questions) {
		return nil, false
	}
	return &c.Questions[id-1], true
}

// QuestionList returns the form content in question order.
func (c *Catalog) QuestionList() []domain.Question {
	out := make([]domain.Question, 0, len(c.Questions))
	for _, q := range c.Questions {
		dq := domain.Question{ID: q.ID, Title: q.Title, Text: q.Text}
		for _, a := range domain.AllAnswers {
			dq.Options = append(dq.Options, domain.QuestionOption{Value: a, Label: q.Options[a]})
		}
		out = append(out, dq)
	}
	return out
}

// Strengths returns the strength statements for a question answered with a.
func (c *Catalog) Strengths(questionID int, a domain.Answer) []string {
	q, ok := c.Question(questionID)
	if !ok {
		return nil
	}
	return q.Strengths[a]
}

// Gaps returns the gap statements for a question answered with a.
func (c *Catalog) Gaps(questionID int, a domain.Answer) []string {
	q, ok := c.Question(questionID)
	if !ok {
		return nil
	}
	return q.Gaps[a]
}

// ActionPlan resolves the plan for a (question, answer) pair. A missing plan
// is a normal outcome, reported with ok=false.
func (c *Catalog) ActionPlan(questionID int, a domain.Answer) (*domain.ActionPlan, bool) {
	q, ok := c.Question(questionID)
	if !ok {
		return nil, false
	}
	plan, ok := q.ActionPlans[a]
	if !ok || plan == nil {
		return nil, false
	}
	return clonePlan(plan), true
}

// GenerateActionPlans resolves one slot per question, in q1..q4 order.
func (c *Catalog) GenerateActionPlans(answers domain.DiagnosticAnswers) domain.ActionPlanSet {
	var set domain.ActionPlanSet
	for i, a := range answers.All() {
		plan, _ := c.ActionPlan(i+1, a)
		set[i] = domain.PlanSlot{QuestionID: i + 1, Answer: a, Plan: plan}
	}
	return set
}

// LevelLabel returns the display label for a level.
func (c *Catalog) LevelLabel(l domain.Level) string {
	return c.Levels[l]
}

// ScoreDescription returns the narrative for a 1..5 score, or "" otherwise.
func (c *Catalog) ScoreDescription(score int) string {
	return c.ScoreDescriptions[score]
}

func clonePlan(p *domain.ActionPlan) *domain.ActionPlan {
	cp := *p
	cp.HowToDo = append([]string(nil), p.HowToDo...)
	cp.PracticalExamples = append([]string(nil), p.PracticalExamples...)
	cp.SuggestedTools = append([]string(nil), p.SuggestedTools...)
	return &cp
}
