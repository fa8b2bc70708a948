// Package domain contains the core domain models and types.
// These models represent the business logic contracts and are independent
// of any infrastructure concerns.
package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Answer is one of the four ordinal choices for a question, A (lowest
// maturity) through D (highest).
type Answer string

const (
	AnswerA Answer = "A"
	AnswerB Answer = "B"
	AnswerC Answer = "C"
	AnswerD Answer = "D"
)

// AllAnswers lists the answers in ascending maturity order.
var AllAnswers = [4]Answer{AnswerA, AnswerB, AnswerC, AnswerD}

// IsValid checks if the answer value is one of the allowed values.
func (a Answer) IsValid() bool {
	switch a {
	case AnswerA, AnswerB, AnswerC, AnswerD:
		return true
	default:
		return false
	}
}

// Points returns the score contribution of the answer (A=1 .. D=4).
// Invalid answers contribute nothing.
func (a Answer) Points() int {
	switch a {
	case AnswerA:
		return 1
	case AnswerB:
		return 2
	case AnswerC:
		return 3
	case AnswerD:
		return 4
	default:
		return 0
	}
}

// ParseAnswer converts raw input into an Answer.
func ParseAnswer(s string) (Answer, error) {
	a := Answer(s)
	if !a.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidAnswer, s)
	}
	return a, nil
}

// QuestionCount is the fixed number of questions in the diagnostic.
const QuestionCount = 4

// DiagnosticAnswers holds exactly one answer per question.
type DiagnosticAnswers struct {
	Q1 Answer `json:"q1" binding:"required,oneof=A B C D"`
	Q2 Answer `json:"q2" binding:"required,oneof=A B C D"`
	Q3 Answer `json:"q3" binding:"required,oneof=A B C D"`
	Q4 Answer `json:"q4" binding:"required,oneof=A B C D"`
}

// All returns the answers in question order.
func (d DiagnosticAnswers) All() [QuestionCount]Answer {
	return [QuestionCount]Answer{d.Q1, d.Q2, d.Q3, d.Q4}
}

// For returns the answer for a 1-based question id.
func (d DiagnosticAnswers) For(questionID int) (Answer, bool) {
	if questionID < 1 || questionID > QuestionCount {
		return "", false
	}
	return d.All()[questionID-1], true
}

// Validate reports the first answer outside the A..D domain.
func (d DiagnosticAnswers) Validate() error {
	for i, a := range d.All() {
		if !a.IsValid() {
			return fmt.Errorf("%w: q%d=%q", ErrInvalidAnswer, i+1, a)
		}
	}
	return nil
}

// AnswersFromString builds answers from a four letter string such as "ABCD".
func AnswersFromString(s string) (DiagnosticAnswers, error) {
	if len(s) != QuestionCount {
		return DiagnosticAnswers{}, fmt.Errorf("%w: expected %d answers, got %q", ErrInvalidAnswer, QuestionCount, s)
	}
	var parsed [QuestionCount]Answer
	for i := 0; i < QuestionCount; i++ {
		a, err := ParseAnswer(s[i : i+1])
		if err != nil {
			return DiagnosticAnswers{}, err
		}
		parsed[i] = a
	}
	return DiagnosticAnswers{Q1: parsed[0], Q2: parsed[1], Q3: parsed[2], Q4: parsed[3]}, nil
}

// String renders the answers as a compact four letter string.
func (d DiagnosticAnswers) String() string {
	return string(d.Q1) + string(d.Q2) + string(d.Q3) + string(d.Q4)
}

// Level is the three-valued maturity classification.
type Level string

const (
	LevelBeginner     Level = "beginner"
	LevelIntermediate Level = "intermediate"
	LevelAdvanced     Level = "advanced"
)

// IsValid checks if the level value is one of the allowed values.
func (l Level) IsValid() bool {
	switch l {
	case LevelBeginner, LevelIntermediate, LevelAdvanced:
		return true
	default:
		return false
	}
}

// ScoreResult is derived from DiagnosticAnswers by the scoring engine and is
// never constructed independently.
type ScoreResult struct {
	TotalPoints   int   `json:"totalPoints"`
	Score         int   `json:"score"`
	Level         Level `json:"level"`
	HasTwoOrMoreA bool  `json:"hasTwoOrMoreA"`
	CappedScore   bool  `json:"cappedScore"`
}

// ActionPlan is static remediation content tied to one (question, answer) pair.
type ActionPlan struct {
	Scenario          string   `json:"scenarioReal" yaml:"scenario"`
	BestPractice      string   `json:"bestPractice" yaml:"best_practice"`
	NextStep          string   `json:"nextStep" yaml:"next_step"`
	WhatToDo          string   `json:"whatToDo" yaml:"what_to_do"`
	HowToDo           []string `json:"howToDo" yaml:"how_to_do"`
	PracticalExamples []string `json:"practicalExamples" yaml:"practical_examples"`
	SuggestedTools    []string `json:"suggestedTools" yaml:"suggested_tools"`
	ExpectedResult    string   `json:"expectedResult" yaml:"expected_result"`
}

// PlanSlot is the action plan outcome for a single question. A nil Plan means
// the answer has no plan defined, which is a normal outcome.
type PlanSlot struct {
	QuestionID int
	Answer     Answer
	Plan       *ActionPlan
}

// Key returns the answer key for the slot ("q1".."q4").
func (s PlanSlot) Key() string {
	return "q" + strconv.Itoa(s.QuestionID)
}

// Present reports whether a plan exists for the slot.
func (s PlanSlot) Present() bool {
	return s.Plan != nil
}

// ActionPlanSet holds one slot per question in q1..q4 order.
type ActionPlanSet [QuestionCount]PlanSlot

// Get returns the plan for a 1-based question id.
func (s ActionPlanSet) Get(questionID int) (*ActionPlan, bool) {
	if questionID < 1 || questionID > QuestionCount {
		return nil, false
	}
	slot := s[questionID-1]
	return slot.Plan, slot.Present()
}

// MarshalJSON encodes the set as an object keyed q1..q4 in order, omitting
// absent plans.
func (s ActionPlanSet) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	first := true
	for _, slot := range s {
		if !slot.Present() {
			continue
		}
		if !first {
			buf.WriteByte(',')
		}
		first = false
		plan, err := json.Marshal(slot.Plan)
		if err != nil {
			return nil, err
		}
		buf.WriteString(strconv.Quote(slot.Key()))
		buf.WriteByte(':')
		buf.Write(plan)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes an object keyed q1..q4. Slot answers are not part of
// the encoding; Devolutiva restores them from its answers.
func (s *ActionPlanSet) UnmarshalJSON(data []byte) error {
	var raw map[string]*ActionPlan
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	for i := range s {
		s[i] = PlanSlot{QuestionID: i + 1}
		s[i].Plan = raw[s[i].Key()]
	}
	return nil
}

// Devolutiva is the feedback bundle returned to a respondent.
type Devolutiva struct {
	Score           ScoreResult       `json:"score"`
	Answers         DiagnosticAnswers `json:"answers"`
	Strengths       []string          `json:"strengths"`
	Gaps            []string          `json:"gaps"`
	ActionPlans     ActionPlanSet     `json:"actionPlans"`
	EnrichedContent string            `json:"enrichedContent,omitempty"`
}

// UnmarshalJSON decodes the bundle and gives each action plan slot the
// answer it was resolved for.
func (d *Devolutiva) UnmarshalJSON(data []byte) error {
	type plain Devolutiva
	var v plain
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*d = Devolutiva(v)
	d.ActionPlans.setAnswers(d.Answers)
	return nil
}

func (s *ActionPlanSet) setAnswers(answers DiagnosticAnswers) {
	for i, a := range answers.All() {
		s[i].QuestionID = i + 1
		s[i].Answer = a
	}
}

// ClientInfo identifies the respondent. Fields are validated before they
// reach the assembler.
type ClientInfo struct {
	Name    string `json:"name" binding:"required,min=2,max=100,personname"`
	Email   string `json:"email" binding:"required,email,max=254"`
	Company string `json:"company" binding:"required,min=2,max=200"`
}

// DiagnosticRecord is the top-level aggregate produced once per submission.
type DiagnosticRecord struct {
	ID          string            `json:"id"`
	ClientName  string            `json:"clientName"`
	ClientEmail string            `json:"clientEmail"`
	CompanyName string            `json:"companyName"`
	Answers     DiagnosticAnswers `json:"answers"`
	Devolutiva  Devolutiva        `json:"devolutiva"`
	CreatedAt   time.Time         `json:"createdAt"`
}

// WithEnrichment returns a copy of the record carrying enrichment text. Score,
// narrative and plans are untouched.
func (r DiagnosticRecord) WithEnrichment(text string) DiagnosticRecord {
	r.Devolutiva.EnrichedContent = text
	r.Devolutiva.Strengths = append([]string(nil), r.Devolutiva.Strengths...)
	r.Devolutiva.Gaps = append([]string(nil), r.Devolutiva.Gaps...)
	return r
}

// StoredRecord is the flat shape persisted by record stores. The full record
// is rebuilt from the answers on read.
type StoredRecord struct {
	ID          string            `json:"id"`
	ExternalID  string            `json:"externalId,omitempty"`
	ClientName  string            `json:"clientName"`
	ClientEmail string            `json:"clientEmail"`
	CompanyName string            `json:"companyName"`
	Answers     DiagnosticAnswers `json:"answers"`
	Score       int               `json:"score"`
	Level       Level             `json:"level"`
	ResultURL   string            `json:"resultUrl"`
	CreatedAt   time.Time         `json:"createdAt"`
}

// Question is the form content for a single question.
type Question struct {
	ID      int              `json:"id"`
	Title   string           `json:"title"`
	Text    string           `json:"text"`
	Options []QuestionOption `json:"options"`
}

// QuestionOption is one selectable answer for a question.
type QuestionOption struct {
	Value Answer `json:"value"`
	Label string `json:"label"`
}
