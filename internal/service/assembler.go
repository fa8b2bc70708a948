// Package service contains the business logic layer.
package service

import (
	"time"

	"github.com/google/uuid"
	"github.com/maturity-diagnostic/internal/content"
	"github.com/maturity-diagnostic/internal/domain"
	"github.com/maturity-diagnostic/internal/rules"
	"github.com/maturity-diagnostic/internal/scoring"
)

// IDPrefix starts every diagnostic id.
const IDPrefix = "diag_"

// Assembler composes scoring, narrative and action plans into records.
// It has no side effects beyond reading the clock and the random source.
type Assembler struct {
	catalog *content.Catalog
	engine  *rules.Engine
	now     func() time.Time
	newID   func() string
}

// NewAssembler creates an Assembler.
func NewAssembler(catalog *content.Catalog, engine *rules.Engine) *Assembler {
	return &Assembler{
		catalog: catalog,
		engine:  engine,
		now:     time.Now,
		newID:   NewID,
	}
}

// NewID returns "diag_" followed by a random (version 4) UUID.
func NewID() string {
	return IDPrefix + uuid.NewString()
}

// Assemble builds a new record with a fresh id and timestamp.
func (a *Assembler) Assemble(info domain.ClientInfo, answers domain.DiagnosticAnswers) *domain.DiagnosticRecord {
	return &domain.DiagnosticRecord{
		ID:          a.newID(),
		ClientName:  info.Name,
		ClientEmail: info.Email,
		CompanyName: info.Company,
		Answers:     answers,
		Devolutiva:  a.Devolutiva(answers),
		CreatedAt:   a.now().UTC(),
	}
}

// Rebuild recomputes the full record of a stored one. The stored score is
// ignored; the same pure functions run over the stored answers.
func (a *Assembler) Rebuild(stored domain.StoredRecord) *domain.DiagnosticRecord {
	return &domain.DiagnosticRecord{
		ID:          stored.ID,
		ClientName:  stored.ClientName,
		ClientEmail: stored.ClientEmail,
		CompanyName: stored.CompanyName,
		Answers:     stored.Answers,
		Devolutiva:  a.Devolutiva(stored.Answers),
		CreatedAt:   stored.CreatedAt,
	}
}

// Devolutiva computes the feedback bundle for a set of answers.
func (a *Assembler) Devolutiva(answers domain.DiagnosticAnswers) domain.Devolutiva {
	score := scoring.Calculate(answers)
	narrative := a.engine.Derive(answers, score)
	return domain.Devolutiva{
		Score:       score,
		Answers:     answers,
		Strengths:   narrative.Strengths,
		Gaps:        narrative.Gaps,
		ActionPlans: a.catalog.GenerateActionPlans(answers),
	}
}
