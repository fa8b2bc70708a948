// Package ai provides the narrative enrichment client interface and its
// provider implementations.
package ai

import (
	"context"

	"github.com/maturity-diagnostic/internal/domain"
)

// Client defines the interface for enrichment service interactions.
// This interface allows for easy mocking and swapping of providers.
type Client interface {
	// Enrich returns free text commenting on a finished diagnostic.
	// The context should carry timeout and cancellation signals.
	Enrich(ctx context.Context, in EnrichmentInput) (string, error)

	// HealthCheck verifies the provider is reachable.
	HealthCheck(ctx context.Context) error
}

// EnrichmentInput is everything a provider sees about one diagnostic.
// Client identity other than the company name is never sent.
type EnrichmentInput struct {
	CompanyName string
	Answers     domain.DiagnosticAnswers
	Score       domain.ScoreResult
	Strengths   []string
	Gaps        []string
}

// InputFromRecord builds the enrichment input for a record.
func InputFromRecord(rec *domain.DiagnosticRecord) EnrichmentInput {
	return EnrichmentInput{
		CompanyName: rec.CompanyName,
		Answers:     rec.Answers,
		Score:       rec.Devolutiva.Score,
		Strengths:   rec.Devolutiva.Strengths,
		Gaps:        rec.Devolutiva.Gaps,
	}
}

// PromptBuilder defines the interface for constructing prompts.
type PromptBuilder interface {
	// BuildSystemPrompt returns the system prompt that defines the consultant role.
	BuildSystemPrompt() string

	// BuildUserPrompt renders the diagnostic context.
	BuildUserPrompt(in EnrichmentInput) (string, error)
}

// ResponseValidator defines the interface for validating provider output.
type ResponseValidator interface {
	// Validate returns the cleaned text or an error wrapping
	// domain.ErrInvalidEnrichment.
	Validate(text string) (string, error)
}
