package ai

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/maturity-diagnostic/internal/domain"
	"github.com/maturity-diagnostic/pkg/sanitizer"
)

// DefaultMaxEnrichmentRunes bounds the stored enrichment text.
const DefaultMaxEnrichmentRunes = 6000

// DefaultValidator implements ResponseValidator.
type DefaultValidator struct {
	maxRunes int
}

// NewDefaultValidator creates a validator that truncates to maxRunes.
// A non-positive maxRunes uses DefaultMaxEnrichmentRunes.
func NewDefaultValidator(maxRunes int) *DefaultValidator {
	if maxRunes <= 0 {
		maxRunes = DefaultMaxEnrichmentRunes
	}
	return &DefaultValidator{maxRunes: maxRunes}
}

// Validate trims the text, rejects it when empty and truncates it to the
// configured length on a rune boundary.
func (v *DefaultValidator) Validate(text string) (string, error) {
	if sanitizer.IsEmpty(text) {
		return "", domain.WrapError("validate_enrichment",
			fmt.Errorf("%w: empty text", domain.ErrInvalidEnrichment), false)
	}
	text = strings.TrimSpace(text)

	if !utf8.ValidString(text) {
		return "", domain.WrapError("validate_enrichment",
			fmt.Errorf("%w: text is not valid UTF-8", domain.ErrInvalidEnrichment), false)
	}

	if utf8.RuneCountInString(text) > v.maxRunes {
		runes := []rune(text)
		text = strings.TrimSpace(string(runes[:v.maxRunes]))
	}

	return text, nil
}
