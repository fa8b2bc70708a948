package ai

import (
	"fmt"

	"github.com/maturity-diagnostic/internal/config"
	"github.com/maturity-diagnostic/internal/content"
	"github.com/maturity-diagnostic/internal/domain"
	"go.uber.org/zap"
)

// NewClient builds the client for the configured provider.
func NewClient(cfg config.EnrichmentConfig, catalog *content.Catalog, logger *zap.Logger) (Client, error) {
	prompter, err := NewDefaultPromptBuilder(catalog)
	if err != nil {
		return nil, fmt.Errorf("create prompt builder: %w", err)
	}
	validator := NewDefaultValidator(DefaultMaxEnrichmentRunes)

	switch cfg.Provider {
	case config.EnrichmentAnthropic:
		return NewAnthropicClient(cfg, prompter, validator, logger), nil
	case config.EnrichmentOpenAI:
		return NewOpenAIClient(cfg, prompter, validator, logger), nil
	case config.EnrichmentGoogle:
		return NewGoogleClient(cfg, prompter, validator, logger), nil
	case config.EnrichmentMock:
		return NewMockClient(logger), nil
	case config.EnrichmentNone, "":
		return NopClient{}, nil
	default:
		return nil, fmt.Errorf("%w: unknown enrichment provider %q", domain.ErrInvalidConfig, cfg.Provider)
	}
}
