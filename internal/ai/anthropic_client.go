package ai

import (
	"context"
	"errors"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/maturity-diagnostic/internal/config"
	"github.com/maturity-diagnostic/internal/domain"
	"go.uber.org/zap"
)

// AnthropicClient implements the Client interface using the Anthropic
// Messages API.
type AnthropicClient struct {
	enricher
	client anthropic.Client
}

// NewAnthropicClient creates a new Anthropic enrichment client. Extra
// request options are appended after the API key; the SDK's own retries
// are disabled in favour of the shared retry loop.
func NewAnthropicClient(cfg config.EnrichmentConfig, prompter PromptBuilder, validator ResponseValidator, logger *zap.Logger, opts ...option.RequestOption) *AnthropicClient {
	opts = append([]option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}, opts...)

	return &AnthropicClient{
		enricher: newEnricher("anthropic", cfg, prompter, validator, logger.Named("anthropic_client")),
		client:   anthropic.NewClient(opts...),
	}
}

// Enrich asks the model for a narrative about the diagnostic.
func (c *AnthropicClient) Enrich(ctx context.Context, in EnrichmentInput) (string, error) {
	return c.run(ctx, in, c.complete)
}

func (c *AnthropicClient) complete(ctx context.Context, system, user string) (string, error) {
	msg, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(c.config.Model),
		MaxTokens:   int64(c.config.MaxTokens),
		Temperature: anthropic.Float(c.config.Temperature),
		System: []anthropic.TextBlockParam{
			{Text: system},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(user)),
		},
	})
	if err != nil {
		return "", classifyError("anthropic_messages", err, anthropicStatus(err))
	}

	var parts []string
	for _, block := range msg.Content {
		if block.Type == "text" {
			parts = append(parts, block.Text)
		}
	}
	if len(parts) == 0 {
		return "", domain.WrapError("anthropic_messages", domain.ErrInvalidEnrichment, false)
	}
	return strings.Join(parts, ""), nil
}

// HealthCheck lists the available models.
func (c *AnthropicClient) HealthCheck(ctx context.Context) error {
	if _, err := c.client.Models.List(ctx, anthropic.ModelListParams{}); err != nil {
		return classifyError("health_check", err, anthropicStatus(err))
	}
	return nil
}

func anthropicStatus(err error) int {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}
