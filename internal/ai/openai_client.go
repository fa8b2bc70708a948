package ai

import (
	"context"
	"errors"

	"github.com/maturity-diagnostic/internal/config"
	"github.com/maturity-diagnostic/internal/domain"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
	"go.uber.org/zap"
)

// OpenAIClient implements the Client interface using the OpenAI Chat
// Completions API.
type OpenAIClient struct {
	enricher
	client openai.Client
}

// NewOpenAIClient creates a new OpenAI enrichment client.
func NewOpenAIClient(cfg config.EnrichmentConfig, prompter PromptBuilder, validator ResponseValidator, logger *zap.Logger, opts ...option.RequestOption) *OpenAIClient {
	opts = append([]option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}, opts...)

	return &OpenAIClient{
		enricher: newEnricher("openai", cfg, prompter, validator, logger.Named("openai_client")),
		client:   openai.NewClient(opts...),
	}
}

// Enrich asks the model for a narrative about the diagnostic.
func (c *OpenAIClient) Enrich(ctx context.Context, in EnrichmentInput) (string, error) {
	return c.run(ctx, in, c.complete)
}

func (c *OpenAIClient) complete(ctx context.Context, system, user string) (string, error) {
	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:       shared.ChatModel(c.config.Model),
		MaxTokens:   openai.Int(int64(c.config.MaxTokens)),
		Temperature: openai.Float(c.config.Temperature),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(user),
		},
	})
	if err != nil {
		return "", classifyError("openai_chat", err, openaiStatus(err))
	}

	if len(resp.Choices) == 0 {
		return "", domain.WrapError("openai_chat", domain.ErrInvalidEnrichment, false)
	}
	return resp.Choices[0].Message.Content, nil
}

// HealthCheck lists the available models.
func (c *OpenAIClient) HealthCheck(ctx context.Context) error {
	if _, err := c.client.Models.List(ctx); err != nil {
		return classifyError("health_check", err, openaiStatus(err))
	}
	return nil
}

func openaiStatus(err error) int {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}
