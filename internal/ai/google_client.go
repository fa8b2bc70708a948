package ai

import (
	"context"
	"errors"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/maturity-diagnostic/internal/config"
	"github.com/maturity-diagnostic/internal/domain"
	"go.uber.org/zap"
	"google.golang.org/api/googleapi"
	googleoption "google.golang.org/api/option"
)

// GoogleClient implements the Client interface using the Gemini API.
// A genai.Client is created per call so the caller's context governs the
// connection and the client is always closed after use.
type GoogleClient struct {
	enricher
	opts []googleoption.ClientOption
}

// NewGoogleClient creates a new Gemini enrichment client.
func NewGoogleClient(cfg config.EnrichmentConfig, prompter PromptBuilder, validator ResponseValidator, logger *zap.Logger, opts ...googleoption.ClientOption) *GoogleClient {
	return &GoogleClient{
		enricher: newEnricher("google", cfg, prompter, validator, logger.Named("google_client")),
		opts:     append([]googleoption.ClientOption{googleoption.WithAPIKey(cfg.APIKey)}, opts...),
	}
}

// Enrich asks the model for a narrative about the diagnostic.
func (c *GoogleClient) Enrich(ctx context.Context, in EnrichmentInput) (string, error) {
	return c.run(ctx, in, c.complete)
}

func (c *GoogleClient) model(client *genai.Client, system string) *genai.GenerativeModel {
	m := client.GenerativeModel(c.config.Model)
	if system != "" {
		m.SystemInstruction = &genai.Content{
			Parts: []genai.Part{genai.Text(system)},
		}
	}
	maxOut := int32(c.config.MaxTokens)
	m.MaxOutputTokens = &maxOut
	temp := float32(c.config.Temperature)
	m.Temperature = &temp
	return m
}

func (c *GoogleClient) complete(ctx context.Context, system, user string) (string, error) {
	client, err := genai.NewClient(ctx, c.opts...)
	if err != nil {
		return "", domain.WrapError("google_client", err, false)
	}
	defer client.Close()

	resp, err := c.model(client, system).GenerateContent(ctx, genai.Text(user))
	if err != nil {
		return "", classifyError("google_generate", err, googleStatus(err))
	}

	var parts []string
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if t, ok := part.(genai.Text); ok {
				parts = append(parts, string(t))
			}
		}
	}
	if len(parts) == 0 {
		return "", domain.WrapError("google_generate", domain.ErrInvalidEnrichment, false)
	}
	return strings.Join(parts, ""), nil
}

// HealthCheck fetches the configured model's metadata.
func (c *GoogleClient) HealthCheck(ctx context.Context) error {
	client, err := genai.NewClient(ctx, c.opts...)
	if err != nil {
		return domain.WrapError("health_check", err, false)
	}
	defer client.Close()

	if _, err := c.model(client, "").Info(ctx); err != nil {
		return classifyError("health_check", err, googleStatus(err))
	}
	return nil
}

func googleStatus(err error) int {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	return 0
}
