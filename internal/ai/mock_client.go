package ai

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// MockClient implements the Client interface for development and tests.
type MockClient struct {
	logger *zap.Logger
}

// NewMockClient creates a new mock enrichment client.
func NewMockClient(logger *zap.Logger) *MockClient {
	return &MockClient{
		logger: logger.Named("mock_ai_client"),
	}
}

// Enrich returns canned text built from the input.
func (c *MockClient) Enrich(ctx context.Context, in EnrichmentInput) (string, error) {
	c.logger.Debug("mock enrichment", zap.Int("score", in.Score.Score))

	return fmt.Sprintf("Análise simulada para %s: score %d/5, %d pontos fortes e %d gargalos identificados. "+
		"Configure ENRICH_PROVIDER para obter uma análise real.",
		in.CompanyName, in.Score.Score, len(in.Strengths), len(in.Gaps)), nil
}

// HealthCheck always returns success for mock client.
func (c *MockClient) HealthCheck(ctx context.Context) error {
	return nil
}

// NopClient is used when enrichment is disabled. Every request yields "".
type NopClient struct{}

// Enrich returns empty text.
func (NopClient) Enrich(ctx context.Context, in EnrichmentInput) (string, error) {
	return "", nil
}

// HealthCheck always returns success.
func (NopClient) HealthCheck(ctx context.Context) error {
	return nil
}
