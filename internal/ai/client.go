package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/maturity-diagnostic/internal/config"
	"github.com/maturity-diagnostic/internal/domain"
	"go.uber.org/zap"
)

// completeFunc performs one provider call.
type completeFunc func(ctx context.Context, system, user string) (string, error)

// enricher holds what every provider client shares: prompt rendering,
// the retry loop and output validation.
type enricher struct {
	provider  string
	config    config.EnrichmentConfig
	prompter  PromptBuilder
	validator ResponseValidator
	backoff   time.Duration
	logger    *zap.Logger
}

func newEnricher(provider string, cfg config.EnrichmentConfig, prompter PromptBuilder, validator ResponseValidator, logger *zap.Logger) enricher {
	return enricher{
		provider:  provider,
		config:    cfg,
		prompter:  prompter,
		validator: validator,
		backoff:   time.Second,
		logger:    logger,
	}
}

// run renders the prompt, calls complete with retries and validates the
// result. Each attempt gets its own timeout.
func (e *enricher) run(ctx context.Context, in EnrichmentInput, complete completeFunc) (string, error) {
	startTime := time.Now()

	user, err := e.prompter.BuildUserPrompt(in)
	if err != nil {
		return "", domain.WrapError("build_prompt", err, false)
	}
	system := e.prompter.BuildSystemPrompt()

	e.logger.Debug("starting enrichment",
		zap.String("provider", e.provider),
		zap.String("model", e.config.Model),
		zap.Int("prompt_length", len(user)),
	)

	var text string
	var lastErr error

	for attempt := 0; attempt <= e.config.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(attempt*attempt) * e.backoff
			e.logger.Debug("retrying enrichment request",
				zap.Int("attempt", attempt),
				zap.Duration("backoff", backoff),
				zap.Error(lastErr),
			)
			select {
			case <-ctx.Done():
				return "", domain.WrapError("context_cancelled", ctx.Err(), false)
			case <-time.After(backoff):
			}
		}

		text, lastErr = e.attempt(ctx, system, user, complete)
		if lastErr == nil {
			break
		}

		if !domain.IsRetryable(lastErr) {
			break
		}
	}

	if lastErr != nil {
		return "", lastErr
	}

	text, err = e.validator.Validate(text)
	if err != nil {
		return "", err
	}

	e.logger.Debug("enrichment completed",
		zap.String("provider", e.provider),
		zap.Duration("duration", time.Since(startTime)),
		zap.Int("length", len(text)),
	)
	return text, nil
}

func (e *enricher) attempt(ctx context.Context, system, user string, complete completeFunc) (string, error) {
	if e.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.config.Timeout)
		defer cancel()
	}
	return complete(ctx, system, user)
}

// classifyError maps a provider error onto the shared sentinels. status is
// the HTTP status carried by the error, or 0 when none is known.
func classifyError(op string, err error, status int) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return domain.WrapError(op, fmt.Errorf("%w: %v", domain.ErrCollaboratorTimeout, err), true)
	case errors.Is(err, context.Canceled):
		return domain.WrapError(op, err, false)
	case status == http.StatusTooManyRequests || status >= 500:
		return domain.WrapError(op, fmt.Errorf("%w: status %d: %v", domain.ErrCollaboratorUnavailable, status, err), true)
	case status >= 400:
		return domain.WrapError(op, fmt.Errorf("provider returned status %d: %w", status, err), false)
	default:
		return domain.WrapError(op, fmt.Errorf("%w: %v", domain.ErrCollaboratorUnavailable, err), true)
	}
}
