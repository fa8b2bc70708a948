// Package httpclient is the JSON-over-HTTP transport shared by the REST
// collaborators (Notion, Resend). It classifies failures into retryable and
// permanent OpErrors and retries with quadratic backoff.
package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/maturity-diagnostic/internal/domain"
	"github.com/maturity-diagnostic/pkg/sanitizer"
	"go.uber.org/zap"
)

// maxErrorBody bounds how much of an error response is kept in errors.
const maxErrorBody = 512

// Client sends JSON requests with retries.
type Client struct {
	httpClient *http.Client
	headers    http.Header
	maxRetries int
	backoff    time.Duration
	scrubber   *sanitizer.Sanitizer
	logger     *zap.Logger
}

// Config configures a Client.
type Config struct {
	// Timeout bounds a single attempt.
	Timeout time.Duration

	// MaxRetries is the number of retries after the first attempt.
	MaxRetries int

	// Backoff is the base delay; attempt n waits n*n*Backoff.
	Backoff time.Duration

	// Headers are added to every request.
	Headers map[string]string
}

// New creates a Client.
func New(cfg Config, logger *zap.Logger) *Client {
	if cfg.Backoff <= 0 {
		cfg.Backoff = time.Second
	}
	headers := make(http.Header)
	for k, v := range cfg.Headers {
		headers.Set(k, v)
	}
	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		headers:    headers,
		maxRetries: cfg.MaxRetries,
		backoff:    cfg.Backoff,
		scrubber:   sanitizer.New(maxErrorBody),
		logger:     logger,
	}
}

// DoJSON sends body (if non-nil) as JSON and decodes a 2xx response into
// out (if non-nil). The request is rebuilt for every attempt.
func (c *Client) DoJSON(ctx context.Context, op, method, url string, body, out interface{}) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return domain.WrapError(op+": marshal_request", err, false)
		}
	}

	var respBody []byte
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(attempt*attempt) * c.backoff
			c.logger.Debug("retrying request",
				zap.String("op", op),
				zap.Int("attempt", attempt),
				zap.Duration("backoff", backoff),
			)
			select {
			case <-ctx.Done():
				return domain.WrapError(op+": context_cancelled", ctx.Err(), false)
			case <-time.After(backoff):
			}
		}

		respBody, lastErr = c.execute(ctx, op, method, url, payload)
		if lastErr == nil {
			break
		}

		if !domain.IsRetryable(lastErr) {
			break
		}
	}

	if lastErr != nil {
		return lastErr
	}

	if out != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, out); err != nil {
			return domain.WrapError(op+": parse_response", err, false)
		}
	}
	return nil
}

// execute performs a single HTTP attempt.
func (c *Client) execute(ctx context.Context, op, method, url string, payload []byte) ([]byte, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, domain.WrapError(op+": create_request", err, false)
	}
	for k, v := range c.headers {
		req.Header[k] = v
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil || errors.Is(err, context.DeadlineExceeded) {
			return nil, domain.WrapError(op, domain.ErrCollaboratorTimeout, true)
		}
		return nil, domain.WrapError(op, fmt.Errorf("%w: %v", domain.ErrCollaboratorUnavailable, err), true)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, domain.WrapError(op+": read_response", err, true)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, c.statusError(op, resp.StatusCode, body)
	}

	return body, nil
}

// statusError maps a non-2xx response to an OpError. 429 and 5xx are
// retryable; other 4xx are permanent.
func (c *Client) statusError(op string, status int, body []byte) error {
	detail := c.scrubber.Sanitize(string(body))
	switch {
	case status == http.StatusTooManyRequests:
		return domain.WrapError(op, fmt.Errorf("%w: rate limited (429)", domain.ErrCollaboratorUnavailable), true)
	case status >= 500:
		return domain.WrapError(op, fmt.Errorf("%w: status %d: %s", domain.ErrCollaboratorUnavailable, status, detail), true)
	default:
		return domain.WrapError(op, &StatusError{Code: status, Body: detail}, false)
	}
}

// StatusError is a permanent non-2xx response.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("status %d: %s", e.Code, e.Body)
}

// StatusCode returns the HTTP status of a permanent failure, or 0.
func StatusCode(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code
	}
	return 0
}
