// Package openrouter implements the conversation backend over the
// OpenRouter chat completions API.
package openrouter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/samivoice/sami/internal/domain"
	"github.com/samivoice/sami/internal/logger"
)

// Defaults for the OpenRouter endpoint.
const (
	DefaultURL   = "https://openrouter.ai/api/v1/chat/completions"
	DefaultModel = "openrouter/sonoma-dusk-alpha"

	defaultTimeout    = 30 * time.Second
	defaultMaxRetries = 3
)

// payload is the request body for a chat completion.
type payload struct {
	Model    string        `json:"model"`
	Messages []wireMessage `json:"messages"`
}

type wireMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// apiResponse is the subset of the completion response we read.
type apiResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Client talks to OpenRouter. Requests are sequential and blocking;
// transient failures (transport errors, timeouts, non-2xx statuses) are
// retried with exponential backoff, while a response that does not
// match the expected schema fails immediately since retrying won't fix
// a contract mismatch.
type Client struct {
	url         string
	apiKey      string
	model       string
	maxRetries  int
	backoffUnit time.Duration
	http        *http.Client
	sleep       func(time.Duration)
	log         *logger.Logger
}

var _ domain.ChatBackend = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithModel selects the model identifier sent with every request.
func WithModel(model string) Option {
	return func(c *Client) { c.model = model }
}

// WithURL overrides the completions endpoint.
func WithURL(url string) Option {
	return func(c *Client) { c.url = url }
}

// WithMaxRetries sets how many attempts a single Converse call makes.
func WithMaxRetries(n int) Option {
	return func(c *Client) { c.maxRetries = n }
}

// WithHTTPTimeout sets the per-request timeout.
func WithHTTPTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

// WithBackoffUnit scales the backoff schedule. Tests shrink it; the
// schedule itself (unit, 2*unit, 4*unit, ...) is fixed and uncapped.
func WithBackoffUnit(d time.Duration) Option {
	return func(c *Client) { c.backoffUnit = d }
}

// withSleep replaces the sleeper, for tests.
func withSleep(fn func(time.Duration)) Option {
	return func(c *Client) { c.sleep = fn }
}

// New creates an OpenRouter client.
func New(apiKey string, log *logger.Logger, opts ...Option) *Client {
	c := &Client{
		url:         DefaultURL,
		apiKey:      apiKey,
		model:       DefaultModel,
		maxRetries:  defaultMaxRetries,
		backoffUnit: time.Second,
		http:        &http.Client{Timeout: defaultTimeout},
		sleep:       time.Sleep,
		log:         log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Converse sends the message sequence and returns the model's reply.
// Each attempt after the first is preceded by a sleep of
// backoffUnit * 2^(attempt-1). Exhausted retries and schema mismatches
// both wrap domain.ErrBackendFailure.
func (c *Client) Converse(ctx context.Context, messages []domain.Message) (string, error) {
	body, err := json.Marshal(payload{
		Model:    c.model,
		Messages: toWire(messages),
	})
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}

	var lastErr error
	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		if attempt > 1 {
			backoff := c.backoffUnit << (attempt - 2)
			c.log.Debug("openrouter: retry %d/%d in %v", attempt, c.maxRetries, backoff)
			c.sleep(backoff)
		}

		if err := ctx.Err(); err != nil {
			return "", fmt.Errorf("conversation aborted: %w", err)
		}

		reply, retryable, err := c.attempt(ctx, body)
		if err == nil {
			return reply, nil
		}
		if !retryable {
			c.log.Error("openrouter: %v", err)
			return "", fmt.Errorf("%w: %v", domain.ErrBackendFailure, err)
		}
		c.log.Warn("openrouter: attempt %d failed: %v", attempt, err)
		lastErr = err
	}

	return "", fmt.Errorf("%w after %d attempts: %v", domain.ErrBackendFailure, c.maxRetries, lastErr)
}

// attempt performs one request. retryable=false means the failure is a
// schema mismatch that repeating the call cannot cure.
func (c *Client) attempt(ctx context.Context, body []byte) (reply string, retryable bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return "", false, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", true, fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", true, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", true, fmt.Errorf("status %d: %s", resp.StatusCode, truncate(raw, 200))
	}

	var parsed apiResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", false, fmt.Errorf("malformed response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", false, fmt.Errorf("malformed response: no choices")
	}

	return parsed.Choices[0].Message.Content, false, nil
}

func toWire(messages []domain.Message) []wireMessage {
	out := make([]wireMessage, len(messages))
	for i, m := range messages {
		out[i] = wireMessage{Role: string(m.Role), Content: m.Content}
	}
	return out
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
