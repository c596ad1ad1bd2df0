// Package openrouter implements the generation.ChatClient interface
// against the OpenRouter chat completion API.
package openrouter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/cardgenio/cardgen-api/internal/config"
	"github.com/cardgenio/cardgen-api/internal/generation"
	"github.com/cardgenio/cardgen-api/internal/schema"
)

// Client defaults, matching the configuration shipped with the web
// client this service replaced.
const (
	DefaultBaseURL    = "https://openrouter.ai/api/v1"
	DefaultModel      = "openai/gpt-4o-mini"
	DefaultTimeout    = 30 * time.Second
	DefaultMaxRetries = 3
	DefaultRetryDelay = 1 * time.Second
)

// Descriptive headers identifying the calling application, used by
// OpenRouter for rankings. Optional but recommended.
const (
	headerReferer = "https://cardgen.local"
	headerTitle   = "Cardgen API"
)

// Config holds the settings for a Client. Zero values fall back to the
// package defaults; only APIKey is required.
type Config struct {
	APIKey     string
	BaseURL    string
	Model      string
	Timeout    time.Duration
	MaxRetries int
	RetryDelay time.Duration
}

// ConfigFromLLM maps the application's LLM configuration group onto a
// client Config.
func ConfigFromLLM(cfg config.LLMConfig) Config {
	return Config{
		APIKey:     cfg.APIKey,
		BaseURL:    cfg.BaseURL,
		Model:      cfg.ModelName,
		Timeout:    time.Duration(cfg.TimeoutSeconds) * time.Second,
		MaxRetries: cfg.MaxRetries,
		RetryDelay: time.Duration(cfg.RetryDelayMs) * time.Millisecond,
	}
}

// Client wraps the OpenRouter chat completion endpoint: it builds
// request payloads, executes them with bounded retries and exponential
// backoff, classifies failures into the typed errors of this package,
// and validates structured answers against a declared schema.
//
// The system message and default model are the only mutable state.
// They are guarded by a mutex under a single-writer/many-reader
// contract: SetSystemMessage and SetModel must not be called
// concurrently with SendChatCompletion, but concurrent
// SendChatCompletion calls are safe.
type Client struct {
	logger     *slog.Logger
	httpClient *http.Client
	apiKey     string
	baseURL    string
	maxRetries int
	retryDelay time.Duration

	mu            sync.RWMutex
	model         string
	systemMessage string
}

// completionResponse is the success envelope of the completions
// endpoint. Only the fields the client reads are declared.
type completionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// apiErrorBody is the error envelope most OpenRouter failures carry.
type apiErrorBody struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// NewClient creates a Client with the provided configuration.
// Returns ErrMissingAPIKey if no API key is configured.
func NewClient(logger *slog.Logger, cfg Config) (*Client, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrMissingAPIKey
	}

	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = DefaultMaxRetries
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = DefaultRetryDelay
	}

	return &Client{
		logger:     logger.With(slog.String("component", "openrouter_client")),
		httpClient: &http.Client{Timeout: cfg.Timeout},
		apiKey:     cfg.APIKey,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		maxRetries: cfg.MaxRetries,
		retryDelay: cfg.RetryDelay,
		model:      cfg.Model,
	}, nil
}

// Ensure Client implements the generation.ChatClient interface
var _ generation.ChatClient = (*Client)(nil)

// SetSystemMessage stores a system-role message prepended to every
// subsequent request. Last write wins; an empty content clears it.
func (c *Client) SetSystemMessage(content string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.systemMessage = content
}

// SetModel changes the default model used when a request does not
// override it. Returns ErrEmptyModelName if name is empty.
func (c *Client) SetModel(name string) error {
	if strings.TrimSpace(name) == "" {
		return ErrEmptyModelName
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.model = name
	return nil
}

// Model reports the current default model.
func (c *Client) Model() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.model
}

// SendChatCompletion implements generation.ChatClient. It sends the
// messages (with the stored system message prepended, if any) to the
// completions endpoint under the retry policy, extracts the first
// choice's content, decodes it as JSON when it looks like a JSON
// object, and validates the decoded value against the response format
// schema when one was supplied.
//
// Returns ErrNoMessages without any network call when messages is
// empty. All other failures are classified into the typed errors of
// this package; the last classified error is returned once the attempt
// budget is exhausted.
func (c *Client) SendChatCompletion(
	ctx context.Context,
	messages []generation.ChatMessage,
	opts *generation.ChatCompletionOptions,
) (any, error) {
	if len(messages) == 0 {
		return nil, ErrNoMessages
	}

	c.mu.RLock()
	model := c.model
	systemMessage := c.systemMessage
	c.mu.RUnlock()

	if opts != nil && opts.Model != "" {
		model = opts.Model
	}

	all := messages
	if systemMessage != "" {
		all = make([]generation.ChatMessage, 0, len(messages)+1)
		all = append(all, generation.ChatMessage{Role: generation.RoleSystem, Content: systemMessage})
		all = append(all, messages...)
	}

	body, err := json.Marshal(buildPayload(model, all, opts))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request payload: %w", err)
	}

	envelope, err := c.executeRequest(ctx, body)
	if err != nil {
		return nil, err
	}

	parsed, err := parseContent(envelope)
	if err != nil {
		return nil, err
	}

	if opts != nil && opts.ResponseFormat != nil {
		if err := c.validateResponseFormat(ctx, parsed, opts.ResponseFormat.JSONSchema.Schema); err != nil {
			return nil, err
		}
	}

	return parsed, nil
}

// buildPayload merges model, messages, free-form parameters, and the
// response-format directive into the request payload.
func buildPayload(model string, messages []generation.ChatMessage, opts *generation.ChatCompletionOptions) map[string]any {
	payload := map[string]any{
		"model":    model,
		"messages": messages,
	}

	if opts != nil {
		for key, value := range opts.Parameters {
			payload[key] = value
		}
		if opts.ResponseFormat != nil {
			payload["response_format"] = opts.ResponseFormat
		}
	}

	return payload
}

// executeRequest runs the retry loop: up to maxRetries attempts with
// exponential backoff (retryDelay doubled per attempt), honoring a
// server-specified Retry-After ahead of the standard backoff.
// Non-retryable errors abort immediately.
func (c *Client) executeRequest(ctx context.Context, body []byte) (*completionResponse, error) {
	var lastErr error

	for attempt := 0; attempt < c.maxRetries; attempt++ {
		envelope, err := c.doRequest(ctx, body, attempt)
		if err == nil {
			return envelope, nil
		}

		lastErr = err
		if !IsRetryable(err) {
			return nil, err
		}

		if attempt < c.maxRetries-1 {
			var rateLimited *RateLimitError
			if errors.As(err, &rateLimited) && rateLimited.RetryAfter > 0 {
				if waitErr := sleepContext(ctx, rateLimited.RetryAfter); waitErr != nil {
					return nil, waitErr
				}
			}

			delay := c.retryDelay * time.Duration(1<<attempt)
			c.logger.InfoContext(ctx, "retrying after delay",
				slog.Int("attempt", attempt+1),
				slog.Duration("delay", delay))
			if waitErr := sleepContext(ctx, delay); waitErr != nil {
				return nil, waitErr
			}
		}
	}

	return nil, lastErr
}

// doRequest performs one attempt against the completions endpoint and
// classifies the outcome.
func (c *Client) doRequest(ctx context.Context, body []byte, attempt int) (*completionResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("HTTP-Referer", headerReferer)
	req.Header.Set("X-Title", headerTitle)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// No HTTP response at all: timeout, DNS, connection refused.
		c.logger.ErrorContext(ctx, "network error",
			slog.Int("attempt", attempt+1),
			slog.String("error", err.Error()))
		return nil, &NetworkError{Message: "network error: " + err.Error(), Err: err}
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			c.logger.WarnContext(ctx, "failed to close response body",
				slog.String("error", closeErr.Error()))
		}
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		c.logger.ErrorContext(ctx, "failed to read response body",
			slog.Int("attempt", attempt+1),
			slog.String("error", err.Error()))
		return nil, &NetworkError{Message: "failed to read response body: " + err.Error(), Err: err}
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		var envelope completionResponse
		if err := json.Unmarshal(respBody, &envelope); err != nil {
			return nil, &ResponseParseError{
				Message: fmt.Sprintf("failed to decode response envelope: %v", err),
			}
		}
		return &envelope, nil
	}

	return nil, c.classifyHTTPError(ctx, resp, respBody, attempt)
}

// classifyHTTPError maps a non-2xx response to a typed error.
func (c *Client) classifyHTTPError(ctx context.Context, resp *http.Response, body []byte, attempt int) error {
	status := resp.StatusCode
	message := apiErrorMessage(body, http.StatusText(status))

	switch {
	case status == http.StatusUnauthorized:
		c.logger.ErrorContext(ctx, "authentication failed: invalid API key")
		return &AuthError{Message: "invalid API key"}

	case status == http.StatusTooManyRequests:
		retryAfter := parseRetryAfter(resp.Header.Get("Retry-After"))
		c.logger.WarnContext(ctx, "rate limit hit",
			slog.Int("attempt", attempt+1),
			slog.Duration("retry_after", retryAfter))
		return &RateLimitError{Message: "rate limit exceeded", RetryAfter: retryAfter}

	case status >= 500:
		c.logger.ErrorContext(ctx, "server error",
			slog.Int("status", status),
			slog.Int("attempt", attempt+1),
			slog.String("message", message))
		return &ServerError{Status: status, Message: message}

	default:
		return &HTTPError{Status: status, Message: message}
	}
}

// apiErrorMessage extracts the message from an error envelope, falling
// back to the given transport-level message.
func apiErrorMessage(body []byte, fallback string) string {
	var envelope apiErrorBody
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error.Message != "" {
		return envelope.Error.Message
	}
	return fallback
}

// parseRetryAfter parses a Retry-After header value: either an integer
// number of seconds or an HTTP-date. Returns 0 when absent or
// unparseable.
func parseRetryAfter(value string) time.Duration {
	if value == "" {
		return 0
	}

	if seconds, err := strconv.Atoi(value); err == nil {
		if seconds < 0 {
			return 0
		}
		return time.Duration(seconds) * time.Second
	}

	if date, err := http.ParseTime(value); err == nil {
		if wait := time.Until(date); wait > 0 {
			return wait
		}
	}

	return 0
}

// parseContent extracts the assistant's textual answer from the first
// choice and decodes it as JSON when it looks like a JSON object.
func parseContent(envelope *completionResponse) (any, error) {
	if len(envelope.Choices) == 0 {
		return nil, &ResponseParseError{Message: "invalid response structure: no choices found"}
	}

	content := envelope.Choices[0].Message.Content
	if content == "" {
		return nil, &ResponseParseError{Message: "invalid response structure: no message content found"}
	}

	if strings.HasPrefix(strings.TrimSpace(content), "{") {
		var parsed any
		if err := json.Unmarshal([]byte(content), &parsed); err != nil {
			return nil, &ResponseParseError{
				Message: fmt.Sprintf("failed to parse JSON response: %v", err),
			}
		}
		return parsed, nil
	}

	return content, nil
}

// validateResponseFormat runs the schema validator over the decoded
// answer and converts violations into a SchemaValidationError.
func (c *Client) validateResponseFormat(ctx context.Context, value any, node *schema.Node) error {
	violations := schema.Validate(value, node)
	if len(violations) == 0 {
		return nil
	}

	c.logger.ErrorContext(ctx, "schema validation failed",
		slog.Int("violation_count", len(violations)))
	return &SchemaValidationError{
		Message:    "response does not match expected schema",
		Violations: violations,
	}
}

// sleepContext waits for d or until ctx is done, whichever comes
// first. Cancellation surfaces as a NetworkError so it flows through
// the same classification as other transport-level failures.
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return &NetworkError{
			Message: "request cancelled during retry delay: " + ctx.Err().Error(),
			Err:     ctx.Err(),
		}
	}
}
