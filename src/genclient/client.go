// Package genclient performs single calls to an OpenAI-compatible chat
// completions endpoint and classifies every failure into a small closed set
// of kinds.
package genclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/elee1766/aisummary/src/aisdk"
)

const (
	defaultEndpoint = "https://api.deepseek.com/v1/chat/completions"
	defaultTimeout  = 30 * time.Second

	maxResponseBytes = 4 << 20
)

// Client is the generation service client.
type Client struct {
	config     Config
	httpClient *http.Client
	logger     *slog.Logger
	timeout    time.Duration
}

// NewClient creates a new generation client.
func NewClient(config Config) *Client {
	if config.Endpoint == "" {
		config.Endpoint = defaultEndpoint
	}

	timeout := config.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "generation_client")

	return &Client{
		config:     config,
		httpClient: httpClient,
		logger:     logger,
		timeout:    timeout,
	}
}

// Generate shapes content, sends it to the service and returns the trimmed
// model output. Any returned error is a *ClassifiedError.
func (c *Client) Generate(ctx context.Context, content string) (string, error) {
	logger := c.logger.With("method", "Generate", "model", c.config.Model)

	shaped := c.config.Shaping.Shape(content)
	if len(shaped) != len(content) {
		logger.Info("content truncated",
			"original_length", utf8.RuneCountInString(content),
			"truncated_length", utf8.RuneCountInString(shaped))
	}

	body, err := json.Marshal(c.buildRequest(shaped))
	if err != nil {
		return "", &ClassifiedError{Kind: KindUnknown, Message: fmt.Sprintf("failed to marshal request: %v", err)}
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	httpReq, err := c.newRequest(ctx, body)
	if err != nil {
		return "", &ClassifiedError{Kind: KindUnknown, Message: err.Error()}
	}

	logger.Debug("sending chat completion request", "content_length", utf8.RuneCountInString(shaped))
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		ce := Classify(nil, nil, err)
		logger.Debug("request failed", "error", err, "kind", ce.Kind.String())
		return "", ce
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", Classify(nil, nil, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		ce := Classify(resp, respBody, nil)
		logger.Debug("received error response", "status_code", resp.StatusCode, "kind", ce.Kind.String())
		return "", ce
	}

	if len(bytes.TrimSpace(respBody)) == 0 {
		return "", &ClassifiedError{Kind: KindEmptyResponse, StatusCode: resp.StatusCode, Message: "AI service returned an empty body"}
	}

	var result aisdk.ChatCompletionResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", &ClassifiedError{Kind: KindUnknown, StatusCode: resp.StatusCode, Message: fmt.Sprintf("failed to decode response: %v", err)}
	}

	text := strings.TrimSpace(result.Content())
	if text == "" {
		return "", &ClassifiedError{Kind: KindEmptyResponse, StatusCode: resp.StatusCode, Message: "AI service returned empty content"}
	}

	logger.Info("chat completion successful",
		"summary_length", utf8.RuneCountInString(text),
		"usage_total", result.Usage.TotalTokens)
	return text, nil
}

// buildRequest prepends the seed messages to a single user message.
func (c *Client) buildRequest(content string) *aisdk.ChatCompletionRequest {
	messages := make([]*aisdk.Message, 0, len(c.config.SeedMessages)+1)
	for i := range c.config.SeedMessages {
		m := c.config.SeedMessages[i]
		messages = append(messages, &m)
	}
	messages = append(messages, &aisdk.Message{Role: aisdk.RoleUser, Content: content})

	return &aisdk.ChatCompletionRequest{
		Model:       c.config.Model,
		Messages:    messages,
		Temperature: c.config.Temperature,
		MaxTokens:   c.config.MaxTokens,
	}
}

// newRequest creates a new HTTP request with the appropriate headers.
func (c *Client) newRequest(ctx context.Context, body []byte) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.Endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	for k, v := range c.config.Headers {
		req.Header.Set(k, v)
	}
	if req.Header.Get("Authorization") == "" && c.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	}
	req.Header.Set("Content-Type", "application/json")

	return req, nil
}

// Model returns the configured model name.
func (c *Client) Model() string {
	return c.config.Model
}
