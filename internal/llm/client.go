// Package llm wraps an OpenAI-compatible chat-completion endpoint behind the
// Completer interface.
package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/pkoukk/tiktoken-go"
	goopenai "github.com/sashabaranov/go-openai"
)

// Client calls a hosted chat-completion model. OpenRouter and OpenAI expose
// the same wire format, so a configurable base URL covers both.
type Client struct {
	api        *goopenai.Client
	model      string
	maxRetries int
}

// Config configures the completion client.
type Config struct {
	BaseURL   string
	APIKeyEnv string
	Model     string
	Timeout   time.Duration
}

// NewClient creates a completion client from the configuration. The API key
// is read from the configured environment variable.
func NewClient(cfg Config) (*Client, error) {
	if cfg.APIKeyEnv == "" {
		cfg.APIKeyEnv = "OPENROUTER_API_KEY"
	}
	key := os.Getenv(cfg.APIKeyEnv)
	if key == "" {
		return nil, fmt.Errorf("missing API key in env %s", cfg.APIKeyEnv)
	}
	if cfg.Model == "" {
		cfg.Model = "meta-llama/llama-3.1-8b-instruct"
	}
	apiCfg := goopenai.DefaultConfig(key)
	if cfg.BaseURL != "" {
		apiCfg.BaseURL = cfg.BaseURL
	}
	if cfg.Timeout > 0 {
		apiCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}
	return &Client{
		api:        goopenai.NewClientWithConfig(apiCfg),
		model:      cfg.Model,
		maxRetries: 5,
	}, nil
}

// Complete sends the prompt with the system message and returns the
// generated text. Rate limits and server errors are retried with
// exponential backoff.
func (c *Client) Complete(ctx context.Context, prompt, system string, maxTokens int) (string, error) {
	if maxTokens <= 0 {
		maxTokens = 2000
	}
	req := goopenai.ChatCompletionRequest{
		Model: c.model,
		Messages: []goopenai.ChatCompletionMessage{
			{Role: goopenai.ChatMessageRoleSystem, Content: system},
			{Role: goopenai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens: maxTokens,
	}
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(retryDelay(attempt - 1)):
			}
		}
		resp, err := c.api.CreateChatCompletion(ctx, req)
		if err != nil {
			lastErr = err
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			if retryable(err) {
				continue
			}
			return "", err
		}
		if len(resp.Choices) == 0 {
			lastErr = errors.New("completion returned no choices")
			continue
		}
		return resp.Choices[0].Message.Content, nil
	}
	return "", fmt.Errorf("completion failed after %d attempts: %w", c.maxRetries+1, lastErr)
}

func retryable(err error) bool {
	var apiErr *goopenai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode == 429 || apiErr.HTTPStatusCode >= 500
	}
	return true
}

func retryDelay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	base := 500 * time.Millisecond
	d := base << attempt
	if d > 8*time.Second {
		d = 8 * time.Second
	}
	return d
}

// Budgeter adapts the token helpers to the service's TokenBudgeter.
type Budgeter struct{}

// Truncate trims text to at most budget tokens.
func (Budgeter) Truncate(text string, budget int) (string, error) {
	return TruncateToTokens(text, budget)
}

var (
	encOnce sync.Once
	enc     *tiktoken.Tiktoken
	encErr  error
)

// CountTokens estimates the token count of text using the cl100k_base
// encoding the hosted models share closely enough for budgeting. The encoder
// is loaded once per process.
func CountTokens(text string) (int, error) {
	encOnce.Do(func() {
		enc, encErr = tiktoken.GetEncoding("cl100k_base")
	})
	if encErr != nil {
		return 0, encErr
	}
	return len(enc.Encode(text, nil, nil)), nil
}

// TruncateToTokens trims text to at most budget tokens, cutting at a token
// boundary. Text under the budget is returned unchanged.
func TruncateToTokens(text string, budget int) (string, error) {
	if budget <= 0 {
		return "", nil
	}
	encOnce.Do(func() {
		enc, encErr = tiktoken.GetEncoding("cl100k_base")
	})
	if encErr != nil {
		return "", encErr
	}
	tokens := enc.Encode(text, nil, nil)
	if len(tokens) <= budget {
		return text, nil
	}
	return enc.Decode(tokens[:budget]), nil
}
