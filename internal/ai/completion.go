package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"chemxplore/internal/model"
)

var ErrEmptyReply = errors.New("No response from AI")

// ChatConfig carries the per-call upstream settings.
type ChatConfig struct {
	BaseURL     string
	APIKey      string
	Model       string
	Temperature float32
	MaxTokens   int
}

// StatusError reports a non-2xx answer from the completion gateway.
type StatusError struct {
	StatusCode int
	Err        error
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("AI API error: %d", e.StatusCode)
}

func (e *StatusError) Unwrap() error {
	return e.Err
}

type CompletionClient struct {
	httpClient *http.Client
}

func NewCompletionClient(timeout time.Duration) *CompletionClient {
	if timeout <= 0 {
		timeout = 90 * time.Second
	}
	return &CompletionClient{
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Complete sends one non-streamed chat completion and returns the first choice.
func (c *CompletionClient) Complete(ctx context.Context, cfg ChatConfig, messages []model.ChatMessage) (string, error) {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	clientConfig.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	clientConfig.HTTPClient = c.httpClient
	client := openai.NewClientWithConfig(clientConfig)

	req := openai.ChatCompletionRequest{
		Model:       cfg.Model,
		Messages:    toOpenAIMessages(messages),
		MaxTokens:   cfg.MaxTokens,
		Temperature: cfg.Temperature,
	}

	resp, err := client.CreateChatCompletion(ctx, req)
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) && apiErr.HTTPStatusCode != 0 {
			return "", &StatusError{StatusCode: apiErr.HTTPStatusCode, Err: err}
		}
		var reqErr *openai.RequestError
		if errors.As(err, &reqErr) && reqErr.HTTPStatusCode != 0 {
			return "", &StatusError{StatusCode: reqErr.HTTPStatusCode, Err: err}
		}
		return "", fmt.Errorf("llm request failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", ErrEmptyReply
	}
	content := resp.Choices[0].Message.Content
	if content == "" {
		return "", ErrEmptyReply
	}
	return content, nil
}

func toOpenAIMessages(messages []model.ChatMessage) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		out = append(out, openai.ChatCompletionMessage{
			Role:    string(m.Role),
			Content: m.Content,
		})
	}
	return out
}
