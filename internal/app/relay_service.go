package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"

	"chemxplore/internal/ai"
	"chemxplore/internal/model"
)

// FallbackReply is always safe to show to the user when the relay fails.
const FallbackReply = "I'm having trouble connecting right now. Please try again in a moment."

var ErrMessagesRequired = errors.New("Messages array is required")

type Completer interface {
	Complete(ctx context.Context, cfg ai.ChatConfig, messages []model.ChatMessage) (string, error)
}

// RelayOptions are the fixed upstream settings of the relay.
type RelayOptions struct {
	BaseURL      string
	Model        string
	APIKeyEnv    string
	Temperature  float32
	MaxTokens    int
	SystemPrompt string
}

type RelayService struct {
	completer Completer
	opts      RelayOptions
	apiKey    func() string
	logger    *slog.Logger
	latency   metric.Float64Histogram
}

func NewRelayService(completer Completer, opts RelayOptions, logger *slog.Logger) *RelayService {
	if opts.SystemPrompt == "" {
		opts.SystemPrompt = DefaultSystemPrompt
	}
	if opts.APIKeyEnv == "" {
		opts.APIKeyEnv = "LLM_API_KEY"
	}
	if logger == nil {
		logger = slog.Default()
	}

	latency, err := otel.Meter("chemxplore/relay").Float64Histogram(
		"relay.upstream.duration",
		metric.WithDescription("Upstream chat completion latency"),
		metric.WithUnit("s"),
	)
	if err != nil {
		logger.Warn("create relay latency histogram failed", "error", err)
	}

	envName := opts.APIKeyEnv
	return &RelayService{
		completer: completer,
		opts:      opts,
		apiKey:    func() string { return os.Getenv(envName) },
		logger:    logger,
		latency:   latency,
	}
}

// LoadSystemPrompt returns the contents of path, or DefaultSystemPrompt when path is empty.
func LoadSystemPrompt(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return DefaultSystemPrompt, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read system prompt failed: %w", err)
	}
	prompt := strings.TrimSpace(string(raw))
	if prompt == "" {
		return DefaultSystemPrompt, nil
	}
	return prompt, nil
}

// Reply forwards the transcript, prefixed with the system prompt, and returns
// the assistant's reply. The upstream credential is read on every call.
func (s *RelayService) Reply(ctx context.Context, messages []model.ChatMessage) (string, error) {
	if messages == nil {
		return "", ErrMessagesRequired
	}

	apiKey := s.apiKey()
	if apiKey == "" {
		return "", fmt.Errorf("%s is not configured", s.opts.APIKeyEnv)
	}

	s.logger.Info("processing chat request", "messages", len(messages))

	prompt := make([]model.ChatMessage, 0, len(messages)+1)
	prompt = append(prompt, model.ChatMessage{Role: model.RoleSystem, Content: s.opts.SystemPrompt})
	prompt = append(prompt, messages...)

	ctx, span := otel.Tracer("chemxplore/relay").Start(ctx, "chat_completion")
	defer span.End()
	span.SetAttributes(
		attribute.String("llm.model", s.opts.Model),
		attribute.Int("llm.messages", len(prompt)),
	)

	start := time.Now()
	reply, err := s.completer.Complete(ctx, ai.ChatConfig{
		BaseURL:     s.opts.BaseURL,
		APIKey:      apiKey,
		Model:       s.opts.Model,
		Temperature: s.opts.Temperature,
		MaxTokens:   s.opts.MaxTokens,
	}, prompt)
	if s.latency != nil {
		s.latency.Record(ctx, time.Since(start).Seconds(),
			metric.WithAttributes(attribute.Bool("error", err != nil)))
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		var statusErr *ai.StatusError
		if errors.As(err, &statusErr) {
			s.logger.Error("ai api error", "status", statusErr.StatusCode, "error", statusErr.Err)
		}
		return "", err
	}

	s.logger.Info("generated chat response")
	return reply, nil
}
