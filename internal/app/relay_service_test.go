package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chemxplore/internal/ai"
	"chemxplore/internal/model"
)

type fakeCompleter struct {
	reply    string
	err      error
	calls    int
	cfg      ai.ChatConfig
	messages []model.ChatMessage
}

func (f *fakeCompleter) Complete(_ context.Context, cfg ai.ChatConfig, messages []model.ChatMessage) (string, error) {
	f.calls++
	f.cfg = cfg
	f.messages = messages
	return f.reply, f.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestRelay(completer Completer) *RelayService {
	return NewRelayService(completer, RelayOptions{
		BaseURL:     "http://upstream.test/v1",
		Model:       "test-model",
		APIKeyEnv:   "CHEMXPLORE_TEST_LLM_KEY",
		Temperature: 0.7,
		MaxTokens:   500,
	}, discardLogger())
}

func TestRelayPrependsSystemPrompt(t *testing.T) {
	t.Setenv("CHEMXPLORE_TEST_LLM_KEY", "secret")
	completer := &fakeCompleter{reply: "Hot ice forms instantly."}
	relay := newTestRelay(completer)

	transcript := []model.ChatMessage{
		{Role: model.RoleUser, Content: "What is hot ice?"},
	}
	reply, err := relay.Reply(context.Background(), transcript)

	require.NoError(t, err)
	assert.Equal(t, "Hot ice forms instantly.", reply)
	require.Len(t, completer.messages, 2)
	assert.Equal(t, model.RoleSystem, completer.messages[0].Role)
	assert.Equal(t, DefaultSystemPrompt, completer.messages[0].Content)
	assert.Equal(t, transcript[0], completer.messages[1])
	assert.Equal(t, "secret", completer.cfg.APIKey)
	assert.Equal(t, 500, completer.cfg.MaxTokens)
	assert.InDelta(t, 0.7, float64(completer.cfg.Temperature), 0.0001)
}

func TestRelayRequiresMessages(t *testing.T) {
	t.Setenv("CHEMXPLORE_TEST_LLM_KEY", "secret")
	completer := &fakeCompleter{reply: "unused"}
	relay := newTestRelay(completer)

	_, err := relay.Reply(context.Background(), nil)
	assert.ErrorIs(t, err, ErrMessagesRequired)
	assert.Zero(t, completer.calls)
}

func TestRelayReadsCredentialPerCall(t *testing.T) {
	t.Setenv("CHEMXPLORE_TEST_LLM_KEY", "")
	completer := &fakeCompleter{reply: "ok"}
	relay := newTestRelay(completer)
	transcript := []model.ChatMessage{{Role: model.RoleUser, Content: "hi"}}

	_, err := relay.Reply(context.Background(), transcript)
	assert.EqualError(t, err, "CHEMXPLORE_TEST_LLM_KEY is not configured")
	assert.Zero(t, completer.calls)

	t.Setenv("CHEMXPLORE_TEST_LLM_KEY", "late-key")
	reply, err := relay.Reply(context.Background(), transcript)
	require.NoError(t, err)
	assert.Equal(t, "ok", reply)
	assert.Equal(t, "late-key", completer.cfg.APIKey)
}

func TestRelayPropagatesUpstreamError(t *testing.T) {
	t.Setenv("CHEMXPLORE_TEST_LLM_KEY", "secret")
	upstream := &ai.StatusError{StatusCode: 429, Err: errors.New("rate limited")}
	relay := newTestRelay(&fakeCompleter{err: upstream})

	_, err := relay.Reply(context.Background(), []model.ChatMessage{{Role: model.RoleUser, Content: "hi"}})
	assert.EqualError(t, err, "AI API error: 429")
}

func TestLoadSystemPrompt(t *testing.T) {
	prompt, err := LoadSystemPrompt("")
	require.NoError(t, err)
	assert.Equal(t, DefaultSystemPrompt, prompt)

	_, err = LoadSystemPrompt("/nonexistent/prompt.txt")
	assert.Error(t, err)
}
