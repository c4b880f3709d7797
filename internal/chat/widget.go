package chat

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"chemxplore/internal/model"
)

const FallbackReply = "I'm having trouble connecting right now. Please try again in a moment."

var ErrEmptyMessage = errors.New("message is empty")

type Relayer interface {
	Relay(ctx context.Context, messages []model.ChatMessage) (string, error)
}

// Widget sends one message at a time: the user message is appended, the whole
// transcript is relayed, and the reply (or a fallback) is appended after it.
type Widget struct {
	relay      Relayer
	transcript *Transcript
	logger     *slog.Logger

	sendMu sync.Mutex
}

func NewWidget(relay Relayer, logger *slog.Logger) *Widget {
	if logger == nil {
		logger = slog.Default()
	}
	return &Widget{
		relay:      relay,
		transcript: &Transcript{},
		logger:     logger.With("component", "chat"),
	}
}

func (w *Widget) Transcript() []model.ChatMessage {
	return w.transcript.Messages()
}

// Send returns the assistant message appended for text. A relay failure is
// not returned as an error; the fallback reply is appended instead.
func (w *Widget) Send(ctx context.Context, text string) (model.ChatMessage, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return model.ChatMessage{}, ErrEmptyMessage
	}

	w.sendMu.Lock()
	defer w.sendMu.Unlock()

	w.transcript.Append(model.ChatMessage{Role: model.RoleUser, Content: text})

	reply, err := w.relay.Relay(ctx, w.transcript.Messages())
	if err != nil {
		w.logger.Warn("chat relay failed", "error", err)
		reply = FallbackReply
		var relayErr *RelayError
		if errors.As(err, &relayErr) && relayErr.Reply != "" {
			reply = relayErr.Reply
		}
	}

	msg := model.ChatMessage{Role: model.RoleAssistant, Content: reply}
	w.transcript.Append(msg)
	return msg, nil
}
