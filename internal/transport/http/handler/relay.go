package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"chemxplore/internal/app"
	"chemxplore/internal/model"
)

type Replier interface {
	Reply(ctx context.Context, messages []model.ChatMessage) (string, error)
}

type RelayHandler struct {
	relay  Replier
	logger *slog.Logger
}

type relayReply struct {
	Response string `json:"response"`
	Error    string `json:"error,omitempty"`
}

func NewRelayHandler(relay Replier, logger *slog.Logger) *RelayHandler {
	return &RelayHandler{relay: relay, logger: logger}
}

// Chat answers a transcript with one assistant reply. Every failure is a 500
// carrying the fallback reply.
func (h *RelayHandler) Chat(c *gin.Context) {
	messages, err := decodeTranscript(c)
	if err == nil {
		var reply string
		reply, err = h.relay.Reply(c.Request.Context(), messages)
		if err == nil {
			c.JSON(http.StatusOK, relayReply{Response: reply})
			return
		}
	}

	h.logger.Error("chemistry chat failed", "error", err)
	c.JSON(http.StatusInternalServerError, relayReply{
		Response: app.FallbackReply,
		Error:    err.Error(),
	})
}

func decodeTranscript(c *gin.Context) ([]model.ChatMessage, error) {
	raw, err := c.GetRawData()
	if err != nil {
		return nil, fmt.Errorf("read request body failed: %w", err)
	}

	var body struct {
		Messages json.RawMessage `json:"messages"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, fmt.Errorf("invalid request body: %w", err)
	}

	trimmed := bytes.TrimSpace(body.Messages)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, app.ErrMessagesRequired
	}

	var messages []model.ChatMessage
	if err := json.Unmarshal(trimmed, &messages); err != nil {
		return nil, fmt.Errorf("invalid messages: %w", err)
	}
	for i, m := range messages {
		if err := m.Validate(); err != nil {
			return nil, fmt.Errorf("invalid message %d: %w", i, err)
		}
	}
	return messages, nil
}
