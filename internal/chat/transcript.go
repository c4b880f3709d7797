// Package chat is the client side of the chat relay: an append-only
// transcript and the widget that exchanges it with the relay endpoint.
package chat

import (
	"sync"

	"chemxplore/internal/model"
)

// Transcript is the in-memory, chronological message list of one widget.
type Transcript struct {
	mu       sync.RWMutex
	messages []model.ChatMessage
}

func (t *Transcript) Append(msg model.ChatMessage) {
	t.mu.Lock()
	t.messages = append(t.messages, msg)
	t.mu.Unlock()
}

// Messages returns a copy of the transcript.
func (t *Transcript) Messages() []model.ChatMessage {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]model.ChatMessage, len(t.messages))
	copy(out, t.messages)
	return out
}

func (t *Transcript) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.messages)
}
