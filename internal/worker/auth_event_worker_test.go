package worker

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chemxplore/internal/model"
)

type sliceStore struct {
	events []model.AuthEvent
}

func (s *sliceStore) Create(event *model.AuthEvent) error {
	s.events = append(s.events, *event)
	return nil
}

func TestPersistAuthEvent(t *testing.T) {
	store := &sliceStore{}
	w := NewAuthEventWorker(nil, store, "auth.event.persist", nil)

	body, err := json.Marshal(model.AuthEvent{
		ID:        99,
		UserID:    3,
		Email:     "student@example.com",
		Kind:      model.AuthEventSignedIn,
		CreatedAt: time.Unix(1700000000, 0).UTC(),
	})
	require.NoError(t, err)

	require.NoError(t, w.persist(body))
	require.Len(t, store.events, 1)
	assert.Zero(t, store.events[0].ID)
	assert.Equal(t, uint(3), store.events[0].UserID)
	assert.Equal(t, model.AuthEventSignedIn, store.events[0].Kind)
}

func TestPersistRejectsBadPayloads(t *testing.T) {
	store := &sliceStore{}
	w := NewAuthEventWorker(nil, store, "auth.event.persist", nil)

	assert.Error(t, w.persist([]byte("{not json")))
	assert.Error(t, w.persist([]byte(`{"user_id":1,"kind":"DELETED"}`)))
	assert.Empty(t, store.events)
}
