package identity

import "sync"

// Hub fans auth state changes out to subscribers. Callbacks run on the
// publishing goroutine, outside the hub lock.
type Hub struct {
	mu   sync.RWMutex
	next int
	subs map[int]AuthChangeFunc
}

func NewHub() *Hub {
	return &Hub{subs: make(map[int]AuthChangeFunc)}
}

func (h *Hub) Subscribe(fn AuthChangeFunc) Subscription {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := h.next
	h.next++
	h.subs[id] = fn
	return &hubSubscription{hub: h, id: id}
}

func (h *Hub) Publish(event AuthChangeEvent, session *Session) {
	h.mu.RLock()
	fns := make([]AuthChangeFunc, 0, len(h.subs))
	for _, fn := range h.subs {
		fns = append(fns, fn)
	}
	h.mu.RUnlock()

	for _, fn := range fns {
		fn(event, session)
	}
}

func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

type hubSubscription struct {
	hub  *Hub
	id   int
	once sync.Once
}

func (s *hubSubscription) Unsubscribe() {
	s.once.Do(func() {
		s.hub.mu.Lock()
		delete(s.hub.subs, s.id)
		s.hub.mu.Unlock()
	})
}
