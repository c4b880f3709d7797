// Package session keeps the signed-in user of a long-lived client in sync
// with the identity provider.
package session

import (
	"context"
	"log/slog"
	"sync"

	"github.com/sourcegraph/conc"

	"chemxplore/internal/identity"
)

// Source is the part of identity.Provider the controller reads from.
type Source interface {
	GetSession(ctx context.Context) (*identity.Session, error)
	OnAuthStateChange(fn identity.AuthChangeFunc) identity.Subscription
}

type User struct {
	Email string
}

type State struct {
	User    *User
	Loading bool
}

func (s State) SignedIn() bool {
	return s.User != nil
}

// Controller holds {user, loading}. It is fed by two racing paths, the
// auth-state subscription and a one-off session fetch; whichever writes last
// wins. A failed fetch counts as signed out.
type Controller struct {
	source Source
	logger *slog.Logger

	mu        sync.Mutex
	state     State
	onChange  func(State)
	unmounted bool
	sub       identity.Subscription

	ready     chan struct{}
	readyOnce sync.Once
	wg        *conc.WaitGroup
}

func NewController(source Source, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		source: source,
		logger: logger.With("component", "session"),
		state:  State{Loading: true},
		ready:  make(chan struct{}),
		wg:     conc.NewWaitGroup(),
	}
}

// OnChange registers a hook run after every state write, before Ready is
// closed for the first one. Set it before Mount.
func (c *Controller) OnChange(fn func(State)) {
	c.mu.Lock()
	c.onChange = fn
	c.mu.Unlock()
}

func (c *Controller) Mount(ctx context.Context) {
	sub := c.source.OnAuthStateChange(func(event identity.AuthChangeEvent, s *identity.Session) {
		c.logger.Debug("auth state change", "event", event)
		c.set(s)
	})
	c.mu.Lock()
	c.sub = sub
	c.mu.Unlock()

	c.wg.Go(func() {
		s, err := c.source.GetSession(ctx)
		if err != nil {
			c.logger.Warn("session check failed, treating as signed out", "error", err)
			s = nil
		}
		c.set(s)
	})
}

// Ready is closed once the first session check has resolved.
func (c *Controller) Ready() <-chan struct{} {
	return c.ready
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Unmount drops the subscription and waits for the initial fetch. Results
// arriving afterwards are discarded.
func (c *Controller) Unmount() {
	c.mu.Lock()
	c.unmounted = true
	sub := c.sub
	c.sub = nil
	c.mu.Unlock()

	if sub != nil {
		sub.Unsubscribe()
	}
	c.wg.Wait()
}

func (c *Controller) set(s *identity.Session) {
	c.mu.Lock()
	if c.unmounted {
		c.mu.Unlock()
		return
	}
	next := State{}
	if s != nil {
		next.User = &User{Email: s.User.Email}
	}
	c.state = next
	hook := c.onChange
	c.mu.Unlock()

	if hook != nil {
		hook(next)
	}
	c.readyOnce.Do(func() { close(c.ready) })
}
