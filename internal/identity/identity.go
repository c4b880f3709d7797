// Package identity is the client side of the identity provider: the provider
// interface consumed by the session controller and auth form, the HTTP client
// that implements it, and the auth-state subscription hub.
package identity

import (
	"context"
	"time"
)

type User struct {
	ID               uint       `json:"id"`
	Email            string     `json:"email"`
	EmailConfirmedAt *time.Time `json:"email_confirmed_at,omitempty"`
}

type Session struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresIn   int       `json:"expires_in"`
	ExpiresAt   time.Time `json:"expires_at"`
	User        User      `json:"user"`
}

func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type SignUpOptions struct {
	EmailRedirectTo string `json:"emailRedirectTo,omitempty"`
}

type AuthChangeEvent string

const (
	EventSignedIn    = AuthChangeEvent("SIGNED_IN")
	EventSignedOut   = AuthChangeEvent("SIGNED_OUT")
	EventUserUpdated = AuthChangeEvent("USER_UPDATED")
)

// AuthChangeFunc receives every auth state change. session is nil after sign-out.
type AuthChangeFunc func(event AuthChangeEvent, session *Session)

type Subscription interface {
	Unsubscribe()
}

type Provider interface {
	GetSession(ctx context.Context) (*Session, error)
	OnAuthStateChange(fn AuthChangeFunc) Subscription
	SignInWithPassword(ctx context.Context, creds Credentials) (*Session, error)
	SignUp(ctx context.Context, creds Credentials, opts SignUpOptions) (*SignUpResult, error)
	SignOut(ctx context.Context) error
}

// SignUpResult carries the new user and, when the backend does not require
// email confirmation, an already active session.
type SignUpResult struct {
	User    User     `json:"user"`
	Session *Session `json:"session,omitempty"`
}
