package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"
)

const (
	PathSignUp = "/auth/v1/signup"
	PathToken  = "/auth/v1/token"
	PathUser   = "/auth/v1/user"
	PathLogout = "/auth/v1/logout"
	PathVerify = "/auth/v1/verify"
)

// Client implements Provider against the chemxplore identity API. It caches
// the current session in memory and in its Storage, and publishes every sign-in
// and sign-out to its subscribers.
type Client struct {
	baseURL    string
	httpClient *http.Client
	storage    Storage
	hub        *Hub
	now        func() time.Time

	mu      sync.Mutex
	session *Session
	loaded  bool
}

func NewClient(baseURL string, storage Storage) *Client {
	if storage == nil {
		storage = &MemoryStorage{}
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 15 * time.Second},
		storage:    storage,
		hub:        NewHub(),
		now:        time.Now,
	}
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// GetSession returns the stored session after confirming it with the server
// once per process. A rejected or expired session is dropped and nil returned.
func (c *Client) GetSession(ctx context.Context) (*Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.loaded {
		if c.session != nil && c.session.Expired(c.now()) {
			c.dropLocked()
		}
		return c.session, nil
	}

	stored, err := c.storage.Load()
	if err != nil {
		return nil, err
	}
	if stored == nil || stored.Expired(c.now()) {
		c.loaded = true
		c.dropLocked()
		return nil, nil
	}

	var user User
	if err := c.do(ctx, http.MethodGet, PathUser, stored.AccessToken, nil, &user); err != nil {
		var authErr *Error
		if errors.As(err, &authErr) && authErr.Status == http.StatusUnauthorized {
			c.loaded = true
			c.dropLocked()
			return nil, nil
		}
		return nil, err
	}

	stored.User = user
	c.session = stored
	c.loaded = true
	return stored, nil
}

func (c *Client) OnAuthStateChange(fn AuthChangeFunc) Subscription {
	return c.hub.Subscribe(fn)
}

func (c *Client) SignInWithPassword(ctx context.Context, creds Credentials) (*Session, error) {
	var session Session
	if err := c.do(ctx, http.MethodPost, PathToken+"?grant_type=password", "", creds, &session); err != nil {
		return nil, err
	}
	if err := c.setSession(&session); err != nil {
		return nil, err
	}
	c.hub.Publish(EventSignedIn, &session)
	return &session, nil
}

func (c *Client) SignUp(ctx context.Context, creds Credentials, opts SignUpOptions) (*SignUpResult, error) {
	body := struct {
		Credentials
		Options SignUpOptions `json:"options"`
	}{Credentials: creds, Options: opts}

	var result SignUpResult
	if err := c.do(ctx, http.MethodPost, PathSignUp, "", body, &result); err != nil {
		return nil, err
	}
	if result.Session != nil {
		if err := c.setSession(result.Session); err != nil {
			return nil, err
		}
		c.hub.Publish(EventSignedIn, result.Session)
	}
	return &result, nil
}

// SignOut revokes the session on the server and always clears it locally.
func (c *Client) SignOut(ctx context.Context) error {
	c.mu.Lock()
	session := c.session
	c.mu.Unlock()

	var remoteErr error
	if session != nil {
		remoteErr = c.do(ctx, http.MethodPost, PathLogout, session.AccessToken, nil, nil)
		var authErr *Error
		if errors.As(remoteErr, &authErr) && authErr.Status == http.StatusUnauthorized {
			remoteErr = nil
		}
	}

	c.mu.Lock()
	c.loaded = true
	clearErr := c.dropLocked()
	c.mu.Unlock()

	c.hub.Publish(EventSignedOut, nil)
	return errors.Join(remoteErr, clearErr)
}

func (c *Client) setSession(session *Session) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.session = session
	c.loaded = true
	if err := c.storage.Save(session); err != nil {
		return fmt.Errorf("store session failed: %w", err)
	}
	return nil
}

func (c *Client) dropLocked() error {
	c.session = nil
	return c.storage.Clear()
}

func (c *Client) do(ctx context.Context, method, path, token string, in, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal identity request failed: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build identity request failed: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("identity request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read identity response failed: %w", err)
	}

	var env envelope
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &env); err != nil {
			return &Error{Status: resp.StatusCode, Message: fmt.Sprintf("unexpected identity response (status %d)", resp.StatusCode)}
		}
	}
	if resp.StatusCode >= 300 {
		msg := env.Message
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return &Error{Status: resp.StatusCode, Message: msg}
	}

	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("decode identity response failed: %w", err)
		}
	}
	return nil
}
