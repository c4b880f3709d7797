package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chemxplore/internal/app"
	"chemxplore/internal/guard"
	"chemxplore/internal/identity"
	"chemxplore/internal/model"
	"chemxplore/internal/pages"
	"chemxplore/internal/transport/http/handler"
	"chemxplore/internal/transport/http/middleware"
)

type memoryUsers struct {
	mu    sync.Mutex
	users []*model.User
}

func (m *memoryUsers) Create(user *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	user.ID = uint(len(m.users) + 1)
	copied := *user
	m.users = append(m.users, &copied)
	return nil
}

func (m *memoryUsers) find(match func(*model.User) bool) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if match(u) {
			copied := *u
			return &copied, nil
		}
	}
	return nil, nil
}

func (m *memoryUsers) GetByEmail(email string) (*model.User, error) {
	return m.find(func(u *model.User) bool { return u.Email == email })
}

func (m *memoryUsers) GetByID(id uint) (*model.User, error) {
	return m.find(func(u *model.User) bool { return u.ID == id })
}

func (m *memoryUsers) GetByVerifyToken(token string) (*model.User, error) {
	return m.find(func(u *model.User) bool { return token != "" && u.VerifyToken == token })
}

func (m *memoryUsers) MarkConfirmed(id uint, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.ID == id {
			u.EmailConfirmedAt = &at
			u.VerifyToken = ""
		}
	}
	return nil
}

type memorySessions struct {
	mu   sync.Mutex
	live map[string]bool
}

func (m *memorySessions) Put(_ context.Context, id string, _ uint, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.live[id] = true
	return nil
}

func (m *memorySessions) Exists(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.live[id], nil
}

func (m *memorySessions) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.live, id)
	return nil
}

type linkMailer struct {
	mu    sync.Mutex
	links []string
}

func (l *linkMailer) SendVerification(_ context.Context, _ string, link string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.links = append(l.links, link)
	return nil
}

// memoryAudit stands in for both ends of the auth event queue.
type memoryAudit struct {
	mu     sync.Mutex
	events []model.AuthEvent
}

func (m *memoryAudit) Publish(_ context.Context, event model.AuthEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	event.ID = uint(len(m.events) + 1)
	m.events = append(m.events, event)
	return nil
}

func (m *memoryAudit) ListByUserID(userID uint, limit int) ([]model.AuthEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.AuthEvent
	for i := len(m.events) - 1; i >= 0; i-- {
		if m.events[i].UserID == userID {
			out = append(out, m.events[i])
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type stubReplier struct {
	reply string
	err   error
	got   []model.ChatMessage
}

func (s *stubReplier) Reply(_ context.Context, messages []model.ChatMessage) (string, error) {
	s.got = messages
	return s.reply, s.err
}

type testServer struct {
	engine *gin.Engine
	auth   *app.AuthService
	audit  *memoryAudit
	relay  *stubReplier
	mailer *linkMailer
}

const cookieName = "chemxplore_session"

func newTestServer(t *testing.T, requireConfirmation bool) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	renderer, err := pages.NewRenderer()
	require.NoError(t, err)

	mailer := &linkMailer{}
	audit := &memoryAudit{}
	auth := app.NewAuthService(&memoryUsers{}, &memorySessions{live: map[string]bool{}}, audit, mailer, app.AuthOptions{
		JWTSecret:                "test-secret",
		TokenTTL:                 time.Hour,
		RequireEmailConfirmation: requireConfirmation,
		PublicURL:                "http://localhost:8080",
	}, logger)
	relay := &stubReplier{reply: "Heat oxidises the citric acid."}

	engine := NewEngine(Handlers{
		Relay: handler.NewRelayHandler(relay, logger),
		Auth:  handler.NewAuthHandler(auth, logger),
		Audit: handler.NewAuditHandler(audit, logger),
		Pages: handler.NewPagesHandler(renderer, guard.New(pages.Routes()...), auth,
			middleware.CookieOptions{Name: cookieName}, "http://localhost:8080", logger),
		Health: handler.NewHealthHandler("chemxplore", "test", time.Now(), map[string]handler.Check{
			"mysql": func(context.Context) error { return nil },
			"redis": func(context.Context) error { return errors.New("connection refused") },
		}),
		Sessions: auth,
		Cookie:   middleware.CookieOptions{Name: cookieName},
		Logger:   logger,
	})
	return &testServer{engine: engine, auth: auth, audit: audit, relay: relay, mailer: mailer}
}

func (s *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

type relayBody struct {
	Response string `json:"response"`
	Error    string `json:"error"`
}

func assertCORS(t *testing.T, w *httptest.ResponseRecorder) {
	t.Helper()
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), "x-supabase-client-runtime-version")
}

func TestRelayMalformedBodies(t *testing.T) {
	s := newTestServer(t, false)

	for _, body := range []string{
		`{}`,
		`{"messages": "hello"}`,
		`{"messages": null}`,
		`{"messages": {"role": "user"}}`,
		`not json`,
		`{"messages": [{"role": "robot", "content": "hi"}]}`,
	} {
		w := s.do(httptest.NewRequest(http.MethodPost, "/chemistry-chat", strings.NewReader(body)))

		assert.Equal(t, http.StatusInternalServerError, w.Code, body)
		var out relayBody
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), body)
		assert.NotEmpty(t, out.Error, body)
		assert.Equal(t, app.FallbackReply, out.Response, body)
		assertCORS(t, w)
	}
}

func TestRelayMissingMessagesError(t *testing.T) {
	s := newTestServer(t, false)
	w := s.do(httptest.NewRequest(http.MethodPost, "/chemistry-chat", strings.NewReader(`{"transcript": []}`)))

	var out relayBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	assert.Equal(t, "Messages array is required", out.Error)
}

func TestRelayWellFormed(t *testing.T) {
	s := newTestServer(t, false)
	body := `{"messages": [{"role": "user", "content": "Why does heat reveal the ink?"}]}`

	w := s.do(httptest.NewRequest(http.MethodPost, "/chemistry-chat", strings.NewReader(body)))

	assert.Equal(t, http.StatusOK, w.Code)
	var out relayBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	assert.Equal(t, "Heat oxidises the citric acid.", out.Response)
	assert.Empty(t, out.Error)
	assertCORS(t, w)
	assert.Equal(t, []model.ChatMessage{{Role: model.RoleUser, Content: "Why does heat reveal the ink?"}}, s.relay.got)
}

func TestRelayUpstreamFailure(t *testing.T) {
	s := newTestServer(t, false)
	s.relay.err = errors.New("AI API error: 502")

	w := s.do(httptest.NewRequest(http.MethodPost, "/chemistry-chat",
		strings.NewReader(`{"messages": [{"role": "user", "content": "hi"}]}`)))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	var out relayBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	assert.Equal(t, "AI API error: 502", out.Error)
	assert.Equal(t, app.FallbackReply, out.Response)
}

func TestRelayPreflight(t *testing.T) {
	s := newTestServer(t, false)
	w := s.do(httptest.NewRequest(http.MethodOptions, "/chemistry-chat", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Body.String())
	assertCORS(t, w)
}

func TestIdentityClientAgainstServer(t *testing.T) {
	s := newTestServer(t, true)
	server := httptest.NewServer(s.engine)
	defer server.Close()
	ctx := context.Background()

	client := identity.NewClient(server.URL, nil)
	result, err := client.SignUp(ctx,
		identity.Credentials{Email: "student@example.com", Password: "secret1"},
		identity.SignUpOptions{EmailRedirectTo: "http://localhost:8080/faq"})
	require.NoError(t, err)
	assert.Nil(t, result.Session)

	_, err = client.SignUp(ctx, identity.Credentials{Email: "student@example.com", Password: "secret1"}, identity.SignUpOptions{})
	assert.ErrorIs(t, err, identity.ErrUserAlreadyRegistered)

	_, err = client.SignInWithPassword(ctx, identity.Credentials{Email: "student@example.com", Password: "secret1"})
	assert.ErrorIs(t, err, identity.ErrEmailNotConfirmed)

	require.Len(t, s.mailer.links, 1)
	link, err := url.Parse(s.mailer.links[0])
	require.NoError(t, err)
	verify := s.do(httptest.NewRequest(http.MethodGet, link.RequestURI(), nil))
	assert.Equal(t, http.StatusSeeOther, verify.Code)
	assert.Equal(t, "http://localhost:8080/faq", verify.Header().Get("Location"))

	_, err = client.SignInWithPassword(ctx, identity.Credentials{Email: "student@example.com", Password: "wrong-pass"})
	assert.ErrorIs(t, err, identity.ErrInvalidCredentials)

	session, err := client.SignInWithPassword(ctx, identity.Credentials{Email: "student@example.com", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, "student@example.com", session.User.Email)

	current, err := client.GetSession(ctx)
	require.NoError(t, err)
	require.NotNil(t, current)

	require.NoError(t, client.SignOut(ctx))
	_, err = s.auth.Lookup(ctx, session.AccessToken)
	assert.ErrorIs(t, err, identity.ErrSessionMissing)
}

func TestUserEndpointRequiresBearer(t *testing.T) {
	s := newTestServer(t, false)
	w := s.do(httptest.NewRequest(http.MethodGet, "/auth/v1/user", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Auth session missing!")
}

func TestTokenRejectsOtherGrants(t *testing.T) {
	s := newTestServer(t, false)
	w := s.do(httptest.NewRequest(http.MethodPost, "/auth/v1/token?grant_type=refresh_token", strings.NewReader(`{}`)))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUserEventsListsOwnHistory(t *testing.T) {
	s := newTestServer(t, false)
	ctx := context.Background()

	result, err := s.auth.SignUp(ctx, app.SignUpInput{Email: "a@example.com", Password: "secret1"})
	require.NoError(t, err)
	require.NotNil(t, result.Session)
	_, err = s.auth.SignUp(ctx, app.SignUpInput{Email: "b@example.com", Password: "secret1"})
	require.NoError(t, err)

	events := func(query string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/auth/v1/user/events"+query, nil)
		req.Header.Set("Authorization", "Bearer "+result.Session.AccessToken)
		return s.do(req)
	}

	w := events("")
	require.Equal(t, http.StatusOK, w.Code)
	var out struct {
		Data struct {
			Events []model.AuthEvent `json:"events"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	require.Len(t, out.Data.Events, 2)
	assert.Equal(t, model.AuthEventSignedIn, out.Data.Events[0].Kind)
	assert.Equal(t, model.AuthEventSignedUp, out.Data.Events[1].Kind)
	assert.Equal(t, "a@example.com", out.Data.Events[1].Email)

	w = events("?limit=1")
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	assert.Len(t, out.Data.Events, 1)

	assert.Equal(t, http.StatusBadRequest, events("?limit=many").Code)

	anonymous := s.do(httptest.NewRequest(http.MethodGet, "/auth/v1/user/events", nil))
	assert.Equal(t, http.StatusUnauthorized, anonymous.Code)
}

func postForm(path string, values url.Values, cookies ...*http.Cookie) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	return req
}

func sessionCookie(w *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == cookieName {
			return c
		}
	}
	return nil
}

func TestSiteGuardsPages(t *testing.T) {
	s := newTestServer(t, false)

	for _, route := range pages.Routes() {
		w := s.do(httptest.NewRequest(http.MethodGet, route, nil))
		assert.Equal(t, http.StatusFound, w.Code, route)
		assert.Equal(t, guard.LoginRoute, w.Header().Get("Location"), route)
	}

	w := s.do(httptest.NewRequest(http.MethodGet, "/auth", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Welcome Back")

	w = s.do(httptest.NewRequest(http.MethodGet, "/auth?mode=signup", nil))
	assert.Contains(t, w.Body.String(), "Create Account")

	w = s.do(httptest.NewRequest(http.MethodGet, "/lab-notes", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSiteSignUpSignInAndLogout(t *testing.T) {
	s := newTestServer(t, false)

	w := s.do(postForm("/auth", url.Values{"mode": {"signup"}, "email": {"not-an-email"}, "password": {"secret1"}, "confirmPassword": {"secret1"}}))
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "Please enter a valid email address")

	w = s.do(postForm("/auth", url.Values{"mode": {"signup"}, "email": {"a@example.com"}, "password": {"secret1"}, "confirmPassword": {"secret2"}}))
	assert.Contains(t, w.Body.String(), "Passwords don&#39;t match")

	// Without confirmation the backend starts a session at sign-up.
	w = s.do(postForm("/auth", url.Values{"mode": {"signup"}, "email": {"a@example.com"}, "password": {"secret1"}, "confirmPassword": {"secret1"}}))
	assert.Equal(t, http.StatusSeeOther, w.Code)
	require.NotNil(t, sessionCookie(w))

	w = s.do(postForm("/auth", url.Values{"email": {"a@example.com"}, "password": {"wrong-pass"}}))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Login Failed")

	w = s.do(postForm("/auth", url.Values{"email": {"a@example.com"}, "password": {"secret1"}}))
	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))
	cookie := sessionCookie(w)
	require.NotNil(t, cookie)

	home := httptest.NewRequest(http.MethodGet, "/", nil)
	home.AddCookie(cookie)
	w = s.do(home)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "a@example.com")

	login := httptest.NewRequest(http.MethodGet, "/auth", nil)
	login.AddCookie(cookie)
	w = s.do(login)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))

	w = s.do(postForm("/logout", nil, cookie))
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/auth", w.Header().Get("Location"))

	faq := httptest.NewRequest(http.MethodGet, "/faq", nil)
	faq.AddCookie(cookie)
	w = s.do(faq)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/auth", w.Header().Get("Location"))
}

func TestHealthReportsDependencies(t *testing.T) {
	s := newTestServer(t, false)
	w := s.do(httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	var out struct {
		App          string `json:"app"`
		Dependencies map[string]struct {
			OK      bool   `json:"ok"`
			Message string `json:"message"`
		} `json:"dependencies"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	assert.Equal(t, "chemxplore", out.App)
	assert.True(t, out.Dependencies["mysql"].OK)
	assert.False(t, out.Dependencies["redis"].OK)
	assert.Equal(t, "connection refused", out.Dependencies["redis"].Message)
}

func TestStylesheetLinkedFromPagesIsServed(t *testing.T) {
	s := newTestServer(t, false)

	page := s.do(httptest.NewRequest(http.MethodGet, "/auth", nil))
	require.Contains(t, page.Body.String(), `href="/static/site.css"`)

	w := s.do(httptest.NewRequest(http.MethodGet, "/static/site.css", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/css")
	assert.Contains(t, w.Body.String(), ".chatbot")
}
