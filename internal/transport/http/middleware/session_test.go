package middleware

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chemxplore/internal/identity"
)

type stubResolver struct {
	session *identity.Session
	err     error
}

func (s stubResolver) Lookup(context.Context, string) (*identity.Session, error) {
	return s.session, s.err
}

func serveWithCookie(t *testing.T, resolver SessionResolver) (*httptest.ResponseRecorder, *identity.Session) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	var seen *identity.Session
	router := gin.New()
	cookie := CookieOptions{Name: "chemxplore_session", Secure: true}
	router.Use(SessionCookie(resolver, cookie, slog.New(slog.NewTextHandler(io.Discard, nil))))
	router.GET("/", func(c *gin.Context) {
		seen = CurrentSession(c)
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "chemxplore_session", Value: "token-1"})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	return w, seen
}

func TestSessionCookieResolvesSession(t *testing.T) {
	w, seen := serveWithCookie(t, stubResolver{session: &identity.Session{User: identity.User{Email: "a@example.com"}}})

	require.NotNil(t, seen)
	assert.Equal(t, "a@example.com", seen.User.Email)
	assert.Empty(t, w.Result().Cookies())
}

func TestSessionCookieClearedWhenSessionMissing(t *testing.T) {
	w, seen := serveWithCookie(t, stubResolver{err: identity.ErrSessionMissing})

	assert.Nil(t, seen)
	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "chemxplore_session", cookies[0].Name)
	assert.Negative(t, cookies[0].MaxAge)
	assert.True(t, cookies[0].Secure)
	assert.True(t, cookies[0].HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, cookies[0].SameSite)
}

func TestSessionCookieKeptOnLookupFailure(t *testing.T) {
	w, seen := serveWithCookie(t, stubResolver{err: errors.New("redis: connection refused")})

	assert.Nil(t, seen)
	assert.Empty(t, w.Result().Cookies())
}
