package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"chemxplore/internal/identity"
	"chemxplore/internal/transport/http/response"
)

const (
	ContextSessionKey = "session"
	ContextTokenKey   = "access_token"
)

type SessionResolver interface {
	Lookup(ctx context.Context, token string) (*identity.Session, error)
}

// BearerAuth requires a live session in the Authorization header.
func BearerAuth(resolver SessionResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := strings.TrimSpace(c.GetHeader("Authorization"))
		const prefix = "Bearer "
		if authHeader == "" || !strings.HasPrefix(authHeader, prefix) {
			response.Identity(c, identity.ErrSessionMissing)
			c.Abort()
			return
		}

		token := strings.TrimSpace(strings.TrimPrefix(authHeader, prefix))
		session, err := resolver.Lookup(c.Request.Context(), token)
		if err != nil {
			var idErr *identity.Error
			if errors.As(err, &idErr) {
				response.Identity(c, idErr)
			} else {
				response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "session lookup failed")
			}
			c.Abort()
			return
		}

		c.Set(ContextSessionKey, session)
		c.Set(ContextTokenKey, token)
		c.Next()
	}
}

// SessionCookie resolves the site session from its cookie. A missing or
// unresolvable session leaves the visitor signed out. The cookie is dropped
// only when the session is gone; other lookup failures keep it for the next
// request.
func SessionCookie(resolver SessionResolver, cookie CookieOptions, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(cookie.Name)
		if err != nil || token == "" {
			c.Next()
			return
		}

		session, err := resolver.Lookup(c.Request.Context(), token)
		if err != nil {
			if errors.Is(err, identity.ErrSessionMissing) {
				cookie.Clear(c)
			} else {
				logger.Warn("session lookup failed", "error", err)
			}
			c.Next()
			return
		}

		c.Set(ContextSessionKey, session)
		c.Set(ContextTokenKey, token)
		c.Next()
	}
}

// CurrentSession returns the session resolved by BearerAuth or SessionCookie.
func CurrentSession(c *gin.Context) *identity.Session {
	v, ok := c.Get(ContextSessionKey)
	if !ok {
		return nil
	}
	session, _ := v.(*identity.Session)
	return session
}

func CurrentToken(c *gin.Context) string {
	return c.GetString(ContextTokenKey)
}
