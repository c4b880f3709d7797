package handler

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"chemxplore/internal/app"
	"chemxplore/internal/authform"
	"chemxplore/internal/guard"
	"chemxplore/internal/identity"
	"chemxplore/internal/pages"
	"chemxplore/internal/session"
	"chemxplore/internal/transport/http/middleware"
)

// PagesHandler serves the server-rendered site. Each request's session comes
// from the cookie resolved by middleware.SessionCookie.
type PagesHandler struct {
	renderer  *pages.Renderer
	guard     *guard.Guard
	auth      AuthBackend
	cookie    middleware.CookieOptions
	publicURL string
	logger    *slog.Logger
}

func NewPagesHandler(renderer *pages.Renderer, g *guard.Guard, auth AuthBackend, cookie middleware.CookieOptions, publicURL string, logger *slog.Logger) *PagesHandler {
	return &PagesHandler{
		renderer:  renderer,
		guard:     g,
		auth:      auth,
		cookie:    cookie,
		publicURL: strings.TrimRight(publicURL, "/"),
		logger:    logger,
	}
}

// Show renders a content page, the sign-in page, or the not-found page,
// as the route guard decides.
func (h *PagesHandler) Show(c *gin.Context) {
	route := c.Request.URL.Path
	current := middleware.CurrentSession(c)

	decision := h.guard.Decide(route, current != nil)
	switch decision.Outcome {
	case guard.Redirect:
		c.Redirect(http.StatusFound, decision.Location)
		return
	case guard.NotFound:
		h.NotFound(c)
		return
	}

	if route == guard.LoginRoute {
		h.renderAuth(c, http.StatusOK, pages.AuthView{Mode: authform.ParseMode(c.Query("mode"))})
		return
	}

	ctx, ok := h.renderer.Context(route, &session.User{Email: current.User.Email})
	if !ok {
		h.NotFound(c)
		return
	}
	var buf bytes.Buffer
	if err := h.renderer.RenderHTML(&buf, ctx); err != nil {
		h.renderFailed(c, err)
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}

// SubmitAuth handles the sign-in / sign-up form.
func (h *PagesHandler) SubmitAuth(c *gin.Context) {
	if middleware.CurrentSession(c) != nil {
		c.Redirect(http.StatusSeeOther, guard.HomeRoute)
		return
	}

	form := &authform.Form{
		Mode:            authform.ParseMode(c.PostForm("mode")),
		Email:           c.PostForm("email"),
		Password:        c.PostForm("password"),
		ConfirmPassword: c.PostForm("confirmPassword"),
	}
	provider := &cookieAuthenticator{auth: h.auth}
	notice := form.Submit(c.Request.Context(), provider, h.publicURL+guard.HomeRoute)

	if provider.session != nil {
		h.setSessionCookie(c, provider.session)
		c.Redirect(http.StatusSeeOther, guard.HomeRoute)
		return
	}

	status := http.StatusOK
	if len(form.Errors) > 0 {
		status = http.StatusUnprocessableEntity
	}
	h.renderAuth(c, status, pages.AuthView{
		Mode:   form.Mode,
		Email:  form.Email,
		Errors: form.Errors,
		Notice: notice,
	})
}

func (h *PagesHandler) Logout(c *gin.Context) {
	if token := middleware.CurrentToken(c); token != "" {
		if err := h.auth.SignOut(c.Request.Context(), token); err != nil && !errors.Is(err, identity.ErrSessionMissing) {
			h.logger.Warn("sign out failed", "error", err)
		}
	}
	h.cookie.Clear(c)
	c.Redirect(http.StatusSeeOther, guard.LoginRoute)
}

func (h *PagesHandler) NotFound(c *gin.Context) {
	h.logger.Warn("route not found", "path", c.Request.URL.Path)
	var buf bytes.Buffer
	if err := h.renderer.RenderNotFoundHTML(&buf, c.Request.URL.Path); err != nil {
		h.renderFailed(c, err)
		return
	}
	c.Data(http.StatusNotFound, "text/html; charset=utf-8", buf.Bytes())
}

func (h *PagesHandler) renderAuth(c *gin.Context, status int, view pages.AuthView) {
	var buf bytes.Buffer
	if err := h.renderer.RenderAuthHTML(&buf, view); err != nil {
		h.renderFailed(c, err)
		return
	}
	c.Data(status, "text/html; charset=utf-8", buf.Bytes())
}

func (h *PagesHandler) renderFailed(c *gin.Context, err error) {
	h.logger.Error("render page failed", "path", c.Request.URL.Path, "error", err)
	c.String(http.StatusInternalServerError, "internal server error")
}

func (h *PagesHandler) setSessionCookie(c *gin.Context, s *identity.Session) {
	maxAge := int(time.Until(s.ExpiresAt).Seconds())
	if maxAge <= 0 {
		maxAge = s.ExpiresIn
	}
	h.cookie.Set(c, s.AccessToken, maxAge)
}

// cookieAuthenticator adapts the backend to the form. A session it obtains is
// handed to the browser as the site cookie.
type cookieAuthenticator struct {
	auth    AuthBackend
	session *identity.Session
}

func (a *cookieAuthenticator) SignInWithPassword(ctx context.Context, creds identity.Credentials) (*identity.Session, error) {
	s, err := a.auth.SignIn(ctx, app.LoginInput{Email: creds.Email, Password: creds.Password})
	if err != nil {
		return nil, err
	}
	a.session = s
	return s, nil
}

func (a *cookieAuthenticator) SignUp(ctx context.Context, creds identity.Credentials, opts identity.SignUpOptions) (*identity.SignUpResult, error) {
	result, err := a.auth.SignUp(ctx, app.SignUpInput{
		Email:      creds.Email,
		Password:   creds.Password,
		RedirectTo: opts.EmailRedirectTo,
	})
	if err != nil {
		return nil, err
	}
	a.session = result.Session
	return result, nil
}
