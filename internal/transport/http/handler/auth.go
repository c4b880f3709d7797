package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"chemxplore/internal/app"
	"chemxplore/internal/identity"
	"chemxplore/internal/transport/http/middleware"
	"chemxplore/internal/transport/http/response"
)

// AuthBackend is the identity backend served over HTTP.
type AuthBackend interface {
	SignUp(ctx context.Context, input app.SignUpInput) (*identity.SignUpResult, error)
	SignIn(ctx context.Context, input app.LoginInput) (*identity.Session, error)
	Lookup(ctx context.Context, token string) (*identity.Session, error)
	SignOut(ctx context.Context, token string) error
	Verify(ctx context.Context, token string) (*identity.User, error)
	SafeRedirect(target string) string
}

type AuthHandler struct {
	auth   AuthBackend
	logger *slog.Logger
}

type SignUpRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Options  struct {
		EmailRedirectTo string `json:"emailRedirectTo"`
	} `json:"options"`
}

type TokenRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func NewAuthHandler(auth AuthBackend, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, logger: logger}
}

func (h *AuthHandler) SignUp(c *gin.Context) {
	var req SignUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	result, err := h.auth.SignUp(c.Request.Context(), app.SignUpInput{
		Email:      req.Email,
		Password:   req.Password,
		RedirectTo: req.Options.EmailRedirectTo,
	})
	if err != nil {
		h.fail(c, err, "sign up failed")
		return
	}
	response.OK(c, result)
}

// Token issues a session. Only the password grant is supported.
func (h *AuthHandler) Token(c *gin.Context) {
	if grant := c.Query("grant_type"); grant != "password" {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "unsupported grant_type")
		return
	}

	var req TokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	session, err := h.auth.SignIn(c.Request.Context(), app.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		h.fail(c, err, "sign in failed")
		return
	}
	response.OK(c, session)
}

func (h *AuthHandler) User(c *gin.Context) {
	session := middleware.CurrentSession(c)
	if session == nil {
		response.Identity(c, identity.ErrSessionMissing)
		return
	}
	response.OK(c, session.User)
}

func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.auth.SignOut(c.Request.Context(), middleware.CurrentToken(c)); err != nil {
		h.fail(c, err, "sign out failed")
		return
	}
	response.OK(c, nil)
}

// Verify confirms an email address from the link sent at sign-up and sends
// the browser on to the requested page.
func (h *AuthHandler) Verify(c *gin.Context) {
	if _, err := h.auth.Verify(c.Request.Context(), c.Query("token")); err != nil {
		h.fail(c, err, "verify email failed")
		return
	}
	c.Redirect(http.StatusSeeOther, h.auth.SafeRedirect(c.Query("redirect_to")))
}

func (h *AuthHandler) fail(c *gin.Context, err error, message string) {
	var idErr *identity.Error
	if errors.As(err, &idErr) {
		response.Identity(c, idErr)
		return
	}
	h.logger.Error(message, "error", err)
	response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, message)
}
