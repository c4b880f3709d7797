package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"chemxplore/internal/identity"
	"chemxplore/internal/model"
	"chemxplore/internal/transport/http/middleware"
	"chemxplore/internal/transport/http/response"
)

type AuditLog interface {
	ListByUserID(userID uint, limit int) ([]model.AuthEvent, error)
}

// AuditHandler serves the signed-in user's own auth history.
type AuditHandler struct {
	log    AuditLog
	logger *slog.Logger
}

func NewAuditHandler(log AuditLog, logger *slog.Logger) *AuditHandler {
	return &AuditHandler{log: log, logger: logger}
}

func (h *AuditHandler) Events(c *gin.Context) {
	session := middleware.CurrentSession(c)
	if session == nil {
		response.Identity(c, identity.ErrSessionMissing)
		return
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	events, err := h.log.ListByUserID(session.User.ID, limit)
	if err != nil {
		h.logger.Error("list auth events failed", "user_id", session.User.ID, "error", err)
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "list auth events failed")
		return
	}
	response.OK(c, gin.H{"events": events})
}
