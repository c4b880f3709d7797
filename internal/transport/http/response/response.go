package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"chemxplore/internal/identity"
)

const (
	CodeOK                 = 0
	CodeBadRequest         = 40000
	CodeInvalidEmail       = 40001
	CodeUnauthorized       = 40100
	CodeInvalidCredentials = 40101
	CodeEmailNotConfirmed  = 40102
	CodeForbidden          = 40300
	CodeUserExists         = 42201
	CodeWeakPassword       = 42202
	CodeInternalServer     = 50000
)

type APIResponse struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func OK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, APIResponse{
		Code:    CodeOK,
		Message: "ok",
		Data:    data,
	})
}

func Error(c *gin.Context, httpStatus, code int, message string) {
	c.JSON(httpStatus, APIResponse{
		Code:    code,
		Message: message,
	})
}

// Identity writes a provider error with its own status and message, which is
// what identity clients match on.
func Identity(c *gin.Context, err *identity.Error) {
	Error(c, err.Status, identityCode(err), err.Message)
}

func identityCode(err *identity.Error) int {
	switch {
	case errors.Is(err, identity.ErrInvalidCredentials):
		return CodeInvalidCredentials
	case errors.Is(err, identity.ErrEmailNotConfirmed):
		return CodeEmailNotConfirmed
	case errors.Is(err, identity.ErrInvalidEmail):
		return CodeInvalidEmail
	case errors.Is(err, identity.ErrUserAlreadyRegistered):
		return CodeUserExists
	case errors.Is(err, identity.ErrWeakPassword):
		return CodeWeakPassword
	case errors.Is(err, identity.ErrSessionMissing):
		return CodeUnauthorized
	case errors.Is(err, identity.ErrInvalidVerifyToken):
		return CodeForbidden
	default:
		return CodeBadRequest
	}
}
