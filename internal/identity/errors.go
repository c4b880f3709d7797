package identity

import "net/http"

// Error is a provider error. Two errors match under errors.Is when their
// messages are equal, so errors decoded from the wire match the sentinels.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Message == e.Message
}

var (
	ErrInvalidCredentials    = &Error{Status: http.StatusBadRequest, Message: "Invalid login credentials"}
	ErrEmailNotConfirmed     = &Error{Status: http.StatusBadRequest, Message: "Email not confirmed"}
	ErrUserAlreadyRegistered = &Error{Status: http.StatusUnprocessableEntity, Message: "User already registered"}
	ErrInvalidEmail          = &Error{Status: http.StatusBadRequest, Message: "Unable to validate email address: invalid format"}
	ErrWeakPassword          = &Error{Status: http.StatusUnprocessableEntity, Message: "Password should be at least 6 characters"}
	ErrSessionMissing        = &Error{Status: http.StatusUnauthorized, Message: "Auth session missing!"}
	ErrInvalidVerifyToken    = &Error{Status: http.StatusForbidden, Message: "Email link is invalid or has expired"}
)
