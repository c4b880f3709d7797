package authform

import (
	"errors"
	"strings"

	"chemxplore/internal/identity"
)

// Notice is the transient message shown after a submission.
type Notice struct {
	Title       string
	Description string
	Destructive bool
}

var (
	noticeLoginFailed = Notice{
		Title:       "Login Failed",
		Description: "Invalid email or password. Please try again.",
		Destructive: true,
	}
	noticeNotVerified = Notice{
		Title:       "Email Not Verified",
		Description: "Please check your email and verify your account first.",
		Destructive: true,
	}
	noticeAccountExists = Notice{
		Title:       "Account Exists",
		Description: "An account with this email already exists. Try logging in instead.",
		Destructive: true,
	}
	noticeAccountCreated = Notice{
		Title:       "Account Created!",
		Description: "Please check your email to verify your account.",
	}
	noticeAccountActive = Notice{
		Title:       "Account Created!",
		Description: "You are now signed in.",
	}
	noticeUnexpected = Notice{
		Title:       "Error",
		Description: "An unexpected error occurred. Please try again.",
		Destructive: true,
	}
)

// signInNotice classifies a sign-in failure by the provider message.
func signInNotice(err error) Notice {
	var providerErr *identity.Error
	if !errors.As(err, &providerErr) {
		return noticeUnexpected
	}
	switch {
	case strings.Contains(providerErr.Message, "Invalid login credentials"):
		return noticeLoginFailed
	case strings.Contains(providerErr.Message, "Email not confirmed"):
		return noticeNotVerified
	default:
		return Notice{Title: "Error", Description: providerErr.Message, Destructive: true}
	}
}

func signUpNotice(err error) Notice {
	var providerErr *identity.Error
	if !errors.As(err, &providerErr) {
		return noticeUnexpected
	}
	if strings.Contains(providerErr.Message, "already registered") {
		return noticeAccountExists
	}
	return Notice{Title: "Signup Failed", Description: providerErr.Message, Destructive: true}
}
