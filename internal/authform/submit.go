package authform

import (
	"context"

	"chemxplore/internal/identity"
)

// Authenticator is the slice of identity.Provider the form needs.
type Authenticator interface {
	SignInWithPassword(ctx context.Context, creds identity.Credentials) (*identity.Session, error)
	SignUp(ctx context.Context, creds identity.Credentials, opts identity.SignUpOptions) (*identity.SignUpResult, error)
}

// Submit validates the form and, when valid, calls the provider. It returns
// the notice to show, or nil when there is nothing to say (invalid fields or
// a successful sign-in). Session state is left to the provider's auth-state
// notifications.
func (f *Form) Submit(ctx context.Context, auth Authenticator, redirectTo string) *Notice {
	if !f.Validate() {
		return nil
	}
	creds := identity.Credentials{Email: f.Email, Password: f.Password}

	if f.Mode == ModeSignIn {
		if _, err := auth.SignInWithPassword(ctx, creds); err != nil {
			n := signInNotice(err)
			return &n
		}
		return nil
	}

	result, err := auth.SignUp(ctx, creds, identity.SignUpOptions{EmailRedirectTo: redirectTo})
	if err != nil {
		n := signUpNotice(err)
		return &n
	}

	f.Mode = ModeSignIn
	f.Errors = nil
	f.ConfirmPassword = ""
	if result != nil && result.Session != nil {
		n := noticeAccountActive
		return &n
	}
	n := noticeAccountCreated
	return &n
}
