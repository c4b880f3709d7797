// Package authform holds the sign-in / sign-up form: local validation,
// submission through the identity provider and the notices shown afterwards.
package authform

import (
	"errors"

	"github.com/go-playground/validator/v10"
)

type Mode int

const (
	ModeSignIn Mode = iota
	ModeSignUp
)

func (m Mode) String() string {
	if m == ModeSignUp {
		return "signup"
	}
	return "signin"
}

// ParseMode maps the form's mode field; anything but "signup" is sign-in.
func ParseMode(s string) Mode {
	if s == "signup" {
		return ModeSignUp
	}
	return ModeSignIn
}

const (
	FieldEmail           = "email"
	FieldPassword        = "password"
	FieldConfirmPassword = "confirmPassword"
)

const (
	msgInvalidEmail     = "Please enter a valid email address"
	msgShortPassword    = "Password must be at least 6 characters"
	msgPasswordMismatch = "Passwords don't match"
)

// FieldErrors maps a field key to its message.
type FieldErrors map[string]string

type signInFields struct {
	Email    string `validate:"required,email"`
	Password string `validate:"min=6"`
}

type signUpFields struct {
	Email           string `validate:"required,email"`
	Password        string `validate:"min=6"`
	ConfirmPassword string `validate:"eqfield=Password"`
}

var fieldKeys = map[string]string{
	"Email":           FieldEmail,
	"Password":        FieldPassword,
	"ConfirmPassword": FieldConfirmPassword,
}

var fieldMessages = map[string]string{
	FieldEmail:           msgInvalidEmail,
	FieldPassword:        msgShortPassword,
	FieldConfirmPassword: msgPasswordMismatch,
}

var validate = validator.New()

type Form struct {
	Mode            Mode
	Email           string
	Password        string
	ConfirmPassword string
	Errors          FieldErrors
}

func New() *Form {
	return &Form{Mode: ModeSignIn}
}

// Toggle switches between sign-in and sign-up and clears field errors.
func (f *Form) Toggle() {
	if f.Mode == ModeSignIn {
		f.Mode = ModeSignUp
	} else {
		f.Mode = ModeSignIn
	}
	f.Errors = nil
}

// Validate checks the fields for the current mode and records the result in
// f.Errors. It reports whether the form may be submitted.
func (f *Form) Validate() bool {
	var target interface{}
	if f.Mode == ModeSignUp {
		target = signUpFields{Email: f.Email, Password: f.Password, ConfirmPassword: f.ConfirmPassword}
	} else {
		target = signInFields{Email: f.Email, Password: f.Password}
	}

	f.Errors = fieldErrors(validate.Struct(target))
	return len(f.Errors) == 0
}

func fieldErrors(err error) FieldErrors {
	if err == nil {
		return nil
	}
	var invalid validator.ValidationErrors
	if !errors.As(err, &invalid) {
		return FieldErrors{FieldEmail: msgInvalidEmail}
	}

	out := make(FieldErrors, len(invalid))
	for _, fe := range invalid {
		key, ok := fieldKeys[fe.Field()]
		if !ok {
			continue
		}
		out[key] = fieldMessages[key]
	}
	return out
}
