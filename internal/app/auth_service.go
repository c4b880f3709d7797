package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"chemxplore/internal/identity"
	"chemxplore/internal/model"
	"chemxplore/internal/pkg/jwtutil"
	"chemxplore/internal/repository"
)

const minPasswordLength = 6

// UserStore persists accounts. Create returns repository.ErrDuplicateEmail
// when the email is taken.
type UserStore interface {
	Create(user *model.User) error
	GetByEmail(email string) (*model.User, error)
	GetByID(id uint) (*model.User, error)
	GetByVerifyToken(token string) (*model.User, error)
	MarkConfirmed(id uint, at time.Time) error
}

// SessionStore tracks live session ids so that sign-out revokes a token
// before it expires.
type SessionStore interface {
	Put(ctx context.Context, sessionID string, userID uint, ttl time.Duration) error
	Exists(ctx context.Context, sessionID string) (bool, error)
	Delete(ctx context.Context, sessionID string) error
}

type AuthEventPublisher interface {
	Publish(ctx context.Context, event model.AuthEvent) error
}

type Mailer interface {
	SendVerification(ctx context.Context, email, link string) error
}

type AuthOptions struct {
	JWTSecret                string
	TokenTTL                 time.Duration
	RequireEmailConfirmation bool
	PublicURL                string
}

// AuthService is the identity backend: accounts, email verification and
// revocable sessions.
type AuthService struct {
	users    UserStore
	sessions SessionStore
	events   AuthEventPublisher
	mailer   Mailer
	opts     AuthOptions
	validate *validator.Validate
	logger   *slog.Logger
	now      func() time.Time
}

type SignUpInput struct {
	Email      string
	Password   string
	RedirectTo string
}

type LoginInput struct {
	Email    string
	Password string
}

func NewAuthService(
	users UserStore,
	sessions SessionStore,
	events AuthEventPublisher,
	mailer Mailer,
	opts AuthOptions,
	logger *slog.Logger,
) *AuthService {
	if opts.TokenTTL <= 0 {
		opts.TokenTTL = 2 * time.Hour
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthService{
		users:    users,
		sessions: sessions,
		events:   events,
		mailer:   mailer,
		opts:     opts,
		validate: validator.New(),
		logger:   logger,
		now:      time.Now,
	}
}

func (s *AuthService) SignUp(ctx context.Context, input SignUpInput) (*identity.SignUpResult, error) {
	email := strings.TrimSpace(strings.ToLower(input.Email))
	if err := s.validate.Var(email, "required,email"); err != nil {
		return nil, identity.ErrInvalidEmail
	}
	if len([]rune(input.Password)) < minPasswordLength {
		return nil, identity.ErrWeakPassword
	}

	existing, err := s.users.GetByEmail(email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, identity.ErrUserAlreadyRegistered
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password failed: %w", err)
	}

	user := &model.User{
		Email:        email,
		PasswordHash: string(hash),
	}
	if s.opts.RequireEmailConfirmation {
		user.VerifyToken = uuid.NewString()
	} else {
		confirmedAt := s.now()
		user.EmailConfirmedAt = &confirmedAt
	}
	if err := s.users.Create(user); err != nil {
		// A concurrent sign-up can win the race past GetByEmail.
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, identity.ErrUserAlreadyRegistered
		}
		return nil, err
	}
	s.publish(ctx, user, model.AuthEventSignedUp)

	result := &identity.SignUpResult{User: toIdentityUser(user)}
	if !s.opts.RequireEmailConfirmation {
		session, err := s.startSession(ctx, user)
		if err != nil {
			return nil, err
		}
		result.Session = session
		return result, nil
	}

	link := s.verifyLink(user.VerifyToken, input.RedirectTo)
	if s.mailer != nil {
		if err := s.mailer.SendVerification(ctx, user.Email, link); err != nil {
			s.logger.Error("send verification mail failed", "email", user.Email, "error", err)
		}
	}
	return result, nil
}

func (s *AuthService) SignIn(ctx context.Context, input LoginInput) (*identity.Session, error) {
	email := strings.TrimSpace(strings.ToLower(input.Email))
	if email == "" || input.Password == "" {
		return nil, identity.ErrInvalidCredentials
	}

	user, err := s.users.GetByEmail(email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, identity.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, identity.ErrInvalidCredentials
	}
	if s.opts.RequireEmailConfirmation && !user.Confirmed() {
		return nil, identity.ErrEmailNotConfirmed
	}

	return s.startSession(ctx, user)
}

// Lookup resolves an access token to its live session.
func (s *AuthService) Lookup(ctx context.Context, token string) (*identity.Session, error) {
	claims, err := s.parse(ctx, token)
	if err != nil {
		return nil, err
	}

	user, err := s.users.GetByID(claims.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, identity.ErrSessionMissing
	}

	expiresAt := claims.ExpiresAt.Time
	return &identity.Session{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresIn:   int(expiresAt.Sub(s.now()).Seconds()),
		ExpiresAt:   expiresAt,
		User:        toIdentityUser(user),
	}, nil
}

func (s *AuthService) SignOut(ctx context.Context, token string) error {
	claims, err := s.parse(ctx, token)
	if err != nil {
		return err
	}
	if err := s.sessions.Delete(ctx, claims.SessionID()); err != nil {
		return err
	}
	s.publish(ctx, &model.User{ID: claims.UserID, Email: claims.Email}, model.AuthEventSignedOut)
	return nil
}

// Verify confirms the email address owning the verification token.
func (s *AuthService) Verify(ctx context.Context, token string) (*identity.User, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, identity.ErrInvalidVerifyToken
	}
	user, err := s.users.GetByVerifyToken(token)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, identity.ErrInvalidVerifyToken
	}

	confirmedAt := s.now()
	if err := s.users.MarkConfirmed(user.ID, confirmedAt); err != nil {
		return nil, err
	}
	user.EmailConfirmedAt = &confirmedAt
	user.VerifyToken = ""
	s.publish(ctx, user, model.AuthEventUserUpdated)

	out := toIdentityUser(user)
	return &out, nil
}

// SafeRedirect keeps post-verification redirects on the public site.
func (s *AuthService) SafeRedirect(target string) string {
	home := strings.TrimRight(s.opts.PublicURL, "/") + "/"
	target = strings.TrimSpace(target)
	if target == "" {
		return home
	}
	parsed, err := url.Parse(target)
	if err != nil {
		return home
	}
	if !parsed.IsAbs() {
		if strings.HasPrefix(target, "/") && !strings.HasPrefix(target, "//") {
			return target
		}
		return home
	}
	public, err := url.Parse(s.opts.PublicURL)
	if err != nil || public.Host != parsed.Host || public.Scheme != parsed.Scheme {
		return home
	}
	return target
}

func (s *AuthService) startSession(ctx context.Context, user *model.User) (*identity.Session, error) {
	sessionID := uuid.NewString()
	token, expiresAt, err := jwtutil.GenerateToken(s.opts.JWTSecret, s.opts.TokenTTL, user.ID, user.Email, sessionID)
	if err != nil {
		return nil, err
	}
	if err := s.sessions.Put(ctx, sessionID, user.ID, s.opts.TokenTTL); err != nil {
		return nil, err
	}
	s.publish(ctx, user, model.AuthEventSignedIn)

	return &identity.Session{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresIn:   int(s.opts.TokenTTL.Seconds()),
		ExpiresAt:   expiresAt,
		User:        toIdentityUser(user),
	}, nil
}

func (s *AuthService) parse(ctx context.Context, token string) (*jwtutil.Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, identity.ErrSessionMissing
	}
	claims, err := jwtutil.ParseToken(s.opts.JWTSecret, token)
	if err != nil {
		if errors.Is(err, jwtutil.ErrInvalidToken) {
			return nil, identity.ErrSessionMissing
		}
		return nil, err
	}
	live, err := s.sessions.Exists(ctx, claims.SessionID())
	if err != nil {
		return nil, err
	}
	if !live {
		return nil, identity.ErrSessionMissing
	}
	return claims, nil
}

func (s *AuthService) verifyLink(token, redirectTo string) string {
	values := url.Values{}
	values.Set("token", token)
	values.Set("redirect_to", s.SafeRedirect(redirectTo))
	return strings.TrimRight(s.opts.PublicURL, "/") + identity.PathVerify + "?" + values.Encode()
}

func (s *AuthService) publish(ctx context.Context, user *model.User, kind model.AuthEventKind) {
	s.logger.Info("auth state change", "kind", kind, "user_id", user.ID)
	if s.events == nil {
		return
	}
	event := model.AuthEvent{
		UserID:    user.ID,
		Email:     user.Email,
		Kind:      kind,
		CreatedAt: s.now(),
	}
	if err := s.events.Publish(ctx, event); err != nil {
		s.logger.Error("publish auth event failed", "kind", kind, "error", err)
	}
}

func toIdentityUser(user *model.User) identity.User {
	return identity.User{
		ID:               user.ID,
		Email:            user.Email,
		EmailConfirmedAt: user.EmailConfirmedAt,
	}
}
