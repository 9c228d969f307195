package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"trackjoi/internal/apperror"
	"trackjoi/internal/model"
	"trackjoi/pkg/metrics"
	"trackjoi/pkg/util"
)

// MinPasswordLength is the shortest password accepted at registration.
const MinPasswordLength = 6

// bcrypt ignores input beyond 72 bytes and x/crypto rejects it outright.
const maxPasswordBytes = 72

// dummyHash is compared against when the email is unknown so that both login
// failure paths cost one bcrypt comparison.
var dummyHash, _ = util.HashPassword("trackjoi-timing-equaliser")

type UserStore interface {
	CreateUser(ctx context.Context, u *model.User) error
	FindActiveByEmail(ctx context.Context, email string) (*model.User, error)
	TouchLastLogin(ctx context.Context, userID int64) error
}

// Throttle counts failed logins per email. It may be nil.
type Throttle interface {
	Get(ctx context.Context, name string) int64
	Increment(ctx context.Context, name string) int64
	Reset(ctx context.Context, name string)
}

// Session is what register and login hand back to the caller.
type Session struct {
	Token string           `json:"token"`
	User  model.PublicUser `json:"user"`
}

type Service struct {
	users       UserStore
	tokens      *util.TokenIssuer
	throttle    Throttle
	maxAttempts int64
	logger      *zap.Logger
}

func NewService(users UserStore, tokens *util.TokenIssuer, logger *zap.Logger) *Service {
	return &Service{
		users:  users,
		tokens: tokens,
		logger: logger,
	}
}

// WithThrottle blocks an email after maxAttempts failed logins within the
// throttle's window.
func (s *Service) WithThrottle(t Throttle, maxAttempts int) *Service {
	s.throttle = t
	s.maxAttempts = int64(maxAttempts)
	return s
}

// Register creates a new user and opens a session for it.
func (s *Service) Register(ctx context.Context, email, password string) (*Session, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, apperror.Invalid("email", "email and password are required")
	}
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return nil, apperror.Invalid("password", fmt.Sprintf("password must be at least %d characters", MinPasswordLength))
	}
	if len(password) > maxPasswordBytes {
		return nil, apperror.Invalid("password", fmt.Sprintf("password must be at most %d bytes", maxPasswordBytes))
	}

	hash, err := util.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &model.User{
		Email:        email,
		PasswordHash: hash,
	}
	if err := s.users.CreateUser(ctx, u); err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			metrics.IncrementAuthAttempt("register", "conflict")
			return nil, err
		}
		metrics.IncrementAuthAttempt("register", "error")
		return nil, fmt.Errorf("create user: %w", err)
	}

	token, err := s.tokens.GenerateJWT(u.ID, u.Email)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	metrics.IncrementAuthAttempt("register", "success")
	s.logger.Info("User registered", zap.Int64("user_id", u.ID))
	return &Session{Token: token, User: model.PublicUser{ID: u.ID, Email: u.Email}}, nil
}

// Login checks credentials and opens a session. Unknown email and wrong
// password both yield apperror.ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, apperror.Invalid("email", "email and password are required")
	}

	if s.throttle != nil && s.maxAttempts > 0 && s.throttle.Get(ctx, email) >= s.maxAttempts {
		metrics.IncrementAuthAttempt("login", "throttled")
		s.logger.Warn("Login throttled", zap.String("email", email))
		return nil, apperror.ErrTooManyAttempts
	}

	u, err := s.users.FindActiveByEmail(ctx, email)
	if err != nil && !errors.Is(err, apperror.ErrNotFound) {
		return nil, fmt.Errorf("find user: %w", err)
	}

	hash := dummyHash
	if u != nil {
		hash = u.PasswordHash
	}
	if !util.CheckPassword(password, hash) || u == nil {
		s.recordFailure(ctx, email)
		return nil, apperror.ErrInvalidCredentials
	}

	if err := s.users.TouchLastLogin(ctx, u.ID); err != nil {
		return nil, fmt.Errorf("touch last login: %w", err)
	}

	token, err := s.tokens.GenerateJWT(u.ID, u.Email)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	if s.throttle != nil {
		s.throttle.Reset(ctx, email)
	}
	metrics.IncrementAuthAttempt("login", "success")
	s.logger.Info("User logged in", zap.Int64("user_id", u.ID))
	return &Session{Token: token, User: model.PublicUser{ID: u.ID, Email: u.Email}}, nil
}

// Verify resolves a bearer token into its claims: apperror.ErrUnauthenticated
// when absent, apperror.ErrForbidden when it cannot be trusted.
func (s *Service) Verify(token string) (*util.Claims, error) {
	claims, err := s.tokens.ParseJWT(token)
	if errors.Is(err, util.ErrMissingToken) {
		return nil, apperror.ErrUnauthenticated
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperror.ErrForbidden, err)
	}
	return claims, nil
}

func (s *Service) recordFailure(ctx context.Context, email string) {
	metrics.IncrementAuthAttempt("login", "invalid_credentials")
	if s.throttle != nil {
		s.throttle.Increment(ctx, email)
	}
}
