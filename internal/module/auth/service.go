package auth

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/aidash/server/internal/shared/metrics"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Session is a signed token for a logged in user.
type Session struct {
	User      *User
	Token     string
	ExpiresAt time.Time
}

// Service handles user registration, login and token verification.
type Service struct {
	users   UserRepository
	jwt     *JWTManager
	logger  *zap.Logger
	metrics *metrics.Metrics
}

// NewService creates a new auth service.
func NewService(users UserRepository, jwt *JWTManager, logger *zap.Logger, m *metrics.Metrics) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{users: users, jwt: jwt, logger: logger, metrics: m}
}

// Register creates a user with a bcrypt-hashed password.
func (s *Service) Register(ctx context.Context, req *RegisterRequest) (*User, error) {
	name := strings.TrimSpace(req.Name)
	email := normalizeEmail(req.Email)
	if name == "" || email == "" || req.Password == "" {
		return nil, ErrMissingFields
	}
	if !emailPattern.MatchString(email) {
		return nil, ErrInvalidEmail
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, ErrEmailAlreadyExists
	} else if !errors.Is(err, ErrUserNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &User{Name: name, Email: email, PasswordHash: string(hash)}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	s.record("register")
	s.logger.Info("user registered", zap.String("user_id", user.ID.String()))
	return user, nil
}

// Login verifies credentials and issues a session token.
func (s *Service) Login(ctx context.Context, req *LoginRequest) (*Session, error) {
	email := normalizeEmail(req.Email)
	if email == "" || req.Password == "" {
		return nil, ErrMissingFields
	}
	if !emailPattern.MatchString(email) {
		return nil, ErrInvalidEmail
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			s.record("login_failed")
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		s.record("login_failed")
		return nil, ErrInvalidCredentials
	}

	token, expiresAt, err := s.jwt.GenerateToken(user)
	if err != nil {
		return nil, err
	}

	s.record("login_success")
	return &Session{User: user, Token: token, ExpiresAt: expiresAt}, nil
}

// VerifyToken validates a session token.
func (s *Service) VerifyToken(token string) (*Claims, error) {
	return s.jwt.ValidateToken(token)
}

// Profile returns the user a token belongs to.
func (s *Service) Profile(ctx context.Context, userID string) (*User, error) {
	id, err := uuid.Parse(userID)
	if err != nil {
		return nil, ErrUserNotFound
	}
	return s.users.GetByID(ctx, id)
}

// RecordLogout counts a logout.
func (s *Service) RecordLogout() {
	s.record("logout")
}

func (s *Service) record(event string) {
	if s.metrics != nil {
		s.metrics.RecordAuthEvent(event)
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
