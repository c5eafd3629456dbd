package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/sweetshop/inventory-api/internal/core/domain"
	"github.com/sweetshop/inventory-api/internal/core/ports"
)

const minPasswordLength = 6

var fieldValidator = validator.New()

// AuthService implements registration and login.
type AuthService struct {
	repo             ports.AuthRepository
	hasher           ports.PasswordHasher
	tokens           ports.TokenIssuer
	allowAdminSignup bool
	metrics          ports.AuthMetrics
	log              zerolog.Logger
}

// AuthOption customises an AuthService.
type AuthOption func(*AuthService)

// WithAdminSignup controls whether callers may self-assign the admin role
// at registration. It is allowed by default.
func WithAdminSignup(allowed bool) AuthOption {
	return func(s *AuthService) { s.allowAdminSignup = allowed }
}

// WithAuthMetrics attaches a metrics recorder; the default records nothing.
func WithAuthMetrics(m ports.AuthMetrics) AuthOption {
	return func(s *AuthService) { s.metrics = m }
}

// WithAuthLogger attaches a logger; the default discards everything.
func WithAuthLogger(log zerolog.Logger) AuthOption {
	return func(s *AuthService) { s.log = log }
}

func NewAuthService(repo ports.AuthRepository, hasher ports.PasswordHasher, tokens ports.TokenIssuer, opts ...AuthOption) *AuthService {
	s := &AuthService{
		repo:             repo,
		hasher:           hasher,
		tokens:           tokens,
		allowAdminSignup: true,
		metrics:          nopMetrics{},
		log:              zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NormalizeEmail is the canonical form emails are stored and looked up in.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *AuthService) Register(ctx context.Context, in ports.RegisterInput) (*ports.AuthResult, error) {
	name := strings.TrimSpace(in.Name)
	email := NormalizeEmail(in.Email)
	role := strings.TrimSpace(in.Role)
	if role == "" {
		role = domain.RoleUser
	}

	if err := validateRegistration(name, email, in.Password, role); err != nil {
		s.metrics.AuthAttempt("register", ports.ResultInvalid)
		return nil, err
	}
	if role == domain.RoleAdmin && !s.allowAdminSignup {
		s.metrics.AuthAttempt("register", ports.ResultInvalid)
		return nil, domain.ErrAdminSignupDisabled
	}

	existing, err := s.repo.FindByEmail(ctx, email)
	switch {
	case err == nil && existing != nil:
		s.metrics.AuthAttempt("register", ports.ResultDuplicate)
		return nil, domain.ErrUserExists
	case err != nil && !errors.Is(err, domain.ErrUserNotFound):
		s.metrics.AuthAttempt("register", ports.ResultError)
		return nil, fmt.Errorf("register: %w", err)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("register: hash password: %w", err)
	}

	now := time.Now().UTC()
	created, err := s.repo.Create(ctx, &domain.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		if errors.Is(err, domain.ErrUserExists) {
			s.metrics.AuthAttempt("register", ports.ResultDuplicate)
			return nil, err
		}
		s.metrics.AuthAttempt("register", ports.ResultError)
		return nil, fmt.Errorf("register: %w", err)
	}

	token, err := s.tokens.Issue(created.Identity())
	if err != nil {
		return nil, fmt.Errorf("register: issue token: %w", err)
	}

	s.metrics.AuthAttempt("register", ports.ResultOK)
	s.log.Info().Str("user_id", created.ID).Str("role", created.Role).Msg("user registered")

	return &ports.AuthResult{User: created.Public(), Token: token}, nil
}

// Login never tells an unknown email apart from a wrong password.
func (s *AuthService) Login(ctx context.Context, email, password string) (*ports.AuthResult, error) {
	email = NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, domain.ErrMissingFields
	}

	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			s.metrics.AuthAttempt("login", ports.ResultInvalid)
			return nil, domain.ErrInvalidCredentials
		}
		s.metrics.AuthAttempt("login", ports.ResultError)
		return nil, fmt.Errorf("login: %w", err)
	}

	if !s.hasher.Compare(user.PasswordHash, password) {
		s.metrics.AuthAttempt("login", ports.ResultInvalid)
		return nil, domain.ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user.Identity())
	if err != nil {
		return nil, fmt.Errorf("login: issue token: %w", err)
	}

	s.metrics.AuthAttempt("login", ports.ResultOK)
	return &ports.AuthResult{User: user.Public(), Token: token}, nil
}

func validateRegistration(name, email, password, role string) error {
	fields := make(map[string]string)
	if name == "" {
		fields["name"] = "Name is required"
	}
	if email == "" {
		fields["email"] = "Email is required"
	} else if fieldValidator.Var(email, "email") != nil {
		fields["email"] = "Please provide a valid email"
	}
	if password == "" {
		fields["password"] = "Password is required"
	} else if len(password) < minPasswordLength {
		fields["password"] = "Password must be at least 6 characters"
	}
	if !domain.IsValidRole(role) {
		fields["role"] = "Role must be either user or admin"
	}
	if len(fields) > 0 {
		return &domain.ValidationError{Fields: fields}
	}
	return nil
}
