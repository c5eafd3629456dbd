package ports

import (
	"context"

	"github.com/sweetshop/inventory-api/internal/core/domain"
)

// RegisterInput carries the registration payload. An empty Role means
// the default user role.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Role     string
}

// AuthResult is returned by both registration and login.
type AuthResult struct {
	User  domain.PublicUser
	Token string
}

type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*AuthResult, error)
	Login(ctx context.Context, email, password string) (*AuthResult, error)
}
