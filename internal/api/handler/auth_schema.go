package handler

import (
	"github.com/sweetshop/inventory-api/internal/core/domain"
	"github.com/sweetshop/inventory-api/internal/core/ports"
)

// Field rules for registration live in the auth service so that every
// failure is reported with the same messages.
type registerRequest struct {
	Name     string `json:"name"     example:"Asha"`
	Email    string `json:"email"    example:"asha@example.com"`
	Password string `json:"password" example:"secret123"`
	Role     string `json:"role,omitempty" enums:"user,admin"`
}

type loginRequest struct {
	Email    string `json:"email"    example:"asha@example.com"`
	Password string `json:"password" example:"secret123"`
}

type authData struct {
	User  domain.PublicUser `json:"user"`
	Token string            `json:"token"`
}

func toAuthData(r *ports.AuthResult) authData {
	return authData{User: r.User, Token: r.Token}
}

// authEnvelope documents the success body of register and login.
type authEnvelope struct {
	Success bool     `json:"success" example:"true"`
	Message string   `json:"message"`
	Data    authData `json:"data"`
}

// errorEnvelope documents every 4xx/5xx body.
type errorEnvelope struct {
	Success bool              `json:"success" example:"false"`
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors,omitempty"`
}
