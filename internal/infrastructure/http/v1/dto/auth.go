package dto

import (
	"balcao/internal/domain/auth"
)

// LoginRequest carries operator credentials.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// RegisterUserRequest creates a till operator.
type RegisterUserRequest struct {
	Username string    `json:"username" binding:"required"`
	Name     string    `json:"name" binding:"required"`
	Password string    `json:"password" binding:"required"`
	Role     auth.Role `json:"role" binding:"required"`
}

// LoginResponse carries the issued token and the operator's profile.
type LoginResponse struct {
	Token *auth.Token `json:"token"`
	User  *auth.User  `json:"user"`
}
