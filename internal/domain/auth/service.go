package auth

import (
	"context"
	"time"

	"golang.org/x/crypto/bcrypt"

	"balcao/internal/core/apperror"
	"balcao/internal/core/id"
	"balcao/pkg/logger"
)

const (
	maxLoginAttempts = 5
	lockDuration     = 15 * time.Minute
)

// Service provides authentication operations.
type Service struct {
	repo Repository
	jwt  *JWTService
}

// NewService creates a new auth service.
func NewService(repo Repository, jwt *JWTService) *Service {
	return &Service{repo: repo, jwt: jwt}
}

// Register creates a user with a bcrypt-hashed password.
func (s *Service) Register(ctx context.Context, username, name, password string, role Role) (*User, error) {
	if len(password) < 6 {
		return nil, apperror.NewValidation("password must be at least 6 characters").
			WithDetail("field", "password")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperror.NewInternal(err)
	}

	u := NewUser(username, name, string(hash), role)
	if err := u.Validate(ctx); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}

	logger.Info(ctx, "user registered", "user_id", u.ID, "username", username, "role", role)
	return u, nil
}

// Login verifies credentials and issues a token. Failed attempts count
// toward a temporary lockout.
func (s *Service) Login(ctx context.Context, creds Credentials) (*Token, *User, error) {
	u, err := s.repo.GetByUsername(ctx, creds.Username)
	if err != nil {
		// Same answer for unknown user and wrong password.
		return nil, nil, apperror.NewUnauthorized("invalid credentials")
	}

	if err := u.CanLogin(); err != nil {
		return nil, nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(creds.Password)); err != nil {
		u.RecordFailedLogin(maxLoginAttempts, lockDuration)
		if err := s.repo.Update(ctx, u); err != nil {
			logger.Warn(ctx, "record failed login", "user_id", u.ID, "error", err)
		}
		return nil, nil, apperror.NewUnauthorized("invalid credentials")
	}

	u.RecordSuccessfulLogin()
	if err := s.repo.Update(ctx, u); err != nil {
		logger.Warn(ctx, "record successful login", "user_id", u.ID, "error", err)
	}

	tokenString, expiresAt, err := s.jwt.GenerateAccessToken(u)
	if err != nil {
		return nil, nil, apperror.NewInternal(err)
	}

	logger.Info(ctx, "user logged in", "user_id", u.ID, "role", u.Role)
	return &Token{
		AccessToken: tokenString,
		ExpiresAt:   expiresAt,
		TokenType:   "Bearer",
	}, u, nil
}

// ValidateToken verifies a bearer token and returns its claims.
func (s *Service) ValidateToken(tokenString string) (*Claims, error) {
	return s.jwt.ValidateToken(tokenString)
}

// GetByID retrieves a user.
func (s *Service) GetByID(ctx context.Context, userID id.ID) (*User, error) {
	return s.repo.GetByID(ctx, userID)
}

// List retrieves all users.
func (s *Service) List(ctx context.Context) ([]*User, error) {
	return s.repo.List(ctx)
}
