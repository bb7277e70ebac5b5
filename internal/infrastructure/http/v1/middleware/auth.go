package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"balcao/internal/core/appctx"
	"balcao/internal/core/apperror"
	"balcao/internal/core/id"
	"balcao/internal/domain/auth"
)

// TokenValidator validates a bearer token and returns its claims.
type TokenValidator interface {
	ValidateToken(tokenString string) (*auth.Claims, error)
}

// Auth validates the bearer token and puts the operator into context.
func Auth(validator TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			_ = c.Error(apperror.NewUnauthorized("missing authorization header"))
			c.Abort()
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			_ = c.Error(apperror.NewUnauthorized("invalid authorization header format"))
			c.Abort()
			return
		}

		claims, err := validator.ValidateToken(parts[1])
		if err != nil {
			_ = c.Error(apperror.NewUnauthorized("invalid token"))
			c.Abort()
			return
		}

		userID, err := id.Parse(claims.UserID)
		if err != nil {
			_ = c.Error(apperror.NewUnauthorized("invalid token subject"))
			c.Abort()
			return
		}

		ctx := appctx.WithOperator(c.Request.Context(), appctx.Operator{
			UserID: userID,
			Name:   claims.Name,
			Role:   string(claims.Role),
		})
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// RequireCapability rejects operators whose role does not hold the capability.
func RequireCapability(capability auth.Capability) gin.HandlerFunc {
	return func(c *gin.Context) {
		op, ok := appctx.GetOperator(c.Request.Context())
		if !ok {
			_ = c.Error(apperror.NewUnauthorized("authentication required"))
			c.Abort()
			return
		}

		if !auth.Role(op.Role).Can(capability) {
			_ = c.Error(
				apperror.NewForbidden("operation not allowed for role").
					WithDetail("role", op.Role).
					WithDetail("capability", string(capability)),
			)
			c.Abort()
			return
		}

		c.Next()
	}
}
