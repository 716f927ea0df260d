package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/civic-backend/internal/identity"
	"github.com/ignatzorin/civic-backend/internal/interface/http/response"
	"github.com/ignatzorin/civic-backend/internal/pkg/apperror"
)

// Context ключи для gin.Context.
const (
	ContextUserIDKey = "userID"
	ContextRoleKey   = "role"
)

// AccessParser извлекает пользователя из access токена.
type AccessParser interface {
	ParseAccess(token string) (identity.Principal, error)
}

// AuthMiddleware проверяет JWT access токен.
func AuthMiddleware(tokens AccessParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		if auth == "" || !strings.HasPrefix(auth, "Bearer ") {
			response.Error(c, apperror.ErrUnauthorized)
			c.Abort()
			return
		}

		principal, err := tokens.ParseAccess(strings.TrimPrefix(auth, "Bearer "))
		if err != nil {
			response.Error(c, apperror.New(apperror.ErrCodeUnauthorized, "invalid access token"))
			c.Abort()
			return
		}

		c.Set(ContextUserIDKey, principal.UserID)
		c.Set(ContextRoleKey, principal.Role)
		c.Next()
	}
}

// RequireAdmin пропускает только пользователей с ролью admin.
// Ставится после AuthMiddleware.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString(ContextRoleKey) != identity.RoleAdmin {
			response.Error(c, apperror.ErrForbidden)
			c.Abort()
			return
		}
		c.Next()
	}
}
