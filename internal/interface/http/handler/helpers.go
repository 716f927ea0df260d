package handler

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ignatzorin/civic-backend/internal/http/middleware"
	"github.com/ignatzorin/civic-backend/internal/identity"
)

var errUserNotFound = errors.New("user_id не найден в контексте")

func getUserID(c *gin.Context) (uuid.UUID, error) {
	userIDValue, exists := c.Get(middleware.ContextUserIDKey)
	if !exists {
		return uuid.Nil, errUserNotFound
	}

	userID, ok := userIDValue.(uuid.UUID)
	if !ok || userID == uuid.Nil {
		return uuid.Nil, errUserNotFound
	}

	return userID, nil
}

func isAdmin(c *gin.Context) bool {
	return c.GetString(middleware.ContextRoleKey) == identity.RoleAdmin
}
