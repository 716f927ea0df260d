package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/civic-backend/internal/interface/http/response"
)

// ErrorHandler обрабатывает ошибки, добавленные через c.Error, если
// обработчик сам не записал ответ. Внутренние причины только логируются.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() || len(c.Errors) == 0 {
			return
		}

		response.Error(c, c.Errors.Last().Err)
	}
}
