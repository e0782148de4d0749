package middleware

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/uniform-portal/internal/http/response"
	"github.com/ignatzorin/uniform-portal/internal/pkg/apperror"
)

// IDValidator проверяет, что параметр пути - положительный числовой идентификатор.
// Использование: router.GET("/orders/:id/quotations", IDValidator("id"), handler.ListQuotations)
func IDValidator(paramName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.Param(paramName)
		if raw == "" {
			response.Abort(c, apperror.Validation(paramName, "параметр "+paramName+" обязателен"))
			return
		}

		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			response.Abort(c, apperror.Validation(paramName, "параметр "+paramName+" должен быть положительным числом"))
			return
		}

		c.Next()
	}
}
