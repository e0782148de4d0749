package middleware

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/uniform-portal/internal/http/response"
	"github.com/ignatzorin/uniform-portal/internal/logger"
	"github.com/ignatzorin/uniform-portal/internal/pkg/apperror"
)

// ErrorHandler отвечает на ошибки, добавленные через c.Error, если обработчик сам не ответил.
// Внутренние ошибки маскируются, ошибки приложения передаются клиенту как есть.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() || len(c.Errors) == 0 {
			return
		}

		err := c.Errors.Last().Err
		entry := logger.L().WithFields(logrus.Fields{
			"error":      err.Error(),
			"path":       c.Request.URL.Path,
			"method":     c.Request.Method,
			"request_id": c.GetString(ContextRequestIDKey),
		})

		var appErr *apperror.AppError
		if errors.As(err, &appErr) && appErr.HTTPStatus < 500 {
			entry.Debug("Request error")
		} else {
			entry.Error("Request error")
		}

		response.Error(c, err)
	}
}
