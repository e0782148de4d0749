package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/uniform-portal/internal/logger"
)

// ContextRequestIDKey ключ идентификатора запроса в gin.Context.
const ContextRequestIDKey = "requestID"

// RequestLogger присваивает запросу X-Request-ID и пишет строку access-лога.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if _, err := uuid.Parse(requestID); err != nil {
			requestID = uuid.NewString()
		}
		c.Set(ContextRequestIDKey, requestID)
		c.Header("X-Request-ID", requestID)

		start := time.Now()
		c.Next()

		fields := logrus.Fields{
			"request_id": requestID,
			"method":     c.Request.Method,
			"path":       c.FullPath(),
			"status":     c.Writer.Status(),
			"latency_ms": time.Since(start).Milliseconds(),
		}
		if userID := c.GetInt64(ContextUserIDKey); userID > 0 {
			fields["user_id"] = userID
		}

		entry := logger.L().WithFields(fields)
		if c.Writer.Status() >= 500 {
			entry.Warn("http: запрос завершился ошибкой")
			return
		}
		entry.Debug("http: запрос обработан")
	}
}
