package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/uniform-portal/internal/http/response"
	"github.com/ignatzorin/uniform-portal/internal/session"
)

// Context ключи для gin.Context.
const (
	ContextSessionKey = "session"
	ContextUserIDKey  = "userID"
	ContextRoleKey    = "role"
)

// SessionMiddleware восстанавливает сессию из access токена.
// Без валидной сессии клиент получает 401 с адресом страницы входа.
func SessionMiddleware(sessions *session.Manager, loginPath string) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		if auth == "" || !strings.HasPrefix(auth, "Bearer ") {
			response.Unauthorized(c, "требуется авторизация", loginPath)
			return
		}

		s, err := sessions.Parse(strings.TrimPrefix(auth, "Bearer "))
		if err != nil {
			response.Unauthorized(c, "сессия истекла или невалидна", loginPath)
			return
		}

		c.Set(ContextSessionKey, s)
		c.Set(ContextUserIDKey, s.UserID)
		c.Set(ContextRoleKey, s.Role)
		c.Request = c.Request.WithContext(session.WithSession(c.Request.Context(), s))
		c.Next()
	}
}

// RequireRole пропускает только пользователей с одной из ролей.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString(ContextRoleKey)
		for _, r := range roles {
			if role == r {
				c.Next()
				return
			}
		}
		response.Forbidden(c, "недостаточно прав")
	}
}
