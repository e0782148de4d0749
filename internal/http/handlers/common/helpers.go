package common

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/uniform-portal/internal/http/middleware"
	"github.com/ignatzorin/uniform-portal/internal/pkg/apperror"
	"github.com/ignatzorin/uniform-portal/internal/session"
)

// ErrUserNotFound сессия не найдена в контексте.
var ErrUserNotFound = errors.New("пользователь не найден в контексте")

// CurrentSession извлекает сессию, восстановленную SessionMiddleware.
func CurrentSession(c *gin.Context) (session.Session, error) {
	raw, exists := c.Get(middleware.ContextSessionKey)
	if !exists {
		return session.Session{}, ErrUserNotFound
	}

	s, ok := raw.(session.Session)
	if !ok || s.UserID <= 0 {
		return session.Session{}, ErrUserNotFound
	}

	return s, nil
}

// CurrentUserID извлекает идентификатор пользователя из контекста.
func CurrentUserID(c *gin.Context) (int64, error) {
	raw, exists := c.Get(middleware.ContextUserIDKey)
	if !exists {
		return 0, ErrUserNotFound
	}

	userID, ok := raw.(int64)
	if !ok || userID <= 0 {
		return 0, ErrUserNotFound
	}

	return userID, nil
}

// ParseIDParam читает положительный числовой идентификатор из пути.
func ParseIDParam(c *gin.Context, paramName string) (int64, error) {
	return parseID(c.Param(paramName), paramName)
}

// ParseIDQuery читает положительный числовой идентификатор из строки запроса.
func ParseIDQuery(c *gin.Context, key string) (int64, error) {
	return parseID(c.Query(key), key)
}

func parseID(raw, name string) (int64, error) {
	if raw == "" {
		return 0, apperror.Validation(name, "параметр "+name+" обязателен")
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperror.Validation(name, "параметр "+name+" должен быть положительным числом")
	}
	return id, nil
}

// BindJSON разбирает тело запроса. Ошибка разбора возвращается как ошибка валидации.
func BindJSON(c *gin.Context, req interface{}) error {
	if err := c.ShouldBindJSON(req); err != nil {
		return apperror.Wrap(err, apperror.ErrCodeValidation, "некорректное тело запроса")
	}
	return nil
}
