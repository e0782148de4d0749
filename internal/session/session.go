// Package session описывает типизированную сессию пользователя, восстанавливаемую из JWT.
package session

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/ignatzorin/uniform-portal/internal/models"
)

var (
	// ErrMissing сессия отсутствует.
	ErrMissing = errors.New("session: сессия отсутствует")
	// ErrInvalid токен не прошёл проверку или содержит неполные данные.
	ErrInvalid = errors.New("session: сессия невалидна")
)

// Session текущий пользователь, доступный всем обработчикам без обращения к бэкенду.
type Session struct {
	UserID      int64  `json:"user_id"`
	Role        string `json:"role"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	AvatarURL   string `json:"avatar_url,omitempty"`
	AccessToken string `json:"-"`
}

// HasRole проверяет роль пользователя.
func (s Session) HasRole(role string) bool {
	return s.Role == role
}

type claims struct {
	Role   string `json:"role"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Avatar string `json:"avatar,omitempty"`
	jwt.RegisteredClaims
}

// Manager проверяет токены, выданные бэкендом маркетплейса.
type Manager struct {
	secret []byte
}

// NewManager создаёт менеджер с общим секретом подписи.
func NewManager(secret string) *Manager {
	return &Manager{secret: []byte(secret)}
}

// Parse восстанавливает сессию из access токена.
func (m *Manager) Parse(token string) (Session, error) {
	if token == "" {
		return Session{}, ErrMissing
	}

	parsed, err := jwt.ParseWithClaims(token, &claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("неожиданный алгоритм подписи %v", t.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		return Session{}, fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	c, ok := parsed.Claims.(*claims)
	if !ok || !parsed.Valid {
		return Session{}, ErrInvalid
	}

	userID, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil || userID <= 0 {
		return Session{}, fmt.Errorf("%w: некорректный sub", ErrInvalid)
	}
	if _, ok := models.ValidRoles[c.Role]; !ok {
		return Session{}, fmt.Errorf("%w: неизвестная роль %q", ErrInvalid, c.Role)
	}

	return Session{
		UserID:      userID,
		Role:        c.Role,
		Name:        c.Name,
		Email:       c.Email,
		AvatarURL:   c.Avatar,
		AccessToken: token,
	}, nil
}

// Issue подписывает токен для сессии. Используется в тестах и локальной разработке.
func (m *Manager) Issue(s Session, ttl time.Duration) (string, error) {
	now := time.Now()
	c := claims{
		Role:   s.Role,
		Name:   s.Name,
		Email:  s.Email,
		Avatar: s.AvatarURL,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(s.UserID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(m.secret)
}

type ctxKey struct{}

// WithSession кладёт сессию в контекст.
func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// FromContext достаёт сессию из контекста.
func FromContext(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(ctxKey{}).(Session)
	return s, ok
}

// BearerToken возвращает токен пользователя для исходящих запросов.
func BearerToken(ctx context.Context) string {
	if s, ok := FromContext(ctx); ok {
		return s.AccessToken
	}
	return ""
}
