package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/ignatzorin/uniform-portal/internal/http/response"
	"github.com/ignatzorin/uniform-portal/internal/session"
	"github.com/ignatzorin/uniform-portal/internal/ws"
)

// WSHandler отвечает за установку WebSocket соединений.
type WSHandler struct {
	hub       *ws.Hub
	sessions  *session.Manager
	loginPath string
	upgrader  websocket.Upgrader
}

// NewWSHandler создаёт новый хэндлер. Пустой Origin (не браузер) разрешён.
func NewWSHandler(hub *ws.Hub, sessions *session.Manager, allowedOrigins []string, loginPath string) *WSHandler {
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		allowed[origin] = struct{}{}
	}

	return &WSHandler{
		hub:       hub,
		sessions:  sessions,
		loginPath: loginPath,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true
				}
				_, ok := allowed[origin]
				return ok
			},
		},
	}
}

// Handle обслуживает GET /api/ws?token=...
func (h *WSHandler) Handle(c *gin.Context) {
	rawToken := c.Query("token")
	if rawToken == "" {
		response.Unauthorized(c, "access токен обязателен", h.loginPath)
		return
	}

	s, err := h.sessions.Parse(rawToken)
	if err != nil {
		response.Unauthorized(c, "невалидный access токен", h.loginPath)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade уже ответил клиенту.
		return
	}

	ws.NewClient(conn, h.hub, s.UserID).Run()
}
