package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/uniform-portal/internal/config"
	"github.com/ignatzorin/uniform-portal/internal/http/handlers"
	"github.com/ignatzorin/uniform-portal/internal/models"
	"github.com/ignatzorin/uniform-portal/internal/paymentctx"
	"github.com/ignatzorin/uniform-portal/internal/service/workspace"
	"github.com/ignatzorin/uniform-portal/internal/session"
	"github.com/ignatzorin/uniform-portal/internal/ws"
)

const testSecret = "router-test-secret-at-least-32-chars"

func newTestRouter(t *testing.T) (*gin.Engine, *session.Manager) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		Env:             "test",
		AllowedOrigins:  []string{"http://localhost:3000"},
		LoginPath:       "/login",
		RateLimitLimit:  100,
		RateLimitPeriod: time.Minute,
	}
	sessions := session.NewManager(testSecret)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	hub := ws.NewHub(ctx)

	reg := workspace.NewRegistry(workspace.Deps{
		Payments:   paymentctx.NewMemoryStore(time.Minute),
		ReturnPath: "/school/payment/result",
	}, time.Hour)

	r := SetupRouter(cfg, sessions,
		handlers.NewAdminHandler(reg),
		handlers.NewDesignerHandler(reg),
		handlers.NewSchoolHandler(reg),
		handlers.NewWSHandler(hub, sessions, cfg.AllowedOrigins, cfg.LoginPath),
		handlers.NewHealthHandler(nil),
	)
	return r, sessions
}

func bearer(t *testing.T, sessions *session.Manager, userID int64, role string) string {
	t.Helper()
	token, err := sessions.Issue(session.Session{UserID: userID, Role: role}, time.Minute)
	require.NoError(t, err)
	return "Bearer " + token
}

func TestRouter_Health(t *testing.T) {
	r, _ := newTestRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestRouter_RequiresSession(t *testing.T) {
	r, _ := newTestRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/admin/reports", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRouter_RoleSeparation(t *testing.T) {
	r, sessions := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/reports", nil)
	req.Header.Set("Authorization", bearer(t, sessions, 3, models.RoleSchool))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)

	req = httptest.NewRequest(http.MethodPost, "/api/school/quotations/0/select", nil)
	req.Header.Set("Authorization", bearer(t, sessions, 3, models.RoleSchool))
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRouter_WebSocketRequiresToken(t *testing.T) {
	r, _ := newTestRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/ws", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
