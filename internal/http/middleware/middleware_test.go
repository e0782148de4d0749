package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/uniform-portal/internal/models"
	"github.com/ignatzorin/uniform-portal/internal/session"
)

const testSecret = "test-secret-at-least-32-characters-long"

func perform(r *gin.Engine, method, target string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestSessionMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	sessions := session.NewManager(testSecret)

	r := gin.New()
	r.GET("/me", SessionMiddleware(sessions, "/login"), func(c *gin.Context) {
		s, ok := session.FromContext(c.Request.Context())
		require.True(t, ok)
		c.JSON(http.StatusOK, gin.H{"user_id": c.GetInt64(ContextUserIDKey), "role": s.Role})
	})

	w := perform(r, http.MethodGet, "/me", nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	var body struct {
		Error struct {
			Redirect string `json:"redirect"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "/login", body.Error.Redirect)

	w = perform(r, http.MethodGet, "/me", map[string]string{"Authorization": "Bearer garbage"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	token, err := sessions.Issue(session.Session{UserID: 12, Role: models.RoleSchool}, time.Minute)
	require.NoError(t, err)

	w = perform(r, http.MethodGet, "/me", map[string]string{"Authorization": "Bearer " + token})
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user_id":12,"role":"school"}`, w.Body.String())
}

func TestRequireRole(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(ContextRoleKey, c.GetHeader("X-Role"))
		c.Next()
	})
	r.GET("/admin", RequireRole(models.RoleAdmin), func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusOK, perform(r, http.MethodGet, "/admin", map[string]string{"X-Role": "admin"}).Code)
	assert.Equal(t, http.StatusForbidden, perform(r, http.MethodGet, "/admin", map[string]string{"X-Role": "school"}).Code)
}

func TestIDValidator(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/orders/:id", IDValidator("id"), func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusOK, perform(r, http.MethodGet, "/orders/42", nil).Code)
	assert.Equal(t, http.StatusBadRequest, perform(r, http.MethodGet, "/orders/0", nil).Code)
	assert.Equal(t, http.StatusBadRequest, perform(r, http.MethodGet, "/orders/abc", nil).Code)
}

func TestRateLimitMiddleware_PerUser(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		if id := c.GetHeader("X-User"); id == "1" {
			c.Set(ContextUserIDKey, int64(1))
		} else if id == "2" {
			c.Set(ContextUserIDKey, int64(2))
		}
		c.Next()
	})
	r.Use(RateLimitMiddleware(1, time.Minute))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusOK, perform(r, http.MethodGet, "/", map[string]string{"X-User": "1"}).Code)
	assert.Equal(t, http.StatusTooManyRequests, perform(r, http.MethodGet, "/", map[string]string{"X-User": "1"}).Code)
	assert.Equal(t, http.StatusOK, perform(r, http.MethodGet, "/", map[string]string{"X-User": "2"}).Code)
}

func TestCORSMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(CORSMiddleware([]string{"http://localhost:3000"}))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := perform(r, http.MethodOptions, "/", map[string]string{"Origin": "http://localhost:3000"})
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))

	w = perform(r, http.MethodGet, "/", map[string]string{"Origin": "http://evil.example"})
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRequestLogger_AssignsRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestLogger())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(ContextRequestIDKey)) })

	w := perform(r, http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
	assert.Equal(t, w.Header().Get("X-Request-ID"), w.Body.String())
}
