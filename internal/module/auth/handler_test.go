package auth

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newAuthRouter(t *testing.T) (*gin.Engine, *Service) {
	t.Helper()
	s := newTestService(t)
	h := NewHandler(s, CookieConfig{MaxAge: 24 * time.Hour}, zap.NewNop())

	r := gin.New()
	api := r.Group("/api")
	h.RegisterRoutes(api)
	protected := api.Group("")
	protected.Use(Identity(s, true))
	h.RegisterProtectedRoutes(protected)
	return r, s
}

func postJSON(r http.Handler, path string, body any) *httptest.ResponseRecorder {
	b, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHandler_RegisterLoginProfile(t *testing.T) {
	r, _ := newAuthRouter(t)

	w := postJSON(r, "/api/auth/register", RegisterRequest{Name: "Ada", Email: "ada@example.com", Password: "pw"})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), "User registered successfully")
	assert.NotContains(t, w.Body.String(), "pw")

	w = postJSON(r, "/api/auth/register", RegisterRequest{Name: "Ada", Email: "ada@example.com", Password: "pw"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "Email already in use")

	w = postJSON(r, "/api/auth/login", LoginRequest{Email: "ada@example.com", Password: "pw"})
	require.Equal(t, http.StatusOK, w.Code)

	var login struct {
		Token string        `json:"token"`
		User  *UserResponse `json:"user"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &login))
	require.NotEmpty(t, login.Token)

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, TokenCookie, cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)
	assert.Equal(t, 86400, cookies[0].MaxAge)

	t.Run("profile with bearer token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/user/profile", nil)
		req.Header.Set("Authorization", "Bearer "+login.Token)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), login.User.ID)
	})

	t.Run("profile with cookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/user/profile", nil)
		req.AddCookie(cookies[0])
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("profile without token", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/user/profile", nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("profile with bad token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/user/profile", nil)
		req.Header.Set("Authorization", "Bearer nope")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestHandler_LoginFailures(t *testing.T) {
	r, _ := newAuthRouter(t)
	postJSON(r, "/api/auth/register", RegisterRequest{Name: "Ada", Email: "ada@example.com", Password: "pw"})

	w := postJSON(r, "/api/auth/login", LoginRequest{Email: "ada@example.com", Password: "bad"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid credentials")

	w = postJSON(r, "/api/auth/login", LoginRequest{Email: "bad", Password: "pw"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid email format")
}

func TestHandler_Logout(t *testing.T) {
	r, _ := newAuthRouter(t)

	w := postJSON(r, "/api/auth/logout", nil)
	require.Equal(t, http.StatusOK, w.Code)

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, TokenCookie, cookies[0].Name)
	assert.Empty(t, cookies[0].Value)
	assert.Less(t, cookies[0].MaxAge, 0)
}
