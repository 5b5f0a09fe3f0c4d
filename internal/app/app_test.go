package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aidash/server/internal/module/quota"
	"github.com/aidash/server/internal/shared/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testConfig = `
database:
  driver: sqlite
  path: "file::memory:"
quota:
  free_limit: 2
  backend: sql
auth:
  jwt_secret: test-secret
log:
  level: error
metrics:
  namespace: aidash
`

func newTestApp(t *testing.T) *App {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testConfig), 0o600))

	cfg, err := config.LoadFile(path)
	require.NoError(t, err)

	a, err := New(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(a.Stop)
	return a
}

type client struct {
	t      *testing.T
	app    *App
	cookie *http.Cookie
}

func (c *client) do(method, path, body string) *httptest.ResponseRecorder {
	c.t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if c.cookie != nil {
		req.AddCookie(c.cookie)
	}
	w := httptest.NewRecorder()
	c.app.Router().ServeHTTP(w, req)
	return w
}

func TestApp_Health(t *testing.T) {
	a := newTestApp(t)
	c := &client{t: t, app: a}

	w := c.do(http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, float64(2), body["freeLimit"])
	assert.Contains(t, body["upstreams"], "gemini")
}

func TestApp_SessionQuotaFlow(t *testing.T) {
	a := newTestApp(t)
	c := &client{t: t, app: a}

	w := c.do(http.MethodPost, "/api/auth/register", `{"name":"Ada","email":"ada@example.com","password":"hunter22"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = c.do(http.MethodPost, "/api/auth/login", `{"email":"ada@example.com","password":"hunter22"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	for _, ck := range w.Result().Cookies() {
		if ck.Name == "token" {
			c.cookie = ck
		}
	}
	require.NotNil(t, c.cookie)

	var login struct {
		User struct {
			ID string `json:"id"`
		} `json:"user"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &login))
	userID := login.User.ID
	require.NotEmpty(t, userID)

	// The session user is charged even without a body userId.
	for i := 0; i < 2; i++ {
		w = c.do(http.MethodPost, "/api/image", `{"prompt":"a lighthouse"}`)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Contains(t, w.Body.String(), "image.pollinations.ai/prompt/a%20lighthouse")
	}

	w = c.do(http.MethodPost, "/api/image", `{"prompt":"a lighthouse"}`)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "Free limit reached, please upgrade")

	w = c.do(http.MethodGet, "/api/usage", "")
	require.Equal(t, http.StatusOK, w.Code)
	var summary quota.Summary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &summary))
	assert.Equal(t, quota.Summary{UserID: userID, UsageCount: 2, Limit: 2, Remaining: 0, Exhausted: true}, summary)

	// A body userId that disagrees with the session is rejected.
	w = c.do(http.MethodPost, "/api/image", `{"userId":"someone-else","prompt":"x"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = c.do(http.MethodGet, "/api/user/profile", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ada@example.com")
}

func TestApp_AnonymousClaimedUser(t *testing.T) {
	a := newTestApp(t)
	c := &client{t: t, app: a}

	w := c.do(http.MethodPost, "/api/image", `{"userId":"user_abc","prompt":"fox"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "1", w.Header().Get(quota.HeaderQuotaRemaining))

	w = c.do(http.MethodPost, "/api/image", `{"userId":"","prompt":"fox"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = c.do(http.MethodGet, "/api/user/profile", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestApp_LimitHotReload(t *testing.T) {
	a := newTestApp(t)
	c := &client{t: t, app: a}

	for i := 0; i < 2; i++ {
		require.Equal(t, http.StatusOK, c.do(http.MethodPost, "/api/image", `{"userId":"u1","prompt":"p"}`).Code)
	}
	require.Equal(t, http.StatusForbidden, c.do(http.MethodPost, "/api/image", `{"userId":"u1","prompt":"p"}`).Code)

	a.Gate().SetLimit(3)
	assert.Equal(t, http.StatusOK, c.do(http.MethodPost, "/api/image", `{"userId":"u1","prompt":"p"}`).Code)
}

func TestApp_Metrics(t *testing.T) {
	a := newTestApp(t)
	c := &client{t: t, app: a}

	require.Equal(t, http.StatusOK, c.do(http.MethodPost, "/api/image", `{"userId":"u1","prompt":"p"}`).Code)

	w := c.do(http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `aidash_quota_decisions_total{outcome="admitted"} 1`)
}

func TestApp_SwaggerDoc(t *testing.T) {
	a := newTestApp(t)
	c := &client{t: t, app: a}

	w := c.do(http.MethodGet, "/swagger/doc.json", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"/remove-background"`)
	assert.Contains(t, w.Body.String(), `"basePath": "/api"`)
}
