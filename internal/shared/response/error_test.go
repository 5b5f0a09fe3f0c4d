package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/aidash/server/internal/shared/errors"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func run(fn func(c *gin.Context)) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	fn(c)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var body ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestFail_AppError(t *testing.T) {
	w := run(func(c *gin.Context) { Fail(c, apperrors.QuotaExceeded()) })

	assert.Equal(t, http.StatusForbidden, w.Code)
	body := decode(t, w)
	assert.Equal(t, "Free limit reached, please upgrade", body.Error)
	assert.Equal(t, "QUOTA_EXCEEDED", body.Code)
}

func TestFail_PlainErrorHidesDetails(t *testing.T) {
	w := run(func(c *gin.Context) { Fail(c, errors.New("pq: password authentication failed")) })

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	body := decode(t, w)
	assert.Equal(t, "Internal server error", body.Error)
	assert.NotContains(t, w.Body.String(), "pq:")
}

func TestHandleError(t *testing.T) {
	errMissing := errors.New("missing")
	mappings := []ErrorMapping{
		{Err: errMissing, Status: http.StatusNotFound, Code: "NOT_FOUND", Message: "User not found"},
	}

	w := run(func(c *gin.Context) {
		assert.True(t, HandleError(c, errMissing, mappings))
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "User not found", decode(t, w).Error)

	w = run(func(c *gin.Context) {
		HandleErrorWithDefault(c, errors.New("other"), mappings)
	})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestUnauthorized_DefaultMessage(t *testing.T) {
	w := run(func(c *gin.Context) { Unauthorized(c, "") })
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Unauthorized request", decode(t, w).Error)
}
