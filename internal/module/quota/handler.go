package quota

import (
	"errors"
	"net/http"
	"strconv"

	apperrors "github.com/aidash/server/internal/shared/errors"
	"github.com/aidash/server/internal/shared/response"
	"github.com/gin-gonic/gin"
)

// IdentityFunc resolves the user a request acts for. claimed is the user id
// supplied by the client, if any.
type IdentityFunc func(c *gin.Context, claimed string) (string, error)

// Handler exposes quota state over HTTP.
type Handler struct {
	gate     *Gate
	identity IdentityFunc
}

// NewHandler creates a quota handler.
func NewHandler(gate *Gate, identity IdentityFunc) *Handler {
	return &Handler{gate: gate, identity: identity}
}

// RegisterRoutes registers quota routes.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/usage", h.GetUsage)
}

// GetUsage returns the caller's quota summary without consuming a call.
//
//	@Summary		Get free tier usage
//	@Tags			Quota
//	@Produce		json
//	@Param			userId	query		string	false	"User ID when no session is present"
//	@Success		200		{object}	Summary
//	@Failure		401		{object}	response.ErrorResponse
//	@Router			/usage [get]
func (h *Handler) GetUsage(c *gin.Context) {
	userID, err := h.identity(c, c.Query("userId"))
	if err != nil {
		response.Fail(c, AppError(err))
		return
	}

	summary, err := h.gate.Usage(c.Request.Context(), userID)
	if err != nil {
		response.Fail(c, AppError(err))
		return
	}
	c.JSON(http.StatusOK, summary)
}

// Quota response headers set on admitted calls.
const (
	HeaderQuotaLimit     = "X-Quota-Limit"
	HeaderQuotaRemaining = "X-Quota-Remaining"
)

// SetHeaders reports the admitted result on the response.
func SetHeaders(c *gin.Context, result Result) {
	c.Header(HeaderQuotaLimit, strconv.FormatInt(result.Limit, 10))
	c.Header(HeaderQuotaRemaining, strconv.FormatInt(result.Remaining, 10))
}

// AppError maps gate errors to their HTTP form.
func AppError(err error) *apperrors.AppError {
	if appErr, ok := apperrors.As(err); ok {
		return appErr
	}
	switch {
	case errors.Is(err, ErrUnauthorized):
		return apperrors.Unauthorized("")
	case errors.Is(err, ErrInvalidUserID):
		return apperrors.BadRequest("Invalid user id")
	case errors.Is(err, ErrQuotaExceeded):
		return apperrors.QuotaExceeded()
	case errors.Is(err, ErrStorageFailure):
		return apperrors.StorageFailure(err)
	default:
		return apperrors.Internal("", err)
	}
}
