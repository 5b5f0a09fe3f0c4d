package handler

import (
	"context"
	"errors"

	"github.com/aidash/server/internal/module/quota"
	"github.com/aidash/server/internal/shared/response"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Gate admits billable calls.
type Gate interface {
	CheckAndConsume(ctx context.Context, userID string) (quota.Result, error)
}

// admit resolves the caller and charges one call against their free limit.
// It writes the error response and returns false when the call must not proceed.
func admit(c *gin.Context, gate Gate, identity quota.IdentityFunc, claimed string, logger *zap.Logger) (string, bool) {
	userID, err := identity(c, claimed)
	if err != nil {
		response.Fail(c, quota.AppError(err))
		return "", false
	}

	result, err := gate.CheckAndConsume(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, quota.ErrQuotaExceeded) {
			quota.SetHeaders(c, result)
		}
		response.Fail(c, quota.AppError(err))
		return "", false
	}

	quota.SetHeaders(c, result)
	logger.Debug("billable call admitted",
		zap.String("user_id", userID),
		zap.String("path", c.FullPath()),
		zap.Int64("remaining", result.Remaining),
	)
	return userID, true
}
