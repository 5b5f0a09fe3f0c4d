package auth

import (
	"strings"

	apperrors "github.com/aidash/server/internal/shared/errors"
	"github.com/aidash/server/internal/shared/requestctx"
	"github.com/aidash/server/internal/shared/response"
	"github.com/gin-gonic/gin"
)

const (
	// UserIDKey is the gin context key for the authenticated user.
	UserIDKey = "user_id"
	// EmailKey is the gin context key for the authenticated email.
	EmailKey = "email"
	// TokenCookie is the session cookie name.
	TokenCookie = "token"
)

// TokenVerifier validates session tokens.
type TokenVerifier interface {
	VerifyToken(token string) (*Claims, error)
}

// Identity returns a middleware that reads a session token from the
// Authorization header or the token cookie. With required set, requests
// without a valid token are rejected; otherwise they pass through anonymously.
func Identity(verifier TokenVerifier, required bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := tokenFromRequest(c)
		if token == "" {
			if required {
				response.Unauthorized(c, "")
				c.Abort()
				return
			}
			c.Next()
			return
		}

		claims, err := verifier.VerifyToken(token)
		if err != nil {
			if required {
				response.Unauthorized(c, "Invalid token")
				c.Abort()
				return
			}
			// A stale cookie must not block anonymous use.
			c.Next()
			return
		}

		c.Set(UserIDKey, claims.UserID)
		c.Set(EmailKey, claims.Email)
		c.Request = c.Request.WithContext(requestctx.WithUserID(c.Request.Context(), claims.UserID))
		c.Next()
	}
}

func tokenFromRequest(c *gin.Context) string {
	if header := c.GetHeader("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
	}
	if cookie, err := c.Cookie(TokenCookie); err == nil {
		return cookie
	}
	return ""
}

// GetUserID returns the authenticated user ID, or "".
func GetUserID(c *gin.Context) string {
	return c.GetString(UserIDKey)
}

// Resolver decides which user a billable request acts for.
type Resolver struct {
	requireSession bool
}

// NewResolver creates a resolver. With requireSession set, only the
// session user is accepted and a body user id alone is rejected.
func NewResolver(requireSession bool) *Resolver {
	return &Resolver{requireSession: requireSession}
}

// Resolve returns the acting user. The session user wins; a claimed id
// that differs from it is rejected.
func (r *Resolver) Resolve(c *gin.Context, claimed string) (string, error) {
	claimed = strings.TrimSpace(claimed)
	session := GetUserID(c)

	switch {
	case session != "" && claimed != "" && claimed != session:
		return "", unauthorized(ErrIdentityMismatch)
	case session != "":
		return session, nil
	case r.requireSession, claimed == "":
		return "", unauthorized(ErrUnauthorized)
	default:
		return claimed, nil
	}
}

func unauthorized(cause error) error {
	err := apperrors.Unauthorized("")
	err.Err = cause
	return err
}
