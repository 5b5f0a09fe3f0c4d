package auth

import (
	"net/http"
	"time"

	"github.com/aidash/server/internal/shared/response"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// CookieConfig controls the session cookie.
type CookieConfig struct {
	MaxAge time.Duration
	Secure bool
}

// Handler handles HTTP requests for authentication.
type Handler struct {
	service *Service
	cookie  CookieConfig
	logger  *zap.Logger
}

// NewHandler creates a new auth handler.
func NewHandler(service *Service, cookie CookieConfig, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cookie.MaxAge <= 0 {
		cookie.MaxAge = 24 * time.Hour
	}
	return &Handler{service: service, cookie: cookie, logger: logger}
}

// RegisterRoutes registers the public auth routes.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	auth := r.Group("/auth")
	{
		auth.POST("/register", h.Register)
		auth.POST("/login", h.Login)
		auth.POST("/logout", h.Logout)
	}
}

// RegisterProtectedRoutes registers routes that require a session.
func (h *Handler) RegisterProtectedRoutes(r *gin.RouterGroup) {
	r.GET("/user/profile", h.Profile)
}

var errorMappings = []response.ErrorMapping{
	{Err: ErrMissingFields, Status: http.StatusBadRequest, Code: "INVALID_INPUT", Message: "All fields are required"},
	{Err: ErrInvalidEmail, Status: http.StatusBadRequest, Code: "INVALID_INPUT", Message: "Invalid email format"},
	{Err: ErrEmailAlreadyExists, Status: http.StatusConflict, Code: "CONFLICT", Message: "Email already in use"},
	{Err: ErrInvalidCredentials, Status: http.StatusUnauthorized, Code: "UNAUTHORIZED", Message: "Invalid credentials"},
	{Err: ErrUserNotFound, Status: http.StatusNotFound, Code: "NOT_FOUND", Message: "User not found"},
}

// Register handles user registration.
//
//	@Summary		Register new user
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		RegisterRequest	true	"Registration request"
//	@Success		201		{object}	map[string]interface{}
//	@Failure		400		{object}	response.ErrorResponse
//	@Failure		409		{object}	response.ErrorResponse
//	@Router			/auth/register [post]
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	user, err := h.service.Register(c.Request.Context(), &req)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": "User registered successfully",
		"user":    user.ToResponse(),
	})
}

// Login handles password login and sets the session cookie.
//
//	@Summary		Log in
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		LoginRequest	true	"Login request"
//	@Success		200		{object}	map[string]interface{}
//	@Failure		401		{object}	response.ErrorResponse
//	@Router			/auth/login [post]
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	session, err := h.service.Login(c.Request.Context(), &req)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(TokenCookie, session.Token, int(h.cookie.MaxAge.Seconds()), "/", "", h.cookie.Secure, true)
	c.JSON(http.StatusOK, gin.H{
		"success":   "Logged in successfully",
		"user":      session.User.ToResponse(),
		"token":     session.Token,
		"expiresAt": session.ExpiresAt,
	})
}

// Logout clears the session cookie.
//
//	@Summary	Log out
//	@Tags		Auth
//	@Produce	json
//	@Success	200	{object}	map[string]string
//	@Router		/auth/logout [post]
func (h *Handler) Logout(c *gin.Context) {
	h.service.RecordLogout()
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(TokenCookie, "", -1, "/", "", h.cookie.Secure, true)
	c.JSON(http.StatusOK, gin.H{"success": "Logged out successfully"})
}

// Profile returns the current user.
//
//	@Summary	Get current user
//	@Tags		Auth
//	@Produce	json
//	@Security	BearerAuth
//	@Success	200	{object}	map[string]interface{}
//	@Failure	401	{object}	response.ErrorResponse
//	@Failure	404	{object}	response.ErrorResponse
//	@Router		/user/profile [get]
func (h *Handler) Profile(c *gin.Context) {
	userID := GetUserID(c)
	if userID == "" {
		response.Unauthorized(c, "")
		return
	}

	user, err := h.service.Profile(c.Request.Context(), userID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user.ToResponse()})
}

func (h *Handler) fail(c *gin.Context, err error) {
	if response.HandleError(c, err, errorMappings) {
		return
	}
	h.logger.Error("auth request failed", zap.String("path", c.FullPath()), zap.Error(err))
	response.InternalError(c, "")
}
