package handler

import (
	"net/http"
	"strings"

	"github.com/aidash/server/internal/module/ai/llm"
	"github.com/aidash/server/internal/module/ai/prompt"
	"github.com/aidash/server/internal/module/quota"
	"github.com/aidash/server/internal/shared/response"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ChatHandler serves the chat capabilities.
type ChatHandler struct {
	gate        Gate
	identity    quota.IdentityFunc
	chatService llm.ChatService
	logger      *zap.Logger
}

// NewChatHandler creates a new chat handler.
func NewChatHandler(gate Gate, identity quota.IdentityFunc, chatService llm.ChatService, logger *zap.Logger) *ChatHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChatHandler{
		gate:        gate,
		identity:    identity,
		chatService: chatService,
		logger:      logger,
	}
}

// RegisterRoutes registers chat routes.
func (h *ChatHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/conversation", h.Capability(prompt.CapabilityChat))
	r.POST("/code", h.Capability(prompt.CapabilityCode))
	r.POST("/codeReview", h.Capability(prompt.CapabilityCodeReview))
	r.POST("/ai-funbot", h.Capability(prompt.CapabilityFunBot))
	r.POST("/coach-ai", h.Capability(prompt.CapabilityCoach))
}

// Capability returns the handler for one chat capability.
//
//	@Summary		Chat with an AI capability
//	@Description	Charges one free call, then relays the conversation to the model
//	@Tags			AI
//	@Accept			json
//	@Produce		json
//	@Param			request	body		ChatRequest	true	"Conversation"
//	@Success		200		{object}	ChatResponse
//	@Failure		400		{object}	response.ErrorResponse	"Invalid request"
//	@Failure		401		{object}	response.ErrorResponse	"Unauthorized"
//	@Failure		403		{object}	response.ErrorResponse	"Free limit reached"
//	@Failure		500		{object}	response.ErrorResponse	"Internal server error"
//	@Router			/conversation [post]
//	@Router			/code [post]
//	@Router			/codeReview [post]
//	@Router			/ai-funbot [post]
//	@Router			/coach-ai [post]
func (h *ChatHandler) Capability(capability prompt.Capability) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ChatRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, "Invalid input")
			return
		}

		messages := req.conversation()
		if len(messages) == 0 {
			response.BadRequest(c, "Messages array is required.")
			return
		}
		for _, m := range messages {
			if strings.TrimSpace(m.Content) == "" {
				response.BadRequest(c, "Message content is required.")
				return
			}
		}

		if _, ok := admit(c, h.gate, h.identity, req.UserID, h.logger); !ok {
			return
		}

		content, err := h.chatService.Chat(c.Request.Context(), capability, messages)
		if err != nil {
			response.Fail(c, err)
			return
		}

		c.JSON(http.StatusOK, ChatResponse{Content: content})
	}
}
