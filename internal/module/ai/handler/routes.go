package handler

import (
	"github.com/aidash/server/internal/module/ai/llm"
	"github.com/aidash/server/internal/module/quota"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handlers holds all AI handlers.
type Handlers struct {
	Chat  *ChatHandler
	Media *MediaHandler
}

// NewHandlers creates all AI handlers.
func NewHandlers(
	gate Gate,
	identity quota.IdentityFunc,
	chatService llm.ChatService,
	mediaService MediaService,
	maxUploadBytes int64,
	logger *zap.Logger,
) *Handlers {
	return &Handlers{
		Chat:  NewChatHandler(gate, identity, chatService, logger),
		Media: NewMediaHandler(gate, identity, mediaService, maxUploadBytes, logger),
	}
}

// RegisterRoutes registers all AI routes.
func (h *Handlers) RegisterRoutes(r *gin.RouterGroup) {
	h.Chat.RegisterRoutes(r)
	h.Media.RegisterRoutes(r)
}
