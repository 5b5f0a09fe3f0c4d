package handler

import "github.com/aidash/server/internal/module/ai/adapter"

// ChatRequest is the body of the chat capability routes.
type ChatRequest struct {
	UserID   string            `json:"userId"`
	Messages []adapter.Message `json:"messages"`
	// NewMessages is accepted by the coach route.
	NewMessages []adapter.Message `json:"newMessages,omitempty"`
}

// conversation returns the submitted turns, preferring newMessages.
func (r *ChatRequest) conversation() []adapter.Message {
	if len(r.NewMessages) > 0 {
		return r.NewMessages
	}
	return r.Messages
}

// ChatResponse carries the assistant reply.
type ChatResponse struct {
	Content string `json:"content"`
}

// ImageRequest is the body of the image generation route.
type ImageRequest struct {
	UserID string `json:"userId"`
	Prompt string `json:"prompt"`
}

// ImageResponse carries the generated image URL.
type ImageResponse struct {
	URL string `json:"url"`
}

// RemoveBackgroundResponse carries the processed image URL.
type RemoveBackgroundResponse struct {
	ImageURL string `json:"imageUrl"`
}
