package llm

import (
	"context"

	"github.com/aidash/server/internal/module/ai/adapter"
	"github.com/aidash/server/internal/module/ai/prompt"
)

// Generator produces a model reply for a conversation.
type Generator interface {
	Generate(ctx context.Context, system string, messages []adapter.Message) (string, error)
}

// ChatService provides chat completion for a product capability.
type ChatService interface {
	// Chat returns the assistant reply for messages under capability's system prompt.
	Chat(ctx context.Context, capability prompt.Capability, messages []adapter.Message) (string, error)
}

// Compile-time interface assertions
var (
	_ ChatService = (*Service)(nil)
	_ Generator   = (*adapter.GeminiAdapter)(nil)
)
