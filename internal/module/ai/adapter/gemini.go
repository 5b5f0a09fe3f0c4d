package adapter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// GeminiConfig configures the Gemini adapter.
type GeminiConfig struct {
	BaseURL string
	APIKey  string
	Model   string
}

// GeminiAdapter calls the Gemini generateContent API.
type GeminiAdapter struct {
	client  *http.Client
	baseURL string
	apiKey  string
	model   string
}

// NewGeminiAdapter creates a Gemini adapter.
func NewGeminiAdapter(client *http.Client, cfg GeminiConfig) *GeminiAdapter {
	if client == nil {
		client = http.DefaultClient
	}
	return &GeminiAdapter{
		client:  client,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
	}
}

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiContent struct {
	Role  string       `json:"role"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

type geminiError struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Generate sends the conversation, preceded by system as a user turn, and
// returns the text of the first candidate. An empty string means the model
// produced no text.
func (a *GeminiAdapter) Generate(ctx context.Context, system string, messages []Message) (string, error) {
	if a.apiKey == "" {
		return "", fmt.Errorf("gemini: %w", ErrNotConfigured)
	}

	body, err := json.Marshal(a.buildRequest(system, messages))
	if err != nil {
		return "", fmt.Errorf("marshal gemini request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent", a.baseURL, url.PathEscape(a.model))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create gemini request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	// The key goes in a header: transport errors quote the request URL.
	req.Header.Set("x-goog-api-key", a.apiKey)

	resp, err := a.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("gemini request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", mapGeminiError(resp)
	}

	var out geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("%w: decode gemini response: %v", ErrMalformed, err)
	}
	if len(out.Candidates) == 0 {
		return "", nil
	}

	var text strings.Builder
	for _, part := range out.Candidates[0].Content.Parts {
		text.WriteString(part.Text)
	}
	return text.String(), nil
}

func (a *GeminiAdapter) buildRequest(system string, messages []Message) geminiRequest {
	contents := make([]geminiContent, 0, len(messages)+1)
	if system != "" {
		contents = append(contents, geminiContent{
			Role:  RoleUser,
			Parts: []geminiPart{{Text: system}},
		})
	}
	for _, m := range messages {
		role := m.Role
		if role == RoleAssistant {
			role = RoleModel
		}
		if role != RoleModel {
			role = RoleUser
		}
		contents = append(contents, geminiContent{
			Role:  role,
			Parts: []geminiPart{{Text: m.Content}},
		})
	}
	return geminiRequest{Contents: contents}
}

func mapGeminiError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	var ge geminiError
	message := strings.TrimSpace(string(body))
	if json.Unmarshal(body, &ge) == nil && ge.Error.Message != "" {
		message = ge.Error.Message
	}

	return &Error{
		StatusCode: resp.StatusCode,
		Message:    message,
		Err:        sentinelForStatus(resp.StatusCode),
	}
}
