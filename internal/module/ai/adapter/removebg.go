package adapter

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// RemoveBGConfig configures the remove.bg adapter.
type RemoveBGConfig struct {
	BaseURL string
	APIKey  string
}

// RemoveBGAdapter calls the remove.bg background removal API.
type RemoveBGAdapter struct {
	client  *http.Client
	baseURL string
	apiKey  string
}

// NewRemoveBGAdapter creates a remove.bg adapter.
func NewRemoveBGAdapter(client *http.Client, cfg RemoveBGConfig) *RemoveBGAdapter {
	if client == nil {
		client = http.DefaultClient
	}
	return &RemoveBGAdapter{
		client:  client,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
	}
}

type removeBGRequest struct {
	ImageFileB64 string `json:"image_file_b64"`
	Size         string `json:"size"`
}

type removeBGError struct {
	Errors []struct {
		Title string `json:"title"`
	} `json:"errors"`
}

// RemoveBackground uploads image and returns the cut-out PNG bytes.
func (a *RemoveBGAdapter) RemoveBackground(ctx context.Context, image []byte) ([]byte, error) {
	if a.apiKey == "" {
		return nil, fmt.Errorf("remove.bg: %w", ErrNotConfigured)
	}

	body, err := json.Marshal(removeBGRequest{
		ImageFileB64: base64.StdEncoding.EncodeToString(image),
		Size:         "auto",
	})
	if err != nil {
		return nil, fmt.Errorf("marshal remove.bg request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/removebg", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create remove.bg request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Api-Key", a.apiKey)

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("remove.bg request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, mapRemoveBGError(resp)
	}

	out, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read remove.bg response: %w", err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: empty remove.bg response", ErrMalformed)
	}
	return out, nil
}

func mapRemoveBGError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	var re removeBGError
	var message string
	if json.Unmarshal(body, &re) == nil && len(re.Errors) > 0 {
		message = re.Errors[0].Title
	}

	return &Error{
		StatusCode: resp.StatusCode,
		Message:    message,
		Err:        sentinelForStatus(resp.StatusCode),
	}
}
