package adapter

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeminiAdapter_Generate(t *testing.T) {
	var got geminiRequest
	var gotPath, gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("x-goog-api-key")
		assert.Empty(t, r.URL.RawQuery)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"Hello "},{"text":"there"}]}}]}`))
	}))
	defer srv.Close()

	a := NewGeminiAdapter(srv.Client(), GeminiConfig{BaseURL: srv.URL + "/", APIKey: "k", Model: "gemini-2.0-flash"})
	text, err := a.Generate(context.Background(), "be nice", []Message{
		{Role: RoleUser, Content: "hi"},
		{Role: RoleAssistant, Content: "hey"},
		{Role: RoleUser, Content: "how are you"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Hello there", text)

	assert.Equal(t, "/models/gemini-2.0-flash:generateContent", gotPath)
	assert.Equal(t, "k", gotKey)
	require.Len(t, got.Contents, 4)
	assert.Equal(t, "user", got.Contents[0].Role)
	assert.Equal(t, "be nice", got.Contents[0].Parts[0].Text)
	assert.Equal(t, "model", got.Contents[2].Role)
}

func TestGeminiAdapter_EmptyCandidates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"candidates":[]}`))
	}))
	defer srv.Close()

	a := NewGeminiAdapter(srv.Client(), GeminiConfig{BaseURL: srv.URL, APIKey: "k", Model: "m"})
	text, err := a.Generate(context.Background(), "", []Message{{Role: RoleUser, Content: "hi"}})
	require.NoError(t, err)
	assert.Empty(t, text)
}

func TestGeminiAdapter_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{"rate limited", http.StatusTooManyRequests, `{}`, ErrRateLimited},
		{"bad key", http.StatusForbidden, `{"error":{"message":"API key not valid"}}`, ErrAuthFailed},
		{"bad request", http.StatusBadRequest, `{"error":{"message":"bad"}}`, ErrInvalidRequest},
		{"server error", http.StatusInternalServerError, `oops`, ErrUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			a := NewGeminiAdapter(srv.Client(), GeminiConfig{BaseURL: srv.URL, APIKey: "k", Model: "m"})
			_, err := a.Generate(context.Background(), "", []Message{{Role: RoleUser, Content: "hi"}})
			assert.ErrorIs(t, err, tt.want)

			var upstreamErr *Error
			require.ErrorAs(t, err, &upstreamErr)
			assert.Equal(t, tt.status, upstreamErr.StatusCode)
		})
	}

	t.Run("malformed body", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`not json`))
		}))
		defer srv.Close()

		a := NewGeminiAdapter(srv.Client(), GeminiConfig{BaseURL: srv.URL, APIKey: "k", Model: "m"})
		_, err := a.Generate(context.Background(), "", nil)
		assert.ErrorIs(t, err, ErrMalformed)
	})

	t.Run("transport failure does not leak key", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
		base := srv.URL
		srv.Close()

		a := NewGeminiAdapter(nil, GeminiConfig{BaseURL: base, APIKey: "SECRET-KEY-123", Model: "gemini-2.0-flash"})
		_, err := a.Generate(context.Background(), "", []Message{{Role: RoleUser, Content: "hi"}})
		require.Error(t, err)
		assert.NotContains(t, err.Error(), "SECRET-KEY-123")
	})

	t.Run("missing key", func(t *testing.T) {
		a := NewGeminiAdapter(nil, GeminiConfig{BaseURL: "http://unused", Model: "m"})
		_, err := a.Generate(context.Background(), "", nil)
		assert.ErrorIs(t, err, ErrNotConfigured)
	})
}

func TestRemoveBGAdapter(t *testing.T) {
	t.Run("returns png bytes", func(t *testing.T) {
		var got removeBGRequest
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/removebg", r.URL.Path)
			assert.Equal(t, "secret", r.Header.Get("X-Api-Key"))
			require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
			w.Header().Set("Content-Type", "image/png")
			_, _ = w.Write([]byte("PNGDATA"))
		}))
		defer srv.Close()

		a := NewRemoveBGAdapter(srv.Client(), RemoveBGConfig{BaseURL: srv.URL, APIKey: "secret"})
		out, err := a.RemoveBackground(context.Background(), []byte("raw"))
		require.NoError(t, err)
		assert.Equal(t, []byte("PNGDATA"), out)
		assert.Equal(t, base64.StdEncoding.EncodeToString([]byte("raw")), got.ImageFileB64)
		assert.Equal(t, "auto", got.Size)
	})

	t.Run("surfaces error title", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"errors":[{"title":"Could not identify foreground in image"}]}`))
		}))
		defer srv.Close()

		a := NewRemoveBGAdapter(srv.Client(), RemoveBGConfig{BaseURL: srv.URL, APIKey: "secret"})
		_, err := a.RemoveBackground(context.Background(), []byte("raw"))
		assert.ErrorIs(t, err, ErrInvalidRequest)

		var upstreamErr *Error
		require.ErrorAs(t, err, &upstreamErr)
		assert.Equal(t, "Could not identify foreground in image", upstreamErr.Message)
	})

	t.Run("missing key", func(t *testing.T) {
		a := NewRemoveBGAdapter(nil, RemoveBGConfig{BaseURL: "http://unused"})
		_, err := a.RemoveBackground(context.Background(), []byte("raw"))
		assert.ErrorIs(t, err, ErrNotConfigured)
	})
}

func TestPollinationsAdapter_ImageURL(t *testing.T) {
	a := NewPollinationsAdapter(PollinationsConfig{
		BaseURL: "https://image.pollinations.ai/prompt",
		Width:   512,
		Height:  512,
	})
	a.seed = func() int { return 42 }

	assert.Equal(t,
		"https://image.pollinations.ai/prompt/a%20red%20fox%20%26%20a%2Fcat%3F&seed=42&noLogo=true&width=512&height=512",
		a.ImageURL("a red fox & a/cat?"),
	)
}

func TestPollinationsAdapter_SeedRange(t *testing.T) {
	a := NewPollinationsAdapter(PollinationsConfig{BaseURL: "https://x/", Width: 1, Height: 1})
	for i := 0; i < 200; i++ {
		seed := a.seed()
		assert.GreaterOrEqual(t, seed, 1)
		assert.LessOrEqual(t, seed, MaxImageSeed)
	}
	assert.True(t, strings.HasPrefix(a.ImageURL("p"), "https://x/p&seed="))
}
