package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOpenAIGenerate(t *testing.T) {
	var gotAuth string
	var gotBody openAIChatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		require.Equal(t, "/chat/completions", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"content": " hi there "}},
			},
		})
	}))
	defer server.Close()

	p, err := NewProvider("openai", map[string]interface{}{
		"api_key":  "sk-test",
		"base_url": server.URL,
	})
	require.NoError(t, err)

	out, err := p.Generate(context.Background(), "gpt-4o-mini", "hello")
	require.NoError(t, err)
	require.Equal(t, "hi there", out)
	require.Equal(t, "Bearer sk-test", gotAuth)
	require.Equal(t, "gpt-4o-mini", gotBody.Model)
	require.Len(t, gotBody.Messages, 1)
	require.Equal(t, "user", gotBody.Messages[0].Role)
	require.Equal(t, "hello", gotBody.Messages[0].Content)
}

func TestOpenAIEmbed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/embeddings", r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"data": []map[string]interface{}{
				{"embedding": []float32{0.5, 0.5}},
			},
		})
	}))
	defer server.Close()

	p, err := NewEmbedProvider("openai", map[string]interface{}{
		"api_key":  "sk-test",
		"base_url": server.URL,
	})
	require.NoError(t, err)

	vec, err := p.Embed(context.Background(), "text-embedding-3-small", "text", "")
	require.NoError(t, err)
	require.Equal(t, []float32{0.5, 0.5}, vec)
}

func TestOpenAIMissingKeyUnavailable(t *testing.T) {
	p, err := NewProvider("openai", map[string]interface{}{})
	require.NoError(t, err)
	_, err = p.Generate(context.Background(), "m", "q")
	require.ErrorIs(t, err, ErrUnavailable)

	e, err := NewEmbedProvider("openai", map[string]interface{}{})
	require.NoError(t, err)
	_, err = e.Embed(context.Background(), "m", "text", "")
	require.ErrorIs(t, err, ErrUnavailable)
}

func TestOpenRouterAttributionHeaders(t *testing.T) {
	var gotReferer, gotTitle string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotReferer = r.Header.Get("HTTP-Referer")
		gotTitle = r.Header.Get("X-Title")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"content": "ok"}},
			},
		})
	}))
	defer server.Close()

	p, err := NewProvider("openrouter", map[string]interface{}{
		"api_key":      "k",
		"base_url":     server.URL,
		"http_referer": "https://example.com",
		"x_title":      "askdocs",
	})
	require.NoError(t, err)
	require.Equal(t, "openrouter", p.Name())

	out, err := p.Generate(context.Background(), "meta-llama/llama-3-8b", "q")
	require.NoError(t, err)
	require.Equal(t, "ok", out)
	require.Equal(t, "https://example.com", gotReferer)
	require.Equal(t, "askdocs", gotTitle)
}
