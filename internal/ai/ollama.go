package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const defaultOllamaHost = "http://localhost:11434"

type ollamaConfig struct {
	Host string `json:"host"`
}

type ollamaProvider struct {
	host string
}

type ollamaGenerateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type ollamaGenerateResponse struct {
	Response string `json:"response"`
}

type ollamaEmbedRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

type ollamaEmbedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

func (p *ollamaProvider) Name() string {
	return "ollama"
}

func (p *ollamaProvider) Generate(ctx context.Context, model string, prompt string) (string, error) {
	endpoint := strings.TrimRight(p.host, "/") + "/api/generate"
	reqBody := ollamaGenerateRequest{
		Model:  model,
		Prompt: prompt,
		Stream: false,
	}
	data, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("ollama request failed: %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}
	var out ollamaGenerateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	return strings.TrimSpace(out.Response), nil
}

type ollamaEmbedProvider struct {
	host string
}

func (p *ollamaEmbedProvider) Name() string {
	return "ollama"
}

func (p *ollamaEmbedProvider) Embed(ctx context.Context, model string, text string, taskType string) ([]float32, error) {
	endpoint := strings.TrimRight(p.host, "/") + "/api/embed"
	reqBody := ollamaEmbedRequest{
		Model: model,
		Input: text,
	}
	data, err := json.Marshal(reqBody)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("ollama request failed: %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}
	var out ollamaEmbedResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	if len(out.Embeddings) == 0 || len(out.Embeddings[0]) == 0 {
		return nil, fmt.Errorf("ollama response has no embeddings")
	}
	return out.Embeddings[0], nil
}

func createOllamaFactory(args interface{}) (IAIProvider, error) {
	cfg := &ollamaConfig{}
	if err := decodeConfig(args, cfg); err != nil {
		return nil, err
	}
	host := strings.TrimSpace(cfg.Host)
	if host == "" {
		host = defaultOllamaHost
	}
	return &ollamaProvider{host: host}, nil
}

func createOllamaEmbedFactory(args interface{}) (IEmbedProvider, error) {
	cfg := &ollamaConfig{}
	if err := decodeConfig(args, cfg); err != nil {
		return nil, err
	}
	host := strings.TrimSpace(cfg.Host)
	if host == "" {
		host = defaultOllamaHost
	}
	return &ollamaEmbedProvider{host: host}, nil
}

func init() {
	Register("ollama", createOllamaFactory)
	RegisterEmbed("ollama", createOllamaEmbedFactory)
}
