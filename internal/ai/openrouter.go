package ai

import (
	"strings"
)

const defaultOpenRouterBaseURL = "https://openrouter.ai/api/v1"

// openrouterConfig extends the openai-compatible config with the optional
// attribution headers openrouter uses for app rankings.
type openrouterConfig struct {
	APIKey      string `json:"api_key"`
	BaseURL     string `json:"base_url"`
	HTTPReferer string `json:"http_referer"`
	XTitle      string `json:"x_title"`
}

// openrouter is openai-compatible on the wire, so both the chat and embed
// sides ride the openai provider with a different default endpoint.
func createOpenRouterFactory(args interface{}) (IAIProvider, error) {
	cfg := &openrouterConfig{}
	if err := decodeConfig(args, cfg); err != nil {
		return nil, err
	}
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = defaultOpenRouterBaseURL
	}
	headers := make(map[string]string)
	if v := strings.TrimSpace(cfg.HTTPReferer); v != "" {
		headers["HTTP-Referer"] = v
	}
	if v := strings.TrimSpace(cfg.XTitle); v != "" {
		headers["X-Title"] = v
	}
	return &openAIProvider{
		name:    "openrouter",
		apiKey:  strings.TrimSpace(cfg.APIKey),
		baseURL: baseURL,
		headers: headers,
	}, nil
}

func init() {
	Register("openrouter", createOpenRouterFactory)
	RegisterEmbed("openrouter", createOpenAICompatEmbedFactory("openrouter", defaultOpenRouterBaseURL))
}
