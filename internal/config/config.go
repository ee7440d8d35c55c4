package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/xxxsen/common/logger"
)

type Config struct {
	Port          int              `json:"port"`
	Collection    string           `json:"collection"`
	LogConfig     logger.LogConfig `json:"log_config"`
	Database      DatabaseConfig   `json:"database"`
	AI            AIConfig         `json:"ai"`
	Retrieval     RetrievalConfig  `json:"retrieval"`
	Ingest        IngestConfig     `json:"ingest"`
	EmbedCache    EmbedCacheConfig `json:"embed_cache"`
	Jobs          JobsConfig       `json:"jobs"`
	CORSAllowlist []string         `json:"cors_allowlist"`
	RateLimit     RateLimitConfig  `json:"rate_limit"`
}

type DatabaseConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	DBName   string `json:"db_name"`
	SSLMode  string `json:"ssl_mode"`
	DSN      string `json:"dsn"`
}

// ProviderConfig binds one AI capability to a provider and model. APIKeyEnv
// names an environment variable whose value is injected into Data as
// api_key when the config file itself carries no key.
type ProviderConfig struct {
	Provider  string      `json:"provider"`
	Model     string      `json:"model"`
	APIKeyEnv string      `json:"api_key_env"`
	Data      interface{} `json:"data"`
}

// ProviderArgs returns the args map handed to the provider factory, with
// the api_key_env indirection resolved.
func (p ProviderConfig) ProviderArgs() interface{} {
	args, ok := p.Data.(map[string]interface{})
	if !ok || args == nil {
		args = map[string]interface{}{}
	}
	if p.APIKeyEnv != "" {
		if v, exists := args["api_key"]; !exists || v == "" {
			if key := os.Getenv(p.APIKeyEnv); key != "" {
				args["api_key"] = key
			}
		}
	}
	return args
}

type AIConfig struct {
	Generate      ProviderConfig `json:"generate"`
	Embed         ProviderConfig `json:"embed"`
	Timeout       int            `json:"timeout"`
	MaxInflight   int            `json:"max_inflight"`
	MaxInputChars int            `json:"max_input_chars"`
}

type RetrievalConfig struct {
	TopK int `json:"top_k"`
}

type IngestConfig struct {
	Source      SourceConfig `json:"source"`
	Concurrency int          `json:"concurrency"`
}

type SourceConfig struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type EmbedCacheConfig struct {
	MemorySize       int  `json:"memory_size"`
	MemoryTTLMinutes int  `json:"memory_ttl_minutes"`
	DBEnable         bool `json:"db_enable"`
}

type JobsConfig struct {
	Enable           bool   `json:"enable"`
	CacheCleanupSpec string `json:"cache_cleanup_spec"`
	CacheMaxAgeDays  int    `json:"cache_max_age_days"`
}

type RateLimitConfig struct {
	QPS   float64 `json:"qps"`
	Burst int     `json:"burst"`
}

func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var cfg Config
	if err := json.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if cfg.Port == 0 {
		return nil, fmt.Errorf("port is required")
	}
	if cfg.Database.DSN == "" {
		if cfg.Database.Host == "" || cfg.Database.User == "" || cfg.Database.DBName == "" {
			return nil, fmt.Errorf("database host/user/db_name are required when dsn is empty")
		}
		if cfg.Database.Port == 0 {
			cfg.Database.Port = 5432
		}
	}
	if cfg.Collection == "" {
		cfg.Collection = "docs"
	}
	if cfg.LogConfig.Level == "" {
		cfg.LogConfig.Level = "info"
	}
	if cfg.AI.Generate.Provider == "" {
		cfg.AI.Generate.Provider = "ollama"
	}
	if cfg.AI.Generate.Model == "" {
		cfg.AI.Generate.Model = "tinyllama"
	}
	if cfg.AI.Embed.Provider == "" {
		cfg.AI.Embed.Provider = "ollama"
	}
	if cfg.AI.Embed.Model == "" {
		cfg.AI.Embed.Model = "nomic-embed-text"
	}
	if cfg.AI.Timeout <= 0 {
		cfg.AI.Timeout = 60
	}
	if cfg.AI.MaxInflight <= 0 {
		cfg.AI.MaxInflight = 4
	}
	if cfg.Retrieval.TopK <= 0 {
		cfg.Retrieval.TopK = 1
	}
	if cfg.Ingest.Source.Type == "" {
		cfg.Ingest.Source.Type = "local"
	}
	if cfg.Ingest.Concurrency <= 0 {
		cfg.Ingest.Concurrency = 4
	}
	if cfg.EmbedCache.MemorySize < 0 {
		cfg.EmbedCache.MemorySize = 0
	} else if cfg.EmbedCache.MemorySize == 0 {
		cfg.EmbedCache.MemorySize = 2048
	}
	if cfg.EmbedCache.MemoryTTLMinutes <= 0 {
		cfg.EmbedCache.MemoryTTLMinutes = 120
	}
	if cfg.Jobs.CacheCleanupSpec == "" {
		cfg.Jobs.CacheCleanupSpec = "0 3 * * *"
	}
	if cfg.Jobs.CacheMaxAgeDays <= 0 {
		cfg.Jobs.CacheMaxAgeDays = 30
	}
	if cfg.RateLimit.QPS < 0 {
		return nil, fmt.Errorf("rate_limit.qps must not be negative")
	}
	if cfg.RateLimit.QPS > 0 && cfg.RateLimit.Burst <= 0 {
		cfg.RateLimit.Burst = int(cfg.RateLimit.QPS) * 2
		if cfg.RateLimit.Burst <= 0 {
			cfg.RateLimit.Burst = 1
		}
	}
	switch strings.ToLower(cfg.Ingest.Source.Type) {
	case "local", "s3":
	default:
		return nil, fmt.Errorf("ingest.source.type must be local or s3")
	}
	return &cfg, nil
}
