package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, `{
		"port": 8000,
		"database": {"host": "localhost", "user": "u", "db_name": "d"}
	}`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 8000, cfg.Port)
	require.Equal(t, "docs", cfg.Collection)
	require.Equal(t, "info", cfg.LogConfig.Level)
	require.Equal(t, 5432, cfg.Database.Port)
	require.Equal(t, "ollama", cfg.AI.Generate.Provider)
	require.Equal(t, "tinyllama", cfg.AI.Generate.Model)
	require.Equal(t, "ollama", cfg.AI.Embed.Provider)
	require.Equal(t, "nomic-embed-text", cfg.AI.Embed.Model)
	require.Equal(t, 60, cfg.AI.Timeout)
	require.Equal(t, 4, cfg.AI.MaxInflight)
	require.Equal(t, 1, cfg.Retrieval.TopK)
	require.Equal(t, "local", cfg.Ingest.Source.Type)
	require.Equal(t, 4, cfg.Ingest.Concurrency)
	require.Equal(t, 2048, cfg.EmbedCache.MemorySize)
	require.Equal(t, 120, cfg.EmbedCache.MemoryTTLMinutes)
	require.Equal(t, "0 3 * * *", cfg.Jobs.CacheCleanupSpec)
	require.Equal(t, 30, cfg.Jobs.CacheMaxAgeDays)
}

func TestLoadMissingPort(t *testing.T) {
	path := writeConfig(t, `{"database": {"host": "h", "user": "u", "db_name": "d"}}`)
	_, err := Load(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "port is required")
}

func TestLoadMissingDatabase(t *testing.T) {
	path := writeConfig(t, `{"port": 8000, "database": {"host": "h"}}`)
	_, err := Load(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "db_name")
}

func TestLoadDSNSkipsFieldChecks(t *testing.T) {
	path := writeConfig(t, `{
		"port": 8000,
		"database": {"dsn": "postgres://u:p@h:5432/d?sslmode=disable"}
	}`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "postgres://u:p@h:5432/d?sslmode=disable", cfg.Database.DSN)
}

func TestLoadBadSourceType(t *testing.T) {
	path := writeConfig(t, `{
		"port": 8000,
		"database": {"host": "h", "user": "u", "db_name": "d"},
		"ingest": {"source": {"type": "ftp"}}
	}`)
	_, err := Load(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "must be local or s3")
}

func TestLoadNegativeQPS(t *testing.T) {
	path := writeConfig(t, `{
		"port": 8000,
		"database": {"host": "h", "user": "u", "db_name": "d"},
		"rate_limit": {"qps": -1}
	}`)
	_, err := Load(path)
	require.Error(t, err)
}

func TestLoadBurstDefault(t *testing.T) {
	path := writeConfig(t, `{
		"port": 8000,
		"database": {"host": "h", "user": "u", "db_name": "d"},
		"rate_limit": {"qps": 5}
	}`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 10, cfg.RateLimit.Burst)
}

func TestLoadMemoryCacheDisabled(t *testing.T) {
	path := writeConfig(t, `{
		"port": 8000,
		"database": {"host": "h", "user": "u", "db_name": "d"},
		"embed_cache": {"memory_size": -1}
	}`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 0, cfg.EmbedCache.MemorySize)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
}

func TestProviderArgsEnvIndirection(t *testing.T) {
	t.Setenv("ASKDOCS_TEST_KEY", "sk-from-env")

	p := ProviderConfig{
		Provider:  "openai",
		Model:     "gpt-4o-mini",
		APIKeyEnv: "ASKDOCS_TEST_KEY",
		Data:      map[string]interface{}{"base_url": "http://x"},
	}
	args, ok := p.ProviderArgs().(map[string]interface{})
	require.True(t, ok)
	require.Equal(t, "sk-from-env", args["api_key"])
	require.Equal(t, "http://x", args["base_url"])
}

func TestProviderArgsExplicitKeyWins(t *testing.T) {
	t.Setenv("ASKDOCS_TEST_KEY", "sk-from-env")

	p := ProviderConfig{
		APIKeyEnv: "ASKDOCS_TEST_KEY",
		Data:      map[string]interface{}{"api_key": "sk-inline"},
	}
	args := p.ProviderArgs().(map[string]interface{})
	require.Equal(t, "sk-inline", args["api_key"])
}

func TestProviderArgsNilData(t *testing.T) {
	p := ProviderConfig{}
	args, ok := p.ProviderArgs().(map[string]interface{})
	require.True(t, ok)
	require.NotNil(t, args)
	require.Empty(t, args)
}
