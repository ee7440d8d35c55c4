package docsource

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/xxxsen/askdocs/internal/config"
)

// Source enumerates and reads raw documents for ingestion. Ids are stable
// across runs: relative paths for local sources, object keys for s3.
type Source interface {
	Name() string
	List(ctx context.Context) ([]string, error)
	Read(ctx context.Context, id string) ([]byte, error)
}

type Factory func(args interface{}) (Source, error)

var (
	registryMu sync.RWMutex
	registry   = map[string]Factory{}
)

func Register(name string, factory Factory) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" || factory == nil {
		return
	}
	registryMu.Lock()
	registry[key] = factory
	registryMu.Unlock()
}

func New(cfg config.SourceConfig) (Source, error) {
	key := strings.ToLower(strings.TrimSpace(cfg.Type))
	if key == "" {
		return nil, fmt.Errorf("ingest.source.type is required")
	}
	registryMu.RLock()
	factory := registry[key]
	registryMu.RUnlock()
	if factory == nil {
		return nil, fmt.Errorf("unsupported document source type: %s", cfg.Type)
	}
	return factory(cfg.Data)
}

func decodeConfig(args interface{}, dst interface{}) error {
	if args == nil {
		return fmt.Errorf("source config is required")
	}
	data, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("encode source config: %w", err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decode source config: %w", err)
	}
	return nil
}
