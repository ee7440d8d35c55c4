package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/semaphore"
)

type ManagerConfig struct {
	Timeout       int
	MaxInflight   int
	MaxInputChars int
}

// Manager owns the call policy around the configured providers: one attempt
// per call, a per-call deadline, and a cap on concurrent generations.
type Manager struct {
	generator IGenerator
	embedder  IEmbedder
	inflight  *semaphore.Weighted
	cfg       ManagerConfig
}

func NewManager(generator IGenerator, embedder IEmbedder, cfg ManagerConfig) *Manager {
	var inflight *semaphore.Weighted
	if cfg.MaxInflight > 0 {
		inflight = semaphore.NewWeighted(int64(cfg.MaxInflight))
	}
	return &Manager{
		generator: generator,
		embedder:  embedder,
		inflight:  inflight,
		cfg:       cfg,
	}
}

func (m *Manager) Generate(ctx context.Context, prompt string) (string, error) {
	if m.generator == nil {
		return "", fmt.Errorf("generator not configured")
	}
	if strings.TrimSpace(prompt) == "" {
		return "", fmt.Errorf("empty prompt")
	}
	if max := m.cfg.MaxInputChars; max > 0 && len(prompt) > max {
		return "", fmt.Errorf("prompt exceeds %d chars", max)
	}
	if m.inflight != nil {
		if err := m.inflight.Acquire(ctx, 1); err != nil {
			return "", err
		}
		defer m.inflight.Release(1)
	}
	if m.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(m.cfg.Timeout)*time.Second)
		defer cancel()
	}
	resp, err := m.generator.Generate(ctx, prompt)
	if err != nil {
		return "", err
	}
	text := strings.TrimSpace(resp)
	if text == "" {
		return "", fmt.Errorf("empty ai response")
	}
	return text, nil
}

func (m *Manager) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	if m.embedder == nil {
		return nil, fmt.Errorf("embedder not configured")
	}
	return m.embedder.Embed(ctx, text, taskType)
}

func (m *Manager) EmbeddingModelName() string {
	if m.embedder == nil {
		return ""
	}
	return m.embedder.ModelName()
}
