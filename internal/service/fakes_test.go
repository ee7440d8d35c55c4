package service

import (
	"context"
	"crypto/sha256"
	"math"
	"sort"
	"sync"

	"github.com/xxxsen/askdocs/internal/ai"
	"github.com/xxxsen/askdocs/internal/model"
)

// memStore is an in-memory ChunkStore that mirrors the repo semantics:
// insertion order is preserved, replacing an id keeps its position, search
// ranks by cosine similarity with ties in insertion order.
type memStore struct {
	mu     sync.Mutex
	chunks []model.Chunk
}

func (s *memStore) Upsert(ctx context.Context, chunk *model.Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.chunks {
		if s.chunks[i].Collection == chunk.Collection && s.chunks[i].ID == chunk.ID {
			ctime := s.chunks[i].Ctime
			s.chunks[i] = *chunk
			s.chunks[i].Ctime = ctime
			return nil
		}
	}
	s.chunks = append(s.chunks, *chunk)
	return nil
}

func (s *memStore) Search(ctx context.Context, collection string, embedding []float32, k int) ([]model.ScoredChunk, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	result := make([]model.ScoredChunk, 0, len(s.chunks))
	for _, chunk := range s.chunks {
		if chunk.Collection != collection {
			continue
		}
		result = append(result, model.ScoredChunk{
			ID:    chunk.ID,
			Text:  chunk.Content,
			Score: cosineSimilarity(embedding, chunk.Embedding),
		})
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Score > result[j].Score
	})
	if k < len(result) {
		result = result[:k]
	}
	return result, nil
}

func (s *memStore) ListChunks(ctx context.Context, collection string) ([]model.Chunk, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []model.Chunk
	for _, chunk := range s.chunks {
		if chunk.Collection == collection {
			result = append(result, model.Chunk{Collection: collection, ID: chunk.ID, Content: chunk.Content})
		}
	}
	return result, nil
}

func (s *memStore) GetContentHash(ctx context.Context, collection, id string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, chunk := range s.chunks {
		if chunk.Collection == collection && chunk.ID == id {
			return chunk.ContentHash, true, nil
		}
	}
	return "", false, nil
}

func (s *memStore) Count(ctx context.Context, collection string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, chunk := range s.chunks {
		if chunk.Collection == collection {
			n++
		}
	}
	return n, nil
}

func cosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}

// stubGenerator satisfies ai.IGenerator and records every prompt it sees.
type stubGenerator struct {
	mu       sync.Mutex
	prompts  []string
	response string
	err      error
}

func (g *stubGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	g.mu.Lock()
	g.prompts = append(g.prompts, prompt)
	g.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if g.err != nil {
		return "", g.err
	}
	if g.response == "" {
		return "stub answer", nil
	}
	return g.response, nil
}

func (g *stubGenerator) lastPrompt() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.prompts) == 0 {
		return ""
	}
	return g.prompts[len(g.prompts)-1]
}

// vecEmbedder satisfies ai.IEmbedder. Texts listed in vectors embed to the
// given vector; everything else gets a deterministic hash-derived one, so
// equal texts always embed equally.
type vecEmbedder struct {
	mu      sync.Mutex
	vectors map[string][]float32
	calls   int
	err     error
}

func (e *vecEmbedder) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	e.mu.Lock()
	e.calls++
	e.mu.Unlock()
	if e.err != nil {
		return nil, e.err
	}
	if v, ok := e.vectors[text]; ok {
		return v, nil
	}
	sum := sha256.Sum256([]byte(text))
	vec := make([]float32, 4)
	for i := range vec {
		vec[i] = float32(sum[i])/255.0 + 0.01
	}
	return vec, nil
}

func (e *vecEmbedder) ModelName() string {
	return "stub-embed"
}

func (e *vecEmbedder) embedCalls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls
}

func newTestManager(gen ai.IGenerator, emb ai.IEmbedder) *ai.Manager {
	return ai.NewManager(gen, emb, ai.ManagerConfig{Timeout: 5})
}
