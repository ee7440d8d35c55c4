package embedcache

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/askdocs/internal/ai"
)

type lruEmbedder struct {
	inner ai.IEmbedder
	lru   *expirable.LRU[string, []float32]
}

// WrapLruCacheToEmbedder puts a bounded in-process cache in front of an
// embedder. Entries expire after ttl; size or ttl <= 0 disables the layer.
func WrapLruCacheToEmbedder(e ai.IEmbedder, size int, ttl time.Duration) ai.IEmbedder {
	if e == nil || size <= 0 || ttl <= 0 {
		return e
	}
	return &lruEmbedder{
		inner: e,
		lru:   expirable.NewLRU[string, []float32](size, nil, ttl),
	}
}

func (l *lruEmbedder) ModelName() string {
	if l == nil || l.inner == nil {
		return ""
	}
	return l.inner.ModelName()
}

func (l *lruEmbedder) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	if l == nil || l.inner == nil {
		return nil, nil
	}
	key, _, _ := buildCacheKey(l.inner.ModelName(), taskType, text)
	if hit, ok := l.lru.Get(key); ok {
		logutil.GetLogger(ctx).Debug("embedding cache hit (lru)", zap.String("task_type", taskType))
		return cloneEmbedding(hit), nil
	}
	res, err := l.inner.Embed(ctx, text, taskType)
	if err != nil {
		return nil, err
	}
	if len(res) > 0 {
		l.lru.Add(key, cloneEmbedding(res))
	}
	return res, nil
}

// cloneEmbedding copies vectors crossing the cache boundary so callers
// cannot mutate cached entries.
func cloneEmbedding(values []float32) []float32 {
	if len(values) == 0 {
		return nil
	}
	clone := make([]float32, len(values))
	copy(clone, values)
	return clone
}
