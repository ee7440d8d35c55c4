package embedcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/askdocs/internal/ai"
	"github.com/xxxsen/askdocs/internal/model"
	"github.com/xxxsen/askdocs/internal/pkg/timeutil"
)

// ICacheRepo is the persistence surface the db cache layer needs.
type ICacheRepo interface {
	Get(ctx context.Context, modelName, taskType, contentHash string) ([]float32, bool, error)
	Save(ctx context.Context, item *model.EmbeddingCache) error
}

type dbEmbedder struct {
	inner ai.IEmbedder
	repo  ICacheRepo
}

// WrapDBCacheToEmbedder adds a persistent read-through cache in front of e.
// Cache failures on either side are logged and fall through to the wrapped
// embedder, never to the caller.
func WrapDBCacheToEmbedder(e ai.IEmbedder, cacheRepo ICacheRepo) ai.IEmbedder {
	if e == nil || cacheRepo == nil {
		return e
	}
	return &dbEmbedder{inner: e, repo: cacheRepo}
}

func (d *dbEmbedder) ModelName() string {
	if d == nil || d.inner == nil {
		return ""
	}
	return d.inner.ModelName()
}

func (d *dbEmbedder) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	if d == nil || d.inner == nil {
		return nil, nil
	}
	_, contentHash, modelName := buildCacheKey(d.inner.ModelName(), taskType, text)
	if d.repo != nil {
		values, ok, err := d.repo.Get(ctx, modelName, taskType, contentHash)
		if err != nil {
			logutil.GetLogger(ctx).Warn("embedding cache lookup failed", zap.Error(err))
		} else if ok {
			logutil.GetLogger(ctx).Debug("embedding cache hit (db)", zap.String("task_type", taskType))
			return values, nil
		}
	}
	res, err := d.inner.Embed(ctx, text, taskType)
	if err != nil {
		return nil, err
	}
	if d.repo != nil && len(res) > 0 {
		if err := d.repo.Save(ctx, &model.EmbeddingCache{
			ModelName:   modelName,
			TaskType:    taskType,
			ContentHash: contentHash,
			Embedding:   res,
			Ctime:       timeutil.NowUnix(),
		}); err != nil {
			logutil.GetLogger(ctx).Warn("failed to cache embedding", zap.Error(err))
		}
	}
	return res, nil
}

func buildCacheKey(modelName, taskType, text string) (string, string, string) {
	modelName = strings.TrimSpace(modelName)
	if modelName == "" {
		modelName = "unknown"
	}
	hash := sha256.Sum256([]byte(text))
	contentHash := hex.EncodeToString(hash[:])
	return "embed:" + modelName + ":" + taskType + ":" + contentHash, contentHash, modelName
}
