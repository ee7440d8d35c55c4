package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/askdocs/internal/ai"
	"github.com/xxxsen/askdocs/internal/model"
	appErr "github.com/xxxsen/askdocs/internal/pkg/errors"
	"github.com/xxxsen/askdocs/internal/pkg/timeutil"
)

// ChunkStore is the persistence surface the index needs. *repo.ChunkRepo
// implements it.
type ChunkStore interface {
	Upsert(ctx context.Context, chunk *model.Chunk) error
	Search(ctx context.Context, collection string, embedding []float32, k int) ([]model.ScoredChunk, error)
	GetContentHash(ctx context.Context, collection, id string) (string, bool, error)
	ListChunks(ctx context.Context, collection string) ([]model.Chunk, error)
	Count(ctx context.Context, collection string) (int64, error)
}

// IndexService maps chunk ids to text and embeddings inside one named
// collection. Embeddings are computed here and only here; callers never
// touch raw vectors.
type IndexService struct {
	store      ChunkStore
	ai         *ai.Manager
	collection string
}

func NewIndexService(store ChunkStore, manager *ai.Manager, collection string) *IndexService {
	return &IndexService{
		store:      store,
		ai:         manager,
		collection: collection,
	}
}

func (s *IndexService) Collection() string {
	return s.collection
}

// Upsert stores text under id, embedding it first. A second call with the
// same id and text is a no-op that skips the embedder entirely. The
// returned bool reports whether a write happened.
func (s *IndexService) Upsert(ctx context.Context, id, text string) (bool, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return false, fmt.Errorf("%w: chunk id is required", appErr.ErrInvalid)
	}
	if strings.TrimSpace(text) == "" {
		return false, fmt.Errorf("%w: chunk text is required", appErr.ErrInvalid)
	}
	logger := logutil.GetLogger(ctx).With(zap.String("chunk_id", id))

	hash := sha256.Sum256([]byte(text))
	contentHash := hex.EncodeToString(hash[:])
	existing, ok, err := s.store.GetContentHash(ctx, s.collection, id)
	if err != nil {
		return false, fmt.Errorf("lookup chunk hash: %w", err)
	}
	if ok && existing == contentHash {
		logger.Debug("chunk unchanged, skip embedding")
		return false, nil
	}

	emb, err := s.ai.Embed(ctx, text, "RETRIEVAL_DOCUMENT")
	if err != nil {
		return false, fmt.Errorf("embed chunk: %w", err)
	}
	now := timeutil.NowUnix()
	if err := s.store.Upsert(ctx, &model.Chunk{
		Collection:  s.collection,
		ID:          id,
		Content:     text,
		Embedding:   emb,
		ContentHash: contentHash,
		Ctime:       now,
		Mtime:       now,
	}); err != nil {
		return false, fmt.Errorf("store chunk: %w", err)
	}
	logger.Info("chunk indexed")
	return true, nil
}

// Query embeds text and returns the k nearest chunks by cosine similarity,
// best first, ties in insertion order. k larger than the collection returns
// everything; an empty collection returns an empty result.
func (s *IndexService) Query(ctx context.Context, text string, k int) ([]model.ScoredChunk, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: query text is required", appErr.ErrInvalid)
	}
	if k <= 0 {
		return nil, fmt.Errorf("%w: k must be positive", appErr.ErrInvalid)
	}
	queryEmb, err := s.ai.Embed(ctx, text, "RETRIEVAL_QUERY")
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	result, err := s.store.Search(ctx, s.collection, queryEmb, k)
	if err != nil {
		return nil, fmt.Errorf("search chunks: %w", err)
	}
	return result, nil
}

func (s *IndexService) Count(ctx context.Context) (int64, error) {
	return s.store.Count(ctx, s.collection)
}

// Reindex re-embeds every stored chunk with the currently configured model,
// bypassing the content-hash skip. Run it after changing the embed model,
// when stored vectors no longer match what queries are embedded with.
func (s *IndexService) Reindex(ctx context.Context) (int, error) {
	chunks, err := s.store.ListChunks(ctx, s.collection)
	if err != nil {
		return 0, fmt.Errorf("list chunks: %w", err)
	}
	logger := logutil.GetLogger(ctx).With(zap.String("collection", s.collection))
	logger.Info("reindex started", zap.Int("chunks", len(chunks)))
	for i, chunk := range chunks {
		emb, err := s.ai.Embed(ctx, chunk.Content, "RETRIEVAL_DOCUMENT")
		if err != nil {
			return i, fmt.Errorf("embed chunk %s: %w", chunk.ID, err)
		}
		hash := sha256.Sum256([]byte(chunk.Content))
		now := timeutil.NowUnix()
		if err := s.store.Upsert(ctx, &model.Chunk{
			Collection:  s.collection,
			ID:          chunk.ID,
			Content:     chunk.Content,
			Embedding:   emb,
			ContentHash: hex.EncodeToString(hash[:]),
			Ctime:       now,
			Mtime:       now,
		}); err != nil {
			return i, fmt.Errorf("store chunk %s: %w", chunk.ID, err)
		}
		logger.Debug("chunk reindexed", zap.String("chunk_id", chunk.ID))
	}
	logger.Info("reindex finished", zap.Int("chunks", len(chunks)))
	return len(chunks), nil
}
