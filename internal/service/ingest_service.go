package service

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xxxsen/askdocs/internal/docsource"
	"github.com/xxxsen/askdocs/internal/model"
	appErr "github.com/xxxsen/askdocs/internal/pkg/errors"
)

// Splitter cuts a document into the chunks that get indexed. The default
// treats the whole document as a single chunk keyed by the document id.
type Splitter interface {
	Split(doc model.Document) []model.Chunk
}

type WholeDocSplitter struct{}

func (WholeDocSplitter) Split(doc model.Document) []model.Chunk {
	return []model.Chunk{{ID: doc.ID, Content: doc.Content}}
}

// IngestService runs one batch over a document source and upserts every
// chunk. Re-running over an unchanged corpus touches nothing: ids are
// stable and the index skips unchanged content.
type IngestService struct {
	source      docsource.Source
	index       *IndexService
	splitter    Splitter
	concurrency int
}

func NewIngestService(source docsource.Source, index *IndexService, splitter Splitter, concurrency int) *IngestService {
	if splitter == nil {
		splitter = WholeDocSplitter{}
	}
	if concurrency <= 0 {
		concurrency = 4
	}
	return &IngestService{
		source:      source,
		index:       index,
		splitter:    splitter,
		concurrency: concurrency,
	}
}

func (s *IngestService) Run(ctx context.Context) (*model.IngestSummary, error) {
	ids, err := s.source.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: list documents: %w", appErr.ErrIngestion, err)
	}
	logger := logutil.GetLogger(ctx).With(zap.String("source", s.source.Name()))
	logger.Info("ingest started", zap.Int("documents", len(ids)))

	var mu sync.Mutex
	summary := &model.IngestSummary{}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for _, id := range ids {
		g.Go(func() error {
			data, err := s.source.Read(ctx, id)
			if err != nil {
				return fmt.Errorf("read %s: %w", id, err)
			}
			text, supported, err := docsource.ExtractText(id, data)
			if err != nil {
				return fmt.Errorf("extract %s: %w", id, err)
			}
			if !supported || strings.TrimSpace(text) == "" {
				mu.Lock()
				summary.Skipped++
				mu.Unlock()
				return nil
			}
			chunks := s.splitter.Split(model.Document{
				ID:      id,
				Source:  s.source.Name(),
				Content: text,
			})
			for _, chunk := range chunks {
				if _, err := s.index.Upsert(ctx, chunk.ID, chunk.Content); err != nil {
					return fmt.Errorf("index %s: %w", chunk.ID, err)
				}
			}
			mu.Lock()
			summary.Documents++
			summary.Chunks += len(chunks)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("%w: %w", appErr.ErrIngestion, err)
	}
	logger.Info("ingest finished",
		zap.Int("documents", summary.Documents),
		zap.Int("chunks", summary.Chunks),
		zap.Int("skipped", summary.Skipped),
	)
	return summary, nil
}
