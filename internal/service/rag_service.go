package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/askdocs/internal/ai"
	"github.com/xxxsen/askdocs/internal/model"
	appErr "github.com/xxxsen/askdocs/internal/pkg/errors"
)

// contextSeparator joins retrieved chunk texts in rank order.
const contextSeparator = "\n\n"

type RAGService struct {
	index *IndexService
	ai    *ai.Manager
	topK  int
}

func NewRAGService(index *IndexService, manager *ai.Manager, topK int) *RAGService {
	if topK <= 0 {
		topK = 1
	}
	return &RAGService{
		index: index,
		ai:    manager,
		topK:  topK,
	}
}

// Retrieve fetches the topK closest chunks for question and joins their
// texts into one context string. topK <= 0 uses the configured default. An
// empty index yields an empty context, which is a valid outcome.
func (s *RAGService) Retrieve(ctx context.Context, question string, topK int) (string, []model.ScoredChunk, error) {
	if topK <= 0 {
		topK = s.topK
	}
	chunks, err := s.index.Query(ctx, question, topK)
	if err != nil {
		if errors.Is(err, appErr.ErrInvalid) {
			return "", nil, err
		}
		return "", nil, fmt.Errorf("%w: %w", appErr.ErrRetrieval, err)
	}
	texts := make([]string, 0, len(chunks))
	for _, chunk := range chunks {
		texts = append(texts, chunk.Text)
	}
	logutil.GetLogger(ctx).Debug("context retrieved",
		zap.Int("top_k", topK),
		zap.Int("matches", len(chunks)),
	)
	return strings.Join(texts, contextSeparator), chunks, nil
}

// Answer runs the full pipeline: retrieve context, assemble the prompt,
// generate. One generation attempt, no retry; failures surface to the
// caller.
func (s *RAGService) Answer(ctx context.Context, question string) (string, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", fmt.Errorf("%w: question is required", appErr.ErrInvalid)
	}
	contextText, chunks, err := s.Retrieve(ctx, question, 0)
	if err != nil {
		return "", err
	}
	prompt := BuildPrompt(contextText, question)
	answer, err := s.ai.Generate(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("%w: %w", appErr.ErrGeneration, err)
	}
	logutil.GetLogger(ctx).Info("question answered",
		zap.Int("context_chunks", len(chunks)),
		zap.Int("answer_chars", len(answer)),
	)
	return answer, nil
}
