package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/askdocs/internal/config"
	"github.com/xxxsen/askdocs/internal/docsource"
	"github.com/xxxsen/askdocs/internal/model"
	appErr "github.com/xxxsen/askdocs/internal/pkg/errors"
)

func writeDocFile(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, filepath.FromSlash(name))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func newLocalSource(t *testing.T, dir string) docsource.Source {
	t.Helper()
	source, err := docsource.New(config.SourceConfig{
		Type: "local",
		Data: map[string]interface{}{
			"dir": dir,
		},
	})
	require.NoError(t, err)
	return source
}

func TestIngestServiceRunLocalDir(t *testing.T) {
	dir := t.TempDir()
	writeDocFile(t, dir, "notes.txt", "plain text body")
	writeDocFile(t, dir, "guide.md", "# markdown body")
	writeDocFile(t, dir, "sub/deep.txt", "nested body")
	writeDocFile(t, dir, "image.png", "\x89PNG not text")

	emb := &vecEmbedder{}
	index, store := newTestIndex(emb)
	ingest := NewIngestService(newLocalSource(t, dir), index, nil, 2)

	summary, err := ingest.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 3, summary.Documents)
	require.Equal(t, 3, summary.Chunks)
	require.Equal(t, 1, summary.Skipped)

	hash, ok, err := store.GetContentHash(context.Background(), "docs", "sub/deep.txt")
	require.NoError(t, err)
	require.True(t, ok)
	require.NotEmpty(t, hash)
}

func TestIngestServiceRunIdempotent(t *testing.T) {
	dir := t.TempDir()
	writeDocFile(t, dir, "a.txt", "stable content")
	writeDocFile(t, dir, "b.txt", "more stable content")

	emb := &vecEmbedder{}
	index, _ := newTestIndex(emb)
	ingest := NewIngestService(newLocalSource(t, dir), index, nil, 2)

	_, err := ingest.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, emb.embedCalls())

	summary, err := ingest.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, summary.Documents)
	require.Equal(t, 2, emb.embedCalls())
}

func TestIngestServiceRunPicksUpChanges(t *testing.T) {
	dir := t.TempDir()
	writeDocFile(t, dir, "a.txt", "version one")

	emb := &vecEmbedder{}
	index, store := newTestIndex(emb)
	ingest := NewIngestService(newLocalSource(t, dir), index, nil, 1)

	_, err := ingest.Run(context.Background())
	require.NoError(t, err)

	writeDocFile(t, dir, "a.txt", "version two")
	_, err = ingest.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, emb.embedCalls())

	count, err := store.Count(context.Background(), "docs")
	require.NoError(t, err)
	require.EqualValues(t, 1, count)
	require.Equal(t, "version two", store.chunks[0].Content)
}

func TestIngestServiceSkipsEmptyDocuments(t *testing.T) {
	dir := t.TempDir()
	writeDocFile(t, dir, "empty.txt", "   \n\t  ")
	writeDocFile(t, dir, "real.txt", "actual words")

	index, _ := newTestIndex(&vecEmbedder{})
	ingest := NewIngestService(newLocalSource(t, dir), index, nil, 1)

	summary, err := ingest.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, summary.Documents)
	require.Equal(t, 1, summary.Skipped)
}

type errReadSource struct {
	ids []string
}

func (s *errReadSource) Name() string {
	return "err"
}

func (s *errReadSource) List(ctx context.Context) ([]string, error) {
	return s.ids, nil
}

func (s *errReadSource) Read(ctx context.Context, id string) ([]byte, error) {
	return nil, errors.New("storage gone")
}

type errListSource struct{}

func (s *errListSource) Name() string {
	return "err"
}

func (s *errListSource) List(ctx context.Context) ([]string, error) {
	return nil, errors.New("bucket missing")
}

func (s *errListSource) Read(ctx context.Context, id string) ([]byte, error) {
	return nil, errors.New("unreachable")
}

func TestIngestServiceRunReadFailure(t *testing.T) {
	index, _ := newTestIndex(&vecEmbedder{})
	ingest := NewIngestService(&errReadSource{ids: []string{"a.txt"}}, index, nil, 1)

	_, err := ingest.Run(context.Background())
	require.ErrorIs(t, err, appErr.ErrIngestion)
	require.Contains(t, err.Error(), "a.txt")
}

func TestIngestServiceRunListFailure(t *testing.T) {
	index, _ := newTestIndex(&vecEmbedder{})
	ingest := NewIngestService(&errListSource{}, index, nil, 1)

	_, err := ingest.Run(context.Background())
	require.ErrorIs(t, err, appErr.ErrIngestion)
}

type multiSplitter struct{}

func (multiSplitter) Split(doc model.Document) []model.Chunk {
	return []model.Chunk{
		{ID: doc.ID + "#0", Content: doc.Content},
		{ID: doc.ID + "#1", Content: doc.Content + " tail"},
	}
}

func TestIngestServiceCustomSplitter(t *testing.T) {
	dir := t.TempDir()
	writeDocFile(t, dir, "a.txt", "body")

	index, _ := newTestIndex(&vecEmbedder{})
	ingest := NewIngestService(newLocalSource(t, dir), index, multiSplitter{}, 1)

	summary, err := ingest.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, summary.Documents)
	require.Equal(t, 2, summary.Chunks)

	count, err := index.Count(context.Background())
	require.NoError(t, err)
	require.EqualValues(t, 2, count)
}
