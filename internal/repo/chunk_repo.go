package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"
	"github.com/pgvector/pgvector-go"

	"github.com/xxxsen/askdocs/internal/model"
	"github.com/xxxsen/askdocs/internal/pkg/dbutil"
)

type ChunkRepo struct {
	db *sql.DB
}

func NewChunkRepo(db *sql.DB) *ChunkRepo {
	return &ChunkRepo{db: db}
}

// Upsert writes a chunk in a single statement, so a concurrent reader sees
// either the old row or the new one. seq is assigned on first insert only
// and keeps the original insertion position on replace.
func (r *ChunkRepo) Upsert(ctx context.Context, chunk *model.Chunk) error {
	const query = `
		INSERT INTO chunks (collection, id, content, embedding, content_hash, ctime, mtime)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (collection, id) DO UPDATE SET
			content = EXCLUDED.content,
			embedding = EXCLUDED.embedding,
			content_hash = EXCLUDED.content_hash,
			mtime = EXCLUDED.mtime
	`
	_, err := r.db.ExecContext(ctx, query,
		chunk.Collection,
		chunk.ID,
		chunk.Content,
		pgvector.NewVector(chunk.Embedding),
		chunk.ContentHash,
		chunk.Ctime,
		chunk.Mtime,
	)
	return err
}

// Search returns up to k chunks ordered by cosine similarity to the query
// vector, ties broken by insertion order. Asking for more rows than exist
// just returns what is there.
func (r *ChunkRepo) Search(ctx context.Context, collection string, embedding []float32, k int) ([]model.ScoredChunk, error) {
	const query = `
		SELECT id, content, 1 - (embedding <=> $1) AS score
		FROM chunks
		WHERE collection = $2
		ORDER BY embedding <=> $1 ASC, seq ASC
		LIMIT $3
	`
	rows, err := r.db.QueryContext(ctx, query, pgvector.NewVector(embedding), collection, k)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.ScoredChunk
	for rows.Next() {
		var item model.ScoredChunk
		var score float64
		if err := rows.Scan(&item.ID, &item.Text, &score); err != nil {
			return nil, err
		}
		item.Score = float32(score)
		result = append(result, item)
	}
	return result, rows.Err()
}

func (r *ChunkRepo) GetContentHash(ctx context.Context, collection, id string) (string, bool, error) {
	where := map[string]interface{}{
		"collection": collection,
		"id":         id,
	}
	sqlStr, args, err := builder.BuildSelect("chunks", where, []string{"content_hash"})
	if err != nil {
		return "", false, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	row := r.db.QueryRowContext(ctx, sqlStr, args...)
	var hash string
	if err := row.Scan(&hash); err != nil {
		if err == sql.ErrNoRows {
			return "", false, nil
		}
		return "", false, err
	}
	return hash, true, nil
}

// ListChunks returns every chunk's id and content in insertion order. Used
// by reindexing, which re-embeds content that is already stored.
func (r *ChunkRepo) ListChunks(ctx context.Context, collection string) ([]model.Chunk, error) {
	where := map[string]interface{}{
		"collection": collection,
		"_orderby":   "seq asc",
	}
	sqlStr, args, err := builder.BuildSelect("chunks", where, []string{"id", "content"})
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.Chunk
	for rows.Next() {
		chunk := model.Chunk{Collection: collection}
		if err := rows.Scan(&chunk.ID, &chunk.Content); err != nil {
			return nil, err
		}
		result = append(result, chunk)
	}
	return result, rows.Err()
}

func (r *ChunkRepo) Count(ctx context.Context, collection string) (int64, error) {
	where := map[string]interface{}{
		"collection": collection,
	}
	sqlStr, args, err := builder.BuildSelect("chunks", where, []string{"count(*)"})
	if err != nil {
		return 0, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	row := r.db.QueryRowContext(ctx, sqlStr, args...)
	var count int64
	if err := row.Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *ChunkRepo) DeleteCollection(ctx context.Context, collection string) (int64, error) {
	sqlStr, args := dbutil.Finalize("DELETE FROM chunks WHERE collection = ?", []interface{}{collection})
	res, err := r.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
