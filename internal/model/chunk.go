package model

type Chunk struct {
	Collection  string    `json:"collection"`
	ID          string    `json:"id"`
	Content     string    `json:"content"`
	Embedding   []float32 `json:"embedding"`
	ContentHash string    `json:"content_hash"`
	Ctime       int64     `json:"ctime"`
	Mtime       int64     `json:"mtime"`
}

// ScoredChunk is the fixed result record returned by index queries.
// Score is cosine similarity, higher is closer.
type ScoredChunk struct {
	ID    string  `json:"id"`
	Text  string  `json:"text"`
	Score float32 `json:"score"`
}
