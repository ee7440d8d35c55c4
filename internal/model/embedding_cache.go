package model

// EmbeddingCache is one persisted embedding, keyed by the model that
// produced it, the task type it was produced for and the sha256 of the
// source text.
type EmbeddingCache struct {
	ModelName   string    `json:"model_name"`
	TaskType    string    `json:"task_type"`
	ContentHash string    `json:"content_hash"`
	Embedding   []float32 `json:"embedding"`
	Ctime       int64     `json:"ctime"`
}
