package model

// Document is a unit of source material handed to the ingestion pipeline.
// ID is stable across runs: the relative path for local sources, the object
// key for s3 sources.
type Document struct {
	ID      string `json:"id"`
	Source  string `json:"source"`
	Content string `json:"content"`
}

type IngestSummary struct {
	Documents int `json:"documents"`
	Chunks    int `json:"chunks"`
	Skipped   int `json:"skipped"`
}
