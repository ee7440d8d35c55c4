package errors

import "errors"

var (
	ErrNotFound   = errors.New("not found")
	ErrInvalid    = errors.New("invalid")
	ErrTooMany    = errors.New("too many requests")
	ErrIngestion  = errors.New("ingestion failed")
	ErrRetrieval  = errors.New("retrieval failed")
	ErrGeneration = errors.New("generation failed")
)

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
