package reembed

import "errors"

var (
	// ErrInvalidMaxAttempts is returned when maxAttempts is <= 0
	ErrInvalidMaxAttempts = errors.New("maxAttempts must be greater than 0")

	// ErrEmbeddingCountMismatch is returned when the embedder produces a
	// different number of vectors than chunks submitted in a batch.
	ErrEmbeddingCountMismatch = errors.New("embedding count does not match chunk count")
)
