package ai

import "errors"

var (
	// ErrEmptyEmbedding is returned when a provider reports success but
	// delivers no vector, or a zero-length one. An empty vector would score
	// every stored chunk identically instead of failing the call.
	ErrEmptyEmbedding = errors.New("embedding provider returned an empty vector")
)
