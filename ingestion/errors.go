package ingestion

import "errors"

var (
	// ErrPaperRepositoryRequired is returned when a paper repository is not provided.
	ErrPaperRepositoryRequired = errors.New("paper repository required")

	// ErrChunkRepositoryRequired is returned when a chunk repository is not provided.
	ErrChunkRepositoryRequired = errors.New("chunk repository required")

	// ErrEmbedderRequired is returned when an embedder is not provided.
	ErrEmbedderRequired = errors.New("embedder required")

	// ErrExtractorRequired is returned when a text extractor is not provided.
	ErrExtractorRequired = errors.New("text extractor required")

	// ErrEmptyDocument is returned when a document yields no extractable text.
	ErrEmptyDocument = errors.New("document has no extractable text")
)
