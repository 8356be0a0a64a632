package core

import (
	"encoding/binary"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for domain entities.
// It is generated using content-based hashing or database sequences.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs; papers are keyed by
// the hash of their extracted text so re-seeding the same file is a no-op.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// Paper represents a single ingested document.
// A paper owns its chunks: deleting a paper removes them.
type Paper struct {
	Id         ID
	FileName   string // Original source file name ("" if unknown)
	FullText   string // Complete extracted text
	PageCount  int    // Number of pages in the source document (0 if unknown)
	InsertedAt time.Time
	UpdatedAt  time.Time
}

// ChunkMetadata carries positional metadata for a chunk.
// Extra is an escape hatch for forward-compatible fields.
type ChunkMetadata struct {
	ChunkIndex  int  // 0-based position among the paper's chunks
	PageNumber  int  // Estimated 1-based page, 0 if unknown
	Placeholder bool // True when the vector is a degraded-mode placeholder
	Extra       map[string]string
}

// Chunk represents a bounded contiguous segment of a paper's text,
// the unit of embedding and retrieval.
type Chunk struct {
	Id         ID
	PaperId    ID
	Text       string
	Vector     []float32 // Embedding vector (empty until embedding completes)
	Metadata   ChunkMetadata
	InsertedAt time.Time
	UpdatedAt  time.Time
}

// SimilarityMatch represents a chunk matched by vector similarity search,
// joined with its owning paper. Paper is nil when the owning paper row
// could not be resolved.
type SimilarityMatch struct {
	Chunk *Chunk
	Paper *Paper
	Score float32
}

// RankedResult is a single search result exposed to callers.
type RankedResult struct {
	ChunkId        ID
	ChunkText      string
	Similarity     float32
	PaperId        ID
	PaperFileName  string // "" when the owning paper has no file name or is missing
	PaperCreatedAt time.Time
	Metadata       ChunkMetadata
}
