package storage

import (
	"context"

	"github.com/poiesic/paperbase/core"
)

// Repository provides common storage operations shared across all repositories.
// Implementations must be thread-safe and support concurrent access.
type Repository interface {
	// RankBySimilarity ranks stored chunks by cosine similarity to the given
	// vector, highest first, and returns at most limit matches joined with
	// their owning papers. Chunks without embeddings are skipped. Equal
	// scores are ordered by chunk ID ascending so results are reproducible.
	RankBySimilarity(ctx context.Context, vector []float32, limit int) ([]*core.SimilarityMatch, error)

	// WithTransaction executes a function within a transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn returns nil, the transaction is committed.
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error

	// Close closes the storage backend and releases resources.
	Close() error
}

// PaperRepository provides operations for managing papers.
type PaperRepository interface {
	Repository

	// AddPapers adds one or more papers to storage.
	// IDs are derived from the full text content (IDFromContent), so adding
	// the same document twice returns ErrDuplicateKey for the second add.
	// Sets InsertedAt/UpdatedAt timestamps.
	// Returns the papers with IDs and timestamps populated.
	AddPapers(ctx context.Context, papers ...*core.Paper) ([]*core.Paper, error)

	// GetPaper retrieves a single paper by ID.
	// Returns ErrNotFound if the paper doesn't exist.
	GetPaper(ctx context.Context, id core.ID) (*core.Paper, error)

	// GetPaperByFileName retrieves a paper by its original file name.
	// Returns ErrNotFound if no such paper exists.
	GetPaperByFileName(ctx context.Context, fileName string) (*core.Paper, error)

	// ListPapers retrieves all papers ordered by ID.
	ListPapers(ctx context.Context) ([]*core.Paper, error)

	// DeletePapers removes papers by their IDs, cascading to their chunks.
	// Returns ErrNotFound if any paper doesn't exist.
	DeletePapers(ctx context.Context, ids ...core.ID) error
}

// ChunkRepository provides operations for managing chunks.
type ChunkRepository interface {
	Repository

	// AddChunks adds one or more chunks to storage.
	// Generates new IDs from sequence and sets timestamps.
	// Maintains the per-paper chunk index.
	// Returns the chunks with IDs and timestamps populated.
	AddChunks(ctx context.Context, chunks ...*core.Chunk) ([]*core.Chunk, error)

	// UpdateChunks updates existing chunks (used when reembedding).
	// Updates the UpdatedAt timestamp automatically.
	// Returns ErrNotFound if any chunk doesn't exist.
	UpdateChunks(ctx context.Context, chunks ...*core.Chunk) ([]*core.Chunk, error)

	// GetChunk retrieves a single chunk by ID.
	// Returns ErrNotFound if the chunk doesn't exist.
	GetChunk(ctx context.Context, id core.ID) (*core.Chunk, error)

	// GetChunks retrieves multiple chunks by their IDs.
	// Returns only the chunks that exist (no error for missing chunks).
	GetChunks(ctx context.Context, ids ...core.ID) ([]*core.Chunk, error)

	// GetChunksByPaper retrieves all chunks of a paper ordered by ChunkIndex.
	GetChunksByPaper(ctx context.Context, paperID core.ID) ([]*core.Chunk, error)

	// GetChunkByIndex retrieves the chunk of a paper at a given ChunkIndex.
	// Returns ErrNotFound if no such chunk exists.
	GetChunkByIndex(ctx context.Context, paperID core.ID, chunkIndex int) (*core.Chunk, error)

	// CountChunks returns the total number of stored chunks.
	CountChunks(ctx context.Context) (int, error)
}
