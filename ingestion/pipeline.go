package ingestion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/paperbase/ai"
	"github.com/poiesic/paperbase/core"
	"github.com/poiesic/paperbase/storage"
)

// Pipeline orchestrates the ingestion and processing of papers.
// It manages concurrent extraction of files and embedding of chunks.
type Pipeline struct {
	paperRepository     storage.PaperRepository
	chunkRepository     storage.ChunkRepository
	embedder            ai.Embedder
	extractor           TextExtractor
	filePool            *ants.Pool
	embeddingPool       *ants.Pool
	maxChars            int
	overlapSentences    int
	dimension           int
	placeholderFallback bool
	logger              *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithPoolSize sets the worker pool size for concurrent processing.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}

		// Release old pools
		if p.filePool != nil {
			p.filePool.Release()
		}
		if p.embeddingPool != nil {
			p.embeddingPool.Release()
		}

		// Create new pools
		filePool, err := ants.NewPool(size)
		if err != nil {
			return err
		}

		embeddingPool, err := ants.NewPool(size)
		if err != nil {
			filePool.Release()
			return err
		}

		p.filePool = filePool
		p.embeddingPool = embeddingPool
		return nil
	}
}

// WithChunkLimits sets the chunker's size bound and sentence overlap.
// Defaults are core.DefaultMaxChars and core.DefaultOverlapSentences.
func WithChunkLimits(maxChars, overlapSentences int) Option {
	return func(p *Pipeline) error {
		if maxChars > 0 {
			p.maxChars = maxChars
		}
		if overlapSentences >= 0 {
			p.overlapSentences = overlapSentences
		}
		return nil
	}
}

// WithPlaceholderFallback gates the degraded-embedding mode. When enabled,
// a chunk whose embedding request fails is stored with a deterministic
// placeholder vector and flagged in its metadata instead of failing the
// file. Disabled by default.
func WithPlaceholderFallback(enabled bool) Option {
	return func(p *Pipeline) error {
		p.placeholderFallback = enabled
		return nil
	}
}

// WithDimension sets the vector dimension used for placeholder embeddings.
// Default is ai.DefaultDimension.
func WithDimension(dimension int) Option {
	return func(p *Pipeline) error {
		if dimension > 0 {
			p.dimension = dimension
		}
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// NewPipeline creates a new ingestion pipeline.
func NewPipeline(
	paperRepository storage.PaperRepository,
	chunkRepository storage.ChunkRepository,
	embedder ai.Embedder,
	extractor TextExtractor,
	opts ...Option,
) (*Pipeline, error) {
	if paperRepository == nil {
		return nil, ErrPaperRepositoryRequired
	}
	if chunkRepository == nil {
		return nil, ErrChunkRepositoryRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if extractor == nil {
		return nil, ErrExtractorRequired
	}

	// Default pool size
	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}

	filePool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	embeddingPool, err := ants.NewPool(poolSize)
	if err != nil {
		filePool.Release()
		return nil, err
	}

	// Create pipeline with defaults
	p := &Pipeline{
		paperRepository:  paperRepository,
		chunkRepository:  chunkRepository,
		embedder:         embedder,
		extractor:        extractor,
		filePool:         filePool,
		embeddingPool:    embeddingPool,
		maxChars:         core.DefaultMaxChars,
		overlapSentences: core.DefaultOverlapSentences,
		dimension:        ai.DefaultDimension,
		logger:           slog.Default(),
	}

	// Apply options (may override defaults)
	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}

	return p, nil
}

// Result describes the outcome of ingesting one file.
type Result struct {
	PaperId      core.ID
	FileName     string
	Chunks       int
	Placeholders int
	Skipped      bool // true when the paper's content was already stored
}

// IngestDirectory ingests every PDF file in dir, processing files
// concurrently on the file pool. Per-file failures are logged and do not
// stop the remaining files. Results are returned in no particular order.
func (p *Pipeline) IngestDirectory(ctx context.Context, dir string) ([]*Result, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading directory %s: %w", dir, err)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.EqualFold(filepath.Ext(entry.Name()), ".pdf") {
			paths = append(paths, filepath.Join(dir, entry.Name()))
		}
	}

	p.logger.Info("ingesting directory", "dir", dir, "files", len(paths))

	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		results []*Result
	)

	for _, path := range paths {
		wg.Add(1)
		if err := p.filePool.Submit(func() {
			defer wg.Done()

			result, fileErr := p.IngestFile(ctx, path)
			if fileErr != nil {
				p.logger.Error("error ingesting file", "path", path, "err", fileErr)
				return
			}

			mu.Lock()
			results = append(results, result)
			mu.Unlock()
		}); err != nil {
			wg.Done()
			p.logger.Error("error submitting file", "path", path, "err", err)
		}
	}

	wg.Wait()
	return results, nil
}

// IngestFile extracts, chunks, embeds and stores a single document. A
// document whose content is already stored is skipped without error.
func (p *Pipeline) IngestFile(ctx context.Context, path string) (*Result, error) {
	fileName := filepath.Base(path)

	text, pages, err := p.extractor.ExtractText(path)
	if err != nil {
		return nil, fmt.Errorf("extracting %s: %w", fileName, err)
	}
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%s: %w", fileName, ErrEmptyDocument)
	}

	// Content-addressed ID makes re-ingestion of identical text a no-op.
	paperId := core.IDFromContent(text)
	existing, err := p.paperRepository.GetPaper(ctx, paperId)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}
	if existing != nil {
		p.logger.Info("skipping already ingested paper",
			"file", fileName, "paper", existing.FileName)
		return &Result{PaperId: paperId, FileName: fileName, Skipped: true}, nil
	}

	paper := &core.Paper{
		Id:        paperId,
		FileName:  fileName,
		FullText:  text,
		PageCount: pages,
	}
	if _, err := p.paperRepository.AddPapers(ctx, paper); err != nil {
		return nil, fmt.Errorf("adding paper %s: %w", fileName, err)
	}

	pieces := core.ChunkText(text, p.maxChars, p.overlapSentences)
	p.logger.Info("chunked paper", "file", fileName, "chunks", len(pieces), "pages", pages)

	chunks, placeholders, err := p.embedChunks(ctx, paperId, pieces, pages, len([]rune(text)))
	if err != nil {
		p.removeFailedPaper(ctx, paperId, fileName)
		return nil, fmt.Errorf("embedding %s: %w", fileName, err)
	}

	if _, err := p.chunkRepository.AddChunks(ctx, chunks...); err != nil {
		p.removeFailedPaper(ctx, paperId, fileName)
		return nil, fmt.Errorf("adding chunks for %s: %w", fileName, err)
	}

	p.logger.Info("ingested paper",
		"file", fileName, "chunks", len(chunks), "placeholders", placeholders)

	return &Result{
		PaperId:      paperId,
		FileName:     fileName,
		Chunks:       len(chunks),
		Placeholders: placeholders,
	}, nil
}

// removeFailedPaper deletes a paper whose chunks never landed. The ID is a
// content hash, so a stranded chunkless paper would make every later attempt
// look like a duplicate.
func (p *Pipeline) removeFailedPaper(ctx context.Context, paperId core.ID, fileName string) {
	if err := p.paperRepository.DeletePapers(ctx, paperId); err != nil {
		p.logger.Error("failed to remove paper after ingestion error",
			"file", fileName, "paper", paperId, "err", err)
	}
}

// embedChunks builds the chunk records for one paper, embedding texts
// concurrently on the embedding pool. Page numbers are estimated from each
// chunk's character offset within the paper.
func (p *Pipeline) embedChunks(ctx context.Context, paperId core.ID, pieces []string, pageCount, totalChars int) ([]*core.Chunk, int, error) {
	chunks := make([]*core.Chunk, len(pieces))

	preceding := 0
	for i, text := range pieces {
		pageNumber := 0
		if pageCount > 0 && totalChars > 0 {
			pageNumber = preceding*pageCount/totalChars + 1
			// Overlap repeats characters, so the estimate can run past the
			// last page.
			if pageNumber > pageCount {
				pageNumber = pageCount
			}
		}
		preceding += len([]rune(text))

		chunks[i] = &core.Chunk{
			PaperId: paperId,
			Text:    text,
			Metadata: core.ChunkMetadata{
				ChunkIndex: i,
				PageNumber: pageNumber,
			},
		}
	}

	var (
		mu           sync.Mutex
		wg           sync.WaitGroup
		placeholders int
		firstErr     error
	)

	for _, chunk := range chunks {
		wg.Add(1)
		if err := p.embeddingPool.Submit(func() {
			defer wg.Done()

			vector, embedErr := p.embedder.EmbedText(ctx, chunk.Text)
			if embedErr != nil {
				if !p.placeholderFallback {
					mu.Lock()
					if firstErr == nil {
						firstErr = embedErr
					}
					mu.Unlock()
					return
				}

				p.logger.Warn("embedding failed, using placeholder vector",
					"paper", paperId, "chunk", chunk.Metadata.ChunkIndex, "err", embedErr)
				vector = ai.PlaceholderVector(chunk.Text, p.dimension)
				chunk.Metadata.Placeholder = true
				mu.Lock()
				placeholders++
				mu.Unlock()
			}
			chunk.Vector = vector
		}); err != nil {
			wg.Done()
			mu.Lock()
			if firstErr == nil {
				firstErr = err
			}
			mu.Unlock()
		}
	}

	wg.Wait()
	if firstErr != nil {
		return nil, 0, firstErr
	}
	return chunks, placeholders, nil
}

// Release releases resources including worker pools.
// The pipeline should not be used after calling Release.
func (p *Pipeline) Release() {
	if p.filePool != nil {
		p.filePool.Release()
	}
	if p.embeddingPool != nil {
		p.embeddingPool.Release()
	}
}
