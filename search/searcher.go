package search

import (
	"context"
	"log/slog"
	"strings"

	"github.com/poiesic/paperbase/ai"
	"github.com/poiesic/paperbase/core"
	"github.com/poiesic/paperbase/storage"
)

// Searcher provides semantic search over stored paper chunks.
type Searcher struct {
	repository storage.Repository
	embedder   ai.Embedder
	logger     *slog.Logger
}

// Option configures a Searcher.
type Option func(*Searcher) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// NewSearcher creates a new searcher. The repository must support
// similarity ranking over chunk vectors.
func NewSearcher(repository storage.Repository, embedder ai.Embedder, opts ...Option) (*Searcher, error) {
	if repository == nil {
		return nil, ErrRepositoryRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	s := &Searcher{
		repository: repository,
		embedder:   embedder,
		logger:     slog.Default(),
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// Search finds up to maxHits chunks similar to the query, ranked by cosine
// similarity descending.
func (s *Searcher) Search(ctx context.Context, query string, maxHits int) ([]*core.RankedResult, error) {
	return s.SearchWithMonitor(ctx, query, maxHits, nil)
}

// SearchWithMonitor finds chunks similar to the query with monitoring.
// The monitor receives callbacks at each stage of the search process.
//
// A blank query yields an empty result set. An embedding failure is
// returned to the caller; a ranking failure in storage is logged and
// yields an empty result set.
func (s *Searcher) SearchWithMonitor(ctx context.Context, query string, maxHits int, monitor SearchMonitor) ([]*core.RankedResult, error) {
	// Use noop monitor if none provided
	if monitor == nil {
		monitor = &noopMonitor{}
	}

	monitor.Start(query)

	if strings.TrimSpace(query) == "" {
		results := []*core.RankedResult{}
		monitor.Finish(results)
		return results, nil
	}

	// Query-time embedding failures surface to the caller. Searching with a
	// fabricated vector would silently return unrelated results.
	vector, err := s.embedder.EmbedText(ctx, query)
	if err != nil {
		s.logger.Error("error generating embedding for query", "query", query, "err", err)
		return nil, err
	}
	monitor.AfterQueryEmbedding(vector)

	matches, err := s.repository.RankBySimilarity(ctx, vector, maxHits)
	if err != nil {
		s.logger.Error("error ranking chunks for query", "query", query, "err", err)
		monitor.RankingFailed(err)
		results := []*core.RankedResult{}
		monitor.Finish(results)
		return results, nil
	}
	monitor.AfterRanking(matches)

	results := make([]*core.RankedResult, 0, len(matches))
	for _, match := range matches {
		result := &core.RankedResult{
			ChunkId:    match.Chunk.Id,
			ChunkText:  match.Chunk.Text,
			Similarity: match.Score,
			PaperId:    match.Chunk.PaperId,
			Metadata:   match.Chunk.Metadata,
		}
		if match.Paper != nil {
			result.PaperFileName = match.Paper.FileName
			result.PaperCreatedAt = match.Paper.InsertedAt
		}
		monitor.ResultJoined(result)
		results = append(results, result)
	}

	monitor.Finish(results)
	return results, nil
}
