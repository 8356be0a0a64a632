// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package paperbase

import (
	"io"
	"log/slog"

	"github.com/poiesic/paperbase/ai"
	"github.com/poiesic/paperbase/ai/openai"
	"github.com/poiesic/paperbase/ingestion"
	"github.com/poiesic/paperbase/pdftext"
	"github.com/poiesic/paperbase/reembed"
	"github.com/poiesic/paperbase/search"
	"github.com/poiesic/paperbase/storage"
	"github.com/poiesic/paperbase/storage/badger"
)

type Database struct {
	backend   *badger.Backend
	paperRepo storage.PaperRepository
	chunkRepo storage.ChunkRepository
	embedder  ai.Embedder
	aiConfig  *ai.Config
	logger    *slog.Logger
}

// DatabaseOption configures a Database.
type DatabaseOption func(*databaseOptions)

type databaseOptions struct {
	aiConfig *ai.Config
}

// WithAIConfig sets the embedding provider configuration.
func WithAIConfig(config *ai.Config) DatabaseOption {
	return func(o *databaseOptions) {
		if config != nil {
			o.aiConfig = config
		}
	}
}

func NewDatabase(filePath string, opts ...DatabaseOption) (*Database, error) {
	// Apply options
	options := &databaseOptions{
		aiConfig: ai.DefaultConfig(), // Default if not provided
	}
	for _, opt := range opts {
		opt(options)
	}

	// Open backend
	backend, err := badger.OpenBackend(filePath, false)
	if err != nil {
		return nil, err
	}

	// Create paper repository
	paperRepo, err := badger.NewPaperRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	// Create chunk repository
	chunkRepo, err := badger.NewChunkRepository(backend)
	if err != nil {
		paperRepo.Close()
		backend.Close()
		return nil, err
	}

	// Create embedder with configured settings
	embedder, err := openai.NewEmbedder(options.aiConfig)
	if err != nil {
		chunkRepo.Close()
		paperRepo.Close()
		backend.Close()
		return nil, err
	}

	return &Database{
		backend:   backend,
		paperRepo: paperRepo,
		chunkRepo: chunkRepo,
		embedder:  embedder,
		aiConfig:  options.aiConfig,
		logger:    slog.Default(),
	}, nil
}

func (db *Database) Close() error {
	// Close repositories
	if err := db.chunkRepo.Close(); err != nil {
		db.logger.Error("error closing chunk repository", "err", err)
		return err
	}
	if err := db.paperRepo.Close(); err != nil {
		db.logger.Error("error closing paper repository", "err", err)
		return err
	}

	// Close backend
	if err := db.backend.Close(); err != nil {
		db.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}

func (db *Database) PaperRepository() storage.PaperRepository {
	return db.paperRepo
}

func (db *Database) ChunkRepository() storage.ChunkRepository {
	return db.chunkRepo
}

func (db *Database) Embedder() ai.Embedder {
	return db.embedder
}

func (db *Database) NewIngestionPipeline(opts ...ingestion.Option) (*ingestion.Pipeline, error) {
	defaults := []ingestion.Option{
		ingestion.WithDimension(db.aiConfig.Dimension),
		ingestion.WithPlaceholderFallback(db.aiConfig.PlaceholderFallback),
	}
	return ingestion.NewPipeline(db.paperRepo, db.chunkRepo, db.embedder,
		pdftext.NewExtractor(), append(defaults, opts...)...)
}

func (db *Database) NewSearcher(opts ...search.Option) (*search.Searcher, error) {
	return search.NewSearcher(db.chunkRepo, db.embedder, opts...)
}

func (db *Database) NewReembedder(config *reembed.Config, progress io.Writer) *reembed.Reembedder {
	return reembed.NewReembedder(db.paperRepo, db.chunkRepo, db.embedder, config, progress)
}
