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

package reembed

import (
	"context"

	"github.com/poiesic/paperbase/core"
	"github.com/poiesic/paperbase/storage"
)

const (
	// DefaultBatchSize is the default number of chunks to process in each batch
	DefaultBatchSize = 100
)

// ChunkIterator iterates over all stored chunks in batches, paper by paper.
type ChunkIterator struct {
	paperRepo storage.PaperRepository
	chunkRepo storage.ChunkRepository
	batchSize int
}

// NewChunkIterator creates a new chunk iterator.
// batchSize: number of chunks to hand to fn in each batch (must be > 0)
func NewChunkIterator(paperRepo storage.PaperRepository, chunkRepo storage.ChunkRepository, batchSize int) *ChunkIterator {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	return &ChunkIterator{
		paperRepo: paperRepo,
		chunkRepo: chunkRepo,
		batchSize: batchSize,
	}
}

// ForEach iterates over the chunks of every paper, calling fn for each
// batch. Batches never span papers. Iteration stops on first error from fn.
// Context cancellation is checked between batches.
func (it *ChunkIterator) ForEach(ctx context.Context, fn func([]*core.Chunk) error) error {
	papers, err := it.paperRepo.ListPapers(ctx)
	if err != nil {
		return err
	}

	for _, paper := range papers {
		chunks, err := it.chunkRepo.GetChunksByPaper(ctx, paper.Id)
		if err != nil {
			return err
		}

		for i := 0; i < len(chunks); i += it.batchSize {
			end := i + it.batchSize
			if end > len(chunks) {
				end = len(chunks)
			}

			if err := fn(chunks[i:end]); err != nil {
				return err
			}

			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
		}
	}

	return nil
}

// Count returns the total number of stored chunks.
func (it *ChunkIterator) Count(ctx context.Context) (int, error) {
	count, err := it.chunkRepo.CountChunks(ctx)
	if err != nil {
		return 0, err
	}
	return count, nil
}
