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

package core

import (
	"fmt"
	"strings"
)

// ValidatePaper validates a Paper according to domain rules.
//
// Validation rules:
//   - FullText must not be empty or all-whitespace
//
// NOT validated:
//   - FileName (papers ingested from raw text have none)
//   - ID (populated from content hash at insert time)
func ValidatePaper(paper *Paper) error {
	if paper == nil {
		return fmt.Errorf("%w: paper is nil", ErrInvalidPaper)
	}

	if strings.TrimSpace(paper.FullText) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidPaper, ErrEmptyText)
	}

	return nil
}

// ValidateChunk validates a Chunk according to domain rules.
//
// Validation rules:
//   - Text must not be empty or all-whitespace
//   - PaperId must be set
//   - Metadata.ChunkIndex must not be negative
//
// NOT validated (populated later in the pipeline):
//   - Vector (can be empty until embedding completes)
//   - ID (0 is valid before database sequences assign one)
func ValidateChunk(chunk *Chunk) error {
	if chunk == nil {
		return fmt.Errorf("%w: chunk is nil", ErrInvalidChunk)
	}

	if strings.TrimSpace(chunk.Text) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrEmptyText)
	}

	if chunk.PaperId == 0 {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrMissingPaperRef)
	}

	if chunk.Metadata.ChunkIndex < 0 {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrNegativeChunkIndex)
	}

	return nil
}
