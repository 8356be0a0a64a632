package badger

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/poiesic/paperbase/core"
	"github.com/poiesic/paperbase/storage"
)

func addTestPaper(t *testing.T, repo storage.PaperRepository, text string) core.ID {
	t.Helper()
	added, err := repo.AddPapers(context.Background(), &core.Paper{
		FileName: "test.pdf",
		FullText: text,
	})
	if err != nil {
		t.Fatalf("Failed to add paper: %v", err)
	}
	return added[0].Id
}

func TestChunkBasics(t *testing.T) {
	paperRepo, chunkRepo, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer func() { chunkRepo.Close(); paperRepo.Close(); backend.Close() }()

	ctx := context.Background()
	paperID := addTestPaper(t, paperRepo, "Paper text for chunk basics.")

	chunk := &core.Chunk{
		PaperId: paperID,
		Text:    "Paper text for chunk basics.",
		Vector:  []float32{0.1, 0.2, 0.3},
		Metadata: core.ChunkMetadata{
			ChunkIndex: 0,
			PageNumber: 1,
		},
	}

	added, err := chunkRepo.AddChunks(ctx, chunk)
	if err != nil {
		t.Fatalf("Failed to add chunk: %v", err)
	}

	if len(added) != 1 {
		t.Fatalf("Expected 1 chunk, got %d", len(added))
	}
	if added[0].Id == 0 {
		t.Fatal("Expected non-zero ID")
	}
	if added[0].InsertedAt.IsZero() {
		t.Fatal("Expected InsertedAt to be set")
	}

	retrieved, err := chunkRepo.GetChunk(ctx, added[0].Id)
	if err != nil {
		t.Fatalf("Failed to get chunk: %v", err)
	}
	if retrieved.Text != chunk.Text {
		t.Fatalf("Expected '%s', got '%s'", chunk.Text, retrieved.Text)
	}
	if len(retrieved.Vector) != 3 {
		t.Fatalf("Expected 3-element vector, got %d", len(retrieved.Vector))
	}
	if retrieved.Metadata.PageNumber != 1 {
		t.Fatalf("Expected page 1, got %d", retrieved.Metadata.PageNumber)
	}
}

func TestGetChunksByPaper_Ordered(t *testing.T) {
	paperRepo, chunkRepo, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer func() { chunkRepo.Close(); paperRepo.Close(); backend.Close() }()

	ctx := context.Background()
	paperID := addTestPaper(t, paperRepo, "Ordered chunks paper.")

	// Insert out of index order
	for _, idx := range []int{2, 0, 3, 1} {
		chunk := &core.Chunk{
			PaperId:  paperID,
			Text:     fmt.Sprintf("Chunk number %d.", idx),
			Metadata: core.ChunkMetadata{ChunkIndex: idx},
		}
		if _, err := chunkRepo.AddChunks(ctx, chunk); err != nil {
			t.Fatalf("Failed to add chunk %d: %v", idx, err)
		}
	}

	chunks, err := chunkRepo.GetChunksByPaper(ctx, paperID)
	if err != nil {
		t.Fatalf("Failed to get chunks: %v", err)
	}
	if len(chunks) != 4 {
		t.Fatalf("Expected 4 chunks, got %d", len(chunks))
	}

	for i, chunk := range chunks {
		if chunk.Metadata.ChunkIndex != i {
			t.Errorf("Position %d holds chunk index %d", i, chunk.Metadata.ChunkIndex)
		}
	}
}

func TestGetChunkByIndex(t *testing.T) {
	paperRepo, chunkRepo, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer func() { chunkRepo.Close(); paperRepo.Close(); backend.Close() }()

	ctx := context.Background()
	paperID := addTestPaper(t, paperRepo, "Index lookups.")

	chunk := &core.Chunk{
		PaperId:  paperID,
		Text:     "The second chunk.",
		Metadata: core.ChunkMetadata{ChunkIndex: 1},
	}
	if _, err := chunkRepo.AddChunks(ctx, chunk); err != nil {
		t.Fatalf("Failed to add chunk: %v", err)
	}

	found, err := chunkRepo.GetChunkByIndex(ctx, paperID, 1)
	if err != nil {
		t.Fatalf("Failed to get chunk by index: %v", err)
	}
	if found.Text != "The second chunk." {
		t.Fatalf("Expected 'The second chunk.', got '%s'", found.Text)
	}

	_, err = chunkRepo.GetChunkByIndex(ctx, paperID, 7)
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
}

func TestUpdateChunks(t *testing.T) {
	paperRepo, chunkRepo, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer func() { chunkRepo.Close(); paperRepo.Close(); backend.Close() }()

	ctx := context.Background()
	paperID := addTestPaper(t, paperRepo, "Updates.")

	chunk := &core.Chunk{
		PaperId:  paperID,
		Text:     "Original text.",
		Vector:   []float32{1, 0},
		Metadata: core.ChunkMetadata{ChunkIndex: 0, Placeholder: true},
	}
	added, err := chunkRepo.AddChunks(ctx, chunk)
	if err != nil {
		t.Fatalf("Failed to add chunk: %v", err)
	}

	// Replace the vector and clear the placeholder flag, as reembedding does
	added[0].Vector = []float32{0.6, 0.8}
	added[0].Metadata.Placeholder = false

	if _, err := chunkRepo.UpdateChunks(ctx, added[0]); err != nil {
		t.Fatalf("Failed to update chunk: %v", err)
	}

	retrieved, err := chunkRepo.GetChunk(ctx, added[0].Id)
	if err != nil {
		t.Fatalf("Failed to get chunk: %v", err)
	}
	if retrieved.Metadata.Placeholder {
		t.Fatal("Expected placeholder flag to be cleared")
	}
	if retrieved.Vector[0] != 0.6 || retrieved.Vector[1] != 0.8 {
		t.Fatalf("Expected updated vector, got %v", retrieved.Vector)
	}
	if retrieved.UpdatedAt.Before(retrieved.InsertedAt) {
		t.Fatal("Expected UpdatedAt to be at or after InsertedAt")
	}
}

func TestUpdateChunks_NotFound(t *testing.T) {
	paperRepo, chunkRepo, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer func() { chunkRepo.Close(); paperRepo.Close(); backend.Close() }()

	ctx := context.Background()

	ghost := &core.Chunk{
		Id:      9999,
		PaperId: 1,
		Text:    "Never inserted.",
	}
	_, err = chunkRepo.UpdateChunks(ctx, ghost)
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
}

func TestCountChunks(t *testing.T) {
	paperRepo, chunkRepo, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer func() { chunkRepo.Close(); paperRepo.Close(); backend.Close() }()

	ctx := context.Background()

	count, err := chunkRepo.CountChunks(ctx)
	if err != nil {
		t.Fatalf("Failed to count chunks: %v", err)
	}
	if count != 0 {
		t.Fatalf("Expected 0 chunks, got %d", count)
	}

	paperID := addTestPaper(t, paperRepo, "Counting.")
	for i := 0; i < 5; i++ {
		chunk := &core.Chunk{
			PaperId:  paperID,
			Text:     fmt.Sprintf("Chunk %d.", i),
			Metadata: core.ChunkMetadata{ChunkIndex: i},
		}
		if _, err := chunkRepo.AddChunks(ctx, chunk); err != nil {
			t.Fatalf("Failed to add chunk: %v", err)
		}
	}

	count, err = chunkRepo.CountChunks(ctx)
	if err != nil {
		t.Fatalf("Failed to count chunks: %v", err)
	}
	if count != 5 {
		t.Fatalf("Expected 5 chunks, got %d", count)
	}
}

func TestGetChunks_SkipsMissing(t *testing.T) {
	paperRepo, chunkRepo, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer func() { chunkRepo.Close(); paperRepo.Close(); backend.Close() }()

	ctx := context.Background()
	paperID := addTestPaper(t, paperRepo, "Partial retrieval.")

	chunk := &core.Chunk{PaperId: paperID, Text: "Only chunk."}
	added, err := chunkRepo.AddChunks(ctx, chunk)
	if err != nil {
		t.Fatalf("Failed to add chunk: %v", err)
	}

	chunks, err := chunkRepo.GetChunks(ctx, added[0].Id, core.ID(12345))
	if err != nil {
		t.Fatalf("Failed to get chunks: %v", err)
	}
	if len(chunks) != 1 {
		t.Fatalf("Expected 1 chunk, got %d", len(chunks))
	}
}
