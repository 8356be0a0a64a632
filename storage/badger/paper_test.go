package badger

import (
	"context"
	"errors"
	"testing"

	"github.com/poiesic/paperbase/core"
	"github.com/poiesic/paperbase/storage"
)

func TestPaperBasics(t *testing.T) {
	// Create in-memory repositories
	paperRepo, chunkRepo, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer func() {
		chunkRepo.Close()
		paperRepo.Close()
		backend.Close()
	}()

	ctx := context.Background()

	// Test adding a paper
	paper := &core.Paper{
		FileName:  "attention.pdf",
		FullText:  "Attention is all you need. The dominant sequence transduction models.",
		PageCount: 11,
	}

	added, err := paperRepo.AddPapers(ctx, paper)
	if err != nil {
		t.Fatalf("Failed to add paper: %v", err)
	}

	if len(added) != 1 {
		t.Fatalf("Expected 1 paper, got %d", len(added))
	}

	if added[0].Id == 0 {
		t.Fatal("Expected non-zero ID")
	}

	if added[0].Id != core.IDFromContent(paper.FullText) {
		t.Fatal("Expected ID derived from content")
	}

	if added[0].InsertedAt.IsZero() {
		t.Fatal("Expected InsertedAt to be set")
	}

	// Test retrieving the paper
	retrieved, err := paperRepo.GetPaper(ctx, added[0].Id)
	if err != nil {
		t.Fatalf("Failed to get paper: %v", err)
	}

	if retrieved.FileName != "attention.pdf" {
		t.Fatalf("Expected 'attention.pdf', got '%s'", retrieved.FileName)
	}
	if retrieved.PageCount != 11 {
		t.Fatalf("Expected 11 pages, got %d", retrieved.PageCount)
	}
}

func TestAddPapers_DuplicateContent(t *testing.T) {
	paperRepo, chunkRepo, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer func() { chunkRepo.Close(); paperRepo.Close(); backend.Close() }()

	ctx := context.Background()

	first := &core.Paper{FileName: "a.pdf", FullText: "Identical text."}
	if _, err := paperRepo.AddPapers(ctx, first); err != nil {
		t.Fatalf("Failed to add paper: %v", err)
	}

	// Same content under a different file name hashes to the same ID.
	second := &core.Paper{FileName: "b.pdf", FullText: "Identical text."}
	_, err = paperRepo.AddPapers(ctx, second)
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Fatalf("Expected ErrDuplicateKey, got %v", err)
	}
}

func TestGetPaperByFileName(t *testing.T) {
	paperRepo, chunkRepo, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer func() { chunkRepo.Close(); paperRepo.Close(); backend.Close() }()

	ctx := context.Background()

	paper := &core.Paper{FileName: "resnet.pdf", FullText: "Deep residual learning."}
	added, err := paperRepo.AddPapers(ctx, paper)
	if err != nil {
		t.Fatalf("Failed to add paper: %v", err)
	}

	found, err := paperRepo.GetPaperByFileName(ctx, "resnet.pdf")
	if err != nil {
		t.Fatalf("Failed to get paper by file name: %v", err)
	}
	if found.Id != added[0].Id {
		t.Fatalf("Expected ID %d, got %d", added[0].Id, found.Id)
	}

	_, err = paperRepo.GetPaperByFileName(ctx, "missing.pdf")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
}

func TestListPapers(t *testing.T) {
	paperRepo, chunkRepo, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer func() { chunkRepo.Close(); paperRepo.Close(); backend.Close() }()

	ctx := context.Background()

	papers := []*core.Paper{
		{FileName: "one.pdf", FullText: "First paper text."},
		{FileName: "two.pdf", FullText: "Second paper text."},
		{FileName: "three.pdf", FullText: "Third paper text."},
	}
	if _, err := paperRepo.AddPapers(ctx, papers...); err != nil {
		t.Fatalf("Failed to add papers: %v", err)
	}

	listed, err := paperRepo.ListPapers(ctx)
	if err != nil {
		t.Fatalf("Failed to list papers: %v", err)
	}
	if len(listed) != 3 {
		t.Fatalf("Expected 3 papers, got %d", len(listed))
	}
}

func TestDeletePapers_CascadesToChunks(t *testing.T) {
	paperRepo, chunkRepo, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer func() { chunkRepo.Close(); paperRepo.Close(); backend.Close() }()

	ctx := context.Background()

	paper := &core.Paper{FileName: "doomed.pdf", FullText: "A paper about to be deleted."}
	added, err := paperRepo.AddPapers(ctx, paper)
	if err != nil {
		t.Fatalf("Failed to add paper: %v", err)
	}
	paperID := added[0].Id

	chunks := []*core.Chunk{
		{PaperId: paperID, Text: "Chunk zero.", Metadata: core.ChunkMetadata{ChunkIndex: 0}},
		{PaperId: paperID, Text: "Chunk one.", Metadata: core.ChunkMetadata{ChunkIndex: 1}},
	}
	addedChunks, err := chunkRepo.AddChunks(ctx, chunks...)
	if err != nil {
		t.Fatalf("Failed to add chunks: %v", err)
	}

	if err := paperRepo.DeletePapers(ctx, paperID); err != nil {
		t.Fatalf("Failed to delete paper: %v", err)
	}

	if _, err := paperRepo.GetPaper(ctx, paperID); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound for deleted paper, got %v", err)
	}

	// Chunks must be gone too
	for _, chunk := range addedChunks {
		if _, err := chunkRepo.GetChunk(ctx, chunk.Id); !errors.Is(err, storage.ErrNotFound) {
			t.Fatalf("Expected ErrNotFound for cascaded chunk %d, got %v", chunk.Id, err)
		}
	}

	remaining, err := chunkRepo.GetChunksByPaper(ctx, paperID)
	if err != nil {
		t.Fatalf("Failed to list chunks: %v", err)
	}
	if len(remaining) != 0 {
		t.Fatalf("Expected 0 chunks after cascade, got %d", len(remaining))
	}
}

func TestAddPapers_Invalid(t *testing.T) {
	paperRepo, chunkRepo, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer func() { chunkRepo.Close(); paperRepo.Close(); backend.Close() }()

	ctx := context.Background()

	_, err = paperRepo.AddPapers(ctx, &core.Paper{FileName: "blank.pdf", FullText: "  "})
	if !errors.Is(err, core.ErrInvalidPaper) {
		t.Fatalf("Expected ErrInvalidPaper, got %v", err)
	}
}
