package core

import (
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestChunkText_EmptyInput(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{name: "empty string", text: ""},
		{name: "whitespace only", text: "   \n\t  "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chunks := ChunkText(tt.text, DefaultMaxChars, DefaultOverlapSentences)
			if len(chunks) != 0 {
				t.Errorf("Expected no chunks, got %d", len(chunks))
			}
		})
	}
}

func TestChunkText_SingleSentence(t *testing.T) {
	chunks := ChunkText("Hello, world.", DefaultMaxChars, DefaultOverlapSentences)
	if len(chunks) != 1 {
		t.Fatalf("Expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0] != "Hello, world." {
		t.Errorf("Expected 'Hello, world.', got '%s'", chunks[0])
	}
}

func TestChunkText_ShortTextSingleChunk(t *testing.T) {
	text := "First sentence here. Second sentence here! Third sentence here?"
	chunks := ChunkText(text, DefaultMaxChars, DefaultOverlapSentences)
	if len(chunks) != 1 {
		t.Fatalf("Expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0] != text {
		t.Errorf("Expected '%s', got '%s'", text, chunks[0])
	}
}

func TestChunkText_BoundAndNoEmpty(t *testing.T) {
	var sb strings.Builder
	for i := 0; i < 200; i++ {
		fmt.Fprintf(&sb, "The quick brown fox jumps over the lazy dog number %d. ", i)
	}

	chunks := ChunkText(sb.String(), DefaultMaxChars, DefaultOverlapSentences)
	if len(chunks) < 2 {
		t.Fatalf("Expected multiple chunks, got %d", len(chunks))
	}

	for i, chunk := range chunks {
		if strings.TrimSpace(chunk) == "" {
			t.Errorf("Chunk %d is empty", i)
		}
		if n := utf8.RuneCountInString(chunk); n > DefaultMaxChars {
			t.Errorf("Chunk %d has %d chars, exceeds %d", i, n, DefaultMaxChars)
		}
	}
}

func TestChunkText_SentenceOverlap(t *testing.T) {
	// Eight sentences of exactly 20 characters each.
	sentences := make([]string, 8)
	for i := range sentences {
		sentences[i] = fmt.Sprintf("Alpha beta gamma %02d.", i+1)
		if n := utf8.RuneCountInString(sentences[i]); n != 20 {
			t.Fatalf("Test sentence %d has %d chars, expected 20", i, n)
		}
	}
	text := strings.Join(sentences, " ")

	chunks := ChunkText(text, 100, 2)
	if len(chunks) != 3 {
		t.Fatalf("Expected 3 chunks, got %d: %q", len(chunks), chunks)
	}

	// Each chunk after the first starts with the last two sentences of its
	// predecessor.
	want1 := strings.Join(sentences[0:4], " ")
	want2 := strings.Join(sentences[2:6], " ")
	want3 := strings.Join(sentences[4:8], " ")

	if chunks[0] != want1 {
		t.Errorf("Chunk 0: expected '%s', got '%s'", want1, chunks[0])
	}
	if chunks[1] != want2 {
		t.Errorf("Chunk 1: expected '%s', got '%s'", want2, chunks[1])
	}
	if chunks[2] != want3 {
		t.Errorf("Chunk 2: expected '%s', got '%s'", want3, chunks[2])
	}

	// Every input sentence survives into at least one chunk.
	joined := strings.Join(chunks, " ")
	for i, sentence := range sentences {
		if !strings.Contains(joined, sentence) {
			t.Errorf("Sentence %d missing from output", i)
		}
	}
}

func TestChunkText_CoverageReconstruction(t *testing.T) {
	// Sixty distinct sentences of 54 characters each. With maxChars=200 and
	// overlap=2 each chunk holds three sentences, so the text splits many
	// times and every boundary carries overlap.
	sentences := make([]string, 60)
	for i := range sentences {
		sentences[i] = fmt.Sprintf("Coverage sentence number %02d carries unique payload %02d.", i, i)
	}
	text := strings.Join(sentences, " ")

	chunks := ChunkText(text, 200, 2)
	if len(chunks) < 5 {
		t.Fatalf("Expected several chunks, got %d", len(chunks))
	}

	// Re-split every chunk and drop the overlapping repeats; the remaining
	// sentence sequence must reconstruct the input with nothing dropped,
	// duplicated, or reordered.
	seen := make(map[string]bool, len(sentences))
	var reconstructed []string
	for _, chunk := range chunks {
		for _, sentence := range splitSentences(chunk) {
			if seen[sentence] {
				continue
			}
			seen[sentence] = true
			reconstructed = append(reconstructed, sentence)
		}
	}

	if len(reconstructed) != len(sentences) {
		t.Fatalf("Reconstructed %d sentences, expected %d", len(reconstructed), len(sentences))
	}
	for i := range sentences {
		if reconstructed[i] != sentences[i] {
			t.Errorf("Sentence %d: expected '%s', got '%s'", i, sentences[i], reconstructed[i])
		}
	}
}

func TestChunkText_RunOnText(t *testing.T) {
	// 10,000 characters without a single sentence terminator.
	text := strings.Repeat("a", 10000)

	chunks := ChunkText(text, DefaultMaxChars, DefaultOverlapSentences)
	if len(chunks) != 7 {
		t.Fatalf("Expected 7 chunks, got %d", len(chunks))
	}

	total := 0
	for i, chunk := range chunks {
		n := utf8.RuneCountInString(chunk)
		if n > DefaultMaxChars {
			t.Errorf("Chunk %d has %d chars, exceeds %d", i, n, DefaultMaxChars)
		}
		total += n
	}
	if total != 10000 {
		t.Errorf("Expected 10000 chars total, got %d", total)
	}
}

func TestChunkText_OversizedSentenceHardSplit(t *testing.T) {
	text := "Short one. " + strings.Repeat("x", 250) + ". Tail here."

	chunks := ChunkText(text, 100, 2)
	if len(chunks) != 5 {
		t.Fatalf("Expected 5 chunks, got %d: %q", len(chunks), chunks)
	}

	if chunks[0] != "Short one." {
		t.Errorf("Expected 'Short one.', got '%s'", chunks[0])
	}
	if chunks[4] != "Tail here." {
		t.Errorf("Expected 'Tail here.', got '%s'", chunks[4])
	}
	for i, chunk := range chunks {
		if n := utf8.RuneCountInString(chunk); n > 100 {
			t.Errorf("Chunk %d has %d chars, exceeds 100", i, n)
		}
	}
}

func TestChunkText_UnicodeRuneCounting(t *testing.T) {
	// Multi-byte runes must be counted as single characters.
	text := strings.Repeat("é", 120)

	chunks := ChunkText(text, 50, 0)
	if len(chunks) != 3 {
		t.Fatalf("Expected 3 chunks, got %d", len(chunks))
	}

	wantLens := []int{50, 50, 20}
	for i, chunk := range chunks {
		if n := utf8.RuneCountInString(chunk); n != wantLens[i] {
			t.Errorf("Chunk %d has %d runes, expected %d", i, n, wantLens[i])
		}
	}
}

func TestChunkText_Deterministic(t *testing.T) {
	var sb strings.Builder
	for i := 0; i < 50; i++ {
		fmt.Fprintf(&sb, "Determinism check sentence number %d! ", i)
	}
	text := sb.String()

	first := ChunkText(text, 200, 2)
	second := ChunkText(text, 200, 2)

	if len(first) != len(second) {
		t.Fatalf("Chunk counts differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("Chunk %d differs between runs", i)
		}
	}
}

func TestChunkText_InvalidParamsFallBackToDefaults(t *testing.T) {
	text := "One sentence. Another sentence. A third sentence."

	chunks := ChunkText(text, 0, -1)
	if len(chunks) != 1 {
		t.Fatalf("Expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0] != text {
		t.Errorf("Expected '%s', got '%s'", text, chunks[0])
	}
}
