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
	"regexp"
	"strings"
	"unicode/utf8"
)

// Chunking defaults used by the ingestion pipeline.
const (
	// DefaultMaxChars bounds chunk length in characters. The bound keeps
	// retrieval granularity and embedding input size predictable.
	DefaultMaxChars = 1500

	// DefaultOverlapSentences is the number of trailing sentences repeated
	// at the start of the next chunk to preserve cross-boundary context.
	DefaultOverlapSentences = 3
)

// A sentence is the maximal run of characters up to and including a terminal
// punctuation mark followed by whitespace or end-of-input.
var sentencePattern = regexp.MustCompile(`[^.!?]+[.!?]?(?:\s+|$)`)

// ChunkText splits text into an ordered sequence of non-empty chunks, each at
// most maxChars characters long. Sentences are accumulated greedily; when a
// chunk fills up, the last overlapSentences sentences are repeated at the
// start of the next chunk. A single sentence longer than maxChars is
// hard-split at character boundaries.
//
// The function is pure and deterministic. Lengths are measured in runes.
// Non-positive maxChars and negative overlapSentences fall back to the
// package defaults.
func ChunkText(text string, maxChars, overlapSentences int) []string {
	if maxChars <= 0 {
		maxChars = DefaultMaxChars
	}
	if overlapSentences < 0 {
		overlapSentences = DefaultOverlapSentences
	}

	if strings.TrimSpace(text) == "" {
		return nil
	}

	sentences := splitSentences(text)
	if len(sentences) == 0 {
		// No sentence boundaries at all; fall back to raw character splitting.
		return chunkRaw(text, maxChars)
	}

	var chunks []string
	var buffer []string

	for _, sentence := range sentences {
		if utf8.RuneCountInString(sentence) > maxChars {
			// Oversized indivisible unit: flush what we have, then hard-split
			// the sentence into its own chunks. No overlap is carried across
			// a hard split.
			chunks = append(chunks, flushBuffer(buffer, maxChars)...)
			chunks = append(chunks, chunkRaw(sentence, maxChars)...)
			buffer = nil
			continue
		}

		if joinedRuneLen(buffer, sentence) <= maxChars {
			buffer = append(buffer, sentence)
			continue
		}

		// Appending would exceed the budget: flush the buffer and seed the
		// next one with the trailing overlap sentences plus this sentence.
		chunks = append(chunks, flushBuffer(buffer, maxChars)...)
		keep := overlapSentences
		if keep > len(buffer) {
			keep = len(buffer)
		}
		next := make([]string, 0, keep+1)
		next = append(next, buffer[len(buffer)-keep:]...)
		buffer = append(next, sentence)
	}

	chunks = append(chunks, flushBuffer(buffer, maxChars)...)
	return chunks
}

// splitSentences applies the boundary heuristic, trimming each sentence and
// discarding empty results.
func splitSentences(text string) []string {
	matches := sentencePattern.FindAllString(text, -1)
	sentences := make([]string, 0, len(matches))
	for _, m := range matches {
		if s := strings.TrimSpace(m); s != "" {
			sentences = append(sentences, s)
		}
	}
	return sentences
}

// flushBuffer joins the buffered sentences into completed chunks. Overlap
// seeding can push a buffer past the budget; the raw splitter restores the
// bound in that case, so callers never emit an oversized chunk.
func flushBuffer(buffer []string, maxChars int) []string {
	if len(buffer) == 0 {
		return nil
	}
	joined := strings.TrimSpace(strings.Join(buffer, " "))
	if joined == "" {
		return nil
	}
	if utf8.RuneCountInString(joined) > maxChars {
		return chunkRaw(joined, maxChars)
	}
	return []string{joined}
}

// chunkRaw repeatedly cuts off the first maxChars characters as a chunk,
// trimming whitespace and discarding empty pieces. Used only for text with
// no usable sentence boundaries.
func chunkRaw(text string, maxChars int) []string {
	var pieces []string
	runes := []rune(strings.TrimSpace(text))
	for len(runes) > 0 {
		cut := maxChars
		if cut > len(runes) {
			cut = len(runes)
		}
		if piece := strings.TrimSpace(string(runes[:cut])); piece != "" {
			pieces = append(pieces, piece)
		}
		runes = []rune(strings.TrimSpace(string(runes[cut:])))
	}
	return pieces
}

// joinedRuneLen returns the rune length of the buffer joined with sentence
// by single spaces, without building the string.
func joinedRuneLen(buffer []string, sentence string) int {
	n := utf8.RuneCountInString(sentence)
	for _, s := range buffer {
		n += utf8.RuneCountInString(s) + 1
	}
	return n
}
