package ai

import "hash/fnv"

// PlaceholderVector generates a degraded-mode embedding with dim components,
// each a deterministic pseudo-random value in [-1, 1) seeded from the text.
// Identical text always yields the identical vector, so re-ingesting in
// offline mode stays reproducible. Placeholder vectors carry no semantic
// meaning and must be flagged wherever they are stored.
func PlaceholderVector(text string, dim int) []float32 {
	h := fnv.New32a()
	h.Write([]byte(text))
	seed := h.Sum32()

	vector := make([]float32, dim)
	for i := 0; i < dim; i++ {
		seed = seed*1664525 + 1013904223 // LCG constants
		vector[i] = float32(seed%2000)/1000.0 - 1.0
	}
	return vector
}
