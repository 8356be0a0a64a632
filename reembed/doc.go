// Package reembed provides functionality for reembedding stored chunks
// with a new or updated embedding model.
//
// This package supports batch processing of chunks, progress tracking,
// retry logic with exponential backoff, and vector normalization to ensure
// compatibility with cosine similarity search. Chunks carrying placeholder
// vectors get real embeddings and have their degraded flag cleared.
package reembed
