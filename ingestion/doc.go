// Package ingestion provides pipeline orchestration for loading papers.
//
// The Pipeline type manages the ingestion workflow for paper documents,
// including:
//   - Extracting text from PDF files
//   - Splitting the text into sentence-aware chunks
//   - Generating embeddings for each chunk
//   - Persisting papers and chunks to storage
//
// Files are processed concurrently using worker pools to maximize
// throughput. Per-file failures during directory ingestion are logged but
// do not fail the remaining files.
package ingestion
