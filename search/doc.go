// Package search provides semantic retrieval over stored paper chunks.
//
// The Searcher type embeds a query, ranks stored chunks by cosine
// similarity against the query vector and joins each match with its owning
// paper. Embedding failures at query time are surfaced to the caller;
// storage-level ranking failures degrade to an empty result set.
//
// A SearchMonitor may be attached to observe the stages of a search for
// diagnostics.
package search
