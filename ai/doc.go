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

// Package ai provides abstractions for the embedding services used in paperbase.
//
// This package defines the Embedder interface for turning text into dense
// vectors, following the dependency inversion principle: the ingestion
// pipeline and searcher depend on the abstraction, not on a concrete
// provider.
//
// # Implementation Packages
//
//   - ai/openai: Production implementation using OpenAI-compatible APIs
//   - ai/mock: Test doubles for unit testing without external dependencies
//
// # Constructor Return Type Pattern
//
// Public constructors (openai.NewEmbedder) return INTERFACE types to enforce
// abstraction. Test utility constructors (mock.NewMockEmbedder) return
// CONCRETE types to enable behavior injection and call-count assertions.
//
// # Degraded Mode
//
// PlaceholderVector produces deterministic fake embeddings for offline or
// credential-less operation. The fallback is gated by an explicit
// configuration flag and must never activate silently; chunks embedded this
// way carry a placeholder marker in their metadata.
package ai
