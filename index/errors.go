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


package index

import "errors"

var (
	// ErrCollectionConflict indicates the named collection already holds
	// embeddings, so the ingest was refused rather than duplicated.
	ErrCollectionConflict = errors.New("collection already exists")

	// ErrCollectionNotFound indicates a search against a collection that
	// was never ingested.
	ErrCollectionNotFound = errors.New("collection not found")

	// ErrEmbeddingService indicates the embedding backend failed for every
	// document in a batch.
	ErrEmbeddingService = errors.New("embedding service unavailable")

	// ErrNoDocuments indicates an ingest was attempted with nothing to store.
	ErrNoDocuments = errors.New("no documents to index")

	// ErrDimensionMismatch indicates a vector whose dimensionality does not
	// match the collection it targets.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrIndexClosed indicates an operation on a closed index.
	ErrIndexClosed = errors.New("vector index is closed")
)
