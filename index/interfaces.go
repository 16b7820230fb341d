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

import (
	"context"

	"github.com/poiesic/parlance/core"
)

// Entry is one embedded chunk stored in a collection. The fingerprint keys
// the entry within its collection, making repeated upserts idempotent.
type Entry struct {
	Fingerprint core.Fingerprint
	Content     string
	Metadata    map[string]string
	Vector      []float32
}

// Match is a search hit with its cosine similarity score, higher is closer.
type Match struct {
	Entry
	Score float32
}

// VectorIndex stores embedded chunks grouped into named collections and
// serves nearest-neighbor queries over them.
type VectorIndex interface {
	// CreateCollection registers a new collection atomically. If the name
	// is already taken, even by a concurrent ingest, it returns
	// ErrCollectionConflict and changes nothing.
	CreateCollection(ctx context.Context, name string, dim int) (*core.Collection, error)

	// CollectionExists reports whether the named collection is present.
	CollectionExists(ctx context.Context, name string) (bool, error)

	// GetCollection retrieves collection metadata, or ErrCollectionNotFound.
	GetCollection(ctx context.Context, name string) (*core.Collection, error)

	// DropCollection removes a collection and all its entries.
	DropCollection(ctx context.Context, name string) error

	// Upsert writes entries into a collection, replacing any entry with the
	// same fingerprint. The collection must exist.
	Upsert(ctx context.Context, collection string, entries []Entry) error

	// SimilaritySearch returns up to k entries closest to vector, best
	// first. A missing collection yields ErrCollectionNotFound.
	SimilaritySearch(ctx context.Context, collection string, vector []float32, k int) ([]Match, error)

	// Count reports the number of entries in a collection.
	Count(ctx context.Context, collection string) (int64, error)

	// Close releases the index resources.
	Close() error
}
