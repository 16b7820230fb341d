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


package ingestion

import "errors"

var (
	// ErrFetcherRequired indicates a nil content fetcher was passed.
	ErrFetcherRequired = errors.New("content fetcher is required")

	// ErrNormalizerRequired indicates a nil normalizer was passed.
	ErrNormalizerRequired = errors.New("normalizer is required")

	// ErrIndexerRequired indicates a nil indexer was passed.
	ErrIndexerRequired = errors.New("indexer is required")

	// ErrNoReferences indicates an ingest request with nothing to fetch.
	ErrNoReferences = errors.New("no source references")

	// ErrNothingIngested indicates every reference in the batch was skipped,
	// so no collection was created.
	ErrNothingIngested = errors.New("no reference yielded usable content")
)
