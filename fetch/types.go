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


package fetch

import (
	"context"

	"github.com/poiesic/parlance/core"
)

// Page is one unit of raw fetched content. For crawled sites each page is
// one URL with its raw HTML; for PDFs and videos there is a single page of
// extracted text.
type Page struct {
	Source  string
	Title   string
	Content string
	HTML    bool
}

// Result is the outcome of fetching one source reference.
type Result struct {
	Kind      core.SourceKind
	Reference string
	Pages     []Page
}

// Renderer loads a page in a real browser and returns the rendered HTML.
// It is the fallback for pages that serve an empty shell to plain HTTP
// clients.
type Renderer interface {
	Render(ctx context.Context, url string) (string, error)
}

// ContentFetcher retrieves raw content for a source reference.
type ContentFetcher interface {
	Fetch(ctx context.Context, kind core.SourceKind, reference string) (*Result, error)
}
