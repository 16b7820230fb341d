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
	"bytes"
	"context"
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/tmc/langchaingo/documentloaders"

	"github.com/poiesic/parlance/core"
)

// fetchPDF downloads the document and extracts its text, one page of
// combined text per result.
func (f *Fetcher) fetchPDF(ctx context.Context, reference string) (*Result, error) {
	var body string
	err := withRetry(ctx, f.logger, f.attempts, f.retryWait, func() error {
		var opErr error
		body, opErr = f.get(ctx, reference)
		return opErr
	})
	if err != nil {
		return nil, err
	}

	data := []byte(body)
	loader := documentloaders.NewPDF(bytes.NewReader(data), int64(len(data)))
	docs, err := loader.Load(ctx)
	if err != nil {
		return nil, permanentErr(reference, fmt.Errorf("extracting pdf text: %w", err))
	}

	var text strings.Builder
	for _, doc := range docs {
		if doc.PageContent == "" {
			continue
		}
		if text.Len() > 0 {
			text.WriteString("\n\n")
		}
		text.WriteString(doc.PageContent)
	}
	if text.Len() == 0 {
		return nil, permanentErr(reference, ErrNoContent)
	}

	f.logger.Info("pdf fetched", "reference", reference, "pages", len(docs))
	return &Result{
		Kind:      core.SourceKindPDF,
		Reference: reference,
		Pages: []Page{{
			Source:  reference,
			Title:   pdfTitle(reference),
			Content: text.String(),
		}},
	}, nil
}

// pdfTitle derives a title from the document file name.
func pdfTitle(reference string) string {
	u, err := url.Parse(reference)
	if err != nil {
		return ""
	}
	name := path.Base(u.Path)
	name = strings.TrimSuffix(name, path.Ext(name))
	return strings.ReplaceAll(name, "_", " ")
}
