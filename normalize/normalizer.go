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


package normalize

import (
	"fmt"
	stdhtml "html"
	"strings"

	"github.com/aaaton/golem/v4"
	"github.com/aaaton/golem/v4/dicts/en"
	"github.com/tmc/langchaingo/textsplitter"
	"golang.org/x/net/html"

	"github.com/poiesic/parlance/core"
)

const (
	defaultChunkSize    = 1000
	defaultChunkOverlap = 200
)

// Input is one raw content unit to normalize.
type Input struct {
	Raw           string
	HTML          bool
	Title         string
	FallbackTitle string
	Source        string
	Collection    string
	Kind          core.SourceKind
}

// Normalizer turns raw fetched content into clean, lemmatized documents.
// It holds no connections and performs no I/O; the same input always
// produces the same output.
type Normalizer struct {
	lemmatizer *golem.Lemmatizer
	splitter   textsplitter.RecursiveCharacter
}

// Option configures a Normalizer.
type Option func(*Normalizer)

// WithChunking overrides the chunk size and overlap used by Chunk.
func WithChunking(size, overlap int) Option {
	return func(n *Normalizer) {
		n.splitter = textsplitter.NewRecursiveCharacter(
			textsplitter.WithChunkSize(size),
			textsplitter.WithChunkOverlap(overlap),
		)
	}
}

// NewNormalizer creates a Normalizer with the English lemma dictionary and
// the default chunking of 1000 characters with 200 overlap.
func NewNormalizer(opts ...Option) (*Normalizer, error) {
	lemmatizer, err := golem.New(en.New())
	if err != nil {
		return nil, fmt.Errorf("loading lemma dictionary: %w", err)
	}

	n := &Normalizer{
		lemmatizer: lemmatizer,
		splitter: textsplitter.NewRecursiveCharacter(
			textsplitter.WithChunkSize(defaultChunkSize),
			textsplitter.WithChunkOverlap(defaultChunkOverlap),
		),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n, nil
}

// Normalize cleans the raw content and produces a document with folded
// metadata and lemmatized text. An empty result after cleaning yields
// core.ErrEmptyContent; a document that ends up with no title at all yields
// core.ErrMissingTitle.
func (n *Normalizer) Normalize(in Input) (*core.Document, error) {
	text := in.Raw
	if in.HTML {
		text = htmlToText(text)
	}
	text = collapseWhitespace(stdhtml.UnescapeString(text))
	if text == "" {
		return nil, core.ErrEmptyContent
	}

	title := strings.TrimSpace(in.Title)
	if title == "" {
		fallback := strings.TrimSpace(in.FallbackTitle)
		if fallback == "" {
			return nil, core.ErrMissingTitle
		}
		title = fallback + " " + in.Kind.TitleSuffix()
	}

	metadata := map[string]string{
		"title":       title,
		"collection":  in.Collection,
		"source_type": string(in.Kind),
	}
	if in.Source != "" {
		metadata["source"] = in.Source
	}

	return &core.Document{
		Content:        text,
		Metadata:       metadata,
		LemmatizedText: n.lemmatize(text),
	}, nil
}

// Chunk splits a normalized document into overlapping chunks, each carrying
// the parent's metadata and its own lemmatized text. Documents shorter than
// one chunk come back as a single-element slice.
func (n *Normalizer) Chunk(doc *core.Document) ([]*core.Document, error) {
	parts, err := n.splitter.SplitText(doc.Content)
	if err != nil {
		return nil, fmt.Errorf("splitting document: %w", err)
	}

	chunks := make([]*core.Document, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		metadata := make(map[string]string, len(doc.Metadata))
		for k, v := range doc.Metadata {
			metadata[k] = v
		}
		chunks = append(chunks, &core.Document{
			Content:        part,
			Metadata:       metadata,
			LemmatizedText: n.lemmatize(part),
		})
	}
	if len(chunks) == 0 {
		return nil, core.ErrEmptyContent
	}
	return chunks, nil
}

// lemmatize lowercases the text and maps each word to its dictionary lemma.
// Unknown words pass through lowercased.
func (n *Normalizer) lemmatize(text string) string {
	words := strings.Fields(strings.ToLower(text))
	for i, word := range words {
		stripped := strings.Trim(word, ".,;:!?()[]{}\"'`")
		if stripped == "" {
			continue
		}
		words[i] = n.lemmatizer.Lemma(stripped)
	}
	return strings.Join(words, " ")
}

// htmlToText extracts visible text from an HTML document, skipping script,
// style, and head content. Unparseable input passes through unchanged.
func htmlToText(raw string) string {
	doc, err := html.Parse(strings.NewReader(raw))
	if err != nil {
		return raw
	}

	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.ElementNode {
			switch node.Data {
			case "script", "style", "noscript", "head", "iframe":
				return
			}
		}
		if node.Type == html.TextNode {
			sb.WriteString(node.Data)
			sb.WriteString(" ")
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return sb.String()
}

func collapseWhitespace(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
