package normalize

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/parlance/core"
)

func newNormalizer(t *testing.T, opts ...Option) *Normalizer {
	t.Helper()
	n, err := NewNormalizer(opts...)
	require.NoError(t, err)
	return n
}

func TestNormalize_StripsMarkup(t *testing.T) {
	n := newNormalizer(t)

	doc, err := n.Normalize(Input{
		Raw: `<html><head><title>ignored</title><script>var x = 1;</script></head>
			<body><h1>Shipping &amp; Returns</h1><p>Items ship within   two days.</p>
			<style>p { color: red }</style></body></html>`,
		HTML:       true,
		Title:      "Shipping Policy",
		Collection: "store-docs",
		Kind:       core.SourceKindURL,
	})
	require.NoError(t, err)

	assert.Contains(t, doc.Content, "Shipping & Returns")
	assert.Contains(t, doc.Content, "Items ship within two days.")
	assert.NotContains(t, doc.Content, "var x")
	assert.NotContains(t, doc.Content, "color: red")
	assert.NotContains(t, doc.Content, "<p>")
}

func TestNormalize_PlainText(t *testing.T) {
	n := newNormalizer(t)

	doc, err := n.Normalize(Input{
		Raw:        "  a  transcript\n\nwith   odd spacing  ",
		Title:      "Talk",
		Collection: "talks",
		Kind:       core.SourceKindVideo,
	})
	require.NoError(t, err)
	assert.Equal(t, "a transcript with odd spacing", doc.Content)
}

func TestNormalize_Metadata(t *testing.T) {
	n := newNormalizer(t)

	doc, err := n.Normalize(Input{
		Raw:        "content",
		Title:      "A Title",
		Source:     "https://example.com/page",
		Collection: "docs",
		Kind:       core.SourceKindURL,
	})
	require.NoError(t, err)

	assert.Equal(t, "A Title", doc.Metadata["title"])
	assert.Equal(t, "docs", doc.Metadata["collection"])
	assert.Equal(t, "url", doc.Metadata["source_type"])
	assert.Equal(t, "https://example.com/page", doc.Metadata["source"])
	assert.Equal(t, "A Title", doc.Title())
}

func TestNormalize_TitleFallback(t *testing.T) {
	n := newNormalizer(t)

	tests := []struct {
		name string
		kind core.SourceKind
		want string
	}{
		{"url", core.SourceKindURL, "acme-docs Web"},
		{"pdf", core.SourceKindPDF, "acme-docs PDF"},
		{"video", core.SourceKindVideo, "acme-docs Video"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := n.Normalize(Input{
				Raw:           "content",
				FallbackTitle: "acme-docs",
				Collection:    "acme-docs",
				Kind:          tt.kind,
			})
			require.NoError(t, err)
			assert.Equal(t, tt.want, doc.Metadata["title"])
		})
	}
}

func TestNormalize_Errors(t *testing.T) {
	n := newNormalizer(t)

	t.Run("empty after cleaning", func(t *testing.T) {
		_, err := n.Normalize(Input{
			Raw:   "<html><script>only code</script></html>",
			HTML:  true,
			Title: "T",
			Kind:  core.SourceKindURL,
		})
		assert.ErrorIs(t, err, core.ErrEmptyContent)
	})

	t.Run("no title and no fallback", func(t *testing.T) {
		_, err := n.Normalize(Input{Raw: "content", Kind: core.SourceKindURL})
		assert.ErrorIs(t, err, core.ErrMissingTitle)
	})
}

func TestNormalize_Lemmatizes(t *testing.T) {
	n := newNormalizer(t)

	doc, err := n.Normalize(Input{
		Raw:   "The cats were running faster",
		Title: "T",
		Kind:  core.SourceKindURL,
	})
	require.NoError(t, err)

	assert.Contains(t, doc.LemmatizedText, "cat")
	assert.NotContains(t, doc.LemmatizedText, "cats")
	// content keeps the original wording
	assert.Contains(t, doc.Content, "cats")
}

func TestNormalize_Deterministic(t *testing.T) {
	n := newNormalizer(t)
	in := Input{Raw: "Same input, same output.", Title: "T", Kind: core.SourceKindURL}

	first, err := n.Normalize(in)
	require.NoError(t, err)
	second, err := n.Normalize(in)
	require.NoError(t, err)

	assert.Equal(t, first.Content, second.Content)
	assert.Equal(t, first.LemmatizedText, second.LemmatizedText)
	assert.Equal(t, first.Fingerprint(), second.Fingerprint())
}

func TestChunk_ShortDocumentSingleChunk(t *testing.T) {
	n := newNormalizer(t)

	doc, err := n.Normalize(Input{Raw: "short content", Title: "T", Kind: core.SourceKindURL})
	require.NoError(t, err)

	chunks, err := n.Chunk(doc)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, doc.Content, chunks[0].Content)
	assert.Equal(t, doc.Metadata["title"], chunks[0].Metadata["title"])
}

func TestChunk_LongDocumentOverlaps(t *testing.T) {
	n := newNormalizer(t, WithChunking(100, 20))

	var sb strings.Builder
	for i := 0; i < 60; i++ {
		sb.WriteString("sentence number one is here. ")
	}
	doc, err := n.Normalize(Input{Raw: sb.String(), Title: "Long", Kind: core.SourceKindURL})
	require.NoError(t, err)

	chunks, err := n.Chunk(doc)
	require.NoError(t, err)
	assert.Greater(t, len(chunks), 1)
	for _, chunk := range chunks {
		assert.LessOrEqual(t, len(chunk.Content), 120)
		assert.Equal(t, "Long", chunk.Metadata["title"])
		assert.NotEmpty(t, chunk.LemmatizedText)
	}
}

func TestChunk_MetadataIsolation(t *testing.T) {
	n := newNormalizer(t, WithChunking(50, 10))

	doc, err := n.Normalize(Input{
		Raw:   strings.Repeat("many words in this text. ", 20),
		Title: "T",
		Kind:  core.SourceKindURL,
	})
	require.NoError(t, err)

	chunks, err := n.Chunk(doc)
	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)

	chunks[0].Metadata["title"] = "mutated"
	assert.Equal(t, "T", chunks[1].Metadata["title"])
	assert.Equal(t, "T", doc.Metadata["title"])
}
