package index_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/parlance/ai/mock"
	"github.com/poiesic/parlance/core"
	"github.com/poiesic/parlance/index"
	"github.com/poiesic/parlance/index/memory"
)

func newDoc(content, title string) *core.Document {
	return &core.Document{
		Content:  content,
		Metadata: map[string]string{"title": title},
	}
}

func TestIndexer_EmbedAndStore(t *testing.T) {
	ix := memory.NewIndex()
	defer ix.Close()
	indexer := index.NewIndexer(ix, mock.NewMockEmbedder())
	ctx := context.Background()

	docs := []*core.Document{
		newDoc("the warranty covers two years", "Warranty"),
		newDoc("returns are accepted within 30 days", "Returns"),
	}

	stored, err := indexer.EmbedAndStore(ctx, "support-docs", docs)
	require.NoError(t, err)
	assert.Equal(t, 2, stored)

	count, err := ix.Count(ctx, "support-docs")
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	meta, err := ix.GetCollection(ctx, "support-docs")
	require.NoError(t, err)
	assert.Equal(t, 384, meta.EmbeddingDim)
}

func TestIndexer_ConflictOnExistingCollection(t *testing.T) {
	ix := memory.NewIndex()
	defer ix.Close()
	embedder := mock.NewMockEmbedder()
	indexer := index.NewIndexer(ix, embedder)
	ctx := context.Background()

	_, err := indexer.EmbedAndStore(ctx, "support-docs", []*core.Document{newDoc("text", "T")})
	require.NoError(t, err)

	before, err := ix.Count(ctx, "support-docs")
	require.NoError(t, err)

	_, err = indexer.EmbedAndStore(ctx, "support-docs", []*core.Document{newDoc("other", "O")})
	assert.ErrorIs(t, err, index.ErrCollectionConflict)

	after, err := ix.Count(ctx, "support-docs")
	require.NoError(t, err)
	assert.Equal(t, before, after, "refused ingest must not touch the collection")
}

func TestIndexer_AllEmbeddingsFail(t *testing.T) {
	ix := memory.NewIndex()
	defer ix.Close()

	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		return nil, errors.New("backend down")
	}
	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return nil, errors.New("backend down")
	}

	indexer := index.NewIndexer(ix, embedder)
	ctx := context.Background()

	_, err := indexer.EmbedAndStore(ctx, "support-docs", []*core.Document{
		newDoc("a", "A"), newDoc("b", "B"),
	})
	assert.ErrorIs(t, err, index.ErrEmbeddingService)

	exists, err := ix.CollectionExists(ctx, "support-docs")
	require.NoError(t, err)
	assert.False(t, exists, "failed ingest must not create the collection")
}

func TestIndexer_PartialEmbeddingFailure(t *testing.T) {
	ix := memory.NewIndex()
	defer ix.Close()

	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		return nil, errors.New("batch endpoint down")
	}
	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		if text == "poison" {
			return nil, errors.New("bad input")
		}
		return []float32{1, 2, 3}, nil
	}

	indexer := index.NewIndexer(ix, embedder)
	ctx := context.Background()

	stored, err := indexer.EmbedAndStore(ctx, "support-docs", []*core.Document{
		newDoc("good one", "A"), newDoc("poison", "B"), newDoc("good two", "C"),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, stored)

	count, err := ix.Count(ctx, "support-docs")
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestIndexer_EmbedsLemmatizedText(t *testing.T) {
	ix := memory.NewIndex()
	defer ix.Close()

	var embedded []string
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		embedded = texts
		vectors := make([][]float32, len(texts))
		for i := range texts {
			vectors[i] = []float32{1, 0}
		}
		return vectors, nil
	}

	indexer := index.NewIndexer(ix, embedder)

	doc := newDoc("The cats were running", "Cats")
	doc.LemmatizedText = "the cat be run"

	_, err := indexer.EmbedAndStore(context.Background(), "docs", []*core.Document{doc})
	require.NoError(t, err)
	require.Len(t, embedded, 1)
	assert.Equal(t, "the cat be run", embedded[0])

	// stored content stays unlemmatized for prompt context
	matches, err := ix.SimilaritySearch(context.Background(), "docs", []float32{1, 0}, 1)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "The cats were running", matches[0].Content)
}

func TestIndexer_InputValidation(t *testing.T) {
	ix := memory.NewIndex()
	defer ix.Close()
	indexer := index.NewIndexer(ix, mock.NewMockEmbedder())
	ctx := context.Background()

	t.Run("empty collection name", func(t *testing.T) {
		_, err := indexer.EmbedAndStore(ctx, "", []*core.Document{newDoc("x", "X")})
		assert.ErrorIs(t, err, core.ErrEmptyCollectionName)
	})

	t.Run("no documents", func(t *testing.T) {
		_, err := indexer.EmbedAndStore(ctx, "docs", nil)
		assert.ErrorIs(t, err, index.ErrNoDocuments)
	})
}
