package memory

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/parlance/core"
	"github.com/poiesic/parlance/index"
)

func TestIndex_CreateCollection(t *testing.T) {
	ix := NewIndex()
	defer ix.Close()
	ctx := context.Background()

	created, err := ix.CreateCollection(ctx, "docs", 3)
	require.NoError(t, err)
	assert.Equal(t, "docs", created.Name)
	assert.Equal(t, 3, created.EmbeddingDim)
	assert.False(t, created.CreatedAt.IsZero())

	t.Run("duplicate name conflicts", func(t *testing.T) {
		_, err := ix.CreateCollection(ctx, "docs", 3)
		assert.ErrorIs(t, err, index.ErrCollectionConflict)
	})

	t.Run("empty name", func(t *testing.T) {
		_, err := ix.CreateCollection(ctx, "", 3)
		assert.ErrorIs(t, err, core.ErrEmptyCollectionName)
	})

	t.Run("invalid dim", func(t *testing.T) {
		_, err := ix.CreateCollection(ctx, "bad", 0)
		assert.ErrorIs(t, err, index.ErrDimensionMismatch)
	})
}

func TestIndex_CreateCollectionConcurrentOneWinner(t *testing.T) {
	ix := NewIndex()
	defer ix.Close()
	ctx := context.Background()

	const racers = 2
	errs := make(chan error, racers)
	start := make(chan struct{})

	var wg sync.WaitGroup
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := ix.CreateCollection(ctx, "contested", 3)
			errs <- err
		}()
	}
	close(start)
	wg.Wait()
	close(errs)

	var wins, conflicts int
	for err := range errs {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, index.ErrCollectionConflict):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, wins)
	assert.Equal(t, racers-1, conflicts)

	created, err := ix.GetCollection(ctx, "contested")
	require.NoError(t, err)
	assert.Equal(t, 3, created.EmbeddingDim)
}

func TestIndex_UpsertAndSearch(t *testing.T) {
	ix := NewIndex()
	defer ix.Close()
	ctx := context.Background()

	_, err := ix.CreateCollection(ctx, "docs", 2)
	require.NoError(t, err)

	entries := []index.Entry{
		{Fingerprint: 1, Content: "east", Vector: []float32{1, 0}},
		{Fingerprint: 2, Content: "north", Vector: []float32{0, 1}},
		{Fingerprint: 3, Content: "northeast", Vector: []float32{1, 1}},
	}
	require.NoError(t, ix.Upsert(ctx, "docs", entries))

	matches, err := ix.SimilaritySearch(ctx, "docs", []float32{1, 0.1}, 2)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, "east", matches[0].Content)
	assert.Equal(t, "northeast", matches[1].Content)
	assert.Greater(t, matches[0].Score, matches[1].Score)
}

func TestIndex_UpsertIdempotent(t *testing.T) {
	ix := NewIndex()
	defer ix.Close()
	ctx := context.Background()

	_, err := ix.CreateCollection(ctx, "docs", 2)
	require.NoError(t, err)

	entry := index.Entry{Fingerprint: 7, Content: "v1", Vector: []float32{1, 0}}
	require.NoError(t, ix.Upsert(ctx, "docs", []index.Entry{entry}))

	entry.Content = "v2"
	require.NoError(t, ix.Upsert(ctx, "docs", []index.Entry{entry}))

	count, err := ix.Count(ctx, "docs")
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	matches, err := ix.SimilaritySearch(ctx, "docs", []float32{1, 0}, 1)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "v2", matches[0].Content)
}

func TestIndex_DimensionChecks(t *testing.T) {
	ix := NewIndex()
	defer ix.Close()
	ctx := context.Background()

	_, err := ix.CreateCollection(ctx, "docs", 2)
	require.NoError(t, err)

	err = ix.Upsert(ctx, "docs", []index.Entry{{Fingerprint: 1, Vector: []float32{1, 2, 3}}})
	assert.ErrorIs(t, err, index.ErrDimensionMismatch)

	_, err = ix.SimilaritySearch(ctx, "docs", []float32{1}, 1)
	assert.ErrorIs(t, err, index.ErrDimensionMismatch)
}

func TestIndex_MissingCollection(t *testing.T) {
	ix := NewIndex()
	defer ix.Close()
	ctx := context.Background()

	_, err := ix.GetCollection(ctx, "ghost")
	assert.ErrorIs(t, err, index.ErrCollectionNotFound)

	_, err = ix.SimilaritySearch(ctx, "ghost", []float32{1}, 1)
	assert.ErrorIs(t, err, index.ErrCollectionNotFound)

	err = ix.Upsert(ctx, "ghost", nil)
	assert.ErrorIs(t, err, index.ErrCollectionNotFound)

	err = ix.DropCollection(ctx, "ghost")
	assert.ErrorIs(t, err, index.ErrCollectionNotFound)
}

func TestIndex_DropCollection(t *testing.T) {
	ix := NewIndex()
	defer ix.Close()
	ctx := context.Background()

	_, err := ix.CreateCollection(ctx, "docs", 2)
	require.NoError(t, err)
	require.NoError(t, ix.DropCollection(ctx, "docs"))

	exists, err := ix.CollectionExists(ctx, "docs")
	require.NoError(t, err)
	assert.False(t, exists)

	// name is reusable after drop
	_, err = ix.CreateCollection(ctx, "docs", 4)
	assert.NoError(t, err)
}

func TestIndex_Closed(t *testing.T) {
	ix := NewIndex()
	require.NoError(t, ix.Close())

	_, err := ix.CreateCollection(context.Background(), "docs", 2)
	assert.ErrorIs(t, err, index.ErrIndexClosed)
}
