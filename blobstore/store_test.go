package blobstore

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

// storeUnderTest exercises the Store contract shared by every backend.
func storeUnderTest(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()

	data := []byte("fake archive bytes for the contract test")

	// Streaming write.
	w, err := store.Create(ctx, "datasets/movie-001.trks")
	require.NoError(t, err)
	_, err = w.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	// Read back.
	blob, err := store.Open(ctx, "datasets/movie-001.trks")
	require.NoError(t, err)
	require.Equal(t, int64(len(data)), blob.Size())
	got, err := io.ReadAll(blob)
	require.NoError(t, err)
	require.NoError(t, blob.Close())
	require.Equal(t, data, got)

	// Put and List.
	require.NoError(t, store.Put(ctx, "datasets/movie-002.trks", data))
	require.NoError(t, store.Put(ctx, "other/readme.txt", []byte("x")))

	names, err := store.List(ctx, "datasets/")
	require.NoError(t, err)
	require.Equal(t, []string{"datasets/movie-001.trks", "datasets/movie-002.trks"}, names)

	// Delete.
	require.NoError(t, store.Delete(ctx, "datasets/movie-001.trks"))
	_, err = store.Open(ctx, "datasets/movie-001.trks")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestLocalStore_Contract(t *testing.T) {
	storeUnderTest(t, NewLocalStore(t.TempDir()))
}

func TestMemoryStore_Contract(t *testing.T) {
	storeUnderTest(t, NewMemoryStore())
}

func TestMemoryStore_ReadersAreIsolated(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	require.NoError(t, store.Put(ctx, "a", []byte("old")))
	blob, err := store.Open(ctx, "a")
	require.NoError(t, err)
	defer blob.Close()

	require.NoError(t, store.Put(ctx, "a", []byte("new")))

	got, err := io.ReadAll(blob)
	require.NoError(t, err)
	require.Equal(t, "old", string(got))
}
