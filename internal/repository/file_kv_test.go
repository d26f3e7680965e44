package repository

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileKVStore_PutGet(t *testing.T) {
	dir := t.TempDir()
	store := NewFileKVStore(dir)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "dermaloop/routine/current", []byte(`{"a":1}`)))

	got, err := store.Get(ctx, "dermaloop/routine/current")
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, string(got))
	assert.FileExists(t, filepath.Join(dir, "dermaloop", "routine", "current.json"))
}

func TestFileKVStore_OverwriteLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	store := NewFileKVStore(dir)
	ctx := context.Background()

	for _, v := range []string{"one", "two", "three"} {
		require.NoError(t, store.Put(ctx, "k", []byte(v)))
	}

	got, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "three", string(got))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "k.json", entries[0].Name())
}

func TestFileKVStore_GetMissing(t *testing.T) {
	store := NewFileKVStore(t.TempDir())

	_, err := store.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFileKVStore_Delete(t *testing.T) {
	store := NewFileKVStore(t.TempDir())
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "k", []byte("v")))
	require.NoError(t, store.Delete(ctx, "k"))
	require.NoError(t, store.Delete(ctx, "k"), "deleting a missing key is not an error")

	_, err := store.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFileKVStore_RejectsEscapingKeys(t *testing.T) {
	store := NewFileKVStore(t.TempDir())
	ctx := context.Background()

	for _, key := range []string{"", "..", "../outside", "/etc/passwd", "."} {
		assert.Error(t, store.Put(ctx, key, []byte("x")), "key %q", key)
	}
}

func TestFileKVStore_CanceledContext(t *testing.T) {
	store := NewFileKVStore(t.TempDir())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, store.Put(ctx, "k", []byte("v")), context.Canceled)
}
