package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFSStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	store, err := NewFSStore(filepath.Join(t.TempDir(), "uploads"))
	require.NoError(t, err)

	n, err := store.Put(ctx, "1700000000000-abc.pdf", strings.NewReader("%PDF-1.4"), 8, "application/pdf")
	require.NoError(t, err)
	assert.EqualValues(t, 8, n)

	rc, obj, err := store.Open(ctx, "1700000000000-abc.pdf")
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, rc.Close())
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4", string(data))
	assert.EqualValues(t, 8, obj.Size)

	objects, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, objects, 1)
	assert.Equal(t, "1700000000000-abc.pdf", objects[0].Key)

	require.NoError(t, store.Delete(ctx, "1700000000000-abc.pdf"))
	assert.ErrorIs(t, store.Delete(ctx, "1700000000000-abc.pdf"), ErrNotExist)
	_, _, err = store.Open(ctx, "1700000000000-abc.pdf")
	assert.ErrorIs(t, err, ErrNotExist)
}

func TestFSStoreRejectsTraversal(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFSStore(filepath.Join(dir, "uploads"))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "secret.txt"), []byte("x"), 0o600))

	_, _, err = store.Open(context.Background(), "../secret.txt")
	assert.ErrorIs(t, err, ErrNotExist)
	_, err = store.Put(context.Background(), "a/b", strings.NewReader("x"), 1, "")
	assert.Error(t, err)
}

func TestFSStoreListSkipsTempFiles(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFSStore(dir)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".upload-123"), []byte("partial"), 0o600))

	objects, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, objects)
}

func TestValidKey(t *testing.T) {
	assert.True(t, ValidKey("1700000000000-0b8e.pdf"))
	for _, bad := range []string{"", ".", "..", "a/b", `a\b`, "a b", strings.Repeat("a", 256)} {
		assert.False(t, ValidKey(bad), bad)
	}
}
