package storage

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorageRoundTrip(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	n, err := store.SaveStream("departments.csv", strings.NewReader("Name,Code\nComputer Science,CSE\n"))
	require.NoError(t, err)
	assert.Equal(t, int64(31), n)

	f, err := store.Open("departments.csv")
	require.NoError(t, err)
	body, err := io.ReadAll(f)
	require.NoError(t, err)
	require.NoError(t, f.Close())
	assert.Equal(t, "Name,Code\nComputer Science,CSE\n", string(body))

	require.NoError(t, store.Delete("departments.csv"))
	require.NoError(t, store.Delete("departments.csv"))
	_, err = os.Stat(store.Path("departments.csv"))
	assert.True(t, os.IsNotExist(err))
}

func TestLocalStorageConfinesNames(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStorage(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "passwd"), store.Path("../../etc/passwd"))
}

func TestLocalStorageCleanupOlderThan(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStorage(dir)
	require.NoError(t, err)

	_, err = store.SaveStream("stale.csv", strings.NewReader("a"))
	require.NoError(t, err)
	_, err = store.SaveStream("fresh.csv", strings.NewReader("b"))
	require.NoError(t, err)
	old := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(store.Path("stale.csv"), old, old))

	deleted, err := store.CleanupOlderThan(time.Hour)
	require.NoError(t, err)
	assert.Equal(t, []string{"stale.csv"}, deleted)
	_, err = os.Stat(store.Path("fresh.csv"))
	assert.NoError(t, err)
}
