package adapter_test

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/verbo-studio/verbo/pkg/adapter"
)

func put(t *testing.T, s adapter.Storage, key, data string) {
	t.Helper()
	w, err := s.Put(context.Background(), key)
	gt.NoError(t, err)
	_, err = w.Write([]byte(data))
	gt.NoError(t, err)
	gt.NoError(t, w.Close())
}

func get(t *testing.T, s adapter.Storage, key string) string {
	t.Helper()
	r, err := s.Get(context.Background(), key)
	gt.NoError(t, err)
	defer r.Close()
	data, err := io.ReadAll(r)
	gt.NoError(t, err)
	return string(data)
}

func testStorage(t *testing.T, s adapter.Storage) {
	ctx := context.Background()

	_, err := s.Get(ctx, "missing")
	gt.Error(t, err)
	gt.True(t, errors.Is(err, adapter.ErrKeyNotFound))

	put(t, s, "history", `[{"id":"1"}]`)
	gt.Equal(t, get(t, s, "history"), `[{"id":"1"}]`)

	// overwrite replaces the whole entry
	put(t, s, "history", `[]`)
	gt.Equal(t, get(t, s, "history"), `[]`)

	gt.NoError(t, s.Delete(ctx, "history"))
	_, err = s.Get(ctx, "history")
	gt.True(t, errors.Is(err, adapter.ErrKeyNotFound))

	// deleting again is fine
	gt.NoError(t, s.Delete(ctx, "history"))

	// an aborted write keeps the previous entry
	put(t, s, "history", `[{"id":"1"}]`)
	w, err := s.Put(ctx, "history")
	gt.NoError(t, err)
	_, err = w.Write([]byte(`[{"id":`))
	gt.NoError(t, err)
	w.Abort()
	gt.Equal(t, get(t, s, "history"), `[{"id":"1"}]`)
}

func TestLocalStorage(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "data")
	s, err := adapter.NewLocalStorage(dir)
	gt.NoError(t, err)

	testStorage(t, s)
}

func TestLocalStorageFileMode(t *testing.T) {
	dir := t.TempDir()
	s, err := adapter.NewLocalStorage(dir)
	gt.NoError(t, err)

	put(t, s, "geminiApiKey", `"secret"`)

	info, err := os.Stat(filepath.Join(dir, "geminiApiKey.json"))
	gt.NoError(t, err)
	gt.Equal(t, info.Mode().Perm(), os.FileMode(0o600))

	// no temporary files are left behind
	entries, err := os.ReadDir(dir)
	gt.NoError(t, err)
	gt.A(t, entries).Length(1)
}

func TestLocalStorageAbortLeavesNoTemporaryFile(t *testing.T) {
	dir := t.TempDir()
	s, err := adapter.NewLocalStorage(dir)
	gt.NoError(t, err)

	w, err := s.Put(context.Background(), "history")
	gt.NoError(t, err)
	_, err = w.Write([]byte("partial"))
	gt.NoError(t, err)
	w.Abort()
	// Close after Abort does not commit
	gt.NoError(t, w.Close())

	entries, err := os.ReadDir(dir)
	gt.NoError(t, err)
	gt.A(t, entries).Length(0)

	_, err = s.Get(context.Background(), "history")
	gt.True(t, errors.Is(err, adapter.ErrKeyNotFound))
}

func TestLocalStorageInvalidKey(t *testing.T) {
	s, err := adapter.NewLocalStorage(t.TempDir())
	gt.NoError(t, err)

	_, err = s.Put(context.Background(), "../escape")
	gt.Error(t, err)
	_, err = s.Get(context.Background(), "")
	gt.Error(t, err)
}

func TestCloudStorage(t *testing.T) {
	bucket := os.Getenv("TEST_STORAGE_BUCKET")
	if bucket == "" {
		t.Skip("TEST_STORAGE_BUCKET is not set")
	}

	s, err := adapter.NewStorage(context.Background(), bucket, adapter.WithPrefix("verbo-test/"))
	gt.NoError(t, err)

	testStorage(t, s)
}
