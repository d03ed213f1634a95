package credential_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/verbo-studio/verbo/pkg/adapter"
	"github.com/verbo-studio/verbo/pkg/usecase/credential"
)

func newStore(t *testing.T) (*credential.Store, string) {
	t.Helper()
	dir := t.TempDir()
	storage, err := adapter.NewLocalStorage(dir)
	gt.NoError(t, err)
	return credential.New(storage), dir
}

func TestStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	store, dir := newStore(t)

	key, err := store.APIKey(ctx)
	gt.NoError(t, err)
	gt.Equal(t, key, "")

	_, ok, err := store.View(ctx, false)
	gt.NoError(t, err)
	gt.False(t, ok)

	gt.NoError(t, store.Set(ctx, "  AIzaSyExampleKey1234  "))

	key, err = store.APIKey(ctx)
	gt.NoError(t, err)
	gt.Equal(t, key, "AIzaSyExampleKey1234")

	masked, ok, err := store.View(ctx, false)
	gt.NoError(t, err)
	gt.True(t, ok)
	gt.Equal(t, masked, "AIza************1234")

	revealed, _, err := store.View(ctx, true)
	gt.NoError(t, err)
	gt.Equal(t, revealed, "AIzaSyExampleKey1234")

	info, err := os.Stat(filepath.Join(dir, credential.StorageKey+".json"))
	gt.NoError(t, err)
	gt.Equal(t, info.Mode().Perm(), os.FileMode(0o600))

	gt.NoError(t, store.Remove(ctx))
	key, err = store.APIKey(ctx)
	gt.NoError(t, err)
	gt.Equal(t, key, "")

	// removing twice is fine
	gt.NoError(t, store.Remove(ctx))
}

func TestStoreSetEmpty(t *testing.T) {
	store, _ := newStore(t)
	err := store.Set(context.Background(), "   ")
	gt.Error(t, err)
	gt.True(t, errors.Is(err, credential.ErrEmptyKey))
}

type diskFullStorage struct {
	adapter.Storage
}

func (s diskFullStorage) Put(ctx context.Context, key string) (adapter.Writer, error) {
	w, err := s.Storage.Put(ctx, key)
	if err != nil {
		return nil, err
	}
	return &diskFullWriter{Writer: w}, nil
}

type diskFullWriter struct {
	adapter.Writer
}

func (w *diskFullWriter) Write(p []byte) (int, error) {
	n, _ := w.Writer.Write(p[:len(p)/2])
	return n, errors.New("no space left on device")
}

func TestStoreFailedSetKeepsKey(t *testing.T) {
	ctx := context.Background()
	storage, err := adapter.NewLocalStorage(t.TempDir())
	gt.NoError(t, err)

	gt.NoError(t, credential.New(storage).Set(ctx, "AIzaSyExampleKey1234"))
	gt.Error(t, credential.New(diskFullStorage{storage}).Set(ctx, "AIzaSyOtherKey5678"))

	key, err := credential.New(storage).APIKey(ctx)
	gt.NoError(t, err)
	gt.Equal(t, key, "AIzaSyExampleKey1234")
}

func TestMask(t *testing.T) {
	gt.Equal(t, credential.Mask("abcdefghij"), "abcd**ghij")
	gt.Equal(t, credential.Mask("abcdefgh"), "********")
	gt.Equal(t, credential.Mask("abc"), "***")
	gt.Equal(t, credential.Mask(""), "")
}

func TestChain(t *testing.T) {
	ctx := context.Background()
	store, _ := newStore(t)
	gt.NoError(t, store.Set(ctx, "stored-key-0000"))

	key, err := credential.Chain{credential.Static(""), store}.APIKey(ctx)
	gt.NoError(t, err)
	gt.Equal(t, key, "stored-key-0000")

	key, err = credential.Chain{credential.Static("override"), store}.APIKey(ctx)
	gt.NoError(t, err)
	gt.Equal(t, key, "override")

	key, err = credential.Chain{}.APIKey(ctx)
	gt.NoError(t, err)
	gt.Equal(t, key, "")
}
