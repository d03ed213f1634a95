package adapter

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/m-mizutani/goerr/v2"
)

// localStorage implements Storage on a local directory, one file per key
type localStorage struct {
	dir string
}

// NewLocalStorage creates a Storage backed by dir. The directory is created
// when missing.
func NewLocalStorage(dir string) (Storage, error) {
	if dir == "" {
		return nil, goerr.New("storage directory is required")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, goerr.Wrap(err, "failed to create storage directory", goerr.V("dir", dir))
	}
	return &localStorage{dir: dir}, nil
}

func (s *localStorage) path(key string) (string, error) {
	if key == "" || strings.ContainsAny(key, `/\`) || key == "." || key == ".." {
		return "", goerr.New("invalid storage key", goerr.V("key", key))
	}
	return filepath.Join(s.dir, key+".json"), nil
}

// atomicFile writes into a temporary file and renames it over the target on
// Close, so readers never see a partial entry. After a failed Write the
// temporary file is dropped instead.
type atomicFile struct {
	file   *os.File
	target string
	err    error
	closed bool
}

func (f *atomicFile) Write(p []byte) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	n, err := f.file.Write(p)
	if err != nil {
		f.err = goerr.Wrap(err, "failed to write entry", goerr.V("path", f.file.Name()))
		return n, f.err
	}
	return n, nil
}

func (f *atomicFile) Abort() {
	if f.closed {
		return
	}
	f.closed = true
	_ = f.file.Close()
	_ = os.Remove(f.file.Name())
}

func (f *atomicFile) Close() error {
	if f.closed {
		return nil
	}
	if f.err != nil {
		f.Abort()
		return goerr.Wrap(f.err, "entry not committed", goerr.V("path", f.target))
	}
	f.closed = true

	if err := f.file.Sync(); err != nil {
		_ = f.file.Close()
		_ = os.Remove(f.file.Name())
		return goerr.Wrap(err, "failed to sync temporary file", goerr.V("path", f.file.Name()))
	}
	if err := f.file.Close(); err != nil {
		_ = os.Remove(f.file.Name())
		return goerr.Wrap(err, "failed to close temporary file", goerr.V("path", f.file.Name()))
	}
	if err := os.Rename(f.file.Name(), f.target); err != nil {
		_ = os.Remove(f.file.Name())
		return goerr.Wrap(err, "failed to commit entry", goerr.V("path", f.target))
	}
	return nil
}

func (s *localStorage) Put(ctx context.Context, key string) (Writer, error) {
	target, err := s.path(key)
	if err != nil {
		return nil, err
	}

	tmp, err := os.CreateTemp(s.dir, "."+key+".*.tmp")
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create temporary file", goerr.V("key", key))
	}
	if err := tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return nil, goerr.Wrap(err, "failed to set file mode", goerr.V("key", key))
	}

	return &atomicFile{file: tmp, target: target}, nil
}

func (s *localStorage) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	path, err := s.path(key)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, goerr.Wrap(ErrKeyNotFound, "entry not found", goerr.V("key", key))
		}
		return nil, goerr.Wrap(err, "failed to open entry", goerr.V("key", key))
	}
	return f, nil
}

func (s *localStorage) Delete(ctx context.Context, key string) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}

	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return goerr.Wrap(err, "failed to delete entry", goerr.V("key", key))
	}
	return nil
}
