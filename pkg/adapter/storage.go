package adapter

import (
	"context"
	"errors"
	"io"

	"cloud.google.com/go/storage"
	"github.com/m-mizutani/goerr/v2"
)

var (
	ErrKeyNotFound = goerr.New("key not found")
)

// Writer replaces a storage entry. The entry is committed on Close, unless a
// Write failed or Abort was called; the previous entry is then kept.
type Writer interface {
	io.Writer
	Close() error
	// Abort discards everything written so far
	Abort()
}

// Storage is a key-value store of named entries. It holds the conversation
// history and the API key.
type Storage interface {
	// Put returns a writer replacing the entry
	Put(ctx context.Context, key string) (Writer, error)
	// Get returns a reader of the entry, or ErrKeyNotFound
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	// Delete removes the entry. Deleting a missing entry is not an error.
	Delete(ctx context.Context, key string) error
}

// storageClient implements Storage interface using Cloud Storage
type storageClient struct {
	bucketName string
	prefix     string
	client     *storage.Client
}

type StorageOption func(*storageClient)

// WithPrefix places all entries under the given object name prefix
func WithPrefix(prefix string) StorageOption {
	return func(s *storageClient) {
		s.prefix = prefix
	}
}

// NewStorage creates a new Cloud Storage client
func NewStorage(ctx context.Context, bucketName string, opts ...StorageOption) (Storage, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create storage client")
	}

	s := &storageClient{
		bucketName: bucketName,
		client:     client,
	}
	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

func (s *storageClient) object(key string) *storage.ObjectHandle {
	return s.client.Bucket(s.bucketName).Object(s.prefix + key)
}

// objectWriter aborts the upload by canceling its context, which keeps the
// object from being finalized
type objectWriter struct {
	*storage.Writer
	cancel context.CancelFunc
}

func (w *objectWriter) Close() error {
	defer w.cancel()
	if err := w.Writer.Close(); err != nil {
		return goerr.Wrap(err, "failed to commit object", goerr.V("object", w.Writer.Name))
	}
	return nil
}

func (w *objectWriter) Abort() {
	w.cancel()
	_ = w.Writer.Close()
}

func (s *storageClient) Put(ctx context.Context, key string) (Writer, error) {
	ctx, cancel := context.WithCancel(ctx)
	writer := s.object(key).NewWriter(ctx)
	writer.ContentType = "application/json"
	return &objectWriter{Writer: writer, cancel: cancel}, nil
}

func (s *storageClient) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	reader, err := s.object(key).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, goerr.Wrap(ErrKeyNotFound, "object not found", goerr.V("key", key), goerr.V("bucket", s.bucketName))
		}
		return nil, goerr.Wrap(err, "failed to read from storage", goerr.V("key", key))
	}

	return reader, nil
}

func (s *storageClient) Delete(ctx context.Context, key string) error {
	if err := s.object(key).Delete(ctx); err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil
		}
		return goerr.Wrap(err, "failed to delete from storage", goerr.V("key", key))
	}
	return nil
}
