package credential

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/verbo-studio/verbo/pkg/adapter"
)

const (
	// StorageKey is the name of the entry holding the Gemini API key
	StorageKey = "geminiApiKey"

	maskVisible = 4
)

var (
	ErrEmptyKey = goerr.New("api key is empty")
)

// Source provides the API key for the next request. It is read on every
// request so a key change takes effect immediately.
type Source interface {
	APIKey(ctx context.Context) (string, error)
}

// Static is a Source with a fixed key, used for --api-key and GEMINI_API_KEY
type Static string

func (s Static) APIKey(ctx context.Context) (string, error) {
	return string(s), nil
}

// Store keeps the API key in the key-value storage
type Store struct {
	storage adapter.Storage
}

func New(storage adapter.Storage) *Store {
	return &Store{storage: storage}
}

// APIKey returns the stored key, or an empty string when none is stored
func (s *Store) APIKey(ctx context.Context) (string, error) {
	r, err := s.storage.Get(ctx, StorageKey)
	if err != nil {
		if errors.Is(err, adapter.ErrKeyNotFound) {
			return "", nil
		}
		return "", goerr.Wrap(err, "failed to read api key")
	}
	defer r.Close()

	var key string
	if err := json.NewDecoder(r).Decode(&key); err != nil {
		return "", goerr.Wrap(err, "failed to decode api key")
	}
	return key, nil
}

// Set stores the key after trimming surrounding whitespace
func (s *Store) Set(ctx context.Context, key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return goerr.Wrap(ErrEmptyKey, "refusing to store api key")
	}

	w, err := s.storage.Put(ctx, StorageKey)
	if err != nil {
		return goerr.Wrap(err, "failed to open api key for writing")
	}
	if err := json.NewEncoder(w).Encode(key); err != nil {
		w.Abort()
		return goerr.Wrap(err, "failed to encode api key")
	}
	if err := w.Close(); err != nil {
		return goerr.Wrap(err, "failed to save api key")
	}
	return nil
}

func (s *Store) Remove(ctx context.Context) error {
	if err := s.storage.Delete(ctx, StorageKey); err != nil {
		return goerr.Wrap(err, "failed to remove api key")
	}
	return nil
}

// View returns the stored key for display, masked unless reveal is set.
// The second value reports whether a key is stored.
func (s *Store) View(ctx context.Context, reveal bool) (string, bool, error) {
	key, err := s.APIKey(ctx)
	if err != nil {
		return "", false, err
	}
	if key == "" {
		return "", false, nil
	}
	if reveal {
		return key, true, nil
	}
	return Mask(key), true, nil
}

// Mask hides all but the first and last four characters. Keys too short to
// keep anything hidden are masked entirely.
func Mask(key string) string {
	runes := []rune(key)
	if len(runes) <= maskVisible*2 {
		return strings.Repeat("*", len(runes))
	}
	hidden := len(runes) - maskVisible*2
	return string(runes[:maskVisible]) + strings.Repeat("*", hidden) + string(runes[len(runes)-maskVisible:])
}

// Chain returns the first non-empty key among sources
type Chain []Source

func (c Chain) APIKey(ctx context.Context) (string, error) {
	for _, src := range c {
		key, err := src.APIKey(ctx)
		if err != nil {
			return "", err
		}
		if strings.TrimSpace(key) != "" {
			return key, nil
		}
	}
	return "", nil
}
