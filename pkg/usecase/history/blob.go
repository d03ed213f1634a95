package history

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/m-mizutani/goerr/v2"
	"github.com/verbo-studio/verbo/pkg/adapter"
	"github.com/verbo-studio/verbo/pkg/model"
)

const (
	// StorageKey is the name of the entry holding the serialized history
	StorageKey = "youtubeBibleGeneratorHistory"
)

// BlobPersister stores the history as a single JSON array entry
type BlobPersister struct {
	storage adapter.Storage
	key     string
}

func NewBlobPersister(storage adapter.Storage) *BlobPersister {
	return &BlobPersister{storage: storage, key: StorageKey}
}

func (p *BlobPersister) Load(ctx context.Context) ([]*model.Conversation, error) {
	r, err := p.storage.Get(ctx, p.key)
	if err != nil {
		if errors.Is(err, adapter.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, goerr.Wrap(err, "failed to open history")
	}
	defer r.Close()

	var conversations []*model.Conversation
	if err := json.NewDecoder(r).Decode(&conversations); err != nil {
		return nil, goerr.Wrap(err, "failed to decode history", goerr.V("key", p.key))
	}
	return conversations, nil
}

func (p *BlobPersister) Save(ctx context.Context, conversations []*model.Conversation) error {
	if conversations == nil {
		conversations = []*model.Conversation{}
	}

	w, err := p.storage.Put(ctx, p.key)
	if err != nil {
		return goerr.Wrap(err, "failed to open history for writing")
	}

	if err := json.NewEncoder(w).Encode(conversations); err != nil {
		w.Abort()
		return goerr.Wrap(err, "failed to encode history", goerr.V("key", p.key))
	}
	if err := w.Close(); err != nil {
		return goerr.Wrap(err, "failed to commit history", goerr.V("key", p.key))
	}
	return nil
}
