package repository

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/verbo-studio/verbo/pkg/model"
	"google.golang.org/api/iterator"
)

const (
	DefaultCollection      = "verbo"
	historyDocument        = "youtubeBibleGeneratorHistory"
	conversationCollection = "conversations"
)

// Firestore persists the conversation history with one document per
// conversation, keyed by its ID, under
// <collection>/youtubeBibleGeneratorHistory/conversations. Each document
// holds the conversation in the same JSON form as the blob persister.
type Firestore struct {
	client     *firestore.Client
	collection string
}

type Option func(*Firestore)

// WithCollection overrides the top-level collection
func WithCollection(collection string) Option {
	return func(r *Firestore) {
		if collection != "" {
			r.collection = collection
		}
	}
}

type conversationDoc struct {
	Title     string    `firestore:"title"`
	Timestamp time.Time `firestore:"timestamp"`
	Data      []byte    `firestore:"data"`
}

func New(ctx context.Context, projectID, databaseID string, opts ...Option) (*Firestore, error) {
	if projectID == "" {
		return nil, goerr.New("firestore project ID is required")
	}
	if databaseID == "" {
		databaseID = firestore.DefaultDatabaseID
	}

	client, err := firestore.NewClientWithDatabase(ctx, projectID, databaseID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create firestore client",
			goerr.V("project_id", projectID),
			goerr.V("database_id", databaseID))
	}

	r := &Firestore{
		client:     client,
		collection: DefaultCollection,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

func (r *Firestore) conversations() *firestore.CollectionRef {
	return r.client.Collection(r.collection).Doc(historyDocument).Collection(conversationCollection)
}

// Load returns the conversations, newest first
func (r *Firestore) Load(ctx context.Context) ([]*model.Conversation, error) {
	iter := r.conversations().OrderBy("timestamp", firestore.Desc).Documents(ctx)
	defer iter.Stop()

	var conversations []*model.Conversation
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to list conversations", goerr.V("collection", r.collection))
		}

		var doc conversationDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, goerr.Wrap(err, "failed to decode conversation document", goerr.V("id", snap.Ref.ID))
		}
		var conv model.Conversation
		if err := json.Unmarshal(doc.Data, &conv); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal conversation", goerr.V("id", snap.Ref.ID))
		}
		if conv.ID == "" {
			conv.ID = model.ConversationID(snap.Ref.ID)
		}
		conversations = append(conversations, &conv)
	}
	return conversations, nil
}

// Save makes the stored conversations match the given list. Conversations
// never change after creation, so only new ones are written and the ones
// missing from the list are deleted.
func (r *Firestore) Save(ctx context.Context, conversations []*model.Conversation) error {
	stored, err := r.storedIDs(ctx)
	if err != nil {
		return err
	}

	bw := r.client.BulkWriter(ctx)
	var jobs []*firestore.BulkWriterJob
	keep := make(map[string]bool, len(conversations))

	for _, conv := range conversations {
		if conv == nil || conv.ID == "" {
			continue
		}
		id := string(conv.ID)
		if strings.Contains(id, "/") {
			bw.End()
			return goerr.New("conversation ID cannot be used as document ID", goerr.V("id", id))
		}
		keep[id] = true
		if stored[id] {
			continue
		}

		data, err := json.Marshal(conv)
		if err != nil {
			bw.End()
			return goerr.Wrap(err, "failed to marshal conversation", goerr.V("id", id))
		}
		job, err := bw.Set(r.conversations().Doc(id), conversationDoc{
			Title:     conv.Title,
			Timestamp: conv.CreatedAt,
			Data:      data,
		})
		if err != nil {
			bw.End()
			return goerr.Wrap(err, "failed to enqueue conversation", goerr.V("id", id))
		}
		jobs = append(jobs, job)
	}

	for id := range stored {
		if keep[id] {
			continue
		}
		job, err := bw.Delete(r.conversations().Doc(id))
		if err != nil {
			bw.End()
			return goerr.Wrap(err, "failed to enqueue conversation delete", goerr.V("id", id))
		}
		jobs = append(jobs, job)
	}

	bw.End()
	for _, job := range jobs {
		if _, err := job.Results(); err != nil {
			return goerr.Wrap(err, "failed to save history", goerr.V("collection", r.collection))
		}
	}
	return nil
}

func (r *Firestore) storedIDs(ctx context.Context) (map[string]bool, error) {
	refs, err := r.conversations().DocumentRefs(ctx).GetAll()
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list stored conversations", goerr.V("collection", r.collection))
	}
	ids := make(map[string]bool, len(refs))
	for _, ref := range refs {
		ids[ref.ID] = true
	}
	return ids, nil
}

func (r *Firestore) Close() error {
	if err := r.client.Close(); err != nil {
		return goerr.Wrap(err, "failed to close firestore client")
	}
	return nil
}
