package history

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/verbo-studio/verbo/pkg/model"
	"github.com/verbo-studio/verbo/pkg/utils/logging"
)

// Persister saves and restores the whole ordered history at once
type Persister interface {
	Load(ctx context.Context) ([]*model.Conversation, error)
	Save(ctx context.Context, conversations []*model.Conversation) error
}

// Store holds the conversation history, most recent first. Every mutation
// writes the complete history through the Persister. Persistence failures
// are logged and never returned.
type Store struct {
	mu            sync.Mutex
	persister     Persister
	conversations []*model.Conversation
	now           func() time.Time
}

type Option func(*Store)

// WithClock replaces the clock used for conversation timestamps
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

func New(persister Persister, opts ...Option) *Store {
	s := &Store{
		persister: persister,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load reads the persisted history. Missing or corrupted data leaves the
// history empty.
func (s *Store) Load(ctx context.Context) {
	conversations, err := s.persister.Load(ctx)
	if err != nil {
		logging.From(ctx).Warn("failed to load history, starting empty", "error", err)
		conversations = nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.conversations = slices.DeleteFunc(conversations, func(c *model.Conversation) bool {
		return c == nil || c.ID == ""
	})
	logging.From(ctx).Debug("history loaded", "count", len(s.conversations))
}

// Create records a successful generation as the newest conversation
func (s *Store) Create(ctx context.Context, input model.UserInput, content *model.GeneratedContent) *model.Conversation {
	conv := model.NewConversation(input, content, s.now())

	s.mu.Lock()
	defer s.mu.Unlock()
	s.conversations = slices.Insert(s.conversations, 0, conv)
	s.persist(ctx)

	return conv.Clone()
}

// Select returns a copy of the conversation with the given id
func (s *Store) Select(id model.ConversationID) (*model.Conversation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range s.conversations {
		if c.ID == id {
			return c.Clone(), true
		}
	}
	return nil, false
}

// Delete removes the conversation and reports whether it existed
func (s *Store) Delete(ctx context.Context, id model.ConversationID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := slices.IndexFunc(s.conversations, func(c *model.Conversation) bool {
		return c.ID == id
	})
	if idx < 0 {
		return false
	}

	s.conversations = slices.Delete(s.conversations, idx, idx+1)
	s.persist(ctx)
	return true
}

// List returns copies of all conversations, most recent first
func (s *Store) List() []*model.Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*model.Conversation, len(s.conversations))
	for i, c := range s.conversations {
		out[i] = c.Clone()
	}
	return out
}

// persist must be called with mu held
func (s *Store) persist(ctx context.Context) {
	if err := s.persister.Save(ctx, s.conversations); err != nil {
		logging.From(ctx).Error("failed to save history", "error", err, "count", len(s.conversations))
	}
}
