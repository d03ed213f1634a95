package model

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
)

const (
	conversationTitleLimit = 40
)

type ConversationID string

// NewConversationID generates a new time-ordered ConversationID (UUIDv7)
func NewConversationID() ConversationID {
	return ConversationID(uuid.Must(uuid.NewV7()).String())
}

// Conversation is one persisted full generation session. CreatedAt is
// serialized as "timestamp" in Unix milliseconds.
type Conversation struct {
	ID        ConversationID    `json:"id"`
	Title     string            `json:"title"`
	CreatedAt time.Time         `json:"-"`
	Input     UserInput         `json:"input"`
	Content   *GeneratedContent `json:"output"`
}

// NewConversation builds a conversation snapshot from a successful generation
func NewConversation(input UserInput, content *GeneratedContent, now time.Time) *Conversation {
	return &Conversation{
		ID:        NewConversationID(),
		Title:     ConversationTitle(input.Theme),
		CreatedAt: now.UTC().Truncate(time.Millisecond),
		Input:     input,
		Content:   content.Clone(),
	}
}

// ConversationTitle truncates the theme to 40 characters and appends an
// ellipsis when it was longer
func ConversationTitle(theme string) string {
	runes := []rune(theme)
	if len(runes) <= conversationTitleLimit {
		return theme
	}
	return string(runes[:conversationTitleLimit]) + "..."
}

// Clone returns a deep copy of the conversation
func (x *Conversation) Clone() *Conversation {
	if x == nil {
		return nil
	}
	c := *x
	c.Content = x.Content.Clone()
	return &c
}

type conversationAlias Conversation

func (x Conversation) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		conversationAlias
		Timestamp int64 `json:"timestamp"`
	}{
		conversationAlias: conversationAlias(x),
		Timestamp:         x.CreatedAt.UnixMilli(),
	})
}

// UnmarshalJSON accepts the timestamp either as Unix milliseconds or as an
// RFC3339 string
func (x *Conversation) UnmarshalJSON(data []byte) error {
	var raw struct {
		conversationAlias
		Timestamp json.RawMessage `json:"timestamp"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return goerr.Wrap(err, "failed to decode conversation")
	}

	createdAt, err := parseTimestamp(raw.Timestamp)
	if err != nil {
		return goerr.Wrap(err, "invalid conversation timestamp", goerr.V("id", raw.ID))
	}

	*x = Conversation(raw.conversationAlias)
	x.CreatedAt = createdAt
	return nil
}

func parseTimestamp(data json.RawMessage) (time.Time, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return time.Time{}, nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return time.Time{}, err
		}
		t, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return time.Time{}, err
		}
		return t.UTC(), nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return time.Time{}, err
	}
	if ms, err := n.Int64(); err == nil {
		return time.UnixMilli(ms).UTC(), nil
	}
	f, err := n.Float64()
	if err != nil {
		return time.Time{}, err
	}
	return time.UnixMilli(int64(f)).UTC(), nil
}
