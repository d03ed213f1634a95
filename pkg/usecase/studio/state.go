package studio

import (
	"maps"

	"github.com/verbo-studio/verbo/pkg/model"
)

type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusReady   Status = "ready"
	StatusError   Status = "error"
)

// State is a snapshot of the working session. Transitions are methods
// returning a new State; the receiver is never modified.
type State struct {
	Status   Status
	Input    model.UserInput
	Content  *model.GeneratedContent
	ActiveID model.ConversationID
	// Message is the user-facing message of the last failure
	Message string
	// Regenerating holds the sections with a regeneration in flight
	Regenerating map[model.Section]bool
	// Epoch increases whenever Content is replaced as a whole
	Epoch uint64
}

// Clone returns a deep copy
func (s State) Clone() State {
	s.Content = s.Content.Clone()
	s.Regenerating = maps.Clone(s.Regenerating)
	return s
}

// IsRegenerating reports whether the section has a regeneration in flight
func (s State) IsRegenerating(section model.Section) bool {
	return s.Regenerating[section]
}

func (s State) withInput(input model.UserInput) State {
	next := s.Clone()
	next.Input = input
	return next
}

// blank is the new-session state
func (s State) blank() State {
	return State{
		Status: StatusIdle,
		Epoch:  s.Epoch + 1,
	}
}

func (s State) startGenerate(input model.UserInput) State {
	return State{
		Status: StatusLoading,
		Input:  input,
		Epoch:  s.Epoch + 1,
	}
}

func (s State) finishGenerate(conv *model.Conversation) State {
	next := s.Clone()
	next.Status = StatusReady
	next.Content = conv.Content.Clone()
	next.ActiveID = conv.ID
	next.Message = ""
	return next
}

func (s State) failGenerate(message string) State {
	next := s.Clone()
	next.Status = StatusError
	next.Content = nil
	next.ActiveID = ""
	next.Message = message
	return next
}

func (s State) selectConversation(conv *model.Conversation) State {
	return State{
		Status:   StatusReady,
		Input:    conv.Input,
		Content:  conv.Content.Clone(),
		ActiveID: conv.ID,
		Epoch:    s.Epoch + 1,
	}
}

func (s State) startSection(section model.Section) State {
	next := s.Clone()
	if next.Regenerating == nil {
		next.Regenerating = make(map[model.Section]bool)
	}
	next.Regenerating[section] = true
	next.Message = ""
	return next
}

func (s State) finishSection(patch *model.Patch) State {
	next := s.Clone()
	delete(next.Regenerating, patch.Section)
	next.Content = patch.Apply(s.Content)
	next.Status = StatusReady
	next.Message = ""
	return next
}

// failSection keeps the content and reports the failure
func (s State) failSection(section model.Section, message string) State {
	next := s.Clone()
	delete(next.Regenerating, section)
	next.Status = StatusError
	next.Message = message
	return next
}
