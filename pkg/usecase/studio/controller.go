package studio

import (
	"context"
	"errors"
	"sync"

	"github.com/m-mizutani/goerr/v2"
	"github.com/verbo-studio/verbo/pkg/model"
	"github.com/verbo-studio/verbo/pkg/usecase/credential"
	"github.com/verbo-studio/verbo/pkg/usecase/generation"
	"github.com/verbo-studio/verbo/pkg/usecase/history"
	"github.com/verbo-studio/verbo/pkg/utils/logging"
)

var (
	ErrBusy                 = goerr.New("operation in progress")
	ErrNoContent            = goerr.New("no generated content")
	ErrConversationNotFound = goerr.New("conversation not found")
	ErrStaleResult          = goerr.New("result discarded because the session changed")
)

// Generator is the AI generation boundary used by the controller
type Generator interface {
	Generate(ctx context.Context, apiKey string, input model.UserInput) (*model.GeneratedContent, error)
	RegenerateSection(ctx context.Context, apiKey string, section model.Section, input model.UserInput, current *model.GeneratedContent, idea string) (*model.Patch, error)
}

// Controller owns the working session: current input, current content,
// active conversation and loading flags. It is safe for concurrent use; the
// AI request runs outside the lock.
type Controller struct {
	mu      sync.Mutex
	state   State
	gen     Generator
	history *history.Store
	keys    credential.Source
}

func New(gen Generator, store *history.Store, keys credential.Source) *Controller {
	return &Controller{
		state:   State{Status: StatusIdle},
		gen:     gen,
		history: store,
		keys:    keys,
	}
}

// State returns a copy of the current state
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Clone()
}

// History returns the stored conversations, most recent first
func (c *Controller) History() []*model.Conversation {
	return c.history.List()
}

// SetInput replaces the working input
func (c *Controller) SetInput(input model.UserInput) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state.Status == StatusLoading {
		return goerr.Wrap(ErrBusy, "cannot edit input while generating")
	}
	c.state = c.state.withInput(input)
	return nil
}

func (c *Controller) apiKey(ctx context.Context) string {
	key, err := c.keys.APIKey(ctx)
	if err != nil {
		logging.From(ctx).Error("failed to read api key", "error", err)
		return ""
	}
	return key
}

// Generate runs a full generation for input. On success the result is
// stored as a new conversation which becomes active. Invalid input is
// rejected before any request is issued.
func (c *Controller) Generate(ctx context.Context, input model.UserInput) (*model.Conversation, error) {
	c.mu.Lock()
	if c.state.Status == StatusLoading {
		c.mu.Unlock()
		return nil, goerr.Wrap(ErrBusy, "generation already in progress")
	}
	if err := input.Validate(); err != nil {
		c.state = c.state.withInput(input)
		c.mu.Unlock()
		return nil, err
	}
	c.state = c.state.startGenerate(input)
	epoch := c.state.Epoch
	c.mu.Unlock()

	content, genErr := c.gen.Generate(ctx, c.apiKey(ctx), input)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state.Epoch != epoch {
		logging.From(ctx).Warn("generation result discarded", "epoch", epoch, "current", c.state.Epoch)
		if genErr != nil {
			return nil, genErr
		}
		return nil, goerr.Wrap(ErrStaleResult, "session changed during generation")
	}

	if genErr != nil {
		c.state = c.state.failGenerate(generation.UserMessage(genErr))
		return nil, genErr
	}

	conv := c.history.Create(ctx, input, content)
	c.state = c.state.finishGenerate(conv)
	return conv, nil
}

// Regenerate replaces one section of the current content. Different
// sections may regenerate concurrently. The result is dropped when the
// content was replaced as a whole while the request was in flight.
func (c *Controller) Regenerate(ctx context.Context, section model.Section, idea string) (*model.GeneratedContent, error) {
	if err := section.Validate(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	switch {
	case c.state.Status == StatusLoading:
		c.mu.Unlock()
		return nil, goerr.Wrap(ErrBusy, "generation in progress")
	case c.state.Content == nil:
		c.mu.Unlock()
		return nil, goerr.Wrap(ErrNoContent, "nothing to regenerate")
	case c.state.IsRegenerating(section):
		c.mu.Unlock()
		return nil, goerr.Wrap(ErrBusy, "section is already regenerating", goerr.V("section", section))
	}
	c.state = c.state.startSection(section)
	epoch := c.state.Epoch
	input := c.state.Input
	current := c.state.Content.Clone()
	c.mu.Unlock()

	patch, genErr := c.gen.RegenerateSection(ctx, c.apiKey(ctx), section, input, current, idea)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state.Epoch != epoch {
		logging.From(ctx).Warn("regenerated section discarded",
			"section", section,
			"epoch", epoch,
			"current", c.state.Epoch,
		)
		if genErr != nil {
			return nil, genErr
		}
		return nil, goerr.Wrap(ErrStaleResult, "content replaced during regeneration", goerr.V("section", section))
	}

	if genErr != nil {
		c.state = c.state.failSection(section, generation.UserMessage(genErr))
		return nil, genErr
	}

	c.state = c.state.finishSection(patch)
	return c.state.Content.Clone(), nil
}

// NewConversation resets the session to blank defaults
func (c *Controller) NewConversation() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state.Status == StatusLoading {
		return goerr.Wrap(ErrBusy, "cannot start a new conversation while generating")
	}
	c.state = c.state.blank()
	return nil
}

// SelectConversation replaces the input and content with the stored snapshot
func (c *Controller) SelectConversation(id model.ConversationID) (*model.Conversation, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state.Status == StatusLoading {
		return nil, goerr.Wrap(ErrBusy, "cannot switch conversation while generating")
	}

	conv, ok := c.history.Select(id)
	if !ok {
		return nil, goerr.Wrap(ErrConversationNotFound, "cannot select conversation", goerr.V("id", id))
	}
	c.state = c.state.selectConversation(conv)
	return conv, nil
}

// DeleteConversation removes a stored conversation. Deleting the active one
// resets the session.
func (c *Controller) DeleteConversation(ctx context.Context, id model.ConversationID) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.history.Delete(ctx, id) {
		return goerr.Wrap(ErrConversationNotFound, "cannot delete conversation", goerr.V("id", id))
	}
	if c.state.ActiveID == id {
		c.state = c.state.blank()
	}
	return nil
}

// Export renders the current content as a plain-text document
func (c *Controller) Export() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state.Content == nil {
		return "", goerr.Wrap(ErrNoContent, "nothing to export")
	}
	return Export(c.state.Input, c.state.Content), nil
}

// UserMessage returns the Portuguese message shown for an error returned by
// the controller
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, model.ErrRequiredFields):
		return "Por favor, preencha os campos obrigatórios."
	case errors.Is(err, ErrBusy):
		return "Aguarde a conclusão da geração em andamento."
	case errors.Is(err, ErrNoContent):
		return "Nenhum conteúdo gerado. Gere um conteúdo primeiro."
	case errors.Is(err, ErrConversationNotFound):
		return "Conversa não encontrada."
	case errors.Is(err, ErrStaleResult):
		return "O conteúdo mudou durante a regeneração; o resultado foi descartado."
	case errors.Is(err, model.ErrInvalidSection):
		return "Seção inválida."
	default:
		return generation.UserMessage(err)
	}
}
