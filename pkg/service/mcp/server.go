package mcp

import (
	"context"
	"encoding/json"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/verbo-studio/verbo/pkg/model"
	"github.com/verbo-studio/verbo/pkg/policy"
	"github.com/verbo-studio/verbo/pkg/usecase/studio"
	"github.com/verbo-studio/verbo/pkg/utils/logging"
)

const serverName = "verbo"

// Server exposes the studio controller as MCP tools
type Server struct {
	ctrl     *studio.Controller
	reviewer *policy.Reviewer
	server   *mcp.Server
}

type Option func(*Server)

// WithReviewer attaches policy findings to generated content and enables
// the review_content tool
func WithReviewer(r *policy.Reviewer) Option {
	return func(s *Server) {
		s.reviewer = r
	}
}

func New(ctrl *studio.Controller, version string, opts ...Option) *Server {
	s := &Server{
		ctrl: ctrl,
		server: mcp.NewServer(&mcp.Implementation{
			Name:    serverName,
			Version: version,
		}, nil),
	}
	for _, opt := range opts {
		opt(s)
	}

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "generate_content",
		Description: "Generate a complete YouTube content package (script, titles, tags, description, thumbnail prompts) in Brazilian Portuguese for a biblical theme. The result is saved as a new conversation and becomes active.",
	}, s.generateContent)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "regenerate_section",
		Description: "Regenerate one section of the active content package, keeping the other sections unchanged. Sections: script, titles, tags, description, thumbnailPrompts.",
	}, s.regenerateSection)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_conversations",
		Description: "List saved conversations, most recent first",
	}, s.listConversations)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "select_conversation",
		Description: "Make a saved conversation active and return its input and content",
	}, s.selectConversation)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "delete_conversation",
		Description: "Delete a saved conversation",
	}, s.deleteConversation)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "new_conversation",
		Description: "Start a blank session",
	}, s.newConversation)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "export_content",
		Description: "Render the active content package as a plain-text document",
	}, s.exportContent)

	if s.reviewer != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "review_content",
			Description: "Check the active content package against the YouTube metadata limits and the configured policies",
		}, s.reviewContent)
	}

	return s
}

// MCP returns the underlying server, e.g. to connect custom transports
func (s *Server) MCP() *mcp.Server {
	return s.server
}

// Run serves over stdin/stdout until ctx is cancelled or the client disconnects
func (s *Server) Run(ctx context.Context) error {
	logging.From(ctx).Info("MCP server started", "transport", "stdio")
	if err := s.server.Run(ctx, &mcp.StdioTransport{}); err != nil {
		return goerr.Wrap(err, "MCP server stopped")
	}
	return nil
}

type generateParams struct {
	Theme            string `json:"theme" jsonschema:"Biblical theme or passage, e.g. Números 13"`
	Tone             string `json:"tone" jsonschema:"Desired tone or style"`
	Audience         string `json:"audience" jsonschema:"Target audience"`
	CreativeIdea     string `json:"creativeIdea,omitempty" jsonschema:"Optional creative idea for the script"`
	TitleIdeas       string `json:"titleIdeas,omitempty" jsonschema:"Optional ideas for the titles"`
	DescriptionIdeas string `json:"descriptionIdeas,omitempty" jsonschema:"Optional ideas for the description"`
	ThumbnailIdeas   string `json:"thumbnailIdeas,omitempty" jsonschema:"Optional ideas for the thumbnails"`
}

type regenerateParams struct {
	Section string `json:"section" jsonschema:"Section to regenerate: script, titles, tags, description or thumbnailPrompts"`
	Idea    string `json:"idea,omitempty" jsonschema:"Optional new idea to incorporate"`
}

type conversationParams struct {
	ID string `json:"id" jsonschema:"Conversation ID as returned by list_conversations"`
}

type conversationView struct {
	ID        model.ConversationID    `json:"id"`
	Title     string                  `json:"title"`
	CreatedAt time.Time               `json:"timestamp"`
	Active    bool                    `json:"active,omitempty"`
	Input     *model.UserInput        `json:"input,omitempty"`
	Content   *model.GeneratedContent `json:"content,omitempty"`
	Findings  []policy.Finding        `json:"findings,omitempty"`
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
	}
}

func jsonResult(v any) (*mcp.CallToolResult, any, error) {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, nil, goerr.Wrap(err, "failed to marshal tool result")
	}
	return textResult(string(raw)), nil, nil
}

// errorResult reports a failure to the client with the user-facing message;
// the cause stays in the log
func errorResult(ctx context.Context, tool string, err error) (*mcp.CallToolResult, any, error) {
	logging.From(ctx).Error("tool call failed", "tool", tool, "error", err)
	result := textResult(studio.UserMessage(err))
	result.IsError = true
	return result, nil, nil
}

func (s *Server) generateContent(ctx context.Context, req *mcp.CallToolRequest, params *generateParams) (*mcp.CallToolResult, any, error) {
	input := model.UserInput{
		Theme:            params.Theme,
		Tone:             params.Tone,
		Audience:         params.Audience,
		CreativeIdea:     params.CreativeIdea,
		TitleIdeas:       params.TitleIdeas,
		DescriptionIdeas: params.DescriptionIdeas,
		ThumbnailIdeas:   params.ThumbnailIdeas,
	}

	conv, err := s.ctrl.Generate(ctx, input)
	if err != nil {
		return errorResult(ctx, "generate_content", err)
	}

	return jsonResult(conversationView{
		ID:        conv.ID,
		Title:     conv.Title,
		CreatedAt: conv.CreatedAt,
		Active:    true,
		Content:   conv.Content,
		Findings:  s.review(ctx, conv.Content),
	})
}

// review returns policy findings, or nil when no reviewer is attached or
// the evaluation fails
func (s *Server) review(ctx context.Context, content *model.GeneratedContent) []policy.Finding {
	if s.reviewer == nil {
		return nil
	}
	findings, err := s.reviewer.Review(ctx, content)
	if err != nil {
		logging.From(ctx).Warn("failed to review content", "error", err)
		return nil
	}
	return findings
}

func (s *Server) regenerateSection(ctx context.Context, req *mcp.CallToolRequest, params *regenerateParams) (*mcp.CallToolResult, any, error) {
	content, err := s.ctrl.Regenerate(ctx, model.Section(params.Section), params.Idea)
	if err != nil {
		return errorResult(ctx, "regenerate_section", err)
	}
	return jsonResult(content)
}

func (s *Server) listConversations(ctx context.Context, req *mcp.CallToolRequest, params *struct{}) (*mcp.CallToolResult, any, error) {
	active := s.ctrl.State().ActiveID
	conversations := s.ctrl.History()

	views := make([]conversationView, 0, len(conversations))
	for _, c := range conversations {
		views = append(views, conversationView{
			ID:        c.ID,
			Title:     c.Title,
			CreatedAt: c.CreatedAt,
			Active:    c.ID == active,
		})
	}
	return jsonResult(views)
}

func (s *Server) selectConversation(ctx context.Context, req *mcp.CallToolRequest, params *conversationParams) (*mcp.CallToolResult, any, error) {
	conv, err := s.ctrl.SelectConversation(model.ConversationID(params.ID))
	if err != nil {
		return errorResult(ctx, "select_conversation", err)
	}
	return jsonResult(conversationView{
		ID:        conv.ID,
		Title:     conv.Title,
		CreatedAt: conv.CreatedAt,
		Active:    true,
		Input:     &conv.Input,
		Content:   conv.Content,
	})
}

func (s *Server) deleteConversation(ctx context.Context, req *mcp.CallToolRequest, params *conversationParams) (*mcp.CallToolResult, any, error) {
	if err := s.ctrl.DeleteConversation(ctx, model.ConversationID(params.ID)); err != nil {
		return errorResult(ctx, "delete_conversation", err)
	}
	return textResult("Conversa excluída: " + params.ID), nil, nil
}

func (s *Server) newConversation(ctx context.Context, req *mcp.CallToolRequest, params *struct{}) (*mcp.CallToolResult, any, error) {
	if err := s.ctrl.NewConversation(); err != nil {
		return errorResult(ctx, "new_conversation", err)
	}
	return textResult("Nova conversa iniciada."), nil, nil
}

func (s *Server) exportContent(ctx context.Context, req *mcp.CallToolRequest, params *struct{}) (*mcp.CallToolResult, any, error) {
	text, err := s.ctrl.Export()
	if err != nil {
		return errorResult(ctx, "export_content", err)
	}
	return textResult(text), nil, nil
}

func (s *Server) reviewContent(ctx context.Context, req *mcp.CallToolRequest, params *struct{}) (*mcp.CallToolResult, any, error) {
	content := s.ctrl.State().Content
	if content == nil {
		return errorResult(ctx, "review_content", goerr.Wrap(studio.ErrNoContent, "nothing to review"))
	}

	findings, err := s.reviewer.Review(ctx, content)
	if err != nil {
		return errorResult(ctx, "review_content", err)
	}
	if findings == nil {
		findings = []policy.Finding{}
	}
	return jsonResult(findings)
}
