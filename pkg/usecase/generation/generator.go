package generation

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/m-mizutani/goerr/v2"
	"github.com/verbo-studio/verbo/pkg/adapter"
	"github.com/verbo-studio/verbo/pkg/model"
	"github.com/verbo-studio/verbo/pkg/prompt"
	"github.com/verbo-studio/verbo/pkg/schema"
	"github.com/verbo-studio/verbo/pkg/utils/logging"
	"google.golang.org/genai"
)

const (
	// FullTemperature favours variety over strict determinism
	FullTemperature float32 = 0.8
	// SectionTemperature is higher so regenerated sections differ from the current ones
	SectionTemperature float32 = 0.9
)

// Generator issues one request to the AI service per operation. It never
// retries; a failure is classified and returned to the caller immediately.
type Generator struct {
	newGemini adapter.GeminiFactory
}

func New(factory adapter.GeminiFactory) *Generator {
	return &Generator{newGemini: factory}
}

// Generate requests the whole content package
func (g *Generator) Generate(ctx context.Context, apiKey string, input model.UserInput) (*model.GeneratedContent, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fail(ctx, ErrMissingCredential, "")
	}

	text, err := prompt.Full(input)
	if err != nil {
		return nil, fail(ctx, err, "")
	}

	contract := schema.Full()
	raw, err := g.call(ctx, apiKey, text, contract, FullTemperature)
	if err != nil {
		return nil, fail(ctx, err, "")
	}

	var content model.GeneratedContent
	if err := decode(ctx, raw, contract, &content); err != nil {
		return nil, fail(ctx, err, "")
	}

	logging.From(ctx).Info("content generated",
		"theme", input.Theme,
		"titles", len(content.Titles),
		"tags", len(content.Tags),
		"thumbnail_prompts", len(content.ThumbnailPrompts),
	)
	return &content, nil
}

// RegenerateSection requests a new version of one section. The returned
// patch carries only that field.
func (g *Generator) RegenerateSection(ctx context.Context, apiKey string, section model.Section, input model.UserInput, current *model.GeneratedContent, idea string) (*model.Patch, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fail(ctx, ErrMissingCredential, section)
	}

	contract, err := schema.Section(section)
	if err != nil {
		return nil, fail(ctx, err, section)
	}

	text, err := prompt.Section(section, input, current, idea)
	if err != nil {
		return nil, fail(ctx, err, section)
	}

	raw, err := g.call(ctx, apiKey, text, contract, SectionTemperature)
	if err != nil {
		return nil, fail(ctx, err, section)
	}

	patch := &model.Patch{Section: section}
	if err := decode(ctx, raw, contract, &patch.Content); err != nil {
		return nil, fail(ctx, err, section)
	}

	logging.From(ctx).Info("section regenerated", "section", section)
	return patch, nil
}

func fail(ctx context.Context, cause error, section model.Section) error {
	genErr := newError(cause, section)
	logging.From(ctx).Error("generation failed",
		"kind", genErr.Kind,
		"section", section,
		"error", cause,
	)
	return genErr
}

func (g *Generator) call(ctx context.Context, apiKey, text string, contract *jsonschema.Schema, temperature float32) (string, error) {
	responseSchema, err := schema.ToGenai(contract)
	if err != nil {
		return "", goerr.Wrap(err, "failed to convert response schema")
	}

	client, err := g.newGemini(ctx, apiKey)
	if err != nil {
		return "", goerr.Wrap(err, "failed to create gemini client")
	}

	config := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   responseSchema,
		Temperature:      genai.Ptr(temperature),
	}
	contents := []*genai.Content{
		genai.NewContentFromText(text, genai.RoleUser),
	}

	resp, err := client.GenerateContent(ctx, contents, config)
	if err != nil {
		return "", err
	}

	return responseText(resp)
}

func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil {
		return "", goerr.New("empty response from gemini")
	}
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		return "", goerr.New("prompt blocked: "+string(resp.PromptFeedback.BlockReason),
			goerr.V("message", resp.PromptFeedback.BlockReasonMessage))
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		if len(resp.Candidates) > 0 && resp.Candidates[0].FinishReason != "" {
			return "", goerr.New("no content generated, finish reason: " + string(resp.Candidates[0].FinishReason))
		}
		return "", goerr.New("invalid response structure from gemini")
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part.Thought {
			continue
		}
		b.WriteString(part.Text)
	}
	return b.String(), nil
}

// decode parses the response text. Invalid JSON and missing required fields
// are failures; cardinality and length violations are only logged.
func decode(ctx context.Context, raw string, contract *jsonschema.Schema, out any) error {
	text := trimFence(strings.TrimSpace(raw))

	var value map[string]any
	if err := json.Unmarshal([]byte(text), &value); err != nil {
		return goerr.Wrap(err, "failed to parse response as JSON", goerr.V("response", text))
	}

	for _, field := range contract.Required {
		if _, ok := value[field]; !ok {
			return goerr.New("response misses required field", goerr.V("field", field), goerr.V("response", text))
		}
	}

	if err := schema.Validate(contract, value); err != nil {
		logging.From(ctx).Warn("contract violation in generated content", "error", err)
	}

	if err := json.Unmarshal([]byte(text), out); err != nil {
		return goerr.Wrap(err, "failed to decode response", goerr.V("response", text))
	}
	return nil
}

// trimFence removes a markdown code fence some models wrap JSON in
func trimFence(text string) string {
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}
