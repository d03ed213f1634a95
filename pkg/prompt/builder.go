// Package prompt builds the natural-language instructions sent to the AI
// service, one for the whole content package and one per regenerable section.
package prompt

import (
	"bytes"
	"embed"
	"strings"
	"text/template"

	"github.com/m-mizutani/goerr/v2"
	"github.com/verbo-studio/verbo/pkg/model"
	"github.com/verbo-studio/verbo/pkg/schema"
)

const (
	FallbackCreativeIdea = "No specific idea provided, use your theological creativity."
	FallbackSEOIdea      = "None, use your creativity."
	FallbackNewIdea      = "No new idea provided, use your creativity."
)

//go:embed templates/*.md
var templateFS embed.FS

var templates = template.Must(template.New("prompt").Funcs(template.FuncMap{
	"join": strings.Join,
}).ParseFS(templateFS, "templates/*.md"))

// SectionBuilder builds the regeneration prompt of one section
type SectionBuilder func(input model.UserInput, current *model.GeneratedContent, idea string) (string, error)

var sectionBuilders = map[model.Section]SectionBuilder{
	model.SectionScript:           sectionTemplate("script.md"),
	model.SectionTitles:           sectionTemplate("titles.md"),
	model.SectionTags:             sectionTemplate("tags.md"),
	model.SectionDescription:      sectionTemplate("description.md"),
	model.SectionThumbnailPrompts: sectionTemplate("thumbnails.md"),
}

func init() {
	for _, s := range model.Sections() {
		if sectionBuilders[s] == nil {
			panic("prompt: no builder for section " + string(s))
		}
	}
}

type promptData struct {
	Theme            string
	Tone             string
	Audience         string
	CreativeIdea     string
	TitleIdeas       string
	DescriptionIdeas string
	ThumbnailIdeas   string

	Idea    string
	Current *model.GeneratedContent

	TitleCount           int
	MinTags              int
	MaxTags              int
	MaxDescriptionLength int
	ThumbnailPromptCount int
}

func orDefault(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return v
}

func newPromptData(input model.UserInput) *promptData {
	return &promptData{
		Theme:            input.Theme,
		Tone:             input.Tone,
		Audience:         input.Audience,
		CreativeIdea:     orDefault(input.CreativeIdea, FallbackCreativeIdea),
		TitleIdeas:       orDefault(input.TitleIdeas, FallbackSEOIdea),
		DescriptionIdeas: orDefault(input.DescriptionIdeas, FallbackSEOIdea),
		ThumbnailIdeas:   orDefault(input.ThumbnailIdeas, FallbackSEOIdea),

		TitleCount:           schema.TitleCount,
		MinTags:              schema.MinTags,
		MaxTags:              schema.MaxTags,
		MaxDescriptionLength: schema.MaxDescriptionLength,
		ThumbnailPromptCount: schema.ThumbnailPromptCount,
	}
}

func execute(name string, data *promptData) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", goerr.Wrap(err, "failed to execute prompt template", goerr.V("template", name))
	}
	return buf.String(), nil
}

func sectionTemplate(name string) SectionBuilder {
	return func(input model.UserInput, current *model.GeneratedContent, idea string) (string, error) {
		data := newPromptData(input)
		data.Idea = orDefault(idea, FallbackNewIdea)
		data.Current = current
		if data.Current == nil {
			data.Current = &model.GeneratedContent{}
		}
		return execute(name, data)
	}
}

// Full builds the prompt requesting the whole content package
func Full(input model.UserInput) (string, error) {
	return execute("full.md", newPromptData(input))
}

// Section builds the prompt regenerating one section. The current content is
// quoted back so the service produces a different result.
func Section(section model.Section, input model.UserInput, current *model.GeneratedContent, idea string) (string, error) {
	if err := section.Validate(); err != nil {
		return "", err
	}
	return sectionBuilders[section](input, current, idea)
}
