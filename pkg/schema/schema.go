// Package schema declares the structured-output contracts requested from the
// AI service, for the whole content package and for each regenerable section.
package schema

import (
	"github.com/google/jsonschema-go/jsonschema"
	"github.com/verbo-studio/verbo/pkg/model"
)

const (
	TitleCount           = 5
	MinTags              = 10
	MaxTags              = 15
	MaxDescriptionLength = 2000
	ThumbnailPromptCount = 3
)

func ptr[T any](v T) *T {
	return &v
}

// field returns a fresh definition of one package field. Section schemas
// wrap the same definitions so both contracts stay identical.
func field(section model.Section) *jsonschema.Schema {
	switch section {
	case model.SectionScript:
		return &jsonschema.Schema{
			Type:        "string",
			Description: "The complete narrative script of approximately 10,500 characters, containing only the narration text and ending with a call to action.",
		}
	case model.SectionTitles:
		return &jsonschema.Schema{
			Type:        "array",
			Description: "A list of 5 SEO-optimized YouTube titles, where at least one includes a CTA.",
			Items:       &jsonschema.Schema{Type: "string"},
			MinItems:    ptr(TitleCount),
			MaxItems:    ptr(TitleCount),
		}
	case model.SectionTags:
		return &jsonschema.Schema{
			Type:        "array",
			Description: "A list of 10 to 15 relevant YouTube tags.",
			Items:       &jsonschema.Schema{Type: "string"},
			MinItems:    ptr(MinTags),
			MaxItems:    ptr(MaxTags),
		}
	case model.SectionDescription:
		return &jsonschema.Schema{
			Type:        "string",
			Description: "An SEO-optimized description for the YouTube video, ending with a strong call to action. It should be well-structured with paragraphs for readability.",
			MaxLength:   ptr(MaxDescriptionLength),
		}
	case model.SectionThumbnailPrompts:
		return &jsonschema.Schema{
			Type:        "array",
			Description: "A list of 3 creative prompts for the video thumbnail, written in Portuguese (Brazil).",
			Items:       &jsonschema.Schema{Type: "string"},
			MinItems:    ptr(ThumbnailPromptCount),
			MaxItems:    ptr(ThumbnailPromptCount),
		}
	default:
		return nil
	}
}

func init() {
	for _, s := range model.Sections() {
		if field(s) == nil {
			panic("schema: no field definition for section " + string(s))
		}
	}
}

// Full returns the contract for the whole five-field package
func Full() *jsonschema.Schema {
	sections := model.Sections()
	props := make(map[string]*jsonschema.Schema, len(sections))
	required := make([]string, 0, len(sections))
	for _, s := range sections {
		props[string(s)] = field(s)
		required = append(required, string(s))
	}

	return &jsonschema.Schema{
		Type:       "object",
		Properties: props,
		Required:   required,
	}
}

// Section returns the single-field contract used when regenerating one section
func Section(section model.Section) (*jsonschema.Schema, error) {
	if err := section.Validate(); err != nil {
		return nil, err
	}

	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			string(section): field(section),
		},
		Required: []string{string(section)},
	}, nil
}
