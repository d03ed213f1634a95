package model

import (
	"slices"
	"strings"

	"github.com/m-mizutani/goerr/v2"
)

var (
	ErrInvalidSection = goerr.New("invalid section")
)

// Section is one independently regenerable field of GeneratedContent
type Section string

const (
	SectionScript           Section = "script"
	SectionTitles           Section = "titles"
	SectionTags             Section = "tags"
	SectionDescription      Section = "description"
	SectionThumbnailPrompts Section = "thumbnailPrompts"
)

// Sections returns all sections in display order
func Sections() []Section {
	return []Section{
		SectionScript,
		SectionTitles,
		SectionTags,
		SectionDescription,
		SectionThumbnailPrompts,
	}
}

// Validate checks if the section is valid
func (s Section) Validate() error {
	switch s {
	case SectionScript, SectionTitles, SectionTags, SectionDescription, SectionThumbnailPrompts:
		return nil
	default:
		return goerr.Wrap(ErrInvalidSection, "unknown section", goerr.V("section", s))
	}
}

// Label returns the heading used for the section in exports and messages
func (s Section) Label() string {
	switch s {
	case SectionScript:
		return "📜 Roteiro Narrativo"
	case SectionTitles:
		return "🏷️ Títulos Sugeridos"
	case SectionTags:
		return "🔖 Tags Otimizadas"
	case SectionDescription:
		return "📄 Descrição (SEO)"
	case SectionThumbnailPrompts:
		return "🖼️ Prompts para Thumbnails"
	default:
		return string(s)
	}
}

// Name returns the plain Portuguese name of the section
func (s Section) Name() string {
	switch s {
	case SectionScript:
		return "Roteiro"
	case SectionTitles:
		return "Títulos"
	case SectionTags:
		return "Tags"
	case SectionDescription:
		return "Descrição"
	case SectionThumbnailPrompts:
		return "Prompts para Thumbnails"
	default:
		return string(s)
	}
}

// GeneratedContent is the five-field content package returned by the AI
// service. Cardinalities (5 titles, 10-15 tags, 3 thumbnail prompts) are
// requested from the service and not enforced here.
type GeneratedContent struct {
	Script           string   `json:"script"`
	Titles           []string `json:"titles"`
	Tags             []string `json:"tags"`
	Description      string   `json:"description"`
	ThumbnailPrompts []string `json:"thumbnailPrompts"`
}

// Clone returns a deep copy of the content
func (x *GeneratedContent) Clone() *GeneratedContent {
	if x == nil {
		return nil
	}
	return &GeneratedContent{
		Script:           x.Script,
		Titles:           slices.Clone(x.Titles),
		Tags:             slices.Clone(x.Tags),
		Description:      x.Description,
		ThumbnailPrompts: slices.Clone(x.ThumbnailPrompts),
	}
}

// Text renders one section as plain text. Titles and thumbnail prompts are
// one per line; tags are comma separated.
func (x *GeneratedContent) Text(section Section) string {
	if x == nil {
		return ""
	}
	switch section {
	case SectionScript:
		return x.Script
	case SectionTitles:
		return strings.Join(x.Titles, "\n")
	case SectionTags:
		return strings.Join(x.Tags, ", ")
	case SectionDescription:
		return x.Description
	case SectionThumbnailPrompts:
		return strings.Join(x.ThumbnailPrompts, "\n")
	default:
		return ""
	}
}

// Patch is the result of regenerating a single section. Only the field named
// by Section is meaningful in Content.
type Patch struct {
	Section Section
	Content GeneratedContent
}

// Apply returns a copy of base where only the patched section is replaced
func (p *Patch) Apply(base *GeneratedContent) *GeneratedContent {
	out := base.Clone()
	if out == nil {
		out = &GeneratedContent{}
	}

	switch p.Section {
	case SectionScript:
		out.Script = p.Content.Script
	case SectionTitles:
		out.Titles = slices.Clone(p.Content.Titles)
	case SectionTags:
		out.Tags = slices.Clone(p.Content.Tags)
	case SectionDescription:
		out.Description = p.Content.Description
	case SectionThumbnailPrompts:
		out.ThumbnailPrompts = slices.Clone(p.Content.ThumbnailPrompts)
	}
	return out
}
