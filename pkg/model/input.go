package model

import (
	"strings"

	"github.com/m-mizutani/goerr/v2"
)

var (
	ErrRequiredFields = goerr.New("theme, tone and audience are required")
)

// UserInput is the form a creator fills in before generating a content package.
// Only Theme, Tone and Audience are required.
type UserInput struct {
	Theme            string `json:"theme" yaml:"theme"`
	Tone             string `json:"tone" yaml:"tone"`
	Audience         string `json:"audience" yaml:"audience"`
	CreativeIdea     string `json:"creativeIdea" yaml:"creativeIdea"`
	TitleIdeas       string `json:"titleIdeas" yaml:"titleIdeas"`
	DescriptionIdeas string `json:"descriptionIdeas" yaml:"descriptionIdeas"`
	ThumbnailIdeas   string `json:"thumbnailIdeas" yaml:"thumbnailIdeas"`
}

// Validate checks that the required fields are filled
func (x UserInput) Validate() error {
	var missing []string
	if strings.TrimSpace(x.Theme) == "" {
		missing = append(missing, "theme")
	}
	if strings.TrimSpace(x.Tone) == "" {
		missing = append(missing, "tone")
	}
	if strings.TrimSpace(x.Audience) == "" {
		missing = append(missing, "audience")
	}

	if len(missing) > 0 {
		return goerr.Wrap(ErrRequiredFields, "missing required input", goerr.V("fields", missing))
	}
	return nil
}
