package cli

import (
	"os"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
	"github.com/verbo-studio/verbo/pkg/model"
	"gopkg.in/yaml.v3"
)

// loadInput reads UserInput from a YAML or JSON file
func loadInput(path string) (model.UserInput, error) {
	var input model.UserInput

	data, err := os.ReadFile(path)
	if err != nil {
		return input, goerr.Wrap(err, "failed to read input file", goerr.V("path", path))
	}
	if err := yaml.Unmarshal(data, &input); err != nil {
		return input, goerr.Wrap(err, "failed to parse input file", goerr.V("path", path))
	}
	return input, nil
}

// inputFlags binds the input fields to flags. Flags given on the command
// line override values from the input file.
type inputFlags struct {
	file  string
	input model.UserInput
}

func (f *inputFlags) flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "input",
			Aliases:     []string{"i"},
			Usage:       "YAML or JSON file with the input fields",
			Destination: &f.file,
		},
		&cli.StringFlag{
			Name:        "theme",
			Aliases:     []string{"t"},
			Usage:       "Biblical theme or passage (required)",
			Destination: &f.input.Theme,
		},
		&cli.StringFlag{
			Name:        "tone",
			Usage:       "Desired tone or style (required)",
			Destination: &f.input.Tone,
		},
		&cli.StringFlag{
			Name:        "audience",
			Aliases:     []string{"a"},
			Usage:       "Target audience (required)",
			Destination: &f.input.Audience,
		},
		&cli.StringFlag{
			Name:        "idea",
			Usage:       "Creative idea for the script",
			Destination: &f.input.CreativeIdea,
		},
		&cli.StringFlag{
			Name:        "title-ideas",
			Usage:       "Ideas for the titles",
			Destination: &f.input.TitleIdeas,
		},
		&cli.StringFlag{
			Name:        "description-ideas",
			Usage:       "Ideas for the description",
			Destination: &f.input.DescriptionIdeas,
		},
		&cli.StringFlag{
			Name:        "thumbnail-ideas",
			Usage:       "Ideas for the thumbnails",
			Destination: &f.input.ThumbnailIdeas,
		},
	}
}

// resolve merges the input file with flag values
func (f *inputFlags) resolve() (model.UserInput, error) {
	if f.file == "" {
		return f.input, nil
	}

	input, err := loadInput(f.file)
	if err != nil {
		return input, err
	}

	override := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	override(&input.Theme, f.input.Theme)
	override(&input.Tone, f.input.Tone)
	override(&input.Audience, f.input.Audience)
	override(&input.CreativeIdea, f.input.CreativeIdea)
	override(&input.TitleIdeas, f.input.TitleIdeas)
	override(&input.DescriptionIdeas, f.input.DescriptionIdeas)
	override(&input.ThumbnailIdeas, f.input.ThumbnailIdeas)
	return input, nil
}
