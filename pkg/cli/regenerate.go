package cli

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"
	"github.com/verbo-studio/verbo/pkg/usecase/studio"
)

func regenerateCommand() *cli.Command {
	var (
		cfg     config
		ref     string
		section string
		idea    string
		output  string
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "section",
			Aliases:     []string{"s"},
			Usage:       "Section to regenerate (script, titles, tags, description, thumbnails)",
			Destination: &section,
			Required:    true,
		},
		&cli.StringFlag{
			Name:        "idea",
			Usage:       "New idea to incorporate",
			Destination: &idea,
		},
		&cli.StringFlag{
			Name:        "conversation",
			Aliases:     []string{"c"},
			Usage:       "Conversation ID or number (default: most recent)",
			Destination: &ref,
		},
		&cli.StringFlag{
			Name:        "output",
			Aliases:     []string{"o"},
			Usage:       "Write the export document with the regenerated section to this file",
			Destination: &output,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)
	flags = append(flags, llmFlags(&cfg)...)

	return &cli.Command{
		Name:  "regenerate",
		Usage: "Regenerate one section of a saved conversation",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			target, err := parseSection(section)
			if err != nil {
				return err
			}

			ctx, err = cfg.setupLogger(ctx, errWriter(c))
			if err != nil {
				return err
			}

			a, err := cfg.newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			id, err := resolveConversation(a.ctrl.History(), ref)
			if err != nil {
				return err
			}
			if _, err := a.ctrl.SelectConversation(id); err != nil {
				return err
			}

			stop := startSpinner(errWriter(c), fmt.Sprintf("Regenerando %s...", target.Name()))
			content, err := a.ctrl.Regenerate(ctx, target, idea)
			stop()
			if err != nil {
				return err
			}

			printSection(c.Root().Writer, content, target)
			reviewContent(ctx, errWriter(c), a.reviewer, content)

			if output != "" {
				state := a.ctrl.State()
				return writeExport(c.Root().Writer, output, studio.Export(state.Input, content))
			}
			return nil
		},
	}
}
