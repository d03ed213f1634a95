package cli

import (
	"context"

	"github.com/urfave/cli/v3"
	"github.com/verbo-studio/verbo/pkg/usecase/studio"
)

func exportCommand() *cli.Command {
	var (
		cfg    config
		ref    string
		output string
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "conversation",
			Aliases:     []string{"c"},
			Usage:       "Conversation ID or number (default: most recent)",
			Destination: &ref,
		},
		&cli.StringFlag{
			Name:        "output",
			Aliases:     []string{"o"},
			Usage:       `Output file, "-" for stdout`,
			Value:       studio.ExportFileName,
			Destination: &output,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)

	return &cli.Command{
		Name:  "export",
		Usage: "Export a saved conversation as a plain-text document",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx, err := cfg.setupLogger(ctx, errWriter(c))
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

			text, err := a.ctrl.Export()
			if err != nil {
				return err
			}
			return writeExport(c.Root().Writer, output, text)
		},
	}
}
