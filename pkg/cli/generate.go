package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
	"github.com/verbo-studio/verbo/pkg/usecase/studio"
)

func generateCommand() *cli.Command {
	var (
		cfg    config
		input  inputFlags
		output string
		asJSON bool
	)

	flags := input.flags()
	flags = append(flags,
		&cli.StringFlag{
			Name:        "output",
			Aliases:     []string{"o"},
			Usage:       "Also write the export document to this file",
			Destination: &output,
		},
		&cli.BoolFlag{
			Name:        "json",
			Usage:       "Print the generated content as JSON",
			Destination: &asJSON,
		},
	)
	flags = append(flags, globalFlags(&cfg)...)
	flags = append(flags, llmFlags(&cfg)...)

	return &cli.Command{
		Name:  "generate",
		Usage: "Generate a YouTube content package for a biblical theme",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx, err := cfg.setupLogger(ctx, errWriter(c))
			if err != nil {
				return err
			}

			userInput, err := input.resolve()
			if err != nil {
				return err
			}

			a, err := cfg.newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			stop := startSpinner(errWriter(c), "Gerando conteúdo...")
			conv, err := a.ctrl.Generate(ctx, userInput)
			stop()
			if err != nil {
				return err
			}

			w := c.Root().Writer
			if asJSON {
				raw, err := json.MarshalIndent(conv, "", "  ")
				if err != nil {
					return goerr.Wrap(err, "failed to marshal conversation")
				}
				fmt.Fprintln(w, string(raw))
			} else {
				fmt.Fprint(w, studio.Export(conv.Input, conv.Content))
			}

			if output != "" {
				if err := writeExport(errWriter(c), output, studio.Export(conv.Input, conv.Content)); err != nil {
					return err
				}
			}

			reviewContent(ctx, errWriter(c), a.reviewer, conv.Content)
			fmt.Fprintf(errWriter(c), "Conversa salva: %s\n", conv.ID)
			return nil
		},
	}
}
