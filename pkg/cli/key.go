package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

func keyCommand() *cli.Command {
	return &cli.Command{
		Name:  "key",
		Usage: "Manage the stored Gemini API key",
		Commands: []*cli.Command{
			keySetCommand(),
			keyShowCommand(),
			keyRemoveCommand(),
		},
	}
}

// readSecret reads a secret without echo when stdin is a terminal, or one
// line from r otherwise
func readSecret(r io.Reader, prompt string) (string, error) {
	if f, ok := r.(*os.File); ok && readline.IsTerminal(int(f.Fd())) {
		rl, err := readline.New("")
		if err != nil {
			return "", goerr.Wrap(err, "failed to open terminal")
		}
		defer rl.Close()

		secret, err := rl.ReadPassword(prompt)
		if err != nil {
			return "", goerr.Wrap(err, "failed to read secret")
		}
		return string(secret), nil
	}

	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", goerr.Wrap(err, "failed to read secret")
	}
	return strings.TrimSpace(line), nil
}

func keySetCommand() *cli.Command {
	var cfg config

	return &cli.Command{
		Name:      "set",
		Usage:     "Store the Gemini API key (prompted when omitted)",
		ArgsUsage: "[key]",
		Flags:     globalFlags(&cfg),
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx, err := cfg.setupLogger(ctx, errWriter(c))
			if err != nil {
				return err
			}

			key := c.Args().First()
			if key == "" {
				key, err = readSecret(os.Stdin, "Chave de API do Gemini: ")
				if err != nil {
					return err
				}
			}

			a, err := cfg.newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.keys.Set(ctx, key); err != nil {
				return err
			}
			fmt.Fprintln(c.Root().Writer, "Chave de API salva.")
			return nil
		},
	}
}

func keyShowCommand() *cli.Command {
	var (
		cfg    config
		reveal bool
	)

	flags := []cli.Flag{
		&cli.BoolFlag{
			Name:        "reveal",
			Usage:       "Show the key unmasked",
			Destination: &reveal,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)

	return &cli.Command{
		Name:  "show",
		Usage: "Show the stored Gemini API key, masked by default",
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

			key, ok, err := a.keys.View(ctx, reveal)
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintln(c.Root().Writer, "Nenhuma chave de API configurada.")
				return nil
			}
			fmt.Fprintln(c.Root().Writer, key)
			return nil
		},
	}
}

func keyRemoveCommand() *cli.Command {
	var cfg config

	return &cli.Command{
		Name:  "remove",
		Usage: "Remove the stored Gemini API key",
		Flags: globalFlags(&cfg),
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

			if err := a.keys.Remove(ctx); err != nil {
				return err
			}
			fmt.Fprintln(c.Root().Writer, "Chave de API removida.")
			return nil
		},
	}
}
