package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
	"github.com/verbo-studio/verbo/pkg/model"
	"github.com/verbo-studio/verbo/pkg/usecase/studio"
)

// resolveConversation accepts a conversation ID or its 1-based position in
// the history list. An empty ref selects the most recent conversation.
func resolveConversation(conversations []*model.Conversation, ref string) (model.ConversationID, error) {
	if ref == "" {
		if len(conversations) == 0 {
			return "", goerr.Wrap(studio.ErrConversationNotFound, "history is empty")
		}
		return conversations[0].ID, nil
	}

	if n, err := strconv.Atoi(ref); err == nil && n >= 1 && n <= len(conversations) {
		return conversations[n-1].ID, nil
	}
	return model.ConversationID(ref), nil
}

func historyCommand() *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Manage saved conversations",
		Commands: []*cli.Command{
			historyListCommand(),
			historyShowCommand(),
			historyDeleteCommand(),
		},
	}
}

func historyListCommand() *cli.Command {
	var cfg config

	return &cli.Command{
		Name:    "list",
		Aliases: []string{"ls"},
		Usage:   "List saved conversations, most recent first",
		Flags:   globalFlags(&cfg),
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

			return printHistory(c.Root().Writer, a.ctrl.History(), "")
		},
	}
}

func historyShowCommand() *cli.Command {
	var cfg config

	return &cli.Command{
		Name:      "show",
		Usage:     "Show a saved conversation",
		ArgsUsage: "[id | number]",
		Flags:     globalFlags(&cfg),
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

			id, err := resolveConversation(a.ctrl.History(), c.Args().First())
			if err != nil {
				return err
			}
			conv, err := a.ctrl.SelectConversation(id)
			if err != nil {
				return err
			}

			w := c.Root().Writer
			fmt.Fprintf(w, "ID: %s\nCriado em: %s\nTom: %s\nPúblico: %s\n\n",
				conv.ID, conv.CreatedAt.Local().Format("2006-01-02 15:04"), conv.Input.Tone, conv.Input.Audience)
			fmt.Fprint(w, studio.Export(conv.Input, conv.Content))
			return nil
		},
	}
}

func historyDeleteCommand() *cli.Command {
	var cfg config

	return &cli.Command{
		Name:      "delete",
		Aliases:   []string{"rm"},
		Usage:     "Delete a saved conversation",
		ArgsUsage: "<id | number>",
		Flags:     globalFlags(&cfg),
		Action: func(ctx context.Context, c *cli.Command) error {
			if c.Args().Len() != 1 {
				return goerr.New("conversation id or number is required")
			}

			ctx, err := cfg.setupLogger(ctx, errWriter(c))
			if err != nil {
				return err
			}

			a, err := cfg.newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			id, err := resolveConversation(a.ctrl.History(), c.Args().First())
			if err != nil {
				return err
			}
			if err := a.ctrl.DeleteConversation(ctx, id); err != nil {
				return err
			}

			fmt.Fprintf(c.Root().Writer, "Conversa excluída: %s\n", id)
			return nil
		},
	}
}
