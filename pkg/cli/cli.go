package cli

import (
	"context"
	"io"
	"os"

	"github.com/urfave/cli/v3"
	"github.com/verbo-studio/verbo/pkg/utils/logging"
)

var version = "dev"

type Error struct {
	Code    int
	Message string
}

func Run(ctx context.Context, argv []string) *Error {
	cmd := &cli.Command{
		Name:    "verbo",
		Usage:   "Biblical YouTube content generator powered by Gemini",
		Version: version,
		Commands: []*cli.Command{
			generateCommand(),
			regenerateCommand(),
			historyCommand(),
			exportCommand(),
			keyCommand(),
			shellCommand(),
			mcpCommand(),
		},
	}

	if err := cmd.Run(ctx, argv); err != nil {
		logging.Default().Debug("command failed", "error", err)
		return &Error{
			Code:    1,
			Message: userMessage(err),
		}
	}

	return nil
}

// errWriter returns where progress and logs go, keeping stdout for content
func errWriter(c *cli.Command) io.Writer {
	if w := c.Root().ErrWriter; w != nil {
		return w
	}
	return os.Stderr
}
