package cli

import (
	"context"
	"time"

	"github.com/urfave/cli/v3"
	"github.com/verbo-studio/verbo/pkg/service/mcp"
)

func mcpCommand() *cli.Command {
	var (
		cfg        config
		addr       string
		rateLimit  int64
		rateWindow time.Duration
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "http",
			Usage:       "Serve streamable HTTP on this address instead of stdio, e.g. :8080",
			Sources:     cli.EnvVars("VERBO_MCP_ADDR"),
			Destination: &addr,
		},
		&cli.IntFlag{
			Name:        "rate-limit",
			Usage:       "Maximum HTTP requests per client IP and window (0 disables)",
			Value:       60,
			Destination: &rateLimit,
		},
		&cli.DurationFlag{
			Name:        "rate-window",
			Usage:       "Rate limit window",
			Value:       time.Minute,
			Destination: &rateWindow,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)
	flags = append(flags, llmFlags(&cfg)...)

	return &cli.Command{
		Name:  "mcp",
		Usage: "Run as an MCP server exposing the generator as tools",
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

			server := mcp.New(a.ctrl, version, mcp.WithReviewer(a.reviewer))
			if addr != "" {
				return server.ListenAndServe(ctx, addr, mcp.WithRateLimit(int(rateLimit), rateWindow))
			}
			return server.Run(ctx)
		},
	}
}
