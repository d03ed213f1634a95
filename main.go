package main

import (
	"context"
	"fmt"
	"os"

	"github.com/verbo-studio/verbo/pkg/cli"
)

func main() {
	ctx := context.Background()
	if err := cli.Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "Erro:", err.Message)
		os.Exit(err.Code)
	}
}
