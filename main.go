package main

import (
	"context"
	"os"

	"github.com/yenchangchen131/BEARS-dataset/pkg/cli"
)

func main() {
	ctx := context.Background()
	if err := cli.Run(ctx, os.Args); err != nil {
		os.Exit(err.Code)
	}
}
