package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"
)

// @title Mixologue API
// @version 1.0
// @description Cocktail recipes generated by an LLM, illustrated by a chain of image providers.

// @host localhost:8080
// @BasePath /api/v1

// overridden during build with ldflags
var version = "dev"

func main() {
	if err := newApp().Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:    "mixologue",
		Usage:   "Cocktail generator API server",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "env-file",
				Usage:   "dotenv file loaded before reading the environment",
				Value:   ".env",
				Sources: cli.EnvVars("MIXOLOGUE_ENV_FILE"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "serve",
				Usage: "Run the HTTP API (default)",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return serve(ctx, cmd.String("env-file"))
				},
			},
			{
				Name:  "migrate",
				Usage: "Create or update the database schema and exit",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return migrate(cmd.String("env-file"))
				},
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return serve(ctx, cmd.String("env-file"))
		},
	}
}
