package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/jcmexdev/grocery-storefront/internal/pkg/config"
	"github.com/jcmexdev/grocery-storefront/internal/pkg/telemetry"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app := &cli.App{
		Name:  "storefront",
		Usage: "grocery storefront server and tools",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "log-level", Usage: "debug, info, warn or error"},
		},
		Before: func(c *cli.Context) error {
			logging, err := config.LoadLogging()
			if err != nil {
				return err
			}
			level := logging.LogLevel
			if c.IsSet("log-level") {
				level = c.String("log-level")
			}
			telemetry.InitLogger(level)
			return nil
		},
		Commands: []*cli.Command{
			serveCommand(),
			trackCommand(),
			statusCommand(),
			shopCommand(),
			{
				Name:  "env",
				Usage: "list the environment variables read by serve",
				Action: func(*cli.Context) error {
					return config.Usage()
				},
			},
		},
	}

	if err := app.RunContext(ctx, os.Args); err != nil {
		slog.Error("storefront failed", "error", err)
		os.Exit(1)
	}
}
