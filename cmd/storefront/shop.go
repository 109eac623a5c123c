package main

import (
	"fmt"
	"io"
	"log/slog"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v2"

	"github.com/jcmexdev/grocery-storefront/internal/catalog"
	"github.com/jcmexdev/grocery-storefront/internal/coordinator"
	"github.com/jcmexdev/grocery-storefront/internal/navigation"
	"github.com/jcmexdev/grocery-storefront/internal/orderstore/sqlite"
	"github.com/jcmexdev/grocery-storefront/internal/pkg/telemetry"
	"github.com/jcmexdev/grocery-storefront/internal/tracking"
	"github.com/jcmexdev/grocery-storefront/internal/tui"
)

func shopCommand() *cli.Command {
	return &cli.Command{
		Name:  "shop",
		Usage: "browse and order in the terminal",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "db", Usage: "save orders to this SQLite database and track them from it"},
			&cli.StringFlag{Name: "addr", Usage: "track orders on a running storefront at this HTTP base URL"},
			grpcAddrFlag,
		},
		Action: func(c *cli.Context) error {
			// The terminal belongs to the UI.
			slog.SetDefault(telemetry.NewLogger(io.Discard, "error"))

			cat, err := catalog.Default()
			if err != nil {
				return err
			}

			opts := []navigation.Option{navigation.WithLookup(tracking.NewMock())}
			if db := c.String("db"); db != "" {
				store, err := sqlite.Open(c.Context, db)
				if err != nil {
					return err
				}
				defer store.Close()
				if err := store.UpsertProducts(c.Context, cat.All()); err != nil {
					return err
				}
				opts = append(opts,
					navigation.WithOrderSink(coordinator.NewPlacement(store, nil, nil, store.SagaLogs())),
					navigation.WithLookup(tracking.NewStoreLookup(store)),
				)
			}
			if c.IsSet("addr") || c.IsSet("grpc") {
				remote, closeFn, err := remoteLookup(c)
				if err != nil {
					return err
				}
				defer closeFn()
				opts = append(opts, navigation.WithLookup(tracking.NewRetrying(remote)))
			}

			m := tui.New(navigation.New(opts...), cat)
			defer m.Close()
			if _, err := tea.NewProgram(m, tea.WithContext(c.Context)).Run(); err != nil {
				return fmt.Errorf("run terminal ui: %w", err)
			}
			return nil
		},
	}
}
