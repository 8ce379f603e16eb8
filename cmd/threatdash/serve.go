package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/pynezz/threatdash/internal/api"
	"github.com/pynezz/threatdash/internal/config"
	"github.com/pynezz/threatdash/internal/status"
	"github.com/pynezz/threatdash/internal/tui"
	"github.com/pynezz/threatdash/internal/util"
)

func newServeCommand(opts *rootOptions) *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the web dashboard",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			if listen != "" {
				cfg.Dashboard.Listen = listen
			}

			dash, client, err := newDashboard(cfg, status.NewBoard(status.Console{}))
			if err != nil {
				return err
			}
			app := api.NewServer(cfg, dash, client)

			tui.Header.PrintHeader()
			util.PrintSuccess(fmt.Sprintf("Dashboard listening on %s", cfg.Dashboard.Listen))
			return runServer(cmd.Context(), cfg.Dashboard.Listen, app.Listen, app.Shutdown, func(ctx context.Context) error {
				if opts.configPath == "" {
					return nil
				}
				util.PrintInfo(util.ItalicF("Watching %s for changes", opts.configPath))
				return config.Watch(ctx, opts.configPath, app.SetConfig)
			})
		},
	}
	cmd.Flags().StringVarP(&listen, "listen", "l", "", "Listen address (overrides dashboard.listen)")
	return cmd
}

// runServer runs listen until ctx ends, then shuts down. extra runs next to
// the server and is cancelled with it.
func runServer(ctx context.Context, addr string, listen func(string) error, shutdown func() error, extra ...func(context.Context) error) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := listen(addr); err != nil {
			return fmt.Errorf("listen %s: %w", addr, err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		util.PrintInfo("Shutting down")
		return shutdown()
	})
	for _, fn := range extra {
		fn := fn
		g.Go(func() error {
			if err := fn(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}

	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
