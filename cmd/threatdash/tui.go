package main

import (
	"github.com/spf13/cobra"

	"github.com/pynezz/threatdash/internal/config"
	"github.com/pynezz/threatdash/internal/tui"
)

func newTuiCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Run the terminal dashboard",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			dash, _, err := newDashboard(cfg, nil)
			if err != nil {
				return err
			}

			t := tui.NewTui(cfg, dash)
			if opts.configPath != "" {
				go func() {
					_ = config.Watch(cmd.Context(), opts.configPath, func(c *config.Cfg) { dash.SetFeeds(c.Feeds) })
				}()
			}
			return t.Run(cmd.Context())
		},
	}
}
