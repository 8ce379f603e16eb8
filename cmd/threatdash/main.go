package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/pynezz/threatdash/internal/config"
	"github.com/pynezz/threatdash/internal/dashboard"
	"github.com/pynezz/threatdash/internal/fetcher"
	"github.com/pynezz/threatdash/internal/middleware"
	"github.com/pynezz/threatdash/internal/status"
	"github.com/pynezz/threatdash/internal/util"
	"github.com/pynezz/threatdash/pkg/version"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		if !errors.Is(err, errReported) {
			util.PrintError(err.Error())
		}
		stop()
		os.Exit(1)
	}
}

// rootOptions are the persistent flags.
type rootOptions struct {
	configPath string
	backend    string
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "threatdash",
		Short:         "Threat-intel dashboard for the feed analysis API",
		Version:       version.Version(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.CompletionOptions.DisableDefaultCmd = true
	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Path to the yaml configuration file")
	cmd.PersistentFlags().StringVarP(&opts.backend, "backend", "b", "", "Backend base url (overrides the config file)")

	cmd.AddCommand(
		newServeCommand(opts),
		newTuiCommand(opts),
		newIngestCommand(opts),
		newReportsCommand(opts),
		newReportCommand(opts),
		newCVECommand(opts),
		newVoiceCommand(opts),
		newFixtureCommand(opts),
		newConfigCommand(opts),
		newVersionCommand(),
	)
	return cmd
}

// load reads the config file, or the defaults when none is given, and
// applies the flag overrides.
func (o *rootOptions) load() (*config.Cfg, error) {
	cfg := config.Default()
	if o.configPath != "" {
		var err error
		if cfg, err = config.LoadConfig(o.configPath); err != nil {
			return nil, err
		}
	}
	if o.backend != "" {
		cfg.Backend.URL = o.backend
		if err := config.Validate(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// newClient builds the backend client from cfg.
func newClient(cfg *config.Cfg) (*fetcher.Client, error) {
	opts := []fetcher.Option{
		fetcher.WithTimeout(time.Duration(cfg.Backend.Timeout) * time.Second),
	}
	if cfg.Backend.TokenSecret != "" {
		opts = append(opts, fetcher.WithTokenSource(middleware.TokenSource("threatdash", cfg.Backend.TokenSecret)))
	}
	return fetcher.New(cfg.Backend.URL, opts...)
}

// newDashboard wires a dashboard to the configured backend.
func newDashboard(cfg *config.Cfg, board *status.Board) (*dashboard.Dashboard, *fetcher.Client, error) {
	client, err := newClient(cfg)
	if err != nil {
		return nil, nil, err
	}
	dash := dashboard.New(client, board,
		dashboard.WithFeeds(cfg.Feeds),
		dashboard.WithSection(cfg.Dashboard.InitialSection),
		dashboard.WithItemCount(cfg.Dashboard.DefaultCount),
	)
	return dash, client, nil
}
