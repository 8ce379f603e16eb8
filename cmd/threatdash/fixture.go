package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/pynezz/threatdash/internal/database/stores"
	"github.com/pynezz/threatdash/internal/fixture"
	"github.com/pynezz/threatdash/internal/util"
)

func newFixtureCommand(opts *rootOptions) *cobra.Command {
	var (
		listen string
		dbPath string
		seed   string
	)

	cmd := &cobra.Command{
		Use:   "fixture",
		Short: "Serve a stub backend with seeded reports and CVEs",
		Long: `Serves /ingest, /reports, /report/{id}, /cve/{id} and /voice_query from a
sqlite database seeded with canned records. Ingestion returns the seed's feed
items whatever the url. When backend.token_secret is set every request needs a
bearer token signed with it.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			if listen == "" {
				listen = cfg.Fixture.Listen
			}
			if dbPath == "" {
				dbPath = cfg.Fixture.Database
			}
			if seed == "" {
				seed = cfg.Fixture.Seed
			}

			st, err := stores.ImportAndInit(dbPath, gorm.Config{})
			if err != nil {
				return err
			}
			defer st.Close()

			s, err := fixture.LoadSeed(seed)
			if err != nil {
				return err
			}
			if err := s.Apply(st, time.Now()); err != nil {
				return err
			}

			app := fixture.NewServer(st, s, fixture.Options{Secret: cfg.Backend.TokenSecret})
			util.PrintSuccess(fmt.Sprintf("Fixture backend listening on %s", listen))
			return runServer(cmd.Context(), listen, app.Listen, app.Shutdown)
		},
	}
	cmd.Flags().StringVarP(&listen, "listen", "l", "", "Listen address (overrides fixture.listen)")
	cmd.Flags().StringVar(&dbPath, "db", "", "sqlite database file, or :memory:")
	cmd.Flags().StringVar(&seed, "seed", "", "Seed yaml file (default: built-in seed)")
	return cmd
}
