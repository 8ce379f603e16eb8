package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/pynezz/threatdash/internal/render"
	"github.com/pynezz/threatdash/internal/status"
	"github.com/pynezz/threatdash/internal/util"
	"github.com/pynezz/threatdash/internal/view"
	"github.com/pynezz/threatdash/internal/voice"
	"github.com/pynezz/threatdash/pkg/types"
)

// errReported is returned when the failure was already printed as a status line.
var errReported = errors.New("operation failed")

func reported(err error) error {
	if err != nil {
		return errReported
	}
	return nil
}

func newIngestCommand(opts *rootOptions) *cobra.Command {
	var count string

	cmd := &cobra.Command{
		Use:   "ingest <rss-url>",
		Short: "Ingest a feed and list the stored reports",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			dash, _, err := newDashboard(cfg, status.NewBoard(status.Console{}))
			if err != nil {
				return err
			}

			if err := dash.Ingest(cmd.Context(), args[0], count); err != nil {
				return reported(err)
			}
			snap := dash.Snapshot()
			util.PrintInfo(fmt.Sprintf("Source: %s, MITRE techniques: %d", snap.Overview.LastSource, snap.Overview.LastMitreCount))
			fmt.Fprint(cmd.OutOrStdout(), reportTable(render.Cards(snap), tableWidth))
			return nil
		},
	}
	cmd.Flags().StringVarP(&count, "count", "n", "", "Number of feed items to process (default from config)")
	return cmd
}

func newReportsCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "reports",
		Short: "List the stored reports",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			dash, _, err := newDashboard(cfg, status.NewBoard(status.Console{}))
			if err != nil {
				return err
			}

			if err := dash.LoadReports(cmd.Context()); err != nil {
				return reported(err)
			}
			fmt.Fprint(cmd.OutOrStdout(), reportTable(render.Cards(dash.Snapshot()), tableWidth))
			return nil
		},
	}
}

func newReportCommand(opts *rootOptions) *cobra.Command {
	var raw bool

	cmd := &cobra.Command{
		Use:   "report <id>",
		Short: "Show the deep-dive analysis of one report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid report id %q", args[0])
			}
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			client, err := newClient(cfg)
			if err != nil {
				return err
			}

			d, err := client.Report(cmd.Context(), id)
			if err != nil {
				return fmt.Errorf("failed to load analysis: %w", err)
			}
			if raw {
				buf, err := json.MarshalIndent(d, "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(buf))
				return nil
			}
			fmt.Fprint(cmd.OutOrStdout(), markdown(reportMarkdown(d)))
			return nil
		},
	}
	cmd.Flags().BoolVar(&raw, "raw", false, "Print the raw JSON record")
	return cmd
}

func detailEntry(d *types.ReportDetail) view.DetailEntry {
	return view.DetailEntry{ID: d.ID, State: view.Loaded, Detail: d, Open: true}
}

func newCVECommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "cve <CVE-ID>",
		Short: "Look up a CVE and explain it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			dash, _, err := newDashboard(cfg, status.NewBoard(status.Console{}))
			if err != nil {
				return err
			}

			if err := dash.AnalyzeCVE(cmd.Context(), args[0]); err != nil {
				return reported(err)
			}
			card := render.NewCVECard(dash.Snapshot().CVE)
			util.PrintColorBold(util.SeverityColor(card.Tier), fmt.Sprintf("%s  Severity: %s  CVSS: %s", card.ID, card.Severity, card.Score))
			fmt.Fprint(cmd.OutOrStdout(), markdown(cveMarkdown(card)))
			return nil
		},
	}
}

func newVoiceCommand(opts *rootOptions) *cobra.Command {
	var text string

	cmd := &cobra.Command{
		Use:   "voice",
		Short: "Ask the voice assistant (reads a line from stdin without --text)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			dash, _, err := newDashboard(cfg, status.NewBoard(status.Console{}))
			if err != nil {
				return err
			}

			var rec voice.Recognizer = voice.Transcript(text)
			if text == "" {
				fmt.Fprint(cmd.OutOrStdout(), "Ask: ")
				rec = voice.NewLineReader(cmd.InOrStdin())
			}

			session, err := dash.Voice(cmd.Context(), rec)
			if err != nil {
				return reported(err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), session.Response)
			return nil
		},
	}
	cmd.Flags().StringVarP(&text, "text", "t", "", "Question to ask instead of reading stdin")
	return cmd
}
