package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mattn/go-runewidth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/pynezz/threatdash/internal/config"
	"github.com/pynezz/threatdash/internal/database/stores"
	"github.com/pynezz/threatdash/internal/fixture"
	"github.com/pynezz/threatdash/internal/render"
	"github.com/pynezz/threatdash/internal/util"
	"github.com/pynezz/threatdash/pkg/types"
)

func TestMain(m *testing.M) {
	util.SetOutput(io.Discard)
	os.Exit(m.Run())
}

// startFixture serves the seeded stub backend and returns its url.
func startFixture(t *testing.T) string {
	t.Helper()
	st, err := stores.ImportAndInit(filepath.Join(t.TempDir(), "fixture.db"), gorm.Config{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	seed, err := fixture.LoadSeed("")
	require.NoError(t, err)
	require.NoError(t, seed.Apply(st, time.Date(2024, 4, 8, 12, 0, 0, 0, time.UTC)))

	app := fixture.NewServer(st, seed, fixture.Options{Quiet: true})
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = app.Listener(ln) }()
	t.Cleanup(func() { _ = app.Shutdown() })
	return "http://" + ln.Addr().String()
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetIn(strings.NewReader(""))
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestLoadBackendOverride(t *testing.T) {
	cfg, err := (&rootOptions{backend: "https://intel.example.com"}).load()
	require.NoError(t, err)
	assert.Equal(t, "https://intel.example.com", cfg.Backend.URL)
	assert.Equal(t, config.DefaultTimeoutSeconds, cfg.Backend.Timeout)

	_, err = (&rootOptions{backend: "ftp://intel"}).load()
	assert.ErrorIs(t, err, config.ErrBadBackend)
}

func TestReportTable(t *testing.T) {
	assert.Equal(t, render.NoReports+"\n", reportTable(nil, tableWidth))

	table := reportTable([]render.Card{
		{ID: 3, MitreCount: 2, Saved: "2024-04-08 12:00:00", Title: "XZ Utils backdoor"},
		{ID: 12, MitreCount: 0, Saved: "2024-04-08 12:00:00", Title: strings.Repeat("漏洞", 60)},
	}, 80)
	lines := strings.Split(strings.TrimRight(table, "\n"), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "ID     MITRE SAVED"))
	assert.True(t, strings.HasPrefix(lines[1], "3      2     2024-04-08 12:00:00 XZ Utils"))
	assert.LessOrEqual(t, runewidth.StringWidth(lines[2]), 80)
	assert.True(t, strings.HasSuffix(lines[2], "…"))
}

func TestReportMarkdown(t *testing.T) {
	md := reportMarkdown(&types.ReportDetail{
		Report: types.Report{ID: 2, Title: "Phishing", Mitre: &types.MitreMapping{Techniques: []string{"T1566"}}},
		IOCs:   &types.IOCSet{IPs: []string{"45.137.21.9"}},
	})
	assert.Contains(t, md, "# Phishing")
	assert.Contains(t, md, "## MITRE ATT&CK (1)")
	assert.Contains(t, md, "- `T1566`")
	assert.Contains(t, md, "- **IP:** `45.137.21.9`")
	assert.Contains(t, md, render.NoEntities)
	assert.Contains(t, md, render.NoSummary)
}

func TestCVEMarkdown(t *testing.T) {
	md := cveMarkdown(render.CVECard{HasResult: true, ID: "CVE-2024-3094", Severity: "CRITICAL", Score: "10", Explanation: "patch\n"})
	assert.Contains(t, md, "# CVE-2024-3094")
	assert.Contains(t, md, "- **CVSS:** 10")
	assert.Contains(t, md, "```\npatch\n```")

	md = cveMarkdown(render.CVECard{Explanation: render.NoExplanation})
	assert.NotContains(t, md, "Severity")
}

func TestCommandsAgainstFixture(t *testing.T) {
	backend := startFixture(t)

	out, err := run(t, "--backend", backend, "reports")
	require.NoError(t, err)
	assert.Contains(t, out, "XZ Utils backdoor")
	assert.Len(t, strings.Split(strings.TrimRight(out, "\n"), "\n"), 4)

	out, err = run(t, "--backend", backend, "report", "--raw", "2")
	require.NoError(t, err)
	var d types.ReportDetail
	require.NoError(t, json.Unmarshal([]byte(out), &d))
	assert.Equal(t, []string{"LockBit"}, d.Entities["ORG"])

	out, err = run(t, "--backend", backend, "voice", "--text", "what is ransomware")
	require.NoError(t, err)
	assert.Contains(t, out, "encrypts files")

	out, err = run(t, "--backend", backend, "ingest", "-n", "1", "https://feeds.example.com/rss")
	require.NoError(t, err)
	assert.Contains(t, out, "Lazarus")

	_, err = run(t, "--backend", backend, "cve", "log4shell")
	assert.ErrorIs(t, err, errReported)

	_, err = run(t, "--backend", backend, "report", "999")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Report not found")
}

func TestVoiceFromStdin(t *testing.T) {
	backend := startFixture(t)

	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetIn(strings.NewReader("hello there\n"))
	cmd.SetArgs([]string{"--backend", backend, "voice"})
	require.NoError(t, cmd.ExecuteContext(context.Background()))
	assert.Contains(t, out.String(), "Ask: Hello!")
}

func TestConfigInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "threatdash.yaml")

	_, err := run(t, "config", "init", path)
	require.NoError(t, err)
	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, config.DefaultBackendURL, cfg.Backend.URL)

	_, err = run(t, "config", "init", path)
	assert.Error(t, err)
	_, err = run(t, "config", "init", "--force", path)
	assert.NoError(t, err)

	_, err = run(t, "--config", path, "config", "check")
	assert.NoError(t, err)

	out, err := run(t, "--config", path, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "backend:")
}

func TestRunServerStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})

	done := make(chan error, 1)
	go func() {
		done <- runServer(ctx, ":0",
			func(string) error { <-stopped; return nil },
			func() error { close(stopped); return nil },
		)
	}()
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("runServer did not return")
	}
}

func TestRunServerListenError(t *testing.T) {
	boom := errors.New("address in use")
	err := runServer(context.Background(), ":1",
		func(string) error { return boom },
		func() error { return nil },
	)
	assert.ErrorIs(t, err, boom)
}
