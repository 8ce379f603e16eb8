package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/pynezz/threatdash/internal/fs"
	"github.com/pynezz/threatdash/internal/util"
	"github.com/pynezz/threatdash/pkg/model"

	"gopkg.in/yaml.v3"
)

// Cfg is kept as the name used across the internal packages
type Cfg = model.Config

const (
	DefaultBackendURL     = "http://127.0.0.1:8000"
	DefaultListen         = ":3000"
	DefaultFixtureListen  = ":8000"
	DefaultFixtureDB      = "fixture.db"
	DefaultTimeoutSeconds = 60
	DefaultItemCount      = 3
	DefaultSection        = "overview"
)

var (
	ErrNoBackend  = errors.New("backend url is required")
	ErrBadBackend = errors.New("backend url must be an absolute http(s) url")
	ErrBadFeed    = errors.New("feed needs both a name and a url")
)

// Default returns the configuration used when no file is given.
func Default() *Cfg {
	return &Cfg{
		Backend: model.BackendConfig{
			URL:     DefaultBackendURL,
			Timeout: DefaultTimeoutSeconds,
		},
		Dashboard: model.DashboardConfig{
			Listen:         DefaultListen,
			InitialSection: DefaultSection,
			DefaultCount:   DefaultItemCount,
		},
		Network: model.NetworkConfig{
			ReadTimeout:  10,
			WriteTimeout: 70,
		},
		Feeds: []model.Feed{
			{Name: "The Hacker News", URL: "https://feeds.feedburner.com/TheHackersNews"},
			{Name: "BleepingComputer", URL: "https://www.bleepingcomputer.com/feed/"},
			{Name: "CISA Advisories", URL: "https://www.cisa.gov/cybersecurity-advisories/all.xml"},
		},
		Fixture: model.FixtureConfig{
			Listen:   DefaultFixtureListen,
			Database: DefaultFixtureDB,
		},
	}
}

// LoadConfig loads the configuration from the given path
func LoadConfig(path string) (*Cfg, error) {
	buf, err := fs.ReadFile(path)
	if err != nil {
		util.PrintErrorf("Failed to load configuration file: %s", path)
		return nil, err
	}

	cfg, err := Parse(buf)
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}

	util.PrintSuccess(fmt.Sprintf("Loaded configuration file: %s", path))
	return cfg, nil
}

// Parse decodes yaml on top of the defaults and validates the result.
func Parse(buf []byte) (*Cfg, error) {
	cfg := Default()
	if err := yaml.Unmarshal(buf, cfg); err != nil { // From buf, to cfg, so unset keys keep their defaults
		return nil, err
	}
	applyDefaults(cfg)

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// WriteConfig writes cfg as yaml to path
func WriteConfig(cfg *Cfg, path string) error {
	buf, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return fs.WriteFileAtomic(path, buf, 0o600)
}

// Validate checks the fields every front end relies on.
func Validate(cfg *Cfg) error {
	if strings.TrimSpace(cfg.Backend.URL) == "" {
		return ErrNoBackend
	}
	u, err := url.Parse(cfg.Backend.URL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("%w: %q", ErrBadBackend, cfg.Backend.URL)
	}

	for i, f := range cfg.Feeds {
		if strings.TrimSpace(f.Name) == "" || strings.TrimSpace(f.URL) == "" {
			return fmt.Errorf("feeds[%d]: %w", i, ErrBadFeed)
		}
	}
	return nil
}

// FindFeed returns the preset with the given name (case-insensitive).
func FindFeed(cfg *Cfg, name string) (model.Feed, bool) {
	for _, f := range cfg.Feeds {
		if strings.EqualFold(f.Name, strings.TrimSpace(name)) {
			return f, true
		}
	}
	return model.Feed{}, false
}

func applyDefaults(cfg *Cfg) {
	if cfg.Backend.Timeout < 0 {
		cfg.Backend.Timeout = 0
	}
	if cfg.Dashboard.Listen == "" {
		cfg.Dashboard.Listen = DefaultListen
	}
	if cfg.Dashboard.InitialSection == "" {
		cfg.Dashboard.InitialSection = DefaultSection
	}
	if cfg.Dashboard.DefaultCount <= 0 {
		cfg.Dashboard.DefaultCount = DefaultItemCount
	}
	if cfg.Fixture.Listen == "" {
		cfg.Fixture.Listen = DefaultFixtureListen
	}
	if cfg.Fixture.Database == "" {
		cfg.Fixture.Database = DefaultFixtureDB
	}
}
