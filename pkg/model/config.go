package model

// This is the pkg/model/config.go file, which contains the configuration model for threatdash.
// The same model is read by every front end (web, terminal and CLI) and by the fixture backend.

// Config represents the top-level configuration structure for threatdash.
type Config struct {
	Backend   BackendConfig   `yaml:"backend"`
	Dashboard DashboardConfig `yaml:"dashboard"`
	Network   NetworkConfig   `yaml:"network"`
	Feeds     []Feed          `yaml:"feeds"`
	Fixture   FixtureConfig   `yaml:"fixture"`
}

// BackendConfig points the dashboard at the threat-intel API.
type BackendConfig struct {
	URL string `yaml:"url"`
	// TokenSecret, when set, makes every request carry a short lived HS256 bearer token.
	TokenSecret string `yaml:"token_secret,omitempty"`
	// Timeout is the per request timeout in seconds. 0 disables it.
	Timeout int `yaml:"timeout,omitempty"`
}

// DashboardConfig holds the front end settings.
type DashboardConfig struct {
	Listen         string `yaml:"listen"`
	InitialSection string `yaml:"initial_section,omitempty"`
	DefaultCount   int    `yaml:"default_count,omitempty"`
}

// NetworkConfig defines network-related configuration settings for the web dashboard.
type NetworkConfig struct {
	ReadTimeout  int `yaml:"read_timeout,omitempty"`
	WriteTimeout int `yaml:"write_timeout,omitempty"`
}

// Feed is a preset RSS feed offered by the ingestion form.
type Feed struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

// FixtureConfig configures the stub backend used for local development.
type FixtureConfig struct {
	Listen   string `yaml:"listen"`
	Database string `yaml:"database"`
	Seed     string `yaml:"seed,omitempty"`
}
