// Package config loads the terminal client's runtime settings. Sources are
// layered: defaults, then an optional JSON file (-c/-config), then
// command-line flags. Later sources win.
package config

import "time"

// Config holds runtime settings for the StudyHall client.
type Config struct {
	// ServerAddr is the base URL of the backend, e.g. "http://127.0.0.1:8080".
	ServerAddr string

	// DataDir is where the client SQLite database lives.
	DataDir string

	// PingInterval is how often the network watcher probes reachability.
	PingInterval time.Duration

	// RequestTimeout bounds every REST call.
	RequestTimeout time.Duration

	// Poll cadences per domain.
	RosterInterval        time.Duration
	EventsInterval        time.Duration
	ConversationsInterval time.Duration
	MessagesInterval      time.Duration
	NotificationsInterval time.Duration
	ReportsInterval       time.Duration

	LogLevel  string
	LogFormat string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerAddr = "http://127.0.0.1:8080"
	c.DataDir = "."
	c.PingInterval = 3 * time.Second
	c.RequestTimeout = 10 * time.Second
	c.RosterInterval = 3 * time.Second
	c.EventsInterval = 4 * time.Second
	c.ConversationsInterval = 3 * time.Second
	c.MessagesInterval = 3 * time.Second
	c.NotificationsInterval = 5 * time.Second
	c.ReportsInterval = 5 * time.Second
	c.LogLevel = "info"
	c.LogFormat = "text"
}

// LoadConfig constructs a Config, applies defaults, then overlays values
// from JSON (if present) and command-line flags (if present).
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJSON(cfg)
	parseFlags(cfg)
	return cfg
}
