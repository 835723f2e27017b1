// Package config loads runtime configuration for the idkeeper CLI.
//
// Sources, later ones winning:
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected with -c or -config.
//  3. Command-line flags.
//
// JSON schema, where durations accept "10s" or integer nanoseconds:
//
//	{
//	  "server_url": "http://127.0.0.1:8080",
//	  "request_timeout": "10s",
//	  "online_check_interval": "3s"
//	}
package config

import "time"

// Config holds runtime settings for the idkeeper CLI.
//
// ServerURL is the base URL of the HTTP API. RequestTimeout bounds a single
// API call; OnlineCheckInterval is how often the CLI probes /healthz.
type Config struct {
	ServerURL           string
	RequestTimeout      time.Duration
	OnlineCheckInterval time.Duration
}

// LoadDefaults populates c with development defaults.
func (c *Config) LoadDefaults() {
	c.ServerURL = "http://127.0.0.1:8080"
	c.RequestTimeout = 10 * time.Second
	c.OnlineCheckInterval = 3 * time.Second
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present).
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
