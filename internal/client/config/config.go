package config

import (
	"fmt"
	"time"
)

// Transports understood by the client.
const (
	TransportHTTP = "http"
	TransportGRPC = "grpc"
)

// Config holds runtime settings for the GophNotes CLI.
//
// Fields:
//   - ServerAddr: base URL (http) or host:port (grpc) of the server.
//   - Transport: "http" or "grpc".
//   - DBFile: path of the local SQLite store.
//   - SyncInterval: period of background sync rounds.
//   - OnlineCheckInterval: how often the client probes server reachability.
//   - LogLevel: level of the text logger writing to stderr.
type Config struct {
	ServerAddr          string
	Transport           string
	DBFile              string
	SyncInterval        time.Duration
	OnlineCheckInterval time.Duration
	LogLevel            string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerAddr = "http://127.0.0.1:8080"
	c.Transport = TransportHTTP
	c.DBFile = "notes.db"
	c.SyncInterval = 30 * time.Second
	c.OnlineCheckInterval = 3 * time.Second
	c.LogLevel = "warn"
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}

// Validate reports settings the client cannot run with.
func (c *Config) Validate() error {
	switch {
	case c.SyncInterval <= 0:
		return fmt.Errorf("sync interval must be positive, got %s", c.SyncInterval)
	case c.OnlineCheckInterval < 0:
		return fmt.Errorf("online check interval must not be negative, got %s", c.OnlineCheckInterval)
	case c.Transport != TransportHTTP && c.Transport != TransportGRPC:
		return fmt.Errorf("unknown transport %q", c.Transport)
	case c.DBFile == "":
		return fmt.Errorf("database file must be set")
	}
	return nil
}
