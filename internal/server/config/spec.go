// Package config defines the server configuration structure.
package config

import "time"

// ServerConfig is the root configuration for keva-server.
type ServerConfig struct {
	Server  ServerSection  `koanf:"server"`
	Metrics MetricsSection `koanf:"metrics"`
	Store   StoreSection   `koanf:"store"`
	Log     LogSection     `koanf:"log"`
}

// ServerSection configures the client-facing TCP listener.
type ServerSection struct {
	// Addr is the listen address.
	Addr string `koanf:"addr"`

	// ReadTimeout bounds reading one command once its first byte
	// has arrived.
	ReadTimeout time.Duration `koanf:"read_timeout"`

	// WriteTimeout bounds writing one reply batch.
	WriteTimeout time.Duration `koanf:"write_timeout"`

	// IdleTimeout closes connections with no traffic.
	IdleTimeout time.Duration `koanf:"idle_timeout"`

	// RateLimit is the maximum commands per second per client IP.
	// 0 disables rate limiting.
	RateLimit int `koanf:"rate_limit"`

	// MaxConns caps concurrently served connections. 0 means no cap.
	MaxConns int `koanf:"max_conns"`
}

// MetricsSection configures the Prometheus scrape endpoint.
type MetricsSection struct {
	Enabled bool   `koanf:"enabled"`
	Addr    string `koanf:"addr"`
}

// StoreSection configures the in-memory store.
type StoreSection struct {
	// Shards is the shard count for the key map. Must be a power of
	// two; 0 selects the default.
	Shards int `koanf:"shards"`

	// SweepInterval is how often the background sweeper scans for
	// expired keys.
	SweepInterval time.Duration `koanf:"sweep_interval"`

	// Dir and DBFilename have no effect on behavior; they are served
	// verbatim by CONFIG GET for client compatibility.
	Dir        string `koanf:"dir"`
	DBFilename string `koanf:"dbfilename"`
}

// LogSection configures logging.
type LogSection struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}
