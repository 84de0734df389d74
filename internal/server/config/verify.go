// Package config defines the server configuration structure.
package config

import "errors"

// Verify validates the configuration.
func Verify(cfg *ServerConfig) error {
	if err := verifyServer(&cfg.Server); err != nil {
		return err
	}
	if err := verifyMetrics(&cfg.Metrics); err != nil {
		return err
	}
	if err := verifyStore(&cfg.Store); err != nil {
		return err
	}
	return verifyLog(&cfg.Log)
}

func verifyServer(cfg *ServerSection) error {
	if cfg.Addr == "" {
		return errors.New("server.addr is required")
	}
	if cfg.ReadTimeout < 0 || cfg.WriteTimeout < 0 || cfg.IdleTimeout < 0 {
		return errors.New("server timeouts must not be negative")
	}
	if cfg.RateLimit < 0 {
		return errors.New("server.rate_limit must not be negative")
	}
	if cfg.MaxConns < 0 {
		return errors.New("server.max_conns must not be negative")
	}
	return nil
}

func verifyMetrics(cfg *MetricsSection) error {
	if cfg.Enabled && cfg.Addr == "" {
		return errors.New("metrics.addr is required when metrics are enabled")
	}
	return nil
}

func verifyStore(cfg *StoreSection) error {
	if cfg.Shards < 0 || (cfg.Shards != 0 && cfg.Shards&(cfg.Shards-1) != 0) {
		return errors.New("store.shards must be a power of two")
	}
	if cfg.SweepInterval < 0 {
		return errors.New("store.sweep_interval must not be negative")
	}
	return nil
}

func verifyLog(cfg *LogSection) error {
	switch cfg.Level {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return errors.New("log.level must be one of debug, info, warn, error")
	}
	switch cfg.Format {
	case "", "json", "text", "console":
	default:
		return errors.New("log.format must be json or text")
	}
	return nil
}
